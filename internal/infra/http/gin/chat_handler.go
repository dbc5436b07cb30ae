package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"tradepost/internal/app/dto"
	chatsvc "tradepost/internal/app/services/chat"
	domainchat "tradepost/internal/domain/chat"
)

type ChatHandler struct {
	Chat   *chatsvc.Service
	Logger *slog.Logger
}

type createConversationRequest struct {
	PeerID       string `json:"peer_id" binding:"required"`
	ProductID    string `json:"product_id"`
	FirstMessage string `json:"first_message"`
}

// CreateConversation returns the pair's conversation, creating it on
// first contact. Repeat calls with the same peer return the same id.
func (h *ChatHandler) CreateConversation(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conversation, err := h.Chat.GetOrCreate(c.Request.Context(), chatsvc.StartParams{
		Initiator:    user.ID,
		Peer:         req.PeerID,
		ProductID:    req.ProductID,
		FirstMessage: req.FirstMessage,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, dto.Conversation{
		ID:           string(conversation.ID),
		Participants: conversation.Participants[:],
		CreatedAt:    conversation.CreatedAt,
	})
}

// ListMessages returns the messages visible to the caller with id
// greater than the since cursor.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	sinceID, err := sinceParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an integer"})
		return
	}
	messages, err := h.Chat.FetchMessages(c.Request.Context(), domainchat.ConversationID(c.Param("id")), user.ID, sinceID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	items := make([]dto.ChatMessage, 0, len(messages))
	for _, m := range messages {
		items = append(items, dto.ChatMessage{
			ID:        m.ID,
			Sender:    m.Sender,
			Text:      m.Text,
			Kind:      string(m.Kind),
			ReplyTo:   m.ReplyTo,
			ProductID: m.ProductID,
			CreatedAt: m.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, dto.ChatMessageList{Items: items})
}

type sendMessageRequest struct {
	Text    string `json:"text" binding:"required"`
	ReplyTo *int64 `json:"reply_to"`
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.Chat.PostMessage(c.Request.Context(), domainchat.ConversationID(c.Param("id")), user.ID, req.Text, req.ReplyTo)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MessageSent{MessageID: id})
}

func sinceParam(c *gin.Context) (int64, error) {
	raw := c.Query("since")
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}
