package ginserver

import (
	"log/slog"
	"net/http"
	"strconv"

	gin "github.com/gin-gonic/gin"

	"tradepost/internal/app/dto"
	"tradepost/internal/app/services/notify"
)

type NotificationHandler struct {
	Notifications *notify.Dispatcher
	Logger        *slog.Logger
}

func (h *NotificationHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	sinceID, err := sinceParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an integer"})
		return
	}
	notifications, err := h.Notifications.ListSince(c.Request.Context(), user.ID, sinceID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	items := make([]dto.Notification, 0, len(notifications))
	for _, n := range notifications {
		items = append(items, dto.Notification{
			ID:             n.ID,
			Type:           string(n.Type),
			Message:        n.Message,
			ProductID:      n.Refs.ProductID,
			ConversationID: n.Refs.ConversationID,
			Read:           n.Read,
			CreatedAt:      n.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, dto.NotificationList{Items: items})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
		return
	}
	if err := h.Notifications.MarkRead(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.Notifications.MarkAllRead(c.Request.Context(), user.ID); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
