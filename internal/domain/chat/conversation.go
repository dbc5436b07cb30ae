package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"tradepost/internal/domain/shared/events"
)

var (
	ErrNotFound         = errors.New("chat: conversation not found")
	ErrAlreadyExists    = errors.New("chat: conversation already exists for pair")
	ErrConcurrentUpdate = errors.New("chat: concurrent update detected")
	ErrSelfConversation = errors.New("chat: cannot start a conversation with yourself")
	ErrParticipantIDs   = errors.New("chat: both participant ids are required")
	ErrNotParticipant   = errors.New("chat: user is not a participant")
	ErrEmptyText        = errors.New("chat: message text is required")
	ErrPreviewProduct   = errors.New("chat: product preview requires a product id")
	ErrReplyTarget      = errors.New("chat: reply target does not exist")
)

type ConversationID string

type MessageKind string

const (
	KindText           MessageKind = "TEXT"
	KindProductPreview MessageKind = "PRODUCT_PREVIEW"
)

// Message is immutable once stored. IDs are allocated from the
// conversation counter and are unique within the conversation.
type Message struct {
	ID        int64
	Sender    string
	Text      string
	Kind      MessageKind
	ReplyTo   *int64
	ProductID string
	// Suppressed marks a send that hit a block. The record is kept so
	// the sender's own history stays intact, but no other reader ever
	// sees it.
	Suppressed bool
	CreatedAt  time.Time
}

// Conversation owns the message sequence between exactly two users. The
// pair identity is order-independent: participants are stored sorted.
type Conversation struct {
	ID            ConversationID
	Participants  [2]string
	Messages      []Message
	NextMessageID int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ConversationID) (*Conversation, error)
	ByParticipants(ctx context.Context, userA, userB string) (*Conversation, error)
	// Create fails with ErrAlreadyExists when a conversation for the
	// canonicalized pair was inserted concurrently.
	Create(ctx context.Context, conversation *Conversation) error
	// Save persists with an optimistic version check and fails with
	// ErrConcurrentUpdate on a lost race.
	Save(ctx context.Context, conversation *Conversation) error
}

// CanonicalPair normalizes two participant ids into the fixed order used
// as the pair identity, so lookup is independent of call order.
func CanonicalPair(userA, userB string) ([2]string, error) {
	userA = strings.TrimSpace(userA)
	userB = strings.TrimSpace(userB)
	if userA == "" || userB == "" {
		return [2]string{}, ErrParticipantIDs
	}
	if userA == userB {
		return [2]string{}, ErrSelfConversation
	}
	if userA > userB {
		userA, userB = userB, userA
	}
	return [2]string{userA, userB}, nil
}

// PairKey is the storage lookup key for a participant pair.
func PairKey(participants [2]string) string {
	return participants[0] + "|" + participants[1]
}

// ProductPreview seeds a new conversation with listing context ahead of
// the initiator's first message.
type ProductPreview struct {
	ProductID    string
	FirstMessage string
}

type CreateParams struct {
	ID        ConversationID
	UserA     string
	UserB     string
	Initiator string
	Preview   *ProductPreview
	Now       time.Time
}

func NewConversation(params CreateParams) (*Conversation, error) {
	pair, err := CanonicalPair(params.UserA, params.UserB)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("chat: id is required")
	}
	now := params.Now.UTC()
	c := &Conversation{
		ID:            params.ID,
		Participants:  pair,
		NextMessageID: 1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	productID := ""
	if params.Preview != nil {
		productID = strings.TrimSpace(params.Preview.ProductID)
		if productID == "" {
			return nil, ErrPreviewProduct
		}
		initiator := strings.TrimSpace(params.Initiator)
		if !c.HasParticipant(initiator) {
			return nil, ErrNotParticipant
		}
		c.appendMessage(Message{
			Sender:    initiator,
			Text:      "Listing shared",
			Kind:      KindProductPreview,
			ProductID: productID,
			CreatedAt: now,
		})
		if text := strings.TrimSpace(params.Preview.FirstMessage); text != "" {
			c.appendMessage(Message{
				Sender:    initiator,
				Text:      text,
				Kind:      KindText,
				CreatedAt: now,
			})
		}
	}
	c.Record(ConversationStarted{
		ConversationID: c.ID,
		Participants:   c.Participants,
		ProductID:      productID,
		At:             now,
	})
	return c, nil
}

func (c *Conversation) HasParticipant(user string) bool {
	return user != "" && (c.Participants[0] == user || c.Participants[1] == user)
}

// Other resolves the non-caller participant.
func (c *Conversation) Other(user string) (string, error) {
	switch user {
	case c.Participants[0]:
		return c.Participants[1], nil
	case c.Participants[1]:
		return c.Participants[0], nil
	default:
		return "", ErrNotParticipant
	}
}

type PostParams struct {
	Sender  string
	Text    string
	ReplyTo *int64
	Now     time.Time
	// Suppress marks the message as undeliverable. Set when the
	// recipient has blocked the sender; the caller still gets a normal
	// success result so the block stays invisible to them.
	Suppress bool
}

// Post allocates the next message id unconditionally, so ids form a
// strictly increasing delivery cursor even across suppressed sends. A
// suppressed message is stored flagged: the sender keeps it in their
// own history, nobody else ever receives it.
func (c *Conversation) Post(params PostParams) (int64, error) {
	sender := strings.TrimSpace(params.Sender)
	if !c.HasParticipant(sender) {
		return 0, ErrNotParticipant
	}
	text := strings.TrimSpace(params.Text)
	if text == "" {
		return 0, ErrEmptyText
	}
	if params.ReplyTo != nil && (*params.ReplyTo < 1 || *params.ReplyTo >= c.NextMessageID) {
		return 0, ErrReplyTarget
	}
	now := params.Now.UTC()
	id := c.NextMessageID
	c.NextMessageID++
	c.Messages = append(c.Messages, Message{
		ID:         id,
		Sender:     sender,
		Text:       text,
		Kind:       KindText,
		ReplyTo:    params.ReplyTo,
		Suppressed: params.Suppress,
		CreatedAt:  now,
	})
	c.UpdatedAt = now
	c.Record(MessagePosted{
		ConversationID: c.ID,
		MessageID:      id,
		Sender:         sender,
		Suppressed:     params.Suppress,
		At:             now,
	})
	return id, nil
}

// appendMessage stores a message through the normal allocation path.
// Used for seed messages where validation already happened.
func (c *Conversation) appendMessage(message Message) {
	message.ID = c.NextMessageID
	c.NextMessageID++
	c.Messages = append(c.Messages, message)
}

// VisibleTo applies the reader-side visibility policy over stored
// messages with id > sinceID. Suppressed messages are visible only to
// their sender. When the other party has blocked the reader, only the
// reader's own messages and product previews remain: previews are
// system-attached context, not conversational content.
func (c *Conversation) VisibleTo(reader string, sinceID int64, blockedByOther bool) []Message {
	visible := make([]Message, 0, len(c.Messages))
	for _, message := range c.Messages {
		if message.ID <= sinceID {
			continue
		}
		if message.Suppressed && message.Sender != reader {
			continue
		}
		if blockedByOther && message.Sender != reader && message.Kind != KindProductPreview {
			continue
		}
		visible = append(visible, message)
	}
	return visible
}
