package notification

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("notification: not found")

type Type string

const (
	TypeOfferReceived  Type = "offer_received"
	TypeOfferAccepted  Type = "offer_accepted"
	TypeOfferRejected  Type = "offer_rejected"
	TypeProductUpdated Type = "product_updated"
	TypeMessageBlocked Type = "message_blocked"
)

// Refs are the optional foreign references a notification may carry.
// They outlive the referenced entities: a notification about a deleted
// listing keeps pointing at its id.
type Refs struct {
	ProductID      string
	ConversationID string
	OfferBuyer     string
}

// Notification ids are strictly increasing and gapless per recipient,
// allocated by the repository. Only the Read flag is ever mutated.
type Notification struct {
	ID        int64
	Recipient string
	Type      Type
	Message   string
	Refs      Refs
	Read      bool
	CreatedAt time.Time
}

type Repository interface {
	// Append allocates the next id for the recipient and persists the
	// record unread.
	Append(ctx context.Context, recipient string, kind Type, refs Refs, message string, now time.Time) (Notification, error)
	ListSince(ctx context.Context, recipient string, afterID int64) ([]Notification, error)
	MarkRead(ctx context.Context, recipient string, id int64) error
	MarkAllRead(ctx context.Context, recipient string) error
}
