package notify

import (
	"context"
	"log/slog"
	"time"

	"tradepost/internal/domain/notification"
)

// Dispatcher is the user-facing notification side channel. Emit is
// fire-and-forget: a store failure is logged and dropped so the
// triggering conversation or offer operation never fails because of it.
type Dispatcher struct {
	Store  notification.Repository
	Logger *slog.Logger
}

func (d *Dispatcher) Emit(ctx context.Context, recipient string, kind notification.Type, refs notification.Refs, message string) {
	if d == nil || d.Store == nil || recipient == "" {
		return
	}
	if _, err := d.Store.Append(ctx, recipient, kind, refs, message, time.Now()); err != nil {
		if d.Logger != nil {
			d.Logger.Error("notification emit failed", "recipient", recipient, "type", kind, "error", err)
		}
	}
}

func (d *Dispatcher) ListSince(ctx context.Context, recipient string, afterID int64) ([]notification.Notification, error) {
	return d.Store.ListSince(ctx, recipient, afterID)
}

func (d *Dispatcher) MarkRead(ctx context.Context, recipient string, id int64) error {
	return d.Store.MarkRead(ctx, recipient, id)
}

func (d *Dispatcher) MarkAllRead(ctx context.Context, recipient string) error {
	return d.Store.MarkAllRead(ctx, recipient)
}
