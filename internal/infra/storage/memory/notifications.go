package memory

import (
	"context"
	"sync"
	"time"

	"tradepost/internal/domain/notification"
)

// NotificationRepository keeps per-recipient feeds with gapless,
// strictly increasing ids allocated under the lock.
type NotificationRepository struct {
	mu       sync.Mutex
	feeds    map[string][]notification.Notification
	counters map[string]int64
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		feeds:    make(map[string][]notification.Notification),
		counters: make(map[string]int64),
	}
}

func (r *NotificationRepository) Append(ctx context.Context, recipient string, kind notification.Type, refs notification.Refs, message string, now time.Time) (notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[recipient]++
	record := notification.Notification{
		ID:        r.counters[recipient],
		Recipient: recipient,
		Type:      kind,
		Message:   message,
		Refs:      refs,
		CreatedAt: now.UTC(),
	}
	r.feeds[recipient] = append(r.feeds[recipient], record)
	return record, nil
}

func (r *NotificationRepository) ListSince(ctx context.Context, recipient string, afterID int64) ([]notification.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	feed := r.feeds[recipient]
	out := make([]notification.Notification, 0, len(feed))
	for _, record := range feed {
		if record.ID > afterID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, recipient string, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	feed := r.feeds[recipient]
	for i := range feed {
		if feed[i].ID == id {
			feed[i].Read = true
			return nil
		}
	}
	return notification.ErrNotFound
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipient string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	feed := r.feeds[recipient]
	for i := range feed {
		feed[i].Read = true
	}
	return nil
}
