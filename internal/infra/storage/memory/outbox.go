package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "tradepost/internal/app/outbox"
	infraoutbox "tradepost/internal/infra/outbox"
)

// Outbox buffers event records in memory for the worker to drain.
// Implements both the application-side Add and the worker-side store.
type Outbox struct {
	mu      sync.Mutex
	records []outboxRecord
}

type outboxRecord struct {
	event       infraoutbox.PendingEvent
	claimed     bool
	sent        bool
	nextAttempt time.Time
	lastError   string
}

func NewOutbox() *Outbox {
	return &Outbox{}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, outboxRecord{
		event: infraoutbox.PendingEvent{
			ID:         record.ID,
			Name:       record.Name,
			Payload:    record.Payload,
			OccurredAt: record.OccurredAt,
			Aggregate:  record.Aggregate,
			Headers:    record.Headers,
		},
	})
	return nil
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.PendingEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	for i := range o.records {
		r := &o.records[i]
		if r.sent || r.claimed || r.nextAttempt.After(now) {
			continue
		}
		r.claimed = true
		event := r.event
		return &event, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.records {
		if o.records[i].event.ID == id {
			o.records[i].sent = true
			o.records[i].claimed = false
			return nil
		}
	}
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.records {
		if o.records[i].event.ID == id {
			o.records[i].claimed = false
			o.records[i].nextAttempt = next
			o.records[i].lastError = errMsg
			o.records[i].event.Attempts++
			return nil
		}
	}
	return nil
}

// Pending reports unsent records; used by readiness checks and tests.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, r := range o.records {
		if !r.sent {
			n++
		}
	}
	return n
}

var _ appoutbox.Outbox = (*Outbox)(nil)
var _ infraoutbox.Store = (*Outbox)(nil)
