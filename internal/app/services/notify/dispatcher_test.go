package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepost/internal/domain/notification"
	"tradepost/internal/infra/storage/memory"
)

func TestEmitAppendsUnread(t *testing.T) {
	store := memory.NewNotificationRepository()
	dispatcher := &Dispatcher{Store: store}
	ctx := context.Background()

	dispatcher.Emit(ctx, "ben", notification.TypeOfferAccepted, notification.Refs{ProductID: "prod-1"}, "accepted")

	feed, err := dispatcher.ListSince(ctx, "ben", 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, int64(1), feed[0].ID)
	assert.False(t, feed[0].Read)
	assert.Equal(t, "prod-1", feed[0].Refs.ProductID)
}

func TestEmitSwallowsStoreFailure(t *testing.T) {
	dispatcher := &Dispatcher{Store: failingStore{}}

	assert.NotPanics(t, func() {
		dispatcher.Emit(context.Background(), "ben", notification.TypeOfferReceived, notification.Refs{}, "offer")
	})
}

func TestEmitIgnoresEmptyRecipient(t *testing.T) {
	store := memory.NewNotificationRepository()
	dispatcher := &Dispatcher{Store: store}
	ctx := context.Background()

	dispatcher.Emit(ctx, "", notification.TypeOfferReceived, notification.Refs{}, "offer")

	feed, err := dispatcher.ListSince(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestMarkReadFlows(t *testing.T) {
	store := memory.NewNotificationRepository()
	dispatcher := &Dispatcher{Store: store}
	ctx := context.Background()

	dispatcher.Emit(ctx, "ben", notification.TypeOfferReceived, notification.Refs{}, "one")
	dispatcher.Emit(ctx, "ben", notification.TypeOfferReceived, notification.Refs{}, "two")

	require.NoError(t, dispatcher.MarkRead(ctx, "ben", 1))
	feed, err := dispatcher.ListSince(ctx, "ben", 0)
	require.NoError(t, err)
	assert.True(t, feed[0].Read)
	assert.False(t, feed[1].Read)

	require.NoError(t, dispatcher.MarkAllRead(ctx, "ben"))
	feed, err = dispatcher.ListSince(ctx, "ben", 0)
	require.NoError(t, err)
	assert.True(t, feed[1].Read)

	err = dispatcher.MarkRead(ctx, "ben", 99)
	assert.ErrorIs(t, err, notification.ErrNotFound)
}

type failingStore struct{}

func (failingStore) Append(context.Context, string, notification.Type, notification.Refs, string, time.Time) (notification.Notification, error) {
	return notification.Notification{}, errors.New("store down")
}

func (failingStore) ListSince(context.Context, string, int64) ([]notification.Notification, error) {
	return nil, errors.New("store down")
}

func (failingStore) MarkRead(context.Context, string, int64) error {
	return errors.New("store down")
}

func (failingStore) MarkAllRead(context.Context, string) error {
	return errors.New("store down")
}
