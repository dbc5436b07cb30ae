package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepost/internal/app/services/notify"
	"tradepost/internal/domain/block"
	domainchat "tradepost/internal/domain/chat"
	"tradepost/internal/domain/notification"
	"tradepost/internal/infra/storage/memory"
)

func newTestService() (*Service, *memory.NotificationRepository, *block.Registry) {
	notifications := memory.NewNotificationRepository()
	blocks := &block.Registry{Entries: memory.NewBlockRepository()}
	svc := &Service{
		Conversations: memory.NewConversationRepository(),
		Blocks:        blocks,
		Notifier:      &notify.Dispatcher{Store: notifications},
	}
	return svc, notifications, blocks
}

func TestGetOrCreateConvergesForBothCallers(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, StartParams{Initiator: "alice", Peer: "bob"})
	require.NoError(t, err)
	second, err := svc.GetOrCreate(ctx, StartParams{Initiator: "bob", Peer: "alice"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestGetOrCreateSeedsProductPreview(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	conversation, err := svc.GetOrCreate(ctx, StartParams{
		Initiator:    "alice",
		Peer:         "bob",
		ProductID:    "prod-1",
		FirstMessage: "is this still available?",
	})
	require.NoError(t, err)

	messages, err := svc.FetchMessages(ctx, conversation.ID, "bob", 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, domainchat.KindProductPreview, messages[0].Kind)
	assert.Equal(t, "prod-1", messages[0].ProductID)
	assert.Equal(t, "is this still available?", messages[1].Text)
}

func TestPostMessageRoundTrip(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	conversation, err := svc.GetOrCreate(ctx, StartParams{Initiator: "alice", Peer: "bob"})
	require.NoError(t, err)

	id, err := svc.PostMessage(ctx, conversation.ID, "alice", "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	messages, err := svc.FetchMessages(ctx, conversation.ID, "bob", 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "hello", messages[0].Text)
	assert.Equal(t, "alice", messages[0].Sender)
}

func TestPostMessageSuppressedByBlock(t *testing.T) {
	svc, notifications, blocks := newTestService()
	ctx := context.Background()
	conversation, err := svc.GetOrCreate(ctx, StartParams{Initiator: "alice", Peer: "bob"})
	require.NoError(t, err)

	require.NoError(t, blocks.Block(ctx, "bob", "alice"))

	// alice cannot tell she was blocked: the send succeeds with a
	// normal message id.
	id, err := svc.PostMessage(ctx, conversation.ID, "alice", "hi bob", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	forBob, err := svc.FetchMessages(ctx, conversation.ID, "bob", 0)
	require.NoError(t, err)
	assert.Empty(t, forBob)

	// alice's own history keeps the message: she cannot infer the
	// block from her fetches either.
	forAlice, err := svc.FetchMessages(ctx, conversation.ID, "alice", 0)
	require.NoError(t, err)
	require.Len(t, forAlice, 1)
	assert.Equal(t, "hi bob", forAlice[0].Text)

	// bob gets a notification about the attempt instead.
	feed, err := notifications.ListSince(ctx, "bob", 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, notification.TypeMessageBlocked, feed[0].Type)
	assert.Equal(t, string(conversation.ID), feed[0].Refs.ConversationID)

	// The suppressed send still consumed its id.
	require.NoError(t, blocks.Unblock(ctx, "bob", "alice"))
	next, err := svc.PostMessage(ctx, conversation.ID, "alice", "hi again", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), next)
}

func TestFetchMessagesHidesBlockedContentFromReader(t *testing.T) {
	svc, _, blocks := newTestService()
	ctx := context.Background()
	conversation, err := svc.GetOrCreate(ctx, StartParams{Initiator: "alice", Peer: "bob"})
	require.NoError(t, err)

	_, err = svc.PostMessage(ctx, conversation.ID, "alice", "from alice", nil)
	require.NoError(t, err)
	_, err = svc.PostMessage(ctx, conversation.ID, "bob", "from bob", nil)
	require.NoError(t, err)

	require.NoError(t, blocks.Block(ctx, "bob", "alice"))

	// Once bob blocks alice, alice only sees her own side of history.
	forAlice, err := svc.FetchMessages(ctx, conversation.ID, "alice", 0)
	require.NoError(t, err)
	require.Len(t, forAlice, 1)
	assert.Equal(t, "alice", forAlice[0].Sender)

	// bob, the blocker, keeps the full history.
	forBob, err := svc.FetchMessages(ctx, conversation.ID, "bob", 0)
	require.NoError(t, err)
	assert.Len(t, forBob, 2)
}

func TestFetchMessagesCursor(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	conversation, err := svc.GetOrCreate(ctx, StartParams{Initiator: "alice", Peer: "bob"})
	require.NoError(t, err)

	for _, text := range []string{"one", "two", "three"} {
		_, err := svc.PostMessage(ctx, conversation.ID, "alice", text, nil)
		require.NoError(t, err)
	}

	messages, err := svc.FetchMessages(ctx, conversation.ID, "bob", 2)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, int64(3), messages[0].ID)
}

func TestFetchMessagesRejectsOutsider(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	conversation, err := svc.GetOrCreate(ctx, StartParams{Initiator: "alice", Peer: "bob"})
	require.NoError(t, err)

	_, err = svc.FetchMessages(ctx, conversation.ID, "mallory", 0)
	assert.ErrorIs(t, err, domainchat.ErrNotParticipant)
}

func TestPostMessageUnknownConversation(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.PostMessage(context.Background(), "missing", "alice", "hi", nil)
	assert.ErrorIs(t, err, domainchat.ErrNotFound)
}
