package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainchat "tradepost/internal/domain/chat"
)

func newStoredConversation(t *testing.T, repo *ConversationRepository) *domainchat.Conversation {
	t.Helper()
	conversation, err := domainchat.NewConversation(domainchat.CreateParams{
		ID:    "conv-1",
		UserA: "alice",
		UserB: "bob",
		Now:   time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), conversation))
	return conversation
}

func TestConversationCreateEnforcesPairUniqueness(t *testing.T) {
	repo := NewConversationRepository()
	newStoredConversation(t, repo)

	duplicate, err := domainchat.NewConversation(domainchat.CreateParams{
		ID:    "conv-2",
		UserA: "bob",
		UserB: "alice",
		Now:   time.Now(),
	})
	require.NoError(t, err)

	err = repo.Create(context.Background(), duplicate)
	assert.ErrorIs(t, err, domainchat.ErrAlreadyExists)
}

func TestConversationByParticipantsOrderIndependent(t *testing.T) {
	repo := NewConversationRepository()
	stored := newStoredConversation(t, repo)
	ctx := context.Background()

	found, err := repo.ByParticipants(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, found.ID)

	_, err = repo.ByParticipants(ctx, "alice", "carol")
	assert.ErrorIs(t, err, domainchat.ErrNotFound)
}

func TestConversationSaveDetectsLostRace(t *testing.T) {
	repo := NewConversationRepository()
	newStoredConversation(t, repo)
	ctx := context.Background()

	first, err := repo.ByID(ctx, "conv-1")
	require.NoError(t, err)
	second, err := repo.ByID(ctx, "conv-1")
	require.NoError(t, err)

	_, err = first.Post(domainchat.PostParams{Sender: "alice", Text: "one", Now: time.Now()})
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	_, err = second.Post(domainchat.PostParams{Sender: "bob", Text: "two", Now: time.Now()})
	require.NoError(t, err)
	err = repo.Save(ctx, second)
	assert.ErrorIs(t, err, domainchat.ErrConcurrentUpdate)

	// The winner's state is intact and the loser can retry from a
	// fresh read.
	reloaded, err := repo.ByID(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, reloaded.Messages, 1)
	assert.Equal(t, "one", reloaded.Messages[0].Text)
	assert.Equal(t, int64(2), reloaded.NextMessageID)
}

func TestConversationReadsReturnClones(t *testing.T) {
	repo := NewConversationRepository()
	newStoredConversation(t, repo)
	ctx := context.Background()

	loaded, err := repo.ByID(ctx, "conv-1")
	require.NoError(t, err)
	_, err = loaded.Post(domainchat.PostParams{Sender: "alice", Text: "draft", Now: time.Now()})
	require.NoError(t, err)

	fresh, err := repo.ByID(ctx, "conv-1")
	require.NoError(t, err)
	assert.Empty(t, fresh.Messages)
}
