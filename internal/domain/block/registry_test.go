package block

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEntries struct {
	entries map[Entry]struct{}
}

func newFakeEntries() *fakeEntries {
	return &fakeEntries{entries: map[Entry]struct{}{}}
}

func (f *fakeEntries) Put(_ context.Context, entry Entry) error {
	f.entries[entry] = struct{}{}
	return nil
}

func (f *fakeEntries) Delete(_ context.Context, entry Entry) error {
	if _, ok := f.entries[entry]; !ok {
		return ErrNotBlocked
	}
	delete(f.entries, entry)
	return nil
}

func (f *fakeEntries) Exists(_ context.Context, blocker, blocked string) (bool, error) {
	_, ok := f.entries[Entry{Blocker: blocker, Blocked: blocked}]
	return ok, nil
}

func (f *fakeEntries) ListByBlocker(_ context.Context, blocker string) ([]string, error) {
	var out []string
	for entry := range f.entries {
		if entry.Blocker == blocker {
			out = append(out, entry.Blocked)
		}
	}
	sort.Strings(out)
	return out, nil
}

func TestBlockIsIdempotent(t *testing.T) {
	registry := &Registry{Entries: newFakeEntries()}
	ctx := context.Background()

	require.NoError(t, registry.Block(ctx, "alice", "bob"))
	require.NoError(t, registry.Block(ctx, "alice", "bob"))

	blocked, err := registry.IsBlockedBy(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, blocked)
}

func TestBlockSelfRejected(t *testing.T) {
	registry := &Registry{Entries: newFakeEntries()}
	err := registry.Block(context.Background(), "alice", "alice")
	assert.ErrorIs(t, err, ErrSelfBlock)
}

func TestBlockRequiresBothIDs(t *testing.T) {
	registry := &Registry{Entries: newFakeEntries()}
	err := registry.Block(context.Background(), "alice", "  ")
	assert.ErrorIs(t, err, ErrUserIDs)
}

func TestUnblockUnknownEntry(t *testing.T) {
	registry := &Registry{Entries: newFakeEntries()}
	err := registry.Unblock(context.Background(), "alice", "bob")
	assert.ErrorIs(t, err, ErrNotBlocked)
}

func TestIsBlockedByIsDirectional(t *testing.T) {
	registry := &Registry{Entries: newFakeEntries()}
	ctx := context.Background()
	require.NoError(t, registry.Block(ctx, "alice", "bob"))

	blocked, err := registry.IsBlockedBy(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, blocked)

	blocked, err = registry.IsBlockedBy(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestIsBlockedMatchesEitherDirection(t *testing.T) {
	registry := &Registry{Entries: newFakeEntries()}
	ctx := context.Background()
	require.NoError(t, registry.Block(ctx, "alice", "bob"))

	for _, pair := range [][2]string{{"alice", "bob"}, {"bob", "alice"}} {
		blocked, err := registry.IsBlocked(ctx, pair[0], pair[1])
		require.NoError(t, err)
		assert.True(t, blocked)
	}

	blocked, err := registry.IsBlocked(ctx, "alice", "carol")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestListBlocked(t *testing.T) {
	registry := &Registry{Entries: newFakeEntries()}
	ctx := context.Background()
	require.NoError(t, registry.Block(ctx, "alice", "carol"))
	require.NoError(t, registry.Block(ctx, "alice", "bob"))
	require.NoError(t, registry.Block(ctx, "dave", "alice"))

	blocked, err := registry.ListBlocked(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, blocked)
}
