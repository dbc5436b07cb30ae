package block

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrSelfBlock  = errors.New("block: users cannot block themselves")
	ErrNotBlocked = errors.New("block: no such block entry")
	ErrUserIDs    = errors.New("block: both user ids are required")
)

// Entry is a directed block relation. Uniqueness per ordered pair is
// enforced by the repository.
type Entry struct {
	Blocker string
	Blocked string
}

type Repository interface {
	Put(ctx context.Context, entry Entry) error
	Delete(ctx context.Context, entry Entry) error
	Exists(ctx context.Context, blocker, blocked string) (bool, error)
	ListByBlocker(ctx context.Context, blocker string) ([]string, error)
}

// Registry answers every visibility and delivery decision in the engine.
type Registry struct {
	Entries Repository
}

// Block is idempotent: re-blocking an already blocked user succeeds.
func (r *Registry) Block(ctx context.Context, blocker, blocked string) error {
	blocker, blocked, err := normalizePair(blocker, blocked)
	if err != nil {
		return err
	}
	if blocker == blocked {
		return ErrSelfBlock
	}
	return r.Entries.Put(ctx, Entry{Blocker: blocker, Blocked: blocked})
}

func (r *Registry) Unblock(ctx context.Context, blocker, blocked string) error {
	blocker, blocked, err := normalizePair(blocker, blocked)
	if err != nil {
		return err
	}
	return r.Entries.Delete(ctx, Entry{Blocker: blocker, Blocked: blocked})
}

// IsBlockedBy reports whether blocker has blocked target. Directional;
// used where visibility depends on who placed the block.
func (r *Registry) IsBlockedBy(ctx context.Context, blocker, target string) (bool, error) {
	return r.Entries.Exists(ctx, blocker, target)
}

// IsBlocked reports whether either side has blocked the other. Used for
// negotiation actions where a block in any direction halts the deal.
func (r *Registry) IsBlocked(ctx context.Context, a, b string) (bool, error) {
	blocked, err := r.Entries.Exists(ctx, a, b)
	if err != nil || blocked {
		return blocked, err
	}
	return r.Entries.Exists(ctx, b, a)
}

func (r *Registry) ListBlocked(ctx context.Context, user string) ([]string, error) {
	return r.Entries.ListByBlocker(ctx, strings.TrimSpace(user))
}

func normalizePair(a, b string) (string, string, error) {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == "" || b == "" {
		return "", "", ErrUserIDs
	}
	return a, b, nil
}
