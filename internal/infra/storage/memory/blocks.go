package memory

import (
	"context"
	"sort"
	"sync"

	"tradepost/internal/domain/block"
)

// BlockRepository keeps directed block entries, unique per ordered pair.
type BlockRepository struct {
	mu      sync.RWMutex
	entries map[string]map[string]struct{}
}

func NewBlockRepository() *BlockRepository {
	return &BlockRepository{entries: make(map[string]map[string]struct{})}
}

func (r *BlockRepository) Put(ctx context.Context, entry block.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.entries[entry.Blocker]
	if !ok {
		set = make(map[string]struct{})
		r.entries[entry.Blocker] = set
	}
	set[entry.Blocked] = struct{}{}
	return nil
}

func (r *BlockRepository) Delete(ctx context.Context, entry block.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.entries[entry.Blocker]
	if !ok {
		return block.ErrNotBlocked
	}
	if _, ok := set[entry.Blocked]; !ok {
		return block.ErrNotBlocked
	}
	delete(set, entry.Blocked)
	return nil
}

func (r *BlockRepository) Exists(ctx context.Context, blocker, blocked string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.entries[blocker]
	if !ok {
		return false, nil
	}
	_, ok = set[blocked]
	return ok, nil
}

func (r *BlockRepository) ListByBlocker(ctx context.Context, blocker string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.entries[blocker]
	out := make([]string, 0, len(set))
	for blocked := range set {
		out = append(out, blocked)
	}
	sort.Strings(out)
	return out, nil
}
