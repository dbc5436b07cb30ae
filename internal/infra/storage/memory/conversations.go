package memory

import (
	"context"
	"sync"

	domainchat "tradepost/internal/domain/chat"
)

// ConversationRepository is an in-memory implementation with the same
// uniqueness and optimistic-concurrency behavior as the mongo one.
type ConversationRepository struct {
	mu     sync.RWMutex
	byID   map[domainchat.ConversationID]*domainchat.Conversation
	byPair map[string]domainchat.ConversationID
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		byID:   make(map[domainchat.ConversationID]*domainchat.Conversation),
		byPair: make(map[string]domainchat.ConversationID),
	}
}

func (r *ConversationRepository) ByID(ctx context.Context, id domainchat.ConversationID) (*domainchat.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.byID[id]
	if !ok {
		return nil, domainchat.ErrNotFound
	}
	return cloneConversation(stored), nil
}

func (r *ConversationRepository) ByParticipants(ctx context.Context, userA, userB string) (*domainchat.Conversation, error) {
	pair, err := domainchat.CanonicalPair(userA, userB)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPair[domainchat.PairKey(pair)]
	if !ok {
		return nil, domainchat.ErrNotFound
	}
	return cloneConversation(r.byID[id]), nil
}

func (r *ConversationRepository) Create(ctx context.Context, conversation *domainchat.Conversation) error {
	key := domainchat.PairKey(conversation.Participants)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byPair[key]; exists {
		return domainchat.ErrAlreadyExists
	}
	r.byPair[key] = conversation.ID
	r.byID[conversation.ID] = cloneConversation(conversation)
	return nil
}

func (r *ConversationRepository) Save(ctx context.Context, conversation *domainchat.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.byID[conversation.ID]
	if !ok {
		return domainchat.ErrNotFound
	}
	if stored.Version != conversation.Version {
		return domainchat.ErrConcurrentUpdate
	}
	next := cloneConversation(conversation)
	next.Version = conversation.Version + 1
	r.byID[conversation.ID] = next
	conversation.Version = next.Version
	return nil
}

func cloneConversation(c *domainchat.Conversation) *domainchat.Conversation {
	clone := &domainchat.Conversation{
		ID:            c.ID,
		Participants:  c.Participants,
		Messages:      append([]domainchat.Message(nil), c.Messages...),
		NextMessageID: c.NextMessageID,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
		Version:       c.Version,
	}
	return clone
}
