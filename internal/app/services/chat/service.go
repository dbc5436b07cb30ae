package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	appoutbox "tradepost/internal/app/outbox"
	"tradepost/internal/app/services/notify"
	"tradepost/internal/domain/block"
	domainchat "tradepost/internal/domain/chat"
	"tradepost/internal/domain/notification"
)

// saveAttempts bounds the optimistic-concurrency retry loop around a
// conversation mutation. Every attempt reloads the document, so the
// message id allocation behaves as an atomic increment-and-fetch.
const saveAttempts = 3

type Service struct {
	Conversations domainchat.Repository
	Blocks        *block.Registry
	Notifier      *notify.Dispatcher
	Outbox        appoutbox.Outbox
	Encoder       appoutbox.EventEncoder
	Logger        *slog.Logger
}

type StartParams struct {
	Initiator    string
	Peer         string
	ProductID    string
	FirstMessage string
}

// GetOrCreate resolves the single conversation for the pair, creating it
// on first contact. The repository enforces pair uniqueness, so two
// participants racing through here converge on one conversation.
func (s *Service) GetOrCreate(ctx context.Context, params StartParams) (*domainchat.Conversation, error) {
	existing, err := s.Conversations.ByParticipants(ctx, params.Initiator, params.Peer)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domainchat.ErrNotFound) {
		return nil, err
	}

	var preview *domainchat.ProductPreview
	if strings.TrimSpace(params.ProductID) != "" {
		preview = &domainchat.ProductPreview{
			ProductID:    params.ProductID,
			FirstMessage: params.FirstMessage,
		}
	}
	conversation, err := domainchat.NewConversation(domainchat.CreateParams{
		ID:        domainchat.ConversationID(uuid.NewString()),
		UserA:     params.Initiator,
		UserB:     params.Peer,
		Initiator: params.Initiator,
		Preview:   preview,
		Now:       time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Conversations.Create(ctx, conversation); err != nil {
		if errors.Is(err, domainchat.ErrAlreadyExists) {
			return s.Conversations.ByParticipants(ctx, params.Initiator, params.Peer)
		}
		return nil, err
	}
	s.drainEvents(ctx, conversation)
	if s.Logger != nil {
		s.Logger.Info("conversation started", "conversation_id", conversation.ID, "participants", conversation.Participants)
	}
	return conversation, nil
}

// PostMessage allocates a message id and stores the message. When the
// recipient has blocked the sender the message is stored suppressed:
// the sender keeps a normal-looking copy in their own history, the
// recipient never receives it. The success response is identical in
// both cases so the sender cannot detect the block.
func (s *Service) PostMessage(ctx context.Context, conversationID domainchat.ConversationID, sender, text string, replyTo *int64) (int64, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		conversation, err := s.Conversations.ByID(ctx, conversationID)
		if err != nil {
			return 0, err
		}
		recipient, err := conversation.Other(sender)
		if err != nil {
			return 0, err
		}
		suppressed, err := s.Blocks.IsBlockedBy(ctx, recipient, sender)
		if err != nil {
			return 0, err
		}
		id, err := conversation.Post(domainchat.PostParams{
			Sender:   sender,
			Text:     text,
			ReplyTo:  replyTo,
			Now:      time.Now(),
			Suppress: suppressed,
		})
		if err != nil {
			return 0, err
		}
		if err := s.Conversations.Save(ctx, conversation); err != nil {
			if errors.Is(err, domainchat.ErrConcurrentUpdate) {
				continue
			}
			return 0, err
		}
		s.drainEvents(ctx, conversation)
		if suppressed {
			s.Notifier.Emit(ctx, recipient, notification.TypeMessageBlocked,
				notification.Refs{ConversationID: string(conversationID)},
				"A user you blocked tried to message you")
		}
		return id, nil
	}
	return 0, domainchat.ErrConcurrentUpdate
}

// FetchMessages returns the stored messages the reader is allowed to
// see, with id > sinceID. The result is restartable: a client resumes
// with the highest id it already holds.
func (s *Service) FetchMessages(ctx context.Context, conversationID domainchat.ConversationID, reader string, sinceID int64) ([]domainchat.Message, error) {
	conversation, err := s.Conversations.ByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	other, err := conversation.Other(reader)
	if err != nil {
		return nil, err
	}
	blockedByOther, err := s.Blocks.IsBlockedBy(ctx, other, reader)
	if err != nil {
		return nil, err
	}
	return conversation.VisibleTo(reader, sinceID, blockedByOther), nil
}

func (s *Service) drainEvents(ctx context.Context, conversation *domainchat.Conversation) {
	pending := conversation.PendingEvents()
	conversation.ClearEvents()
	if err := appoutbox.RecordDomainEvents(ctx, s.Outbox, s.Encoder, pending); err != nil && s.Logger != nil {
		s.Logger.Error("outbox enqueue failed", "conversation_id", conversation.ID, "error", err)
	}
}
