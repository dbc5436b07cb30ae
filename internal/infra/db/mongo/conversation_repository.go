package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainchat "tradepost/internal/domain/chat"
)

type ConversationRepository struct {
	col *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) *ConversationRepository {
	col := db.Collection("conversations")
	// The unique pair index is what makes lookup-or-insert atomic: a
	// concurrent create from the other participant loses with a
	// duplicate key error instead of forking the conversation.
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "pair_key", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &ConversationRepository{col: col}
}

func (r *ConversationRepository) ByID(ctx context.Context, id domainchat.ConversationID) (*domainchat.Conversation, error) {
	var doc conversationDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainchat.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ConversationRepository) ByParticipants(ctx context.Context, userA, userB string) (*domainchat.Conversation, error) {
	pair, err := domainchat.CanonicalPair(userA, userB)
	if err != nil {
		return nil, err
	}
	var doc conversationDocument
	if err := r.col.FindOne(ctx, bson.M{"pair_key": domainchat.PairKey(pair)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domainchat.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ConversationRepository) Create(ctx context.Context, c *domainchat.Conversation) error {
	doc := newConversationDocument(c)
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainchat.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *ConversationRepository) Save(ctx context.Context, c *domainchat.Conversation) error {
	doc := newConversationDocument(c)
	filter := bson.M{"_id": doc.ID, "version": c.Version}
	doc.Version = c.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domainchat.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domainchat.ErrConcurrentUpdate
	}
	c.Version = doc.Version
	return nil
}

type conversationDocument struct {
	ID            string            `bson:"_id"`
	PairKey       string            `bson:"pair_key"`
	Participants  []string          `bson:"participants"`
	Messages      []messageDocument `bson:"messages"`
	NextMessageID int64             `bson:"next_message_id"`
	CreatedAt     int64             `bson:"created_at"`
	UpdatedAt     int64             `bson:"updated_at"`
	Version       int64             `bson:"version"`
}

type messageDocument struct {
	ID         int64  `bson:"id"`
	Sender     string `bson:"sender"`
	Text       string `bson:"text"`
	Kind       string `bson:"kind"`
	ReplyTo    *int64 `bson:"reply_to,omitempty"`
	ProductID  string `bson:"product_id,omitempty"`
	Suppressed bool   `bson:"suppressed,omitempty"`
	CreatedAt  int64  `bson:"created_at"`
}

func newConversationDocument(c *domainchat.Conversation) conversationDocument {
	messages := make([]messageDocument, 0, len(c.Messages))
	for _, m := range c.Messages {
		messages = append(messages, messageDocument{
			ID:         m.ID,
			Sender:     m.Sender,
			Text:       m.Text,
			Kind:       string(m.Kind),
			ReplyTo:    m.ReplyTo,
			ProductID:  m.ProductID,
			Suppressed: m.Suppressed,
			CreatedAt:  m.CreatedAt.UnixMilli(),
		})
	}
	return conversationDocument{
		ID:            string(c.ID),
		PairKey:       domainchat.PairKey(c.Participants),
		Participants:  []string{c.Participants[0], c.Participants[1]},
		Messages:      messages,
		NextMessageID: c.NextMessageID,
		CreatedAt:     c.CreatedAt.UnixMilli(),
		UpdatedAt:     c.UpdatedAt.UnixMilli(),
		Version:       c.Version,
	}
}

func (d conversationDocument) toAggregate() *domainchat.Conversation {
	c := &domainchat.Conversation{
		ID:            domainchat.ConversationID(d.ID),
		NextMessageID: d.NextMessageID,
		CreatedAt:     timestampToTime(d.CreatedAt),
		UpdatedAt:     timestampToTime(d.UpdatedAt),
		Version:       d.Version,
	}
	if len(d.Participants) == 2 {
		c.Participants = [2]string{d.Participants[0], d.Participants[1]}
	}
	c.Messages = make([]domainchat.Message, 0, len(d.Messages))
	for _, m := range d.Messages {
		c.Messages = append(c.Messages, domainchat.Message{
			ID:         m.ID,
			Sender:     m.Sender,
			Text:       m.Text,
			Kind:       domainchat.MessageKind(m.Kind),
			ReplyTo:    m.ReplyTo,
			ProductID:  m.ProductID,
			Suppressed: m.Suppressed,
			CreatedAt:  timestampToTime(m.CreatedAt),
		})
	}
	return c
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
