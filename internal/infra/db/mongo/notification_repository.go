package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tradepost/internal/domain/notification"
)

type NotificationRepository struct {
	col      *mongo.Collection
	counters *mongo.Collection
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	col := db.Collection("notifications")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "recipient", Value: 1}, {Key: "seq", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &NotificationRepository{
		col:      col,
		counters: db.Collection("notification_counters"),
	}
}

// Append allocates the per-recipient id with an atomic $inc on a
// dedicated counter document, so ids stay strictly increasing and
// gapless under concurrent emits.
func (r *NotificationRepository) Append(ctx context.Context, recipient string, kind notification.Type, refs notification.Refs, message string, now time.Time) (notification.Notification, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": recipient},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return notification.Notification{}, err
	}
	record := notification.Notification{
		ID:        counter.Seq,
		Recipient: recipient,
		Type:      kind,
		Message:   message,
		Refs:      refs,
		CreatedAt: now.UTC(),
	}
	_, err = r.col.InsertOne(ctx, newNotificationDocument(record))
	if err != nil {
		return notification.Notification{}, err
	}
	return record, nil
}

func (r *NotificationRepository) ListSince(ctx context.Context, recipient string, afterID int64) ([]notification.Notification, error) {
	filter := bson.M{"recipient": recipient, "seq": bson.M{"$gt": afterID}}
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []notification.Notification
	for cursor.Next(ctx) {
		var doc notificationDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toEntity())
	}
	return out, cursor.Err()
}

func (r *NotificationRepository) MarkRead(ctx context.Context, recipient string, id int64) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"recipient": recipient, "seq": id},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return notification.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipient string) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"recipient": recipient, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	return err
}

type notificationDocument struct {
	Recipient      string `bson:"recipient"`
	Seq            int64  `bson:"seq"`
	Type           string `bson:"type"`
	Message        string `bson:"message"`
	ProductID      string `bson:"product_id,omitempty"`
	ConversationID string `bson:"conversation_id,omitempty"`
	OfferBuyer     string `bson:"offer_buyer,omitempty"`
	Read           bool   `bson:"read"`
	CreatedAt      int64  `bson:"created_at"`
}

func newNotificationDocument(n notification.Notification) notificationDocument {
	return notificationDocument{
		Recipient:      n.Recipient,
		Seq:            n.ID,
		Type:           string(n.Type),
		Message:        n.Message,
		ProductID:      n.Refs.ProductID,
		ConversationID: n.Refs.ConversationID,
		OfferBuyer:     n.Refs.OfferBuyer,
		Read:           n.Read,
		CreatedAt:      n.CreatedAt.UnixMilli(),
	}
}

func (d notificationDocument) toEntity() notification.Notification {
	return notification.Notification{
		ID:        d.Seq,
		Recipient: d.Recipient,
		Type:      notification.Type(d.Type),
		Message:   d.Message,
		Refs: notification.Refs{
			ProductID:      d.ProductID,
			ConversationID: d.ConversationID,
			OfferBuyer:     d.OfferBuyer,
		},
		Read:      d.Read,
		CreatedAt: timestampToTime(d.CreatedAt),
	}
}
