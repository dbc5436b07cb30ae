package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tradepost/internal/domain/block"
)

type BlockRepository struct {
	col *mongo.Collection
}

func NewBlockRepository(db *mongo.Database) *BlockRepository {
	col := db.Collection("block_entries")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "blocker", Value: 1}, {Key: "blocked", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &BlockRepository{col: col}
}

// Put is idempotent: upserting an existing ordered pair is a no-op.
func (r *BlockRepository) Put(ctx context.Context, entry block.Entry) error {
	filter := bson.M{"blocker": entry.Blocker, "blocked": entry.Blocked}
	update := bson.M{"$setOnInsert": bson.M{"created_at": time.Now().UTC().UnixMilli()}}
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, filter, update, opts)
	return err
}

func (r *BlockRepository) Delete(ctx context.Context, entry block.Entry) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"blocker": entry.Blocker, "blocked": entry.Blocked})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return block.ErrNotBlocked
	}
	return nil
}

func (r *BlockRepository) Exists(ctx context.Context, blocker, blocked string) (bool, error) {
	err := r.col.FindOne(ctx, bson.M{"blocker": blocker, "blocked": blocked}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *BlockRepository) ListByBlocker(ctx context.Context, blocker string) ([]string, error) {
	opts := options.Find().SetSort(bson.D{{Key: "blocked", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"blocker": blocker}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var out []string
	for cursor.Next(ctx) {
		var doc struct {
			Blocked string `bson:"blocked"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.Blocked)
	}
	return out, cursor.Err()
}
