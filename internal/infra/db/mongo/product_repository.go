package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaintrade "tradepost/internal/domain/trade"
)

type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection("products")}
}

func (r *ProductRepository) ByID(ctx context.Context, id domaintrade.ProductID) (*domaintrade.Product, error) {
	var doc productDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domaintrade.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ProductRepository) Create(ctx context.Context, p *domaintrade.Product) error {
	doc := newProductDocument(p)
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domaintrade.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *ProductRepository) Save(ctx context.Context, p *domaintrade.Product) error {
	doc := newProductDocument(p)
	filter := bson.M{"_id": doc.ID, "version": p.Version}
	doc.Version = p.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domaintrade.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return domaintrade.ErrConcurrentUpdate
	}
	p.Version = doc.Version
	return nil
}

type productDocument struct {
	ID              string                   `bson:"_id"`
	Seller          string                   `bson:"seller"`
	Title           string                   `bson:"title"`
	Description     string                   `bson:"description"`
	PriceCents      int64                    `bson:"price_cents"`
	Status          string                   `bson:"status"`
	Buyer           string                   `bson:"buyer,omitempty"`
	TransactionDate int64                    `bson:"transaction_date,omitempty"`
	Offers          map[string]offerDocument `bson:"offers"`
	CreatedAt       int64                    `bson:"created_at"`
	UpdatedAt       int64                    `bson:"updated_at"`
	Version         int64                    `bson:"version"`
}

type offerDocument struct {
	Buyer      string `bson:"buyer"`
	PriceCents int64  `bson:"price_cents"`
	CreatedAt  int64  `bson:"created_at"`
	UpdatedAt  int64  `bson:"updated_at"`
}

func newProductDocument(p *domaintrade.Product) productDocument {
	offers := make(map[string]offerDocument, len(p.Offers))
	for buyer, offer := range p.Offers {
		offers[buyer] = offerDocument{
			Buyer:      offer.Buyer,
			PriceCents: offer.PriceCents,
			CreatedAt:  offer.CreatedAt.UnixMilli(),
			UpdatedAt:  offer.UpdatedAt.UnixMilli(),
		}
	}
	doc := productDocument{
		ID:          string(p.ID),
		Seller:      p.Seller,
		Title:       p.Title,
		Description: p.Description,
		PriceCents:  p.PriceCents,
		Status:      string(p.Status),
		Buyer:       p.Buyer,
		Offers:      offers,
		CreatedAt:   p.CreatedAt.UnixMilli(),
		UpdatedAt:   p.UpdatedAt.UnixMilli(),
		Version:     p.Version,
	}
	if !p.TransactionDate.IsZero() {
		doc.TransactionDate = p.TransactionDate.UnixMilli()
	}
	return doc
}

func (d productDocument) toAggregate() *domaintrade.Product {
	offers := make(map[string]domaintrade.OfferRequest, len(d.Offers))
	for buyer, offer := range d.Offers {
		offers[buyer] = domaintrade.OfferRequest{
			Buyer:      offer.Buyer,
			PriceCents: offer.PriceCents,
			CreatedAt:  timestampToTime(offer.CreatedAt),
			UpdatedAt:  timestampToTime(offer.UpdatedAt),
		}
	}
	p := &domaintrade.Product{
		ID:          domaintrade.ProductID(d.ID),
		Seller:      d.Seller,
		Title:       d.Title,
		Description: d.Description,
		PriceCents:  d.PriceCents,
		Status:      domaintrade.ProductStatus(d.Status),
		Buyer:       d.Buyer,
		Offers:      offers,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}
	if d.TransactionDate != 0 {
		p.TransactionDate = timestampToTime(d.TransactionDate)
	}
	return p
}
