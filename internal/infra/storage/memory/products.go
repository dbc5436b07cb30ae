package memory

import (
	"context"
	"sync"

	domaintrade "tradepost/internal/domain/trade"
)

// ProductRepository is an in-memory implementation for dev and tests.
type ProductRepository struct {
	mu    sync.RWMutex
	items map[domaintrade.ProductID]*domaintrade.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{items: make(map[domaintrade.ProductID]*domaintrade.Product)}
}

func (r *ProductRepository) ByID(ctx context.Context, id domaintrade.ProductID) (*domaintrade.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, domaintrade.ErrNotFound
	}
	return cloneProduct(stored), nil
}

func (r *ProductRepository) Create(ctx context.Context, product *domaintrade.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.items[product.ID]; exists {
		return domaintrade.ErrAlreadyExists
	}
	r.items[product.ID] = cloneProduct(product)
	return nil
}

func (r *ProductRepository) Save(ctx context.Context, product *domaintrade.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[product.ID]
	if !ok {
		return domaintrade.ErrNotFound
	}
	if stored.Version != product.Version {
		return domaintrade.ErrConcurrentUpdate
	}
	next := cloneProduct(product)
	next.Version = product.Version + 1
	r.items[product.ID] = next
	product.Version = next.Version
	return nil
}

func cloneProduct(p *domaintrade.Product) *domaintrade.Product {
	offers := make(map[string]domaintrade.OfferRequest, len(p.Offers))
	for buyer, offer := range p.Offers {
		offers[buyer] = offer
	}
	return &domaintrade.Product{
		ID:              p.ID,
		Seller:          p.Seller,
		Title:           p.Title,
		Description:     p.Description,
		PriceCents:      p.PriceCents,
		Status:          p.Status,
		Buyer:           p.Buyer,
		TransactionDate: p.TransactionDate,
		Offers:          offers,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		Version:         p.Version,
	}
}
