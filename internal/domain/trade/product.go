package trade

import (
	"context"
	"errors"
	"strings"
	"time"

	"tradepost/internal/domain/shared/events"
)

var (
	ErrNotFound          = errors.New("trade: listing not found")
	ErrAlreadyExists     = errors.New("trade: listing already exists")
	ErrConcurrentUpdate  = errors.New("trade: concurrent update detected")
	ErrSellerRequired    = errors.New("trade: seller is required")
	ErrTitleRequired     = errors.New("trade: title is required")
	ErrListingPrice      = errors.New("trade: listing price must be positive")
	ErrOwnListing        = errors.New("trade: sellers cannot bid on their own listing")
	ErrNotSeller         = errors.New("trade: only the seller may do this")
	ErrNotAvailable      = errors.New("trade: listing is not open for offers")
	ErrInvalidOfferPrice = errors.New("trade: offer price must be positive")
	ErrOfferNotFound     = errors.New("trade: no live offer from this buyer")
	ErrInvalidState      = errors.New("trade: invalid state transition")
	ErrOffersOutstanding = errors.New("trade: listing still has open offers")
)

type ProductID string

type ProductStatus string

const (
	StatusAvailable ProductStatus = "AVAILABLE"
	StatusReserved  ProductStatus = "RESERVED"
	StatusSold      ProductStatus = "SOLD"
)

// OfferRequest is the single live offer a buyer holds on a listing.
// A new offer from the same buyer supersedes the previous one.
type OfferRequest struct {
	Buyer      string
	PriceCents int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Product carries the catalog fields the negotiation engine needs plus
// the offer map it exclusively owns, keyed by buyer id.
type Product struct {
	ID              ProductID
	Seller          string
	Title           string
	Description     string
	PriceCents      int64
	Status          ProductStatus
	Buyer           string
	TransactionDate time.Time
	Offers          map[string]OfferRequest
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ProductID) (*Product, error)
	Create(ctx context.Context, product *Product) error
	// Save persists with an optimistic version check and fails with
	// ErrConcurrentUpdate on a lost race.
	Save(ctx context.Context, product *Product) error
}

type CreateParams struct {
	ID          ProductID
	Seller      string
	Title       string
	Description string
	PriceCents  int64
	Now         time.Time
}

func NewProduct(params CreateParams) (*Product, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("trade: id is required")
	}
	if strings.TrimSpace(params.Seller) == "" {
		return nil, ErrSellerRequired
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.PriceCents <= 0 {
		return nil, ErrListingPrice
	}
	now := params.Now.UTC()
	p := &Product{
		ID:          params.ID,
		Seller:      strings.TrimSpace(params.Seller),
		Title:       strings.TrimSpace(params.Title),
		Description: strings.TrimSpace(params.Description),
		PriceCents:  params.PriceCents,
		Status:      StatusAvailable,
		Offers:      map[string]OfferRequest{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p.Record(ListingPosted{ProductID: p.ID, Seller: p.Seller, PriceCents: p.PriceCents, At: now})
	return p, nil
}

// PlaceOffer records or supersedes the buyer's offer on an AVAILABLE
// listing.
func (p *Product) PlaceOffer(buyer string, priceCents int64, now time.Time) error {
	buyer = strings.TrimSpace(buyer)
	if buyer == "" {
		return errors.New("trade: buyer is required")
	}
	if buyer == p.Seller {
		return ErrOwnListing
	}
	if p.Status != StatusAvailable {
		return ErrNotAvailable
	}
	if priceCents <= 0 {
		return ErrInvalidOfferPrice
	}
	at := now.UTC()
	offer, superseded := p.Offers[buyer]
	if !superseded {
		offer = OfferRequest{Buyer: buyer, CreatedAt: at}
	}
	offer.PriceCents = priceCents
	offer.UpdatedAt = at
	if p.Offers == nil {
		p.Offers = map[string]OfferRequest{}
	}
	p.Offers[buyer] = offer
	p.UpdatedAt = at
	p.Record(OfferPlaced{ProductID: p.ID, Buyer: buyer, PriceCents: priceCents, Superseded: superseded, At: at})
	return nil
}

// OfferFrom is a pure read of the buyer's live offer.
func (p *Product) OfferFrom(buyer string) (OfferRequest, bool) {
	offer, ok := p.Offers[buyer]
	return offer, ok
}

// AcceptOffer resolves the sale: the listing becomes SOLD to the chosen
// buyer and every offer on it, not just the accepted one, is cleared.
func (p *Product) AcceptOffer(caller, buyer string, now time.Time) error {
	if caller != p.Seller {
		return ErrNotSeller
	}
	offer, ok := p.Offers[buyer]
	if !ok {
		return ErrOfferNotFound
	}
	at := now.UTC()
	p.Status = StatusSold
	p.Buyer = buyer
	p.TransactionDate = at
	p.Offers = map[string]OfferRequest{}
	p.UpdatedAt = at
	p.Record(OfferAccepted{ProductID: p.ID, Buyer: buyer, PriceCents: offer.PriceCents, At: at})
	return nil
}

// DeclineOffer removes one buyer's offer; the listing stays AVAILABLE
// and other offers are untouched.
func (p *Product) DeclineOffer(caller, buyer string, now time.Time) error {
	if caller != p.Seller {
		return ErrNotSeller
	}
	offer, ok := p.Offers[buyer]
	if !ok {
		return ErrOfferNotFound
	}
	at := now.UTC()
	delete(p.Offers, buyer)
	p.UpdatedAt = at
	p.Record(OfferDeclined{ProductID: p.ID, Buyer: buyer, PriceCents: offer.PriceCents, At: at})
	return nil
}

type UpdateParams struct {
	Title       string
	Description string
	PriceCents  int64
	// ClearOffers is caller-selected: editing a listing does not void
	// outstanding offers unless the seller asks for it.
	ClearOffers bool
	Now         time.Time
}

// Update edits catalog fields. When ClearOffers is set, the buyers whose
// offers were voided are returned so the caller can notify them.
func (p *Product) Update(caller string, params UpdateParams) ([]string, error) {
	if caller != p.Seller {
		return nil, ErrNotSeller
	}
	if p.Status == StatusSold {
		return nil, ErrInvalidState
	}
	if strings.TrimSpace(params.Title) == "" {
		return nil, ErrTitleRequired
	}
	if params.PriceCents <= 0 {
		return nil, ErrListingPrice
	}
	at := params.Now.UTC()
	p.Title = strings.TrimSpace(params.Title)
	p.Description = strings.TrimSpace(params.Description)
	p.PriceCents = params.PriceCents
	var cleared []string
	if params.ClearOffers {
		for buyer := range p.Offers {
			cleared = append(cleared, buyer)
		}
		p.Offers = map[string]OfferRequest{}
	}
	p.UpdatedAt = at
	p.Record(ListingUpdated{ProductID: p.ID, PriceCents: p.PriceCents, ClearedBuyers: cleared, At: at})
	return cleared, nil
}

// Reserve takes an AVAILABLE listing off the market without selling it.
// Open offers must be resolved first so the offer map never survives a
// status change.
func (p *Product) Reserve(caller string, now time.Time) error {
	if caller != p.Seller {
		return ErrNotSeller
	}
	if p.Status != StatusAvailable {
		return ErrInvalidState
	}
	if len(p.Offers) > 0 {
		return ErrOffersOutstanding
	}
	p.Status = StatusReserved
	p.UpdatedAt = now.UTC()
	p.Record(ListingReserved{ProductID: p.ID, At: p.UpdatedAt})
	return nil
}

// Release puts a RESERVED listing back on the market.
func (p *Product) Release(caller string, now time.Time) error {
	if caller != p.Seller {
		return ErrNotSeller
	}
	if p.Status != StatusReserved {
		return ErrInvalidState
	}
	p.Status = StatusAvailable
	p.UpdatedAt = now.UTC()
	p.Record(ListingReleased{ProductID: p.ID, At: p.UpdatedAt})
	return nil
}
