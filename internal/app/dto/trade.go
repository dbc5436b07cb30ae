package dto

import "time"

// Product describes a listing with its live offers. Offers are only
// included for the seller.
type Product struct {
	ID              string     `json:"id"`
	Seller          string     `json:"seller_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	PriceCents      int64      `json:"price_cents"`
	Status          string     `json:"status"`
	Buyer           string     `json:"buyer_id,omitempty"`
	TransactionDate *time.Time `json:"transaction_date,omitempty"`
	Offers          []Offer    `json:"offers,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Offer is a buyer's live offer on a listing.
type Offer struct {
	Buyer      string    `json:"buyer_id"`
	PriceCents int64     `json:"price_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// OfferStatus answers a buyer's "do I have an offer here" poll.
type OfferStatus struct {
	HasOffer   bool  `json:"has_offer"`
	PriceCents int64 `json:"price_cents,omitempty"`
}
