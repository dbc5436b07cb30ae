package trade

import "time"

type ListingPosted struct {
	ProductID  ProductID
	Seller     string
	PriceCents int64
	At         time.Time
}

func (e ListingPosted) EventName() string     { return "listing.posted" }
func (e ListingPosted) AggregateID() string   { return string(e.ProductID) }
func (e ListingPosted) OccurredAt() time.Time { return e.At }

type OfferPlaced struct {
	ProductID  ProductID
	Buyer      string
	PriceCents int64
	Superseded bool
	At         time.Time
}

func (e OfferPlaced) EventName() string     { return "listing.offer_placed" }
func (e OfferPlaced) AggregateID() string   { return string(e.ProductID) }
func (e OfferPlaced) OccurredAt() time.Time { return e.At }

type OfferAccepted struct {
	ProductID  ProductID
	Buyer      string
	PriceCents int64
	At         time.Time
}

func (e OfferAccepted) EventName() string     { return "listing.offer_accepted" }
func (e OfferAccepted) AggregateID() string   { return string(e.ProductID) }
func (e OfferAccepted) OccurredAt() time.Time { return e.At }

type OfferDeclined struct {
	ProductID  ProductID
	Buyer      string
	PriceCents int64
	At         time.Time
}

func (e OfferDeclined) EventName() string     { return "listing.offer_declined" }
func (e OfferDeclined) AggregateID() string   { return string(e.ProductID) }
func (e OfferDeclined) OccurredAt() time.Time { return e.At }

type ListingUpdated struct {
	ProductID     ProductID
	PriceCents    int64
	ClearedBuyers []string
	At            time.Time
}

func (e ListingUpdated) EventName() string     { return "listing.updated" }
func (e ListingUpdated) AggregateID() string   { return string(e.ProductID) }
func (e ListingUpdated) OccurredAt() time.Time { return e.At }

type ListingReserved struct {
	ProductID ProductID
	At        time.Time
}

func (e ListingReserved) EventName() string     { return "listing.reserved" }
func (e ListingReserved) AggregateID() string   { return string(e.ProductID) }
func (e ListingReserved) OccurredAt() time.Time { return e.At }

type ListingReleased struct {
	ProductID ProductID
	At        time.Time
}

func (e ListingReleased) EventName() string     { return "listing.released" }
func (e ListingReleased) AggregateID() string   { return string(e.ProductID) }
func (e ListingReleased) OccurredAt() time.Time { return e.At }
