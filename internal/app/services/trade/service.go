package trade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	appoutbox "tradepost/internal/app/outbox"
	"tradepost/internal/app/services/notify"
	"tradepost/internal/domain/block"
	"tradepost/internal/domain/notification"
	domaintrade "tradepost/internal/domain/trade"
)

// ErrNegotiationBlocked rejects offer actions between users with a block
// in either direction.
var ErrNegotiationBlocked = errors.New("trade: negotiation not allowed between blocked users")

const saveAttempts = 3

type Service struct {
	Products domaintrade.Repository
	Blocks   *block.Registry
	Notifier *notify.Dispatcher
	Outbox   appoutbox.Outbox
	Encoder  appoutbox.EventEncoder
	Logger   *slog.Logger
}

type CreateListingParams struct {
	Seller      string
	Title       string
	Description string
	PriceCents  int64
}

func (s *Service) CreateListing(ctx context.Context, params CreateListingParams) (*domaintrade.Product, error) {
	product, err := domaintrade.NewProduct(domaintrade.CreateParams{
		ID:          domaintrade.ProductID(uuid.NewString()),
		Seller:      params.Seller,
		Title:       params.Title,
		Description: params.Description,
		PriceCents:  params.PriceCents,
		Now:         time.Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Products.Create(ctx, product); err != nil {
		return nil, err
	}
	s.drainEvents(ctx, product)
	if s.Logger != nil {
		s.Logger.Info("listing posted", "product_id", product.ID, "seller", product.Seller)
	}
	return product, nil
}

func (s *Service) GetListing(ctx context.Context, id domaintrade.ProductID) (*domaintrade.Product, error) {
	return s.Products.ByID(ctx, id)
}

// MakeOffer records or supersedes the buyer's offer. A block in either
// direction between buyer and seller halts the negotiation before any
// state is touched.
func (s *Service) MakeOffer(ctx context.Context, productID domaintrade.ProductID, buyer string, priceCents int64) error {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		product, err := s.Products.ByID(ctx, productID)
		if err != nil {
			return err
		}
		if buyer != product.Seller {
			blocked, err := s.Blocks.IsBlocked(ctx, buyer, product.Seller)
			if err != nil {
				return err
			}
			if blocked {
				return ErrNegotiationBlocked
			}
		}
		if err := product.PlaceOffer(buyer, priceCents, time.Now()); err != nil {
			return err
		}
		if err := s.Products.Save(ctx, product); err != nil {
			if errors.Is(err, domaintrade.ErrConcurrentUpdate) {
				continue
			}
			return err
		}
		s.drainEvents(ctx, product)
		s.Notifier.Emit(ctx, product.Seller, notification.TypeOfferReceived,
			notification.Refs{ProductID: string(productID), OfferBuyer: buyer},
			fmt.Sprintf("New offer on %q", product.Title))
		return nil
	}
	return domaintrade.ErrConcurrentUpdate
}

// CheckOffer is a pure read of the buyer's live offer.
func (s *Service) CheckOffer(ctx context.Context, productID domaintrade.ProductID, buyer string) (domaintrade.OfferRequest, bool, error) {
	product, err := s.Products.ByID(ctx, productID)
	if err != nil {
		return domaintrade.OfferRequest{}, false, err
	}
	offer, ok := product.OfferFrom(buyer)
	return offer, ok, nil
}

// AcceptOffer resolves the sale. Holders of the other, implicitly voided
// offers receive no notification; only the accepted buyer hears back.
func (s *Service) AcceptOffer(ctx context.Context, productID domaintrade.ProductID, caller, buyer string) error {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		product, err := s.Products.ByID(ctx, productID)
		if err != nil {
			return err
		}
		if err := product.AcceptOffer(caller, buyer, time.Now()); err != nil {
			return err
		}
		if err := s.Products.Save(ctx, product); err != nil {
			if errors.Is(err, domaintrade.ErrConcurrentUpdate) {
				continue
			}
			return err
		}
		s.drainEvents(ctx, product)
		s.Notifier.Emit(ctx, buyer, notification.TypeOfferAccepted,
			notification.Refs{ProductID: string(productID), OfferBuyer: buyer},
			fmt.Sprintf("Your offer on %q was accepted", product.Title))
		return nil
	}
	return domaintrade.ErrConcurrentUpdate
}

func (s *Service) DeclineOffer(ctx context.Context, productID domaintrade.ProductID, caller, buyer string) error {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		product, err := s.Products.ByID(ctx, productID)
		if err != nil {
			return err
		}
		if err := product.DeclineOffer(caller, buyer, time.Now()); err != nil {
			return err
		}
		if err := s.Products.Save(ctx, product); err != nil {
			if errors.Is(err, domaintrade.ErrConcurrentUpdate) {
				continue
			}
			return err
		}
		s.drainEvents(ctx, product)
		s.Notifier.Emit(ctx, buyer, notification.TypeOfferRejected,
			notification.Refs{ProductID: string(productID), OfferBuyer: buyer},
			fmt.Sprintf("Your offer on %q was declined", product.Title))
		return nil
	}
	return domaintrade.ErrConcurrentUpdate
}

type UpdateListingParams struct {
	Title       string
	Description string
	PriceCents  int64
	ClearOffers bool
}

// UpdateListing edits catalog fields. Clearing outstanding offers is
// caller-selected, not an automatic consequence of every edit; when
// chosen, every voided offer holder is told the listing changed.
func (s *Service) UpdateListing(ctx context.Context, productID domaintrade.ProductID, caller string, params UpdateListingParams) (*domaintrade.Product, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		product, err := s.Products.ByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		cleared, err := product.Update(caller, domaintrade.UpdateParams{
			Title:       params.Title,
			Description: params.Description,
			PriceCents:  params.PriceCents,
			ClearOffers: params.ClearOffers,
			Now:         time.Now(),
		})
		if err != nil {
			return nil, err
		}
		if err := s.Products.Save(ctx, product); err != nil {
			if errors.Is(err, domaintrade.ErrConcurrentUpdate) {
				continue
			}
			return nil, err
		}
		s.drainEvents(ctx, product)
		for _, holder := range cleared {
			s.Notifier.Emit(ctx, holder, notification.TypeProductUpdated,
				notification.Refs{ProductID: string(productID)},
				fmt.Sprintf("%q was updated and your offer was withdrawn", product.Title))
		}
		return product, nil
	}
	return nil, domaintrade.ErrConcurrentUpdate
}

func (s *Service) Reserve(ctx context.Context, productID domaintrade.ProductID, caller string) error {
	return s.transition(ctx, productID, func(p *domaintrade.Product) error {
		return p.Reserve(caller, time.Now())
	})
}

func (s *Service) Release(ctx context.Context, productID domaintrade.ProductID, caller string) error {
	return s.transition(ctx, productID, func(p *domaintrade.Product) error {
		return p.Release(caller, time.Now())
	})
}

func (s *Service) transition(ctx context.Context, productID domaintrade.ProductID, apply func(*domaintrade.Product) error) error {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		product, err := s.Products.ByID(ctx, productID)
		if err != nil {
			return err
		}
		if err := apply(product); err != nil {
			return err
		}
		if err := s.Products.Save(ctx, product); err != nil {
			if errors.Is(err, domaintrade.ErrConcurrentUpdate) {
				continue
			}
			return err
		}
		s.drainEvents(ctx, product)
		return nil
	}
	return domaintrade.ErrConcurrentUpdate
}

func (s *Service) drainEvents(ctx context.Context, product *domaintrade.Product) {
	pending := product.PendingEvents()
	product.ClearEvents()
	if err := appoutbox.RecordDomainEvents(ctx, s.Outbox, s.Encoder, pending); err != nil && s.Logger != nil {
		s.Logger.Error("outbox enqueue failed", "product_id", product.ID, "error", err)
	}
}
