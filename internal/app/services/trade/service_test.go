package trade

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradepost/internal/app/services/notify"
	"tradepost/internal/domain/block"
	"tradepost/internal/domain/notification"
	domaintrade "tradepost/internal/domain/trade"
	"tradepost/internal/infra/storage/memory"
)

func newTestService() (*Service, *memory.NotificationRepository, *block.Registry) {
	notifications := memory.NewNotificationRepository()
	blocks := &block.Registry{Entries: memory.NewBlockRepository()}
	svc := &Service{
		Products: memory.NewProductRepository(),
		Blocks:   blocks,
		Notifier: &notify.Dispatcher{Store: notifications},
	}
	return svc, notifications, blocks
}

func newListing(t *testing.T, svc *Service) *domaintrade.Product {
	t.Helper()
	product, err := svc.CreateListing(context.Background(), CreateListingParams{
		Seller:     "sara",
		Title:      "Bike",
		PriceCents: 1000,
	})
	require.NoError(t, err)
	return product
}

func TestMakeOfferNotifiesSeller(t *testing.T) {
	svc, notifications, _ := newTestService()
	ctx := context.Background()
	product := newListing(t, svc)

	require.NoError(t, svc.MakeOffer(ctx, product.ID, "ben", 900))

	stored, err := svc.GetListing(ctx, product.ID)
	require.NoError(t, err)
	offer, ok := stored.OfferFrom("ben")
	require.True(t, ok)
	assert.Equal(t, int64(900), offer.PriceCents)

	feed, err := notifications.ListSince(ctx, "sara", 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, notification.TypeOfferReceived, feed[0].Type)
	assert.Equal(t, "ben", feed[0].Refs.OfferBuyer)
}

func TestMakeOfferBlockedInEitherDirection(t *testing.T) {
	ctx := context.Background()

	t.Run("seller blocked buyer", func(t *testing.T) {
		svc, _, blocks := newTestService()
		product := newListing(t, svc)
		require.NoError(t, blocks.Block(ctx, "sara", "ben"))
		err := svc.MakeOffer(ctx, product.ID, "ben", 900)
		assert.ErrorIs(t, err, ErrNegotiationBlocked)
	})

	t.Run("buyer blocked seller", func(t *testing.T) {
		svc, _, blocks := newTestService()
		product := newListing(t, svc)
		require.NoError(t, blocks.Block(ctx, "ben", "sara"))
		err := svc.MakeOffer(ctx, product.ID, "ben", 900)
		assert.ErrorIs(t, err, ErrNegotiationBlocked)
	})
}

func TestMakeOfferSupersedes(t *testing.T) {
	svc, notifications, _ := newTestService()
	ctx := context.Background()
	product := newListing(t, svc)

	require.NoError(t, svc.MakeOffer(ctx, product.ID, "ben", 900))
	require.NoError(t, svc.MakeOffer(ctx, product.ID, "ben", 950))

	stored, err := svc.GetListing(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, stored.Offers, 1)
	offer, _ := stored.OfferFrom("ben")
	assert.Equal(t, int64(950), offer.PriceCents)

	// Each offer, superseding or not, pings the seller.
	feed, err := notifications.ListSince(ctx, "sara", 0)
	require.NoError(t, err)
	assert.Len(t, feed, 2)
}

func TestCheckOffer(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	product := newListing(t, svc)

	_, ok, err := svc.CheckOffer(ctx, product.ID, "ben")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.MakeOffer(ctx, product.ID, "ben", 900))
	offer, ok, err := svc.CheckOffer(ctx, product.ID, "ben")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(900), offer.PriceCents)
}

func TestAcceptOfferNotifiesOnlyAcceptedBuyer(t *testing.T) {
	svc, notifications, _ := newTestService()
	ctx := context.Background()
	product := newListing(t, svc)
	require.NoError(t, svc.MakeOffer(ctx, product.ID, "ben", 900))
	require.NoError(t, svc.MakeOffer(ctx, product.ID, "carol", 950))

	require.NoError(t, svc.AcceptOffer(ctx, product.ID, "sara", "ben"))

	stored, err := svc.GetListing(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, domaintrade.StatusSold, stored.Status)
	assert.Equal(t, "ben", stored.Buyer)
	assert.Empty(t, stored.Offers)

	benFeed, err := notifications.ListSince(ctx, "ben", 0)
	require.NoError(t, err)
	require.Len(t, benFeed, 1)
	assert.Equal(t, notification.TypeOfferAccepted, benFeed[0].Type)

	// carol's offer was voided implicitly; she hears nothing.
	carolFeed, err := notifications.ListSince(ctx, "carol", 0)
	require.NoError(t, err)
	assert.Empty(t, carolFeed)
}

func TestDeclineOfferNotifiesBuyer(t *testing.T) {
	svc, notifications, _ := newTestService()
	ctx := context.Background()
	product := newListing(t, svc)
	require.NoError(t, svc.MakeOffer(ctx, product.ID, "ben", 900))

	require.NoError(t, svc.DeclineOffer(ctx, product.ID, "sara", "ben"))

	stored, err := svc.GetListing(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, domaintrade.StatusAvailable, stored.Status)
	assert.Empty(t, stored.Offers)

	feed, err := notifications.ListSince(ctx, "ben", 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, notification.TypeOfferRejected, feed[0].Type)
}

func TestUpdateListingClearOffersNotifiesHolders(t *testing.T) {
	svc, notifications, _ := newTestService()
	ctx := context.Background()
	product := newListing(t, svc)
	require.NoError(t, svc.MakeOffer(ctx, product.ID, "ben", 900))
	require.NoError(t, svc.MakeOffer(ctx, product.ID, "carol", 950))

	updated, err := svc.UpdateListing(ctx, product.ID, "sara", UpdateListingParams{
		Title:       "City bike",
		PriceCents:  1200,
		ClearOffers: true,
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Offers)

	for _, buyer := range []string{"ben", "carol"} {
		feed, err := notifications.ListSince(ctx, buyer, 0)
		require.NoError(t, err)
		require.Len(t, feed, 1)
		assert.Equal(t, notification.TypeProductUpdated, feed[0].Type)
	}
}

func TestUpdateListingOnlySeller(t *testing.T) {
	svc, _, _ := newTestService()
	product := newListing(t, svc)
	_, err := svc.UpdateListing(context.Background(), product.ID, "ben", UpdateListingParams{
		Title:      "Bike",
		PriceCents: 1200,
	})
	assert.ErrorIs(t, err, domaintrade.ErrNotSeller)
}

func TestReserveBlockedByOpenOffers(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	product := newListing(t, svc)
	require.NoError(t, svc.MakeOffer(ctx, product.ID, "ben", 900))

	err := svc.Reserve(ctx, product.ID, "sara")
	assert.ErrorIs(t, err, domaintrade.ErrOffersOutstanding)
}

func TestReserveAndRelease(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	product := newListing(t, svc)

	require.NoError(t, svc.Reserve(ctx, product.ID, "sara"))
	stored, err := svc.GetListing(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, domaintrade.StatusReserved, stored.Status)

	err = svc.MakeOffer(ctx, product.ID, "ben", 900)
	assert.ErrorIs(t, err, domaintrade.ErrNotAvailable)

	require.NoError(t, svc.Release(ctx, product.ID, "sara"))
	require.NoError(t, svc.MakeOffer(ctx, product.ID, "ben", 900))
}

func TestMakeOfferUnknownListing(t *testing.T) {
	svc, _, _ := newTestService()
	err := svc.MakeOffer(context.Background(), "missing", "ben", 900)
	assert.ErrorIs(t, err, domaintrade.ErrNotFound)
}
