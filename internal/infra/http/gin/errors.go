package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	tradesvc "tradepost/internal/app/services/trade"
	"tradepost/internal/domain/block"
	domainchat "tradepost/internal/domain/chat"
	"tradepost/internal/domain/notification"
	domaintrade "tradepost/internal/domain/trade"
)

// respondError maps domain errors onto HTTP statuses. Anything
// unrecognized is a 500 with the detail kept out of the response body.
func respondError(c *gin.Context, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, domainchat.ErrNotFound),
		errors.Is(err, domaintrade.ErrNotFound),
		errors.Is(err, domaintrade.ErrOfferNotFound),
		errors.Is(err, notification.ErrNotFound),
		errors.Is(err, block.ErrNotBlocked):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domainchat.ErrNotParticipant),
		errors.Is(err, domaintrade.ErrNotSeller),
		errors.Is(err, domaintrade.ErrOwnListing),
		errors.Is(err, tradesvc.ErrNegotiationBlocked),
		errors.Is(err, block.ErrSelfBlock):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domaintrade.ErrNotAvailable),
		errors.Is(err, domaintrade.ErrInvalidState),
		errors.Is(err, domaintrade.ErrOffersOutstanding),
		errors.Is(err, domainchat.ErrConcurrentUpdate),
		errors.Is(err, domaintrade.ErrConcurrentUpdate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domainchat.ErrSelfConversation),
		errors.Is(err, domainchat.ErrParticipantIDs),
		errors.Is(err, domainchat.ErrEmptyText),
		errors.Is(err, domainchat.ErrPreviewProduct),
		errors.Is(err, domainchat.ErrReplyTarget),
		errors.Is(err, domaintrade.ErrSellerRequired),
		errors.Is(err, domaintrade.ErrTitleRequired),
		errors.Is(err, domaintrade.ErrListingPrice),
		errors.Is(err, domaintrade.ErrInvalidOfferPrice),
		errors.Is(err, block.ErrUserIDs):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if log != nil {
			log.Error("unhandled request error", "path", c.FullPath(), "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
