package ginserver

import (
	"log/slog"
	"net/http"
	"sort"

	gin "github.com/gin-gonic/gin"

	"tradepost/internal/app/dto"
	tradesvc "tradepost/internal/app/services/trade"
	domaintrade "tradepost/internal/domain/trade"
)

type TradeHandler struct {
	Trade  *tradesvc.Service
	Logger *slog.Logger
}

type createListingRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" binding:"required"`
}

func (h *TradeHandler) CreateListing(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	product, err := h.Trade.CreateListing(c.Request.Context(), tradesvc.CreateListingParams{
		Seller:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, toProductDTO(product, user.ID))
}

func (h *TradeHandler) GetListing(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	product, err := h.Trade.GetListing(c.Request.Context(), domaintrade.ProductID(c.Param("id")))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, toProductDTO(product, user.ID))
}

type updateListingRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" binding:"required"`
	ClearOffers bool   `json:"clear_offers"`
}

func (h *TradeHandler) UpdateListing(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req updateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	product, err := h.Trade.UpdateListing(c.Request.Context(), domaintrade.ProductID(c.Param("id")), user.ID, tradesvc.UpdateListingParams{
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		ClearOffers: req.ClearOffers,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, toProductDTO(product, user.ID))
}

func (h *TradeHandler) Reserve(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.Trade.Reserve(c.Request.Context(), domaintrade.ProductID(c.Param("id")), user.ID); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TradeHandler) Release(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.Trade.Release(c.Request.Context(), domaintrade.ProductID(c.Param("id")), user.ID); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type makeOfferRequest struct {
	PriceCents int64 `json:"price_cents" binding:"required"`
}

func (h *TradeHandler) MakeOffer(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req makeOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Trade.MakeOffer(c.Request.Context(), domaintrade.ProductID(c.Param("id")), user.ID, req.PriceCents); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MyOffer answers the buyer's poll without leaking anyone else's offers.
func (h *TradeHandler) MyOffer(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	offer, exists, err := h.Trade.CheckOffer(c.Request.Context(), domaintrade.ProductID(c.Param("id")), user.ID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	status := dto.OfferStatus{HasOffer: exists}
	if exists {
		status.PriceCents = offer.PriceCents
	}
	c.JSON(http.StatusOK, status)
}

func (h *TradeHandler) AcceptOffer(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.Trade.AcceptOffer(c.Request.Context(), domaintrade.ProductID(c.Param("id")), user.ID, c.Param("buyer")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TradeHandler) DeclineOffer(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.Trade.DeclineOffer(c.Request.Context(), domaintrade.ProductID(c.Param("id")), user.ID, c.Param("buyer")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func toProductDTO(product *domaintrade.Product, viewer string) dto.Product {
	out := dto.Product{
		ID:          string(product.ID),
		Seller:      product.Seller,
		Title:       product.Title,
		Description: product.Description,
		PriceCents:  product.PriceCents,
		Status:      string(product.Status),
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	if !product.TransactionDate.IsZero() {
		date := product.TransactionDate
		out.TransactionDate = &date
	}
	if viewer == product.Seller {
		out.Buyer = product.Buyer
		for _, offer := range product.Offers {
			out.Offers = append(out.Offers, dto.Offer{
				Buyer:      offer.Buyer,
				PriceCents: offer.PriceCents,
				CreatedAt:  offer.CreatedAt,
				UpdatedAt:  offer.UpdatedAt,
			})
		}
		sort.Slice(out.Offers, func(i, j int) bool { return out.Offers[i].Buyer < out.Offers[j].Buyer })
	}
	return out
}
