package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"tradepost/internal/app/dto"
	"tradepost/internal/domain/block"
)

type BlockHandler struct {
	Blocks *block.Registry
	Logger *slog.Logger
}

type createBlockRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *BlockHandler) Create(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var req createBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.Blocks.Block(c.Request.Context(), user.ID, req.UserID); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BlockHandler) Delete(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.Blocks.Unblock(c.Request.Context(), user.ID, c.Param("user_id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BlockHandler) List(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	blocked, err := h.Blocks.ListBlocked(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if blocked == nil {
		blocked = []string{}
	}
	c.JSON(http.StatusOK, dto.BlockList{Blocked: blocked})
}
