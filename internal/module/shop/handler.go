package shop

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noteshare/server/internal/module/credits"
	"github.com/noteshare/server/internal/module/workflow"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/middleware"
	"github.com/noteshare/server/internal/utils/pagination"
)

// Handler handles shop HTTP requests.
type Handler struct {
	service *Service
	log     *logger.Logger
}

// NewHandler creates a new shop handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes registers routes readable without authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/shop/banners", h.ListBanners)
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	shop := r.Group("/shop")
	{
		shop.GET("/owned", h.ListOwned)
		shop.POST("/banners/:id/purchase", h.Purchase)
		shop.PUT("/banners/:id/equip", h.Equip)
		shop.DELETE("/banners/equip", h.Unequip)
	}
}

// ListBanners handles listing banners on sale.
// @Summary List banners for sale
// @Tags shop
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /shop/banners [get]
func (h *Handler) ListBanners(c *gin.Context) {
	p := pagination.New()
	if err := c.ShouldBindQuery(p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	banners, total, err := h.service.ListBanners(c.Request.Context(), p)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"banners":    banners,
		"pagination": p.Info(total),
	})
}

// ListOwned handles listing the user's banners.
// @Summary List owned banners
// @Tags shop
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /shop/owned [get]
// @Security BearerAuth
func (h *Handler) ListOwned(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	banners, err := h.service.ListOwned(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"banners": banners})
}

// Purchase handles buying a banner.
// @Summary Purchase a banner
// @Tags shop
// @Produce json
// @Param id path string true "Banner ID"
// @Success 200 {object} Banner
// @Failure 402 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /shop/banners/{id}/purchase [post]
// @Security BearerAuth
func (h *Handler) Purchase(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	bannerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid banner id"})
		return
	}

	banner, err := h.service.Purchase(c.Request.Context(), userID, bannerID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, banner)
}

// Equip handles equipping an owned banner.
// @Summary Equip a banner
// @Tags shop
// @Produce json
// @Param id path string true "Banner ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Router /shop/banners/{id}/equip [put]
// @Security BearerAuth
func (h *Handler) Equip(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	bannerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid banner id"})
		return
	}

	if err := h.service.Equip(c.Request.Context(), userID, bannerID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Unequip handles clearing the equipped banner.
// @Summary Unequip the banner
// @Tags shop
// @Produce json
// @Success 204
// @Router /shop/banners/equip [delete]
// @Security BearerAuth
func (h *Handler) Unequip(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	if err := h.service.Unequip(c.Request.Context(), userID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// handleError maps service errors to HTTP responses.
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrBannerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "banner_not_found", "message": "Banner not found"})
	case errors.Is(err, ErrBannerInactive):
		c.JSON(http.StatusConflict, gin.H{"error": "banner_inactive", "message": "Banner is not for sale"})
	case errors.Is(err, ErrAlreadyOwned):
		c.JSON(http.StatusConflict, gin.H{"error": "already_owned", "message": "Banner already owned"})
	case errors.Is(err, ErrNotOwned):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_owned", "message": "You do not own this banner"})
	case errors.Is(err, credits.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient_credits", "message": "Not enough credits for this purchase"})
	case errors.Is(err, workflow.ErrBalanceInconsistency):
		h.log.ErrorContext(c.Request.Context(), "shop handler error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "balance_inconsistency", "message": "The purchase completed but the charge failed"})
	default:
		h.log.ErrorContext(c.Request.Context(), "shop handler error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
	}
}
