package shop

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/middleware"
)

// AdminHandler handles admin HTTP requests for banner management.
type AdminHandler struct {
	service *Service
	log     *logger.Logger
}

// NewAdminHandler creates a new shop admin handler.
func NewAdminHandler(service *Service, log *logger.Logger) *AdminHandler {
	return &AdminHandler{service: service, log: log}
}

// RegisterRoutes registers the admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin/shop")
	{
		admin.POST("/banners", h.CreateBanner)
		admin.POST("/banners/:id/deactivate", h.DeactivateBanner)
	}
}

// CreateBanner puts a new banner on sale.
// @Summary Create a banner
// @Tags shop
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Banner name"
// @Param price formData int true "Price in credits"
// @Param file formData file true "Banner image"
// @Success 201 {object} Banner
// @Failure 403 {object} map[string]string
// @Router /admin/shop/banners [post]
// @Security BearerAuth
func (h *AdminHandler) CreateBanner(c *gin.Context) {
	if !middleware.IsAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	var req CreateBannerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read file"})
		return
	}
	defer file.Close()

	banner, err := h.service.CreateBanner(
		c.Request.Context(),
		&req,
		fileHeader.Filename,
		file,
		fileHeader.Size,
		fileHeader.Header.Get("Content-Type"),
	)
	if err != nil {
		h.handleAdminError(c, err)
		return
	}

	c.JSON(http.StatusCreated, banner)
}

// DeactivateBanner takes a banner off sale.
// @Summary Deactivate a banner
// @Tags shop
// @Produce json
// @Param id path string true "Banner ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/shop/banners/{id}/deactivate [post]
// @Security BearerAuth
func (h *AdminHandler) DeactivateBanner(c *gin.Context) {
	if !middleware.IsAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	bannerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid banner id"})
		return
	}

	if err := h.service.DeactivateBanner(c.Request.Context(), bannerID); err != nil {
		h.handleAdminError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) handleAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrBannerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "banner_not_found", "message": "Banner not found"})
	case errors.Is(err, ErrImageTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image_too_large", "message": "Banner image exceeds the size limit"})
	default:
		h.log.ErrorContext(c.Request.Context(), "shop admin handler error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
	}
}
