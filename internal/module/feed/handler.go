package feed

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/middleware"
	"github.com/noteshare/server/internal/utils/pagination"
)

// Handler handles feed HTTP requests.
type Handler struct {
	service *Service
	log     *logger.Logger
}

// NewHandler creates a new feed handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes registers routes readable without authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/feed", h.Public)
	r.GET("/feed/profile/:id", h.Profile)
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.GET("/feed/friends", h.Friends)
	r.GET("/feed/inbox", h.Inbox)
}

// Public handles the public feed.
// @Summary Public feed
// @Tags feed
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} Page
// @Router /feed [get]
func (h *Handler) Public(c *gin.Context) {
	p := pagination.New()
	if err := c.ShouldBindQuery(p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.service.Public(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Profile handles an author's profile feed. Anonymous viewers and other
// users see public posts only; the author also sees their private posts.
// @Summary Profile feed
// @Tags feed
// @Produce json
// @Param id path string true "Author ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} Page
// @Router /feed/profile/{id} [get]
func (h *Handler) Profile(c *gin.Context) {
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	viewerID, _ := middleware.GetUserID(c)

	p := pagination.New()
	if err := c.ShouldBindQuery(p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.service.Profile(c.Request.Context(), viewerID, authorID, p)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Friends handles the friends feed.
// @Summary Friends feed
// @Tags feed
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} Page
// @Router /feed/friends [get]
// @Security BearerAuth
func (h *Handler) Friends(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	p := pagination.New()
	if err := c.ShouldBindQuery(p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.service.Friends(c.Request.Context(), userID, p)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// Inbox handles the feed of posts addressed to the user.
// @Summary Inbox feed
// @Tags feed
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} Page
// @Router /feed/inbox [get]
// @Security BearerAuth
func (h *Handler) Inbox(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	p := pagination.New()
	if err := c.ShouldBindQuery(p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, err := h.service.Inbox(c.Request.Context(), userID, p)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *Handler) fail(c *gin.Context, err error) {
	h.log.ErrorContext(c.Request.Context(), "feed handler error", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
}
