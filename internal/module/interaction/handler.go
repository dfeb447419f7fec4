package interaction

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noteshare/server/internal/module/post"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/middleware"
	"github.com/noteshare/server/internal/utils/pagination"
)

// Handler handles like and bookmark HTTP requests.
type Handler struct {
	service *Service
	log     *logger.Logger
}

// NewHandler creates a new interaction handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	posts := r.Group("/posts/:id")
	{
		posts.PUT("/like", h.Like)
		posts.DELETE("/like", h.Unlike)
		posts.PUT("/bookmark", h.Bookmark)
		posts.DELETE("/bookmark", h.Unbookmark)
	}
	r.GET("/bookmarks", h.ListBookmarked)
}

// Like handles liking a post.
// @Summary Like a post
// @Tags interactions
// @Produce json
// @Param id path string true "Post ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /posts/{id}/like [put]
// @Security BearerAuth
func (h *Handler) Like(c *gin.Context) {
	h.mutate(c, h.service.Like)
}

// Unlike handles removing a like.
// @Summary Unlike a post
// @Tags interactions
// @Produce json
// @Param id path string true "Post ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /posts/{id}/like [delete]
// @Security BearerAuth
func (h *Handler) Unlike(c *gin.Context) {
	h.mutate(c, h.service.Unlike)
}

// Bookmark handles saving a post.
// @Summary Bookmark a post
// @Tags interactions
// @Produce json
// @Param id path string true "Post ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /posts/{id}/bookmark [put]
// @Security BearerAuth
func (h *Handler) Bookmark(c *gin.Context) {
	h.mutate(c, h.service.Bookmark)
}

// Unbookmark handles removing a saved post.
// @Summary Remove a bookmark
// @Tags interactions
// @Produce json
// @Param id path string true "Post ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /posts/{id}/bookmark [delete]
// @Security BearerAuth
func (h *Handler) Unbookmark(c *gin.Context) {
	h.mutate(c, h.service.Unbookmark)
}

// ListBookmarked handles listing the user's saved posts.
// @Summary List bookmarked posts
// @Tags interactions
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /bookmarks [get]
// @Security BearerAuth
func (h *Handler) ListBookmarked(c *gin.Context) {
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

	posts, total, err := h.service.ListBookmarked(c.Request.Context(), userID, p)
	if err != nil {
		h.handleError(c, err)
		return
	}

	responses := make([]*post.PostResponse, 0, len(posts))
	for i := range posts {
		responses = append(responses, posts[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":      responses,
		"pagination": p.Info(total),
	})
}

func (h *Handler) mutate(c *gin.Context, fn func(ctx context.Context, userID, postID uuid.UUID) error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	if err := fn(c.Request.Context(), userID, postID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// handleError maps service errors to HTTP responses.
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, post.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post_not_found", "message": "Post not found"})
	case errors.Is(err, post.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "You cannot view this post"})
	case errors.Is(err, ErrAlreadyLiked):
		c.JSON(http.StatusConflict, gin.H{"error": "already_liked", "message": "Post already liked"})
	case errors.Is(err, ErrNotLiked):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_liked", "message": "Post not liked"})
	case errors.Is(err, ErrAlreadyBookmarked):
		c.JSON(http.StatusConflict, gin.H{"error": "already_bookmarked", "message": "Post already bookmarked"})
	case errors.Is(err, ErrNotBookmarked):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_bookmarked", "message": "Post not bookmarked"})
	default:
		h.log.ErrorContext(c.Request.Context(), "interaction handler error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
	}
}
