package comment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noteshare/server/internal/module/credits"
	"github.com/noteshare/server/internal/module/post"
	"github.com/noteshare/server/internal/module/workflow"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/middleware"
	"github.com/noteshare/server/internal/utils/pagination"
)

// Handler handles comment HTTP requests.
type Handler struct {
	service *Service
	log     *logger.Logger
}

// NewHandler creates a new comment handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes registers routes readable without authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/posts/:id/comments", h.ListByPost)
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	r.POST("/posts/:id/comments", h.Create)
	r.DELETE("/comments/:id", h.Delete)
}

// Create handles comment creation.
// @Summary Comment on a post
// @Description Adds a comment, charging the comment cost.
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body CreateCommentRequest true "Comment"
// @Success 201 {object} CommentResponse
// @Failure 402 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /posts/{id}/comments [post]
// @Security BearerAuth
func (h *Handler) Create(c *gin.Context) {
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

	var req CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.service.Create(c.Request.Context(), userID, postID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment.ToResponse())
}

// Delete handles comment deletion.
// @Summary Delete a comment
// @Tags comments
// @Produce json
// @Param id path string true "Comment ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /comments/{id} [delete]
// @Security BearerAuth
func (h *Handler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	commentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), userID, commentID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListByPost handles listing a post's comments.
// @Summary List comments on a post
// @Tags comments
// @Produce json
// @Param id path string true "Post ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Router /posts/{id}/comments [get]
func (h *Handler) ListByPost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	viewerID, _ := middleware.GetUserID(c)

	p := pagination.New()
	if err := c.ShouldBindQuery(p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comments, total, err := h.service.ListByPost(c.Request.Context(), viewerID, postID, p)
	if err != nil {
		h.handleError(c, err)
		return
	}

	responses := make([]*CommentResponse, 0, len(comments))
	for i := range comments {
		responses = append(responses, comments[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"comments":   responses,
		"pagination": p.Info(total),
	})
}

// handleError maps service errors to HTTP responses.
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "comment_not_found", "message": "Comment not found"})
	case errors.Is(err, ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_author", "message": "You cannot delete this comment"})
	case errors.Is(err, post.ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post_not_found", "message": "Post not found"})
	case errors.Is(err, post.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "You cannot view this post"})
	case errors.Is(err, credits.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient_credits", "message": "Not enough credits for this action"})
	case errors.Is(err, workflow.ErrBalanceInconsistency):
		h.log.ErrorContext(c.Request.Context(), "comment handler error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "balance_inconsistency", "message": "The action completed but the charge failed"})
	default:
		h.log.ErrorContext(c.Request.Context(), "comment handler error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
	}
}
