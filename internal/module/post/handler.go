package post

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noteshare/server/internal/module/credits"
	"github.com/noteshare/server/internal/module/workflow"
	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/middleware"
	"github.com/noteshare/server/internal/utils/pagination"
)

// Handler handles post HTTP requests.
type Handler struct {
	service *Service
	log     *logger.Logger
}

// NewHandler creates a new post handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterRoutes registers routes readable without authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	posts := r.Group("/posts")
	{
		posts.GET("/:id", h.Get)
	}
	r.GET("/users/:id/posts", h.ListByAuthor)
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	posts := r.Group("/posts")
	{
		posts.POST("", h.Create)
		posts.PUT("/:id", h.Update)
		posts.DELETE("/:id", h.Delete)
		posts.PUT("/:id/pin", h.Pin)
		posts.DELETE("/:id/pin", h.Unpin)
	}
}

// Create handles post creation.
// @Summary Create a post
// @Description Creates a post, charging the posting cost. Accepts an optional attachment file.
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Post title"
// @Param description formData string false "Post body"
// @Param label formData string false "Visibility label" Enums(public, private)
// @Param recipient_id formData string false "Addressed user ID"
// @Param file formData file false "Attachment"
// @Success 201 {object} PostResponse
// @Failure 400 {object} map[string]string
// @Failure 402 {object} map[string]string
// @Router /posts [post]
// @Security BearerAuth
func (h *Handler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req CreatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	up, file, err := h.openUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if file != nil {
		defer file.Close()
	}

	post, err := h.service.Create(c.Request.Context(), userID, &req, up)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post.ToResponse())
}

// Get handles fetching a single post.
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} PostResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /posts/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	viewerID, _ := middleware.GetUserID(c)

	post, err := h.service.Get(c.Request.Context(), viewerID, postID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, post.ToResponse())
}

// Update handles post updates.
// @Summary Update a post
// @Tags posts
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} PostResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /posts/{id} [put]
// @Security BearerAuth
func (h *Handler) Update(c *gin.Context) {
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

	var req UpdatePostRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	up, file, err := h.openUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if file != nil {
		defer file.Close()
	}

	post, err := h.service.Update(c.Request.Context(), userID, postID, &req, up)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, post.ToResponse())
}

// Delete handles post deletion.
// @Summary Delete a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /posts/{id} [delete]
// @Security BearerAuth
func (h *Handler) Delete(c *gin.Context) {
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

	if err := h.service.Delete(c.Request.Context(), userID, postID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Pin handles pinning a post to the author's profile.
// @Summary Pin a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} PostResponse
// @Router /posts/{id}/pin [put]
// @Security BearerAuth
func (h *Handler) Pin(c *gin.Context) {
	h.setPinned(c, true)
}

// Unpin handles unpinning a post.
// @Summary Unpin a post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} PostResponse
// @Router /posts/{id}/pin [delete]
// @Security BearerAuth
func (h *Handler) Unpin(c *gin.Context) {
	h.setPinned(c, false)
}

func (h *Handler) setPinned(c *gin.Context, pinned bool) {
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

	post, err := h.service.SetPinned(c.Request.Context(), userID, postID, pinned)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, post.ToResponse())
}

// ListByAuthor handles listing a user's posts.
// @Summary List a user's posts
// @Tags posts
// @Produce json
// @Param id path string true "User ID"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /users/{id}/posts [get]
func (h *Handler) ListByAuthor(c *gin.Context) {
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

	posts, total, err := h.service.ListByAuthor(c.Request.Context(), viewerID, authorID, p)
	if err != nil {
		h.handleError(c, err)
		return
	}

	responses := make([]*PostResponse, 0, len(posts))
	for i := range posts {
		responses = append(responses, posts[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{
		"posts":      responses,
		"pagination": p.Info(total),
	})
}

// openUpload extracts the optional attachment file from the request. A
// missing file is not an error.
func (h *Handler) openUpload(c *gin.Context) (*Upload, multipart.File, error) {
	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, err
	}

	return &Upload{
		Filename:    header.Filename,
		Body:        file,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
	}, file, nil
}

// handleError maps service errors to HTTP responses.
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrPostNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post_not_found", "message": "Post not found"})
	case errors.Is(err, ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_author", "message": "Only the author can modify this post"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "You cannot view this post"})
	case errors.Is(err, ErrInvalidLabel):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_label", "message": "Label must be public or private"})
	case errors.Is(err, ErrAttachmentSize):
		c.JSON(http.StatusBadRequest, gin.H{"error": "attachment_too_large", "message": "Attachment exceeds the size limit"})
	case errors.Is(err, credits.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient_credits", "message": "Not enough credits for this action"})
	case errors.Is(err, ErrUploadFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload_failed", "message": "Attachment upload failed"})
	case errors.Is(err, ErrDeleteFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "delete_failed", "message": "Attachment could not be removed"})
	case errors.Is(err, workflow.ErrBalanceInconsistency):
		h.log.ErrorContext(c.Request.Context(), "post handler error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "balance_inconsistency", "message": "The action completed but the charge failed"})
	default:
		h.log.ErrorContext(c.Request.Context(), "post handler error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
	}
}
