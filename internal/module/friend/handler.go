package friend

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noteshare/server/internal/shared/logger"
	"github.com/noteshare/server/internal/utils/middleware"
	"github.com/noteshare/server/internal/utils/pagination"
)

// SendRequestBody is the friend request payload.
type SendRequestBody struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// Handler handles friendship HTTP requests.
type Handler struct {
	service *Service
	log     *logger.Logger
}

// NewHandler creates a new friend handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	friends := r.Group("/friends")
	{
		friends.GET("", h.ListFriends)
		friends.DELETE("/:id", h.Remove)
		friends.POST("/requests", h.SendRequest)
		friends.GET("/requests", h.ListIncoming)
		friends.PUT("/requests/:id/accept", h.Accept)
		friends.PUT("/requests/:id/decline", h.Decline)
	}
}

// SendRequest handles sending a friend request.
// @Summary Send a friend request
// @Tags friends
// @Accept json
// @Produce json
// @Param request body SendRequestBody true "Target user"
// @Success 201 {object} Request
// @Failure 409 {object} map[string]string
// @Router /friends/requests [post]
// @Security BearerAuth
func (h *Handler) SendRequest(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var body SendRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	toID, err := uuid.Parse(body.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	req, err := h.service.SendRequest(c.Request.Context(), userID, toID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, req)
}

// Accept handles accepting a friend request.
// @Summary Accept a friend request
// @Tags friends
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} Request
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /friends/requests/{id}/accept [put]
// @Security BearerAuth
func (h *Handler) Accept(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	req, err := h.service.Accept(c.Request.Context(), userID, requestID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, req)
}

// Decline handles declining a friend request.
// @Summary Decline a friend request
// @Tags friends
// @Produce json
// @Param id path string true "Request ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /friends/requests/{id}/decline [put]
// @Security BearerAuth
func (h *Handler) Decline(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	if err := h.service.Decline(c.Request.Context(), userID, requestID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Remove handles removing a friend.
// @Summary Remove a friend
// @Tags friends
// @Produce json
// @Param id path string true "Friend user ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /friends/{id} [delete]
// @Security BearerAuth
func (h *Handler) Remove(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	friendID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.service.Remove(c.Request.Context(), userID, friendID); err != nil {
		h.handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListFriends handles listing the user's friends.
// @Summary List friends
// @Tags friends
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /friends [get]
// @Security BearerAuth
func (h *Handler) ListFriends(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	ids, err := h.service.ListFriendIDs(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"friend_ids": ids})
}

// ListIncoming handles listing pending friend requests.
// @Summary List incoming friend requests
// @Tags friends
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /friends/requests [get]
// @Security BearerAuth
func (h *Handler) ListIncoming(c *gin.Context) {
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

	requests, total, err := h.service.ListIncoming(c.Request.Context(), userID, p)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"requests":   requests,
		"pagination": p.Info(total),
	})
}

// handleError maps service errors to HTTP responses.
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrSelfFriend):
		c.JSON(http.StatusBadRequest, gin.H{"error": "self_friend", "message": "You cannot befriend yourself"})
	case errors.Is(err, ErrAlreadyFriends):
		c.JSON(http.StatusConflict, gin.H{"error": "already_friends", "message": "Already friends"})
	case errors.Is(err, ErrRequestExists):
		c.JSON(http.StatusConflict, gin.H{"error": "request_exists", "message": "A request is already pending"})
	case errors.Is(err, ErrRequestNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "request_not_found", "message": "Friend request not found"})
	case errors.Is(err, ErrNotAddressee):
		c.JSON(http.StatusForbidden, gin.H{"error": "not_addressee", "message": "Only the addressee can answer this request"})
	case errors.Is(err, ErrNotFriends):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_friends", "message": "Not friends"})
	default:
		h.log.ErrorContext(c.Request.Context(), "friend handler error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
	}
}
