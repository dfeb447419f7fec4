package ai

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

// GenerateRequest is the generation payload.
type GenerateRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// Handler handles AI HTTP requests.
type Handler struct {
	service *Service
	log     *logger.Logger
}

// NewHandler creates a new AI handler.
func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	ai := r.Group("/ai")
	{
		ai.POST("/generate", h.Generate)
		ai.GET("/generations", h.ListGenerations)
		ai.GET("/generations/:id", h.GetGeneration)
	}
}

// Generate handles text generation.
// @Summary Generate text
// @Description Produces a completion for the prompt, charging the generation cost.
// @Tags ai
// @Accept json
// @Produce json
// @Param request body GenerateRequest true "Prompt"
// @Success 201 {object} Generation
// @Failure 402 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /ai/generate [post]
// @Security BearerAuth
func (h *Handler) Generate(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gen, err := h.service.Generate(c.Request.Context(), userID, req.Prompt)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gen)
}

// GetGeneration handles fetching one generation.
// @Summary Get a generation
// @Tags ai
// @Produce json
// @Param id path string true "Generation ID"
// @Success 200 {object} Generation
// @Failure 404 {object} map[string]string
// @Router /ai/generations/{id} [get]
// @Security BearerAuth
func (h *Handler) GetGeneration(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid generation id"})
		return
	}

	gen, err := h.service.GetGeneration(c.Request.Context(), userID, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gen)
}

// ListGenerations handles listing the user's generations.
// @Summary List generations
// @Tags ai
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} map[string]interface{}
// @Router /ai/generations [get]
// @Security BearerAuth
func (h *Handler) ListGenerations(c *gin.Context) {
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

	generations, total, err := h.service.ListGenerations(c.Request.Context(), userID, p)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"generations": generations,
		"pagination":  p.Info(total),
	})
}

// handleError maps service errors to HTTP responses.
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEmptyPrompt):
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty_prompt", "message": "Prompt must not be empty"})
	case errors.Is(err, ErrGenerationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "generation_not_found", "message": "Generation not found"})
	case errors.Is(err, credits.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient_credits", "message": "Not enough credits for this action"})
	case errors.Is(err, ErrProviderUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "provider_unavailable", "message": "Text generation is temporarily unavailable"})
	case errors.Is(err, ErrEmptyResponse):
		c.JSON(http.StatusBadGateway, gin.H{"error": "empty_response", "message": "The provider returned no content"})
	case errors.Is(err, workflow.ErrBalanceInconsistency):
		h.log.ErrorContext(c.Request.Context(), "ai handler error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "balance_inconsistency", "message": "The generation succeeded but the charge failed"})
	default:
		h.log.ErrorContext(c.Request.Context(), "ai handler error", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
	}
}
