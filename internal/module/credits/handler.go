package credits

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noteshare/server/internal/utils/middleware"
	"github.com/noteshare/server/internal/utils/pagination"
)

// Handler handles HTTP requests for wallets.
type Handler struct {
	service *Service
}

// NewHandler creates a new credits handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	wallet := r.Group("/wallet")
	{
		wallet.GET("", h.GetWallet)
		wallet.GET("/transactions", h.ListTransactions)
		wallet.GET("/prices", h.GetPrices)
	}
}

// GetWallet returns the caller's wallet.
//
//	@Summary		Get wallet
//	@Description	Get the current user's credit balance
//	@Tags			Credits
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	Wallet
//	@Failure		404	{object}	map[string]string
//	@Router			/wallet [get]
func (h *Handler) GetWallet(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	wallet, err := h.service.Wallet(c.Request.Context(), userID)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, wallet)
}

// ListTransactions returns the caller's ledger history.
//
//	@Summary		List wallet transactions
//	@Description	List the current user's credit ledger entries, newest first
//	@Tags			Credits
//	@Produce		json
//	@Security		BearerAuth
//	@Param			page		query		int	false	"Page number"
//	@Param			page_size	query		int	false	"Page size"
//	@Success		200	{object}	map[string]interface{}
//	@Router			/wallet/transactions [get]
func (h *Handler) ListTransactions(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	p := pagination.New()
	if err := c.ShouldBindQuery(p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txs, total, err := h.service.Transactions(c.Request.Context(), userID, p)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": txs,
		"pagination":   p.Info(total),
	})
}

// GetPrices returns the action price table.
//
//	@Summary		Get action prices
//	@Description	Get the credit cost of each priced action
//	@Tags			Credits
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	map[string]int64
//	@Router			/wallet/prices [get]
func (h *Handler) GetPrices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"create_post":    h.service.Price(ActionCreatePost),
		"create_comment": h.service.Price(ActionCreateComment),
		"ai_generate":    h.service.Price(ActionAIGenerate),
	})
}

// handleError maps service errors to HTTP responses.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrWalletNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "wallet_not_found", "message": "Wallet not found"})
	case errors.Is(err, ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "insufficient_credits", "message": "Insufficient credit balance"})
	case errors.Is(err, ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_amount", "message": "Amount must be positive"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error", "message": "An internal error occurred"})
	}
}
