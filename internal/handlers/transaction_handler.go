package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "drachma/internal/errors"
	"drachma/internal/models"
	"drachma/internal/pagination"
	"drachma/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// TransactionRequest represents the request payload for posting or editing a
// transaction.
type TransactionRequest struct {
	AccountID         string          `json:"account_id" binding:"required"`
	Type              string          `json:"type" binding:"required,transaction_type"`
	Amount            decimal.Decimal `json:"amount" binding:"required"`
	Description       string          `json:"description" binding:"max=500"`
	Category          string          `json:"category" binding:"max=100"`
	Date              *time.Time      `json:"date"`
	IsRecurring       bool            `json:"is_recurring"`
	RecurringInterval *string         `json:"recurring_interval" binding:"omitempty,recurring_interval"`
}

// TransactionResponse decorates a transaction with its category display label.
type TransactionResponse struct {
	models.Transaction
	CategoryLabel string `json:"category_label"`
}

func newTransactionResponse(transaction *models.Transaction) TransactionResponse {
	return TransactionResponse{
		Transaction:   *transaction,
		CategoryLabel: models.CategoryLabel(transaction.Category),
	}
}

func (r *TransactionRequest) toDraft() services.TransactionDraft {
	draft := services.TransactionDraft{
		AccountID:   r.AccountID,
		Type:        models.TransactionType(r.Type),
		Amount:      r.Amount,
		Description: r.Description,
		Category:    r.Category,
		IsRecurring: r.IsRecurring,
	}
	if r.Date != nil {
		draft.Date = *r.Date
	}
	if r.RecurringInterval != nil {
		interval := models.RecurringInterval(*r.RecurringInterval)
		draft.RecurringInterval = &interval
	}
	return draft
}

// PostTransaction creates a transaction and updates the account balance
// atomically.
func (h *TransactionHandler) PostTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transaction, err := h.transactionService.PostTransaction(userID, req.toDraft())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": newTransactionResponse(transaction)})
}

// RepostTransaction edits a transaction, applying the compensating balance
// delta atomically.
func (h *TransactionHandler) RepostTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	transaction, err := h.transactionService.RepostTransaction(userID, c.Param("id"), req.toDraft())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": newTransactionResponse(transaction)})
}

// GetTransaction returns a single transaction by ID.
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": newTransactionResponse(transaction)})
}

// ListTransactionsQuery holds the filter parameters for listing an account's
// transactions.
type ListTransactionsQuery struct {
	pagination.PageRequest
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	Type      *string    `form:"type" binding:"omitempty,transaction_type"`
	Category  *string    `form:"category"`
	MinAmount *float64   `form:"min_amount" binding:"omitempty,gte=0"`
	MaxAmount *float64   `form:"max_amount" binding:"omitempty,gte=0"`
}

// ListTransactions returns an account's transactions, newest first.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query ListTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.TransactionFilter{
		FromDate: query.From,
		ToDate:   query.To,
		Category: query.Category,
	}
	if query.Type != nil {
		txType := models.TransactionType(*query.Type)
		filter.Type = &txType
	}
	if query.MinAmount != nil {
		min := decimal.NewFromFloat(*query.MinAmount)
		filter.MinAmount = &min
	}
	if query.MaxAmount != nil {
		max := decimal.NewFromFloat(*query.MaxAmount)
		filter.MaxAmount = &max
	}

	transactions, err := h.transactionService.GetAccountTransactions(userID, c.Param("id"), query.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}
