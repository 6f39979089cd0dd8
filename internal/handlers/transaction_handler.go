package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "paisa/internal/errors"
	"paisa/internal/models"
	"paisa/internal/pagination"
	"paisa/internal/services"
)

// TransactionHandler is the programmatic editing surface over ledger entries.
type TransactionHandler struct {
	ledgerService services.LedgerServicer
	auditService  services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(ledgerService services.LedgerServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService, auditService: auditService}
}

// TransactionRequest represents the payload for creating or updating an entry.
type TransactionRequest struct {
	CycleID     *uint                    `json:"cycle_id"`
	Type        models.TransactionType   `json:"type" binding:"required,entry_type"`
	Category    string                   `json:"category" binding:"max=100"`
	Amount      float64                  `json:"amount" binding:"required,gte=0"`
	Date        *string                  `json:"date"`
	Source      models.TransactionSource `json:"source" binding:"omitempty,funding_source"`
	Description string                   `json:"description" binding:"max=500"`
}

// ListTransactionsQuery holds the filter parameters for listing entries.
type ListTransactionsQuery struct {
	pagination.PageRequest
	CycleID  *uint   `form:"cycle_id"`
	Type     *string `form:"type" binding:"omitempty,entry_type"`
	Category string  `form:"category" binding:"max=100"`
	From     *string `form:"from"`
	To       *string `form:"to"`
}

// ListTransactions lists the user's entries
// @Summary     List transactions
// @Description List ledger entries, newest first, with optional cycle/type/category/date filters
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       cycle_id query int false "Filter by cycle"
// @Param       type query string false "Filter by entry type" Enums(INCOME, EXPENSE, SALARY)
// @Param       category query string false "Filter by category"
// @Param       page query int false "Page number" default(1)
// @Param       page_size query int false "Page size" default(20)
// @Success     200 {object} map[string]interface{} "Paginated entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
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

	filter := services.LedgerFilter{CycleID: query.CycleID, Category: query.Category}
	if query.Type != nil {
		entryType := models.TransactionType(*query.Type)
		filter.Type = &entryType
	}
	if query.From != nil && *query.From != "" {
		from, parseErr := parseFlexibleTime(*query.From)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		filter.FromDate = &from
	}
	if query.To != nil && *query.To != "" {
		to, parseErr := parseFlexibleTime(*query.To)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		filter.ToDate = &to
	}

	result, err := h.ledgerService.ListEntries(userID, query.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateTransaction creates a new ledger entry
// @Summary     Create a transaction
// @Description Create a ledger entry in the given cycle (active cycle when omitted); the cycle's aggregates are recomputed
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TransactionRequest true "Entry details"
// @Success     201 {object} map[string]interface{} "Entry created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Cycle not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
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

	date, err := requestDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.ledgerService.CreateEntry(userID, req.CycleID, req.Type, req.Category, req.Amount, date, req.Source, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSACTION", "transaction", entry.ID, c.ClientIP(),
		map[string]interface{}{"type": req.Type, "amount": req.Amount, "category": req.Category})

	c.JSON(http.StatusCreated, gin.H{"transaction": entry})
}

// UpdateTransaction rewrites a ledger entry
// @Summary     Update a transaction
// @Description Rewrite an entry's fields; the owning cycle's aggregates are recomputed
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Param       request body TransactionRequest true "New entry fields"
// @Success     200 {object} map[string]interface{} "Entry updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := requestDate(req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entry, err := h.ledgerService.UpdateEntry(userID, entryID, req.Type, req.Category, req.Amount, date, req.Source, req.Description)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRANSACTION", "transaction", entry.ID, c.ClientIP(),
		map[string]interface{}{"type": req.Type, "amount": req.Amount, "category": req.Category})

	c.JSON(http.StatusOK, gin.H{"transaction": entry})
}

// DeleteTransaction removes a ledger entry
// @Summary     Delete a transaction
// @Description Remove an entry; the owning cycle's aggregates are recomputed
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Transaction ID"
// @Success     200 {object} map[string]interface{} "Entry deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	entryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.ledgerService.DeleteEntry(userID, entryID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", entryID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

// requestDate parses an optional request date string.
func requestDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := parseFlexibleTime(*raw)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return &parsed, nil
}
