package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "paisa/internal/errors"
	"paisa/internal/services"
)

// EnvelopeHandler handles budget-envelope requests. Mutations recompute the
// active cycle so a freshly created envelope picks up the spending already
// recorded against its category.
type EnvelopeHandler struct {
	envelopeService services.EnvelopeServicer
	cycleService    services.CycleServicer
	auditService    services.AuditServicer
}

// NewEnvelopeHandler creates a new EnvelopeHandler.
func NewEnvelopeHandler(envelopeService services.EnvelopeServicer, cycleService services.CycleServicer, auditService services.AuditServicer) *EnvelopeHandler {
	return &EnvelopeHandler{envelopeService: envelopeService, cycleService: cycleService, auditService: auditService}
}

// AllocateEnvelopeRequest represents the payload for allocating to an envelope.
type AllocateEnvelopeRequest struct {
	Category string  `json:"category" binding:"required,max=100"`
	Amount   float64 `json:"amount" binding:"required,gt=0"`
}

// UpdateEnvelopeRequest represents the payload for overwriting an allocation.
type UpdateEnvelopeRequest struct {
	Allocated float64 `json:"allocated" binding:"gte=0"`
}

// ListEnvelopes lists the active cycle's envelopes
// @Summary     List envelopes
// @Description List the budget envelopes of the active cycle
// @Tags        envelopes
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Envelopes"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /envelopes [get]
func (h *EnvelopeHandler) ListEnvelopes(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	cycle, err := h.cycleService.GetActiveCycle(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	envelopes, err := h.envelopeService.ListByCycle(cycle.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"envelopes": envelopes})
}

// AllocateEnvelope adds to an envelope
// @Summary     Allocate to an envelope
// @Description Add an amount to the envelope for a category, creating it when absent; allocations are cumulative
// @Tags        envelopes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AllocateEnvelopeRequest true "Category and amount"
// @Success     201 {object} map[string]interface{} "Envelope after allocation"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /envelopes [post]
func (h *EnvelopeHandler) AllocateEnvelope(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AllocateEnvelopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	cycle, err := h.cycleService.GetActiveCycle(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	envelope, err := h.envelopeService.Allocate(cycle.ID, req.Category, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	// Backfill spent from entries already recorded against the category.
	if err := h.cycleService.Recompute(cycle); err != nil {
		respondWithError(c, err)
		return
	}
	envelope, err = h.envelopeService.GetByID(envelope.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ALLOCATE_ENVELOPE", "envelope", envelope.ID, c.ClientIP(),
		map[string]interface{}{"category": req.Category, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"envelope": envelope})
}

// UpdateEnvelope overwrites an envelope's allocation
// @Summary     Update an envelope
// @Description Overwrite the allocated amount of an envelope
// @Tags        envelopes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Envelope ID"
// @Param       request body UpdateEnvelopeRequest true "New allocation"
// @Success     200 {object} map[string]interface{} "Updated envelope"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Envelope not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /envelopes/{id} [put]
func (h *EnvelopeHandler) UpdateEnvelope(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	envelopeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateEnvelopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	if err := h.authorizeEnvelope(userID, envelopeID); err != nil {
		respondWithError(c, err)
		return
	}

	envelope, err := h.envelopeService.SetAllocation(envelopeID, req.Allocated)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_ENVELOPE", "envelope", envelope.ID, c.ClientIP(),
		map[string]interface{}{"allocated": req.Allocated})

	c.JSON(http.StatusOK, gin.H{"envelope": envelope})
}

// DeleteEnvelope removes an envelope
// @Summary     Delete an envelope
// @Description Remove an envelope; entries already recorded against the category are untouched
// @Tags        envelopes
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Envelope ID"
// @Success     200 {object} map[string]interface{} "Envelope deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Envelope not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /envelopes/{id} [delete]
func (h *EnvelopeHandler) DeleteEnvelope(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	envelopeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.authorizeEnvelope(userID, envelopeID); err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.envelopeService.DeleteByID(envelopeID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_ENVELOPE", "envelope", envelopeID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Envelope deleted"})
}

// authorizeEnvelope verifies the envelope's cycle belongs to the user,
// mapping a foreign owner to not-found.
func (h *EnvelopeHandler) authorizeEnvelope(userID, envelopeID uint) error {
	envelope, err := h.envelopeService.GetByID(envelopeID)
	if err != nil {
		return err
	}
	if _, err := h.cycleService.GetCycleByID(userID, envelope.CycleID); err != nil {
		return apperrors.ErrEnvelopeNotFound
	}
	return nil
}
