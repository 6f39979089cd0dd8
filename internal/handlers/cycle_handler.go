package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "paisa/internal/errors"
	"paisa/internal/pagination"
	"paisa/internal/services"
)

// CycleHandler handles salary-cycle requests.
type CycleHandler struct {
	cycleService services.CycleServicer
	audit        services.AuditServicer
}

// NewCycleHandler creates a new CycleHandler.
func NewCycleHandler(cycleService services.CycleServicer, audit services.AuditServicer) *CycleHandler {
	return &CycleHandler{cycleService: cycleService, audit: audit}
}

// StartCycleRequest represents the request payload for starting a new cycle.
type StartCycleRequest struct {
	SalaryAmount float64 `json:"salary_amount" binding:"required,gt=0"`
}

// GetActiveCycle returns the user's active cycle
// @Summary     Get active cycle
// @Description Get the current open cycle with its balance, creating one on first contact
// @Tags        cycles
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Active cycle with available balance"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cycles/active [get]
func (h *CycleHandler) GetActiveCycle(c *gin.Context) {
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

	balance, err := h.cycleService.Balance(cycle)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cycle": cycle, "available_balance": balance})
}

// GetCycleHistory returns past cycles
// @Summary     Get cycle history
// @Description Get the user's cycles, newest first, paginated
// @Tags        cycles
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       page_size query int false "Page size" default(20)
// @Success     200 {object} map[string]interface{} "Paginated cycles"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cycles/history [get]
func (h *CycleHandler) GetCycleHistory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.cycleService.GetCycleHistory(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// StartCycle starts a new cycle
// @Summary     Start a new cycle
// @Description Close the current cycle and open a fresh one seeded with the given salary
// @Tags        cycles
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body StartCycleRequest true "Salary amount"
// @Success     201 {object} map[string]interface{} "New active cycle"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /cycles/start [post]
func (h *CycleHandler) StartCycle(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req StartCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	cycle, err := h.cycleService.StartNewCycle(userID, req.SalaryAmount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log(userID, "START_CYCLE", "cycle", cycle.ID, c.ClientIP(),
		map[string]interface{}{"salary_amount": req.SalaryAmount})

	c.JSON(http.StatusCreated, gin.H{"cycle": cycle})
}

// GetDashboard returns dashboard metrics for the active cycle
// @Summary     Get dashboard metrics
// @Description Get available balance, totals, net flow, burn rate and remaining days
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.DashboardMetrics "Dashboard metrics"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analytics/dashboard [get]
func (h *CycleHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	metrics, err := h.cycleService.DashboardMetrics(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, metrics)
}
