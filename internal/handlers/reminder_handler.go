package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "paisa/internal/errors"
	"paisa/internal/models"
	"paisa/internal/services"
)

// ReminderHandler handles payment-reminder requests.
type ReminderHandler struct {
	reminderService services.ReminderServicer
	auditService    services.AuditServicer
}

// NewReminderHandler creates a new ReminderHandler.
func NewReminderHandler(reminderService services.ReminderServicer, auditService services.AuditServicer) *ReminderHandler {
	return &ReminderHandler{reminderService: reminderService, auditService: auditService}
}

// CreateReminderRequest represents the payload for creating a reminder.
type CreateReminderRequest struct {
	Title   string              `json:"title" binding:"required,max=200"`
	Amount  float64             `json:"amount" binding:"gte=0"`
	DueDate *string             `json:"due_date"`
	Type    models.ReminderType `json:"type" binding:"omitempty,reminder_type"`
	Notes   string              `json:"notes" binding:"max=1000"`
}

// UpdateReminderRequest represents the payload for a partial reminder update.
type UpdateReminderRequest struct {
	Title   *string              `json:"title" binding:"omitempty,max=200"`
	Amount  *float64             `json:"amount" binding:"omitempty,gte=0"`
	DueDate *string              `json:"due_date"`
	Type    *models.ReminderType `json:"type" binding:"omitempty,reminder_type"`
	IsPaid  *bool                `json:"is_paid"`
	Notes   *string              `json:"notes" binding:"omitempty,max=1000"`
}

// ListReminders lists the user's reminders
// @Summary     List reminders
// @Description List the user's payment reminders, unpaid first
// @Tags        reminders
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]interface{} "Reminders"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reminders [get]
func (h *ReminderHandler) ListReminders(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	reminders, err := h.reminderService.ListReminders(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}

// CreateReminder creates a reminder
// @Summary     Create a reminder
// @Description Create a payment reminder for the user
// @Tags        reminders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateReminderRequest true "Reminder details"
// @Success     201 {object} map[string]interface{} "Reminder created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reminders [post]
func (h *ReminderHandler) CreateReminder(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	dueDate, err := requestDate(req.DueDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	reminder, err := h.reminderService.CreateReminder(userID, req.Title, req.Amount, dueDate, req.Type, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_REMINDER", "reminder", reminder.ID, c.ClientIP(),
		map[string]interface{}{"title": req.Title, "amount": req.Amount})

	c.JSON(http.StatusCreated, gin.H{"reminder": reminder})
}

// UpdateReminder applies a partial update to a reminder
// @Summary     Update a reminder
// @Description Apply a partial update to a user-owned reminder
// @Tags        reminders
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Reminder ID"
// @Param       request body UpdateReminderRequest true "Fields to update"
// @Success     200 {object} map[string]interface{} "Updated reminder"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Reminder not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reminders/{id} [patch]
func (h *ReminderHandler) UpdateReminder(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	reminderID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	update := services.ReminderUpdate{
		Title:  req.Title,
		Amount: req.Amount,
		Type:   req.Type,
		IsPaid: req.IsPaid,
		Notes:  req.Notes,
	}
	if req.DueDate != nil {
		dueDate, parseErr := requestDate(req.DueDate)
		if parseErr != nil {
			respondWithError(c, parseErr)
			return
		}
		update.DueDate = dueDate
	}

	reminder, err := h.reminderService.UpdateReminder(userID, reminderID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_REMINDER", "reminder", reminder.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"reminder": reminder})
}

// DeleteReminder removes a reminder
// @Summary     Delete a reminder
// @Description Remove a user-owned reminder
// @Tags        reminders
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Reminder ID"
// @Success     200 {object} map[string]interface{} "Reminder deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Reminder not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reminders/{id} [delete]
func (h *ReminderHandler) DeleteReminder(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	reminderID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.reminderService.DeleteReminder(userID, reminderID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_REMINDER", "reminder", reminderID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Reminder deleted"})
}
