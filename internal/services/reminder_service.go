package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "paisa/internal/errors"
	"paisa/internal/models"
)

// reminderService manages user payment reminders.
type reminderService struct {
	db *gorm.DB
}

// NewReminderService creates a new ReminderServicer.
func NewReminderService(db *gorm.DB) ReminderServicer {
	return &reminderService{db: db}
}

// ListReminders returns the user's reminders, unpaid first, earliest due
// date first within each group.
func (s *reminderService) ListReminders(userID uint) ([]models.Reminder, error) {
	var reminders []models.Reminder
	err := s.db.Where("user_id = ?", userID).
		Order("is_paid ASC, due_date ASC, id ASC").
		Find(&reminders).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reminders, nil
}

// CreateReminder adds a reminder for the user.
func (s *reminderService) CreateReminder(userID uint, title string, amount float64, dueDate *time.Time, reminderType models.ReminderType, notes string) (*models.Reminder, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
	}
	if amount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount cannot be negative")
	}
	if reminderType == "" {
		reminderType = models.ReminderTypeCustom
	}

	reminder := &models.Reminder{
		UserID:  userID,
		Title:   title,
		Amount:  amount,
		DueDate: dueDate,
		Type:    reminderType,
		Notes:   notes,
	}
	if err := s.db.Create(reminder).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reminder, nil
}

// UpdateReminder applies a partial update to a user-owned reminder.
func (s *reminderService) UpdateReminder(userID, reminderID uint, update ReminderUpdate) (*models.Reminder, error) {
	reminder, err := s.getOwnedReminder(userID, reminderID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		if strings.TrimSpace(*update.Title) == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title cannot be empty")
		}
		reminder.Title = *update.Title
	}
	if update.Amount != nil {
		if *update.Amount < 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount cannot be negative")
		}
		reminder.Amount = *update.Amount
	}
	if update.DueDate != nil {
		reminder.DueDate = update.DueDate
	}
	if update.Type != nil {
		reminder.Type = *update.Type
	}
	if update.IsPaid != nil {
		reminder.IsPaid = *update.IsPaid
	}
	if update.Notes != nil {
		reminder.Notes = *update.Notes
	}

	if err := s.db.Save(reminder).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return reminder, nil
}

// DeleteReminder removes a user-owned reminder.
func (s *reminderService) DeleteReminder(userID, reminderID uint) error {
	reminder, err := s.getOwnedReminder(userID, reminderID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(reminder).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *reminderService) getOwnedReminder(userID, reminderID uint) (*models.Reminder, error) {
	var reminder models.Reminder
	err := s.db.Where("id = ? AND user_id = ?", reminderID, userID).First(&reminder).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrReminderNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &reminder, nil
}
