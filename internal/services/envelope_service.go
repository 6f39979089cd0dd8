package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "paisa/internal/errors"
	"paisa/internal/models"
)

// envelopeService manages per-category budget envelopes.
type envelopeService struct {
	db *gorm.DB
}

// NewEnvelopeService creates a new EnvelopeServicer.
func NewEnvelopeService(db *gorm.DB) EnvelopeServicer {
	return &envelopeService{db: db}
}

// Allocate adds amount to the (cycle, category) envelope, creating it with
// zero spent when absent. At most one envelope exists per category key.
func (s *envelopeService) Allocate(cycleID uint, category string, amount float64) (*models.Envelope, error) {
	if strings.TrimSpace(category) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	if amount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "allocation amount cannot be negative")
	}

	var envelope *models.Envelope
	err := s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := findEnvelope(tx, cycleID, category)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if existing != nil {
			existing.Allocated += amount
			if err := tx.Save(existing).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			envelope = existing
			return nil
		}

		envelope = &models.Envelope{
			CycleID:   cycleID,
			Category:  strings.ToLower(category),
			Allocated: amount,
			Spent:     0,
		}
		if err := tx.Create(envelope).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return envelope, nil
}

// FindByCategory returns the envelope for (cycle, category) or
// ErrEnvelopeNotFound.
func (s *envelopeService) FindByCategory(cycleID uint, category string) (*models.Envelope, error) {
	envelope, err := findEnvelope(s.db, cycleID, category)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEnvelopeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return envelope, nil
}

// ListByCycle returns all envelopes of a cycle in creation order.
func (s *envelopeService) ListByCycle(cycleID uint) ([]models.Envelope, error) {
	var envelopes []models.Envelope
	if err := s.db.Where("cycle_id = ?", cycleID).Order("id ASC").Find(&envelopes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return envelopes, nil
}

// SetAllocation overwrites the allocated amount of an envelope.
func (s *envelopeService) SetAllocation(envelopeID uint, allocated float64) (*models.Envelope, error) {
	if allocated < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "allocation amount cannot be negative")
	}

	envelope, err := s.GetByID(envelopeID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(envelope).Update("allocated", allocated).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	envelope.Allocated = allocated
	return envelope, nil
}

// DeleteByCategory removes the envelope for (cycle, category) and returns
// it. Ledger entries already recorded against the category are untouched;
// a later recompute simply has no envelope left to attribute them to.
func (s *envelopeService) DeleteByCategory(cycleID uint, category string) (*models.Envelope, error) {
	envelope, err := s.FindByCategory(cycleID, category)
	if err != nil {
		return nil, err
	}
	if err := s.db.Delete(envelope).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return envelope, nil
}

// DeleteByID removes an envelope by primary key.
func (s *envelopeService) DeleteByID(envelopeID uint) error {
	envelope, err := s.GetByID(envelopeID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(envelope).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetByID returns an envelope by primary key.
func (s *envelopeService) GetByID(envelopeID uint) (*models.Envelope, error) {
	var envelope models.Envelope
	if err := s.db.First(&envelope, envelopeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEnvelopeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &envelope, nil
}

// findEnvelope does the case-insensitive (cycle, category) lookup shared by
// the service methods. Returns gorm.ErrRecordNotFound when absent.
func findEnvelope(tx *gorm.DB, cycleID uint, category string) (*models.Envelope, error) {
	var envelope models.Envelope
	err := tx.Where("cycle_id = ? AND LOWER(category) = LOWER(?)", cycleID, category).
		First(&envelope).Error
	if err != nil {
		return nil, err
	}
	return &envelope, nil
}
