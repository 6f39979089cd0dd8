package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "paisa/internal/errors"
	"paisa/internal/models"
	"paisa/internal/pagination"
)

// ledgerService is the programmatic editing surface over raw entries.
// Unlike the conversational processor, which adjusts aggregates
// incrementally, every mutation here is followed by a full recompute of the
// owning cycle so manual edits can never leave aggregates drifted.
type ledgerService struct {
	db     *gorm.DB
	cycles CycleServicer
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB, cycles CycleServicer) LedgerServicer {
	return &ledgerService{db: db, cycles: cycles}
}

// ListEntries returns the user's entries, newest first, with optional filters.
func (s *ledgerService) ListEntries(userID uint, page pagination.PageRequest, filter LedgerFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).
		Joins("JOIN cycles ON cycles.id = transactions.cycle_id").
		Where("cycles.user_id = ?", userID)
	if filter.CycleID != nil {
		base = base.Where("transactions.cycle_id = ?", *filter.CycleID)
	}
	if filter.Type != nil {
		base = base.Where("transactions.type = ?", *filter.Type)
	}
	if filter.Category != "" {
		base = base.Where("LOWER(transactions.category) = LOWER(?)", filter.Category)
	}
	if filter.FromDate != nil {
		base = base.Where("transactions.date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		base = base.Where("transactions.date <= ?", *filter.ToDate)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var entries []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("transactions.date DESC, transactions.id DESC").
		Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(entries, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// CreateEntry adds an entry to the given cycle (the active one when nil)
// and recomputes that cycle.
func (s *ledgerService) CreateEntry(
	userID uint,
	cycleID *uint,
	entryType models.TransactionType,
	category string,
	amount float64,
	date *time.Time,
	source models.TransactionSource,
	description string,
) (*models.Transaction, error) {
	if amount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount cannot be negative")
	}
	if !storableType(entryType) {
		return nil, apperrors.ErrInvalidEntryType
	}

	var cycle *models.Cycle
	var err error
	if cycleID != nil {
		cycle, err = s.cycles.GetCycleByID(userID, *cycleID)
	} else {
		cycle, err = s.cycles.GetActiveCycle(userID)
	}
	if err != nil {
		return nil, err
	}

	entryDate := time.Now()
	if date != nil {
		entryDate = *date
	}
	if source == "" {
		source = models.SourceMainBalance
	}

	entry := &models.Transaction{
		CycleID:     cycle.ID,
		Type:        entryType,
		Category:    category,
		Amount:      amount,
		Date:        entryDate,
		Source:      source,
		Description: description,
	}
	if err := s.db.Create(entry).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.cycles.Recompute(cycle); err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateEntry rewrites an entry's fields and recomputes its cycle.
func (s *ledgerService) UpdateEntry(
	userID, entryID uint,
	entryType models.TransactionType,
	category string,
	amount float64,
	date *time.Time,
	source models.TransactionSource,
	description string,
) (*models.Transaction, error) {
	if amount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount cannot be negative")
	}
	if !storableType(entryType) {
		return nil, apperrors.ErrInvalidEntryType
	}

	entry, cycle, err := s.getOwnedEntry(userID, entryID)
	if err != nil {
		return nil, err
	}

	entry.Type = entryType
	entry.Category = category
	entry.Amount = amount
	if date != nil {
		entry.Date = *date
	}
	if source != "" {
		entry.Source = source
	}
	entry.Description = description

	if err := s.db.Save(entry).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.cycles.Recompute(cycle); err != nil {
		return nil, err
	}
	return entry, nil
}

// DeleteEntry removes an entry and recomputes its cycle.
func (s *ledgerService) DeleteEntry(userID, entryID uint) error {
	entry, cycle, err := s.getOwnedEntry(userID, entryID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(entry).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.cycles.Recompute(cycle)
}

// getOwnedEntry loads an entry and its cycle, verifying user ownership
// through the cycle's foreign key.
func (s *ledgerService) getOwnedEntry(userID, entryID uint) (*models.Transaction, *models.Cycle, error) {
	var entry models.Transaction
	if err := s.db.First(&entry, entryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrTransactionNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	cycle, err := s.cycles.GetCycleByID(userID, entry.CycleID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCycleNotFound) {
			// The cycle exists but belongs to another user.
			return nil, nil, apperrors.ErrTransactionNotFound
		}
		return nil, nil, err
	}
	return &entry, cycle, nil
}

func storableType(t models.TransactionType) bool {
	switch t {
	case models.TransactionTypeIncome, models.TransactionTypeExpense, models.TransactionTypeSalary:
		return true
	}
	return false
}
