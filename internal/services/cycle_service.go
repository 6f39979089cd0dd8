package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "paisa/internal/errors"
	"paisa/internal/models"
	"paisa/internal/pagination"
)

// cycleService owns cycle lifecycle, aggregate recomputation and the
// balance calculator.
type cycleService struct {
	db *gorm.DB
}

// NewCycleService creates a new CycleServicer.
func NewCycleService(db *gorm.DB) CycleServicer {
	return &cycleService{db: db}
}

// GetActiveCycle returns the user's most recent non-CLOSED cycle. A fresh
// empty ACTIVE cycle is created on first contact. The lookup is always
// performed against the store, never cached, so concurrent requests cannot
// observe a stale singleton.
func (s *cycleService) GetActiveCycle(userID uint) (*models.Cycle, error) {
	var cycle models.Cycle
	err := s.db.Where("user_id = ? AND status <> ?", userID, models.CycleStatusClosed).
		Order("id DESC").
		First(&cycle).Error
	if err == nil {
		return &cycle, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	cycle = models.Cycle{UserID: userID, Status: models.CycleStatusActive, StartDate: time.Now()}
	if err := s.db.Create(&cycle).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &cycle, nil
}

// GetCycleByID returns a cycle by ID if it belongs to the user.
func (s *cycleService) GetCycleByID(userID, cycleID uint) (*models.Cycle, error) {
	var cycle models.Cycle
	if err := s.db.Where("id = ? AND user_id = ?", cycleID, userID).First(&cycle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCycleNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &cycle, nil
}

// GetCycleHistory returns the user's cycles, newest first.
func (s *cycleService) GetCycleHistory(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Cycle], error) {
	page.Defaults()

	base := s.db.Model(&models.Cycle{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var cycles []models.Cycle
	if err := base.Scopes(pagination.Paginate(page)).Order("id DESC").Find(&cycles).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(cycles, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// StartNewCycle is the explicit user-initiated roll: the open cycle is
// closed (only when it has salary recorded), and a new ACTIVE cycle opens
// with opening balance equal to the salary plus a synthetic SALARY entry.
func (s *cycleService) StartNewCycle(userID uint, salaryAmount float64) (*models.Cycle, error) {
	if salaryAmount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "salary amount cannot be negative")
	}

	var newCycle *models.Cycle
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var current models.Cycle
		err := tx.Where("user_id = ? AND status <> ?", userID, models.CycleStatusClosed).
			Order("id DESC").
			First(&current).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err == nil && current.SalaryAmount > 0 {
			now := time.Now()
			current.Status = models.CycleStatusClosed
			current.EndDate = &now
			if err := tx.Save(&current).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		now := time.Now()
		newCycle = &models.Cycle{
			UserID:           userID,
			StartDate:        now,
			SalaryAmount:     salaryAmount,
			SalaryCreditDate: &now,
			OpeningBalance:   salaryAmount,
			Status:           models.CycleStatusActive,
		}
		if err := tx.Create(newCycle).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		entry := &models.Transaction{
			CycleID:     newCycle.ID,
			Type:        models.TransactionTypeSalary,
			Category:    "salary",
			Amount:      salaryAmount,
			Date:        now,
			Source:      models.SourceMainBalance,
			Description: "Salary initial credit",
		}
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return newCycle, nil
}

// Recompute wipes and re-sums the cycle's aggregates from the ground-truth
// entry rows. Replay is pure summation, so entry order is irrelevant and
// running it twice yields identical state. The opening balance is derived
// as carry-forward plus the summed salary credits.
func (s *cycleService) Recompute(cycle *models.Cycle) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var envelopes []models.Envelope
		if err := tx.Where("cycle_id = ?", cycle.ID).Find(&envelopes).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var entries []models.Transaction
		if err := tx.Where("cycle_id = ?", cycle.ID).Find(&entries).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		cycle.TotalExpenses = 0
		cycle.OtherIncome = 0
		cycle.SalaryAmount = 0
		for i := range envelopes {
			envelopes[i].Spent = 0
		}

		for _, entry := range entries {
			switch entry.Type {
			case models.TransactionTypeExpense:
				cycle.TotalExpenses += entry.Amount
				if entry.Category != "" {
					for i := range envelopes {
						if strings.EqualFold(envelopes[i].Category, entry.Category) {
							envelopes[i].Spent += entry.Amount
							break
						}
					}
				}
			case models.TransactionTypeIncome:
				cycle.OtherIncome += entry.Amount
			case models.TransactionTypeSalary:
				cycle.SalaryAmount += entry.Amount
			}
		}
		cycle.OpeningBalance = cycle.CarryForward + cycle.SalaryAmount

		if err := tx.Save(cycle).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for i := range envelopes {
			if err := tx.Save(&envelopes[i]).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
}

// Balance computes the available balance under the locked-envelope model:
// unspent allocations are locked away and excluded from what the user can
// freely spend.
func (s *cycleService) Balance(cycle *models.Cycle) (float64, error) {
	var locked float64
	err := s.db.Model(&models.Envelope{}).
		Select("COALESCE(SUM(allocated - spent), 0)").
		Where("cycle_id = ? AND allocated > spent", cycle.ID).
		Scan(&locked).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return cycle.OpeningBalance + cycle.OtherIncome - cycle.TotalExpenses - locked, nil
}

// DashboardMetrics summarizes the active cycle: balance, totals, and a
// burn-rate estimate assuming a 30-day window from the salary credit.
func (s *cycleService) DashboardMetrics(userID uint) (*DashboardMetrics, error) {
	cycle, err := s.GetActiveCycle(userID)
	if err != nil {
		return nil, err
	}

	balance, err := s.Balance(cycle)
	if err != nil {
		return nil, err
	}

	totalIncome := cycle.SalaryAmount + cycle.OtherIncome
	remainingDays := 30
	dailyAverage := 0.0
	if cycle.SalaryCreditDate != nil {
		daysPassed := int(time.Since(*cycle.SalaryCreditDate).Hours() / 24)
		remainingDays = 30 - daysPassed
		if remainingDays < 0 {
			remainingDays = 0
		}
		if daysPassed < 1 {
			daysPassed = 1
		}
		dailyAverage = cycle.TotalExpenses / float64(daysPassed)
	}

	status := "STABLE"
	if remainingDays > 0 && dailyAverage > 0 {
		daysCovered := balance / dailyAverage
		switch {
		case daysCovered < float64(remainingDays)*0.5:
			status = "CRITICAL"
		case daysCovered < float64(remainingDays):
			status = "WARNING"
		}
	}

	return &DashboardMetrics{
		AvailableBalance: balance,
		TotalIncome:      totalIncome,
		TotalExpenses:    cycle.TotalExpenses,
		NetFlow:          totalIncome - cycle.TotalExpenses,
		RemainingDays:    remainingDays,
		DailyAverage:     dailyAverage,
		BurnRateStatus:   status,
	}, nil
}
