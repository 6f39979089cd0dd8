package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "paisa/internal/errors"
	"paisa/internal/interpreter"
	"paisa/internal/models"
	"paisa/internal/money"
)

// fallbackResponse is returned when a message produced no response lines
// at all.
const fallbackResponse = "Done!"

// Processor is the action dispatch state machine. It takes the structured
// actions extracted by the interpreter, routes each one to the correct
// cycle, applies the matching mutator, and assembles the confirmation text.
type Processor struct {
	db        *gorm.DB
	cycles    CycleServicer
	envelopes EnvelopeServicer

	// overdraftSplit selects the deficit policy: when true an expense
	// exceeding the available balance is split into a partial entry plus a
	// funding-source prompt; when false the whole amount is recorded.
	overdraftSplit bool
}

// NewProcessor creates a new action processor.
func NewProcessor(db *gorm.DB, cycles CycleServicer, envelopes EnvelopeServicer, overdraftSplit bool) *Processor {
	return &Processor{db: db, cycles: cycles, envelopes: envelopes, overdraftSplit: overdraftSplit}
}

// Process applies an interpretation against the user's active cycle and
// returns the response text. Each action commits independently; a failure
// in a later action does not roll back earlier ones.
func (p *Processor) Process(result *interpreter.Result, active *models.Cycle) (string, error) {
	// A bare clarification request short-circuits everything.
	if result.ClarificationNeeded != "" {
		return result.ClarificationNeeded, nil
	}

	// A pure query with no actions and no insight goes to the query handler.
	if result.GeneralQuery != "" && len(result.Actions) == 0 && result.Insight == "" {
		return p.handleQuery(active)
	}

	var responses []string
	for _, action := range result.Actions {
		target := active
		if action.TargetCycleID != 0 && action.TargetCycleID != active.ID {
			historical, err := p.cycles.GetCycleByID(active.UserID, action.TargetCycleID)
			if err == nil {
				target = historical
			} else if !errors.Is(err, apperrors.ErrCycleNotFound) {
				return "", err
			}
			// An unknown cycle reference falls back to the active cycle.
		}

		if action.Confidence < 0.5 {
			responses = append(responses, "I need more clarification on: "+action.Intent)
			continue
		}

		var line string
		var err error
		switch action.Kind {
		case interpreter.KindSalary:
			line, err = p.handleSalary(action, target)
		case interpreter.KindExpense:
			line, err = p.handleExpense(action, target)
		case interpreter.KindIncome:
			line, err = p.handleIncome(action, target)
		case interpreter.KindAllocateBudget:
			line, err = p.handleAllocation(action, target)
		case interpreter.KindCorrection:
			line, err = p.handleCorrection(action, target)
		case interpreter.KindDelete:
			line, err = p.handleDelete(action, target)
		case interpreter.KindDeleteBudget:
			line, err = p.handleDeleteBudget(action, target)
		default:
			// Unrecognized kinds are dropped without a response line.
			// Documented behavior: the interpreter contract is open-ended
			// and the engine must not fail on kinds it does not know.
			continue
		}
		if err != nil {
			return "", err
		}
		if line != "" {
			responses = append(responses, line)
		}

		// Edits routed to a historical cycle get a full recompute so its
		// aggregates cannot drift from the incremental adjustments.
		if target.ID != active.ID {
			if err := p.cycles.Recompute(target); err != nil {
				return "", err
			}
		}
	}

	final := strings.Join(responses, "\n")
	if result.Insight != "" {
		if final != "" {
			final += "\n\n" + result.Insight
		} else {
			final = result.Insight
		}
	}
	if strings.TrimSpace(final) == "" {
		return fallbackResponse, nil
	}
	return strings.TrimSpace(final), nil
}

// handleSalary records a salary credit. Salary is additive: it never closes
// the cycle. Partial salaries are ordinary additional income.
func (p *Processor) handleSalary(action interpreter.Action, cycle *models.Cycle) (string, error) {
	if action.IsPartialSalary {
		return p.handleIncome(action, cycle)
	}

	now := time.Now()
	description := action.Intent
	if description == "" {
		description = "Salary credited"
	}
	entry := &models.Transaction{
		CycleID:     cycle.ID,
		Type:        models.TransactionTypeSalary,
		Category:    "salary",
		Amount:      action.Amount,
		Date:        actionDate(action),
		Source:      models.SourceMainBalance,
		Description: description,
		Confidence:  action.Confidence,
	}

	firstSalary := cycle.SalaryAmount == 0
	cycle.SalaryAmount += action.Amount
	cycle.OpeningBalance = cycle.CarryForward + cycle.SalaryAmount
	if cycle.SalaryCreditDate == nil {
		cycle.SalaryCreditDate = &now
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Save(cycle).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	if firstSalary {
		return fmt.Sprintf("Salary of %s recorded. New cycle started!", money.Format(action.Amount)), nil
	}
	balance, err := p.cycles.Balance(cycle)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Salary of %s recorded! Your running balance is now %s.",
		money.Format(action.Amount), money.Format(balance)), nil
}

// handleExpense records an expense, updates the matching envelope, and,
// when the overdraft-split policy is on, splits amounts that exceed the
// available balance into a partial entry plus a funding-source prompt.
func (p *Processor) handleExpense(action interpreter.Action, cycle *models.Cycle) (string, error) {
	if cycle.Status == models.CycleStatusCarryForwardPending {
		return "Please decide what to do with the remaining balance from the last cycle before adding new expenses (e.g. 'Carry forward').", nil
	}

	balance, err := p.cycles.Balance(cycle)
	if err != nil {
		return "", err
	}

	budgetMsg, err := p.chargeEnvelope(cycle.ID, action.Category, action.Amount)
	if err != nil {
		return "", err
	}

	if !p.overdraftSplit || action.Amount <= balance {
		entry := &models.Transaction{
			CycleID:     cycle.ID,
			Type:        models.TransactionTypeExpense,
			Category:    action.Category,
			Amount:      action.Amount,
			Date:        actionDate(action),
			Source:      models.SourceMainBalance,
			Description: action.Intent,
			Confidence:  action.Confidence,
		}
		cycle.TotalExpenses += action.Amount

		err := p.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(entry).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := tx.Save(cycle).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		})
		if err != nil {
			return "", err
		}

		newBalance, err := p.cycles.Balance(cycle)
		if err != nil {
			return "", err
		}
		category := action.Category
		if category == "" {
			category = "expense"
		}
		return fmt.Sprintf("Recorded %s for %s. Balance: %s.%s",
			money.Format(action.Amount), category, money.Format(newBalance), budgetMsg), nil
	}

	// Overdraft: consume what is left of the balance and ask where the
	// shortfall comes from before accepting it.
	missing := action.Amount - balance
	cycle.Status = models.CycleStatusDeficitPending

	err = p.db.Transaction(func(tx *gorm.DB) error {
		if balance > 0 {
			partial := &models.Transaction{
				CycleID:     cycle.ID,
				Type:        models.TransactionTypeExpense,
				Category:    action.Category,
				Amount:      balance,
				Date:        actionDate(action),
				Source:      models.SourceMainBalance,
				Description: action.Intent + " (partial main balance)",
				Confidence:  action.Confidence,
			}
			if err := tx.Create(partial).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			cycle.TotalExpenses += balance
		}
		if err := tx.Save(cycle).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Your balance is %s but this expense is %s. Where is the remaining %s coming from? (Credit card, Borrowed, Savings, etc.)%s",
		money.Format(balance), money.Format(action.Amount), money.Format(missing), budgetMsg), nil
}

// handleIncome records non-salary income.
func (p *Processor) handleIncome(action interpreter.Action, cycle *models.Cycle) (string, error) {
	entry := &models.Transaction{
		CycleID:     cycle.ID,
		Type:        models.TransactionTypeIncome,
		Category:    action.Category,
		Amount:      action.Amount,
		Date:        actionDate(action),
		Source:      models.SourceOtherIncome,
		Description: action.Intent,
		Confidence:  action.Confidence,
	}
	cycle.OtherIncome += action.Amount

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Save(cycle).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	balance, err := p.cycles.Balance(cycle)
	if err != nil {
		return "", err
	}
	source := action.Category
	if source == "" {
		source = "other"
	}
	return fmt.Sprintf("Added %s income from %s. Balance: %s.",
		money.Format(action.Amount), source, money.Format(balance)), nil
}

// handleAllocation tops up or creates a budget envelope.
func (p *Processor) handleAllocation(action interpreter.Action, cycle *models.Cycle) (string, error) {
	if strings.TrimSpace(action.Category) == "" {
		return "Please specify a category to allocate to (e.g. 'allocate 5000 to food').", nil
	}

	envelope, err := p.envelopes.Allocate(cycle.ID, action.Category, action.Amount)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Allocated %s to your '%s' envelope! (%s available to spend)",
		money.Format(action.Amount), action.Category, money.Format(envelope.Remaining())), nil
}

// handleCorrection replaces the amount of the most recent matching expense
// and adjusts the cycle totals and envelope by the signed difference.
func (p *Processor) handleCorrection(action interpreter.Action, cycle *models.Cycle) (string, error) {
	if strings.TrimSpace(action.Category) == "" {
		return "Please specify which expense category to correct.", nil
	}

	var latest models.Transaction
	err := p.db.Where("cycle_id = ? AND type = ? AND LOWER(category) = LOWER(?)",
		cycle.ID, models.TransactionTypeExpense, action.Category).
		Order("id DESC").
		First(&latest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Sprintf("Couldn't find a recent '%s' expense to correct.", action.Category), nil
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	oldAmount := latest.Amount
	difference := action.Amount - oldAmount

	latest.Amount = action.Amount
	latest.Description = fmt.Sprintf("%s (corrected from %s)", latest.Description, money.Format(oldAmount))
	cycle.TotalExpenses += difference

	budgetMsg := ""
	envelope, envErr := p.envelopes.FindByCategory(cycle.ID, action.Category)
	if envErr != nil && !errors.Is(envErr, apperrors.ErrEnvelopeNotFound) {
		return "", envErr
	}

	err = p.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&latest).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Save(cycle).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if envelope != nil {
			envelope.Spent += difference
			if err := tx.Save(envelope).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	if envelope != nil {
		remaining := envelope.Remaining()
		if remaining < 0 {
			remaining = 0
		}
		budgetMsg = fmt.Sprintf(" (Envelope updated: %s left)", money.Format(remaining))
	}

	balance, err := p.cycles.Balance(cycle)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Corrected '%s' from %s to %s. Balance: %s.%s",
		action.Category, money.Format(oldAmount), money.Format(action.Amount),
		money.Format(balance), budgetMsg), nil
}

// handleDelete removes the most recent entry matching the supplied category
// substring and/or exact amount, reversing its aggregate contributions.
func (p *Processor) handleDelete(action interpreter.Action, cycle *models.Cycle) (string, error) {
	query := p.db.Where("cycle_id = ?", cycle.ID)
	if action.Category != "" {
		query = query.Where("LOWER(category) LIKE LOWER(?)", "%"+action.Category+"%")
	}
	if action.Amount > 0 {
		query = query.Where("amount = ?", action.Amount)
	}

	var latest models.Transaction
	if err := query.Order("id DESC").First(&latest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "Could not find a matching transaction to delete.", nil
		}
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var envelope *models.Envelope
	switch latest.Type {
	case models.TransactionTypeExpense:
		cycle.TotalExpenses -= latest.Amount
		if latest.Category != "" {
			var envErr error
			envelope, envErr = p.envelopes.FindByCategory(cycle.ID, latest.Category)
			if envErr != nil && !errors.Is(envErr, apperrors.ErrEnvelopeNotFound) {
				return "", envErr
			}
		}
	case models.TransactionTypeIncome:
		cycle.OtherIncome -= latest.Amount
	}

	err := p.db.Transaction(func(tx *gorm.DB) error {
		if envelope != nil {
			envelope.Spent -= latest.Amount
			if err := tx.Save(envelope).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if err := tx.Save(cycle).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&latest).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	balance, err := p.cycles.Balance(cycle)
	if err != nil {
		return "", err
	}
	label := latest.Category
	if label == "" {
		label = strings.ToLower(string(latest.Type))
	}
	return fmt.Sprintf("Deleted '%s' (%s). Balance: %s.",
		label, money.Format(latest.Amount), money.Format(balance)), nil
}

// handleDeleteBudget removes a budget envelope by category.
func (p *Processor) handleDeleteBudget(action interpreter.Action, cycle *models.Cycle) (string, error) {
	if strings.TrimSpace(action.Category) == "" {
		return "Please specify which budget envelope to remove.", nil
	}

	envelope, err := p.envelopes.DeleteByCategory(cycle.ID, action.Category)
	if err != nil {
		if errors.Is(err, apperrors.ErrEnvelopeNotFound) {
			return fmt.Sprintf("No envelope found for '%s'.", action.Category), nil
		}
		return "", err
	}

	balance, err := p.cycles.Balance(cycle)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Removed '%s' envelope. Balance: %s.", envelope.Category, money.Format(balance)), nil
}

// handleQuery formats the financial breakdown: available balance, every
// envelope with something left in it, and the total money across both.
func (p *Processor) handleQuery(cycle *models.Cycle) (string, error) {
	balance, err := p.cycles.Balance(cycle)
	if err != nil {
		return "", err
	}
	envelopes, err := p.envelopes.ListByCycle(cycle.ID)
	if err != nil {
		return "", err
	}

	var envelopeLines strings.Builder
	unspentTotal := 0.0
	for _, envelope := range envelopes {
		remaining := envelope.Remaining()
		if remaining > 0 {
			envelopeLines.WriteString(fmt.Sprintf("\n- %s: %s", capitalize(envelope.Category), money.Format(remaining)))
			unspentTotal += remaining
		}
	}

	response := "Here is your financial breakdown:\n- **Available Balance**: " + money.Format(balance)
	if envelopeLines.Len() > 0 {
		response += "\n\n**Allocated Envelopes**:" + envelopeLines.String()
	}
	response += "\n\n**Total Money** (Available + Envelopes): " + money.Format(balance+unspentTotal)
	return response, nil
}

// chargeEnvelope adds amount to the matching envelope's spent total and
// returns the remaining/overage note for the response line. No-op when the
// category has no envelope.
func (p *Processor) chargeEnvelope(cycleID uint, category string, amount float64) (string, error) {
	if category == "" {
		return "", nil
	}
	envelope, err := p.envelopes.FindByCategory(cycleID, category)
	if err != nil {
		if errors.Is(err, apperrors.ErrEnvelopeNotFound) {
			return "", nil
		}
		return "", err
	}

	envelope.Spent += amount
	if err := p.db.Save(envelope).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	remaining := envelope.Remaining()
	if remaining < 0 {
		return fmt.Sprintf(" (Warning: you exceeded your %s budget by %s)", category, money.FormatAbs(remaining)), nil
	}
	return fmt.Sprintf(" (%s left in %s envelope)", money.Format(remaining), category), nil
}

// actionDate parses the interpreter's ISO date, falling back to processing
// time when the action carries none.
func actionDate(action interpreter.Action) time.Time {
	if action.Date == "" {
		return time.Now()
	}
	for _, layout := range []string{"2006-01-02T15:04:05", time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, action.Date); err == nil {
			return t
		}
	}
	return time.Now()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
