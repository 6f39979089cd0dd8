package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	apperrors "paisa/internal/errors"
	"paisa/internal/interpreter"
	"paisa/internal/logger"
	"paisa/internal/models"
)

// historyCycleLimit caps how many past cycles are summarized into the
// interpreter context.
const historyCycleLimit = 6

// chatService runs one conversational round-trip: assemble the user's
// financial context, interpret the message, apply the resulting actions.
type chatService struct {
	db          *gorm.DB
	cycles      CycleServicer
	envelopes   EnvelopeServicer
	interpreter Interpreter
	processor   *Processor
}

// NewChatService creates a new ChatServicer.
func NewChatService(db *gorm.DB, cycles CycleServicer, envelopes EnvelopeServicer, interp Interpreter, processor *Processor) ChatServicer {
	return &chatService{db: db, cycles: cycles, envelopes: envelopes, interpreter: interp, processor: processor}
}

// ProcessMessage handles one chat message end to end. Interpreter failures
// never surface to the user: they degrade to the fixed fallback result.
func (s *chatService) ProcessMessage(ctx context.Context, userID uint, message, chatHistory string) (string, error) {
	active, err := s.cycles.GetActiveCycle(userID)
	if err != nil {
		return "", err
	}

	dataContext, err := s.buildDataContext(userID, active)
	if err != nil {
		return "", err
	}

	result, err := s.interpreter.Interpret(ctx, message, dataContext, chatHistory)
	if err != nil {
		logger.Get().Warnw("interpreter call failed, using fallback", "user_id", userID, "error", err)
		result = interpreter.Fallback()
	}

	return s.processor.Process(result, active)
}

// buildDataContext renders the user's financial state as the text block the
// interpreter reasons over: past cycle summaries, then the active cycle's
// entries and envelopes.
func (s *chatService) buildDataContext(userID uint, active *models.Cycle) (string, error) {
	var b strings.Builder

	var past []models.Cycle
	err := s.db.Where("user_id = ? AND id <> ?", userID, active.ID).
		Order("id DESC").
		Limit(historyCycleLimit).
		Find(&past).Error
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(past) > 0 {
		b.WriteString("PAST CYCLES:\n")
		for _, cycle := range past {
			fmt.Fprintf(&b, "- cycle_id=%d started %s salary=%.2f expenses=%.2f status=%s\n",
				cycle.ID, cycle.StartDate.Format("2006-01-02"),
				cycle.SalaryAmount, cycle.TotalExpenses, cycle.Status)
		}
		b.WriteString("\n")
	}

	balance, err := s.cycles.Balance(active)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "CURRENT CYCLE (cycle_id=%d, status=%s):\n", active.ID, active.Status)
	fmt.Fprintf(&b, "salary=%.2f other_income=%.2f expenses=%.2f available_balance=%.2f\n\n",
		active.SalaryAmount, active.OtherIncome, active.TotalExpenses, balance)

	var entries []models.Transaction
	err = s.db.Where("cycle_id = ?", active.ID).Order("id DESC").Limit(50).Find(&entries).Error
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(entries) > 0 {
		b.WriteString("TRANSACTIONS (newest first):\n")
		for _, entry := range entries {
			fmt.Fprintf(&b, "- %s %s %.2f category=%s date=%s desc=%s\n",
				entry.Type, entry.Source, entry.Amount, entry.Category,
				entry.Date.Format("2006-01-02"), entry.Description)
		}
		b.WriteString("\n")
	} else {
		b.WriteString("TRANSACTIONS: none yet\n\n")
	}

	envelopes, err := s.envelopes.ListByCycle(active.ID)
	if err != nil {
		return "", err
	}
	if len(envelopes) > 0 {
		b.WriteString("BUDGET ENVELOPES:\n")
		for _, envelope := range envelopes {
			fmt.Fprintf(&b, "- %s allocated=%.2f spent=%.2f remaining=%.2f\n",
				envelope.Category, envelope.Allocated, envelope.Spent, envelope.Remaining())
		}
	} else {
		b.WriteString("BUDGET ENVELOPES: none\n")
	}

	return b.String(), nil
}
