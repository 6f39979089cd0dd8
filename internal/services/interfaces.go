package services

import (
	"context"
	"time"

	"paisa/internal/interpreter"
	"paisa/internal/models"
	"paisa/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	AttemptLogin(email, password string) (*models.User, error)
}

// CycleServicer owns the salary-cycle lifecycle, the aggregation engine and
// the balance calculator.
type CycleServicer interface {
	// GetActiveCycle returns the user's most recent non-CLOSED cycle,
	// creating an empty ACTIVE one on first contact.
	GetActiveCycle(userID uint) (*models.Cycle, error)
	GetCycleByID(userID, cycleID uint) (*models.Cycle, error)
	GetCycleHistory(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Cycle], error)
	// StartNewCycle closes the currently open cycle (only if it has salary
	// recorded) and opens a fresh ACTIVE cycle seeded with a synthetic
	// SALARY entry equal to salaryAmount.
	StartNewCycle(userID uint, salaryAmount float64) (*models.Cycle, error)
	// Recompute rebuilds every derived aggregate of the cycle from its raw
	// ledger entries. Idempotent and order-independent.
	Recompute(cycle *models.Cycle) error
	// Balance computes the available balance under the locked-envelope
	// model: opening + other income - expenses - unspent allocations.
	Balance(cycle *models.Cycle) (float64, error)
	DashboardMetrics(userID uint) (*DashboardMetrics, error)
}

// EnvelopeServicer manages per-category budget envelopes within a cycle.
type EnvelopeServicer interface {
	// Allocate adds amount to the envelope for (cycle, category), creating
	// it when absent. Allocations are cumulative, never overwrites.
	Allocate(cycleID uint, category string, amount float64) (*models.Envelope, error)
	FindByCategory(cycleID uint, category string) (*models.Envelope, error)
	ListByCycle(cycleID uint) ([]models.Envelope, error)
	// SetAllocation overwrites the allocated amount (the explicit
	// update-style edit, as opposed to cumulative Allocate).
	SetAllocation(envelopeID uint, allocated float64) (*models.Envelope, error)
	DeleteByCategory(cycleID uint, category string) (*models.Envelope, error)
	DeleteByID(envelopeID uint) error
	GetByID(envelopeID uint) (*models.Envelope, error)
}

// LedgerFilter holds optional filter parameters for listing ledger entries.
type LedgerFilter struct {
	CycleID  *uint
	Type     *models.TransactionType
	Category string
	FromDate *time.Time
	ToDate   *time.Time
}

// LedgerServicer is the programmatic editing surface over raw entries,
// consumed by dashboards and editable tables. Every mutation is followed by
// a full recompute of the owning cycle to guard against aggregate drift.
type LedgerServicer interface {
	ListEntries(userID uint, page pagination.PageRequest, filter LedgerFilter) (*pagination.PageResponse[models.Transaction], error)
	CreateEntry(userID uint, cycleID *uint, entryType models.TransactionType, category string, amount float64, date *time.Time, source models.TransactionSource, description string) (*models.Transaction, error)
	UpdateEntry(userID, entryID uint, entryType models.TransactionType, category string, amount float64, date *time.Time, source models.TransactionSource, description string) (*models.Transaction, error)
	DeleteEntry(userID, entryID uint) error
}

// Interpreter is the external text-interpretation collaborator.
type Interpreter interface {
	Interpret(ctx context.Context, message, dataContext, chatHistory string) (*interpreter.Result, error)
}

// ChatServicer runs one conversational round-trip: context assembly,
// interpretation, action processing.
type ChatServicer interface {
	ProcessMessage(ctx context.Context, userID uint, message, chatHistory string) (string, error)
}

// ReminderServicer defines the contract for payment reminders.
type ReminderServicer interface {
	ListReminders(userID uint) ([]models.Reminder, error)
	CreateReminder(userID uint, title string, amount float64, dueDate *time.Time, reminderType models.ReminderType, notes string) (*models.Reminder, error)
	UpdateReminder(userID, reminderID uint, update ReminderUpdate) (*models.Reminder, error)
	DeleteReminder(userID, reminderID uint) error
}

// ReminderUpdate holds optional fields for a partial reminder update.
type ReminderUpdate struct {
	Title   *string
	Amount  *float64
	DueDate *time.Time
	Type    *models.ReminderType
	IsPaid  *bool
	Notes   *string
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]any)
}

// DashboardMetrics aggregates the active cycle for the dashboard view.
type DashboardMetrics struct {
	AvailableBalance float64 `json:"available_balance"`
	TotalIncome      float64 `json:"total_income"`
	TotalExpenses    float64 `json:"total_expenses"`
	NetFlow          float64 `json:"net_flow"`
	RemainingDays    int     `json:"remaining_days"`
	DailyAverage     float64 `json:"daily_average_spending"`
	BurnRateStatus   string  `json:"burn_rate_status"`
}
