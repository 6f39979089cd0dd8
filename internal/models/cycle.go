package models

import "time"

// CycleStatus represents the lifecycle state of a salary cycle.
type CycleStatus string

const (
	CycleStatusActive              CycleStatus = "ACTIVE"
	CycleStatusDeficitPending      CycleStatus = "DEFICIT_PENDING_SOURCE"
	CycleStatusCarryForwardPending CycleStatus = "CARRY_FORWARD_DECISION_PENDING"
	CycleStatusClosed              CycleStatus = "CLOSED"
)

// Cycle represents one salary-to-salary accounting window for a user.
// At most one non-CLOSED cycle exists per user at a time.
//
// OpeningBalance is derived state: carry_forward + sum of SALARY entries.
// TotalExpenses and OtherIncome are running aggregates kept in sync
// incrementally by the action processor and rebuilt by Recompute.
type Cycle struct {
	Base
	UserID           uint        `gorm:"not null;index" json:"user_id"`
	StartDate        time.Time   `gorm:"autoCreateTime" json:"start_date"`
	EndDate          *time.Time  `json:"end_date,omitempty"`
	SalaryAmount     float64     `gorm:"default:0" json:"salary_amount"`
	SalaryCreditDate *time.Time  `json:"salary_credit_date,omitempty"`
	OpeningBalance   float64     `gorm:"default:0" json:"opening_balance"`
	CarryForward     float64     `gorm:"default:0" json:"carry_forward_amount"`
	TotalExpenses    float64     `gorm:"default:0" json:"total_expenses"`
	OtherIncome      float64     `gorm:"default:0" json:"total_income_other_than_salary"`
	SavingsBalance   float64     `gorm:"default:0" json:"savings_balance"`
	InvestmentFund   float64     `gorm:"default:0" json:"investment_balance"`
	CreditCardDue    float64     `gorm:"default:0" json:"credit_card_due"`
	BorrowedAmount   float64     `gorm:"default:0" json:"borrowed_amount"`
	Status           CycleStatus `gorm:"default:'ACTIVE'" json:"status"`

	Transactions []Transaction `gorm:"foreignKey:CycleID" json:"transactions,omitempty"`
	Envelopes    []Envelope    `gorm:"foreignKey:CycleID" json:"envelopes,omitempty"`
}
