package models

import "time"

// TransactionType represents the kind of a stored ledger entry. Only INCOME,
// EXPENSE and SALARY are ever persisted; the other action kinds the
// interpreter can emit (corrections, deletions, allocations) are commands,
// not entries.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
	TransactionTypeSalary  TransactionType = "SALARY"
)

// TransactionSource identifies which pool of money funded an entry.
type TransactionSource string

const (
	SourceMainBalance   TransactionSource = "MAIN_BALANCE"
	SourceCreditCard    TransactionSource = "CREDIT_CARD"
	SourceBorrowed      TransactionSource = "BORROWED"
	SourceSavings       TransactionSource = "SAVINGS"
	SourceFamilySupport TransactionSource = "FAMILY_SUPPORT"
	SourceLoan          TransactionSource = "LOAN"
	SourceOtherIncome   TransactionSource = "OTHER_INCOME"
)

// Transaction represents one atomic financial event within a cycle.
// Amount is a non-negative magnitude; the type carries the sign.
type Transaction struct {
	Base
	CycleID     uint              `gorm:"not null;index" json:"cycle_id"`
	Type        TransactionType   `gorm:"not null" json:"type"`
	Category    string            `json:"category"`
	Amount      float64           `gorm:"not null" json:"amount"`
	Date        time.Time         `gorm:"not null" json:"date"`
	Source      TransactionSource `gorm:"default:'MAIN_BALANCE'" json:"source"`
	Description string            `json:"description"`
	Confidence  float64           `json:"confidence_score"`
}
