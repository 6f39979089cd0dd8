package models

import "time"

// ReminderType classifies a payment reminder.
type ReminderType string

const (
	ReminderTypeLoan         ReminderType = "LOAN"
	ReminderTypeBill         ReminderType = "BILL"
	ReminderTypeSubscription ReminderType = "SUBSCRIPTION"
	ReminderTypeCustom       ReminderType = "CUSTOM"
)

// Reminder is a user-owned payment reminder. Peripheral to the ledger engine.
type Reminder struct {
	Base
	UserID  uint         `gorm:"not null;index" json:"user_id"`
	Title   string       `gorm:"not null" json:"title"`
	Amount  float64      `gorm:"default:0" json:"amount"`
	DueDate *time.Time   `json:"due_date,omitempty"`
	Type    ReminderType `gorm:"default:'CUSTOM'" json:"type"`
	IsPaid  bool         `gorm:"default:false" json:"is_paid"`
	Notes   string       `json:"notes,omitempty"`
}
