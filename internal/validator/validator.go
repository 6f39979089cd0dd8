// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("entry_type", validateEntryType)
		_ = v.RegisterValidation("funding_source", validateFundingSource)
		_ = v.RegisterValidation("reminder_type", validateReminderType)
	}
}

// validateEntryType accepts only the stored ledger entry kinds. Action kinds
// like CORRECTION or ALLOCATE_BUDGET are commands and never valid here.
func validateEntryType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "INCOME", "EXPENSE", "SALARY":
		return true
	}
	return false
}

func validateFundingSource(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "MAIN_BALANCE", "CREDIT_CARD", "BORROWED", "SAVINGS", "FAMILY_SUPPORT", "LOAN", "OTHER_INCOME":
		return true
	}
	return false
}

func validateReminderType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "LOAN", "BILL", "SUBSCRIPTION", "CUSTOM":
		return true
	}
	return false
}
