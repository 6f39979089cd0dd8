package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"paisa/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCycle creates an empty ACTIVE cycle for the user.
func CreateTestCycle(t *testing.T, db *gorm.DB, userID uint) *models.Cycle {
	t.Helper()

	cycle := &models.Cycle{
		UserID:    userID,
		StartDate: time.Now(),
		Status:    models.CycleStatusActive,
	}
	if err := db.Create(cycle).Error; err != nil {
		t.Fatalf("failed to create test cycle: %v", err)
	}
	return cycle
}

// CreateTestCycleWithSalary creates an ACTIVE cycle pre-seeded with a salary
// credit: the aggregate fields plus the backing SALARY entry.
func CreateTestCycleWithSalary(t *testing.T, db *gorm.DB, userID uint, salary float64) *models.Cycle {
	t.Helper()

	now := time.Now()
	cycle := &models.Cycle{
		UserID:           userID,
		StartDate:        now,
		SalaryAmount:     salary,
		SalaryCreditDate: &now,
		OpeningBalance:   salary,
		Status:           models.CycleStatusActive,
	}
	if err := db.Create(cycle).Error; err != nil {
		t.Fatalf("failed to create test cycle: %v", err)
	}

	CreateTestEntry(t, db, cycle.ID, models.TransactionTypeSalary, "salary", salary)
	return cycle
}

// CreateTestEntry creates a ledger entry in the given cycle. It writes the
// raw row only; cycle aggregates are not touched.
func CreateTestEntry(t *testing.T, db *gorm.DB, cycleID uint, entryType models.TransactionType, category string, amount float64) *models.Transaction {
	t.Helper()

	entry := &models.Transaction{
		CycleID:  cycleID,
		Type:     entryType,
		Category: category,
		Amount:   amount,
		Date:     time.Now(),
		Source:   models.SourceMainBalance,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test entry: %v", err)
	}
	return entry
}

// CreateTestEnvelope creates a budget envelope in the given cycle.
func CreateTestEnvelope(t *testing.T, db *gorm.DB, cycleID uint, category string, allocated float64) *models.Envelope {
	t.Helper()

	envelope := &models.Envelope{
		CycleID:   cycleID,
		Category:  category,
		Allocated: allocated,
	}
	if err := db.Create(envelope).Error; err != nil {
		t.Fatalf("failed to create test envelope: %v", err)
	}
	return envelope
}

// CreateTestReminder creates an unpaid reminder for the user.
func CreateTestReminder(t *testing.T, db *gorm.DB, userID uint) *models.Reminder {
	t.Helper()

	due := time.Now().Add(72 * time.Hour)
	reminder := &models.Reminder{
		UserID:  userID,
		Title:   fmt.Sprintf("Test Reminder %d", nextID()),
		Amount:  1500,
		DueDate: &due,
		Type:    models.ReminderTypeBill,
	}
	if err := db.Create(reminder).Error; err != nil {
		t.Fatalf("failed to create test reminder: %v", err)
	}
	return reminder
}
