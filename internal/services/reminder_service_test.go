package services

import (
	"testing"
	"time"

	"paisa/internal/models"
	"paisa/internal/testutil"
)

func TestCreateReminder(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReminderService(db)
		user := testutil.CreateTestUser(t, db)

		due := time.Now().Add(48 * time.Hour)
		reminder, err := svc.CreateReminder(user.ID, "EMI", 12000, &due, models.ReminderTypeLoan, "")
		testutil.AssertNoError(t, err)

		if reminder.ID == 0 || reminder.Type != models.ReminderTypeLoan {
			t.Errorf("unexpected reminder: %+v", reminder)
		}
	})

	t.Run("defaults_to_custom_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReminderService(db)
		user := testutil.CreateTestUser(t, db)

		reminder, err := svc.CreateReminder(user.ID, "Call landlord", 0, nil, "", "")
		testutil.AssertNoError(t, err)

		if reminder.Type != models.ReminderTypeCustom {
			t.Errorf("expected CUSTOM type, got %s", reminder.Type)
		}
	})

	t.Run("missing_title", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReminderService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateReminder(user.ID, "  ", 100, nil, "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestUpdateReminder(t *testing.T) {
	t.Run("partial_update", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReminderService(db)
		user := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestReminder(t, db, user.ID)

		paid := true
		updated, err := svc.UpdateReminder(user.ID, created.ID, ReminderUpdate{IsPaid: &paid})
		testutil.AssertNoError(t, err)

		if !updated.IsPaid {
			t.Error("expected reminder marked paid")
		}
		if updated.Title != created.Title {
			t.Error("unspecified fields must be untouched")
		}
	})

	t.Run("foreign_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewReminderService(db)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestReminder(t, db, user2.ID)

		paid := true
		_, err := svc.UpdateReminder(user1.ID, created.ID, ReminderUpdate{IsPaid: &paid})
		testutil.AssertAppError(t, err, "REMINDER_NOT_FOUND")
	})
}

func TestDeleteReminder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewReminderService(db)
	user := testutil.CreateTestUser(t, db)
	created := testutil.CreateTestReminder(t, db, user.ID)

	testutil.AssertNoError(t, svc.DeleteReminder(user.ID, created.ID))
	testutil.AssertAppError(t, svc.DeleteReminder(user.ID, created.ID), "REMINDER_NOT_FOUND")
}

func TestListReminders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewReminderService(db)
	user := testutil.CreateTestUser(t, db)

	paid := testutil.CreateTestReminder(t, db, user.ID)
	paid.IsPaid = true
	testutil.AssertNoError(t, db.Save(paid).Error)
	unpaid := testutil.CreateTestReminder(t, db, user.ID)

	reminders, err := svc.ListReminders(user.ID)
	testutil.AssertNoError(t, err)

	if len(reminders) != 2 {
		t.Fatalf("expected 2 reminders, got %d", len(reminders))
	}
	if reminders[0].ID != unpaid.ID {
		t.Error("expected unpaid reminders first")
	}
}
