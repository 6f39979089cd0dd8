package services

import (
	"strings"
	"testing"

	"gorm.io/gorm"

	"paisa/internal/interpreter"
	"paisa/internal/models"
	"paisa/internal/testutil"
)

func newTestProcessor(db *gorm.DB, overdraftSplit bool) *Processor {
	return NewProcessor(db, NewCycleService(db), NewEnvelopeService(db), overdraftSplit)
}

func TestProcessSalary(t *testing.T) {
	t.Run("first_salary_starts_cycle", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycle(t, db, user.ID)

		result := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindSalary, Amount: 50000, Intent: "log salary", Confidence: 0.95},
		}}
		response, err := proc.Process(result, cycle)
		testutil.AssertNoError(t, err)

		if !strings.Contains(response, "New cycle started") {
			t.Errorf("expected new-cycle response, got %q", response)
		}
		if cycle.SalaryAmount != 50000 {
			t.Errorf("expected salary 50000, got %f", cycle.SalaryAmount)
		}
		if cycle.OpeningBalance != 50000 {
			t.Errorf("expected opening balance 50000, got %f", cycle.OpeningBalance)
		}

		var entries []models.Transaction
		testutil.AssertNoError(t, db.Where("cycle_id = ? AND type = ?", cycle.ID, models.TransactionTypeSalary).Find(&entries).Error)
		if len(entries) != 1 || entries[0].Amount != 50000 {
			t.Errorf("expected one SALARY entry of 50000, got %v", entries)
		}
	})

	t.Run("additional_salary_is_additive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

		result := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindSalary, Amount: 10000, Intent: "bonus salary", Confidence: 0.9},
		}}
		response, err := proc.Process(result, cycle)
		testutil.AssertNoError(t, err)

		if strings.Contains(response, "New cycle started") {
			t.Error("additional salary must not announce a new cycle")
		}
		if cycle.SalaryAmount != 60000 {
			t.Errorf("expected salary 60000, got %f", cycle.SalaryAmount)
		}
		if cycle.Status != models.CycleStatusActive {
			t.Errorf("salary must never close the cycle, got %s", cycle.Status)
		}
	})

	t.Run("partial_salary_is_income", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

		result := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindSalary, Amount: 5000, Intent: "advance", Confidence: 0.9, IsPartialSalary: true},
		}}
		_, err := proc.Process(result, cycle)
		testutil.AssertNoError(t, err)

		if cycle.SalaryAmount != 50000 {
			t.Errorf("partial salary must not touch salary amount, got %f", cycle.SalaryAmount)
		}
		if cycle.OtherIncome != 5000 {
			t.Errorf("expected partial salary booked as income, got %f", cycle.OtherIncome)
		}
	})
}

func TestProcessExpense(t *testing.T) {
	t.Run("records_and_reports_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

		result := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindExpense, Amount: 1200, Category: "food", Intent: "lunch", Confidence: 0.95},
		}}
		response, err := proc.Process(result, cycle)
		testutil.AssertNoError(t, err)

		if cycle.TotalExpenses != 1200 {
			t.Errorf("expected expenses 1200, got %f", cycle.TotalExpenses)
		}
		if !strings.Contains(response, "48,800") {
			t.Errorf("expected balance 48,800 in response, got %q", response)
		}
	})

	t.Run("charges_matching_envelope", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)
		envelope := testutil.CreateTestEnvelope(t, db, cycle.ID, "food", 5000)

		result := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindExpense, Amount: 1500, Category: "Food", Intent: "groceries", Confidence: 0.9},
		}}
		response, err := proc.Process(result, cycle)
		testutil.AssertNoError(t, err)

		var env models.Envelope
		testutil.AssertNoError(t, db.First(&env, envelope.ID).Error)
		if env.Spent != 1500 {
			t.Errorf("expected envelope spent 1500, got %f", env.Spent)
		}
		if !strings.Contains(response, "left in Food envelope") {
			t.Errorf("expected envelope note in response, got %q", response)
		}
	})

	t.Run("overspend_warning", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)
		testutil.CreateTestEnvelope(t, db, cycle.ID, "food", 1000)

		result := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindExpense, Amount: 1800, Category: "food", Intent: "dinner", Confidence: 0.9},
		}}
		response, err := proc.Process(result, cycle)
		testutil.AssertNoError(t, err)

		if !strings.Contains(response, "exceeded your food budget") {
			t.Errorf("expected overspend warning, got %q", response)
		}
	})

	t.Run("overdraft_split_policy", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, true)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 1000)

		result := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindExpense, Amount: 3000, Category: "rent", Intent: "rent", Confidence: 0.95},
		}}
		response, err := proc.Process(result, cycle)
		testutil.AssertNoError(t, err)

		if cycle.Status != models.CycleStatusDeficitPending {
			t.Errorf("expected DEFICIT_PENDING_SOURCE, got %s", cycle.Status)
		}
		if cycle.TotalExpenses != 1000 {
			t.Errorf("expected only the covered part recorded, got %f", cycle.TotalExpenses)
		}
		if !strings.Contains(response, "Where is the remaining") {
			t.Errorf("expected funding-source prompt, got %q", response)
		}

		var entries []models.Transaction
		testutil.AssertNoError(t, db.Where("cycle_id = ? AND type = ?", cycle.ID, models.TransactionTypeExpense).Find(&entries).Error)
		if len(entries) != 1 || entries[0].Amount != 1000 {
			t.Errorf("expected one partial entry of 1000, got %v", entries)
		}
	})

	t.Run("whole_amount_recorded_when_split_off", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 1000)

		result := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindExpense, Amount: 3000, Category: "rent", Intent: "rent", Confidence: 0.95},
		}}
		_, err := proc.Process(result, cycle)
		testutil.AssertNoError(t, err)

		if cycle.Status != models.CycleStatusActive {
			t.Errorf("expected cycle to stay ACTIVE, got %s", cycle.Status)
		}
		if cycle.TotalExpenses != 3000 {
			t.Errorf("expected whole amount recorded, got %f", cycle.TotalExpenses)
		}
	})

	t.Run("blocked_during_carry_forward_decision", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)
		cycle.Status = models.CycleStatusCarryForwardPending
		testutil.AssertNoError(t, db.Save(cycle).Error)

		result := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindExpense, Amount: 500, Category: "food", Intent: "snack", Confidence: 0.9},
		}}
		response, err := proc.Process(result, cycle)
		testutil.AssertNoError(t, err)

		if cycle.TotalExpenses != 0 {
			t.Errorf("expected no expense recorded, got %f", cycle.TotalExpenses)
		}
		if !strings.Contains(response, "remaining balance from the last cycle") {
			t.Errorf("expected carry-forward guidance, got %q", response)
		}
	})
}

func TestProcessCorrection(t *testing.T) {
	t.Run("adjusts_by_signed_difference", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)
		envelope := testutil.CreateTestEnvelope(t, db, cycle.ID, "food", 5000)

		spend := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindExpense, Amount: 1000, Category: "food", Intent: "dinner", Confidence: 0.95},
		}}
		_, err := proc.Process(spend, cycle)
		testutil.AssertNoError(t, err)

		correct := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindCorrection, Amount: 1400, Category: "food", Intent: "fix dinner amount", Confidence: 0.95},
		}}
		response, err := proc.Process(correct, cycle)
		testutil.AssertNoError(t, err)

		if cycle.TotalExpenses != 1400 {
			t.Errorf("expected expenses 1400 after upward correction, got %f", cycle.TotalExpenses)
		}
		var env models.Envelope
		testutil.AssertNoError(t, db.First(&env, envelope.ID).Error)
		if env.Spent != 1400 {
			t.Errorf("expected envelope spent 1400, got %f", env.Spent)
		}
		if !strings.Contains(response, "corrected") {
			t.Errorf("expected correction confirmation, got %q", response)
		}

		var entry models.Transaction
		testutil.AssertNoError(t, db.Where("cycle_id = ? AND type = ?", cycle.ID, models.TransactionTypeExpense).First(&entry).Error)
		if entry.Amount != 1400 {
			t.Errorf("expected entry amount rewritten to 1400, got %f", entry.Amount)
		}
		if !strings.Contains(entry.Description, "corrected from") {
			t.Errorf("expected provenance note on entry, got %q", entry.Description)
		}
	})

	t.Run("downward_correction_is_symmetric", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

		spend := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindExpense, Amount: 1000, Category: "travel", Intent: "cab", Confidence: 0.95},
		}}
		_, err := proc.Process(spend, cycle)
		testutil.AssertNoError(t, err)

		correct := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindCorrection, Amount: 600, Category: "travel", Intent: "cab was cheaper", Confidence: 0.95},
		}}
		_, err = proc.Process(correct, cycle)
		testutil.AssertNoError(t, err)

		if cycle.TotalExpenses != 600 {
			t.Errorf("expected expenses 600 after downward correction, got %f", cycle.TotalExpenses)
		}
	})

	t.Run("targets_most_recent_matching_expense", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

		older := testutil.CreateTestEntry(t, db, cycle.ID, models.TransactionTypeExpense, "food", 300)
		newer := testutil.CreateTestEntry(t, db, cycle.ID, models.TransactionTypeExpense, "food", 500)
		cycle.TotalExpenses = 800
		testutil.AssertNoError(t, db.Save(cycle).Error)

		correct := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindCorrection, Amount: 700, Category: "food", Intent: "fix", Confidence: 0.95},
		}}
		_, err := proc.Process(correct, cycle)
		testutil.AssertNoError(t, err)

		var unchanged, corrected models.Transaction
		testutil.AssertNoError(t, db.First(&unchanged, older.ID).Error)
		testutil.AssertNoError(t, db.First(&corrected, newer.ID).Error)
		if unchanged.Amount != 300 {
			t.Errorf("older entry must be untouched, got %f", unchanged.Amount)
		}
		if corrected.Amount != 700 {
			t.Errorf("most recent entry should be corrected, got %f", corrected.Amount)
		}
	})

	t.Run("no_matching_expense", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

		correct := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindCorrection, Amount: 700, Category: "food", Intent: "fix", Confidence: 0.95},
		}}
		response, err := proc.Process(correct, cycle)
		testutil.AssertNoError(t, err)

		if !strings.Contains(response, "Couldn't find") {
			t.Errorf("expected not-found guidance, got %q", response)
		}
	})
}

func TestProcessDelete(t *testing.T) {
	t.Run("reverses_expense_and_envelope", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)
		envelope := testutil.CreateTestEnvelope(t, db, cycle.ID, "food", 5000)

		spend := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindExpense, Amount: 800, Category: "food", Intent: "dinner", Confidence: 0.95},
		}}
		_, err := proc.Process(spend, cycle)
		testutil.AssertNoError(t, err)

		del := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindDelete, Category: "food", Intent: "remove dinner", Confidence: 0.95},
		}}
		_, err = proc.Process(del, cycle)
		testutil.AssertNoError(t, err)

		if cycle.TotalExpenses != 0 {
			t.Errorf("expected expenses back to 0, got %f", cycle.TotalExpenses)
		}
		var env models.Envelope
		testutil.AssertNoError(t, db.First(&env, envelope.ID).Error)
		if env.Spent != 0 {
			t.Errorf("expected envelope spent back to 0, got %f", env.Spent)
		}
		var count int64
		testutil.AssertNoError(t, db.Model(&models.Transaction{}).
			Where("cycle_id = ? AND type = ?", cycle.ID, models.TransactionTypeExpense).Count(&count).Error)
		if count != 0 {
			t.Errorf("expected entry deleted, %d remain", count)
		}
	})

	t.Run("matches_by_substring_and_amount", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

		keep := testutil.CreateTestEntry(t, db, cycle.ID, models.TransactionTypeExpense, "street food", 200)
		testutil.CreateTestEntry(t, db, cycle.ID, models.TransactionTypeExpense, "street food", 450)
		cycle.TotalExpenses = 650
		testutil.AssertNoError(t, db.Save(cycle).Error)

		del := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindDelete, Amount: 450, Category: "food", Intent: "remove", Confidence: 0.95},
		}}
		_, err := proc.Process(del, cycle)
		testutil.AssertNoError(t, err)

		var remaining []models.Transaction
		testutil.AssertNoError(t, db.Where("cycle_id = ? AND type = ?", cycle.ID, models.TransactionTypeExpense).Find(&remaining).Error)
		if len(remaining) != 1 || remaining[0].ID != keep.ID {
			t.Errorf("expected only the 200 entry to remain, got %v", remaining)
		}
		if cycle.TotalExpenses != 200 {
			t.Errorf("expected expenses 200, got %f", cycle.TotalExpenses)
		}
	})

	t.Run("nothing_matches", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

		del := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindDelete, Category: "unicorn", Intent: "remove", Confidence: 0.95},
		}}
		response, err := proc.Process(del, cycle)
		testutil.AssertNoError(t, err)

		if !strings.Contains(response, "Could not find") {
			t.Errorf("expected not-found guidance, got %q", response)
		}
	})
}

func TestProcessBudgetLifecycle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	proc := newTestProcessor(db, false)
	user := testutil.CreateTestUser(t, db)
	cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

	allocate := &interpreter.Result{Actions: []interpreter.Action{
		{Kind: interpreter.KindAllocateBudget, Amount: 5000, Category: "food", Intent: "budget food", Confidence: 0.95},
	}}
	response, err := proc.Process(allocate, cycle)
	testutil.AssertNoError(t, err)
	if !strings.Contains(response, "Allocated") {
		t.Errorf("expected allocation confirmation, got %q", response)
	}

	spend := &interpreter.Result{Actions: []interpreter.Action{
		{Kind: interpreter.KindExpense, Amount: 1500, Category: "food", Intent: "groceries", Confidence: 0.95},
	}}
	_, err = proc.Process(spend, cycle)
	testutil.AssertNoError(t, err)

	remove := &interpreter.Result{Actions: []interpreter.Action{
		{Kind: interpreter.KindDeleteBudget, Category: "food", Intent: "remove budget", Confidence: 0.95},
	}}
	response, err = proc.Process(remove, cycle)
	testutil.AssertNoError(t, err)
	if !strings.Contains(response, "Removed 'food' envelope") {
		t.Errorf("expected removal confirmation, got %q", response)
	}

	// Deleting the envelope releases its lock: balance is back to
	// opening minus expenses with no locked allocations.
	svc := NewCycleService(db)
	balance, err := svc.Balance(cycle)
	testutil.AssertNoError(t, err)
	if balance != 48500 {
		t.Errorf("expected balance 48500 after envelope removal, got %f", balance)
	}

	// The expense entry itself is untouched.
	if cycle.TotalExpenses != 1500 {
		t.Errorf("expected expenses 1500, got %f", cycle.TotalExpenses)
	}
}

func TestProcessRouting(t *testing.T) {
	t.Run("routes_to_target_cycle_and_recomputes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		past := testutil.CreateTestCycleWithSalary(t, db, user.ID, 40000)
		past.Status = models.CycleStatusClosed
		testutil.AssertNoError(t, db.Save(past).Error)
		active := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

		result := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindExpense, Amount: 900, Category: "food", Intent: "forgot last month", Confidence: 0.95, TargetCycleID: past.ID},
		}}
		_, err := proc.Process(result, active)
		testutil.AssertNoError(t, err)

		var updated models.Cycle
		testutil.AssertNoError(t, db.First(&updated, past.ID).Error)
		if updated.TotalExpenses != 900 {
			t.Errorf("expected 900 in past cycle, got %f", updated.TotalExpenses)
		}
		if active.TotalExpenses != 0 {
			t.Errorf("active cycle must be untouched, got %f", active.TotalExpenses)
		}
	})

	t.Run("unknown_target_falls_back_to_active", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		active := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

		result := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindExpense, Amount: 500, Category: "food", Intent: "spend", Confidence: 0.95, TargetCycleID: 99999},
		}}
		_, err := proc.Process(result, active)
		testutil.AssertNoError(t, err)

		if active.TotalExpenses != 500 {
			t.Errorf("expected fallback to active cycle, got %f", active.TotalExpenses)
		}
	})

	t.Run("foreign_user_cycle_is_invisible", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user1 := testutil.CreateTestUser(t, db)
		user2 := testutil.CreateTestUser(t, db)
		foreign := testutil.CreateTestCycleWithSalary(t, db, user2.ID, 40000)
		active := testutil.CreateTestCycleWithSalary(t, db, user1.ID, 50000)

		result := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindExpense, Amount: 500, Category: "food", Intent: "spend", Confidence: 0.95, TargetCycleID: foreign.ID},
		}}
		_, err := proc.Process(result, active)
		testutil.AssertNoError(t, err)

		var untouched models.Cycle
		testutil.AssertNoError(t, db.First(&untouched, foreign.ID).Error)
		if untouched.TotalExpenses != 0 {
			t.Errorf("foreign cycle must be untouched, got %f", untouched.TotalExpenses)
		}
		if active.TotalExpenses != 500 {
			t.Errorf("expected fallback to own active cycle, got %f", active.TotalExpenses)
		}
	})
}

func TestProcessControlFlow(t *testing.T) {
	t.Run("clarification_short_circuits", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

		result := &interpreter.Result{
			ClarificationNeeded: "How much did you spend on food?",
			Actions: []interpreter.Action{
				{Kind: interpreter.KindExpense, Amount: 500, Category: "food", Intent: "spend", Confidence: 0.95},
			},
		}
		response, err := proc.Process(result, cycle)
		testutil.AssertNoError(t, err)

		if response != "How much did you spend on food?" {
			t.Errorf("expected verbatim clarification, got %q", response)
		}
		if cycle.TotalExpenses != 0 {
			t.Errorf("clarification must not apply actions, got %f", cycle.TotalExpenses)
		}
	})

	t.Run("low_confidence_skips_action", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

		result := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: interpreter.KindExpense, Amount: 500, Category: "food", Intent: "maybe spent something", Confidence: 0.3},
		}}
		response, err := proc.Process(result, cycle)
		testutil.AssertNoError(t, err)

		if cycle.TotalExpenses != 0 {
			t.Errorf("low-confidence action must not mutate, got %f", cycle.TotalExpenses)
		}
		if !strings.Contains(response, "I need more clarification on: maybe spent something") {
			t.Errorf("expected clarification line, got %q", response)
		}
	})

	t.Run("unknown_kind_dropped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

		result := &interpreter.Result{Actions: []interpreter.Action{
			{Kind: "TRANSFER", Amount: 500, Intent: "move money", Confidence: 0.95},
		}}
		response, err := proc.Process(result, cycle)
		testutil.AssertNoError(t, err)

		if response != "Done!" {
			t.Errorf("expected fallback response for dropped action, got %q", response)
		}
	})

	t.Run("insight_appended", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

		result := &interpreter.Result{
			Actions: []interpreter.Action{
				{Kind: interpreter.KindExpense, Amount: 500, Category: "food", Intent: "spend", Confidence: 0.95},
			},
			Insight: "You're doing great this month!",
		}
		response, err := proc.Process(result, cycle)
		testutil.AssertNoError(t, err)

		if !strings.HasSuffix(response, "You're doing great this month!") {
			t.Errorf("expected insight appended, got %q", response)
		}
		if !strings.Contains(response, "Recorded") {
			t.Errorf("expected action line before insight, got %q", response)
		}
	})

	t.Run("fallback_result_returns_insight", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		proc := newTestProcessor(db, false)
		user := testutil.CreateTestUser(t, db)
		cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

		response, err := proc.Process(interpreter.Fallback(), cycle)
		testutil.AssertNoError(t, err)

		if response != interpreter.FallbackInsight {
			t.Errorf("expected fallback insight, got %q", response)
		}
	})
}

func TestProcessQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	proc := newTestProcessor(db, false)
	user := testutil.CreateTestUser(t, db)
	cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)
	cycle.TotalExpenses = 10000
	testutil.AssertNoError(t, db.Save(cycle).Error)

	food := testutil.CreateTestEnvelope(t, db, cycle.ID, "food", 5000)
	food.Spent = 2000
	testutil.AssertNoError(t, db.Save(food).Error)
	exhausted := testutil.CreateTestEnvelope(t, db, cycle.ID, "travel", 1000)
	exhausted.Spent = 1000
	testutil.AssertNoError(t, db.Save(exhausted).Error)

	result := &interpreter.Result{GeneralQuery: "how much money do I have"}
	response, err := proc.Process(result, cycle)
	testutil.AssertNoError(t, err)

	// Available: 50000 - 10000 - 3000 locked = 37000. Total: 37000 + 3000.
	if !strings.Contains(response, "Available Balance") || !strings.Contains(response, "37,000") {
		t.Errorf("expected available balance 37,000, got %q", response)
	}
	if !strings.Contains(response, "Food") || !strings.Contains(response, "3,000") {
		t.Errorf("expected food envelope remainder, got %q", response)
	}
	if strings.Contains(response, "Travel") {
		t.Errorf("exhausted envelope must be omitted, got %q", response)
	}
	if !strings.Contains(response, "Total Money") || !strings.Contains(response, "40,000") {
		t.Errorf("expected total money 40,000, got %q", response)
	}
}

func TestProcessIncome(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	proc := newTestProcessor(db, false)
	user := testutil.CreateTestUser(t, db)
	cycle := testutil.CreateTestCycleWithSalary(t, db, user.ID, 50000)

	result := &interpreter.Result{Actions: []interpreter.Action{
		{Kind: interpreter.KindIncome, Amount: 2000, Category: "freelance", Intent: "side gig", Confidence: 0.95},
	}}
	response, err := proc.Process(result, cycle)
	testutil.AssertNoError(t, err)

	if cycle.OtherIncome != 2000 {
		t.Errorf("expected other income 2000, got %f", cycle.OtherIncome)
	}
	if cycle.SalaryAmount != 50000 {
		t.Errorf("income must not touch salary, got %f", cycle.SalaryAmount)
	}
	if !strings.Contains(response, "freelance") {
		t.Errorf("expected source named in response, got %q", response)
	}
}
