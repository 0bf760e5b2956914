package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mmynk/splitflow/internal/models"
	"github.com/mmynk/splitflow/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_Groups(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGroup generates ID and adds creator", func(t *testing.T) {
		group := &models.Group{Name: "Roommates", Category: "home", CreatedBy: "alice"}
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		if group.ID == "" {
			t.Error("Expected group ID to be generated")
		}
		if group.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
		if len(group.Members) != 1 || group.Members[0] != "alice" {
			t.Errorf("Members = %v, want [alice]", group.Members)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Name != "Roommates" || got.Category != "home" || got.Description != "" {
			t.Errorf("unexpected group fields: %+v", got)
		}
		if !got.IsAdmin("alice") {
			t.Error("Expected creator to be admin")
		}
	})

	t.Run("CreateGroup requires a creator", func(t *testing.T) {
		if err := store.CreateGroup(ctx, &models.Group{Name: "Orphan"}); err == nil {
			t.Error("Expected error for group without creator")
		}
	})

	t.Run("AddGroupMember", func(t *testing.T) {
		group := &models.Group{Name: "Trip", CreatedBy: "alice"}
		if err := store.CreateGroup(ctx, group); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}

		if err := store.AddGroupMember(ctx, group.ID, "bob"); err != nil {
			t.Fatalf("AddGroupMember failed: %v", err)
		}

		err := store.AddGroupMember(ctx, group.ID, "bob")
		if !errors.Is(err, storage.ErrAlreadyMember) {
			t.Errorf("duplicate AddGroupMember error = %v, want ErrAlreadyMember", err)
		}

		err = store.AddGroupMember(ctx, "missing", "bob")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("AddGroupMember to missing group error = %v, want ErrNotFound", err)
		}

		got, err := store.GetGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if !got.HasMember("alice") || !got.HasMember("bob") || len(got.Members) != 2 {
			t.Errorf("Members = %v, want alice and bob", got.Members)
		}
	})

	t.Run("GetGroup returns ErrNotFound", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStore_ListGroupsForUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &models.Group{Name: "First", CreatedBy: "carol", CreatedAt: 100}
	second := &models.Group{Name: "Second", CreatedBy: "dan", CreatedAt: 200}
	other := &models.Group{Name: "Other", CreatedBy: "erin", CreatedAt: 300}
	for _, g := range []*models.Group{first, second, other} {
		if err := store.CreateGroup(ctx, g); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
	}
	if err := store.AddGroupMember(ctx, second.ID, "carol"); err != nil {
		t.Fatalf("AddGroupMember failed: %v", err)
	}

	expense := &models.Expense{
		GroupID: second.ID, PaidBy: "dan", Description: "Taxi", Amount: 40,
		Splits: []models.Split{{UserID: "carol", Amount: 20}, {UserID: "dan", Amount: 20}},
	}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	groups, err := store.ListGroupsForUser(ctx, "carol")
	if err != nil {
		t.Fatalf("ListGroupsForUser failed: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Name != "Second" || groups[1].Name != "First" {
		t.Errorf("order = %s, %s; want Second, First", groups[0].Name, groups[1].Name)
	}
	if groups[0].ExpenseCount != 1 || groups[0].TotalSpent != 40 {
		t.Errorf("Second totals = %d / %v, want 1 / 40", groups[0].ExpenseCount, groups[0].TotalSpent)
	}
	if groups[1].ExpenseCount != 0 || groups[1].TotalSpent != 0 {
		t.Errorf("First totals = %d / %v, want 0 / 0", groups[1].ExpenseCount, groups[1].TotalSpent)
	}
	if len(groups[0].Members) != 2 {
		t.Errorf("Second members = %v, want 2", groups[0].Members)
	}

	none, err := store.ListGroupsForUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListGroupsForUser failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("got %d groups for unknown user, want 0", len(none))
	}
}

func TestSQLiteStore_Expenses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	group := &models.Group{Name: "Flat", CreatedBy: "alice"}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	store.AddGroupMember(ctx, group.ID, "bob")

	t.Run("CreateExpense and GetExpense", func(t *testing.T) {
		original := &models.Expense{
			GroupID:     group.ID,
			PaidBy:      "alice",
			Description: "Groceries",
			Amount:      90,
			Category:    "Food",
			Splits: []models.Split{
				{UserID: "alice", Amount: 45},
				{UserID: "bob", Amount: 45},
			},
		}
		if err := store.CreateExpense(ctx, original); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		if original.ID == "" || original.CreatedAt == 0 {
			t.Error("Expected ID and CreatedAt to be generated")
		}
		for _, s := range original.Splits {
			if s.ID == "" || s.ExpenseID != original.ID {
				t.Errorf("split not stamped: %+v", s)
			}
		}

		got, err := store.GetExpense(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		if got.Description != "Groceries" || got.Amount != 90 || got.Category != "Food" || got.PaidBy != "alice" {
			t.Errorf("unexpected expense: %+v", got)
		}
		if len(got.Splits) != 2 {
			t.Fatalf("got %d splits, want 2", len(got.Splits))
		}
		if got.Splits[0].UserID != "alice" || got.Splits[1].UserID != "bob" {
			t.Errorf("splits not ordered by user: %+v", got.Splits)
		}
	})

	t.Run("settled flag round-trips", func(t *testing.T) {
		e := &models.Expense{
			GroupID: group.ID, PaidBy: "alice", Description: "Gift", Amount: 30,
			Splits: []models.Split{{UserID: "bob", Amount: 30}, {UserID: "alice", Amount: 0, Settled: true}},
		}
		if err := store.CreateExpense(ctx, e); err != nil {
			t.Fatalf("CreateExpense failed: %v", err)
		}
		got, err := store.GetExpense(ctx, e.ID)
		if err != nil {
			t.Fatalf("GetExpense failed: %v", err)
		}
		split, ok := got.SplitFor("alice")
		if !ok || !split.Settled || split.Amount != 0 {
			t.Errorf("payer split = %+v, want settled zero row", split)
		}
	})

	t.Run("failed split insert rolls back expense", func(t *testing.T) {
		e := &models.Expense{
			GroupID: group.ID, PaidBy: "alice", Description: "Broken", Amount: 10,
			Splits: []models.Split{{UserID: "bob", Amount: 10}, {UserID: "bob", Amount: 0}},
		}
		if err := store.CreateExpense(ctx, e); err == nil {
			t.Fatal("Expected duplicate split to fail")
		}
		if _, err := store.GetExpense(ctx, e.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expense survived rollback: %v", err)
		}
	})

	t.Run("expense for unknown group is rejected", func(t *testing.T) {
		e := &models.Expense{GroupID: "missing", PaidBy: "alice", Description: "x", Amount: 1}
		if err := store.CreateExpense(ctx, e); err == nil {
			t.Error("Expected foreign key violation")
		}
	})

	t.Run("ListExpensesByGroup newest first", func(t *testing.T) {
		expenses, err := store.ListExpensesByGroup(ctx, group.ID)
		if err != nil {
			t.Fatalf("ListExpensesByGroup failed: %v", err)
		}
		if len(expenses) != 2 {
			t.Fatalf("got %d expenses, want 2", len(expenses))
		}
		if expenses[0].Description != "Gift" {
			t.Errorf("first expense = %s, want Gift", expenses[0].Description)
		}
		for _, e := range expenses {
			if len(e.Splits) != 2 {
				t.Errorf("%s has %d splits, want 2", e.Description, len(e.Splits))
			}
		}
	})

	t.Run("ListExpensesForUser", func(t *testing.T) {
		mine, err := store.ListExpensesForUser(ctx, "bob")
		if err != nil {
			t.Fatalf("ListExpensesForUser failed: %v", err)
		}
		if len(mine) != 2 {
			t.Errorf("got %d expenses for bob, want 2", len(mine))
		}
		none, err := store.ListExpensesForUser(ctx, "stranger")
		if err != nil {
			t.Fatalf("ListExpensesForUser failed: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("got %d expenses for stranger, want 0", len(none))
		}
	})

	t.Run("DeleteGroup cascades", func(t *testing.T) {
		expenses, _ := store.ListExpensesByGroup(ctx, group.ID)

		if err := store.DeleteGroup(ctx, group.ID); err != nil {
			t.Fatalf("DeleteGroup failed: %v", err)
		}
		if _, err := store.GetGroup(ctx, group.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("group still present: %v", err)
		}
		for _, e := range expenses {
			if _, err := store.GetExpense(ctx, e.ID); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("expense %s survived group deletion", e.ID)
			}
		}

		var splits int
		if err := store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM expense_splits").Scan(&splits); err != nil {
			t.Fatalf("count splits: %v", err)
		}
		if splits != 0 {
			t.Errorf("%d splits survived group deletion", splits)
		}

		if err := store.DeleteGroup(ctx, group.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("second DeleteGroup error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteStore_Profiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertProfile(ctx, models.NewProfile("u1", "Asha Rao", "asha@example.com")); err != nil {
		t.Fatalf("UpsertProfile failed: %v", err)
	}
	// empty fields keep what is stored
	if err := store.UpsertProfile(ctx, &models.Profile{ID: "u1", Email: "asha@new.example.com"}); err != nil {
		t.Fatalf("UpsertProfile update failed: %v", err)
	}

	profiles, err := store.GetProfilesByIDs(ctx, []string{"u1", "missing"})
	if err != nil {
		t.Fatalf("GetProfilesByIDs failed: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("got %d profiles, want 1", len(profiles))
	}
	p := profiles["u1"]
	if p.FullName != "Asha Rao" || p.Email != "asha@new.example.com" {
		t.Errorf("profile = %+v", p)
	}

	empty, err := store.GetProfilesByIDs(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("GetProfilesByIDs(nil) = %v, %v", empty, err)
	}
}

func TestPlaceholders(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, ""},
		{1, "?"},
		{3, "?, ?, ?"},
	}
	for _, tt := range tests {
		if got := placeholders(tt.n); got != tt.want {
			t.Errorf("placeholders(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
