package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitflow/internal/models"
	"github.com/mmynk/splitflow/internal/storage"
)

const expenseColumns = "e.id, e.group_id, e.paid_by, e.description, e.amount, e.category, e.created_at"

// CreateExpense persists a new expense and its splits in one transaction.
// Either both land or neither does.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (id, group_id, paid_by, description, amount, category, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.GroupID, expense.PaidBy, expense.Description,
			expense.Amount, nullable(expense.Category), expense.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for i := range expense.Splits {
			split := &expense.Splits[i]
			if split.ID == "" {
				split.ID = uuid.New().String()
			}
			split.ExpenseID = expense.ID

			_, err = tx.ExecContext(ctx,
				"INSERT INTO expense_splits (id, expense_id, user_id, amount, settled) VALUES (?, ?, ?, ?, ?)",
				split.ID, split.ExpenseID, split.UserID, split.Amount, split.Settled,
			)
			if err != nil {
				return fmt.Errorf("failed to insert split: %w", err)
			}
		}
		return nil
	})
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expenses, err := s.queryExpenses(ctx, "e.id = ?", expenseID)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	return expenses[0], nil
}

// ListExpensesByGroup retrieves all expenses of a group, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	return s.queryExpenses(ctx, "e.group_id = ?", groupID)
}

// ListExpensesForUser retrieves the expenses of every group userID belongs to, newest first.
func (s *SQLiteStore) ListExpensesForUser(ctx context.Context, userID string) ([]*models.Expense, error) {
	return s.queryExpenses(ctx, "e.group_id IN (SELECT group_id FROM group_members WHERE user_id = ?)", userID)
}

// queryExpenses loads expenses matching where, then their splits in a second query.
func (s *SQLiteStore) queryExpenses(ctx context.Context, where string, args ...any) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses e WHERE "+where+" ORDER BY e.created_at DESC, e.rowid DESC",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		e := &models.Expense{}
		var category sql.NullString
		if err := rows.Scan(&e.ID, &e.GroupID, &e.PaidBy, &e.Description, &e.Amount, &category, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		e.Category = category.String
		expenses = append(expenses, e)
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	if len(expenses) == 0 {
		return expenses, nil
	}

	splitRows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.expense_id, s.user_id, s.amount, s.settled
		 FROM expense_splits s
		 JOIN expenses e ON e.id = s.expense_id
		 WHERE `+where+`
		 ORDER BY s.user_id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get splits: %w", err)
	}
	defer splitRows.Close()

	for splitRows.Next() {
		var split models.Split
		if err := splitRows.Scan(&split.ID, &split.ExpenseID, &split.UserID, &split.Amount, &split.Settled); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		if e, ok := byID[split.ExpenseID]; ok {
			e.Splits = append(e.Splits, split)
		}
	}
	if err := splitRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}

	return expenses, nil
}
