// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/splitflow/internal/models"
)

var (
	// ErrNotFound is returned when a group, expense or profile does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyMember is returned when adding a user who is already in the group.
	ErrAlreadyMember = errors.New("user is already a member of the group")
)

// Store defines the interface for Splitflow storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// UpsertProfile inserts the profile or refreshes its name and email.
	UpsertProfile(ctx context.Context, profile *models.Profile) error

	// GetProfilesByIDs returns the known profiles keyed by ID.
	// Unknown IDs are omitted.
	GetProfilesByIDs(ctx context.Context, ids []string) (map[string]*models.Profile, error)

	// CreateGroup persists a new group and adds its creator as the first member.
	// The group.ID, CreatedAt, UpdatedAt and Members fields are populated by the store.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its members.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns the groups userID belongs to, newest first.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.GroupSummary, error)

	// AddGroupMember adds userID to the group.
	AddGroupMember(ctx context.Context, groupID, userID string) error

	// DeleteGroup removes a group together with its expenses and splits.
	DeleteGroup(ctx context.Context, groupID string) error

	// CreateExpense persists an expense and its splits atomically.
	// IDs and CreatedAt are populated by the store when empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense with its splits.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup returns a group's expenses with splits, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// ListExpensesForUser returns the expenses of every group userID belongs to, newest first.
	ListExpensesForUser(ctx context.Context, userID string) ([]*models.Expense, error)

	// Close releases any resources held by the store.
	Close() error
}
