package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitflow/internal/models"
	"github.com/mmynk/splitflow/internal/storage"
)

// CreateGroup persists a new group and makes its creator the first member.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.CreatedBy == "" {
		return fmt.Errorf("group creator is required")
	}
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	group.UpdatedAt = group.CreatedAt

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO groups (id, name, description, category, created_by, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			group.ID, group.Name, nullable(group.Description), nullable(group.Category),
			group.CreatedBy, group.CreatedAt, group.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)",
			group.ID, group.CreatedBy, group.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to add creator as member: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	group.Members = []string{group.CreatedBy}
	return nil
}

// GetGroup retrieves a group by ID, including its members.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	var description, category sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, category, created_by, created_at, updated_at
		 FROM groups WHERE id = ?`,
		groupID,
	).Scan(&group.ID, &group.Name, &description, &category, &group.CreatedBy, &group.CreatedAt, &group.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	group.Description = description.String
	group.Category = category.String

	members, err := s.membersOf(ctx, "group_id = ?", groupID)
	if err != nil {
		return nil, err
	}
	group.Members = members[groupID]

	return group, nil
}

// ListGroupsForUser returns the groups userID belongs to with expense totals, newest first.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.GroupSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.description, g.category, g.created_by, g.created_at, g.updated_at,
		        (SELECT COUNT(*) FROM expenses e WHERE e.group_id = g.id),
		        (SELECT COALESCE(SUM(e.amount), 0.0) FROM expenses e WHERE e.group_id = g.id)
		 FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ?
		 ORDER BY g.created_at DESC, g.rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.GroupSummary
	for rows.Next() {
		g := &models.GroupSummary{}
		var description, category sql.NullString
		if err := rows.Scan(&g.ID, &g.Name, &description, &category, &g.CreatedBy, &g.CreatedAt, &g.UpdatedAt,
			&g.ExpenseCount, &g.TotalSpent); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		g.Description = description.String
		g.Category = category.String
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	rows.Close()

	members, err := s.membersOf(ctx, "group_id IN (SELECT group_id FROM group_members WHERE user_id = ?)", userID)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		g.Members = members[g.ID]
	}

	return groups, nil
}

// AddGroupMember adds userID to an existing group.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID, userID string) error {
	now := time.Now().Unix()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT 1 FROM groups WHERE id = ?", groupID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check group existence: %w", err)
		}

		err = tx.QueryRowContext(ctx,
			"SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?",
			groupID, userID,
		).Scan(&exists)
		if err == nil {
			return fmt.Errorf("%s in group %s: %w", userID, groupID, storage.ErrAlreadyMember)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check membership: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, user_id, joined_at) VALUES (?, ?, ?)",
			groupID, userID, now,
		); err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "UPDATE groups SET updated_at = ? WHERE id = ?", now, groupID); err != nil {
			return fmt.Errorf("failed to touch group: %w", err)
		}
		return nil
	})
}

// DeleteGroup removes a group by ID. Members, expenses and splits go with it.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, groupID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check deleted rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	return nil
}

// membersOf returns member IDs keyed by group for the group_members rows matching where.
func (s *SQLiteStore) membersOf(ctx context.Context, where string, args ...any) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT group_id, user_id FROM group_members WHERE "+where+" ORDER BY joined_at, user_id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]string)
	for rows.Next() {
		var groupID, userID string
		if err := rows.Scan(&groupID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members[groupID] = append(members[groupID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}
