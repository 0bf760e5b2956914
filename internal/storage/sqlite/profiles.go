package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/mmynk/splitflow/internal/models"
)

// UpsertProfile inserts a profile, or refreshes the name and email of an existing one.
// Empty names and emails never overwrite stored values.
func (s *SQLiteStore) UpsertProfile(ctx context.Context, profile *models.Profile) error {
	if profile.CreatedAt == 0 {
		profile.CreatedAt = time.Now().Unix()
	}

	query := `
		INSERT INTO profiles (id, full_name, email, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			full_name = CASE WHEN excluded.full_name <> '' THEN excluded.full_name ELSE profiles.full_name END,
			email = CASE WHEN excluded.email <> '' THEN excluded.email ELSE profiles.email END
	`

	_, err := s.db.ExecContext(ctx, query,
		profile.ID,
		profile.FullName,
		profile.Email,
		profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}

	return nil
}

// GetProfilesByIDs retrieves multiple profiles by their IDs.
// Returns a map of user ID to Profile.
// Profiles that don't exist are omitted from the result.
func (s *SQLiteStore) GetProfilesByIDs(ctx context.Context, ids []string) (map[string]*models.Profile, error) {
	profiles := make(map[string]*models.Profile)
	if len(ids) == 0 {
		return profiles, nil
	}

	query := `
		SELECT id, full_name, email, created_at
		FROM profiles
		WHERE id IN (` + placeholders(len(ids)) + `)`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get profiles by IDs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p := &models.Profile{}
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles[p.ID] = p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}

	return profiles, nil
}
