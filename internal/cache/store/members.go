package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jfeld/taskdeck/internal/model"
)

// PutMembers replaces the cached member list for a workspace or shared
// project, stamped at now. The old list for the scope is dropped so
// removed collaborators don't linger.
func (s *Store) PutMembers(ctx context.Context, scopeID string, users []model.User, now time.Time) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM member_cache WHERE scope_id = ?", scopeID); err != nil {
		return fmt.Errorf("failed to clear members for %s: %w", scopeID, err)
	}

	query := `INSERT INTO member_cache (scope_id, user_id, data, cached_at) VALUES (?, ?, ?, ?)`
	stamp := now.UTC().Format(time.RFC3339)
	for i := range users {
		u := &users[i]
		if u.ID == "" {
			return fmt.Errorf("invalid member: id is required")
		}
		data, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("failed to marshal member %s: %w", u.ID, err)
		}
		if _, err := tx.ExecContext(ctx, query, scopeID, u.ID, string(data), stamp); err != nil {
			return fmt.Errorf("failed to cache member %s: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit member cache: %w", err)
	}
	return nil
}

// Members returns the cached member list for a scope if it is fresh:
// the most recent write for the scope must be younger than maxAge at
// now. A stale or missing list is reported as (nil, false, nil) and the
// caller must refetch from the remote.
func (s *Store) Members(ctx context.Context, scopeID string, maxAge time.Duration, now time.Time) ([]model.User, bool, error) {
	rows, err := s.db.Query(ctx,
		"SELECT data, cached_at FROM member_cache WHERE scope_id = ? ORDER BY user_id ASC", scopeID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to query member cache: %w", err)
	}
	defer rows.Close()

	var users []model.User
	var newest time.Time
	for rows.Next() {
		var data, stamp string
		if err := rows.Scan(&data, &stamp); err != nil {
			return nil, false, fmt.Errorf("failed to scan member: %w", err)
		}
		var u model.User
		if err := json.Unmarshal([]byte(data), &u); err != nil {
			return nil, false, fmt.Errorf("failed to unmarshal member: %w", err)
		}
		if t, err := time.Parse(time.RFC3339, stamp); err == nil && t.After(newest) {
			newest = t
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("error iterating members: %w", err)
	}

	if len(users) == 0 {
		return nil, false, nil
	}
	if now.Sub(newest) > maxAge {
		return nil, false, nil
	}
	return users, true, nil
}
