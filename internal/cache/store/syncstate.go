package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jfeld/taskdeck/internal/model"
)

// MarkDirty flags the given kinds as out of date, forcing the next
// freshness check to resync before trusting the cache.
func (s *Store) MarkDirty(ctx context.Context, kinds []model.Kind) error {
	return markDirty(ctx, s.exec(), kinds)
}

func markDirty(ctx context.Context, x execer, kinds []model.Kind) error {
	if len(kinds) == 0 {
		return nil
	}
	query := fmt.Sprintf("UPDATE sync_state SET dirty = 1 WHERE resource IN (%s)",
		placeholders(len(kinds)))
	if _, err := x.ExecContext(ctx, query, kindArgs(kinds)...); err != nil {
		return fmt.Errorf("failed to mark dirty: %w", err)
	}
	return nil
}

// MarkClean records a successful sync for the given kinds at t.
func (s *Store) MarkClean(ctx context.Context, kinds []model.Kind, t time.Time) error {
	return markClean(ctx, s.exec(), kinds, t)
}

func markClean(ctx context.Context, x execer, kinds []model.Kind, t time.Time) error {
	if len(kinds) == 0 {
		return nil
	}
	query := fmt.Sprintf(
		"UPDATE sync_state SET dirty = 0, last_synced_at = ? WHERE resource IN (%s)",
		placeholders(len(kinds)))
	args := append([]any{t.UTC().Format(time.RFC3339)}, kindArgs(kinds)...)
	if _, err := x.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark clean: %w", err)
	}
	return nil
}

// AnyDirty reports whether any of the given kinds is flagged dirty.
func (s *Store) AnyDirty(ctx context.Context, kinds []model.Kind) (bool, error) {
	if len(kinds) == 0 {
		return false, nil
	}
	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM sync_state WHERE dirty = 1 AND resource IN (%s)",
		placeholders(len(kinds)))
	var count int
	if err := s.db.First(ctx, query, kindArgs(kinds)...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check dirty state: %w", err)
	}
	return count > 0, nil
}

// AnyExpired reports whether any of the given kinds was last synced more
// than ttl ago. A kind that has never synced counts as expired.
func (s *Store) AnyExpired(ctx context.Context, kinds []model.Kind, ttl time.Duration) (bool, error) {
	if len(kinds) == 0 {
		return false, nil
	}
	cutoff := time.Now().Add(-ttl).UTC().Format(time.RFC3339)
	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM sync_state WHERE (last_synced_at IS NULL OR last_synced_at < ?) AND resource IN (%s)",
		placeholders(len(kinds)))
	args := append([]any{cutoff}, kindArgs(kinds)...)
	var count int
	if err := s.db.First(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check expiry: %w", err)
	}
	return count > 0, nil
}

// HasSnapshot reports whether every given kind has completed at least
// one successful sync, i.e. there is cached data worth serving.
func (s *Store) HasSnapshot(ctx context.Context, kinds []model.Kind) (bool, error) {
	if len(kinds) == 0 {
		return true, nil
	}
	query := fmt.Sprintf(
		"SELECT COUNT(*) FROM sync_state WHERE last_synced_at IS NOT NULL AND resource IN (%s)",
		placeholders(len(kinds)))
	var count int
	if err := s.db.First(ctx, query, kindArgs(kinds)...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check snapshot: %w", err)
	}
	return count == len(kinds), nil
}

// SyncStatus is one sync_state row, for status display.
type SyncStatus struct {
	Resource     model.Kind
	Dirty        bool
	LastSyncedAt *time.Time
}

// SyncStates returns the bookkeeping row for every kind, ordered by
// resource name.
func (s *Store) SyncStates(ctx context.Context) ([]SyncStatus, error) {
	rows, err := s.db.Query(ctx,
		"SELECT resource, dirty, last_synced_at FROM sync_state ORDER BY resource ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query sync state: %w", err)
	}
	defer rows.Close()

	var out []SyncStatus
	for rows.Next() {
		var st SyncStatus
		var dirty int
		var synced sql.NullString
		if err := rows.Scan(&st.Resource, &dirty, &synced); err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}
		st.Dirty = dirty != 0
		if synced.Valid {
			if t, err := time.Parse(time.RFC3339, synced.String); err == nil {
				st.LastSyncedAt = &t
			}
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync state: %w", err)
	}
	return out, nil
}

func kindArgs(kinds []model.Kind) []any {
	args := make([]any, len(kinds))
	for i, k := range kinds {
		args[i] = string(k)
	}
	return args
}
