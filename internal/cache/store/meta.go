package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Meta keys used by the freshness engine. MetaSchemaVersion is the only
// one that survives ClearAll.
const (
	MetaSchemaVersion = "schema_version"
	MetaSyncToken     = "sync_token"
	MetaFingerprint   = "credential_fingerprint"
	MetaCurrentUserID = "current_user_id"
	MetaStaleWarnRun  = "stale_warned_run"
)

// GetMeta returns the value for key, or "" when unset.
func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.First(ctx, "SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read meta %s: %w", key, err)
	}
	return value, nil
}

// SetMeta stores value under key, replacing any prior value.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	return setMeta(ctx, s.exec(), key, value)
}

func setMeta(ctx context.Context, x execer, key, value string) error {
	query := `INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := x.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to set meta %s: %w", key, err)
	}
	return nil
}

// DeleteMeta removes key; a missing key is not an error.
func (s *Store) DeleteMeta(ctx context.Context, key string) error {
	if _, err := s.db.Execute(ctx, "DELETE FROM meta WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete meta %s: %w", key, err)
	}
	return nil
}
