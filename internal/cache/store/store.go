// Package store is the typed resource repository over the cache database.
//
// Every cached record is stored twice over: the full record as a JSON
// blob, and a few denormalized filter columns recomputed from the record
// on each upsert. The columns exist only to serve query predicates; the
// blob is what reads deserialize.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jfeld/taskdeck/internal/cache/db"
)

// ErrNotFound is returned by Get* lookups when the id is not cached.
var ErrNotFound = errors.New("not found")

// Store provides typed read/write access to the cache database.
type Store struct {
	db *db.DB
}

// New wraps an opened, migrated database.
func New(d *db.DB) *Store {
	return &Store{db: d}
}

// execer abstracts *sql.Tx and the plain gateway so upsert/delete
// helpers run identically inside and outside a transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// dbExec adapts the gateway's Execute to the execer shape.
type dbExec struct {
	d *db.DB
}

func (x dbExec) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return x.d.Execute(ctx, query, args...)
}

func (s *Store) exec() execer {
	return dbExec{d: s.db}
}

// placeholders returns "?, ?, ..." for n bind parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// deleteByIDs removes rows by primary key; absent ids are ignored.
func deleteByIDs(ctx context.Context, x execer, table string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id IN (%s)", table, placeholders(len(ids)))
	if _, err := x.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// getData fetches the serialized record for one id.
func (s *Store) getData(ctx context.Context, table, id string) ([]byte, error) {
	var data string
	query := fmt.Sprintf("SELECT data FROM %s WHERE id = ?", table)
	err := s.db.First(ctx, query, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s: %w", table, id, err)
	}
	return []byte(data), nil
}

// listData fetches serialized records for an arbitrary query whose first
// selected column is the data blob.
func (s *Store) listData(ctx context.Context, query string, args ...any) ([][]byte, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, []byte(data))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}
