package db

import (
	"context"
	"path/filepath"
	"testing"
)

// testDBPath returns a temporary path for test databases.
func testDBPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "sub", "cache.db")
}

// TestOpen_CreatesParentDirs tests that Open creates missing directories.
func TestOpen_CreatesParentDirs(t *testing.T) {
	path := testDBPath(t)
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if d == nil {
		t.Fatal("Open() returned nil database")
	}
}

// TestOpen_SingletonPerPath tests that repeated opens of the same path
// return the same handle, and a different path invalidates it.
func TestOpen_SingletonPerPath(t *testing.T) {
	path := testDBPath(t)
	d1, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	d2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	if d1 != d2 {
		t.Error("same path returned a different handle")
	}

	other := testDBPath(t)
	d3, err := Open(other)
	if err != nil {
		t.Fatalf("Open() of new path failed: %v", err)
	}
	if d3 == d1 {
		t.Error("path change did not invalidate the cached connection")
	}
	if d3.Path() == d1.Path() {
		t.Errorf("expected distinct paths, both are %q", d3.Path())
	}
}

// TestMigrate_CreatesTables tests schema creation.
func TestMigrate_CreatesTables(t *testing.T) {
	d, err := Open(testDBPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	ctx := context.Background()
	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	tables := []string{
		"tasks", "projects", "sections", "labels", "users",
		"filters", "workspaces", "folders",
		"meta", "sync_state", "member_cache",
	}
	for _, table := range tables {
		var count int
		query := `SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`
		if err := d.First(ctx, query, table).Scan(&count); err != nil {
			t.Fatalf("failed to query table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

// TestMigrate_Idempotent tests that migration is safe to run twice.
func TestMigrate_Idempotent(t *testing.T) {
	d, err := Open(testDBPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	ctx := context.Background()
	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("first Migrate() failed: %v", err)
	}
	if err := d.Migrate(ctx); err != nil {
		t.Errorf("second Migrate() failed: %v", err)
	}
}

// TestMigrate_SeedsSyncState tests that every core kind starts dirty and
// unsynced, and re-migration does not clobber existing state.
func TestMigrate_SeedsSyncState(t *testing.T) {
	d, err := Open(testDBPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	ctx := context.Background()
	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	var count int
	err = d.First(ctx,
		"SELECT COUNT(*) FROM sync_state WHERE dirty = 1 AND last_synced_at IS NULL").Scan(&count)
	if err != nil {
		t.Fatalf("failed to query sync_state: %v", err)
	}
	if count != len(coreResources) {
		t.Errorf("seeded rows = %d, want %d", count, len(coreResources))
	}

	// Mark one row clean, re-migrate, and confirm it stays clean.
	if _, err := d.Execute(ctx,
		"UPDATE sync_state SET dirty = 0, last_synced_at = '2026-01-01T00:00:00Z' WHERE resource = 'tasks'"); err != nil {
		t.Fatalf("failed to update sync_state: %v", err)
	}
	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("re-Migrate() failed: %v", err)
	}
	var dirty int
	if err := d.First(ctx, "SELECT dirty FROM sync_state WHERE resource = 'tasks'").Scan(&dirty); err != nil {
		t.Fatalf("failed to query tasks row: %v", err)
	}
	if dirty != 0 {
		t.Error("re-migration reset a clean sync_state row")
	}
}

// TestMigrate_RecordsSchemaVersion tests the meta version marker.
func TestMigrate_RecordsSchemaVersion(t *testing.T) {
	d, err := Open(testDBPath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	ctx := context.Background()
	if err := d.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}

	var version string
	if err := d.First(ctx, "SELECT value FROM meta WHERE key = 'schema_version'").Scan(&version); err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("schema_version = %q, want %q", version, SchemaVersion)
	}
}
