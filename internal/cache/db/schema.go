package db

import (
	"context"
	"fmt"
)

// SchemaVersion is recorded in meta on every migration. Nothing branches
// on it yet; it exists so a future version can gate real migrations.
const SchemaVersion = "1"

// Migrate creates the cache schema if it doesn't exist.
//
// All DDL is idempotent (CREATE IF NOT EXISTS, INSERT OR IGNORE), so this
// runs unconditionally on every process start.
func (d *DB) Migrate(ctx context.Context) error {
	schema := `
	-- One table per cached resource kind. Each row stores the full record
	-- as JSON plus denormalized filter columns recomputed on upsert.
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		project_id TEXT NOT NULL DEFAULT '',
		section_id TEXT NOT NULL DEFAULT '',
		parent_id TEXT NOT NULL DEFAULT '',
		assignee_id TEXT NOT NULL DEFAULT '',
		due_date TEXT NOT NULL DEFAULT '',
		priority INTEGER NOT NULL DEFAULT 1,
		checked INTEGER NOT NULL DEFAULT 0,
		labels TEXT NOT NULL DEFAULT '[]'  -- JSON array
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		workspace_id TEXT NOT NULL DEFAULT '',
		folder_id TEXT NOT NULL DEFAULT '',
		inbox INTEGER NOT NULL DEFAULT 0,
		shared INTEGER NOT NULL DEFAULT 0,
		archived INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS sections (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		project_id TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS labels (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS filters (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS workspaces (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS folders (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		workspace_id TEXT NOT NULL DEFAULT ''
	);

	-- Flat key/value metadata: sync cursor, credential fingerprint,
	-- current user id, stale-warning marker, schema version.
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	-- Per-kind sync bookkeeping. A NULL last_synced_at means the kind has
	-- never completed a sync (no snapshot exists).
	CREATE TABLE IF NOT EXISTS sync_state (
		resource TEXT PRIMARY KEY,
		dirty INTEGER NOT NULL DEFAULT 1,
		last_synced_at TEXT
	);

	-- Collaborator side-cache keyed by (workspace-or-project id, user id),
	-- with its own staleness window distinct from the core TTL.
	CREATE TABLE IF NOT EXISTS member_cache (
		scope_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		data TEXT NOT NULL,
		cached_at TEXT NOT NULL,
		PRIMARY KEY (scope_id, user_id)
	);

	-- Indexes backing the task query predicates
	CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_section ON tasks(section_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_parent ON tasks(parent_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_assignee ON tasks(assignee_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_due ON tasks(due_date);
	CREATE INDEX IF NOT EXISTS idx_tasks_checked ON tasks(checked);

	CREATE INDEX IF NOT EXISTS idx_projects_workspace ON projects(workspace_id);
	CREATE INDEX IF NOT EXISTS idx_projects_folder ON projects(folder_id);
	CREATE INDEX IF NOT EXISTS idx_sections_project ON sections(project_id);
	CREATE INDEX IF NOT EXISTS idx_labels_name ON labels(name);
	CREATE INDEX IF NOT EXISTS idx_folders_workspace ON folders(workspace_id);
	`

	if _, err := d.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	// Seed one dirty, never-synced row per core kind.
	seed := `INSERT OR IGNORE INTO sync_state (resource, dirty, last_synced_at) VALUES (?, 1, NULL)`
	for _, kind := range coreResources {
		if _, err := d.conn.ExecContext(ctx, seed, kind); err != nil {
			return fmt.Errorf("failed to seed sync_state for %s: %w", kind, err)
		}
	}

	version := `INSERT INTO meta (key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := d.conn.ExecContext(ctx, version, SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}

// coreResources mirrors model.CoreKinds without importing it; the db
// package sits below model in the dependency order.
var coreResources = []string{
	"tasks", "projects", "sections", "labels",
	"users", "filters", "workspaces", "folders",
}
