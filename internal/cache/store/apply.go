package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jfeld/taskdeck/internal/cache/delta"
	"github.com/jfeld/taskdeck/internal/model"
)

// ApplyChangeset applies a mapped delta in one transaction: all upserts,
// then all deletes, then the cursor advance and clean-marking for every
// core kind. A crash mid-apply therefore cannot leave the cursor ahead
// of rows that were never written.
//
// When fullSync is set the server replayed the complete state instead of
// a delta (it invalidated our cursor), so every resource table is
// emptied first; rows deleted remotely while the cursor was invalid
// must not linger.
func (s *Store) ApplyChangeset(ctx context.Context, cs *delta.Changeset, syncToken string, fullSync bool, t time.Time) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if fullSync {
		for _, kind := range model.CoreKinds {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+string(kind)); err != nil {
				return fmt.Errorf("failed to clear %s for full sync: %w", kind, err)
			}
		}
	}

	if err := upsertTasks(ctx, tx, cs.Tasks); err != nil {
		return err
	}
	if err := upsertProjects(ctx, tx, cs.Projects); err != nil {
		return err
	}
	if err := upsertSections(ctx, tx, cs.Sections); err != nil {
		return err
	}
	if err := upsertLabels(ctx, tx, cs.Labels); err != nil {
		return err
	}
	if err := upsertUsers(ctx, tx, cs.Users); err != nil {
		return err
	}
	if err := upsertFilters(ctx, tx, cs.Filters); err != nil {
		return err
	}
	if err := upsertWorkspaces(ctx, tx, cs.Workspaces); err != nil {
		return err
	}
	if err := upsertFolders(ctx, tx, cs.Folders); err != nil {
		return err
	}

	for kind, ids := range cs.Deleted {
		if !validKind(kind) {
			continue
		}
		if err := deleteByIDs(ctx, tx, string(kind), ids); err != nil {
			return err
		}
	}

	if syncToken != "" {
		if err := setMeta(ctx, tx, MetaSyncToken, syncToken); err != nil {
			return err
		}
	}
	if err := markClean(ctx, tx, model.CoreKinds, t); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delta: %w", err)
	}
	return nil
}

// validKind guards the table name interpolated into delete statements.
func validKind(kind model.Kind) bool {
	for _, k := range model.CoreKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ClearAll wipes every cached record, the member side-cache, and the
// credential-scoped meta entries, and resets all sync state to
// dirty/unsynced. The schema version stays. Used on credential change
// and explicit cache clear.
func (s *Store) ClearAll(ctx context.Context) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, kind := range model.CoreKinds {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+string(kind)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", kind, err)
		}
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM member_cache"); err != nil {
		return fmt.Errorf("failed to clear member cache: %w", err)
	}

	for _, key := range []string{MetaSyncToken, MetaCurrentUserID, MetaStaleWarnRun, MetaFingerprint} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM meta WHERE key = ?", key); err != nil {
			return fmt.Errorf("failed to clear meta %s: %w", key, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "UPDATE sync_state SET dirty = 1, last_synced_at = NULL"); err != nil {
		return fmt.Errorf("failed to reset sync state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache clear: %w", err)
	}
	return nil
}
