package cache

import (
	"context"
	"time"

	"github.com/jfeld/taskdeck/internal/cache/store"
	"github.com/jfeld/taskdeck/internal/model"
)

// Auxiliary operations for commands that mutate remote state or need
// the small identity cache. All of them degrade to silent no-ops when
// no cache is available: they are best-effort bookkeeping over an
// optimization layer, never part of the command's correctness.

// MarkDirty flags kinds whose server-side state a command just changed,
// so the next read resyncs instead of trusting the cache.
func (e *Engine) MarkDirty(ctx context.Context, kinds ...model.Kind) {
	if !e.enabled() {
		return
	}
	st := e.repo(ctx)
	if st == nil {
		return
	}
	if len(kinds) == 0 {
		kinds = model.CoreKinds
	}
	if err := st.MarkDirty(ctx, kinds); err != nil {
		e.logger.Printf("failed to mark cache dirty: %v", err)
	}
}

// UpsertLocalTask mirrors a just-created or just-updated remote task
// into the cache so reads in the same process see it immediately. The
// dirty flag is not cleared: a full resync is still owed, and it is the
// sole mechanism that corrects any divergence from concurrent remote
// edits.
func (e *Engine) UpsertLocalTask(ctx context.Context, task model.Task) {
	if !e.enabled() {
		return
	}
	st := e.repo(ctx)
	if st == nil {
		return
	}
	if err := st.UpsertTasks(ctx, []model.Task{task}); err != nil {
		e.logger.Printf("failed to mirror task %s into cache: %v", task.ID, err)
	}
}

// UpsertLocalProject mirrors a just-written remote project into the
// cache, same contract as UpsertLocalTask.
func (e *Engine) UpsertLocalProject(ctx context.Context, project model.Project) {
	if !e.enabled() {
		return
	}
	st := e.repo(ctx)
	if st == nil {
		return
	}
	if err := st.UpsertProjects(ctx, []model.Project{project}); err != nil {
		e.logger.Printf("failed to mirror project %s into cache: %v", project.ID, err)
	}
}

// CachedCurrentUserID returns the cached identity of the current user,
// or "" when unknown. Saves a remote round trip when resolving "me" in
// assignment filters.
func (e *Engine) CachedCurrentUserID(ctx context.Context) string {
	if !e.enabled() {
		return ""
	}
	st := e.repo(ctx)
	if st == nil {
		return ""
	}
	id, err := st.GetMeta(ctx, store.MetaCurrentUserID)
	if err != nil {
		return ""
	}
	return id
}

// SetCachedCurrentUserID records the resolved identity of the current
// user.
func (e *Engine) SetCachedCurrentUserID(ctx context.Context, id string) {
	if !e.enabled() || id == "" {
		return
	}
	st := e.repo(ctx)
	if st == nil {
		return
	}
	if err := st.SetMeta(ctx, store.MetaCurrentUserID, id); err != nil {
		e.logger.Printf("failed to cache current user id: %v", err)
	}
}

// Members returns the cached collaborator list for a workspace or
// shared project when it is younger than maxAge; ok is false when the
// caller must refetch.
func (e *Engine) Members(ctx context.Context, scopeID string, maxAge time.Duration) ([]model.User, bool) {
	if !e.enabled() {
		return nil, false
	}
	st := e.repo(ctx)
	if st == nil {
		return nil, false
	}
	users, ok, err := st.Members(ctx, scopeID, maxAge, time.Now())
	if err != nil {
		e.logger.Printf("failed to read member cache for %s: %v", scopeID, err)
		return nil, false
	}
	return users, ok
}

// PutMembers stores a freshly fetched collaborator list in the member
// side-cache.
func (e *Engine) PutMembers(ctx context.Context, scopeID string, users []model.User) {
	if !e.enabled() {
		return
	}
	st := e.repo(ctx)
	if st == nil {
		return
	}
	if err := st.PutMembers(ctx, scopeID, users, time.Now()); err != nil {
		e.logger.Printf("failed to cache members for %s: %v", scopeID, err)
	}
}

// ClearAll wipes the cache. Unlike the auxiliary ops above this is an
// explicit administrative action, so failures surface to the caller.
func (e *Engine) ClearAll(ctx context.Context) error {
	if !e.cfg.Enabled {
		return nil
	}
	st := e.repo(ctx)
	if st == nil {
		return nil
	}
	return st.ClearAll(ctx)
}
