package store

import (
	"context"
	"testing"
	"time"

	"github.com/jfeld/taskdeck/internal/cache/delta"
	"github.com/jfeld/taskdeck/internal/model"
)

// TestApplyChangeset_UpsertsDeletesAndBookkeeping tests a full delta
// application: records written, ids deleted, cursor advanced, all core
// kinds marked clean.
func TestApplyChangeset_UpsertsDeletesAndBookkeeping(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	seed := &delta.Changeset{
		Tasks: []model.Task{task("t1", "one"), task("t2", "two")},
		Projects: []model.Project{
			{ID: "p1", Name: "Inbox", Personal: &model.PersonalProject{InboxProject: true}},
		},
		Deleted: map[model.Kind][]string{},
	}
	if err := s.ApplyChangeset(ctx, seed, "tok-1", false, time.Now()); err != nil {
		t.Fatalf("ApplyChangeset() failed: %v", err)
	}

	second := &delta.Changeset{
		Tasks:   []model.Task{task("t1", "one renamed")},
		Deleted: map[model.Kind][]string{model.KindTasks: {"t2"}},
	}
	if err := s.ApplyChangeset(ctx, second, "tok-2", false, time.Now()); err != nil {
		t.Fatalf("second ApplyChangeset() failed: %v", err)
	}

	tasks, err := s.ListTasks(ctx, ListTasksOptions{})
	if err != nil {
		t.Fatalf("ListTasks() failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" || tasks[0].Content != "one renamed" {
		t.Errorf("after deltas tasks = %+v, want only renamed t1", tasks)
	}

	token, err := s.GetMeta(ctx, MetaSyncToken)
	if err != nil {
		t.Fatalf("GetMeta() failed: %v", err)
	}
	if token != "tok-2" {
		t.Errorf("sync token = %q, want tok-2", token)
	}

	snapshot, err := s.HasSnapshot(ctx, model.CoreKinds)
	if err != nil {
		t.Fatalf("HasSnapshot() failed: %v", err)
	}
	if !snapshot {
		t.Error("delta application did not mark all core kinds clean")
	}
}

// TestApplyChangeset_NoResurrection tests that a deleted id stays gone
// unless a later delta reinserts it.
func TestApplyChangeset_NoResurrection(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	deltas := []*delta.Changeset{
		{Tasks: []model.Task{task("t1", "a"), task("t2", "b")}, Deleted: map[model.Kind][]string{}},
		{Deleted: map[model.Kind][]string{model.KindTasks: {"t1"}}},
		{Tasks: []model.Task{task("t3", "c")}, Deleted: map[model.Kind][]string{}},
	}
	for i, cs := range deltas {
		if err := s.ApplyChangeset(ctx, cs, "tok", false, time.Now()); err != nil {
			t.Fatalf("delta %d failed: %v", i, err)
		}
	}

	tasks, err := s.ListTasks(ctx, ListTasksOptions{})
	if err != nil {
		t.Fatalf("ListTasks() failed: %v", err)
	}
	got := ids(tasks)
	want := map[string]bool{"t2": true, "t3": true}
	if len(got) != 2 || !want[got[0]] || !want[got[1]] {
		t.Errorf("final tasks = %v, want t2 and t3", got)
	}
}

// TestApplyChangeset_AtomicOnFailure tests that a delta with an invalid
// record leaves no partial writes behind.
func TestApplyChangeset_AtomicOnFailure(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	bad := &delta.Changeset{
		Tasks: []model.Task{
			task("t1", "fine"),
			{ID: "t2", Content: "", Priority: 1}, // fails validation
		},
		Deleted: map[model.Kind][]string{},
	}
	if err := s.ApplyChangeset(ctx, bad, "tok-bad", false, time.Now()); err == nil {
		t.Fatal("ApplyChangeset() accepted an invalid task")
	}

	// Nothing from the failed delta may be visible.
	if _, err := s.GetTask(ctx, "t1"); err == nil {
		t.Error("partial write survived a failed delta")
	}
	token, err := s.GetMeta(ctx, MetaSyncToken)
	if err != nil {
		t.Fatalf("GetMeta() failed: %v", err)
	}
	if token != "" {
		t.Errorf("cursor advanced to %q by a failed delta", token)
	}
	snapshot, err := s.HasSnapshot(ctx, model.CoreKinds)
	if err != nil {
		t.Fatalf("HasSnapshot() failed: %v", err)
	}
	if snapshot {
		t.Error("failed delta marked kinds clean")
	}
}

// TestApplyChangeset_FullSyncReplacesState tests that a full-sync
// response replaces cached state instead of layering over it: rows the
// server dropped while our cursor was invalid must not survive.
func TestApplyChangeset_FullSyncReplacesState(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	seed := &delta.Changeset{
		Tasks: []model.Task{task("t1", "a"), task("t2", "b")},
		Projects: []model.Project{
			{ID: "p1", Name: "Inbox", Personal: &model.PersonalProject{InboxProject: true}},
		},
		Deleted: map[model.Kind][]string{},
	}
	if err := s.ApplyChangeset(ctx, seed, "tok-1", false, time.Now()); err != nil {
		t.Fatalf("ApplyChangeset() failed: %v", err)
	}

	// Cursor invalidated server-side; the replay carries only t3 and
	// no deletion rows for t1/t2.
	replay := &delta.Changeset{
		Tasks:   []model.Task{task("t3", "c")},
		Deleted: map[model.Kind][]string{},
	}
	if err := s.ApplyChangeset(ctx, replay, "tok-2", true, time.Now()); err != nil {
		t.Fatalf("full-sync ApplyChangeset() failed: %v", err)
	}

	tasks, err := s.ListTasks(ctx, ListTasksOptions{})
	if err != nil {
		t.Fatalf("ListTasks() failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t3" {
		t.Errorf("tasks after full sync = %+v, want only t3", tasks)
	}

	// The replay did not mention projects, so the old project is gone
	// too: a full sync is authoritative for every kind.
	projects, err := s.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects() failed: %v", err)
	}
	if len(projects) != 0 {
		t.Errorf("projects after full sync = %+v, want none", projects)
	}
}

// TestClearAll_ResetsEverythingButSchemaVersion tests the wipe.
func TestClearAll_ResetsEverythingButSchemaVersion(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	cs := &delta.Changeset{
		Tasks:   []model.Task{task("t1", "a")},
		Deleted: map[model.Kind][]string{},
	}
	if err := s.ApplyChangeset(ctx, cs, "tok-1", false, time.Now()); err != nil {
		t.Fatalf("ApplyChangeset() failed: %v", err)
	}
	if err := s.SetMeta(ctx, MetaCurrentUserID, "u1"); err != nil {
		t.Fatalf("SetMeta() failed: %v", err)
	}

	if err := s.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() failed: %v", err)
	}

	tasks, err := s.ListTasks(ctx, ListTasksOptions{IncludeCompleted: true})
	if err != nil {
		t.Fatalf("ListTasks() failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("tasks survived ClearAll: %+v", tasks)
	}

	for _, key := range []string{MetaSyncToken, MetaCurrentUserID} {
		value, err := s.GetMeta(ctx, key)
		if err != nil {
			t.Fatalf("GetMeta(%s) failed: %v", key, err)
		}
		if value != "" {
			t.Errorf("meta %s survived ClearAll: %q", key, value)
		}
	}

	version, err := s.GetMeta(ctx, MetaSchemaVersion)
	if err != nil {
		t.Fatalf("GetMeta(schema_version) failed: %v", err)
	}
	if version == "" {
		t.Error("ClearAll dropped the schema version")
	}

	snapshot, err := s.HasSnapshot(ctx, model.CoreKinds)
	if err != nil {
		t.Fatalf("HasSnapshot() failed: %v", err)
	}
	if snapshot {
		t.Error("sync state not reset by ClearAll")
	}
	dirty, err := s.AnyDirty(ctx, model.CoreKinds)
	if err != nil {
		t.Fatalf("AnyDirty() failed: %v", err)
	}
	if !dirty {
		t.Error("kinds not dirty after ClearAll")
	}
}
