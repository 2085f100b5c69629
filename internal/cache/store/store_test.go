package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/jfeld/taskdeck/internal/cache/db"
	"github.com/jfeld/taskdeck/internal/model"
)

// testStore opens and migrates a fresh cache database.
func testStore(t *testing.T) *Store {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := d.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() failed: %v", err)
	}
	return New(d)
}

func task(id, content string) model.Task {
	return model.Task{ID: id, Content: content, ProjectID: "p1", Priority: 1}
}

// TestUpsertTasks_RoundTrip tests that a task survives storage exactly.
func TestUpsertTasks_RoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	want := model.Task{
		ID:         "t1",
		Content:    "Write the report",
		ProjectID:  "p1",
		SectionID:  "s1",
		ParentID:   "t0",
		AssigneeID: "u1",
		Labels:     []string{"Work", "urgent"},
		Priority:   4,
		DueDate:    "2026-09-15",
		URL:        "https://app.taskdeck.io/task/t1",
	}
	if err := s.UpsertTasks(ctx, []model.Task{want}); err != nil {
		t.Fatalf("UpsertTasks() failed: %v", err)
	}

	got, err := s.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask() failed: %v", err)
	}
	if diff := cmp.Diff(&want, got); diff != "" {
		t.Errorf("task mismatch (-want +got):\n%s", diff)
	}
}

// TestUpsertTasks_Replace tests that a second upsert replaces the record
// and its filter columns.
func TestUpsertTasks_Replace(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	first := task("t1", "before")
	if err := s.UpsertTasks(ctx, []model.Task{first}); err != nil {
		t.Fatalf("UpsertTasks() failed: %v", err)
	}
	second := task("t1", "after")
	second.Priority = 3
	second.DueDate = "2026-01-02"
	if err := s.UpsertTasks(ctx, []model.Task{second}); err != nil {
		t.Fatalf("second UpsertTasks() failed: %v", err)
	}

	got, err := s.GetTask(ctx, "t1")
	if err != nil {
		t.Fatalf("GetTask() failed: %v", err)
	}
	if got.Content != "after" || got.Priority != 3 {
		t.Errorf("task not replaced: %+v", got)
	}

	// Filter columns must follow the record.
	tasks, _, err := s.QueryTasks(ctx, TaskFilter{DueDate: "2026-01-02"})
	if err != nil {
		t.Fatalf("QueryTasks() failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("due-date column not recomputed, query returned %d tasks", len(tasks))
	}
}

// TestUpsertTasks_EmptyIsNoop tests the empty-slice contract.
func TestUpsertTasks_EmptyIsNoop(t *testing.T) {
	s := testStore(t)
	if err := s.UpsertTasks(context.Background(), nil); err != nil {
		t.Fatalf("UpsertTasks(nil) failed: %v", err)
	}
}

// TestDeleteTasks_AbsentIDsIgnored tests delete idempotency.
func TestDeleteTasks_AbsentIDsIgnored(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.UpsertTasks(ctx, []model.Task{task("t1", "keep"), task("t2", "drop")}); err != nil {
		t.Fatalf("UpsertTasks() failed: %v", err)
	}
	if err := s.DeleteTasks(ctx, []string{"t2", "never-existed"}); err != nil {
		t.Fatalf("DeleteTasks() failed: %v", err)
	}

	if _, err := s.GetTask(ctx, "t2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetTask(t2) error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetTask(ctx, "t1"); err != nil {
		t.Errorf("GetTask(t1) failed: %v", err)
	}
}

// TestListTasks_ExcludesCompletedByDefault tests the soft-complete
// filter and its override.
func TestListTasks_ExcludesCompletedByDefault(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	open := task("t1", "open")
	done := task("t2", "done")
	done.Checked = true
	if err := s.UpsertTasks(ctx, []model.Task{open, done}); err != nil {
		t.Fatalf("UpsertTasks() failed: %v", err)
	}

	tasks, err := s.ListTasks(ctx, ListTasksOptions{})
	if err != nil {
		t.Fatalf("ListTasks() failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Errorf("default list = %+v, want only t1", tasks)
	}

	tasks, err = s.ListTasks(ctx, ListTasksOptions{IncludeCompleted: true})
	if err != nil {
		t.Fatalf("ListTasks(all) failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("list with completed = %d tasks, want 2", len(tasks))
	}
}

// TestUpsertProjects_VariantColumns tests that the personal/workspace
// discriminant lands in the filter columns.
func TestUpsertProjects_VariantColumns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	personal := model.Project{
		ID: "p1", Name: "Errands",
		Personal: &model.PersonalProject{InboxProject: true},
	}
	shared := model.Project{
		ID: "p2", Name: "Launch", IsShared: true,
		Workspace: &model.WorkspaceProject{WorkspaceID: "w1", FolderID: "f1", Role: "admin"},
	}
	if err := s.UpsertProjects(ctx, []model.Project{personal, shared}); err != nil {
		t.Fatalf("UpsertProjects() failed: %v", err)
	}

	got, err := s.GetProject(ctx, "p2")
	if err != nil {
		t.Fatalf("GetProject() failed: %v", err)
	}
	if !got.InWorkspace() || got.WorkspaceID() != "w1" {
		t.Errorf("workspace variant lost: %+v", got)
	}

	got, err = s.GetProject(ctx, "p1")
	if err != nil {
		t.Fatalf("GetProject() failed: %v", err)
	}
	if got.InWorkspace() || got.Personal == nil || !got.Personal.InboxProject {
		t.Errorf("personal variant lost: %+v", got)
	}
}

// TestUpsertProjects_RejectsAmbiguousVariant tests the sum-type
// invariant.
func TestUpsertProjects_RejectsAmbiguousVariant(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	both := model.Project{
		ID: "p1", Name: "Broken",
		Personal:  &model.PersonalProject{},
		Workspace: &model.WorkspaceProject{WorkspaceID: "w1"},
	}
	if err := s.UpsertProjects(ctx, []model.Project{both}); err == nil {
		t.Error("UpsertProjects() accepted a project with both variants")
	}

	neither := model.Project{ID: "p2", Name: "AlsoBroken"}
	if err := s.UpsertProjects(ctx, []model.Project{neither}); err == nil {
		t.Error("UpsertProjects() accepted a project with no variant")
	}
}

// TestGetByID_AllKinds covers the single-record read for every kind
// with a getter, including the miss path.
func TestGetByID_AllKinds(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.UpsertSections(ctx, []model.Section{{ID: "s1", Name: "Backlog", ProjectID: "p1", Order: 2}}); err != nil {
		t.Fatalf("UpsertSections() failed: %v", err)
	}
	if err := s.UpsertLabels(ctx, []model.Label{{ID: "l1", Name: "urgent", Color: "red"}}); err != nil {
		t.Fatalf("UpsertLabels() failed: %v", err)
	}
	if err := s.UpsertFilters(ctx, []model.Filter{{ID: "fl1", Name: "Today", Query: "due:today"}}); err != nil {
		t.Fatalf("UpsertFilters() failed: %v", err)
	}
	if err := s.UpsertWorkspaces(ctx, []model.Workspace{{ID: "w1", Name: "Acme", Plan: "business", Role: "member"}}); err != nil {
		t.Fatalf("UpsertWorkspaces() failed: %v", err)
	}
	if err := s.UpsertFolders(ctx, []model.Folder{{ID: "f1", Name: "Q3", WorkspaceID: "w1"}}); err != nil {
		t.Fatalf("UpsertFolders() failed: %v", err)
	}

	sec, err := s.GetSection(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSection() failed: %v", err)
	}
	if sec.Name != "Backlog" || sec.ProjectID != "p1" || sec.Order != 2 {
		t.Errorf("GetSection() = %+v", sec)
	}

	l, err := s.GetLabel(ctx, "l1")
	if err != nil {
		t.Fatalf("GetLabel() failed: %v", err)
	}
	if l.Name != "urgent" || l.Color != "red" {
		t.Errorf("GetLabel() = %+v", l)
	}

	fl, err := s.GetFilter(ctx, "fl1")
	if err != nil {
		t.Fatalf("GetFilter() failed: %v", err)
	}
	if fl.Query != "due:today" {
		t.Errorf("GetFilter() = %+v", fl)
	}

	w, err := s.GetWorkspace(ctx, "w1")
	if err != nil {
		t.Fatalf("GetWorkspace() failed: %v", err)
	}
	if w.Name != "Acme" || w.Plan != "business" {
		t.Errorf("GetWorkspace() = %+v", w)
	}

	f, err := s.GetFolder(ctx, "f1")
	if err != nil {
		t.Fatalf("GetFolder() failed: %v", err)
	}
	if f.Name != "Q3" || f.WorkspaceID != "w1" {
		t.Errorf("GetFolder() = %+v", f)
	}

	if _, err := s.GetSection(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSection(missing) error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetWorkspace(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetWorkspace(missing) error = %v, want ErrNotFound", err)
	}
}

// TestListUsers_Ordered covers the user list surface.
func TestListUsers_Ordered(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.UpsertUsers(ctx, []model.User{
		{ID: "u2", Name: "Grace"},
		{ID: "u1", Name: "Ada", Email: "ada@example.com"},
	}); err != nil {
		t.Fatalf("UpsertUsers() failed: %v", err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() failed: %v", err)
	}
	if len(users) != 2 || users[0].ID != "u1" || users[1].ID != "u2" {
		t.Errorf("ListUsers() = %+v, want u1 then u2", users)
	}
	if users[0].Email != "ada@example.com" {
		t.Errorf("user payload lost fields: %+v", users[0])
	}
}

// TestSectionsLabelsFoldersRoundTrip covers the remaining list surfaces.
func TestSectionsLabelsFoldersRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.UpsertSections(ctx, []model.Section{
		{ID: "s1", Name: "Backlog", ProjectID: "p1"},
		{ID: "s2", Name: "Doing", ProjectID: "p2"},
	}); err != nil {
		t.Fatalf("UpsertSections() failed: %v", err)
	}
	sections, err := s.ListSections(ctx, "p1")
	if err != nil {
		t.Fatalf("ListSections() failed: %v", err)
	}
	if len(sections) != 1 || sections[0].Name != "Backlog" {
		t.Errorf("ListSections(p1) = %+v", sections)
	}

	if err := s.UpsertLabels(ctx, []model.Label{{ID: "l1", Name: "urgent"}}); err != nil {
		t.Fatalf("UpsertLabels() failed: %v", err)
	}
	labels, err := s.ListLabels(ctx)
	if err != nil {
		t.Fatalf("ListLabels() failed: %v", err)
	}
	if len(labels) != 1 || labels[0].Name != "urgent" {
		t.Errorf("ListLabels() = %+v", labels)
	}

	if err := s.UpsertFolders(ctx, []model.Folder{{ID: "f1", Name: "Q3", WorkspaceID: "w1"}}); err != nil {
		t.Fatalf("UpsertFolders() failed: %v", err)
	}
	folders, err := s.ListFolders(ctx, "w1")
	if err != nil {
		t.Fatalf("ListFolders() failed: %v", err)
	}
	if len(folders) != 1 || folders[0].Name != "Q3" {
		t.Errorf("ListFolders(w1) = %+v", folders)
	}
}
