package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jfeld/taskdeck/internal/model"
)

// TaskFilter is a composable predicate set for QueryTasks. Zero values
// mean "don't filter on this".
type TaskFilter struct {
	ProjectID string
	SectionID string

	// ParentID filters to subtasks of one parent; NoParent filters to
	// top-level tasks. Setting both is rejected.
	ParentID string
	NoParent bool

	// Priority filters on exact priority; nil means any.
	Priority *int

	// DueDate is an exact calendar date "2006-01-02". DueToday and
	// Overdue resolve against the local date of Now.
	DueDate  string
	DueToday bool
	Overdue  bool

	// Label matches task label membership case-insensitively.
	Label string

	// AssigneeID filters to one assignee; Unassigned filters to tasks
	// with no assignee. Setting both is rejected.
	AssigneeID string
	Unassigned bool

	// WorkspaceID restricts to tasks whose project belongs to the given
	// workspace; PersonalOnly restricts to tasks in personal projects.
	// Both resolve workspace membership through the cached project table.
	WorkspaceID  string
	PersonalOnly bool

	IncludeCompleted bool

	// Limit caps the page size; 0 means unpaginated. Cursor continues a
	// prior query from the cursor it returned.
	Limit  int
	Cursor string

	// Now anchors the relative date predicates. Zero means time.Now().
	Now time.Time
}

// QueryTasks returns tasks matching the filter plus a continuation
// cursor, or "" when the result set is exhausted.
func (s *Store) QueryTasks(ctx context.Context, f TaskFilter) ([]model.Task, string, error) {
	if f.ParentID != "" && f.NoParent {
		return nil, "", fmt.Errorf("cannot filter on both a parent id and no-parent")
	}
	if f.AssigneeID != "" && f.Unassigned {
		return nil, "", fmt.Errorf("cannot filter on both an assignee and unassigned")
	}
	if f.WorkspaceID != "" && f.PersonalOnly {
		return nil, "", fmt.Errorf("cannot filter on both a workspace and personal-only")
	}

	now := f.Now
	if now.IsZero() {
		now = time.Now()
	}
	today := now.Format("2006-01-02")

	var conditions []string
	var args []any

	query := "SELECT t.data FROM tasks t"

	// Workspace scoping needs the cached project table to resolve which
	// workspace (if any) a task's project belongs to.
	if f.WorkspaceID != "" || f.PersonalOnly {
		query += " JOIN projects p ON p.id = t.project_id"
		if f.WorkspaceID != "" {
			conditions = append(conditions, "p.workspace_id = ?")
			args = append(args, f.WorkspaceID)
		} else {
			conditions = append(conditions, "p.workspace_id = ''")
		}
	}

	if !f.IncludeCompleted {
		conditions = append(conditions, "t.checked = 0")
	}
	if f.ProjectID != "" {
		conditions = append(conditions, "t.project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.SectionID != "" {
		conditions = append(conditions, "t.section_id = ?")
		args = append(args, f.SectionID)
	}
	if f.ParentID != "" {
		conditions = append(conditions, "t.parent_id = ?")
		args = append(args, f.ParentID)
	}
	if f.NoParent {
		conditions = append(conditions, "t.parent_id = ''")
	}
	if f.Priority != nil {
		conditions = append(conditions, "t.priority = ?")
		args = append(args, *f.Priority)
	}
	if f.DueDate != "" {
		conditions = append(conditions, "t.due_date = ?")
		args = append(args, f.DueDate)
	}
	if f.DueToday {
		conditions = append(conditions, "t.due_date = ?")
		args = append(args, today)
	}
	if f.Overdue {
		conditions = append(conditions, "t.due_date != '' AND t.due_date < ?")
		args = append(args, today)
	}
	if f.Label != "" {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM json_each(t.labels) WHERE lower(json_each.value) = lower(?))")
		args = append(args, f.Label)
	}
	if f.AssigneeID != "" {
		conditions = append(conditions, "t.assignee_id = ?")
		args = append(args, f.AssigneeID)
	}
	if f.Unassigned {
		conditions = append(conditions, "t.assignee_id = ''")
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY t.priority DESC, t.id ASC"

	offset := 0
	if f.Cursor != "" {
		n, err := strconv.Atoi(f.Cursor)
		if err != nil || n < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q", f.Cursor)
		}
		offset = n
	}

	if f.Limit > 0 {
		// Fetch one extra row to learn whether another page exists.
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit+1, offset)
	} else if offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, offset)
	}

	blobs, err := s.listData(ctx, query, args...)
	if err != nil {
		return nil, "", fmt.Errorf("failed to query tasks: %w", err)
	}

	next := ""
	if f.Limit > 0 && len(blobs) > f.Limit {
		blobs = blobs[:f.Limit]
		next = strconv.Itoa(offset + f.Limit)
	}

	tasks, err := unmarshalTasks(blobs)
	if err != nil {
		return nil, "", err
	}
	return tasks, next, nil
}
