package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jfeld/taskdeck/internal/model"
)

// UpsertTasks inserts or replaces tasks by id, recomputing the filter
// columns from each record. Safe to call with an empty slice.
func (s *Store) UpsertTasks(ctx context.Context, tasks []model.Task) error {
	return upsertTasks(ctx, s.exec(), tasks)
}

func upsertTasks(ctx context.Context, x execer, tasks []model.Task) error {
	query := `
	INSERT INTO tasks (
		id, data, project_id, section_id, parent_id,
		assignee_id, due_date, priority, checked, labels
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		data = excluded.data,
		project_id = excluded.project_id,
		section_id = excluded.section_id,
		parent_id = excluded.parent_id,
		assignee_id = excluded.assignee_id,
		due_date = excluded.due_date,
		priority = excluded.priority,
		checked = excluded.checked,
		labels = excluded.labels
	`

	for i := range tasks {
		task := &tasks[i]
		if err := task.Validate(); err != nil {
			return fmt.Errorf("invalid task: %w", err)
		}
		data, err := json.Marshal(task)
		if err != nil {
			return fmt.Errorf("failed to marshal task %s: %w", task.ID, err)
		}
		labels := task.Labels
		if labels == nil {
			labels = []string{}
		}
		labelsJSON, err := json.Marshal(labels)
		if err != nil {
			return fmt.Errorf("failed to marshal labels for %s: %w", task.ID, err)
		}
		_, err = x.ExecContext(ctx, query,
			task.ID,
			string(data),
			task.ProjectID,
			task.SectionID,
			task.ParentID,
			task.AssigneeID,
			task.DueDate,
			task.Priority,
			boolToInt(task.Checked),
			string(labelsJSON),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert task %s: %w", task.ID, err)
		}
	}
	return nil
}

// DeleteTasks removes tasks by id; absent ids are silently ignored.
func (s *Store) DeleteTasks(ctx context.Context, ids []string) error {
	return deleteByIDs(ctx, s.exec(), "tasks", ids)
}

// GetTask retrieves a single task. Returns ErrNotFound if absent.
func (s *Store) GetTask(ctx context.Context, id string) (*model.Task, error) {
	data, err := s.getData(ctx, "tasks", id)
	if err != nil {
		return nil, err
	}
	var task model.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task %s: %w", id, err)
	}
	return &task, nil
}

// ListTasksOptions configures ListTasks.
type ListTasksOptions struct {
	// ProjectID restricts to one project (empty = all).
	ProjectID string
	// IncludeCompleted includes soft-completed tasks, which are excluded
	// by default.
	IncludeCompleted bool
}

// ListTasks returns cached tasks ordered by priority (urgent first),
// then id for a stable order.
func (s *Store) ListTasks(ctx context.Context, opts ListTasksOptions) ([]model.Task, error) {
	query := "SELECT data FROM tasks"
	var conditions []string
	var args []any

	if !opts.IncludeCompleted {
		conditions = append(conditions, "checked = 0")
	}
	if opts.ProjectID != "" {
		conditions = append(conditions, "project_id = ?")
		args = append(args, opts.ProjectID)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY priority DESC, id ASC"

	blobs, err := s.listData(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return unmarshalTasks(blobs)
}

// CountTasks returns the number of cached tasks, completed included.
func (s *Store) CountTasks(ctx context.Context) (int, error) {
	var count int
	if err := s.db.First(ctx, "SELECT COUNT(*) FROM tasks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

func unmarshalTasks(blobs [][]byte) ([]model.Task, error) {
	tasks := make([]model.Task, 0, len(blobs))
	for _, data := range blobs {
		var task model.Task
		if err := json.Unmarshal(data, &task); err != nil {
			return nil, fmt.Errorf("failed to unmarshal task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
