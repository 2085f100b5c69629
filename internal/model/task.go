// Package model defines the typed records cached by the local sync engine.
//
// Each record round-trips through JSON: the full record is stored as a
// serialized blob in the cache database, and a handful of denormalized
// filter columns are recomputed from it on every upsert. Fields therefore
// carry stable snake_case JSON tags matching the on-disk serialization
// (which is ours, not the remote wire format; see internal/cache/delta
// for the wire mapping).
package model

import (
	"fmt"
	"time"
)

// Task is a single to-do item.
type Task struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	Description string `json:"description,omitempty"`

	ProjectID string `json:"project_id"`
	SectionID string `json:"section_id,omitempty"`
	ParentID  string `json:"parent_id,omitempty"`

	AssigneeID string   `json:"assignee_id,omitempty"`
	Labels     []string `json:"labels,omitempty"`

	// Priority runs 1 (normal) through 4 (urgent).
	Priority int `json:"priority"`

	// DueDate is the plain calendar date "2006-01-02", or empty when the
	// task has no due date. Time-of-day precision is not cached.
	DueDate string `json:"due_date,omitempty"`

	// Checked marks a soft-completed task. Completed tasks stay cached
	// until the remote reports them deleted.
	Checked bool `json:"checked"`

	URL     string     `json:"url,omitempty"`
	AddedAt *time.Time `json:"added_at,omitempty"`
}

// Validate checks the fields required for a task to be cacheable.
func (t *Task) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("id is required")
	}
	if t.Content == "" {
		return fmt.Errorf("content is required")
	}
	if t.Priority < 1 || t.Priority > 4 {
		return fmt.Errorf("priority must be between 1 and 4 (got %d)", t.Priority)
	}
	return nil
}
