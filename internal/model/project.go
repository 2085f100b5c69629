package model

import "fmt"

// Project is a tagged variant: exactly one of Personal or Workspace is
// set, discriminated on the wire by the presence of a workspace id.
// Personal projects live in the user's own space and can nest under a
// parent; workspace projects belong to a shared workspace and carry
// access metadata instead.
type Project struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Color      string `json:"color,omitempty"`
	URL        string `json:"url,omitempty"`
	IsShared   bool   `json:"is_shared"`
	IsArchived bool   `json:"is_archived"`
	IsFavorite bool   `json:"is_favorite"`

	Personal  *PersonalProject  `json:"personal,omitempty"`
	Workspace *WorkspaceProject `json:"workspace,omitempty"`
}

// PersonalProject holds the fields specific to projects outside any
// workspace.
type PersonalProject struct {
	ParentID     string `json:"parent_id,omitempty"`
	InboxProject bool   `json:"inbox_project,omitempty"`
}

// WorkspaceProject holds the fields specific to workspace projects.
type WorkspaceProject struct {
	WorkspaceID string `json:"workspace_id"`
	FolderID    string `json:"folder_id,omitempty"`
	Role        string `json:"role,omitempty"`
	Visibility  string `json:"visibility,omitempty"`
}

// InWorkspace reports whether the project is the workspace variant.
func (p *Project) InWorkspace() bool {
	return p.Workspace != nil
}

// WorkspaceID returns the owning workspace id, or "" for personal
// projects. The empty string is also what the projects table stores in
// its workspace_id filter column for the personal variant.
func (p *Project) WorkspaceID() string {
	if p.Workspace != nil {
		return p.Workspace.WorkspaceID
	}
	return ""
}

// FolderID returns the containing folder id, or "" when the project is
// personal or unfiled.
func (p *Project) FolderID() string {
	if p.Workspace != nil {
		return p.Workspace.FolderID
	}
	return ""
}

// Validate checks project invariants, including that exactly one variant
// is populated.
func (p *Project) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Personal == nil && p.Workspace == nil {
		return fmt.Errorf("project %s has neither personal nor workspace payload", p.ID)
	}
	if p.Personal != nil && p.Workspace != nil {
		return fmt.Errorf("project %s has both personal and workspace payloads", p.ID)
	}
	if p.Workspace != nil && p.Workspace.WorkspaceID == "" {
		return fmt.Errorf("workspace project %s missing workspace id", p.ID)
	}
	return nil
}
