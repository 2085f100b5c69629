package model

import "fmt"

// Section groups tasks inside a project.
type Section struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProjectID string `json:"project_id"`
	Order     int    `json:"order,omitempty"`
}

// Validate checks the fields required for a section to be cacheable.
func (s *Section) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("id is required")
	}
	if s.ProjectID == "" {
		return fmt.Errorf("section %s missing project id", s.ID)
	}
	return nil
}

// Label is a user-defined tag applicable to tasks.
type Label struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Color      string `json:"color,omitempty"`
	IsFavorite bool   `json:"is_favorite"`
}

// User is a person visible to the current account: the account owner or
// a collaborator on a shared project or workspace.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
}

// Filter is a saved task query.
type Filter struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Query      string `json:"query,omitempty"`
	Color      string `json:"color,omitempty"`
	IsFavorite bool   `json:"is_favorite"`
}

// Workspace is a shared space containing workspace projects.
type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Plan string `json:"plan,omitempty"`
	Role string `json:"role,omitempty"`
}

// Folder groups projects inside a workspace.
type Folder struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WorkspaceID string `json:"workspace_id"`
}
