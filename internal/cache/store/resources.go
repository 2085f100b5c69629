package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jfeld/taskdeck/internal/model"
)

// UpsertProjects inserts or replaces projects by id. The workspace_id
// filter column is "" for the personal variant, which is what the
// personal/workspace scoping predicates test against.
func (s *Store) UpsertProjects(ctx context.Context, projects []model.Project) error {
	return upsertProjects(ctx, s.exec(), projects)
}

func upsertProjects(ctx context.Context, x execer, projects []model.Project) error {
	query := `
	INSERT INTO projects (id, data, workspace_id, folder_id, inbox, shared, archived)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		data = excluded.data,
		workspace_id = excluded.workspace_id,
		folder_id = excluded.folder_id,
		inbox = excluded.inbox,
		shared = excluded.shared,
		archived = excluded.archived
	`

	for i := range projects {
		p := &projects[i]
		if err := p.Validate(); err != nil {
			return fmt.Errorf("invalid project: %w", err)
		}
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal project %s: %w", p.ID, err)
		}
		inbox := 0
		if p.Personal != nil && p.Personal.InboxProject {
			inbox = 1
		}
		_, err = x.ExecContext(ctx, query,
			p.ID,
			string(data),
			p.WorkspaceID(),
			p.FolderID(),
			inbox,
			boolToInt(p.IsShared),
			boolToInt(p.IsArchived),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert project %s: %w", p.ID, err)
		}
	}
	return nil
}

// DeleteProjects removes projects by id; absent ids are ignored.
func (s *Store) DeleteProjects(ctx context.Context, ids []string) error {
	return deleteByIDs(ctx, s.exec(), "projects", ids)
}

// GetProject retrieves a single project. Returns ErrNotFound if absent.
func (s *Store) GetProject(ctx context.Context, id string) (*model.Project, error) {
	data, err := s.getData(ctx, "projects", id)
	if err != nil {
		return nil, err
	}
	var p model.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project %s: %w", id, err)
	}
	return &p, nil
}

// ListProjects returns all cached projects ordered by id.
func (s *Store) ListProjects(ctx context.Context) ([]model.Project, error) {
	blobs, err := s.listData(ctx, "SELECT data FROM projects ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	projects := make([]model.Project, 0, len(blobs))
	for _, data := range blobs {
		var p model.Project
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, nil
}

// UpsertSections inserts or replaces sections by id.
func (s *Store) UpsertSections(ctx context.Context, sections []model.Section) error {
	return upsertSections(ctx, s.exec(), sections)
}

func upsertSections(ctx context.Context, x execer, sections []model.Section) error {
	query := `
	INSERT INTO sections (id, data, project_id) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		data = excluded.data,
		project_id = excluded.project_id
	`
	for i := range sections {
		sec := &sections[i]
		if err := sec.Validate(); err != nil {
			return fmt.Errorf("invalid section: %w", err)
		}
		data, err := json.Marshal(sec)
		if err != nil {
			return fmt.Errorf("failed to marshal section %s: %w", sec.ID, err)
		}
		if _, err := x.ExecContext(ctx, query, sec.ID, string(data), sec.ProjectID); err != nil {
			return fmt.Errorf("failed to upsert section %s: %w", sec.ID, err)
		}
	}
	return nil
}

// DeleteSections removes sections by id; absent ids are ignored.
func (s *Store) DeleteSections(ctx context.Context, ids []string) error {
	return deleteByIDs(ctx, s.exec(), "sections", ids)
}

// GetSection retrieves a single section. Returns ErrNotFound if absent.
func (s *Store) GetSection(ctx context.Context, id string) (*model.Section, error) {
	data, err := s.getData(ctx, "sections", id)
	if err != nil {
		return nil, err
	}
	var sec model.Section
	if err := json.Unmarshal(data, &sec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal section %s: %w", id, err)
	}
	return &sec, nil
}

// ListSections returns cached sections, optionally scoped to a project.
func (s *Store) ListSections(ctx context.Context, projectID string) ([]model.Section, error) {
	query := "SELECT data FROM sections"
	var args []any
	if projectID != "" {
		query += " WHERE project_id = ?"
		args = append(args, projectID)
	}
	query += " ORDER BY id ASC"

	blobs, err := s.listData(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sections: %w", err)
	}
	sections := make([]model.Section, 0, len(blobs))
	for _, data := range blobs {
		var sec model.Section
		if err := json.Unmarshal(data, &sec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal section: %w", err)
		}
		sections = append(sections, sec)
	}
	return sections, nil
}

// UpsertLabels inserts or replaces labels by id.
func (s *Store) UpsertLabels(ctx context.Context, labels []model.Label) error {
	return upsertLabels(ctx, s.exec(), labels)
}

func upsertLabels(ctx context.Context, x execer, labels []model.Label) error {
	query := `
	INSERT INTO labels (id, data, name) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		data = excluded.data,
		name = excluded.name
	`
	for i := range labels {
		l := &labels[i]
		if l.ID == "" {
			return fmt.Errorf("invalid label: id is required")
		}
		data, err := json.Marshal(l)
		if err != nil {
			return fmt.Errorf("failed to marshal label %s: %w", l.ID, err)
		}
		if _, err := x.ExecContext(ctx, query, l.ID, string(data), l.Name); err != nil {
			return fmt.Errorf("failed to upsert label %s: %w", l.ID, err)
		}
	}
	return nil
}

// DeleteLabels removes labels by id; absent ids are ignored.
func (s *Store) DeleteLabels(ctx context.Context, ids []string) error {
	return deleteByIDs(ctx, s.exec(), "labels", ids)
}

// GetLabel retrieves a single label. Returns ErrNotFound if absent.
func (s *Store) GetLabel(ctx context.Context, id string) (*model.Label, error) {
	data, err := s.getData(ctx, "labels", id)
	if err != nil {
		return nil, err
	}
	var l model.Label
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("failed to unmarshal label %s: %w", id, err)
	}
	return &l, nil
}

// ListLabels returns all cached labels ordered by name.
func (s *Store) ListLabels(ctx context.Context) ([]model.Label, error) {
	blobs, err := s.listData(ctx, "SELECT data FROM labels ORDER BY name ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}
	labels := make([]model.Label, 0, len(blobs))
	for _, data := range blobs {
		var l model.Label
		if err := json.Unmarshal(data, &l); err != nil {
			return nil, fmt.Errorf("failed to unmarshal label: %w", err)
		}
		labels = append(labels, l)
	}
	return labels, nil
}

// UpsertUsers inserts or replaces users by id.
func (s *Store) UpsertUsers(ctx context.Context, users []model.User) error {
	return upsertUsers(ctx, s.exec(), users)
}

func upsertUsers(ctx context.Context, x execer, users []model.User) error {
	query := `
	INSERT INTO users (id, data) VALUES (?, ?)
	ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`
	for i := range users {
		u := &users[i]
		if u.ID == "" {
			return fmt.Errorf("invalid user: id is required")
		}
		data, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("failed to marshal user %s: %w", u.ID, err)
		}
		if _, err := x.ExecContext(ctx, query, u.ID, string(data)); err != nil {
			return fmt.Errorf("failed to upsert user %s: %w", u.ID, err)
		}
	}
	return nil
}

// DeleteUsers removes users by id; absent ids are ignored.
func (s *Store) DeleteUsers(ctx context.Context, ids []string) error {
	return deleteByIDs(ctx, s.exec(), "users", ids)
}

// GetUser retrieves a single user. Returns ErrNotFound if absent.
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	data, err := s.getData(ctx, "users", id)
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user %s: %w", id, err)
	}
	return &u, nil
}

// ListUsers returns all cached users ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	blobs, err := s.listData(ctx, "SELECT data FROM users ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]model.User, 0, len(blobs))
	for _, data := range blobs {
		var u model.User
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user: %w", err)
		}
		users = append(users, u)
	}
	return users, nil
}

// UpsertFilters inserts or replaces saved filters by id.
func (s *Store) UpsertFilters(ctx context.Context, filters []model.Filter) error {
	return upsertFilters(ctx, s.exec(), filters)
}

func upsertFilters(ctx context.Context, x execer, filters []model.Filter) error {
	query := `
	INSERT INTO filters (id, data) VALUES (?, ?)
	ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`
	for i := range filters {
		f := &filters[i]
		if f.ID == "" {
			return fmt.Errorf("invalid filter: id is required")
		}
		data, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("failed to marshal filter %s: %w", f.ID, err)
		}
		if _, err := x.ExecContext(ctx, query, f.ID, string(data)); err != nil {
			return fmt.Errorf("failed to upsert filter %s: %w", f.ID, err)
		}
	}
	return nil
}

// DeleteFilters removes filters by id; absent ids are ignored.
func (s *Store) DeleteFilters(ctx context.Context, ids []string) error {
	return deleteByIDs(ctx, s.exec(), "filters", ids)
}

// GetFilter retrieves a single saved filter. Returns ErrNotFound if
// absent.
func (s *Store) GetFilter(ctx context.Context, id string) (*model.Filter, error) {
	data, err := s.getData(ctx, "filters", id)
	if err != nil {
		return nil, err
	}
	var f model.Filter
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal filter %s: %w", id, err)
	}
	return &f, nil
}

// ListFilters returns all cached saved filters ordered by id.
func (s *Store) ListFilters(ctx context.Context) ([]model.Filter, error) {
	blobs, err := s.listData(ctx, "SELECT data FROM filters ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list filters: %w", err)
	}
	filters := make([]model.Filter, 0, len(blobs))
	for _, data := range blobs {
		var f model.Filter
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to unmarshal filter: %w", err)
		}
		filters = append(filters, f)
	}
	return filters, nil
}

// UpsertWorkspaces inserts or replaces workspaces by id.
func (s *Store) UpsertWorkspaces(ctx context.Context, workspaces []model.Workspace) error {
	return upsertWorkspaces(ctx, s.exec(), workspaces)
}

func upsertWorkspaces(ctx context.Context, x execer, workspaces []model.Workspace) error {
	query := `
	INSERT INTO workspaces (id, data) VALUES (?, ?)
	ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`
	for i := range workspaces {
		w := &workspaces[i]
		if w.ID == "" {
			return fmt.Errorf("invalid workspace: id is required")
		}
		data, err := json.Marshal(w)
		if err != nil {
			return fmt.Errorf("failed to marshal workspace %s: %w", w.ID, err)
		}
		if _, err := x.ExecContext(ctx, query, w.ID, string(data)); err != nil {
			return fmt.Errorf("failed to upsert workspace %s: %w", w.ID, err)
		}
	}
	return nil
}

// DeleteWorkspaces removes workspaces by id; absent ids are ignored.
func (s *Store) DeleteWorkspaces(ctx context.Context, ids []string) error {
	return deleteByIDs(ctx, s.exec(), "workspaces", ids)
}

// GetWorkspace retrieves a single workspace. Returns ErrNotFound if
// absent.
func (s *Store) GetWorkspace(ctx context.Context, id string) (*model.Workspace, error) {
	data, err := s.getData(ctx, "workspaces", id)
	if err != nil {
		return nil, err
	}
	var w model.Workspace
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workspace %s: %w", id, err)
	}
	return &w, nil
}

// ListWorkspaces returns all cached workspaces ordered by id.
func (s *Store) ListWorkspaces(ctx context.Context) ([]model.Workspace, error) {
	blobs, err := s.listData(ctx, "SELECT data FROM workspaces ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list workspaces: %w", err)
	}
	workspaces := make([]model.Workspace, 0, len(blobs))
	for _, data := range blobs {
		var w model.Workspace
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, fmt.Errorf("failed to unmarshal workspace: %w", err)
		}
		workspaces = append(workspaces, w)
	}
	return workspaces, nil
}

// UpsertFolders inserts or replaces folders by id.
func (s *Store) UpsertFolders(ctx context.Context, folders []model.Folder) error {
	return upsertFolders(ctx, s.exec(), folders)
}

func upsertFolders(ctx context.Context, x execer, folders []model.Folder) error {
	query := `
	INSERT INTO folders (id, data, workspace_id) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		data = excluded.data,
		workspace_id = excluded.workspace_id
	`
	for i := range folders {
		f := &folders[i]
		if f.ID == "" {
			return fmt.Errorf("invalid folder: id is required")
		}
		data, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("failed to marshal folder %s: %w", f.ID, err)
		}
		if _, err := x.ExecContext(ctx, query, f.ID, string(data), f.WorkspaceID); err != nil {
			return fmt.Errorf("failed to upsert folder %s: %w", f.ID, err)
		}
	}
	return nil
}

// DeleteFolders removes folders by id; absent ids are ignored.
func (s *Store) DeleteFolders(ctx context.Context, ids []string) error {
	return deleteByIDs(ctx, s.exec(), "folders", ids)
}

// GetFolder retrieves a single folder. Returns ErrNotFound if absent.
func (s *Store) GetFolder(ctx context.Context, id string) (*model.Folder, error) {
	data, err := s.getData(ctx, "folders", id)
	if err != nil {
		return nil, err
	}
	var f model.Folder
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal folder %s: %w", id, err)
	}
	return &f, nil
}

// ListFolders returns cached folders, optionally scoped to a workspace.
func (s *Store) ListFolders(ctx context.Context, workspaceID string) ([]model.Folder, error) {
	query := "SELECT data FROM folders"
	var args []any
	if workspaceID != "" {
		query += " WHERE workspace_id = ?"
		args = append(args, workspaceID)
	}
	query += " ORDER BY id ASC"

	blobs, err := s.listData(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	folders := make([]model.Folder, 0, len(blobs))
	for _, data := range blobs {
		var f model.Folder
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to unmarshal folder: %w", err)
		}
		folders = append(folders, f)
	}
	return folders, nil
}
