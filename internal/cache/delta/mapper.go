package delta

import (
	"fmt"
	"time"

	"github.com/jfeld/taskdeck/internal/model"
)

// Default values supplied when optional wire fields are absent.
const (
	defaultPriority = 1
	defaultColor    = "charcoal"
)

// Changeset is a delta response split into per-kind upsert records and
// deletion ids, ready for the repository to apply.
type Changeset struct {
	Tasks      []model.Task
	Projects   []model.Project
	Sections   []model.Section
	Labels     []model.Label
	Users      []model.User
	Filters    []model.Filter
	Workspaces []model.Workspace
	Folders    []model.Folder

	Deleted map[model.Kind][]string
}

// Empty reports whether the changeset carries no writes at all.
func (cs *Changeset) Empty() bool {
	if len(cs.Tasks)+len(cs.Projects)+len(cs.Sections)+len(cs.Labels) > 0 {
		return false
	}
	if len(cs.Users)+len(cs.Filters)+len(cs.Workspaces)+len(cs.Folders) > 0 {
		return false
	}
	for _, ids := range cs.Deleted {
		if len(ids) > 0 {
			return false
		}
	}
	return true
}

// MapResponse splits the per-kind wire rows of a delta response into a
// typed changeset.
//
// A row whose deletion marker is truthy contributes only its id to the
// delete list; nothing else on a deletion row is trusted. Unknown kinds
// are skipped so a newer server can ship kinds an older client doesn't
// cache.
func MapResponse(resources map[string][]Row) (*Changeset, error) {
	cs := &Changeset{Deleted: make(map[model.Kind][]string)}

	for name, rows := range resources {
		kind := model.Kind(name)
		for _, row := range rows {
			id := str(row, "id")
			if isDeleted(row) {
				if id != "" {
					cs.Deleted[kind] = append(cs.Deleted[kind], id)
				}
				continue
			}
			if id == "" {
				return nil, fmt.Errorf("%s row missing id", name)
			}

			switch kind {
			case model.KindTasks:
				cs.Tasks = append(cs.Tasks, mapTask(row))
			case model.KindProjects:
				cs.Projects = append(cs.Projects, mapProject(row))
			case model.KindSections:
				cs.Sections = append(cs.Sections, mapSection(row))
			case model.KindLabels:
				cs.Labels = append(cs.Labels, mapLabel(row))
			case model.KindUsers:
				cs.Users = append(cs.Users, mapUser(row))
			case model.KindFilters:
				cs.Filters = append(cs.Filters, mapFilter(row))
			case model.KindWorkspaces:
				cs.Workspaces = append(cs.Workspaces, mapWorkspace(row))
			case model.KindFolders:
				cs.Folders = append(cs.Folders, mapFolder(row))
			}
		}
	}

	return cs, nil
}

func isDeleted(row Row) bool {
	return boolVal(row, "is_deleted", "isDeleted")
}

// MapTask converts one wire row into a task record. Exported for
// write-through callers that mirror a freshly created remote task.
func MapTask(row Row) model.Task {
	return mapTask(row)
}

func mapTask(row Row) model.Task {
	id := str(row, "id")
	task := model.Task{
		ID:          id,
		Content:     str(row, "content", "title"),
		Description: str(row, "description"),
		ProjectID:   str(row, "project_id", "projectId"),
		SectionID:   str(row, "section_id", "sectionId"),
		ParentID:    str(row, "parent_id", "parentId"),
		AssigneeID:  str(row, "responsible_uid", "responsibleUid", "assignee_id", "assigneeId"),
		Labels:      strSlice(row, "labels"),
		Priority:    intOr(row, defaultPriority, "priority"),
		DueDate:     dueDate(row, "due_date", "dueDate"),
		Checked:     boolVal(row, "checked", "is_completed", "isCompleted"),
		URL:         strOr(row, canonicalURL("task", id), "url"),
	}
	if ts := str(row, "added_at", "addedAt", "created_at", "createdAt"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			task.AddedAt = &t
		}
	}
	return task
}

// mapProject routes on the workspace-id discriminant: rows carrying a
// non-empty workspace id map to the workspace variant, everything else
// to the personal variant. An empty workspace_id counts as absent; some
// serializers emit the key for personal projects too.
func mapProject(row Row) model.Project {
	id := str(row, "id")
	p := model.Project{
		ID:         id,
		Name:       str(row, "name"),
		Color:      strOr(row, defaultColor, "color"),
		URL:        strOr(row, canonicalURL("project", id), "url"),
		IsShared:   boolVal(row, "shared", "is_shared", "isShared"),
		IsArchived: boolVal(row, "is_archived", "isArchived"),
		IsFavorite: boolVal(row, "is_favorite", "isFavorite"),
	}

	if str(row, "workspace_id", "workspaceId") != "" {
		p.Workspace = &model.WorkspaceProject{
			WorkspaceID: str(row, "workspace_id", "workspaceId"),
			FolderID:    str(row, "folder_id", "folderId"),
			Role:        str(row, "role"),
			Visibility:  strOr(row, "restricted", "visibility"),
		}
	} else {
		p.Personal = &model.PersonalProject{
			ParentID:     str(row, "parent_id", "parentId"),
			InboxProject: boolVal(row, "inbox_project", "inboxProject"),
		}
	}
	return p
}

func mapSection(row Row) model.Section {
	return model.Section{
		ID:        str(row, "id"),
		Name:      str(row, "name"),
		ProjectID: str(row, "project_id", "projectId"),
		Order:     intOr(row, 0, "section_order", "sectionOrder"),
	}
}

func mapLabel(row Row) model.Label {
	return model.Label{
		ID:         str(row, "id"),
		Name:       str(row, "name"),
		Color:      strOr(row, defaultColor, "color"),
		IsFavorite: boolVal(row, "is_favorite", "isFavorite"),
	}
}

// MapUser converts one wire row into a user record. Exported for
// collaborator fetches that feed the member side-cache.
func MapUser(row Row) model.User {
	return mapUser(row)
}

func mapUser(row Row) model.User {
	return model.User{
		ID:        str(row, "id"),
		Name:      str(row, "full_name", "fullName", "name"),
		Email:     str(row, "email"),
		AvatarURL: str(row, "avatar_url", "avatarUrl", "image_id"),
		Timezone:  str(row, "timezone", "tz_info"),
	}
}

func mapFilter(row Row) model.Filter {
	return model.Filter{
		ID:         str(row, "id"),
		Name:       str(row, "name"),
		Query:      str(row, "query"),
		Color:      strOr(row, defaultColor, "color"),
		IsFavorite: boolVal(row, "is_favorite", "isFavorite"),
	}
}

func mapWorkspace(row Row) model.Workspace {
	return model.Workspace{
		ID:   str(row, "id"),
		Name: str(row, "name"),
		Plan: str(row, "plan"),
		Role: str(row, "role"),
	}
}

func mapFolder(row Row) model.Folder {
	return model.Folder{
		ID:          str(row, "id"),
		Name:        str(row, "name"),
		WorkspaceID: str(row, "workspace_id", "workspaceId"),
	}
}
