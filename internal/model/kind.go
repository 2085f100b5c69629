package model

// Kind identifies one of the cached resource kinds.
//
// The string value doubles as the wire name in delta-sync requests and as
// the row key in the sync_state table.
type Kind string

const (
	KindTasks      Kind = "tasks"
	KindProjects   Kind = "projects"
	KindSections   Kind = "sections"
	KindLabels     Kind = "labels"
	KindUsers      Kind = "users"
	KindFilters    Kind = "filters"
	KindWorkspaces Kind = "workspaces"
	KindFolders    Kind = "folders"
)

// CoreKinds is the full set of resource kinds covered by a delta sync.
// A single sync call always fetches all of them, regardless of which
// subset the caller asked to have fresh.
var CoreKinds = []Kind{
	KindTasks,
	KindProjects,
	KindSections,
	KindLabels,
	KindUsers,
	KindFilters,
	KindWorkspaces,
	KindFolders,
}

// KindNames converts a kind slice to plain strings for wire requests.
func KindNames(kinds []Kind) []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}
