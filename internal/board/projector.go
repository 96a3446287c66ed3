package board

import (
	"sort"
	"strings"
	"time"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// Filter is a conjunction of task predicates. Nil fields do not constrain;
// Text matches case-insensitively against title, description, and project
// name.
type Filter struct {
	Text      string
	Status    *types.Status
	Priority  *int
	ProjectID *string
}

// Group is one display bucket of a projected view.
type Group struct {
	Key   string
	Label string
	Tasks []*types.Task
}

// View is a grouped, ordered projection of a TaskSet. The same projection
// feeds both the list and the board presentation; only rendering differs.
type View struct {
	Groups []Group
	Total  int
}

// statusRank fixes the board column order. Blocked and completed share the
// last column.
func statusRank(s types.Status) int {
	switch s {
	case types.StatusToDo:
		return 0
	case types.StatusInProgress:
		return 1
	default:
		return 2
	}
}

// FilterSort applies the filter and the stable multi-key sort: status rank,
// then due date ascending with undated tasks last, then title. The result
// is a fresh slice sharing the set's tasks.
func FilterSort(set *TaskSet, projects map[string]types.Project, f Filter) []*types.Task {
	text := strings.ToLower(strings.TrimSpace(f.Text))

	var out []*types.Task
	for _, t := range set.All() {
		if !matches(t, projects, f, text) {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ra, rb := statusRank(a.Status), statusRank(b.Status); ra != rb {
			return ra < rb
		}
		if c := compareDue(a.DueDate, b.DueDate); c != 0 {
			return c < 0
		}
		return a.Title < b.Title
	})
	return out
}

// ProjectView filters, sorts, and groups a TaskSet. Groups are ordered by
// display label lexicographically; the synthetic standalone and unassigned
// buckets sort by their own labels like any real project.
func ProjectView(set *TaskSet, projects map[string]types.Project, f Filter) View {
	tasks := FilterSort(set, projects, f)

	byKey := make(map[string]*Group)
	var keys []string
	for _, t := range tasks {
		key := GroupKey(t)
		g, ok := byKey[key]
		if !ok {
			g = &Group{Key: key, Label: groupLabel(key, projects)}
			byKey[key] = g
			keys = append(keys, key)
		}
		g.Tasks = append(g.Tasks, t)
	}

	groups := make([]Group, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, *byKey[key])
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Label != groups[j].Label {
			return groups[i].Label < groups[j].Label
		}
		return groups[i].Key < groups[j].Key
	})

	return View{Groups: groups, Total: len(tasks)}
}

// groupLabel resolves the display name of a grouping bucket.
func groupLabel(key string, projects map[string]types.Project) string {
	switch key {
	case GroupStandalone:
		return "Standalone"
	case GroupUnassigned:
		return "Unassigned"
	}
	if p, ok := projects[key]; ok && p.Name != "" {
		return p.Name
	}
	return key
}

// matches evaluates the filter conjunction for one task.
func matches(t *types.Task, projects map[string]types.Project, f Filter, text string) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.ProjectID != nil && t.Provenance.ProjectID != *f.ProjectID {
		return false
	}
	if text == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Title), text) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Description), text) {
		return true
	}
	if t.Provenance.ProjectID != "" {
		if p, ok := projects[t.Provenance.ProjectID]; ok {
			if strings.Contains(strings.ToLower(p.Name), text) {
				return true
			}
		}
	}
	return false
}

// compareDue orders due dates ascending with nil (no deadline) last.
func compareDue(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case b.Before(*a):
		return 1
	default:
		return 0
	}
}
