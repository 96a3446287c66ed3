// Package board owns the merged in-memory task collection for one board
// session: aggregation of the four task sources, filtered/grouped/sorted
// view projections, lazy subtask materialization, and optimistic mutation
// handling with rollback.
package board

import (
	"sort"

	"github.com/mesh-intelligence/taskboard/internal/normalize"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// Synthetic group keys for tasks that belong to no real project.
const (
	GroupStandalone = "standalone"
	GroupUnassigned = "unassigned"
)

// TaskSet is the merged, addressable task collection of one board session.
// Entries are keyed by (provenance kind, id) and iteration preserves
// insertion order. TaskSet is not safe for concurrent use; the owning
// Session serializes access.
type TaskSet struct {
	order []types.TaskKey
	items map[types.TaskKey]*types.Task
}

// NewTaskSet returns an empty TaskSet.
func NewTaskSet() *TaskSet {
	return &TaskSet{items: make(map[types.TaskKey]*types.Task)}
}

// Len returns the number of tasks in the set.
func (s *TaskSet) Len() int {
	return len(s.items)
}

// Get returns the task with the given key, or nil.
func (s *TaskSet) Get(key types.TaskKey) *types.Task {
	return s.items[key]
}

// Put inserts or replaces a task. New keys are appended to the iteration
// order; existing keys keep their position.
func (s *TaskSet) Put(t *types.Task) {
	key := t.Key()
	if _, ok := s.items[key]; !ok {
		s.order = append(s.order, key)
	}
	s.items[key] = t
}

// Delete removes a task and returns its position in the iteration order,
// or -1 when the key is absent. The position lets a failed delete be rolled
// back without disturbing the order of the surviving entries.
func (s *TaskSet) Delete(key types.TaskKey) int {
	if _, ok := s.items[key]; !ok {
		return -1
	}
	delete(s.items, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return i
		}
	}
	return -1
}

// RestoreAt reinserts a task at a previous iteration position, clamping to
// the current bounds.
func (s *TaskSet) RestoreAt(t *types.Task, pos int) {
	key := t.Key()
	if _, ok := s.items[key]; ok {
		s.items[key] = t
		return
	}
	if pos < 0 || pos > len(s.order) {
		pos = len(s.order)
	}
	s.order = append(s.order, types.TaskKey{})
	copy(s.order[pos+1:], s.order[pos:])
	s.order[pos] = key
	s.items[key] = t
}

// All returns the tasks in insertion order. The returned slice is fresh but
// the tasks are shared; callers must not mutate them.
func (s *TaskSet) All() []*types.Task {
	out := make([]*types.Task, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.items[key])
	}
	return out
}

// Clone returns a deep copy of the set. Snapshots taken for rollback
// compare deep-equal to the original.
func (s *TaskSet) Clone() *TaskSet {
	c := NewTaskSet()
	for _, key := range s.order {
		c.Put(s.items[key].Clone())
	}
	return c
}

// GroupKey returns the display grouping bucket for a task: the project id
// for project-scoped tasks (with a synthetic fallback when the record lost
// its project), and the single standalone bucket otherwise.
func GroupKey(t *types.Task) string {
	if t.Provenance.Kind.IsProjectScoped() {
		if t.Provenance.ProjectID == "" {
			return GroupUnassigned
		}
		return t.Provenance.ProjectID
	}
	return GroupStandalone
}

// Sources carries the raw listings a full reload aggregates.
type Sources struct {
	// ProjectTasks maps project id to that project's top-level tasks.
	ProjectTasks map[string][]types.RawTask
	// StandaloneTasks are the acting user's standalone tasks.
	StandaloneTasks []types.RawTask
}

// Aggregate normalizes every raw record and merges them into one TaskSet.
// Project listings are merged in sorted project-id order so a rebuild from
// identical sources yields an identical set.
func Aggregate(src Sources, actorID string) *TaskSet {
	set := NewTaskSet()

	projectIDs := make([]string, 0, len(src.ProjectTasks))
	for id := range src.ProjectTasks {
		projectIDs = append(projectIDs, id)
	}
	sort.Strings(projectIDs)

	for _, projectID := range projectIDs {
		prov := types.Provenance{Kind: types.KindProjectTask, ProjectID: projectID}
		for _, raw := range src.ProjectTasks[projectID] {
			t := normalize.Normalize(raw, prov, actorID)
			set.Put(&t)
		}
	}

	prov := types.Provenance{Kind: types.KindStandaloneTask}
	for _, raw := range src.StandaloneTasks {
		t := normalize.Normalize(raw, prov, actorID)
		set.Put(&t)
	}

	return set
}
