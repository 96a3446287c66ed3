package board

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/taskboard/internal/normalize"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// expandEntry caches one parent's materialized subtasks. The entry stays
// valid across collapse/expand cycles and across reloads until the parent's
// subtask count changes, at which point the next expand refetches.
type expandEntry struct {
	parentKey types.TaskKey
	count     int
	subtasks  []types.Task
	expanded  bool
}

// ToggleExpand expands or collapses a parent task. The first expansion
// fetches the parent's subtasks from the gateway; concurrent expansions of
// the same parent share one fetch. Expanded subtasks join the TaskSet and
// appear in projections; collapsing removes them from view but keeps the
// cache. Returns the subtasks now visible, or nil after a collapse.
func (s *Session) ToggleExpand(ctx context.Context, parentKey types.TaskKey) ([]types.Task, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, types.ErrSessionClosed
	}
	parent := s.set.Get(parentKey)
	if parent == nil {
		s.mu.Unlock()
		return nil, types.ErrNotFound
	}
	if parent.Provenance.Kind.IsSubtask() {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: subtasks cannot be expanded", types.ErrInvalidProvenance)
	}

	entry := s.expand[parent.ID]
	if entry != nil && entry.expanded {
		entry.expanded = false
		for _, sub := range entry.subtasks {
			s.set.Delete(sub.Key())
		}
		s.mu.Unlock()
		return nil, nil
	}

	if entry != nil && entry.count == parent.SubtaskCount {
		subtasks := s.showSubtasksLocked(entry)
		s.mu.Unlock()
		return subtasks, nil
	}

	// Cache miss or stale count: fetch outside the lock, deduplicated per
	// parent so a double toggle costs one gateway call.
	prov := subtaskProvenance(parent)
	projectID := parent.Provenance.ProjectID
	parentID := parent.ID
	count := parent.SubtaskCount
	s.mu.Unlock()

	fetched, err, _ := s.fetches.Do(parentKey.String(), func() (any, error) {
		raws, err := s.gw.ListSubtasks(ctx, projectID, parentID)
		if err != nil {
			return nil, err
		}
		subtasks := make([]types.Task, 0, len(raws))
		for _, raw := range raws {
			subtasks = append(subtasks, normalize.Normalize(raw, prov, s.actorID))
		}
		return subtasks, nil
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, types.ErrSessionClosed
	}
	entry = &expandEntry{
		parentKey: parentKey,
		count:     count,
		subtasks:  fetched.([]types.Task),
	}
	s.expand[parentID] = entry
	return s.showSubtasksLocked(entry), nil
}

// showSubtasksLocked marks an entry expanded, inserts its cached subtasks
// into the TaskSet, and returns copies for the caller. The session lock
// must be held.
func (s *Session) showSubtasksLocked(entry *expandEntry) []types.Task {
	entry.expanded = true
	out := make([]types.Task, 0, len(entry.subtasks))
	for _, sub := range entry.subtasks {
		s.set.Put(sub.Clone())
		out = append(out, sub)
	}
	return out
}

// reconcileExpandLocked prunes the subtask cache after a reload: entries
// whose parent disappeared or whose subtask count changed are dropped so
// the next expand refetches; surviving expanded entries are re-materialized
// into the fresh TaskSet. The session lock must be held.
func (s *Session) reconcileExpandLocked() {
	for parentID, entry := range s.expand {
		parent := s.set.Get(entry.parentKey)
		if parent == nil || parent.SubtaskCount != entry.count {
			delete(s.expand, parentID)
			continue
		}
		if entry.expanded {
			for _, sub := range entry.subtasks {
				s.set.Put(sub.Clone())
			}
		}
	}
}

// subtaskProvenance derives the provenance of a parent's subtasks.
func subtaskProvenance(parent *types.Task) types.Provenance {
	if parent.Provenance.Kind.IsProjectScoped() {
		return types.Provenance{
			Kind:         types.KindProjectSubtask,
			ProjectID:    parent.Provenance.ProjectID,
			ParentTaskID: parent.ID,
		}
	}
	return types.Provenance{
		Kind:         types.KindStandaloneSubtask,
		ParentTaskID: parent.ID,
	}
}
