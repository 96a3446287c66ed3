// Package normalize converts raw task records from the four source
// collections into the canonical Task representation. Every consumer of
// task data goes through this package; the status/priority/date folding
// rules live nowhere else.
//
// Normalization never fails: malformed fields degrade to documented
// defaults so the aggregator always receives a structurally valid Task.
package normalize

import (
	"strings"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// statusAliases folds the raw status spellings seen across the source
// collections into the canonical set. Lookup is on the lower-cased,
// trimmed raw value.
var statusAliases = map[string]types.Status{
	"todo":        types.StatusToDo,
	"to-do":       types.StatusToDo,
	"to do":       types.StatusToDo,
	"open":        types.StatusToDo,
	"pending":     types.StatusToDo,
	"in-progress": types.StatusInProgress,
	"in progress": types.StatusInProgress,
	"in_progress": types.StatusInProgress,
	"done":        types.StatusCompleted,
	"completed":   types.StatusCompleted,
	"complete":    types.StatusCompleted,
	"closed":      types.StatusCompleted,
	"blocked":     types.StatusBlocked,
}

// NormalizeStatus folds a raw status string into the canonical set.
// Unrecognized values default to "to-do".
func NormalizeStatus(raw string) types.Status {
	key := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := statusAliases[key]; ok {
		return s
	}
	return types.StatusToDo
}

// ClampPriority forces a priority into [PriorityMin, PriorityMax].
func ClampPriority(p int) int {
	if p < types.PriorityMin {
		return types.PriorityMin
	}
	if p > types.PriorityMax {
		return types.PriorityMax
	}
	return p
}

// Normalize converts one raw record into a canonical Task tagged with the
// given provenance. actorID is the acting user; standalone tasks are always
// assigned to the actor regardless of what the record claims.
func Normalize(raw types.RawTask, prov types.Provenance, actorID string) types.Task {
	t := types.Task{
		ID:           raw.ID,
		Title:        strings.TrimSpace(raw.Title),
		Description:  raw.Description,
		Status:       NormalizeStatus(raw.Status),
		Priority:     coercePriority(raw.Priority),
		DueDate:      CoerceInstant(raw.DueDate),
		Tags:         CoerceStringSet(raw.Tags),
		AssigneeID:   strings.TrimSpace(raw.AssigneeID),
		SubtaskCount: raw.SubtaskCount,
		Provenance:   prov,
	}

	collaborators := CoerceStringSet(raw.Collaborators)

	// Policy invariant: standalone work belongs to the acting user alone.
	if !prov.Kind.IsProjectScoped() {
		t.AssigneeID = actorID
		collaborators = nil
	}

	t.CollaboratorIDs = excludeAssignee(collaborators, t.AssigneeID)
	if len(t.CollaboratorIDs) > types.MaxCollaborators {
		t.CollaboratorIDs = t.CollaboratorIDs[:types.MaxCollaborators]
	}

	return t
}

// Task re-normalizes a canonical task, used when a patch may have
// introduced raw values again (status casing, duplicate collaborators).
// Normalize(Task(t)) is a fixed point.
func Task(t types.Task, actorID string) types.Task {
	raw := types.RawTask{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Status:        string(t.Status),
		Priority:      t.Priority,
		Tags:          t.Tags,
		AssigneeID:    t.AssigneeID,
		Collaborators: t.CollaboratorIDs,
		SubtaskCount:  t.SubtaskCount,
	}
	out := Normalize(raw, t.Provenance, actorID)
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	return out
}

// excludeAssignee drops the assignee from the collaborator list, keeping
// order. A task's assignee is never also a collaborator.
func excludeAssignee(ids []string, assignee string) []string {
	if assignee == "" || len(ids) == 0 {
		return ids
	}
	out := ids[:0]
	for _, id := range ids {
		if id != assignee {
			out = append(out, id)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
