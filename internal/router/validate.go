package router

import (
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/taskboard/internal/normalize"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// maxAssigned is the most people one task can involve: the assignee plus
// MaxCollaborators collaborators.
const maxAssigned = 1 + types.MaxCollaborators

// ValidatePayload checks the cross-provenance business rules and returns
// the payload as it will be dispatched. The standalone policy is enforced
// here, not merely defaulted: standalone tasks always carry the acting user
// as assignee and no collaborators, whatever the caller supplied.
//
// Priority is clamped rather than rejected; every other violation is a
// ValidationError naming the offending field.
func ValidatePayload(task types.Task, actorID string) (types.Task, error) {
	task.Title = strings.TrimSpace(task.Title)
	if task.Title == "" {
		return types.Task{}, &types.ValidationError{Field: "title", Reason: "must not be empty"}
	}

	task.Priority = normalize.ClampPriority(task.Priority)

	if !task.Status.IsValid() {
		return types.Task{}, &types.ValidationError{Field: "status", Reason: "unknown status " + string(task.Status)}
	}

	if !task.Provenance.Kind.IsProjectScoped() {
		task.AssigneeID = actorID
		task.CollaboratorIDs = nil
	}

	if strings.TrimSpace(task.AssigneeID) == "" {
		return types.Task{}, &types.ValidationError{Field: "assignee", Reason: "at least one assignee is required"}
	}

	task.CollaboratorIDs = dropAssignee(task.CollaboratorIDs, task.AssigneeID)
	if 1+len(task.CollaboratorIDs) > maxAssigned {
		return types.Task{}, &types.ValidationError{Field: "collaborators", Reason: "at most 5 people per task"}
	}

	return task, nil
}

// ParseDueDate validates a user-supplied due date string. Unlike
// normalization, which degrades silently, an edit with an unparsable date
// is rejected and never dispatched. An empty string clears the deadline.
func ParseDueDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t := normalize.ParseInstant(s)
	if t == nil {
		return nil, &types.ValidationError{Field: "due_date", Reason: fmt.Sprintf("unparsable date %q", s)}
	}
	return t, nil
}

// dropAssignee removes the assignee from the collaborator list, preserving
// order.
func dropAssignee(ids []string, assignee string) []string {
	var out []string
	for _, id := range ids {
		if id != assignee && strings.TrimSpace(id) != "" {
			out = append(out, id)
		}
	}
	return out
}
