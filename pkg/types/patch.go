package types

import "time"

// TaskPatch is a partial task update. Nil fields are left untouched when the
// patch is applied; ClearDueDate removes an existing deadline (a nil DueDate
// alone means "no change").
type TaskPatch struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Status          *Status    `json:"status,omitempty"`
	Priority        *int       `json:"priority,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	ClearDueDate    bool       `json:"clear_due_date,omitempty"`
	Tags            *[]string  `json:"tags,omitempty"`
	AssigneeID      *string    `json:"assignee_id,omitempty"`
	CollaboratorIDs *[]string  `json:"collaborator_ids,omitempty"`
}

// IsZero reports whether the patch changes nothing.
func (p TaskPatch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.DueDate == nil && !p.ClearDueDate &&
		p.Tags == nil && p.AssigneeID == nil && p.CollaboratorIDs == nil
}

// ApplyTo merges the patch into a deep copy of t and returns the copy. The
// original task is never modified; the optimistic update controller relies
// on that to keep its pre-patch snapshot intact.
func (p TaskPatch) ApplyTo(t *Task) *Task {
	out := t.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.Status != nil {
		out.Status = *p.Status
	}
	if p.Priority != nil {
		out.Priority = *p.Priority
	}
	if p.ClearDueDate {
		out.DueDate = nil
	} else if p.DueDate != nil {
		due := *p.DueDate
		out.DueDate = &due
	}
	if p.Tags != nil {
		out.Tags = append([]string(nil), *p.Tags...)
	}
	if p.AssigneeID != nil {
		out.AssigneeID = *p.AssigneeID
	}
	if p.CollaboratorIDs != nil {
		out.CollaboratorIDs = append([]string(nil), *p.CollaboratorIDs...)
	}
	return out
}
