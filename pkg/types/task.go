package types

import "time"

// Status is the canonical task status. Raw source values are case and
// spacing variants that the normalizer folds into this set.
type Status string

const (
	StatusToDo       Status = "to-do"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
)

// validStatuses is the set of recognized canonical status values.
var validStatuses = map[Status]bool{
	StatusToDo:       true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusBlocked:    true,
}

// IsValid reports whether s is one of the canonical status values.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// Priority bounds. Values outside the range are clamped by the normalizer
// and rejected by mutation validation.
const (
	PriorityMin     = 1
	PriorityMax     = 10
	PriorityDefault = 5
)

// MaxCollaborators caps the collaborator list so that assignee plus
// collaborators never exceeds five people on one task.
const MaxCollaborators = 4

// Task is the canonical, provenance-tagged task representation. Every raw
// record from the four source collections is normalized into this shape
// before it enters a board session.
type Task struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Status          Status     `json:"status"`
	Priority        int        `json:"priority"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	AssigneeID      string     `json:"assignee_id"`
	CollaboratorIDs []string   `json:"collaborator_ids,omitempty"`
	SubtaskCount    int        `json:"subtask_count,omitempty"`
	Provenance      Provenance `json:"provenance"`
}

// Key returns the TaskSet key for this task. Tasks are keyed by
// (provenance kind, id) because subtask ids are only unique within a parent.
func (t *Task) Key() TaskKey {
	return TaskKey{Kind: t.Provenance.Kind, ID: t.ID}
}

// Clone returns a deep copy of the task. Slices and the due date pointer
// are copied so that mutating the clone never aliases the original.
func (t *Task) Clone() *Task {
	c := *t
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	if t.CollaboratorIDs != nil {
		c.CollaboratorIDs = append([]string(nil), t.CollaboratorIDs...)
	}
	return &c
}

// Operation identifies a mutation routed to the Backend Gateway.
type Operation string

const (
	OpCreate       Operation = "create"
	OpUpdate       Operation = "update"
	OpDelete       Operation = "delete"
	OpStatusChange Operation = "status-change"
)

// IsValid reports whether the operation is one of the routed mutations.
func (o Operation) IsValid() bool {
	switch o {
	case OpCreate, OpUpdate, OpDelete, OpStatusChange:
		return true
	}
	return false
}
