package types

// RawTask is the loosely typed record shape returned by the list endpoints
// of the Backend Gateway. The four source collections disagree on how they
// encode status, priority, dates, and list fields, so those fields are left
// untyped here and coerced by the normalizer. A RawTask is never stored in a
// board session; it exists only on the way into normalization.
type RawTask struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Status        string `json:"status"`
	Priority      any    `json:"priority"`
	DueDate       any    `json:"due_date"`
	Tags          any    `json:"tags"`
	AssigneeID    string `json:"assignee_id"`
	Collaborators any    `json:"collaborators"`
	SubtaskCount  int    `json:"subtask_count"`
}
