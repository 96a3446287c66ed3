package types

import "fmt"

// ProvenanceKind identifies which of the four source collections a task
// originated from. The kind determines which scope identifiers are present
// and which backend mutation targets are valid.
type ProvenanceKind string

const (
	KindProjectTask       ProvenanceKind = "project-task"
	KindProjectSubtask    ProvenanceKind = "project-subtask"
	KindStandaloneTask    ProvenanceKind = "standalone-task"
	KindStandaloneSubtask ProvenanceKind = "standalone-subtask"
)

// validKinds is the set of recognized provenance kinds.
var validKinds = map[ProvenanceKind]bool{
	KindProjectTask:       true,
	KindProjectSubtask:    true,
	KindStandaloneTask:    true,
	KindStandaloneSubtask: true,
}

// IsValid reports whether k is one of the four provenance kinds.
func (k ProvenanceKind) IsValid() bool {
	return validKinds[k]
}

// IsProjectScoped reports whether tasks of this kind carry a ProjectID.
func (k ProvenanceKind) IsProjectScoped() bool {
	return k == KindProjectTask || k == KindProjectSubtask
}

// IsSubtask reports whether tasks of this kind carry a ParentTaskID.
func (k ProvenanceKind) IsSubtask() bool {
	return k == KindProjectSubtask || k == KindStandaloneSubtask
}

// Provenance tags a task with its originating collection and the scope
// identifiers that collection requires.
type Provenance struct {
	Kind         ProvenanceKind `json:"kind"`
	ProjectID    string         `json:"project_id,omitempty"`
	ParentTaskID string         `json:"parent_task_id,omitempty"`
}

// Validate checks the kind/field invariant: ProjectID is present iff the
// kind is project-scoped, ParentTaskID is present iff the kind is a subtask
// kind. The mutation router refuses to dispatch on any other combination.
func (p Provenance) Validate() error {
	if !p.Kind.IsValid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidProvenance, p.Kind)
	}
	if p.Kind.IsProjectScoped() && p.ProjectID == "" {
		return fmt.Errorf("%w: %s requires a project id", ErrInvalidProvenance, p.Kind)
	}
	if !p.Kind.IsProjectScoped() && p.ProjectID != "" {
		return fmt.Errorf("%w: %s must not carry a project id", ErrInvalidProvenance, p.Kind)
	}
	if p.Kind.IsSubtask() && p.ParentTaskID == "" {
		return fmt.Errorf("%w: %s requires a parent task id", ErrInvalidProvenance, p.Kind)
	}
	if !p.Kind.IsSubtask() && p.ParentTaskID != "" {
		return fmt.Errorf("%w: %s must not carry a parent task id", ErrInvalidProvenance, p.Kind)
	}
	return nil
}

// TaskKey addresses one task inside a TaskSet. Raw ids alone are not unique
// across collections, so the provenance kind is part of the key.
type TaskKey struct {
	Kind ProvenanceKind
	ID   string
}

// String renders the key for log and error messages.
func (k TaskKey) String() string {
	return string(k.Kind) + "/" + k.ID
}

// TaskRef names an existing task for gateway mutations: its provenance
// (scope identifiers) plus the task id within that scope.
type TaskRef struct {
	Provenance Provenance `json:"provenance"`
	TaskID     string     `json:"task_id"`
}
