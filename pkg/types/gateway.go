package types

import (
	"context"
	"errors"
)

// Gateway is the Backend Gateway collaborator: the four task collections,
// the user directory, and project lookups. List methods return RawTask
// records exactly as the backing store encodes them; normalization happens
// on the consumer side. Mutation methods return the authoritative record
// echo when the backend produces one, or nil when the local write is all
// there is.
//
// All methods are safe to call from any goroutine. Implementations fail
// with ErrNotAttached after Close.
type Gateway interface {
	// ListProjectTasks returns the top-level tasks of one project visible
	// to the viewer.
	ListProjectTasks(ctx context.Context, projectID, viewerID string) ([]RawTask, error)

	// ListStandaloneTasks returns the viewer's standalone tasks.
	ListStandaloneTasks(ctx context.Context, viewerID string) ([]RawTask, error)

	// ListSubtasks returns the subtasks of one parent task. projectID is
	// empty for standalone parents.
	ListSubtasks(ctx context.Context, projectID, parentTaskID string) ([]RawTask, error)

	// CreateTask inserts a task into the collection named by scope and
	// returns the stored record.
	CreateTask(ctx context.Context, scope Provenance, payload Task) (*RawTask, error)

	// UpdateTask replaces the mutable fields of the referenced task.
	UpdateTask(ctx context.Context, ref TaskRef, payload Task) (*RawTask, error)

	// UpdateTaskStatus changes only the status of the referenced task.
	UpdateTaskStatus(ctx context.Context, ref TaskRef, status Status) (*RawTask, error)

	// DeleteTask removes the referenced task. Deleting a parent removes
	// its subtasks.
	DeleteTask(ctx context.Context, ref TaskRef) error

	// ListUsers returns the user directory.
	ListUsers(ctx context.Context) ([]UserProfile, error)

	// GetProject returns one project visible to the viewer.
	GetProject(ctx context.Context, projectID, viewerID string) (*Project, error)

	// ListProjects returns every project the viewer belongs to.
	ListProjects(ctx context.Context, viewerID string) ([]Project, error)

	// Close releases gateway resources. Idempotent.
	Close() error
}

// Config selects and parameterizes a Gateway backend.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`
	Actor   string `json:"actor" yaml:"actor"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrActorEmpty     = errors.New("actor must not be empty")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.Actor == "" {
		return ErrActorEmpty
	}
	return nil
}
