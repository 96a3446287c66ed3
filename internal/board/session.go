package board

import (
	"context"
	"log"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/mesh-intelligence/taskboard/internal/identity"
	"github.com/mesh-intelligence/taskboard/internal/normalize"
	"github.com/mesh-intelligence/taskboard/internal/router"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// warnLog records aggregation-level resolution gaps (missing projects).
var warnLog = log.New(os.Stderr, "[WARN] board: ", log.LstdFlags)

// Session owns the merged TaskSet for the lifetime of one board view. It is
// rebuilt wholesale by Reload and patched incrementally by the optimistic
// mutation methods between reloads. A closed session stops applying
// late-arriving reconciliations.
//
// Methods are safe for concurrent use. Mutations on one task key are
// serialized by the one-pending-patch-per-key rule; mutations on different
// keys are independent.
type Session struct {
	gw      types.Gateway
	actorID string

	// projectIDs restricts aggregation to the listed projects; empty means
	// every project the actor belongs to.
	projectIDs []string

	mu       sync.Mutex
	closed   bool
	set      *TaskSet
	projects map[string]types.Project
	dir      *identity.Directory
	pending  map[types.TaskKey]bool
	edits    map[types.TaskKey]*router.EditSession
	expand   map[string]*expandEntry
	lastErr  error

	fetches singleflight.Group
}

// NewSession creates a session over a gateway for one acting user. Call
// Reload before reading views.
func NewSession(gw types.Gateway, actorID string, projectIDs []string) *Session {
	return &Session{
		gw:         gw,
		actorID:    actorID,
		projectIDs: append([]string(nil), projectIDs...),
		set:        NewTaskSet(),
		projects:   make(map[string]types.Project),
		dir:        identity.NewDirectory(nil),
		pending:    make(map[types.TaskKey]bool),
		edits:      make(map[types.TaskKey]*router.EditSession),
		expand:     make(map[string]*expandEntry),
	}
}

// Actor returns the acting user id the session was opened with.
func (s *Session) Actor() string {
	return s.actorID
}

// Reload rebuilds the TaskSet wholesale from the gateway: project listings,
// standalone tasks, the user directory, and project records. Subtask cache
// entries survive a reload only while their parent's subtask count is
// unchanged. Reload is the correctness backstop after any successful
// mutation; it bounds the lifetime of optimistic-patch drift.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.ErrSessionClosed
	}
	s.mu.Unlock()

	projectIDs := s.projectIDs
	if len(projectIDs) == 0 {
		listed, err := s.gw.ListProjects(ctx, s.actorID)
		if err != nil {
			return err
		}
		for _, p := range listed {
			projectIDs = append(projectIDs, p.ID)
		}
		sort.Strings(projectIDs)
	}

	src := Sources{ProjectTasks: make(map[string][]types.RawTask, len(projectIDs))}
	projects := make(map[string]types.Project, len(projectIDs))
	for _, id := range projectIDs {
		p, err := s.gw.GetProject(ctx, id, s.actorID)
		if err != nil {
			// A project lookup miss degrades to an id-labelled group.
			warnLog.Printf("project %s unresolved: %v", id, err)
		} else if p != nil {
			projects[id] = *p
		}

		tasks, err := s.gw.ListProjectTasks(ctx, id, s.actorID)
		if err != nil {
			return err
		}
		src.ProjectTasks[id] = tasks
	}

	standalone, err := s.gw.ListStandaloneTasks(ctx, s.actorID)
	if err != nil {
		return err
	}
	src.StandaloneTasks = standalone

	users, err := s.gw.ListUsers(ctx)
	if err != nil {
		return err
	}

	set := Aggregate(src, s.actorID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return types.ErrSessionClosed
	}
	s.set = set
	s.projects = projects
	s.dir = identity.NewDirectory(users)
	s.lastErr = nil
	s.reconcileExpandLocked()
	return nil
}

// ProjectedView returns the filtered, sorted, grouped projection of the
// current TaskSet.
func (s *Session) ProjectedView(f Filter) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ProjectView(s.set, s.projects, f)
}

// Tasks returns the filtered, sorted flat task list (the board column
// source).
func (s *Session) Tasks(f Filter) []*types.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FilterSort(s.set, s.projects, f)
}

// Get returns a copy of one task, or nil.
func (s *Session) Get(key types.TaskKey) *types.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.set.Get(key); t != nil {
		return t.Clone()
	}
	return nil
}

// Resolve maps a user id to a display profile via the session's directory
// cache.
func (s *Session) Resolve(id string) *types.UserProfile {
	s.mu.Lock()
	dir := s.dir
	s.mu.Unlock()
	return dir.Resolve(id)
}

// ProjectName returns the display name for a grouping key.
func (s *Session) ProjectName(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return groupLabel(key, s.projects)
}

// LastError returns the most recent dispatch failure surfaced to the
// session, or nil. Reload clears it.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close tears the session down. In-flight reconciliations become no-ops
// and subsequent operations return ErrSessionClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// SubmitEdit validates a patch against the task it targets, applies it
// optimistically, and dispatches the update. The key is reserved as pending
// before validation starts, so a concurrent submit for the same key returns
// ErrPatchPending instead of racing the in-flight one. On dispatch failure
// the TaskSet is restored to its pre-patch snapshot and the error is
// recorded in the session error slot.
func (s *Session) SubmitEdit(ctx context.Context, key types.TaskKey, patch types.TaskPatch) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.ErrSessionClosed
	}
	current := s.set.Get(key)
	if current == nil {
		s.mu.Unlock()
		return types.ErrNotFound
	}
	if s.pending[key] {
		s.mu.Unlock()
		return types.ErrPatchPending
	}
	edit, ok := s.edits[key]
	if !ok {
		edit = router.NewEditSession()
		s.edits[key] = edit
	}
	if err := edit.Begin(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.pending[key] = true

	patched := patch.ApplyTo(current)
	snapshot := current.Clone()
	s.mu.Unlock()

	var (
		validated  types.Task
		dispatched bool
	)
	err := edit.Submit(
		func() error {
			v, err := router.ValidatePayload(*patched, s.actorID)
			if err != nil {
				return err
			}
			validated = normalize.Task(v, s.actorID)
			return nil
		},
		func() error {
			dispatched = true
			// Optimistic apply happens only after validation: a payload
			// that never dispatches leaves no local trace.
			s.mu.Lock()
			if s.closed {
				s.mu.Unlock()
				return types.ErrSessionClosed
			}
			s.set.Put(validated.Clone())
			s.mu.Unlock()

			dispatch, err := router.Route(&validated, types.OpUpdate)
			if err != nil {
				s.rollback(key, snapshot, -1, err)
				return err
			}
			echo, err := router.Do(ctx, s.gw, dispatch, validated)
			if err != nil {
				s.rollback(key, snapshot, -1, err)
				return err
			}
			s.reconcile(key, echo, &validated)
			return nil
		},
	)
	if err != nil && !dispatched {
		// Validation never touched the set; just release the reservation.
		s.mu.Lock()
		if !s.closed {
			delete(s.pending, key)
		}
		s.mu.Unlock()
	}
	return err
}

// SetStatus applies a status toggle optimistically and dispatches a
// status-only update.
func (s *Session) SetStatus(ctx context.Context, key types.TaskKey, status types.Status) error {
	if !status.IsValid() {
		return &types.ValidationError{Field: "status", Reason: "unknown status " + string(status)}
	}
	patch := types.TaskPatch{Status: &status}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.ErrSessionClosed
	}
	current := s.set.Get(key)
	if current == nil {
		s.mu.Unlock()
		return types.ErrNotFound
	}
	if s.pending[key] {
		s.mu.Unlock()
		return types.ErrPatchPending
	}
	snapshot := current.Clone()
	updated := patch.ApplyTo(current)
	s.pending[key] = true
	s.set.Put(updated)
	s.mu.Unlock()

	dispatch, err := router.Route(updated, types.OpStatusChange)
	if err != nil {
		s.rollback(key, snapshot, -1, err)
		return err
	}
	echo, err := router.Do(ctx, s.gw, dispatch, *updated)
	if err != nil {
		s.rollback(key, snapshot, -1, err)
		return err
	}
	s.reconcile(key, echo, updated)
	return nil
}

// RequestDelete removes a task optimistically and dispatches the delete.
// On failure the task reappears at its original position.
func (s *Session) RequestDelete(ctx context.Context, key types.TaskKey) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.ErrSessionClosed
	}
	current := s.set.Get(key)
	if current == nil {
		s.mu.Unlock()
		return types.ErrNotFound
	}
	if s.pending[key] {
		s.mu.Unlock()
		return types.ErrPatchPending
	}
	snapshot := current.Clone()
	s.pending[key] = true
	pos := s.set.Delete(key)
	s.mu.Unlock()

	dispatch, err := router.Route(snapshot, types.OpDelete)
	if err != nil {
		s.rollback(key, snapshot, pos, err)
		return err
	}
	if _, err := router.Do(ctx, s.gw, dispatch, *snapshot); err != nil {
		s.rollback(key, snapshot, pos, err)
		return err
	}

	s.mu.Lock()
	if !s.closed {
		delete(s.pending, key)
		delete(s.edits, key)
		// Subtasks materialized under a deleted parent go with it; the
		// backend cascades the delete, so the local view must too.
		if entry, ok := s.expand[snapshot.ID]; ok {
			if entry.expanded {
				for _, sub := range entry.subtasks {
					s.set.Delete(sub.Key())
				}
			}
			delete(s.expand, snapshot.ID)
		}
		s.lastErr = nil
	}
	s.mu.Unlock()
	return nil
}

// Create validates a new task payload and dispatches the create for its
// provenance scope. The stored record (normalized) is added to the TaskSet
// on success. Creation is not optimistic: the backend assigns the id.
func (s *Session) Create(ctx context.Context, payload types.Task) (*types.Task, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, types.ErrSessionClosed
	}
	s.mu.Unlock()

	validated, err := router.ValidatePayload(payload, s.actorID)
	if err != nil {
		return nil, err
	}
	validated = normalize.Task(validated, s.actorID)

	dispatch, err := router.Route(&validated, types.OpCreate)
	if err != nil {
		return nil, err
	}
	echo, err := router.Do(ctx, s.gw, dispatch, validated)
	if err != nil {
		s.mu.Lock()
		if !s.closed {
			s.lastErr = err
		}
		s.mu.Unlock()
		return nil, err
	}

	created := validated
	if echo != nil {
		created = normalize.Normalize(*echo, validated.Provenance, s.actorID)
	}

	s.mu.Lock()
	if !s.closed {
		s.set.Put(created.Clone())
		s.lastErr = nil
	}
	s.mu.Unlock()
	return &created, nil
}

// rollback restores the pre-patch snapshot and records the failure. It
// no-ops when the session has been closed since the patch was applied.
func (s *Session) rollback(key types.TaskKey, snapshot *types.Task, pos int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if pos >= 0 {
		s.set.RestoreAt(snapshot, pos)
	} else {
		s.set.Put(snapshot)
	}
	delete(s.pending, key)
	s.lastErr = err
}

// reconcile keeps the optimistic patch, replacing it with the authoritative
// echo when the gateway returned one. No-ops on a closed session.
func (s *Session) reconcile(key types.TaskKey, echo *types.RawTask, applied *types.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if echo != nil {
		t := normalize.Normalize(*echo, applied.Provenance, s.actorID)
		t.SubtaskCount = applied.SubtaskCount
		s.set.Put(&t)
	}
	delete(s.pending, key)
	s.lastErr = nil
}
