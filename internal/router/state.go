package router

import (
	"sync"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// EditState is the state of one edit session.
type EditState string

const (
	EditIdle        EditState = "idle"
	EditEditing     EditState = "editing"
	EditValidating  EditState = "validating"
	EditDispatching EditState = "dispatching"
	EditReconciled  EditState = "reconciled"
	EditFailed      EditState = "failed"
)

// IsValid reports whether s is a recognized edit state.
func (s EditState) IsValid() bool {
	switch s {
	case EditIdle, EditEditing, EditValidating, EditDispatching, EditReconciled, EditFailed:
		return true
	}
	return false
}

// ValidTransitions returns the states reachable from s.
//
//	idle → editing → validating → dispatching → reconciled
//	              ↖︎      ↓              ↓            ↓
//	               ← ← (back)        failed → editing
//
// A failed dispatch rolls back and returns the session to editing so the
// user can retry; reconciled sessions may start a fresh edit.
func (s EditState) ValidTransitions() []EditState {
	switch s {
	case EditIdle:
		return []EditState{EditEditing}
	case EditEditing:
		return []EditState{EditValidating, EditIdle}
	case EditValidating:
		return []EditState{EditDispatching, EditEditing}
	case EditDispatching:
		return []EditState{EditReconciled, EditFailed}
	case EditReconciled:
		return []EditState{EditEditing, EditIdle}
	case EditFailed:
		return []EditState{EditEditing}
	default:
		return nil
	}
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s EditState) CanTransitionTo(target EditState) bool {
	for _, valid := range s.ValidTransitions() {
		if valid == target {
			return true
		}
	}
	return false
}

// EditSession drives one edit through the submit lifecycle. Dispatching is
// re-entrant-guarded: a second Submit while one is in flight returns
// ErrEditInFlight and is otherwise ignored, never queued.
type EditSession struct {
	mu      sync.Mutex
	state   EditState
	lastErr error
}

// NewEditSession returns a session in the idle state.
func NewEditSession() *EditSession {
	return &EditSession{state: EditIdle}
}

// State returns the current state.
func (s *EditSession) State() EditState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the error recorded by the most recent failed submit,
// or nil. It is cleared by the next successful submit.
func (s *EditSession) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Begin opens the session for editing. Legal from idle, reconciled, and
// failed, and idempotent while already editing (a failed submit leaves the
// session in editing for the retry). While a submit is validating or
// dispatching, Begin returns ErrEditInFlight: the validating-to-editing
// transition belongs to Submit's failure path, not to a re-entrant caller.
func (s *EditSession) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case EditEditing:
		return nil
	case EditIdle, EditReconciled, EditFailed:
		s.state = EditEditing
		return nil
	default:
		return types.ErrEditInFlight
	}
}

// Submit runs validate and then dispatch, walking the session through
// validating and dispatching. A validation failure returns the session to
// editing without dispatching. A dispatch failure passes through failed and
// lands back in editing with the error recorded; the caller is responsible
// for rolling back its optimistic patch.
func (s *EditSession) Submit(validate func() error, dispatch func() error) error {
	s.mu.Lock()
	if s.state == EditDispatching {
		s.mu.Unlock()
		return types.ErrEditInFlight
	}
	if !s.state.CanTransitionTo(EditValidating) {
		s.mu.Unlock()
		return types.ErrEditInFlight
	}
	s.state = EditValidating
	s.mu.Unlock()

	if err := validate(); err != nil {
		s.setState(EditEditing, err)
		return err
	}

	s.setState(EditDispatching, nil)
	if err := dispatch(); err != nil {
		// failed is a transient state: record it, then settle in editing.
		s.setState(EditFailed, err)
		s.setState(EditEditing, err)
		return err
	}

	s.setState(EditReconciled, nil)
	return nil
}

func (s *EditSession) setState(state EditState, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.lastErr = err
}
