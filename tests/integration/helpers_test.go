// Package integration exercises the taskboard stack end to end: the board
// session driving the SQLite gateway against an isolated temp database.
package integration

import (
	"context"
	"testing"

	"github.com/mesh-intelligence/taskboard/internal/board"
	"github.com/mesh-intelligence/taskboard/internal/sqlite"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// setupBackend creates a backend attached to an isolated temp directory.
// Each test gets its own database for isolation.
func setupBackend(t *testing.T) *sqlite.Backend {
	t.Helper()
	b := sqlite.NewBackend()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir(), Actor: "u-ana"}
	if err := b.Attach(cfg); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

// setupSeeded creates an attached backend populated with the demo rows.
func setupSeeded(t *testing.T) *sqlite.Backend {
	t.Helper()
	b := setupBackend(t)
	if err := b.Seed(context.Background()); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return b
}

// newSession opens a reloaded board session for one actor.
func newSession(t *testing.T, gw types.Gateway, actor string) *board.Session {
	t.Helper()
	s := board.NewSession(gw, actor, nil)
	if err := s.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// findTask scans the session's flat view for a task id, failing when absent.
func findTask(t *testing.T, s *board.Session, id string) *types.Task {
	t.Helper()
	for _, task := range s.Tasks(board.Filter{}) {
		if task.ID == id {
			return task
		}
	}
	t.Fatalf("task %s not in session", id)
	return nil
}

// hasTask reports whether the session's flat view contains a task id.
func hasTask(s *board.Session, id string) bool {
	for _, task := range s.Tasks(board.Filter{}) {
		if task.ID == id {
			return true
		}
	}
	return false
}
