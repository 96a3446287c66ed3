// Shared helpers for taskboard CLI commands.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/mesh-intelligence/taskboard/internal/board"
	"github.com/mesh-intelligence/taskboard/internal/sqlite"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// openSession resolves directories, attaches the SQLite gateway, and loads
// a board session for the acting user. The caller must defer close().
func openSession(ctx context.Context) (*board.Session, func(), error) {
	gw, err := attachBackend()
	if err != nil {
		return nil, nil, err
	}
	closeAll := func() {
		_ = gw.Close()
	}

	session := board.NewSession(gw, resolveActor(), nil)
	if err := session.Reload(ctx); err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("load board: %w", err)
	}
	return session, func() {
		session.Close()
		closeAll()
	}, nil
}

// attachBackend resolves the data directory, creates a SQLite backend, and
// attaches it. The caller must close the returned backend.
func attachBackend() (*sqlite.Backend, error) {
	dataDir, err := resolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	cfg := types.Config{
		Backend: types.BackendSQLite,
		DataDir: dataDir,
		Actor:   resolveActor(),
	}

	backend := sqlite.NewBackend()
	if err := backend.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach backend: %w", err)
	}
	return backend, nil
}

// findTask locates a task by id across the session's visible tasks. A fresh
// session holds only top-level tasks, so when the id is not in view the
// parents with subtasks are expanded and the lookup retried before giving
// up. Task ids are unique per collection, not globally, so an ambiguous id
// is an error the caller must resolve with --kind.
func findTask(ctx context.Context, s *board.Session, id, kindFlag string) (*types.Task, error) {
	matches := matchTasks(s, id, kindFlag)
	if len(matches) == 0 {
		if err := expandParents(ctx, s); err != nil {
			return nil, err
		}
		matches = matchTasks(s, id, kindFlag)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("task %q: %w", id, types.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		var kinds []string
		for _, t := range matches {
			kinds = append(kinds, string(t.Provenance.Kind))
		}
		return nil, fmt.Errorf("task id %q is ambiguous across %s; pass --kind", id, strings.Join(kinds, ", "))
	}
}

func matchTasks(s *board.Session, id, kindFlag string) []*types.Task {
	var matches []*types.Task
	for _, t := range s.Tasks(board.Filter{}) {
		if t.ID != id {
			continue
		}
		if kindFlag != "" && string(t.Provenance.Kind) != kindFlag {
			continue
		}
		matches = append(matches, t)
	}
	return matches
}

// expandParents materializes the subtasks of every collapsed parent that
// has any, so id lookups can see them. Parents whose subtasks are already
// in view are left alone.
func expandParents(ctx context.Context, s *board.Session) error {
	tasks := s.Tasks(board.Filter{})
	shown := make(map[string]bool)
	for _, t := range tasks {
		if t.Provenance.Kind.IsSubtask() {
			shown[t.Provenance.ParentTaskID] = true
		}
	}
	for _, t := range tasks {
		if t.SubtaskCount == 0 || t.Provenance.Kind.IsSubtask() || shown[t.ID] {
			continue
		}
		if _, err := s.ToggleExpand(ctx, t.Key()); err != nil {
			return fmt.Errorf("load subtasks of %s: %w", t.ID, err)
		}
	}
	return nil
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// taskLine renders one task for plain-text listings.
func taskLine(s *board.Session, t *types.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-22s %-12s p%-2d %s", t.ID, t.Status, t.Priority, t.Title)
	if t.DueDate != nil {
		fmt.Fprintf(&b, "  due %s", t.DueDate.Format("2006-01-02"))
	}
	if t.AssigneeID != "" {
		if u := s.Resolve(t.AssigneeID); u != nil {
			fmt.Fprintf(&b, "  @%s", u.DisplayName)
		}
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(&b, "  [%s]", strings.Join(t.Tags, ", "))
	}
	return b.String()
}
