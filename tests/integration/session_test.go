package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/mesh-intelligence/taskboard/internal/board"
	"github.com/mesh-intelligence/taskboard/pkg/types"
)

func TestSessionReloadNormalizesSeedData(t *testing.T) {
	b := setupSeeded(t)
	s := newSession(t, b, "u-ana")

	tasks := s.Tasks(board.Filter{})
	if len(tasks) != 3 {
		t.Fatalf("u-ana board: got %d tasks, want 3 (2 from p-launch + 1 standalone)", len(tasks))
	}

	kickoff := findTask(t, s, "t-kickoff")
	if kickoff.Status != types.StatusInProgress {
		t.Errorf("t-kickoff status: got %q, want in-progress (from %q)", kickoff.Status, "In Progress")
	}
	if kickoff.SubtaskCount != 2 {
		t.Errorf("t-kickoff subtask count: got %d, want 2", kickoff.SubtaskCount)
	}

	errands := findTask(t, s, "t-errands")
	if errands.Status != types.StatusToDo {
		t.Errorf("t-errands status: got %q, want to-do (from %q)", errands.Status, "pending")
	}
	if errands.Priority != types.PriorityDefault {
		t.Errorf("t-errands priority: got %d, want default %d (from %q)", errands.Priority, types.PriorityDefault, "three")
	}

	view := s.ProjectedView(board.Filter{})
	if len(view.Groups) != 2 || view.Total != 3 {
		t.Fatalf("view: got %d groups / %d total, want 2 / 3", len(view.Groups), view.Total)
	}
	if view.Groups[0].Label != "Launch Plan" || view.Groups[1].Label != "Standalone" {
		t.Errorf("group labels: got [%s, %s], want [Launch Plan, Standalone]",
			view.Groups[0].Label, view.Groups[1].Label)
	}
}

func TestSessionStatusTogglePersists(t *testing.T) {
	b := setupSeeded(t)
	s := newSession(t, b, "u-ana")

	key := types.TaskKey{Kind: types.KindProjectTask, ID: "t-press"}
	if err := s.SetStatus(context.Background(), key, types.StatusCompleted); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got := s.Get(key); got == nil || got.Status != types.StatusCompleted {
		t.Fatalf("local view after toggle: %+v", got)
	}

	// A fresh session sees the write, so it reached the backend.
	fresh := newSession(t, b, "u-ana")
	if got := findTask(t, fresh, "t-press"); got.Status != types.StatusCompleted {
		t.Fatalf("persisted status: got %q, want completed", got.Status)
	}
}

func TestSessionSubmitEditPersists(t *testing.T) {
	b := setupSeeded(t)
	s := newSession(t, b, "u-ana")

	key := types.TaskKey{Kind: types.KindProjectTask, ID: "t-kickoff"}
	title := "Kickoff deck v2"
	priority := 9
	patch := types.TaskPatch{Title: &title, Priority: &priority}
	if err := s.SubmitEdit(context.Background(), key, patch); err != nil {
		t.Fatalf("SubmitEdit: %v", err)
	}

	got := s.Get(key)
	if got.Title != title || got.Priority != priority {
		t.Fatalf("local view after edit: title %q priority %d", got.Title, got.Priority)
	}

	fresh := newSession(t, b, "u-ana")
	persisted := findTask(t, fresh, "t-kickoff")
	if persisted.Title != title || persisted.Priority != priority {
		t.Fatalf("persisted edit: title %q priority %d", persisted.Title, persisted.Priority)
	}
}

func TestSessionSubmitEditRejectsInvalidPatch(t *testing.T) {
	b := setupSeeded(t)
	s := newSession(t, b, "u-ana")

	key := types.TaskKey{Kind: types.KindProjectTask, ID: "t-kickoff"}
	empty := "   "
	err := s.SubmitEdit(context.Background(), key, types.TaskPatch{Title: &empty})
	if !errors.Is(err, types.ErrValidation) {
		t.Fatalf("blank title: got %v, want ErrValidation", err)
	}

	// A rejected patch leaves no local trace.
	if got := s.Get(key); got.Title != "Kickoff deck" {
		t.Fatalf("title changed by rejected patch: %q", got.Title)
	}
}

func TestSessionDeleteRemovesTaskAndSubtasks(t *testing.T) {
	b := setupSeeded(t)
	s := newSession(t, b, "u-ana")

	key := types.TaskKey{Kind: types.KindStandaloneTask, ID: "t-errands"}
	if err := s.RequestDelete(context.Background(), key); err != nil {
		t.Fatalf("RequestDelete: %v", err)
	}
	if hasTask(s, "t-errands") {
		t.Fatal("t-errands still visible after delete")
	}

	subs, err := b.ListSubtasks(context.Background(), "", "t-errands")
	if err != nil {
		t.Fatalf("ListSubtasks: %v", err)
	}
	if len(subs) != 0 {
		t.Fatalf("subtasks survived delete: %v", subs)
	}
}

func TestSessionCreateAddsToBoard(t *testing.T) {
	b := setupSeeded(t)
	s := newSession(t, b, "u-ana")

	created, err := s.Create(context.Background(), types.Task{
		Title:      "File expense report",
		Status:     types.StatusToDo,
		Priority:   3,
		AssigneeID: "u-ana",
		Provenance: types.Provenance{Kind: types.KindStandaloneTask},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created task has no id")
	}
	if !hasTask(s, created.ID) {
		t.Fatal("created task not in session view")
	}

	fresh := newSession(t, b, "u-ana")
	if !hasTask(fresh, created.ID) {
		t.Fatal("created task not persisted")
	}
}

func TestSessionExpandToggle(t *testing.T) {
	b := setupSeeded(t)
	s := newSession(t, b, "u-ana")
	ctx := context.Background()

	key := types.TaskKey{Kind: types.KindProjectTask, ID: "t-kickoff"}
	subs, err := s.ToggleExpand(ctx, key)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expanded subtasks: got %d, want 2", len(subs))
	}
	if got := len(s.Tasks(board.Filter{})); got != 5 {
		t.Fatalf("board after expand: got %d tasks, want 5", got)
	}

	subs, err = s.ToggleExpand(ctx, key)
	if err != nil {
		t.Fatalf("collapse: %v", err)
	}
	if subs != nil {
		t.Fatalf("collapse returned subtasks: %v", subs)
	}
	if got := len(s.Tasks(board.Filter{})); got != 3 {
		t.Fatalf("board after collapse: got %d tasks, want 3", got)
	}

	// Subtasks themselves cannot be expanded.
	if _, err := s.ToggleExpand(ctx, key); err != nil {
		t.Fatalf("re-expand: %v", err)
	}
	subKey := types.TaskKey{Kind: types.KindProjectSubtask, ID: "t-outline"}
	if _, err := s.ToggleExpand(ctx, subKey); !errors.Is(err, types.ErrInvalidProvenance) {
		t.Fatalf("expanding a subtask: got %v, want ErrInvalidProvenance", err)
	}
}

func TestSessionClosedRejectsOperations(t *testing.T) {
	b := setupSeeded(t)
	s := newSession(t, b, "u-ana")
	s.Close()

	ctx := context.Background()
	if err := s.Reload(ctx); !errors.Is(err, types.ErrSessionClosed) {
		t.Fatalf("Reload after Close: got %v, want ErrSessionClosed", err)
	}
	key := types.TaskKey{Kind: types.KindProjectTask, ID: "t-press"}
	if err := s.SetStatus(ctx, key, types.StatusCompleted); !errors.Is(err, types.ErrSessionClosed) {
		t.Fatalf("SetStatus after Close: got %v, want ErrSessionClosed", err)
	}
}
