package board

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// fakeGateway is an in-memory Gateway with scriptable failures and call
// counters, for exercising the session's optimistic update paths.
type fakeGateway struct {
	mu sync.Mutex

	projects     map[string]types.Project
	projectTasks map[string][]types.RawTask
	standalone   []types.RawTask
	subtasks     map[string][]types.RawTask

	users []types.UserProfile

	mutateErr      error
	subtaskErr     error
	subtaskFetches int
	mutations      int
	blockMutate    chan struct{}
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		projects: map[string]types.Project{
			"p1": {ID: "p1", Name: "Launch Plan", TeamIDs: []string{"me", "u2"}},
		},
		projectTasks: map[string][]types.RawTask{
			"p1": {
				{ID: "t1", Title: "Kickoff", Status: "In Progress", Priority: 8, AssigneeID: "me", SubtaskCount: 2},
				{ID: "t2", Title: "Press release", Status: "todo", Priority: 6, AssigneeID: "u2"},
			},
		},
		standalone: []types.RawTask{
			{ID: "t3", Title: "Errands", Status: "pending", Priority: "three", AssigneeID: "me"},
		},
		subtasks: map[string][]types.RawTask{
			"t1": {
				{ID: "s1", Title: "Outline", Status: "done", AssigneeID: "me"},
				{ID: "s2", Title: "Review", Status: "todo", AssigneeID: "u2"},
			},
		},
		users: []types.UserProfile{
			{ID: "me", FullName: "Ana"},
			{ID: "u2", FullName: "Bruno"},
		},
	}
}

func (g *fakeGateway) ListProjectTasks(ctx context.Context, projectID, viewerID string) ([]types.RawTask, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.projectTasks[projectID], nil
}

func (g *fakeGateway) ListStandaloneTasks(ctx context.Context, viewerID string) ([]types.RawTask, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.standalone, nil
}

func (g *fakeGateway) ListSubtasks(ctx context.Context, projectID, parentTaskID string) ([]types.RawTask, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.subtaskFetches++
	if g.subtaskErr != nil {
		return nil, g.subtaskErr
	}
	return g.subtasks[parentTaskID], nil
}

func (g *fakeGateway) CreateTask(ctx context.Context, scope types.Provenance, payload types.Task) (*types.RawTask, error) {
	if err := g.gate(); err != nil {
		return nil, err
	}
	return &types.RawTask{
		ID:         "created-1",
		Title:      payload.Title,
		Status:     string(payload.Status),
		Priority:   payload.Priority,
		AssigneeID: payload.AssigneeID,
	}, nil
}

func (g *fakeGateway) UpdateTask(ctx context.Context, ref types.TaskRef, payload types.Task) (*types.RawTask, error) {
	if err := g.gate(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (g *fakeGateway) UpdateTaskStatus(ctx context.Context, ref types.TaskRef, status types.Status) (*types.RawTask, error) {
	if err := g.gate(); err != nil {
		return nil, err
	}
	return nil, nil
}

func (g *fakeGateway) DeleteTask(ctx context.Context, ref types.TaskRef) error {
	return g.gate()
}

func (g *fakeGateway) ListUsers(ctx context.Context) ([]types.UserProfile, error) {
	return g.users, nil
}

func (g *fakeGateway) GetProject(ctx context.Context, projectID, viewerID string) (*types.Project, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.projects[projectID]
	if !ok {
		return nil, types.ErrNotFound
	}
	return &p, nil
}

func (g *fakeGateway) ListProjects(ctx context.Context, viewerID string) ([]types.Project, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []types.Project
	for _, p := range g.projects {
		out = append(out, p)
	}
	return out, nil
}

func (g *fakeGateway) Close() error { return nil }

// gate applies the scripted failure and optional blocking to a mutation.
func (g *fakeGateway) gate() error {
	g.mu.Lock()
	g.mutations++
	block := g.blockMutate
	err := g.mutateErr
	g.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (g *fakeGateway) mutationCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mutations
}

func (g *fakeGateway) failMutations(err error) {
	g.mu.Lock()
	g.mutateErr = err
	g.mu.Unlock()
}

func reloadedSession(t *testing.T, gw *fakeGateway) *Session {
	t.Helper()
	s := NewSession(gw, "me", nil)
	require.NoError(t, s.Reload(context.Background()))
	return s
}

func key(kind types.ProvenanceKind, id string) types.TaskKey {
	return types.TaskKey{Kind: kind, ID: id}
}

func TestSessionReloadBuildsBoard(t *testing.T) {
	s := reloadedSession(t, newFakeGateway())

	tasks := s.Tasks(Filter{})
	require.Len(t, tasks, 3)

	view := s.ProjectedView(Filter{})
	require.Len(t, view.Groups, 2)
	assert.Equal(t, "Launch Plan", view.Groups[0].Label)
	assert.Equal(t, "Standalone", view.Groups[1].Label)

	errands := s.Get(key(types.KindStandaloneTask, "t3"))
	require.NotNil(t, errands)
	assert.Equal(t, types.StatusToDo, errands.Status)
	assert.Equal(t, types.PriorityDefault, errands.Priority)

	assert.Equal(t, "Ana", s.Resolve("me").DisplayName)
	assert.Equal(t, "Launch Plan", s.ProjectName("p1"))
	assert.Equal(t, "Standalone", s.ProjectName(GroupStandalone))
}

func TestSessionStatusToggleRollsBackOnFailure(t *testing.T) {
	gw := newFakeGateway()
	s := reloadedSession(t, gw)

	k := key(types.KindProjectTask, "t2")
	before := s.Get(k)
	require.Equal(t, types.StatusToDo, before.Status)

	cause := errors.New("gateway down")
	gw.failMutations(cause)

	err := s.SetStatus(context.Background(), k, types.StatusCompleted)
	assert.ErrorIs(t, err, types.ErrDispatch)
	assert.ErrorIs(t, err, cause)

	// The optimistic toggle is gone and the board order is untouched.
	after := s.Get(k)
	assert.Equal(t, before, after)
	assert.Equal(t, []string{"t1", "t2", "t3"}, ids(s.set.All()))
	assert.ErrorIs(t, s.LastError(), cause)

	// The key is free again: a later toggle succeeds and clears the error.
	gw.failMutations(nil)
	require.NoError(t, s.SetStatus(context.Background(), k, types.StatusCompleted))
	assert.Equal(t, types.StatusCompleted, s.Get(k).Status)
	assert.NoError(t, s.LastError())
}

func TestSessionSubmitEditRollsBackOnFailure(t *testing.T) {
	gw := newFakeGateway()
	s := reloadedSession(t, gw)

	k := key(types.KindProjectTask, "t1")
	before := s.Get(k)

	cause := errors.New("write conflict")
	gw.failMutations(cause)

	title := "Kickoff v2"
	err := s.SubmitEdit(context.Background(), k, types.TaskPatch{Title: &title})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, before, s.Get(k), "failed edit must leave the snapshot")

	gw.failMutations(nil)
	require.NoError(t, s.SubmitEdit(context.Background(), k, types.TaskPatch{Title: &title}))
	assert.Equal(t, "Kickoff v2", s.Get(k).Title)
}

func TestSessionOnePendingPatchPerKey(t *testing.T) {
	gw := newFakeGateway()
	s := reloadedSession(t, gw)

	release := make(chan struct{})
	gw.mu.Lock()
	gw.blockMutate = release
	gw.mu.Unlock()

	k := key(types.KindProjectTask, "t2")
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.SetStatus(context.Background(), k, types.StatusCompleted)
	}()

	// Wait for the optimistic toggle to land, then try a second patch.
	require.Eventually(t, func() bool {
		return s.Get(k).Status == types.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	err := s.SetStatus(context.Background(), k, types.StatusBlocked)
	assert.ErrorIs(t, err, types.ErrPatchPending)

	// Other keys are unaffected by the in-flight patch.
	otherErr := make(chan error, 1)
	go func() {
		otherErr <- s.SetStatus(context.Background(), key(types.KindStandaloneTask, "t3"), types.StatusCompleted)
	}()

	close(release)
	wg.Wait()
	require.NoError(t, <-otherErr)
	assert.Equal(t, types.StatusCompleted, s.Get(k).Status)
}

func TestSessionSubmitEditReservesKeyWhileInFlight(t *testing.T) {
	gw := newFakeGateway()
	s := reloadedSession(t, gw)

	release := make(chan struct{})
	gw.mu.Lock()
	gw.blockMutate = release
	gw.mu.Unlock()

	k := key(types.KindProjectTask, "t1")
	first := make(chan error, 1)
	titleA := "Kickoff v2"
	go func() {
		first <- s.SubmitEdit(context.Background(), k, types.TaskPatch{Title: &titleA})
	}()

	require.Eventually(t, func() bool {
		return s.Get(k).Title == titleA
	}, 2*time.Second, 10*time.Millisecond)

	// The key is reserved for the whole submit, so a racing edit cannot
	// slip in and dispatch a second update.
	titleB := "Kickoff v3"
	err := s.SubmitEdit(context.Background(), k, types.TaskPatch{Title: &titleB})
	assert.ErrorIs(t, err, types.ErrPatchPending)

	close(release)
	require.NoError(t, <-first)
	assert.Equal(t, 1, gw.mutationCount(), "only the first edit may dispatch")
	assert.Equal(t, titleA, s.Get(k).Title)
}

func TestSessionSubmitEditValidationFailureReleasesKey(t *testing.T) {
	gw := newFakeGateway()
	s := reloadedSession(t, gw)

	k := key(types.KindProjectTask, "t1")
	before := s.Get(k)

	empty := "  "
	err := s.SubmitEdit(context.Background(), k, types.TaskPatch{Title: &empty})
	assert.ErrorIs(t, err, types.ErrValidation)
	assert.Equal(t, before, s.Get(k), "rejected payload must leave no trace")
	assert.Equal(t, 0, gw.mutationCount())

	// The reservation is released; a corrected edit goes through.
	title := "Kickoff v2"
	require.NoError(t, s.SubmitEdit(context.Background(), k, types.TaskPatch{Title: &title}))
	assert.Equal(t, title, s.Get(k).Title)
}

func TestSessionDeleteRollbackRestoresPosition(t *testing.T) {
	gw := newFakeGateway()
	s := reloadedSession(t, gw)

	cause := errors.New("delete refused")
	gw.failMutations(cause)

	k := key(types.KindProjectTask, "t2")
	err := s.RequestDelete(context.Background(), k)
	assert.ErrorIs(t, err, cause)

	// The task reappears exactly where it was.
	assert.Equal(t, []string{"t1", "t2", "t3"}, ids(s.set.All()))

	gw.failMutations(nil)
	require.NoError(t, s.RequestDelete(context.Background(), k))
	assert.Equal(t, []string{"t1", "t3"}, ids(s.set.All()))
}

func TestSessionDeleteExpandedParentRemovesSubtasks(t *testing.T) {
	gw := newFakeGateway()
	s := reloadedSession(t, gw)
	ctx := context.Background()

	k := key(types.KindProjectTask, "t1")
	_, err := s.ToggleExpand(ctx, k)
	require.NoError(t, err)
	require.Len(t, s.Tasks(Filter{}), 5)

	require.NoError(t, s.RequestDelete(ctx, k))

	// The materialized subtasks leave the board with their parent.
	assert.Equal(t, []string{"t2", "t3"}, ids(s.set.All()))
	assert.Nil(t, s.Get(key(types.KindProjectSubtask, "s1")))
	assert.Nil(t, s.Get(key(types.KindProjectSubtask, "s2")))
}

func TestSessionCreateAppendsEcho(t *testing.T) {
	gw := newFakeGateway()
	s := reloadedSession(t, gw)

	created, err := s.Create(context.Background(), types.Task{
		Title:      "New chore",
		Status:     types.StatusToDo,
		Priority:   4,
		AssigneeID: "me",
		Provenance: types.Provenance{Kind: types.KindStandaloneTask},
	})
	require.NoError(t, err)
	assert.Equal(t, "created-1", created.ID)
	assert.NotNil(t, s.Get(key(types.KindStandaloneTask, "created-1")))
}

func TestSessionExpandCachesSubtasks(t *testing.T) {
	gw := newFakeGateway()
	s := reloadedSession(t, gw)
	ctx := context.Background()

	k := key(types.KindProjectTask, "t1")
	subs, err := s.ToggleExpand(ctx, k)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, 1, gw.subtaskFetches)
	assert.Equal(t, types.KindProjectSubtask, subs[0].Provenance.Kind)
	assert.Equal(t, "t1", subs[0].Provenance.ParentTaskID)
	require.Len(t, s.Tasks(Filter{}), 5)

	// Collapse hides but keeps the cache; the re-expand is free.
	subs, err = s.ToggleExpand(ctx, k)
	require.NoError(t, err)
	assert.Nil(t, subs)
	require.Len(t, s.Tasks(Filter{}), 3)

	subs, err = s.ToggleExpand(ctx, k)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, 1, gw.subtaskFetches, "cached expand must not refetch")

	// The cache survives a reload while the subtask count is unchanged.
	require.NoError(t, s.Reload(ctx))
	require.Len(t, s.Tasks(Filter{}), 5, "expanded subtasks re-materialize after reload")
	s.ToggleExpand(ctx, k) // collapse
	s.ToggleExpand(ctx, k) // expand from cache
	assert.Equal(t, 1, gw.subtaskFetches)
}

func TestSessionExpandRefetchesWhenCountChanges(t *testing.T) {
	gw := newFakeGateway()
	s := reloadedSession(t, gw)
	ctx := context.Background()

	k := key(types.KindProjectTask, "t1")
	_, err := s.ToggleExpand(ctx, k)
	require.NoError(t, err)
	s.ToggleExpand(ctx, k) // collapse
	require.Equal(t, 1, gw.subtaskFetches)

	// A third subtask appears at the source.
	gw.mu.Lock()
	gw.subtasks["t1"] = append(gw.subtasks["t1"],
		types.RawTask{ID: "s3", Title: "Rehearse", Status: "todo", AssigneeID: "me"})
	gw.projectTasks["p1"][0].SubtaskCount = 3
	gw.mu.Unlock()

	require.NoError(t, s.Reload(ctx))

	subs, err := s.ToggleExpand(ctx, k)
	require.NoError(t, err)
	assert.Len(t, subs, 3)
	assert.Equal(t, 2, gw.subtaskFetches, "stale cache must refetch")
}

func TestSessionExpandErrors(t *testing.T) {
	gw := newFakeGateway()
	s := reloadedSession(t, gw)
	ctx := context.Background()

	_, err := s.ToggleExpand(ctx, key(types.KindProjectTask, "missing"))
	assert.ErrorIs(t, err, types.ErrNotFound)

	cause := errors.New("listing failed")
	gw.mu.Lock()
	gw.subtaskErr = cause
	gw.mu.Unlock()
	_, err = s.ToggleExpand(ctx, key(types.KindProjectTask, "t1"))
	assert.ErrorIs(t, err, cause)

	// A failed fetch leaves no cache entry; the next expand retries.
	gw.mu.Lock()
	gw.subtaskErr = nil
	gw.mu.Unlock()
	subs, err := s.ToggleExpand(ctx, key(types.KindProjectTask, "t1"))
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestSessionCloseMakesLateResultsNoOps(t *testing.T) {
	gw := newFakeGateway()
	s := reloadedSession(t, gw)

	release := make(chan struct{})
	gw.mu.Lock()
	gw.blockMutate = release
	gw.mu.Unlock()

	k := key(types.KindProjectTask, "t2")
	done := make(chan error, 1)
	go func() {
		done <- s.SetStatus(context.Background(), k, types.StatusCompleted)
	}()

	require.Eventually(t, func() bool {
		return s.Get(k).Status == types.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	s.Close()
	close(release)
	require.NoError(t, <-done)

	// The late result did not touch the closed session's state or error slot.
	assert.NoError(t, s.LastError())

	err := s.SetStatus(context.Background(), k, types.StatusToDo)
	assert.ErrorIs(t, err, types.ErrSessionClosed)
	assert.ErrorIs(t, s.Reload(context.Background()), types.ErrSessionClosed)
}
