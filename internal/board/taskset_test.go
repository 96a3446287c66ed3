package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

func projectTask(id, projectID string) *types.Task {
	return &types.Task{ID: id, Title: id, Status: types.StatusToDo, Priority: 5,
		AssigneeID: "me",
		Provenance: types.Provenance{Kind: types.KindProjectTask, ProjectID: projectID}}
}

func standaloneTask(id string) *types.Task {
	return &types.Task{ID: id, Title: id, Status: types.StatusToDo, Priority: 5,
		AssigneeID: "me",
		Provenance: types.Provenance{Kind: types.KindStandaloneTask}}
}

func ids(tasks []*types.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestTaskSetPutKeepsPosition(t *testing.T) {
	set := NewTaskSet()
	set.Put(projectTask("a", "p1"))
	set.Put(projectTask("b", "p1"))
	set.Put(projectTask("c", "p1"))

	// Replacing an existing key keeps its slot.
	replacement := projectTask("b", "p1")
	replacement.Title = "B v2"
	set.Put(replacement)

	assert.Equal(t, []string{"a", "b", "c"}, ids(set.All()))
	assert.Equal(t, "B v2", set.Get(replacement.Key()).Title)
	assert.Equal(t, 3, set.Len())
}

func TestTaskSetDeleteAndRestoreAt(t *testing.T) {
	set := NewTaskSet()
	set.Put(projectTask("a", "p1"))
	set.Put(projectTask("b", "p1"))
	set.Put(projectTask("c", "p1"))

	b := set.Get(types.TaskKey{Kind: types.KindProjectTask, ID: "b"})
	pos := set.Delete(b.Key())
	assert.Equal(t, 1, pos)
	assert.Equal(t, []string{"a", "c"}, ids(set.All()))

	set.RestoreAt(b, pos)
	assert.Equal(t, []string{"a", "b", "c"}, ids(set.All()))

	// Deleting an absent key reports no position.
	assert.Equal(t, -1, set.Delete(types.TaskKey{Kind: types.KindProjectTask, ID: "zz"}))
}

func TestTaskSetKeysAreProvenanceScoped(t *testing.T) {
	set := NewTaskSet()
	set.Put(projectTask("t1", "p1"))
	set.Put(standaloneTask("t1"))

	// Same raw id, different collections: both survive.
	assert.Equal(t, 2, set.Len())
}

func TestTaskSetCloneIsDeep(t *testing.T) {
	set := NewTaskSet()
	original := projectTask("a", "p1")
	original.Tags = []string{"x"}
	set.Put(original)

	snapshot := set.Clone()
	set.Get(original.Key()).Title = "mutated"
	set.Get(original.Key()).Tags[0] = "mutated"

	restored := snapshot.Get(original.Key())
	require.NotNil(t, restored)
	assert.Equal(t, "a", restored.Title)
	assert.Equal(t, []string{"x"}, restored.Tags)
}

func TestAggregateMergesSourcesDeterministically(t *testing.T) {
	src := Sources{
		ProjectTasks: map[string][]types.RawTask{
			"p2": {{ID: "t3", Title: "Gamma"}},
			"p1": {{ID: "t1", Title: "Alpha", Status: "In Progress"}, {ID: "t2", Title: "Beta"}},
		},
		StandaloneTasks: []types.RawTask{{ID: "t4", Title: "Delta", AssigneeID: "someone-else"}},
	}

	set := Aggregate(src, "me")
	require.Equal(t, 4, set.Len())

	// Projects merge in sorted id order, standalone last.
	assert.Equal(t, []string{"t1", "t2", "t3", "t4"}, ids(set.All()))

	t1 := set.Get(types.TaskKey{Kind: types.KindProjectTask, ID: "t1"})
	assert.Equal(t, types.StatusInProgress, t1.Status)
	assert.Equal(t, "p1", t1.Provenance.ProjectID)

	t4 := set.Get(types.TaskKey{Kind: types.KindStandaloneTask, ID: "t4"})
	assert.Equal(t, "me", t4.AssigneeID, "standalone tasks belong to the actor")
}

func TestGroupKey(t *testing.T) {
	assert.Equal(t, "p1", GroupKey(projectTask("a", "p1")))
	assert.Equal(t, GroupStandalone, GroupKey(standaloneTask("b")))

	orphan := projectTask("c", "")
	orphan.Provenance.ProjectID = ""
	assert.Equal(t, GroupUnassigned, GroupKey(orphan))

	sub := &types.Task{ID: "d",
		Provenance: types.Provenance{Kind: types.KindStandaloneSubtask, ParentTaskID: "b"}}
	assert.Equal(t, GroupStandalone, GroupKey(sub))
}
