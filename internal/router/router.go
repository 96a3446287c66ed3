// Package router resolves which backend operation applies to a task based
// on its provenance, validates the payload against the cross-cutting
// business rules, and dispatches the call. The four-way branching on task
// origin lives in one exhaustive table here instead of being scattered
// through callers.
package router

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// routeKey indexes the dispatch table by provenance kind and operation.
type routeKey struct {
	kind types.ProvenanceKind
	op   types.Operation
}

// routeSpec fixes which scope identifiers an entry must supply. needsTask
// is false only for create, where the backend assigns the id.
type routeSpec struct {
	needsProject bool
	needsParent  bool
	needsTask    bool
}

// routes is the full dispatch table: four provenance kinds times four
// operations. A (kind, op) pair absent from this table is not a legal
// mutation.
var routes = map[routeKey]routeSpec{
	{types.KindProjectTask, types.OpCreate}:       {needsProject: true},
	{types.KindProjectTask, types.OpUpdate}:       {needsProject: true, needsTask: true},
	{types.KindProjectTask, types.OpDelete}:       {needsProject: true, needsTask: true},
	{types.KindProjectTask, types.OpStatusChange}: {needsProject: true, needsTask: true},

	{types.KindProjectSubtask, types.OpCreate}:       {needsProject: true, needsParent: true},
	{types.KindProjectSubtask, types.OpUpdate}:       {needsProject: true, needsParent: true, needsTask: true},
	{types.KindProjectSubtask, types.OpDelete}:       {needsProject: true, needsParent: true, needsTask: true},
	{types.KindProjectSubtask, types.OpStatusChange}: {needsProject: true, needsParent: true, needsTask: true},

	{types.KindStandaloneTask, types.OpCreate}:       {},
	{types.KindStandaloneTask, types.OpUpdate}:       {needsTask: true},
	{types.KindStandaloneTask, types.OpDelete}:       {needsTask: true},
	{types.KindStandaloneTask, types.OpStatusChange}: {needsTask: true},

	{types.KindStandaloneSubtask, types.OpCreate}:       {needsParent: true},
	{types.KindStandaloneSubtask, types.OpUpdate}:       {needsParent: true, needsTask: true},
	{types.KindStandaloneSubtask, types.OpDelete}:       {needsParent: true, needsTask: true},
	{types.KindStandaloneSubtask, types.OpStatusChange}: {needsParent: true, needsTask: true},
}

// Dispatch is a resolved mutation target: the operation, the scope, and the
// identifiers the gateway call will receive, in canonical order (project,
// parent, task).
type Dispatch struct {
	Kind   types.ProvenanceKind
	Op     types.Operation
	Scope  types.Provenance
	Ref    types.TaskRef
	Params []string
}

// Route resolves the dispatch entry for a task and operation. It fails with
// ErrInvalidProvenance when the task's provenance breaks the kind/field
// invariant and ErrUnknownRoute when no table entry matches.
func Route(task *types.Task, op types.Operation) (Dispatch, error) {
	if err := task.Provenance.Validate(); err != nil {
		return Dispatch{}, err
	}
	if !op.IsValid() {
		return Dispatch{}, fmt.Errorf("%w: %s %s", types.ErrUnknownRoute, task.Provenance.Kind, op)
	}

	key := routeKey{kind: task.Provenance.Kind, op: op}
	spec, ok := routes[key]
	if !ok {
		return Dispatch{}, fmt.Errorf("%w: %s %s", types.ErrUnknownRoute, key.kind, key.op)
	}

	d := Dispatch{
		Kind:  key.kind,
		Op:    op,
		Scope: task.Provenance,
	}
	if spec.needsProject {
		d.Params = append(d.Params, task.Provenance.ProjectID)
	}
	if spec.needsParent {
		d.Params = append(d.Params, task.Provenance.ParentTaskID)
	}
	if spec.needsTask {
		if task.ID == "" {
			return Dispatch{}, fmt.Errorf("%w: %s %s requires a task id", types.ErrUnknownRoute, key.kind, op)
		}
		d.Params = append(d.Params, task.ID)
		d.Ref = types.TaskRef{Provenance: task.Provenance, TaskID: task.ID}
	}
	return d, nil
}

// Do executes a resolved dispatch against the gateway. Failures are wrapped
// in a DispatchError carrying the operation and provenance kind; the echo
// record is returned when the gateway produces one.
func Do(ctx context.Context, gw types.Gateway, d Dispatch, payload types.Task) (*types.RawTask, error) {
	var (
		echo *types.RawTask
		err  error
	)
	switch d.Op {
	case types.OpCreate:
		echo, err = gw.CreateTask(ctx, d.Scope, payload)
	case types.OpUpdate:
		echo, err = gw.UpdateTask(ctx, d.Ref, payload)
	case types.OpStatusChange:
		echo, err = gw.UpdateTaskStatus(ctx, d.Ref, payload.Status)
	case types.OpDelete:
		err = gw.DeleteTask(ctx, d.Ref)
	default:
		err = fmt.Errorf("%w: %s", types.ErrUnknownRoute, d.Op)
	}
	if err != nil {
		return nil, &types.DispatchError{Op: d.Op, Kind: d.Kind, Err: err}
	}
	return echo, nil
}
