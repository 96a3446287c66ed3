package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// rawTaskColumns is the select list every task query shares. The subquery
// counts the row's children in the matching subtask collection.
const rawTaskColumns = `
	t.task_id, t.title, t.description, t.status, t.priority, t.due_date,
	t.assignee_id,
	(SELECT COUNT(*) FROM tasks c
	  WHERE c.parent_task_id = t.task_id AND c.kind = ?) AS subtask_count
`

// childKind maps a parent collection to its subtask collection.
func childKind(kind types.ProvenanceKind) types.ProvenanceKind {
	if kind.IsProjectScoped() {
		return types.KindProjectSubtask
	}
	return types.KindStandaloneSubtask
}

// ListProjectTasks returns the top-level tasks of one project.
func (b *Backend) ListProjectTasks(ctx context.Context, projectID, viewerID string) ([]types.RawTask, error) {
	return b.listRawTasks(ctx, types.KindProjectTask,
		"t.kind = ? AND t.project_id = ?",
		string(types.KindProjectTask), projectID)
}

// ListStandaloneTasks returns the viewer's standalone tasks.
func (b *Backend) ListStandaloneTasks(ctx context.Context, viewerID string) ([]types.RawTask, error) {
	return b.listRawTasks(ctx, types.KindStandaloneTask,
		"t.kind = ? AND t.assignee_id = ?",
		string(types.KindStandaloneTask), viewerID)
}

// ListSubtasks returns the subtasks of one parent. An empty projectID names
// a standalone parent.
func (b *Backend) ListSubtasks(ctx context.Context, projectID, parentTaskID string) ([]types.RawTask, error) {
	if projectID == "" {
		return b.listRawTasks(ctx, types.KindStandaloneSubtask,
			"t.kind = ? AND t.parent_task_id = ?",
			string(types.KindStandaloneSubtask), parentTaskID)
	}
	return b.listRawTasks(ctx, types.KindProjectSubtask,
		"t.kind = ? AND t.project_id = ? AND t.parent_task_id = ?",
		string(types.KindProjectSubtask), projectID, parentTaskID)
}

// listRawTasks runs one task query and hydrates the rows. kind is the
// collection being listed; its child collection feeds the count subquery.
func (b *Backend) listRawTasks(ctx context.Context, kind types.ProvenanceKind, where string, args ...any) ([]types.RawTask, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	query := "SELECT " + rawTaskColumns + " FROM tasks t WHERE " + where + " ORDER BY t.created_at, t.task_id"
	queryArgs := append([]any{string(childKind(kind))}, args...)

	rows, err := db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", kind, err)
	}
	defer rows.Close()

	var out []types.RawTask
	for rows.Next() {
		raw, err := hydrateRawTask(rows)
		if err != nil {
			return nil, fmt.Errorf("hydrating %s row: %w", kind, err)
		}
		out = append(out, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := b.hydrateLists(ctx, db, kind, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// hydrateRawTask scans one task row into the loosely typed wire shape.
// Status, priority, and due date stay exactly as stored.
func hydrateRawTask(row rowScanner) (types.RawTask, error) {
	var (
		raw      types.RawTask
		priority string
		due      sql.NullString
	)
	err := row.Scan(&raw.ID, &raw.Title, &raw.Description, &raw.Status,
		&priority, &due, &raw.AssigneeID, &raw.SubtaskCount)
	if err != nil {
		return types.RawTask{}, err
	}
	raw.Priority = priority
	if due.Valid {
		raw.DueDate = due.String
	}
	return raw, nil
}

// hydrateLists loads the ordered tag and collaborator lists of one task.
func (b *Backend) hydrateLists(ctx context.Context, db *sql.DB, kind types.ProvenanceKind, raw *types.RawTask) error {
	tags, err := b.stringList(ctx, db,
		"SELECT tag FROM task_tags WHERE kind = ? AND task_id = ? ORDER BY position",
		string(kind), raw.ID)
	if err != nil {
		return fmt.Errorf("loading tags for %s: %w", raw.ID, err)
	}
	if len(tags) > 0 {
		raw.Tags = tags
	}

	collabs, err := b.stringList(ctx, db,
		"SELECT user_id FROM task_collaborators WHERE kind = ? AND task_id = ? ORDER BY position",
		string(kind), raw.ID)
	if err != nil {
		return fmt.Errorf("loading collaborators for %s: %w", raw.ID, err)
	}
	if len(collabs) > 0 {
		raw.Collaborators = collabs
	}
	return nil
}

func (b *Backend) stringList(ctx context.Context, db *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// getRawTask reads one task back for the mutation echo.
func (b *Backend) getRawTask(ctx context.Context, kind types.ProvenanceKind, taskID string) (*types.RawTask, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	query := "SELECT " + rawTaskColumns + " FROM tasks t WHERE t.kind = ? AND t.task_id = ?"
	row := db.QueryRowContext(ctx, query, string(childKind(kind)), string(kind), taskID)
	raw, err := hydrateRawTask(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting task %s: %w", taskID, err)
	}
	if err := b.hydrateLists(ctx, db, kind, &raw); err != nil {
		return nil, err
	}
	return &raw, nil
}

// CreateTask inserts a task into the collection named by scope. Subtask
// creations require an existing parent. Returns the stored record.
func (b *Backend) CreateTask(ctx context.Context, scope types.Provenance, payload types.Task) (*types.RawTask, error) {
	if err := scope.Validate(); err != nil {
		return nil, err
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	if scope.Kind.IsSubtask() {
		parentKind := types.KindProjectTask
		if !scope.Kind.IsProjectScoped() {
			parentKind = types.KindStandaloneTask
		}
		var exists int
		err := db.QueryRowContext(ctx,
			"SELECT 1 FROM tasks WHERE kind = ? AND task_id = ?",
			string(parentKind), scope.ParentTaskID).Scan(&exists)
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("parent %s: %w", scope.ParentTaskID, types.ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("checking parent: %w", err)
		}
	}

	id := generateID()
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tasks (task_id, kind, project_id, parent_task_id, title,
			description, status, priority, due_date, assignee_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(scope.Kind), nullable(scope.ProjectID), nullable(scope.ParentTaskID),
		payload.Title, payload.Description, string(payload.Status),
		fmt.Sprintf("%d", payload.Priority), dueString(payload.DueDate),
		payload.AssigneeID, now, now)
	if err != nil {
		return nil, fmt.Errorf("inserting task: %w", err)
	}

	if err := persistLists(ctx, tx, scope.Kind, id, payload); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing task: %w", err)
	}

	return b.getRawTask(ctx, scope.Kind, id)
}

// UpdateTask replaces the mutable fields of the referenced task and returns
// the stored record.
func (b *Backend) UpdateTask(ctx context.Context, ref types.TaskRef, payload types.Task) (*types.RawTask, error) {
	if err := ref.Provenance.Validate(); err != nil {
		return nil, err
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?,
			due_date = ?, assignee_id = ?, updated_at = ?
		WHERE kind = ? AND task_id = ?`,
		payload.Title, payload.Description, string(payload.Status),
		fmt.Sprintf("%d", payload.Priority), dueString(payload.DueDate),
		payload.AssigneeID, now,
		string(ref.Provenance.Kind), ref.TaskID)
	if err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, types.ErrNotFound
	}

	if err := persistLists(ctx, tx, ref.Provenance.Kind, ref.TaskID, payload); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing task update: %w", err)
	}

	return b.getRawTask(ctx, ref.Provenance.Kind, ref.TaskID)
}

// UpdateTaskStatus changes only the status column.
func (b *Backend) UpdateTaskStatus(ctx context.Context, ref types.TaskRef, status types.Status) (*types.RawTask, error) {
	if err := ref.Provenance.Validate(); err != nil {
		return nil, err
	}
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := db.ExecContext(ctx,
		"UPDATE tasks SET status = ?, updated_at = ? WHERE kind = ? AND task_id = ?",
		string(status), now, string(ref.Provenance.Kind), ref.TaskID)
	if err != nil {
		return nil, fmt.Errorf("updating status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, types.ErrNotFound
	}

	return b.getRawTask(ctx, ref.Provenance.Kind, ref.TaskID)
}

// DeleteTask removes the referenced task, its list rows, and its subtasks.
func (b *Backend) DeleteTask(ctx context.Context, ref types.TaskRef) error {
	if err := ref.Provenance.Validate(); err != nil {
		return err
	}
	db, err := b.conn()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	kind := string(ref.Provenance.Kind)
	sub := string(childKind(ref.Provenance.Kind))

	// Cascade: subtasks of this task and their list rows go first.
	if !ref.Provenance.Kind.IsSubtask() {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM task_tags WHERE kind = ? AND task_id IN (SELECT task_id FROM tasks WHERE kind = ? AND parent_task_id = ?)",
			sub, sub, ref.TaskID); err != nil {
			return fmt.Errorf("deleting subtask tags: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM task_collaborators WHERE kind = ? AND task_id IN (SELECT task_id FROM tasks WHERE kind = ? AND parent_task_id = ?)",
			sub, sub, ref.TaskID); err != nil {
			return fmt.Errorf("deleting subtask collaborators: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM tasks WHERE kind = ? AND parent_task_id = ?",
			sub, ref.TaskID); err != nil {
			return fmt.Errorf("deleting subtasks: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM task_tags WHERE kind = ? AND task_id = ?", kind, ref.TaskID); err != nil {
		return fmt.Errorf("deleting tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM task_collaborators WHERE kind = ? AND task_id = ?", kind, ref.TaskID); err != nil {
		return fmt.Errorf("deleting collaborators: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM tasks WHERE kind = ? AND task_id = ?", kind, ref.TaskID)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrNotFound
	}

	return tx.Commit()
}

// persistLists replaces the tag and collaborator rows of one task.
func persistLists(ctx context.Context, tx *sql.Tx, kind types.ProvenanceKind, taskID string, payload types.Task) error {
	k := string(kind)
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM task_tags WHERE kind = ? AND task_id = ?", k, taskID); err != nil {
		return fmt.Errorf("clearing tags: %w", err)
	}
	for i, tag := range payload.Tags {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO task_tags (kind, task_id, position, tag) VALUES (?, ?, ?, ?)",
			k, taskID, i, tag); err != nil {
			return fmt.Errorf("inserting tag: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM task_collaborators WHERE kind = ? AND task_id = ?", k, taskID); err != nil {
		return fmt.Errorf("clearing collaborators: %w", err)
	}
	for i, id := range payload.CollaboratorIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO task_collaborators (kind, task_id, position, user_id) VALUES (?, ?, ?, ?)",
			k, taskID, i, id); err != nil {
			return fmt.Errorf("inserting collaborator: %w", err)
		}
	}
	return nil
}

// nullable maps an empty string to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// dueString renders a due date for storage, or NULL when absent.
func dueString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
