package sqlite

import (
	"context"
	"fmt"
	"time"
)

// demo rows inserted by Seed. Status and priority values deliberately use
// the raw source spellings so a seeded board exercises normalization.
var (
	seedUsers = [][6]string{
		{"u-ana", "Ana Duarte", "ana", "ana@example.com", "admin", ""},
		{"u-bruno", "Bruno Lima", "bruno", "bruno@example.com", "member", ""},
		{"u-carla", "", "carla", "carla@example.com", "member", ""},
	}
	seedProjects = [][3]string{
		{"p-launch", "Launch Plan", "u-ana"},
		{"p-infra", "Infra Cleanup", "u-bruno"},
	}
	seedMembers = [][2]string{
		{"p-launch", "u-bruno"},
		{"p-launch", "u-carla"},
		{"p-infra", "u-carla"},
	}
)

// seedTask is one demo task row.
type seedTask struct {
	id, kind, project, parent    string
	title, status, priority, due string
	assignee                     string
}

var seedTasks = []seedTask{
	{id: "t-kickoff", kind: "project-task", project: "p-launch",
		title: "Kickoff deck", status: "In Progress", priority: "8", assignee: "u-ana"},
	{id: "t-press", kind: "project-task", project: "p-launch",
		title: "Press release", status: "todo", priority: "6",
		due: "2026-09-15", assignee: "u-bruno"},
	{id: "t-outline", kind: "project-subtask", project: "p-launch", parent: "t-kickoff",
		title: "Outline slides", status: "done", priority: "5", assignee: "u-ana"},
	{id: "t-review", kind: "project-subtask", project: "p-launch", parent: "t-kickoff",
		title: "Review with team", status: "to do", priority: "7", assignee: "u-carla"},
	{id: "t-dns", kind: "project-task", project: "p-infra",
		title: "Rotate DNS keys", status: "blocked", priority: "9", assignee: "u-bruno"},
	{id: "t-errands", kind: "standalone-task",
		title: "Book travel", status: "pending", priority: "three", assignee: "u-ana"},
	{id: "t-visa", kind: "standalone-subtask", parent: "t-errands",
		title: "Check visa rules", status: "todo", priority: "4", assignee: "u-ana"},
}

// Seed populates an empty database with demo users, projects, and tasks.
// Seeding a non-empty database is a no-op.
func (b *Backend) Seed(ctx context.Context) error {
	db, err := b.conn()
	if err != nil {
		return err
	}

	var n int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return fmt.Errorf("checking seed state: %w", err)
	}
	if n > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, u := range seedUsers {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO users (user_id, full_name, display_name, email, role, avatar_url) VALUES (?, ?, ?, ?, ?, ?)",
			u[0], u[1], u[2], u[3], u[4], u[5]); err != nil {
			return fmt.Errorf("seeding user %s: %w", u[0], err)
		}
	}
	for _, p := range seedProjects {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO projects (project_id, name, owner_id) VALUES (?, ?, ?)",
			p[0], p[1], p[2]); err != nil {
			return fmt.Errorf("seeding project %s: %w", p[0], err)
		}
	}
	for i, m := range seedMembers {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO project_members (project_id, user_id, position) VALUES (?, ?, ?)",
			m[0], m[1], i); err != nil {
			return fmt.Errorf("seeding member %s: %w", m[1], err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for _, t := range seedTasks {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (task_id, kind, project_id, parent_task_id, title,
				description, status, priority, due_date, assignee_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, '', ?, ?, ?, ?, ?, ?)`,
			t.id, t.kind, nullable(t.project), nullable(t.parent),
			t.title, t.status, t.priority, nullable(t.due), t.assignee, now, now); err != nil {
			return fmt.Errorf("seeding task %s: %w", t.id, err)
		}
	}

	return tx.Commit()
}
