package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/taskboard/pkg/types"
)

// ListUsers returns the full user directory.
func (b *Backend) ListUsers(ctx context.Context) ([]types.UserProfile, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		"SELECT user_id, full_name, display_name, email, role, avatar_url FROM users ORDER BY user_id")
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var out []types.UserProfile
	for rows.Next() {
		var u types.UserProfile
		if err := rows.Scan(&u.ID, &u.FullName, &u.DisplayName, &u.Email, &u.Role, &u.AvatarURL); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetProject returns one project with its ordered team, owner first.
func (b *Backend) GetProject(ctx context.Context, projectID, viewerID string) (*types.Project, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	var (
		p     types.Project
		owner string
	)
	err = db.QueryRowContext(ctx,
		"SELECT project_id, name, owner_id FROM projects WHERE project_id = ?",
		projectID).Scan(&p.ID, &p.Name, &owner)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("project %s: %w", projectID, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting project %s: %w", projectID, err)
	}

	members, err := b.stringList(ctx, db,
		"SELECT user_id FROM project_members WHERE project_id = ? ORDER BY position",
		projectID)
	if err != nil {
		return nil, fmt.Errorf("loading members of %s: %w", projectID, err)
	}

	p.TeamIDs = append(p.TeamIDs, owner)
	for _, m := range members {
		if m != owner {
			p.TeamIDs = append(p.TeamIDs, m)
		}
	}
	return &p, nil
}

// ListProjects returns the projects the viewer owns or belongs to.
func (b *Backend) ListProjects(ctx context.Context, viewerID string) ([]types.Project, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT DISTINCT p.project_id FROM projects p
		LEFT JOIN project_members m ON m.project_id = p.project_id
		WHERE p.owner_id = ? OR m.user_id = ?
		ORDER BY p.project_id`,
		viewerID, viewerID)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]types.Project, 0, len(ids))
	for _, id := range ids {
		p, err := b.GetProject(ctx, id, viewerID)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}
