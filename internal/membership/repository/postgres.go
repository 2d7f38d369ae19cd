package repository

import (
	"context"
	"database/sql"
	"errors"

	"workspace-kit/internal/membership/domain"
	roledomain "workspace-kit/internal/role/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a membership repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindJoinTarget resolves an invite code to its workspace and the non-admin
// role whose name sorts first. Returns empty ids if the code matches no
// workspace or the workspace has only the admin role.
func (r *PostgresRepository) FindJoinTarget(ctx context.Context, inviteCode string) (string, string, error) {
	var workspaceID, roleID string
	err := r.db.QueryRowContext(ctx, `
		SELECT w.id, r.id
		FROM workspaces w
			JOIN roles r ON r.workspace_id = w.id
		WHERE w.invite_code = $1 AND r.name != $2
		ORDER BY r.name ASC
		LIMIT 1`,
		inviteCode, roledomain.AdminRoleName,
	).Scan(&workspaceID, &roleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", "", nil
		}
		return "", "", err
	}
	return workspaceID, roleID, nil
}

// AddMember inserts the membership, doing nothing if the pair already exists.
func (r *PostgresRepository) AddMember(ctx context.Context, workspaceID, userID, roleID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO workspace_users (workspace_id, user_id, role_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (workspace_id, user_id) DO NOTHING`,
		workspaceID, userID, roleID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Remove deletes the membership. Removing a non-member is a no-op.
func (r *PostgresRepository) Remove(ctx context.Context, workspaceID, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM workspace_users WHERE workspace_id = $1 AND user_id = $2`,
		workspaceID, userID,
	)
	return err
}

// ListMembers returns each member's identity joined with their role name.
func (r *PostgresRepository) ListMembers(ctx context.Context, workspaceID string) ([]domain.Member, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.name, u.email, r.name
		FROM workspace_users wu
			JOIN users u ON wu.user_id = u.id
			JOIN roles r ON wu.role_id = r.id
		WHERE wu.workspace_id = $1
		ORDER BY u.name`,
		workspaceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []domain.Member{}
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.UserID, &m.Name, &m.Email, &m.RoleName); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

// UpdateMemberRole rebinds the member to another role in the same workspace.
func (r *PostgresRepository) UpdateMemberRole(ctx context.Context, workspaceID, userID, roleID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE workspace_users SET role_id = $3 WHERE workspace_id = $1 AND user_id = $2`,
		workspaceID, userID, roleID,
	)
	return err
}
