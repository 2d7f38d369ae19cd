package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"workspace-kit/internal/permission"
	roledomain "workspace-kit/internal/role/domain"
	"workspace-kit/internal/workspace/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a workspace repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the workspace together with its protected admin role and the
// owner's membership in one transaction. The admin role has no explicit
// permission rows; holders are granted everything by construction.
func (r *PostgresRepository) Create(ctx context.Context, name, ownerUserID string) (*domain.Workspace, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var hasMembership bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM workspace_users WHERE user_id = $1)`, ownerUserID,
	).Scan(&hasMembership)
	if err != nil {
		return nil, err
	}

	ws := domain.Workspace{
		ID:          uuid.New().String(),
		Name:        name,
		OwnerUserID: ownerUserID,
		InviteCode:  uuid.New().String(),
		IsDefault:   !hasMembership,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO workspaces (id, name, owner_user_id, invite_code, is_default)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		ws.ID, ws.Name, ws.OwnerUserID, ws.InviteCode, ws.IsDefault,
	).Scan(&ws.CreatedAt, &ws.UpdatedAt)
	if err != nil {
		return nil, err
	}

	adminRoleID := uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO roles (id, workspace_id, name) VALUES ($1, $2, $3)`,
		adminRoleID, ws.ID, roledomain.AdminRoleName,
	); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO workspace_users (workspace_id, user_id, role_id) VALUES ($1, $2, $3)`,
		ws.ID, ownerUserID, adminRoleID,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &ws, nil
}

const accessQuery = `
	SELECT w.id, w.name, COALESCE(w.owner_user_id::text, ''), w.invite_code, w.is_default,
		w.created_at, w.updated_at,
		r.id, r.name,
		COALESCE(p.name, '')
	FROM workspaces w
		JOIN workspace_users wu ON w.id = wu.workspace_id
		JOIN roles r ON wu.role_id = r.id
		LEFT JOIN role_permissions rp ON r.id = rp.role_id
		LEFT JOIN permissions p ON rp.permission_id = p.id
	`

// ResolveAccess returns the user's access to the given workspace, or to their
// default workspace when workspaceID is empty. Returns nil if the user has no
// membership there. Permission rows are folded into a single grant; the admin
// role gets the full catalog regardless of stored rows.
func (r *PostgresRepository) ResolveAccess(ctx context.Context, userID, workspaceID string) (*domain.Access, error) {
	var rows *sql.Rows
	var err error
	if workspaceID != "" {
		rows, err = r.db.QueryContext(ctx, accessQuery+`WHERE w.id = $1 AND wu.user_id = $2`, workspaceID, userID)
	} else {
		// A user can belong to several default workspaces (their own plus
		// ones joined via invite), so pin the lookup to the oldest one.
		rows, err = r.db.QueryContext(ctx, accessQuery+`
			WHERE wu.user_id = $1 AND w.id = (
				SELECT w2.id
				FROM workspaces w2
					JOIN workspace_users wu2 ON w2.id = wu2.workspace_id
				WHERE wu2.user_id = $1 AND w2.is_default = TRUE
				ORDER BY w2.created_at, w2.id
				LIMIT 1
			)`, userID)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var access *domain.Access
	var perms []string
	for rows.Next() {
		var ws domain.Workspace
		var roleID, roleName, permName string
		if err := rows.Scan(
			&ws.ID, &ws.Name, &ws.OwnerUserID, &ws.InviteCode, &ws.IsDefault,
			&ws.CreatedAt, &ws.UpdatedAt,
			&roleID, &roleName, &permName,
		); err != nil {
			return nil, err
		}
		if access == nil {
			access = &domain.Access{Workspace: ws, RoleID: roleID, RoleName: roleName}
		} else if ws.ID != access.Workspace.ID {
			// Every row must belong to the workspace picked first.
			continue
		}
		if permName != "" {
			perms = append(perms, permName)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if access == nil {
		return nil, nil
	}
	if access.RoleName == roledomain.AdminRoleName {
		access.Grant = permission.AdminGrant()
	} else {
		access.Grant = permission.CustomGrant(perms)
	}
	return access, nil
}

// UpdateName renames the workspace.
func (r *PostgresRepository) UpdateName(ctx context.Context, workspaceID, name string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE workspaces SET name = $2, updated_at = NOW() WHERE id = $1`,
		workspaceID, name,
	)
	return err
}

// Delete removes the workspace together with its memberships. Memberships
// reference roles with ON DELETE RESTRICT, so they must go before the
// workspace row; roles and permission links then follow via cascade.
func (r *PostgresRepository) Delete(ctx context.Context, workspaceID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM workspace_users WHERE workspace_id = $1`, workspaceID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM workspaces WHERE id = $1`, workspaceID); err != nil {
		return err
	}
	return tx.Commit()
}

// ListForUser returns every workspace the user belongs to with the role they
// hold there.
func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]domain.Summary, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT w.id, w.name, w.invite_code, w.is_default, w.created_at, w.updated_at, r.name
		FROM workspaces w
			JOIN workspace_users wu ON w.id = wu.workspace_id
			JOIN roles r ON wu.role_id = r.id
		WHERE wu.user_id = $1
		ORDER BY w.created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []domain.Summary{}
	for rows.Next() {
		var s domain.Summary
		if err := rows.Scan(&s.ID, &s.Name, &s.InviteCode, &s.IsDefault, &s.CreatedAt, &s.UpdatedAt, &s.RoleName); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}
