package repository

import (
	"context"
	"database/sql"
	"errors"

	"workspace-kit/internal/role/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a role repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// ListWithPermissions returns the workspace's roles with their permission
// names folded in, excluding the protected admin role. Roles without
// permissions come back with an empty slice, not nil.
func (r *PostgresRepository) ListWithPermissions(ctx context.Context, workspaceID string) ([]domain.Role, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.name, COALESCE(r.description, ''), COALESCE(p.name, '')
		FROM roles r
			LEFT JOIN role_permissions rp ON r.id = rp.role_id
			LEFT JOIN permissions p ON rp.permission_id = p.id
		WHERE r.workspace_id = $1 AND r.name != $2
		ORDER BY r.name, p.name`,
		workspaceID, domain.AdminRoleName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []domain.Role{}
	index := map[string]int{}
	for rows.Next() {
		var id, name, description, permName string
		if err := rows.Scan(&id, &name, &description, &permName); err != nil {
			return nil, err
		}
		i, ok := index[id]
		if !ok {
			i = len(roles)
			index[id] = i
			roles = append(roles, domain.Role{
				ID:          id,
				WorkspaceID: workspaceID,
				Name:        name,
				Description: description,
				Permissions: []string{},
			})
		}
		if permName != "" {
			roles[i].Permissions = append(roles[i].Permissions, permName)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return roles, nil
}

// Create inserts the role and its permission links in one transaction.
func (r *PostgresRepository) Create(ctx context.Context, role *domain.Role) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO roles (id, workspace_id, name, description) VALUES ($1, $2, $3, $4)`,
		role.ID, role.WorkspaceID, role.Name, role.Description,
	)
	if err != nil {
		return err
	}
	if err := insertPermissionLinks(ctx, tx, role.ID, role.Permissions); err != nil {
		return err
	}
	return tx.Commit()
}

// Update renames the role and replaces its permission links wholesale.
// Returns ErrRoleNotFound when the target is the protected admin role.
func (r *PostgresRepository) Update(ctx context.Context, role *domain.Role) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	protected, err := isProtectedRole(ctx, tx, role.WorkspaceID, role.ID)
	if err != nil {
		return err
	}
	if protected {
		return ErrRoleNotFound
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE roles SET name = $3, description = $4 WHERE id = $1 AND workspace_id = $2`,
		role.ID, role.WorkspaceID, role.Name, role.Description,
	)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM role_permissions WHERE role_id = $1`, role.ID,
	); err != nil {
		return err
	}
	if err := insertPermissionLinks(ctx, tx, role.ID, role.Permissions); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the role. Returns ErrRoleNotFound when the target is the
// protected admin role. A foreign key violation surfaces unchanged when the
// role is still assigned to members.
func (r *PostgresRepository) Delete(ctx context.Context, workspaceID, roleID string) error {
	protected, err := isProtectedRole(ctx, r.db, workspaceID, roleID)
	if err != nil {
		return err
	}
	if protected {
		return ErrRoleNotFound
	}
	_, err = r.db.ExecContext(ctx,
		`DELETE FROM roles WHERE id = $1 AND workspace_id = $2`,
		roleID, workspaceID,
	)
	return err
}

// ResolveIDByName returns the id of the named role in the workspace, or ""
// if not found. The protected admin role never resolves.
func (r *PostgresRepository) ResolveIDByName(ctx context.Context, workspaceID, name string) (string, error) {
	var id string
	err := r.db.QueryRowContext(ctx,
		`SELECT id FROM roles WHERE workspace_id = $1 AND name = $2 AND name <> $3`,
		workspaceID, name, domain.AdminRoleName,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return id, nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func isProtectedRole(ctx context.Context, q querier, workspaceID, roleID string) (bool, error) {
	var protected bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM roles WHERE id = $1 AND workspace_id = $2 AND name = $3)`,
		roleID, workspaceID, domain.AdminRoleName,
	).Scan(&protected)
	return protected, err
}

func insertPermissionLinks(ctx context.Context, tx *sql.Tx, roleID string, permissions []string) error {
	for _, name := range permissions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO role_permissions (role_id, permission_id)
			SELECT $1, id FROM permissions WHERE name = $2`,
			roleID, name,
		); err != nil {
			return err
		}
	}
	return nil
}
