package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"workspace-kit/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the entry. Empty actor and workspace ids are stored as NULL.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.Entry) error {
	details := e.Details
	if details == nil {
		details = map[string]string{}
	}
	payload, err := json.Marshal(details)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (actor_id, workspace_id, action, details)
		VALUES (NULLIF($1, '')::uuid, NULLIF($2, '')::uuid, $3, $4)`,
		e.ActorID, e.WorkspaceID, e.Action, payload,
	)
	return err
}
