package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"workspace-kit/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, name, email, password, email_verified,
		COALESCE(pending_email, ''),
		COALESCE(pending_email_token::text, ''),
		COALESCE(pending_email_expires_at, 'epoch'::timestamptz),
		created_at, updated_at`

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Password, &u.EmailVerified,
		&u.PendingEmail, &u.PendingEmailToken, &u.PendingEmailExpiresAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetByEmail returns the user with the given email, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// UpdatePassword replaces the stored password hash for the user.
func (r *PostgresRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET password = $2, updated_at = NOW() WHERE id = $1`,
		userID, passwordHash,
	)
	return err
}

// RequestEmailChange stores the pending address and its confirmation token on
// the user row and returns the updated user, or nil if the user is gone.
func (r *PostgresRepository) RequestEmailChange(ctx context.Context, userID, email, token string, expiresAt time.Time) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET pending_email = $2, pending_email_token = $3::uuid, pending_email_expires_at = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		userID, email, token, expiresAt,
	)
	return scanUser(row)
}

// ConfirmEmailChange swaps email to the pending address for the user whose
// unexpired pending token matches. Returns false when no row matched.
func (r *PostgresRepository) ConfirmEmailChange(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = pending_email,
			pending_email = NULL,
			pending_email_token = NULL,
			pending_email_expires_at = NULL,
			updated_at = NOW()
		WHERE pending_email_token = $1::uuid
			AND pending_email IS NOT NULL
			AND pending_email_expires_at > NOW()`,
		token,
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
