package repository

import (
	"context"
	"database/sql"
	"errors"

	"workspace-kit/internal/auth/domain"
	userdomain "workspace-kit/internal/user/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an auth repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateUser inserts the user and its email verification token in one
// transaction. The user must have ID set; it is not assigned by this method.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *userdomain.User, verification *domain.EmailVerification) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password) VALUES ($1, $2, $3, $4)`,
		u.ID, u.Name, u.Email, u.Password,
	)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO email_verifications (token, user_id, expires_at) VALUES ($1::uuid, $2, $3)`,
		verification.Token, u.ID, verification.ExpiresAt,
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// GetEmailVerification returns the verification for token, or nil if not found.
func (r *PostgresRepository) GetEmailVerification(ctx context.Context, token string) (*domain.EmailVerification, error) {
	var v domain.EmailVerification
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, token::text, expires_at FROM email_verifications WHERE token = $1::uuid`,
		token,
	).Scan(&v.UserID, &v.Token, &v.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

// MarkEmailVerified flags the user verified and discards their verification tokens.
func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET email_verified = TRUE, updated_at = NOW() WHERE id = $1`, userID,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM email_verifications WHERE user_id = $1`, userID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PostgresRepository) SavePasswordReset(ctx context.Context, reset *domain.PasswordReset) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_resets (token, user_id, expires_at) VALUES ($1::uuid, $2, $3)`,
		reset.Token, reset.UserID, reset.ExpiresAt,
	)
	return err
}

// GetPasswordReset returns the reset for token, or nil if not found.
func (r *PostgresRepository) GetPasswordReset(ctx context.Context, token string) (*domain.PasswordReset, error) {
	var p domain.PasswordReset
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, token::text, expires_at FROM password_resets WHERE token = $1::uuid`,
		token,
	).Scan(&p.UserID, &p.Token, &p.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// ResetPassword replaces the user's password hash and discards their reset tokens.
func (r *PostgresRepository) ResetPassword(ctx context.Context, userID, passwordHash string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET password = $2, updated_at = NOW() WHERE id = $1`,
		userID, passwordHash,
	); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM password_resets WHERE user_id = $1`, userID,
	); err != nil {
		return err
	}
	return tx.Commit()
}
