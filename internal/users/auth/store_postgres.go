// Copyright (c) 2026 OreMetrics. All rights reserved.

// PostgreSQL implementation of the auth storage contracts.
//
// # Error Mapping
//
// Storage-specific errors (pgx.ErrNoRows, SQLSTATE 23505) are mapped to
// domain-friendly [apperr.AppError] values so no driver detail leaks past
// this file.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oremetrics/oremetrics/internal/platform/apperr"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = "id, username, email, passwordhash, isverified, otp, otpexpires, createdat, updatedat"

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.IsVerified,
		&user.OTP,
		&user.OTPExpires,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
Create persists a new user record into the users.account table.

The unique index on username backs the service-level duplicate check against
concurrent registrations; a violation surfaces as the same client-safe error.
*/
func (repository *PostgresUserRepository) Create(ctx context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, username, email, passwordhash, isverified, otp, otpexpires, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.IsVerified,
		user.OTP,
		user.OTPExpires,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		var pgError *pgconn.PgError
		if errors.As(err, &pgError) && pgError.Code == pgerrcode.UniqueViolation {
			return apperr.BadRequest("Username already exists")
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

// FindByID retrieves a user record by primary key.
func (repository *PostgresUserRepository) FindByID(ctx context.Context, id string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE id = $1`

	user, err := scanUser(repository.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

// FindByUsername retrieves a user record by their unique username.
func (repository *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE username = $1`

	user, err := scanUser(repository.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_username_failed: %w", err)
	}

	return user, nil
}

/*
FindByEmail retrieves the oldest user record with the given email address.

Emails are not unique. Ordering by creation time makes the duplicate case
deterministic: the first registered account owns recovery for the mailbox.
*/
func (repository *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE email = $1
		ORDER BY createdat ASC
		LIMIT 1`

	user, err := scanUser(repository.pool.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Email not found")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

// SetOTP stores a fresh one-time password and expiry on the account.
func (repository *PostgresUserRepository) SetOTP(ctx context.Context, userID, code string, expires time.Time) error {
	const query = `
		UPDATE users.account
		SET otp = $2, otpexpires = $3, updatedat = $4
		WHERE id = $1`

	_, err := repository.pool.Exec(ctx, query, userID, code, expires, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_otp_failed: %w", err)
	}

	return nil
}

// MarkVerified clears the OTP fields and activates the account in one write.
func (repository *PostgresUserRepository) MarkVerified(ctx context.Context, userID string) error {
	const query = `
		UPDATE users.account
		SET isverified = TRUE, otp = NULL, otpexpires = NULL, updatedat = $2
		WHERE id = $1`

	_, err := repository.pool.Exec(ctx, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_mark_verified_failed: %w", err)
	}

	return nil
}

// UpdatePasswordAndClearOTP replaces the password hash and consumes the OTP in one write.
func (repository *PostgresUserRepository) UpdatePasswordAndClearOTP(ctx context.Context, userID, newHash string) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2, otp = NULL, otpexpires = NULL, updatedat = $3
		WHERE id = $1`

	_, err := repository.pool.Exec(ctx, query, userID, newHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}

	return nil
}
