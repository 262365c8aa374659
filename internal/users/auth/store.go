// Copyright (c) 2026 OreMetrics. All rights reserved.

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// Implementations map storage-level errors (missing rows, unique-constraint
// violations) to domain-friendly apperr values; the service layer never sees
// driver errors.
type UserRepository interface {
	// Create persists a brand-new user account. A username collision is
	// reported as a client-safe conflict error.
	Create(ctx context.Context, user *User) error

	// FindByID returns the account with the given ID.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByUsername returns the account with the given username.
	// Usernames are unique, so the match is exact.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindByEmail returns the oldest account with the given email.
	//
	// Emails are deliberately NOT unique; when duplicates exist the first
	// registered account wins. Lookup order is by creation time so the
	// result is at least deterministic.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// SetOTP stores a fresh one-time password and its expiry on the account.
	SetOTP(ctx context.Context, userID, code string, expires time.Time) error

	// MarkVerified clears the OTP fields and flips the account to verified,
	// in a single write.
	MarkVerified(ctx context.Context, userID string) error

	// UpdatePasswordAndClearOTP replaces the password hash and clears the
	// OTP fields, in a single write.
	UpdatePasswordAndClearOTP(ctx context.Context, userID, newHash string) error
}

// # Volatile Data Access

// AttemptRepository tracks failed OTP verification attempts per user.
//
// The counter lives outside the user record: a failed attempt must leave the
// account's verification state untouched.
type AttemptRepository interface {
	// Count returns the number of failed attempts in the current window.
	// A missing counter reads as zero.
	Count(ctx context.Context, userID string) (int64, error)

	// Incr records one failed attempt and returns the new count. The first
	// increment of a window arms the window's expiry.
	Incr(ctx context.Context, userID string, window time.Duration) (int64, error)

	// Reset discards the counter, e.g. after a successful verification or
	// when a fresh code is issued.
	Reset(ctx context.Context, userID string) error
}
