// Copyright (c) 2026 OreMetrics. All rights reserved.

/*
Package auth implements the core identity and OTP lifecycle system.

It handles user registration, one-time-password verification, login with
stateless session tokens, and the password recovery flow.

Architecture:

  - Service: Orchestrates business logic (Register, VerifyOTP, Login, recovery).
  - Repository: Abstracted interfaces for Postgres (users) and Redis (attempt counters).
  - Security: Bcrypt password digests and HS256-signed session JWTs.

The verification state machine is strict: an unverified user with a pending
OTP either verifies (OTP cleared, account verified) or stays exactly where it
was; a failed attempt never mutates the account.
*/
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oremetrics/oremetrics/internal/platform/apperr"
	"github.com/oremetrics/oremetrics/internal/platform/sec"
	"github.com/oremetrics/oremetrics/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for generating session tokens.
type TokenProvider interface {
	// GenerateSessionToken creates a signed token bound to the user ID,
	// valid for the given duration.
	GenerateSessionToken(userID string, timeToLive time.Duration) (string, error)
}

// OTPMailer dispatches one-time passwords to a user's mailbox.
//
// Delivery is an external collaborator; the service treats it as a
// fire-and-confirm capability with no retry.
type OTPMailer interface {
	SendOTP(ctx context.Context, email, code string) error
}

// Service implements the user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, OTP
// issuance, or login logic must be reviewed carefully.
type Service struct {
	userRepository    UserRepository
	attemptRepository AttemptRepository
	tokenProvider     TokenProvider
	mailer            OTPMailer
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	attemptRepo AttemptRepository,
	tokenProv TokenProvider,
	mailer OTPMailer,
) *Service {
	return &Service{
		userRepository:    userRepo,
		attemptRepository: attemptRepo,
		tokenProvider:     tokenProv,
		mailer:            mailer,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

/*
Register validates, hashes, and persists a brand new user account, then
issues and dispatches its first OTP.

Only the username is checked for uniqueness. Emails may repeat: several
accounts can legitimately share a mailbox, and the recovery flow resolves
duplicates by first registration.

Returns:
  - *User: Created entity (unverified, OTP pending)
  - error: Duplicate username or storage/hashing/dispatch failures
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {

	// Verify username uniqueness up front for a client-safe error. The
	// database constraint still backs this check against races.
	if _, err := service.userRepository.FindByUsername(ctx, input.Username); err == nil {
		return nil, apperr.BadRequest("Username already exists")
	}

	// Prevent storing plain-text passwords. Default cost balances security
	// and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	code, err := GenerateOTP()
	if err != nil {
		return nil, fmt.Errorf("auth_service_otp_failed: %w", err)
	}
	expires := time.Now().Add(OTPTTL)

	// Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		IsVerified:   false,
		OTP:          &code,
		OTPExpires:   &expires,
	}

	if err := service.userRepository.Create(ctx, user); err != nil {
		return nil, err
	}

	// Dispatch the code. The account is NOT rolled back on failure: the
	// user exists and can request a fresh code via forgot-password.
	if err := service.mailer.SendOTP(ctx, user.Email, code); err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_otp_dispatch_failed: %w", err))
	}

	return user, nil
}

// # OTP Verification

/*
VerifyOTP confirms account ownership using the emailed one-time code.

The check succeeds only when the stored code matches exactly AND the stored
expiry is strictly in the future. Mismatch and expiry are reported with one
indistinguishable error so callers cannot probe which condition failed.

On success the OTP fields are cleared and the account becomes verified. On
failure the account state is untouched; only the Redis attempt counter moves.
*/
func (service *Service) VerifyOTP(ctx context.Context, userID, code string) error {
	user, err := service.userRepository.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := service.checkOTP(ctx, user, code); err != nil {
		return err
	}

	if err := service.userRepository.MarkVerified(ctx, user.ID); err != nil {
		return fmt.Errorf("auth_service_mark_verified_failed: %w", err)
	}

	_ = service.attemptRepository.Reset(ctx, user.ID)

	return nil
}

// checkOTP applies the shared OTP validity rule for verification and reset.
//
// Attempt throttling runs first: once MaxOTPAttempts failures accumulate in
// a window, even a correct code is refused until the window lapses or a new
// code resets the counter.
func (service *Service) checkOTP(ctx context.Context, user *User, code string) error {
	attempts, err := service.attemptRepository.Count(ctx, user.ID)
	if err == nil && attempts >= MaxOTPAttempts {
		return apperr.BadRequest("Too many attempts, request a new code")
	}

	valid := user.HasPendingOTP() &&
		*user.OTP == code &&
		user.OTPExpires.After(time.Now())

	if !valid {
		// Counter failures are best-effort; the guess is rejected either way.
		_, _ = service.attemptRepository.Incr(ctx, user.ID, OTPAttemptWindow)
		return apperr.BadRequest("Invalid or expired OTP")
	}

	return nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Identifier string // Username or email; an "@" marks it as an email.
	Password   string
}

// LoginSession represents a successfully established stateless session.
type LoginSession struct {
	Token string
	User  Summary
}

/*
Login validates user credentials and issues a session token.

The identifier is disambiguated by shape: anything containing "@" is looked
up as an email (oldest account wins among duplicates), everything else as a
username. Unverified accounts are refused before the password is checked, so
a user who skipped verification gets an actionable message.

Returns:
  - *LoginSession: Signed 24h token and the minimal user summary
  - error: NotFound, unverified-account, or invalid-credentials failures
*/
func (service *Service) Login(ctx context.Context, input LoginInput) (*LoginSession, error) {
	var user *User
	var err error

	if strings.Contains(input.Identifier, "@") {
		user, err = service.userRepository.FindByEmail(ctx, input.Identifier)
	} else {
		user, err = service.userRepository.FindByUsername(ctx, input.Identifier)
	}

	if err != nil {
		return nil, apperr.NotFound("User not found")
	}

	if !user.IsVerified {
		return nil, apperr.BadRequest("Please verify your account before logging in")
	}

	// Constant-time comparison inside bcrypt prevents timing attacks.
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.BadRequest("Invalid credentials")
	}

	token, err := service.tokenProvider.GenerateSessionToken(user.ID, SessionTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	return &LoginSession{
		Token: token,
		User:  user.Summary(),
	}, nil
}

// # Password Recovery

/*
ForgotPassword initiates the recovery flow for the given email.

A fresh OTP replaces whatever code was pending, with a new 10-minute expiry.
Verification status is NOT required: recovery must work for users who lost
access before ever verifying.

Returns:
  - *User: The matched account (oldest registration for duplicate emails)
  - error: NotFound or storage/dispatch failures
*/
func (service *Service) ForgotPassword(ctx context.Context, email string) (*User, error) {
	user, err := service.userRepository.FindByEmail(ctx, email)
	if err != nil {
		return nil, apperr.NotFound("Email not found")
	}

	code, err := GenerateOTP()
	if err != nil {
		return nil, fmt.Errorf("auth_service_otp_failed: %w", err)
	}
	expires := time.Now().Add(OTPTTL)

	if err := service.userRepository.SetOTP(ctx, user.ID, code, expires); err != nil {
		return nil, fmt.Errorf("auth_service_set_otp_failed: %w", err)
	}

	// A fresh code opens a fresh guessing window.
	_ = service.attemptRepository.Reset(ctx, user.ID)

	if err := service.mailer.SendOTP(ctx, user.Email, code); err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_otp_dispatch_failed: %w", err))
	}

	return user, nil
}

/*
ResetPassword completes the recovery flow.

The OTP rule is identical to [Service.VerifyOTP]: exact match plus unexpired.
On success the password digest is replaced and the OTP fields are cleared in
one write; on failure the account is untouched.
*/
func (service *Service) ResetPassword(ctx context.Context, userID, code, newPassword string) error {
	user, err := service.userRepository.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := service.checkOTP(ctx, user, code); err != nil {
		return err
	}

	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	if err := service.userRepository.UpdatePasswordAndClearOTP(ctx, user.ID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	_ = service.attemptRepository.Reset(ctx, user.ID)

	return nil
}
