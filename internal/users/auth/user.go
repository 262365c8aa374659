// Copyright (c) 2026 OreMetrics. All rights reserved.

/*
Package auth implements the user identity and OTP lifecycle layer.

It defines the core domain entity (User) and the logic for registration,
email verification via one-time passwords, login, and password recovery.

# Architecture

This layer is the "Truth" of the system. The entity defined here has no
external dependencies and encapsulates all business rules related to user
identity and verification state.
*/
package auth

import "time"

// # Domain Entities

// User represents a registered member of the AI-LCA platform.
//
// # Verification lifecycle
//
// A user is created unverified with a pending OTP. A non-nil OTP is always
// paired with a non-nil OTPExpires that was in the future at issuance.
// Verifying or resetting a password clears both fields together.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Explicitly omitted from JSON for security.
	IsVerified   bool       `json:"is_verified"`
	OTP          *string    `json:"-"` // Never serialized; codes travel only via email.
	OTPExpires   *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Summary is the minimal user projection returned on login.
type Summary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Summary returns the transport-safe projection of the user.
func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Username: u.Username, Email: u.Email}
}

// HasPendingOTP reports whether an OTP is currently stored for the user.
func (u *User) HasPendingOTP() bool {
	return u.OTP != nil && u.OTPExpires != nil
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldUsername    = "username"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldUserID      = "userId"
	FieldOTP         = "otp"
	FieldNewPassword = "newPassword"
	FieldMessage     = "message"
	FieldToken       = "token"
	FieldUser        = "user"
)
