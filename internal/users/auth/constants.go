// Copyright (c) 2026 OreMetrics. All rights reserved.

package auth

import "time"

// # Authentication Constraints

const (
	// SessionTokenTTL is the fixed validity window of a session JWT.
	// One day, measured from issuance. Tokens are stateless and cannot be
	// revoked early.
	SessionTokenTTL = 24 * time.Hour

	// OTPTTL is how long a one-time password stays valid after issuance.
	OTPTTL = 10 * time.Minute

	// otpMin and otpSpan bound the 6-digit OTP range [100000, 999999].
	otpMin  = 100000
	otpSpan = 900000

	// MaxOTPAttempts is the number of failed verification attempts allowed
	// per user inside one attempt window before further attempts are refused.
	MaxOTPAttempts = 5

	// OTPAttemptWindow is the sliding window for the failed-attempt counter.
	// Matches the OTP validity window so a throttled user can simply request
	// a fresh code.
	OTPAttemptWindow = 10 * time.Minute
)
