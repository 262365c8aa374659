// Copyright (c) 2026 OreMetrics. All rights reserved.

package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

// GenerateOTP draws a 6-digit code uniformly from [100000, 999999].
//
// crypto/rand is used rather than math/rand: the code is a bearer secret
// for account takeover, so predictability matters.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpSpan))
	if err != nil {
		return "", fmt.Errorf("auth: failed to generate OTP: %w", err)
	}

	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}
