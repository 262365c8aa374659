// Copyright (c) 2026 OreMetrics. All rights reserved.

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, JWT signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via the auth TokenProvider interface.
package sec

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims represents the payload embedded inside a session JWT.
//
// # Why custom claims?
//
// By embedding the UserID directly inside the JWT, the authentication
// middleware can reconstruct the active user context WITHOUT querying the
// database on every single API request.
type AuthClaims struct {
	jwt.RegisteredClaims

	// UserID is abbreviated to keep the JWT payload small.
	UserID string `json:"uid"`
}

// TokenService handles generation and verification of session JWTs using HS256.
//
// The signing secret is provided by the environment at startup. Tokens are
// stateless: possession of a valid, unexpired, correctly-signed token is
// sufficient to authenticate. There is no server-side revocation list.
type TokenService struct {
	secret []byte
	issuer string
}

// NewTokenService creates a new TokenService signing with the given secret.
func NewTokenService(secret, issuer string) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("sec: signing secret must not be empty")
	}

	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
	}, nil
}

// GenerateSessionToken creates a new signed JWT bound to the given user ID.
func (service *TokenService) GenerateSessionToken(userID string, timeToLive time.Duration) (string, error) {
	currentTime := time.Now()
	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(currentTime),
			ExpiresAt: jwt.NewNumericDate(currentTime.Add(timeToLive)),
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyToken checks the signature and validity of a JWT string.
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
		}
		return service.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("sec: invalid token: %w", err)
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("sec: invalid token claims")
	}

	return claims, nil
}
