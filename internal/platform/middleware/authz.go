// Copyright (c) 2026 OreMetrics. All rights reserved.

package middleware

import (
	"net/http"
	"strings"

	"github.com/oremetrics/oremetrics/internal/platform/apperr"
	"github.com/oremetrics/oremetrics/internal/platform/constants"
	"github.com/oremetrics/oremetrics/internal/platform/ctxutil"
	"github.com/oremetrics/oremetrics/internal/platform/respond"
	"github.com/oremetrics/oremetrics/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify session tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the middleware from the sec package's
// concrete TokenService, allowing us to easily inject mocks during unit testing.
type TokenVerifier interface {
	VerifyToken(tokenStr string) (*sec.AuthClaims, error)
}

// Authenticate extracts and verifies the session JWT from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, the request proceeds as anonymous. Protected routes are
//     gated separately by [RequireAuth].
//  3. If present but malformed or failing verification, abort with 403.
//  4. On success, inject [*sec.AuthClaims] into the request context.
//
// A present-but-invalid token is a 403 (the caller holds a credential that
// was rejected), while a missing token on a protected route is a 401.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// Anonymous access: defer the decision to RequireAuth.
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Forbidden("Invalid token"))
				return
			}

			claims, err := verifier.VerifyToken(parts[1])
			if err != nil {
				respond.Error(writer, request, apperr.Forbidden("Invalid token"))
				return
			}

			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		claims := ctxutil.GetAuthUser(request.Context())
		if claims == nil {
			respond.Error(writer, request, apperr.Unauthorized("Access token required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
