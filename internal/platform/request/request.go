// Copyright (c) 2026 OreMetrics. All rights reserved.

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts common body decoding and identity extraction patterns, ensuring
consistent error handling and type safety across handlers.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/oremetrics/oremetrics/internal/platform/apperr"
	"github.com/oremetrics/oremetrics/internal/platform/ctxutil"
	"github.com/oremetrics/oremetrics/internal/platform/sec"
	"github.com/oremetrics/oremetrics/internal/platform/validate"
)

// DecodeJSON reads the request body and decodes it into the target structure.
//
// It returns validate.ErrInvalidJSON if decoding fails, so handlers can pass
// the error straight to respond.Error.
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

// Claims extracts the authenticated user claims from the request context.
//
// Returns nil if the request is not authenticated.
func Claims(request *http.Request) *sec.AuthClaims {
	return ctxutil.GetAuthUser(request.Context())
}

// RequiredClaims ensures the request is authenticated and returns the user claims.
//
// Returns apperr.Unauthorized if the request carries no verified identity.
func RequiredClaims(request *http.Request) (*sec.AuthClaims, error) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil {
		return nil, apperr.Unauthorized("Access token required")
	}
	return claims, nil
}

// RequiredUserID returns the user ID of the currently authenticated caller.
func RequiredUserID(request *http.Request) (string, error) {
	claims, err := RequiredClaims(request)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
