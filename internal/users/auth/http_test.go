// Copyright (c) 2026 OreMetrics. All rights reserved.

package auth_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oremetrics/oremetrics/internal/users/auth"
)

// postJSON drives one request through the full auth router.
func postJSON(t *testing.T, router http.Handler, path string, body map[string]any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	request := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, request)

	decoded := map[string]any{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	return recorder, decoded
}

/*
TestHandler_Register verifies the registration endpoint contract.
*/
func TestHandler_Register(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		fixture := newServiceFixture()
		router := auth.NewHandler(fixture.service).Routes()

		recorder, body := postJSON(t, router, "/register", map[string]any{
			"username": "alice",
			"email":    "alice@example.com",
			"password": "pw123",
		})

		assert.Equal(t, http.StatusCreated, recorder.Code)
		assert.Equal(t, "Registered successfully, OTP sent!", body["message"])
		assert.NotEmpty(t, body["userId"])
	})

	t.Run("missing_fields_rejected", func(t *testing.T) {
		fixture := newServiceFixture()
		router := auth.NewHandler(fixture.service).Routes()

		recorder, body := postJSON(t, router, "/register", map[string]any{
			"username": "alice",
		})

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.NotEmpty(t, body["error"])
	})

	t.Run("duplicate_username_rejected", func(t *testing.T) {
		fixture := newServiceFixture()
		fixture.seedUser(t, "alice", "alice@example.com", "pw123", true, "", time.Time{})
		router := auth.NewHandler(fixture.service).Routes()

		recorder, body := postJSON(t, router, "/register", map[string]any{
			"username": "alice",
			"email":    "new@example.com",
			"password": "pw456",
		})

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "Username already exists", body["error"])
	})

	t.Run("malformed_json_rejected", func(t *testing.T) {
		fixture := newServiceFixture()
		router := auth.NewHandler(fixture.service).Routes()

		request := httptest.NewRequest(http.MethodPost, "/register", bytes.NewReader([]byte("{not json")))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

/*
TestHandler_VerifyOTP verifies the OTP confirmation endpoint contract.
*/
func TestHandler_VerifyOTP(t *testing.T) {
	t.Run("verified", func(t *testing.T) {
		fixture := newServiceFixture()
		user := fixture.seedUser(t, "alice", "alice@example.com", "pw123", false,
			"123456", time.Now().Add(9*time.Minute))
		router := auth.NewHandler(fixture.service).Routes()

		recorder, body := postJSON(t, router, "/verify-otp", map[string]any{
			"userId": user.ID,
			"otp":    "123456",
		})

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "OTP verified successfully!", body["message"])
	})

	t.Run("wrong_code", func(t *testing.T) {
		fixture := newServiceFixture()
		user := fixture.seedUser(t, "alice", "alice@example.com", "pw123", false,
			"123456", time.Now().Add(9*time.Minute))
		router := auth.NewHandler(fixture.service).Routes()

		recorder, body := postJSON(t, router, "/verify-otp", map[string]any{
			"userId": user.ID,
			"otp":    "000000",
		})

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "Invalid or expired OTP", body["error"])
	})

	t.Run("unknown_user", func(t *testing.T) {
		fixture := newServiceFixture()
		router := auth.NewHandler(fixture.service).Routes()

		recorder, body := postJSON(t, router, "/verify-otp", map[string]any{
			"userId": "missing",
			"otp":    "123456",
		})

		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.Equal(t, "User not found", body["error"])
	})
}

/*
TestHandler_Login verifies the login endpoint contract, including the
username/email fallback in the request body.
*/
func TestHandler_Login(t *testing.T) {
	t.Run("with_username", func(t *testing.T) {
		fixture := newServiceFixture()
		user := fixture.seedUser(t, "alice", "alice@example.com", "pw123", true, "", time.Time{})
		router := auth.NewHandler(fixture.service).Routes()

		recorder, body := postJSON(t, router, "/login", map[string]any{
			"username": "alice",
			"password": "pw123",
		})

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "Login successful", body["message"])
		assert.NotEmpty(t, body["token"])

		summary, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, user.ID, summary["id"])
		assert.Equal(t, "alice", summary["username"])
		assert.Equal(t, "alice@example.com", summary["email"])
	})

	t.Run("with_email_only", func(t *testing.T) {
		fixture := newServiceFixture()
		fixture.seedUser(t, "alice", "alice@example.com", "pw123", true, "", time.Time{})
		router := auth.NewHandler(fixture.service).Routes()

		recorder, body := postJSON(t, router, "/login", map[string]any{
			"email":    "alice@example.com",
			"password": "pw123",
		})

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.NotEmpty(t, body["token"])
	})

	t.Run("unverified_account", func(t *testing.T) {
		fixture := newServiceFixture()
		fixture.seedUser(t, "alice", "alice@example.com", "pw123", false,
			"123456", time.Now().Add(9*time.Minute))
		router := auth.NewHandler(fixture.service).Routes()

		recorder, body := postJSON(t, router, "/login", map[string]any{
			"username": "alice",
			"password": "pw123",
		})

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "Please verify your account before logging in", body["error"])
	})

	t.Run("bad_password", func(t *testing.T) {
		fixture := newServiceFixture()
		fixture.seedUser(t, "alice", "alice@example.com", "pw123", true, "", time.Time{})
		router := auth.NewHandler(fixture.service).Routes()

		recorder, body := postJSON(t, router, "/login", map[string]any{
			"username": "alice",
			"password": "nope",
		})

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "Invalid credentials", body["error"])
	})
}

/*
TestHandler_PasswordRecovery drives the full forgot/reset round trip through
the HTTP surface.
*/
func TestHandler_PasswordRecovery(t *testing.T) {
	fixture := newServiceFixture()
	user := fixture.seedUser(t, "alice", "alice@example.com", "pw123", true, "", time.Time{})
	router := auth.NewHandler(fixture.service).Routes()

	// Step 1: request a recovery code.
	recorder, body := postJSON(t, router, "/forgot-password", map[string]any{
		"email": "alice@example.com",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "OTP sent to email", body["message"])
	assert.Equal(t, user.ID, body["userId"])

	// Step 2: consume the emailed code.
	recorder, body = postJSON(t, router, "/reset-password", map[string]any{
		"userId":      user.ID,
		"otp":         fixture.mailer.lastCode,
		"newPassword": "newpw456",
	})
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "Password reset successfully!", body["message"])

	// Step 3: the new password logs in, the old one does not.
	recorder, _ = postJSON(t, router, "/login", map[string]any{
		"username": "alice",
		"password": "newpw456",
	})
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder, _ = postJSON(t, router, "/login", map[string]any{
		"username": "alice",
		"password": "pw123",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

/*
TestHandler_ForgotPassword_UnknownEmail asserts the 404 contract.
*/
func TestHandler_ForgotPassword_UnknownEmail(t *testing.T) {
	fixture := newServiceFixture()
	router := auth.NewHandler(fixture.service).Routes()

	recorder, body := postJSON(t, router, "/forgot-password", map[string]any{
		"email": fmt.Sprintf("ghost-%d@example.com", time.Now().UnixNano()),
	})

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.Equal(t, "Email not found", body["error"])
}
