// Copyright (c) 2026 OreMetrics. All rights reserved.

/*
HTTP delivery layer for user identity management.

The handler acts as a thin mediation layer between the web and the domain
service:

  - Protocol: RESTful JSON, flat response bodies matching the frontend contract.
  - Verification: Strict input validation before anything reaches [Service].

This layer is strictly responsible for transport concerns (status codes, JSON).
*/
package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/oremetrics/oremetrics/internal/platform/request"
	"github.com/oremetrics/oremetrics/internal/platform/respond"
	"github.com/oremetrics/oremetrics/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with the authentication routes.
//
// # Endpoints
//   - POST /register        : Creates an unverified account and emails an OTP.
//   - POST /verify-otp      : Confirms the code and activates the account.
//   - POST /login           : Authenticates and returns a 24h session JWT.
//   - POST /forgot-password : Emails a fresh OTP for password recovery.
//   - POST /reset-password  : Consumes the OTP and replaces the password.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", handler.register)
	router.Post("/verify-otp", handler.verifyOTP)
	router.Post("/login", handler.login)
	router.Post("/forgot-password", handler.forgotPassword)
	router.Post("/reset-password", handler.resetPassword)

	return router
}

// # Request Payloads

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyOTPRequest struct {
	UserID string `json:"userId"`
	OTP    string `json:"otp"`
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	UserID      string `json:"userId"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

/*
register handles the creation of a new user account.

POST /api/auth/register

Response:
  - 201: {message, userId}
  - 400: Validation failure or duplicate username
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, input.Username).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, map[string]string{
		FieldMessage: "Registered successfully, OTP sent!",
		FieldUserID:  user.ID,
	})
}

/*
verifyOTP confirms account ownership with the emailed code.

POST /api/auth/verify-otp

Response:
  - 200: {message}
  - 400: Invalid or expired OTP
  - 404: Unknown user
*/
func (handler *Handler) verifyOTP(writer http.ResponseWriter, request *http.Request) {
	var input verifyOTPRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUserID, input.UserID).
		Required(FieldOTP, input.OTP)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.VerifyOTP(request.Context(), input.UserID, input.OTP); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "OTP verified successfully!",
	})
}

/*
login authenticates a user and issues a session token.

POST /api/auth/login

The caller supplies either username or email; when both are present the
username wins. The service treats any identifier containing "@" as an email.

Response:
  - 200: {message, token, user}
  - 400: Unverified account or bad credentials
  - 404: Unknown user
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	identifier := input.Username
	if identifier == "" {
		identifier = input.Email
	}

	validator := &validate.Validator{}
	validator.Required(FieldUsername, identifier).
		Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Identifier: identifier,
		Password:   input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldMessage: "Login successful",
		FieldToken:   session.Token,
		FieldUser:    session.User,
	})
}

/*
forgotPassword starts the recovery flow.

POST /api/auth/forgot-password

Response:
  - 200: {message, userId}
  - 404: No account with this email
*/
func (handler *Handler) forgotPassword(writer http.ResponseWriter, request *http.Request) {
	var input forgotPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email).Email(FieldEmail, input.Email)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.ForgotPassword(request.Context(), input.Email)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "OTP sent to email",
		FieldUserID:  user.ID,
	})
}

/*
resetPassword completes the recovery flow.

POST /api/auth/reset-password

Response:
  - 200: {message}
  - 400: Invalid or expired OTP
  - 404: Unknown user
*/
func (handler *Handler) resetPassword(writer http.ResponseWriter, request *http.Request) {
	var input resetPasswordRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldUserID, input.UserID).
		Required(FieldOTP, input.OTP).
		Required(FieldNewPassword, input.NewPassword)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.authService.ResetPassword(request.Context(), input.UserID, input.OTP, input.NewPassword); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]string{
		FieldMessage: "Password reset successfully!",
	})
}
