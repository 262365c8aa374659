// Copyright (c) 2026 OreMetrics. All rights reserved.

package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/oremetrics/oremetrics/internal/platform/apperr"
	"github.com/oremetrics/oremetrics/internal/platform/ctxutil"
	"github.com/oremetrics/oremetrics/internal/platform/middleware"
	requestutil "github.com/oremetrics/oremetrics/internal/platform/request"
	"github.com/oremetrics/oremetrics/internal/platform/respond"
	"github.com/oremetrics/oremetrics/internal/platform/validate"
)

// # HTTP Handler

// Completer abstracts the completion client for the handler.
type Completer interface {
	Complete(ctx context.Context, message string) (*Completion, error)
	Configured() bool
}

// Handler exposes the chat proxy endpoints.
type Handler struct {
	completer Completer
}

// NewHandler constructs a new [Handler].
func NewHandler(completer Completer) *Handler {
	return &Handler{completer: completer}
}

// Routes returns a [chi.Router] with the chat endpoints.
//
// # Endpoints
//   - GET  /health  : Service health probe, no authentication.
//   - POST /chat    : Single-turn completion, authenticated.
//   - GET  /history : Conversation history placeholder, authenticated.
//   - DELETE /session : Session-clear placeholder, authenticated.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/health", handler.health)

	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)
		protected.Post("/chat", handler.chat)
		protected.Get("/history", handler.history)
		protected.Delete("/session", handler.clearSession)
	})

	return router
}

type chatRequest struct {
	Message string `json:"message"`
}

/*
chat handles a single-turn completion request.

POST /api/chat

Upstream failures keep the caller's UI functional: every error body pairs an
"error" code with a conversational "reply" the frontend can render in place
of the model answer.

Response:
  - 200: {reply, timestamp, tokens_used}
  - 400: Empty message, or the upstream rejected the request
  - 408: Upstream deadline elapsed
  - 429: Upstream rate limit
  - 500: Missing or rejected API credential, or any other failure
*/
func (handler *Handler) chat(writer http.ResponseWriter, request *http.Request) {
	var input chatRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	message := strings.TrimSpace(input.Message)
	if message == "" {
		respond.Error(writer, request, apperr.BadRequest("Message is required"))
		return
	}

	if !handler.completer.Configured() {
		respond.JSON(writer, http.StatusInternalServerError, map[string]string{
			"error": "OpenAI API key not configured",
			"reply": "I apologize, but the AI service is currently unavailable. Please check the API configuration.",
		})
		return
	}

	completion, err := handler.completer.Complete(request.Context(), message)
	if err != nil {
		handler.writeCompletionError(writer, request, err)
		return
	}

	if claims := requestutil.Claims(request); claims != nil {
		ctxutil.GetLogger(request.Context()).Info("chat completion served",
			"user_id", claims.UserID,
			"tokens_used", completion.TokensUsed,
		)
	}

	respond.OK(writer, map[string]any{
		"reply":       completion.Reply,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"tokens_used": completion.TokensUsed,
	})
}

// writeCompletionError maps upstream failures onto local statuses, each with
// a conversational fallback reply.
func (handler *Handler) writeCompletionError(writer http.ResponseWriter, request *http.Request, err error) {
	ctxutil.GetLogger(request.Context()).Error("chat completion failed", "error", err)

	if errors.Is(err, ErrUpstreamTimeout) {
		respond.JSON(writer, http.StatusRequestTimeout, map[string]string{
			"error": "Request timeout",
			"reply": "The request took too long to process. Please try again.",
		})
		return
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		switch upstream.StatusCode {
		case http.StatusUnauthorized:
			respond.JSON(writer, http.StatusInternalServerError, map[string]string{
				"error": "Invalid API key",
				"reply": "There is an issue with the API configuration. Please contact support.",
			})
			return
		case http.StatusTooManyRequests:
			respond.JSON(writer, http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded",
				"reply": "Too many requests. Please wait a moment before trying again.",
			})
			return
		case http.StatusBadRequest:
			respond.JSON(writer, http.StatusBadRequest, map[string]string{
				"error": "Invalid request",
				"reply": "There was an issue with your request. Please try rephrasing your question.",
			})
			return
		}
	}

	respond.JSON(writer, http.StatusInternalServerError, map[string]string{
		"error": "Internal server error",
		"reply": "I apologize, but I encountered an error processing your request. Please try again later.",
	})
}

/*
health reports liveness of the chat proxy itself.

GET /api/health

Response:
  - 200: {status, service, timestamp, openai_configured}
*/
func (handler *Handler) health(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]any{
		"status":            "healthy",
		"service":           "LCA Chat API",
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
		"openai_configured": handler.completer.Configured(),
	})
}

/*
history returns the stored conversation for the caller.

GET /api/history

Storage is not implemented; the endpoint exists so the frontend contract
stays stable once it is.
*/
func (handler *Handler) history(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]any{
		"messages": []any{},
		"message":  "Chat history feature not yet implemented",
	})
}

/*
clearSession discards the caller's conversation state.

DELETE /api/session

No state is kept per session, so this always succeeds.
*/
func (handler *Handler) clearSession(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{
		"message": "Chat session cleared successfully",
	})
}
