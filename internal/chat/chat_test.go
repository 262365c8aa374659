// Copyright (c) 2026 OreMetrics. All rights reserved.

package chat_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oremetrics/oremetrics/internal/chat"
	"github.com/oremetrics/oremetrics/internal/platform/ctxutil"
	"github.com/oremetrics/oremetrics/internal/platform/sec"
)

// fakeCompleter scripts the upstream behavior for handler tests.
type fakeCompleter struct {
	configured bool
	completion *chat.Completion
	err        error
}

func (f *fakeCompleter) Complete(_ context.Context, _ string) (*chat.Completion, error) {
	return f.completion, f.err
}

func (f *fakeCompleter) Configured() bool {
	return f.configured
}

// doChat drives one request through the chat router, optionally authenticated.
func doChat(t *testing.T, router http.Handler, method, path, body string, authenticated bool) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	request := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	request.Header.Set("Content-Type", "application/json")
	if authenticated {
		ctx := ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: "user-1"})
		request = request.WithContext(ctx)
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	decoded := map[string]any{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded))
	return recorder, decoded
}

/*
TestHandler_Chat_AuthGate verifies that the completion endpoint refuses
anonymous callers.
*/
func TestHandler_Chat_AuthGate(t *testing.T) {
	router := chat.NewHandler(&fakeCompleter{configured: true}).Routes()

	recorder, body := doChat(t, router, http.MethodPost, "/chat", `{"message":"hi"}`, false)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, "Access token required", body["error"])
}

/*
TestHandler_Chat covers the completion endpoint contract: validation,
configuration gating, success shape, and the upstream error mapping.
*/
func TestHandler_Chat(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		completer := &fakeCompleter{
			configured: true,
			completion: &chat.Completion{Reply: "Use rail freight where possible.", TokensUsed: 57},
		}
		router := chat.NewHandler(completer).Routes()

		recorder, body := doChat(t, router, http.MethodPost, "/chat", `{"message":"How do I cut transport emissions?"}`, true)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "Use rail freight where possible.", body["reply"])
		assert.Equal(t, float64(57), body["tokens_used"])
		assert.NotEmpty(t, body["timestamp"])
	})

	t.Run("empty_message_rejected", func(t *testing.T) {
		router := chat.NewHandler(&fakeCompleter{configured: true}).Routes()

		recorder, body := doChat(t, router, http.MethodPost, "/chat", `{"message":"   "}`, true)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.Equal(t, "Message is required", body["error"])
	})

	t.Run("missing_api_key", func(t *testing.T) {
		router := chat.NewHandler(&fakeCompleter{configured: false}).Routes()

		recorder, body := doChat(t, router, http.MethodPost, "/chat", `{"message":"hi"}`, true)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
		assert.Equal(t, "OpenAI API key not configured", body["error"])
		assert.NotEmpty(t, body["reply"])
	})

	t.Run("upstream_error_mapping", func(t *testing.T) {
		tests := []struct {
			name       string
			err        error
			wantStatus int
			wantError  string
		}{
			{"timeout", chat.ErrUpstreamTimeout, http.StatusRequestTimeout, "Request timeout"},
			{"bad_credential", &chat.UpstreamError{StatusCode: http.StatusUnauthorized}, http.StatusInternalServerError, "Invalid API key"},
			{"rate_limited", &chat.UpstreamError{StatusCode: http.StatusTooManyRequests}, http.StatusTooManyRequests, "Rate limit exceeded"},
			{"bad_request", &chat.UpstreamError{StatusCode: http.StatusBadRequest}, http.StatusBadRequest, "Invalid request"},
			{"server_error", &chat.UpstreamError{StatusCode: http.StatusBadGateway}, http.StatusInternalServerError, "Internal server error"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				router := chat.NewHandler(&fakeCompleter{configured: true, err: tt.err}).Routes()

				recorder, body := doChat(t, router, http.MethodPost, "/chat", `{"message":"hi"}`, true)

				assert.Equal(t, tt.wantStatus, recorder.Code)
				assert.Equal(t, tt.wantError, body["error"])
				// Every failure still carries a conversational reply.
				assert.NotEmpty(t, body["reply"])
			})
		}
	})
}

/*
TestHandler_Health checks the unauthenticated probe contract.
*/
func TestHandler_Health(t *testing.T) {
	router := chat.NewHandler(&fakeCompleter{configured: true}).Routes()

	recorder, body := doChat(t, router, http.MethodGet, "/health", "", false)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "LCA Chat API", body["service"])
	assert.Equal(t, true, body["openai_configured"])
	assert.NotEmpty(t, body["timestamp"])
}

/*
TestHandler_Stubs checks the history and session placeholders.
*/
func TestHandler_Stubs(t *testing.T) {
	router := chat.NewHandler(&fakeCompleter{configured: true}).Routes()

	recorder, body := doChat(t, router, http.MethodGet, "/history", "", true)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Empty(t, body["messages"])
	assert.Equal(t, "Chat history feature not yet implemented", body["message"])

	recorder, body = doChat(t, router, http.MethodDelete, "/session", "", true)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "Chat session cleared successfully", body["message"])
}

/*
TestClient_Complete runs the real client against a scripted upstream,
checking the request shape and the error taxonomy.
*/
func TestClient_Complete(t *testing.T) {
	t.Run("sends_system_prompt_and_parameters", func(t *testing.T) {
		var captured map[string]any

		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"choices":[{"message":{"content":"Rail beats road."}}],"usage":{"total_tokens":21}}`))
		}))
		defer upstream.Close()

		client := chat.NewClient(upstream.URL, "sk-test")
		completion, err := client.Complete(context.Background(), "Compare truck and train.")
		require.NoError(t, err)

		assert.Equal(t, "Rail beats road.", completion.Reply)
		assert.Equal(t, 21, completion.TokensUsed)

		assert.Equal(t, "gpt-3.5-turbo", captured["model"])
		assert.Equal(t, float64(500), captured["max_tokens"])
		assert.Equal(t, 0.7, captured["temperature"])

		messages, ok := captured["messages"].([]any)
		require.True(t, ok)
		require.Len(t, messages, 2)

		system := messages[0].(map[string]any)
		assert.Equal(t, "system", system["role"])
		assert.Contains(t, system["content"], "Life Cycle Assessment")

		user := messages[1].(map[string]any)
		assert.Equal(t, "user", user["role"])
		assert.Equal(t, "Compare truck and train.", user["content"])
	})

	t.Run("empty_choices_yield_fallback_reply", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[],"usage":{"total_tokens":0}}`))
		}))
		defer upstream.Close()

		client := chat.NewClient(upstream.URL, "sk-test")
		completion, err := client.Complete(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, "Sorry, I could not generate a response.", completion.Reply)
	})

	t.Run("non_success_status_is_an_upstream_error", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":{"message":"rate limit"}}`))
		}))
		defer upstream.Close()

		client := chat.NewClient(upstream.URL, "sk-test")
		_, err := client.Complete(context.Background(), "hello")
		require.Error(t, err)

		var upstreamErr *chat.UpstreamError
		require.ErrorAs(t, err, &upstreamErr)
		assert.Equal(t, http.StatusTooManyRequests, upstreamErr.StatusCode)
	})

	t.Run("deadline_maps_to_timeout", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(`{}`))
		}))
		defer upstream.Close()

		client := chat.NewClient(upstream.URL, "sk-test")

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := client.Complete(ctx, "hello")
		assert.ErrorIs(t, err, chat.ErrUpstreamTimeout)
	})

	t.Run("configured", func(t *testing.T) {
		assert.True(t, chat.NewClient("http://x", "sk").Configured())
		assert.False(t, chat.NewClient("http://x", "").Configured())
	})
}
