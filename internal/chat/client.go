// Copyright (c) 2026 OreMetrics. All rights reserved.

/*
Package chat proxies user questions to an OpenAI-compatible chat-completion
API, pinned to a domain system prompt for life-cycle assessment of mining and
metallurgy operations.

No conversation state is persisted: every request is a single-turn exchange.
*/
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/oremetrics/oremetrics/internal/platform/constants"
)

// # System Prompt

/*
systemPrompt steers the model toward mining and metallurgy life-cycle
assessment. It is sent verbatim as the system message on every completion.
*/
const systemPrompt = `You are an expert LCA (Life Cycle Assessment) assistant specialized in mining and metallurgy. You provide detailed analysis on:

1. Material Extraction & Mining Operations
2. Energy Consumption & Efficiency
3. Carbon & Emission Tracking
4. Waste & Byproduct Management
5. Recycling & Reuse Pathways
6. Circular Economy Strategies
7. Sustainability Performance Metrics
8. Environmental Impact Hotspots
9. Optimization & Eco-Design Recommendations

Always provide practical, data-driven responses with specific numbers, recommendations, and actionable insights. Focus on environmental impact, cost analysis, and sustainability improvements for mining and metallurgical processes.`

// # Completion Parameters

const (
	completionModel     = "gpt-3.5-turbo"
	completionMaxTokens = 500
	completionTimeout   = 30 * time.Second
)

// # Errors

// ErrUpstreamTimeout reports that the completion API did not answer within
// the per-request deadline.
var ErrUpstreamTimeout = errors.New("chat: upstream timeout")

// UpstreamError carries a non-success HTTP status from the completion API.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("chat: upstream status %d", e.StatusCode)
}

// # Client

// Completion is the distilled answer from a single-turn exchange.
type Completion struct {
	Reply      string
	TokensUsed int
}

// Client talks to an OpenAI-compatible chat-completions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a [Client]. An empty apiKey produces an unconfigured
// client; [Client.Configured] lets callers branch before dialing out.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: completionTimeout,
		},
	}
}

// Configured reports whether an API credential is present.
func (client *Client) Configured() bool {
	return client.apiKey != ""
}

type completionRequest struct {
	Model            string              `json:"model"`
	Messages         []completionMessage `json:"messages"`
	MaxTokens        int                 `json:"max_tokens"`
	Temperature      float64             `json:"temperature"`
	TopP             float64             `json:"top_p"`
	FrequencyPenalty float64             `json:"frequency_penalty"`
	PresencePenalty  float64             `json:"presence_penalty"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

/*
Complete sends a single user message, prefixed by the domain system prompt,
and returns the model's reply.

Error taxonomy:
  - [ErrUpstreamTimeout] when the 30s deadline elapses.
  - [*UpstreamError] for a non-2xx answer from the API.
  - A wrapped transport error for anything else.
*/
func (client *Client) Complete(ctx context.Context, message string) (*Completion, error) {
	payload, err := json.Marshal(completionRequest{
		Model: completionModel,
		Messages: []completionMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
		MaxTokens:        completionMaxTokens,
		Temperature:      0.7,
		TopP:             1,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: encode completion request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("chat: build completion request: %w", err)
	}
	request.Header.Set(constants.HeaderAuthorization, "Bearer "+client.apiKey)
	request.Header.Set(constants.HeaderContentType, "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrUpstreamTimeout
		}
		return nil, fmt.Errorf("chat: call completion API: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("chat: read completion response: %w", err)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: response.StatusCode, Body: string(body)}
	}

	var decoded completionResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("chat: decode completion response: %w", err)
	}

	reply := "Sorry, I could not generate a response."
	if len(decoded.Choices) > 0 && decoded.Choices[0].Message.Content != "" {
		reply = decoded.Choices[0].Message.Content
	}

	return &Completion{
		Reply:      reply,
		TokensUsed: decoded.Usage.TotalTokens,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr) && urlErr.Timeout()
}
