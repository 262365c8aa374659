// Copyright (c) 2026 OreMetrics. All rights reserved.

package emissions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/oremetrics/oremetrics/internal/platform/constants"
)

// # Upstream Client

// UpstreamResult carries the estimation API's answer without interpretation.
// Status and body are relayed to the caller verbatim, success or failure.
type UpstreamResult struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Client talks to the Climatiq estimation endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient constructs a [Client] for the given API base URL and credential.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}
}

/*
Estimate submits a normalized estimate request and returns the raw upstream
response. Transport-level failures (connection refused, context cancellation)
are the only error path; an HTTP error status from the API is a valid
[UpstreamResult], not an error.
*/
func (client *Client) Estimate(ctx context.Context, estimate EstimateRequest) (*UpstreamResult, error) {
	payload, err := json.Marshal(estimate)
	if err != nil {
		return nil, fmt.Errorf("emissions: encode estimate request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+"/data/v1/estimate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("emissions: build estimate request: %w", err)
	}
	request.Header.Set(constants.HeaderAuthorization, "Bearer "+client.apiKey)
	request.Header.Set(constants.HeaderContentType, "application/json")

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("emissions: call estimation API: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("emissions: read estimation response: %w", err)
	}

	contentType := response.Header.Get(constants.HeaderContentType)
	if contentType == "" {
		contentType = "application/json"
	}

	return &UpstreamResult{
		StatusCode:  response.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}
