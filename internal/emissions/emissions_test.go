// Copyright (c) 2026 OreMetrics. All rights reserved.

package emissions_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oremetrics/oremetrics/internal/emissions"
)

/*
TestModeMapping checks the static mode-to-activity table and the fixed
per-mode region rule.
*/
func TestModeMapping(t *testing.T) {
	tests := []struct {
		name        string
		mode        string
		wantsRegion string
		hasActivity bool
	}{
		{"truck_maps_to_us", "truck", "US", true},
		{"train_maps_to_eu", "train", "EU", true},
		{"ship_maps_to_global", "ship", "global", true},
		{"unknown_falls_back_to_global", "hovercraft", "global", false},
		{"empty_falls_back_to_global", "", "global", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantsRegion, emissions.RegionForMode(tt.mode))

			if tt.hasActivity {
				assert.NotEmpty(t, emissions.ActivityForMode(tt.mode))
			} else {
				// The empty id is forwarded upstream as-is.
				assert.Empty(t, emissions.ActivityForMode(tt.mode))
			}
		})
	}
}

/*
TestBuildEstimateRequest checks the normalized upstream payload shape.
*/
func TestBuildEstimateRequest(t *testing.T) {
	params := emissions.ShipmentParams{
		Weight:       12.5,
		WeightUnit:   "t",
		Distance:     102.05,
		DistanceUnit: "km",
	}

	estimate := emissions.BuildEstimateRequest("truck", params)

	assert.Equal(t, emissions.ActivityForMode("truck"), estimate.EmissionFactor.ActivityID)
	assert.Equal(t, "^26", estimate.EmissionFactor.DataVersion)
	assert.Equal(t, "US", estimate.EmissionFactor.Region)
	assert.Equal(t, params, estimate.Parameters)

	// Wire format must match the upstream contract exactly.
	encoded, err := json.Marshal(estimate)
	require.NoError(t, err)

	decoded := map[string]any{}
	require.NoError(t, json.Unmarshal(encoded, &decoded))

	factor, ok := decoded["emission_factor"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "^26", factor["data_version"])
	assert.Equal(t, "US", factor["region"])

	parameters, ok := decoded["parameters"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 12.5, parameters["weight"])
	assert.Equal(t, "t", parameters["weight_unit"])
}

/*
TestClient_Estimate runs the client against a stand-in upstream and checks
credential forwarding plus verbatim relay of success and failure bodies.
*/
func TestClient_Estimate(t *testing.T) {
	t.Run("relays_success_body", func(t *testing.T) {
		var captured []byte
		var gotAuth string

		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			captured, _ = io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"co2e":42.1,"co2e_unit":"kg"}`))
		}))
		defer upstream.Close()

		client := emissions.NewClient(upstream.URL, "secret-key")
		result, err := client.Estimate(context.Background(), emissions.BuildEstimateRequest("ship", emissions.ShipmentParams{
			Weight: 1, WeightUnit: "t", Distance: 10, DistanceUnit: "km",
		}))
		require.NoError(t, err)

		assert.Equal(t, "Bearer secret-key", gotAuth)
		assert.Equal(t, http.StatusOK, result.StatusCode)
		assert.JSONEq(t, `{"co2e":42.1,"co2e_unit":"kg"}`, string(result.Body))

		sent := map[string]any{}
		require.NoError(t, json.Unmarshal(captured, &sent))
		assert.Contains(t, sent, "emission_factor")
		assert.Contains(t, sent, "parameters")
	})

	t.Run("upstream_error_is_a_result_not_an_error", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"error":"invalid activity_id"}`))
		}))
		defer upstream.Close()

		client := emissions.NewClient(upstream.URL, "secret-key")
		result, err := client.Estimate(context.Background(), emissions.BuildEstimateRequest("truck", emissions.ShipmentParams{}))
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnprocessableEntity, result.StatusCode)
		assert.JSONEq(t, `{"error":"invalid activity_id"}`, string(result.Body))
	})
}

// fakeEstimator lets handler tests observe whether the upstream was dialed.
type fakeEstimator struct {
	called bool
	result *emissions.UpstreamResult
	err    error
}

func (f *fakeEstimator) Estimate(_ context.Context, _ emissions.EstimateRequest) (*emissions.UpstreamResult, error) {
	f.called = true
	return f.result, f.err
}

func postTransport(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()

	request := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte(body)))
	request.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

/*
TestHandler_Estimate verifies the proxy endpoint: input gating, verbatim
relay, and transport-failure mapping.
*/
func TestHandler_Estimate(t *testing.T) {
	t.Run("relays_upstream_verbatim", func(t *testing.T) {
		estimator := &fakeEstimator{result: &emissions.UpstreamResult{
			StatusCode:  http.StatusOK,
			ContentType: "application/json",
			Body:        []byte(`{"co2e":7.3}`),
		}}
		router := emissions.NewHandler(estimator).Routes()

		recorder := postTransport(t, router, `{"mode":"truck","params":{"weight":1,"weight_unit":"t","distance":5,"distance_unit":"km"}}`)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.JSONEq(t, `{"co2e":7.3}`, recorder.Body.String())
		assert.True(t, estimator.called)
	})

	t.Run("relays_upstream_failure_status", func(t *testing.T) {
		estimator := &fakeEstimator{result: &emissions.UpstreamResult{
			StatusCode:  http.StatusTooManyRequests,
			ContentType: "application/json",
			Body:        []byte(`{"error":"rate limited"}`),
		}}
		router := emissions.NewHandler(estimator).Routes()

		recorder := postTransport(t, router, `{"mode":"train","params":{"weight":1,"weight_unit":"t","distance":5,"distance_unit":"km"}}`)

		assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
		assert.JSONEq(t, `{"error":"rate limited"}`, recorder.Body.String())
	})

	t.Run("missing_mode_never_dials_upstream", func(t *testing.T) {
		estimator := &fakeEstimator{}
		router := emissions.NewHandler(estimator).Routes()

		recorder := postTransport(t, router, `{"params":{"weight":1,"weight_unit":"t","distance":5,"distance_unit":"km"}}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.False(t, estimator.called)
	})

	t.Run("missing_params_never_dials_upstream", func(t *testing.T) {
		estimator := &fakeEstimator{}
		router := emissions.NewHandler(estimator).Routes()

		recorder := postTransport(t, router, `{"mode":"truck"}`)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.False(t, estimator.called)
	})

	t.Run("transport_failure_maps_to_500", func(t *testing.T) {
		estimator := &fakeEstimator{err: errors.New("connection refused")}
		router := emissions.NewHandler(estimator).Routes()

		recorder := postTransport(t, router, `{"mode":"ship","params":{"weight":1,"weight_unit":"t","distance":5,"distance_unit":"km"}}`)

		assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	})
}
