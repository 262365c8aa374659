// Copyright (c) 2026 OreMetrics. All rights reserved.

package emissions

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oremetrics/oremetrics/internal/platform/apperr"
	requestutil "github.com/oremetrics/oremetrics/internal/platform/request"
	"github.com/oremetrics/oremetrics/internal/platform/respond"
	"github.com/oremetrics/oremetrics/internal/platform/validate"
)

// # HTTP Handler

// Estimator abstracts the upstream estimation call for the handler.
type Estimator interface {
	Estimate(ctx context.Context, estimate EstimateRequest) (*UpstreamResult, error)
}

// Handler exposes the transport-emissions proxy endpoint.
type Handler struct {
	estimator Estimator
}

// NewHandler constructs a new [Handler].
func NewHandler(estimator Estimator) *Handler {
	return &Handler{estimator: estimator}
}

// Routes returns a [chi.Router] with the emissions endpoints.
//
// # Endpoints
//   - POST / : Relays a transport-emissions estimate from the upstream API.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.estimate)

	return router
}

type estimateRequest struct {
	Mode   string          `json:"mode"`
	Params *ShipmentParams `json:"params"`
}

/*
estimate handles the transport-emissions proxy.

POST /api/transport

Both mode and params must be present; nothing is sent upstream otherwise.
The upstream answer is relayed verbatim, whatever its status: the caller
sees exactly what the estimation API said.

Response:
  - 200: Upstream estimate JSON
  - 400: Missing mode or params
  - Other: Upstream status and body, relayed as-is
*/
func (handler *Handler) estimate(writer http.ResponseWriter, request *http.Request) {
	var input estimateRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	if input.Mode == "" || input.Params == nil {
		respond.Error(writer, request, apperr.BadRequest("Mode and params are required"))
		return
	}

	result, err := handler.estimator.Estimate(request.Context(), BuildEstimateRequest(input.Mode, *input.Params))
	if err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	respond.Raw(writer, result.StatusCode, result.ContentType, result.Body)
}
