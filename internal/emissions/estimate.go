// Copyright (c) 2026 OreMetrics. All rights reserved.

/*
Package emissions translates simplified shipment descriptions into normalized
emission-factor queries against the Climatiq estimation API and relays the
upstream answer to the caller untouched.

The package owns no persistent state. Every estimate is a fresh upstream
round trip: no caching, no retry, no deduplication.
*/
package emissions

// # Mode Mapping

/*
Transport modes accepted from the client. The mapping to Climatiq activity
identifiers is a closed static table; the region for each mode is fixed and
not user-configurable.

An unrecognized mode resolves to an empty activity id which is forwarded
upstream as-is, letting the estimation API produce its own rejection.
*/
const (
	ModeTruck = "truck"
	ModeTrain = "train"
	ModeShip  = "ship"
)

// DataVersion pins the emission-factor dataset release consumed upstream.
const DataVersion = "^26"

var activityByMode = map[string]string{
	ModeTruck: "freight_vehicle-vehicle_type_hgv-fuel_source_diesel-vehicle_weight_na-percentage_load_na",
	ModeTrain: "freight_train-route_type_na-fuel_type_diesel",
	ModeShip:  "sea_freight-vessel_type_container_ship-route_type_na-vessel_length_na-tonnage_na-fuel_source_na",
}

var regionByMode = map[string]string{
	ModeTruck: "US",
	ModeTrain: "EU",
	ModeShip:  "global",
}

// ActivityForMode resolves the Climatiq activity id for a transport mode.
// Unknown modes yield the empty string.
func ActivityForMode(mode string) string {
	return activityByMode[mode]
}

// RegionForMode resolves the emission-factor region for a transport mode,
// falling back to "global" for modes outside the closed set.
func RegionForMode(mode string) string {
	if region, ok := regionByMode[mode]; ok {
		return region
	}
	return "global"
}

// # Request Shapes

// ShipmentParams describes the freight movement being estimated. The field
// set mirrors the Climatiq parameters object and is forwarded verbatim.
type ShipmentParams struct {
	Weight       float64 `json:"weight"`
	WeightUnit   string  `json:"weight_unit"`
	Distance     float64 `json:"distance"`
	DistanceUnit string  `json:"distance_unit"`
}

// EmissionFactor selects the upstream dataset entry used for the estimate.
type EmissionFactor struct {
	ActivityID  string `json:"activity_id"`
	DataVersion string `json:"data_version"`
	Region      string `json:"region"`
}

// EstimateRequest is the normalized payload sent to the estimation API.
type EstimateRequest struct {
	EmissionFactor EmissionFactor `json:"emission_factor"`
	Parameters     ShipmentParams `json:"parameters"`
}

// BuildEstimateRequest derives the upstream payload for a transport mode and
// shipment description.
func BuildEstimateRequest(mode string, params ShipmentParams) EstimateRequest {
	return EstimateRequest{
		EmissionFactor: EmissionFactor{
			ActivityID:  ActivityForMode(mode),
			DataVersion: DataVersion,
			Region:      RegionForMode(mode),
		},
		Parameters: params,
	}
}
