package models

import (
	"encoding/json"
	"net/http"
)

// StatusClass classifies the outcome of a single upstream request.
type StatusClass int

const (
	StatusSuccess StatusClass = iota
	StatusClientError
	StatusServerError
	StatusNetworkError
)

func (c StatusClass) String() string {
	switch c {
	case StatusSuccess:
		return "success"
	case StatusClientError:
		return "client_error"
	case StatusServerError:
		return "server_error"
	case StatusNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// ClassifyStatus maps an HTTP status code to a StatusClass.
// Anything that is neither 2xx nor 5xx counts as a client error.
func ClassifyStatus(code int) StatusClass {
	switch {
	case code >= http.StatusOK && code < http.StatusMultipleChoices:
		return StatusSuccess
	case code >= http.StatusInternalServerError:
		return StatusServerError
	default:
		return StatusClientError
	}
}

// RawResponse is an untyped JSON payload together with its status classification.
type RawResponse struct {
	Body       json.RawMessage `json:"body"`
	StatusCode int             `json:"statusCode"`
	Class      StatusClass     `json:"-"`
	CacheHit   bool            `json:"-"`
}

// AggregateResult holds both upstream payloads for one selection.
// It only exists when both requests succeeded.
type AggregateResult struct {
	Geocoding     RawResponse `json:"geocoding"`
	SunriseSunset RawResponse `json:"sunriseSunset"`
}

// GeocodingResponse is the reverse geocoding payload.
type GeocodingResponse struct {
	Results []GeocodingResult `json:"results"`
	Status  string            `json:"status"`
}

// GeocodingResult is a single reverse geocoding match.
type GeocodingResult struct {
	FormattedAddress string `json:"formatted_address"`
	PlaceID          string `json:"place_id,omitempty"`
}

// SunriseSunsetResponse is the sunrise/sunset payload (requested with formatted=0).
type SunriseSunsetResponse struct {
	Results *SunriseSunsetResults `json:"results"`
	Status  string                `json:"status"`
}

// SunriseSunsetResults holds the timestamps. Pointers distinguish
// undefined fields from empty strings.
type SunriseSunsetResults struct {
	Sunrise   *string `json:"sunrise"`
	Sunset    *string `json:"sunset"`
	SolarNoon *string `json:"solar_noon,omitempty"`
	DayLength *int64  `json:"day_length,omitempty"`
}
