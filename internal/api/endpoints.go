package api

import (
	"net/url"
	"strconv"

	"github.com/mobil-koeln/sunmap/internal/models"
)

const (
	// GeocodingURL is the reverse geocoding endpoint
	// Required params: latlng, key
	GeocodingURL = "https://maps.googleapis.com/maps/api/geocode/json"

	// SunriseSunsetURL is the sunrise/sunset endpoint
	// Required params: lat, lng, formatted=0 (ISO 8601 timestamps)
	SunriseSunsetURL = "https://api.sunrise-sunset.org/json"
)

// Endpoint labels used in logs, errors and metrics
const (
	EndpointGeocoding     = "geocoding"
	EndpointSunriseSunset = "sunrise_sunset"
)

// BuildGeocodingURL returns the absolute reverse geocoding URL for a coordinate.
func BuildGeocodingURL(base, apiKey string, lat, lng float64) string {
	params := url.Values{}
	params.Set("latlng", models.FormatCoordinate(lat, lng))
	if apiKey != "" {
		params.Set("key", apiKey)
	}
	return base + "?" + params.Encode()
}

// BuildSunriseSunsetURL returns the absolute sunrise/sunset URL for a coordinate.
func BuildSunriseSunsetURL(base string, lat, lng float64) string {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("formatted", "0")
	return base + "?" + params.Encode()
}
