package testutil

// Sample JSON responses for upstream testing

// SampleGeocodingResponse is the reverse geocoding answer for (13.41, 122.56)
const SampleGeocodingResponse = `{
	"results": [
		{
			"formatted_address": "Pili, Camarines Sur",
			"place_id": "ChIJ-pili"
		},
		{
			"formatted_address": "Camarines Sur, Philippines",
			"place_id": "ChIJ-camsur"
		}
	],
	"status": "OK"
}`

// SampleGeocodingEmpty is a geocoding answer without matches (e.g. open sea)
const SampleGeocodingEmpty = `{
	"results": [],
	"status": "ZERO_RESULTS"
}`

// SampleGeocodingDenied is what the geocoding API returns without a valid key
const SampleGeocodingDenied = `{
	"error_message": "The provided API key is invalid.",
	"results": [],
	"status": "REQUEST_DENIED"
}`

// SampleSunriseSunsetResponse is the sunrise/sunset answer for (13.41, 122.56) with formatted=0
const SampleSunriseSunsetResponse = `{
	"results": {
		"sunrise": "2024-01-01T22:00:00+00:00",
		"sunset": "2024-01-02T10:00:00+00:00",
		"solar_noon": "2024-01-02T04:00:00+00:00",
		"day_length": 43200
	},
	"status": "OK"
}`

// SampleSunriseSunsetLowercase has a lowercase status, which does not count as OK
const SampleSunriseSunsetLowercase = `{
	"results": {
		"sunrise": "2024-01-01T22:00:00+00:00",
		"sunset": "2024-01-02T10:00:00+00:00"
	},
	"status": "ok"
}`

// SampleSunriseSunsetInvalid is the answer for out-of-range coordinates
const SampleSunriseSunsetInvalid = `{
	"results": "",
	"status": "INVALID_REQUEST"
}`

// SampleEmptyResponse is an empty JSON response
const SampleEmptyResponse = `{}`

// SampleErrorResponse is a sample error response
const SampleErrorResponse = `{
	"error": {
		"code": "UPSTREAM_UNAVAILABLE",
		"message": "Service temporarily unavailable"
	}
}`
