package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SelectionEvent is a single point selection on the map.
// Seq increases monotonically per selection and is used for stale detection.
type SelectionEvent struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
	Seq int64   `json:"seq"`
}

// String formats the coordinate as "lat,lng".
func (e SelectionEvent) String() string {
	return FormatCoordinate(e.Lat, e.Lng)
}

// FormatCoordinate renders a coordinate pair the way the upstream APIs expect it.
func FormatCoordinate(lat, lng float64) string {
	return strconv.FormatFloat(lat, 'f', -1, 64) + "," + strconv.FormatFloat(lng, 'f', -1, 64)
}

// ParseCoordinate parses "lat:lng" or "lat,lng" in decimal degrees.
func ParseCoordinate(s string) (lat, lng float64, err error) {
	sep := ":"
	if !strings.Contains(s, sep) {
		sep = ","
	}
	parts := strings.SplitN(strings.TrimSpace(s), sep, 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("coordinates must be in format LAT:LNG (e.g., 13.41:122.56)")
	}

	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude: %w", err)
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude: %w", err)
	}

	if err := ValidateCoordinate(lat, lng); err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

// ValidateCoordinate checks that lat and lng are finite decimal degrees in range.
func ValidateCoordinate(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", lng)
	}
	return nil
}
