package models

import (
	"encoding/json"
	"time"
)

// NotAvailable is shown wherever a value could not be derived.
const NotAvailable = "N/A"

// statusOK is compared case-sensitively; "ok" does not count.
const statusOK = "OK"

// DisplayRecord is the normalized, display-ready form of an AggregateResult.
type DisplayRecord struct {
	AddressLine string     `json:"address"`
	Sunrise     *time.Time `json:"sunrise,omitempty"`
	Sunset      *time.Time `json:"sunset,omitempty"`
}

// HasSunTimes reports whether both sunrise and sunset are present.
func (r DisplayRecord) HasSunTimes() bool {
	return r.Sunrise != nil && r.Sunset != nil
}

// Transform converts both raw payloads into a DisplayRecord.
// It never fails: anything missing or malformed becomes N/A.
func Transform(agg AggregateResult) DisplayRecord {
	rec := DisplayRecord{
		AddressLine: addressLine(agg.Geocoding.Body),
	}
	rec.Sunrise, rec.Sunset = sunTimes(agg.SunriseSunset.Body)
	return rec
}

func addressLine(body json.RawMessage) string {
	var resp GeocodingResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return NotAvailable
	}
	if len(resp.Results) == 0 {
		return NotAvailable
	}
	return resp.Results[0].FormattedAddress
}

func sunTimes(body json.RawMessage) (*time.Time, *time.Time) {
	var resp SunriseSunsetResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil
	}
	if resp.Status != statusOK || resp.Results == nil {
		return nil, nil
	}
	if resp.Results.Sunrise == nil || resp.Results.Sunset == nil {
		return nil, nil
	}

	sunrise, err := time.Parse(time.RFC3339, *resp.Results.Sunrise)
	if err != nil {
		return nil, nil
	}
	sunset, err := time.Parse(time.RFC3339, *resp.Results.Sunset)
	if err != nil {
		return nil, nil
	}
	return &sunrise, &sunset
}
