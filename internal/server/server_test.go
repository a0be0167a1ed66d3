package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobil-koeln/sunmap/internal/api"
	"github.com/mobil-koeln/sunmap/internal/config"
	"github.com/mobil-koeln/sunmap/internal/metric"
	"github.com/mobil-koeln/sunmap/internal/output"
	"github.com/mobil-koeln/sunmap/internal/testutil"
)

// newTestServer wires a Server to mock upstreams.
func newTestServer(t *testing.T, upstream http.HandlerFunc, mutate ...func(*config.Config)) (*Server, *metric.Metrics) {
	t.Helper()

	ms := testutil.NewMockServer(upstream)
	t.Cleanup(ms.Close)

	client, err := api.NewClient(
		api.WithGeocodingURL(ms.URL+testutil.GeocodingPath),
		api.WithSunriseSunsetURL(ms.URL+testutil.SunriseSunsetPath),
	)
	require.NoError(t, err)

	cfg := config.Default()
	for _, fn := range mutate {
		fn(&cfg)
	}

	m := metric.New()
	s := New(cfg, Deps{Fetcher: client, Metrics: m})
	t.Cleanup(s.Close)
	return s, m
}

func okUpstreams() http.HandlerFunc {
	return testutil.Upstreams(
		testutil.JSONHandler(http.StatusOK, testutil.SampleGeocodingResponse),
		testutil.JSONHandler(http.StatusOK, testutil.SampleSunriseSunsetResponse),
	)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	return rec
}

func decodePopup(t *testing.T, rec *httptest.ResponseRecorder) popupResponse {
	t.Helper()
	var body popupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, okUpstreams())

	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t, okUpstreams())

	rec := get(t, s, "/healthz")
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, okUpstreams())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/popup", nil)
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPopup_Success(t *testing.T) {
	s, _ := newTestServer(t, okUpstreams())

	rec := get(t, s, "/api/v1/popup?lat=13.41&lng=122.56")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodePopup(t, rec)
	assert.True(t, body.OK)
	assert.Equal(t, 13.41, body.Lat)
	assert.Equal(t, 122.56, body.Lng)
	assert.Contains(t, body.Content, "<dt>Address</dt><dd>Pili, Camarines Sur</dd>")
	assert.Contains(t, body.Content, output.LabelSunrise)

	rec = get(t, s, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sunmap_pipeline_renders_total{outcome="content"} 1`)
}

func TestPopup_TextFormat(t *testing.T) {
	s, _ := newTestServer(t, okUpstreams())

	body := decodePopup(t, get(t, s, "/api/v1/popup?lat=13.41&lng=122.56&format=text"))
	assert.True(t, body.OK)
	assert.Contains(t, body.Content, "Address:")
	assert.NotContains(t, body.Content, "<dl>")
}

func TestPopup_Fallback(t *testing.T) {
	s, _ := newTestServer(t, testutil.Upstreams(
		testutil.JSONHandler(http.StatusOK, testutil.SampleGeocodingResponse),
		testutil.JSONHandler(http.StatusInternalServerError, testutil.SampleErrorResponse),
	))

	rec := get(t, s, "/api/v1/popup?lat=13.41&lng=122.56")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodePopup(t, rec)
	assert.False(t, body.OK)
	assert.Equal(t, output.FallbackMessage, body.Content)
}

func TestPopup_Markup(t *testing.T) {
	geocoding := `{"results":[{"formatted_address":"Smith & Sons <Main St>"}],"status":"OK"}`
	upstream := testutil.Upstreams(
		testutil.JSONHandler(http.StatusOK, geocoding),
		testutil.JSONHandler(http.StatusOK, testutil.SampleSunriseSunsetResponse),
	)

	tests := []struct {
		name   string
		escape bool
		want   string
	}{
		{"raw", false, "<dd>Smith & Sons <Main St></dd>"},
		{"escaped", true, "<dd>Smith &amp; Sons &lt;Main St&gt;</dd>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, upstream, func(c *config.Config) { c.EscapeMarkup = tt.escape })

			body := decodePopup(t, get(t, s, "/api/v1/popup?lat=1&lng=2"))
			assert.True(t, body.OK)
			assert.Contains(t, body.Content, tt.want)
		})
	}
}

func TestPopup_BadRequest(t *testing.T) {
	s, _ := newTestServer(t, okUpstreams())

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"missing lat", "lng=2", "lat"},
		{"missing lng", "lat=1", "lng"},
		{"invalid lat", "lat=north&lng=2", "lat"},
		{"lat out of range", "lat=91&lng=2", "latitude"},
		{"lng out of range", "lat=1&lng=-200", "longitude"},
		{"nan", "lat=NaN&lng=2", "latitude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, "/api/v1/popup?"+tt.query)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.want)
		})
	}
}

func TestMetrics_NilRegistry(t *testing.T) {
	s := New(config.Default(), Deps{})
	rec := get(t, s, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
