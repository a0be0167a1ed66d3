package testutil

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
)

func TestMockServer(t *testing.T) {
	// Create mock server
	ms := NewMockServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	defer ms.Close()

	// Make request
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, ms.URL, nil)
	AssertNil(t, err)
	resp, err := http.DefaultClient.Do(req) //nolint:gosec // URL is from httptest.Server (localhost)
	AssertNil(t, err)
	defer func() { _ = resp.Body.Close() }()

	AssertEqual(t, resp.StatusCode, http.StatusOK)

	body, err := io.ReadAll(resp.Body)
	AssertNil(t, err)
	AssertEqual(t, string(body), `{"status":"ok"}`)

	// Check request tracking
	AssertEqual(t, ms.RequestCount(), 1)
	lastReq := ms.LastRequest()
	AssertTrue(t, lastReq != nil)
	AssertEqual(t, lastReq.Method, "GET")
}

func TestMockServerMultipleRequests(t *testing.T) {
	ms := NewMockServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer ms.Close()

	// Make multiple requests
	for i := 0; i < 3; i++ {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, ms.URL, nil)
		AssertNil(t, err)
		resp, err := http.DefaultClient.Do(req) //nolint:gosec // URL is from httptest.Server (localhost)
		AssertNil(t, err)
		_ = resp.Body.Close()
	}

	AssertEqual(t, ms.RequestCount(), 3)
}

func TestMockServerReset(t *testing.T) {
	ms := NewMockServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer ms.Close()

	// Make request
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, ms.URL, nil)
	AssertNil(t, err)
	resp, err := http.DefaultClient.Do(req) //nolint:gosec // URL is from httptest.Server (localhost)
	AssertNil(t, err)
	_ = resp.Body.Close()

	AssertEqual(t, ms.RequestCount(), 1)

	// Reset
	ms.Reset()
	AssertEqual(t, ms.RequestCount(), 0)
	AssertTrue(t, ms.LastRequest() == nil)
}

func TestMockServerConcurrentRequests(t *testing.T) {
	ms := NewMockServer(JSONHandler(http.StatusOK, SampleEmptyResponse))
	defer ms.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := http.Get(ms.URL) //nolint:gosec,noctx // URL is from httptest.Server (localhost)
			if err == nil {
				_ = resp.Body.Close()
			}
		}()
	}
	wg.Wait()

	AssertEqual(t, ms.RequestCount(), 8)
	AssertLen(t, ms.Requests(), 8)
}

func TestUpstreams(t *testing.T) {
	ms := NewMockServer(Upstreams(
		JSONHandler(http.StatusOK, SampleGeocodingResponse),
		JSONHandler(http.StatusOK, SampleSunriseSunsetResponse),
	))
	defer ms.Close()

	for path, want := range map[string]string{
		GeocodingPath:     "formatted_address",
		SunriseSunsetPath: "solar_noon",
	} {
		resp, err := http.Get(ms.URL + path) //nolint:gosec,noctx // URL is from httptest.Server (localhost)
		AssertNil(t, err)
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		AssertNil(t, err)
		AssertEqual(t, resp.Header.Get("Content-Type"), "application/json")
		AssertContains(t, string(body), want)
	}
}
