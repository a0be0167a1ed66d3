package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mobil-koeln/sunmap/internal/cache"
	"github.com/mobil-koeln/sunmap/internal/logging"
	"github.com/mobil-koeln/sunmap/internal/metric"
	"github.com/mobil-koeln/sunmap/internal/models"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 4 << 20
)

// UserAgent is sent with every upstream request.
var UserAgent = "sunmap"

// Cache interface for caching HTTP responses
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
}

// Client fetches the two upstream payloads needed for a popup.
type Client struct {
	httpClient       *http.Client
	geocodingURL     string
	sunriseSunsetURL string
	apiKey           string
	cache            Cache
	limiter          *rate.Limiter
	logger           *slog.Logger
	metrics          *metric.Metrics
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCache enables caching with the provided cache implementation
func WithCache(cache Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithDefaultCache enables caching with the default file cache
func WithDefaultCache(ttl time.Duration) ClientOption {
	return func(c *Client) {
		fc, err := cache.NewFileCache(cache.DefaultCacheDir(), ttl)
		if err == nil {
			c.cache = fc
		}
	}
}

// WithRateLimit limits outgoing requests to perSecond (burst 2, one per endpoint).
// A non-positive value disables limiting.
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 2)
	}
}

// WithAPIKey sets the geocoding API key
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithGeocodingURL overrides the geocoding endpoint
func WithGeocodingURL(u string) ClientOption {
	return func(c *Client) {
		c.geocodingURL = u
	}
}

// WithSunriseSunsetURL overrides the sunrise/sunset endpoint
func WithSunriseSunsetURL(u string) ClientOption {
	return func(c *Client) {
		c.sunriseSunsetURL = u
	}
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithMetrics records request counts and durations
func WithMetrics(m *metric.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a new API client
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		geocodingURL:     GeocodingURL,
		sunriseSunsetURL: SunriseSunsetURL,
		logger:           logging.Discard(),
	}

	for _, opt := range opts {
		opt(c)
	}

	for name, raw := range map[string]string{"geocoding": c.geocodingURL, "sunrise_sunset": c.sunriseSunsetURL} {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() {
			return nil, NewValidationError(name+"_url", fmt.Sprintf("must be an absolute URL, got %q", raw))
		}
	}

	return c, nil
}

// HasAPIKey reports whether a geocoding API key is configured.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// GeocodingURLFor returns the reverse geocoding URL for a coordinate.
func (c *Client) GeocodingURLFor(lat, lng float64) string {
	return BuildGeocodingURL(c.geocodingURL, c.apiKey, lat, lng)
}

// SunriseSunsetURLFor returns the sunrise/sunset URL for a coordinate.
func (c *Client) SunriseSunsetURLFor(lat, lng float64) string {
	return BuildSunriseSunsetURL(c.sunriseSunsetURL, lat, lng)
}

// GeocodingTask starts the reverse geocoding request for a coordinate.
func (c *Client) GeocodingTask(ctx context.Context, lat, lng float64) *Task {
	return c.Start(ctx, c.GeocodingURLFor(lat, lng), RequestOptions{Endpoint: EndpointGeocoding})
}

// SunriseSunsetTask starts the sunrise/sunset request for a coordinate.
func (c *Client) SunriseSunsetTask(ctx context.Context, lat, lng float64) *Task {
	return c.Start(ctx, c.SunriseSunsetURLFor(lat, lng), RequestOptions{Endpoint: EndpointSunriseSunset})
}

// RequestOptions describes a single outbound request.
type RequestOptions struct {
	Method   string            // defaults to GET
	Headers  map[string]string // added after the default headers
	Endpoint string            // label for logs and metrics
}

// Start runs Fetch on its own goroutine and returns the cancellable task.
func (c *Client) Start(ctx context.Context, reqURL string, opts RequestOptions) *Task {
	return StartTask(ctx, reqURL, opts.Endpoint, func(ctx context.Context) (*models.RawResponse, error) {
		return c.Fetch(ctx, reqURL, opts)
	})
}

// Fetch performs one HTTP request and returns the classified raw response.
// A non-success status returns both the response and an *APIError.
func (c *Client) Fetch(ctx context.Context, reqURL string, opts RequestOptions) (*models.RawResponse, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = extractEndpoint(reqURL)
	}

	// Check cache first
	if c.cache != nil && method == http.MethodGet {
		if data, ok := c.cache.Get(reqURL); ok {
			c.logger.Debug("fetch served from cache", "endpoint", endpoint)
			return &models.RawResponse{Body: data, StatusCode: http.StatusOK, Class: models.StatusSuccess, CacheHit: true}, nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() == nil {
				// the limiter refuses waits that would outlive the deadline
				return networkResponse(), fmt.Errorf("%w: %w", ErrTimeout, err)
			}
			return networkResponse(), contextError(ctx, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Correlation-ID", uuid.NewString())
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(endpoint, models.StatusNetworkError, start, err)
		if ctx.Err() != nil {
			return networkResponse(), contextError(ctx, err)
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return networkResponse(), fmt.Errorf("%w: %w: %w", ErrNetwork, ErrTimeout, err)
		}
		return networkResponse(), fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.record(endpoint, models.StatusNetworkError, start, err)
		if ctx.Err() != nil {
			return networkResponse(), contextError(ctx, err)
		}
		return networkResponse(), fmt.Errorf("%w: failed to read response body: %w", ErrNetwork, err)
	}

	raw := &models.RawResponse{
		Body:       body,
		StatusCode: resp.StatusCode,
		Class:      models.ClassifyStatus(resp.StatusCode),
	}

	// Handle non-OK status codes with proper error types
	if raw.Class != models.StatusSuccess {
		apiErr := NewAPIError(resp.StatusCode, resp.Status, endpoint)
		apiErr.Message = upstreamMessage(body)
		c.record(endpoint, apiErr.Class(), start, apiErr)
		return raw, apiErr
	}

	if !json.Valid(body) {
		c.record(endpoint, raw.Class, start, ErrInvalidPayload)
		return raw, fmt.Errorf("%s: %w", endpoint, ErrInvalidPayload)
	}

	c.record(endpoint, raw.Class, start, nil)

	// Store in cache
	if c.cache != nil && method == http.MethodGet {
		_ = c.cache.Set(reqURL, body)
	}

	return raw, nil
}

func (c *Client) record(endpoint string, class models.StatusClass, start time.Time, err error) {
	d := time.Since(start)
	c.metrics.Fetch(endpoint, class.String(), d)
	if err != nil {
		level := slog.LevelDebug
		if errors.Is(err, ErrServerError) {
			level = slog.LevelWarn
		}
		c.logger.Log(context.Background(), level, "fetch failed", "endpoint", endpoint, "class", class.String(), "duration", d, "error", err)
		return
	}
	c.logger.Debug("fetch settled", "endpoint", endpoint, "class", class.String(), "duration", d)
}

func networkResponse() *models.RawResponse {
	return &models.RawResponse{Class: models.StatusNetworkError}
}

// contextError maps a context-caused failure onto ErrTimeout or ErrCancelled.
func contextError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}

// extractEndpoint extracts the endpoint path from a full URL
func extractEndpoint(fullURL string) string {
	u, err := url.Parse(fullURL)
	if err != nil {
		return fullURL
	}
	return u.Path
}
