// Package config loads sunmap settings from the environment and an optional .env file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/mobil-koeln/sunmap/internal/api"
	"github.com/mobil-koeln/sunmap/internal/logging"
	"github.com/mobil-koeln/sunmap/internal/models"
)

// Config holds environment-driven settings shared by every command.
type Config struct {
	GeocodingAPIKey  string
	GeocodingURL     string
	SunriseSunsetURL string

	HTTPTimeout      time.Duration
	SelectionTimeout time.Duration
	RateLimit        float64

	CacheTTL time.Duration
	NoCache  bool

	LogLevel  string
	LogFormat string

	Port         int
	EscapeMarkup bool

	CenterLat float64
	CenterLng float64
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		GeocodingURL:     api.GeocodingURL,
		SunriseSunsetURL: api.SunriseSunsetURL,
		HTTPTimeout:      10 * time.Second,
		SelectionTimeout: 15 * time.Second,
		RateLimit:        5,
		CacheTTL:         10 * time.Minute,
		LogLevel:         "info",
		LogFormat:        "text",
		Port:             8080,
		CenterLat:        13,
		CenterLng:        122,
	}
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load() // ignore missing file
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv. Invalid values are errors.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	cfg.GeocodingAPIKey = getenv("SUNMAP_GEOCODING_API_KEY")

	if u := getenv("SUNMAP_GEOCODING_URL"); u != "" {
		if err := checkURL("SUNMAP_GEOCODING_URL", u); err != nil {
			return cfg, err
		}
		cfg.GeocodingURL = u
	}
	if u := getenv("SUNMAP_SUNRISE_SUNSET_URL"); u != "" {
		if err := checkURL("SUNMAP_SUNRISE_SUNSET_URL", u); err != nil {
			return cfg, err
		}
		cfg.SunriseSunsetURL = u
	}

	var err error
	if cfg.HTTPTimeout, err = duration(getenv, "SUNMAP_HTTP_TIMEOUT", cfg.HTTPTimeout); err != nil {
		return cfg, err
	}
	if cfg.SelectionTimeout, err = duration(getenv, "SUNMAP_SELECTION_TIMEOUT", cfg.SelectionTimeout); err != nil {
		return cfg, err
	}
	if cfg.CacheTTL, err = duration(getenv, "SUNMAP_CACHE_TTL", cfg.CacheTTL); err != nil {
		return cfg, err
	}

	if rateStr := getenv("SUNMAP_RATE_LIMIT"); rateStr != "" {
		if rate, err := strconv.ParseFloat(rateStr, 64); err == nil && rate >= 0 {
			cfg.RateLimit = rate
		} else {
			return cfg, fmt.Errorf("invalid SUNMAP_RATE_LIMIT: %s", rateStr)
		}
	}

	if cfg.NoCache, err = boolean(getenv, "SUNMAP_NO_CACHE", cfg.NoCache); err != nil {
		return cfg, err
	}
	if cfg.EscapeMarkup, err = boolean(getenv, "SUNMAP_ESCAPE_MARKUP", cfg.EscapeMarkup); err != nil {
		return cfg, err
	}

	if level := getenv("SUNMAP_LOG_LEVEL"); level != "" {
		if _, err := logging.ParseLevel(level); err != nil {
			return cfg, fmt.Errorf("invalid SUNMAP_LOG_LEVEL: %s", level)
		}
		cfg.LogLevel = level
	}
	if format := getenv("SUNMAP_LOG_FORMAT"); format != "" {
		switch strings.ToLower(format) {
		case "text", "json":
			cfg.LogFormat = strings.ToLower(format)
		default:
			return cfg, fmt.Errorf("invalid SUNMAP_LOG_FORMAT: %s", format)
		}
	}

	if portStr := getenv("PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid PORT: %s", portStr)
		}
	} else if portStr := getenv("SUNMAP_PORT"); portStr != "" {
		if port, err := strconv.Atoi(portStr); err == nil && port > 0 {
			cfg.Port = port
		} else {
			return cfg, fmt.Errorf("invalid SUNMAP_PORT: %s", portStr)
		}
	}

	if center := getenv("SUNMAP_CENTER"); center != "" {
		lat, lng, err := models.ParseCoordinate(center)
		if err != nil {
			return cfg, fmt.Errorf("invalid SUNMAP_CENTER: %w", err)
		}
		cfg.CenterLat, cfg.CenterLng = lat, lng
	}

	return cfg, nil
}

// ListenAddr returns the host:port string for the HTTP server.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ClientOptions translates the config into api client options.
func (c Config) ClientOptions() []api.ClientOption {
	opts := []api.ClientOption{
		api.WithGeocodingURL(c.GeocodingURL),
		api.WithSunriseSunsetURL(c.SunriseSunsetURL),
		api.WithAPIKey(c.GeocodingAPIKey),
		api.WithTimeout(c.HTTPTimeout),
		api.WithRateLimit(c.RateLimit),
	}
	if !c.NoCache {
		opts = append(opts, api.WithDefaultCache(c.CacheTTL))
	}
	return opts
}

func duration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	s := getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def, fmt.Errorf("invalid %s: %s", key, s)
	}
	return d, nil
}

func boolean(getenv func(string) string, key string, def bool) (bool, error) {
	s := getenv(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def, fmt.Errorf("invalid %s: %s", key, s)
	}
	return b, nil
}

func checkURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return fmt.Errorf("invalid %s: %s", key, raw)
	}
	return nil
}
