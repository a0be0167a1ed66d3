package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mobil-koeln/sunmap/internal/api"
	"github.com/mobil-koeln/sunmap/internal/cache"
	"github.com/mobil-koeln/sunmap/internal/config"
	"github.com/mobil-koeln/sunmap/internal/logging"
	"github.com/mobil-koeln/sunmap/internal/metric"
	"github.com/mobil-koeln/sunmap/internal/models"
	"github.com/mobil-koeln/sunmap/internal/output"
	"github.com/mobil-koeln/sunmap/internal/server"
	"github.com/mobil-koeln/sunmap/internal/tui"
)

var version = "0.1.0"

// errFallback means the fallback popup was printed; main exits non-zero quietly.
var errFallback = errors.New("selection failed")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errFallback) {
			_, _ = fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "sunmap",
	Short: "Click a point on a map to see its address and today's sunrise and sunset",
	Long: `sunmap shows the address of a point together with today's sunrise and
sunset. Every selection queries Google reverse geocoding and
sunrise-sunset.org in parallel; the latest selection always wins.

Features:
  - Full-screen terminal map with mouse and keyboard selection
  - One-shot lookups with text, JSON or HTML output
  - HTTP and websocket server for browser maps
  - Response caching for faster repeated queries

Quick Start:
  1. Launch TUI:            sunmap (or sunmap tui)
  2. Look up a point:       sunmap lookup 13.41:122.56
  3. Serve browser maps:    sunmap serve --port 8080

Configuration is read from the environment (and a .env file):
  SUNMAP_GEOCODING_API_KEY, SUNMAP_HTTP_TIMEOUT, SUNMAP_SELECTION_TIMEOUT,
  SUNMAP_RATE_LIMIT, SUNMAP_CACHE_TTL, SUNMAP_NO_CACHE, SUNMAP_LOG_LEVEL,
  SUNMAP_LOG_FORMAT, PORT, SUNMAP_ESCAPE_MARKUP, SUNMAP_CENTER`,
	Version:           version,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE: func(cmd *cobra.Command, args []string) error {
		// If no subcommand is provided, launch TUI
		if len(args) == 0 {
			return runTUI(cmd, args)
		}
		return cmd.Help()
	},
}

// Global flags
var (
	flagAPIKey   string
	flagNoCache  bool
	flagLogLevel string
	flagLogFile  string
	flagColor    string
)

// Command flags
var (
	flagJSON    bool
	flagRawJSON bool
	flagHTML    bool
	flagPort    int
	flagCenter  string
)

// cfg is filled by loadConfig before any command runs.
var cfg config.Config

func init() {
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheCleanupCmd)

	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "Google geocoding API key (overrides SUNMAP_GEOCODING_API_KEY)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Disable response caching")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto", "Color output: auto, always, never")

	rootCmd.Flags().StringVar(&flagCenter, "center", "", "Initial map center as lat:lng (overrides SUNMAP_CENTER)")
	tuiCmd.Flags().StringVar(&flagCenter, "center", "", "Initial map center as lat:lng (overrides SUNMAP_CENTER)")

	lookupCmd.Flags().BoolVar(&flagJSON, "json", false, "Output the popup fields as JSON")
	lookupCmd.Flags().BoolVar(&flagRawJSON, "raw-json", false, "Output both raw upstream responses")
	lookupCmd.Flags().BoolVar(&flagHTML, "html", false, "Output the popup markup")
	lookupCmd.MarkFlagsMutuallyExclusive("json", "raw-json", "html")

	serveCmd.Flags().IntVarP(&flagPort, "port", "p", 0, "Port to listen on (overrides PORT)")
}

// loadConfig reads the environment and applies flag overrides.
func loadConfig(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}

	if flagAPIKey != "" {
		loaded.GeocodingAPIKey = flagAPIKey
	}
	if flagNoCache {
		loaded.NoCache = true
	}
	if flagLogLevel != "" {
		loaded.LogLevel = flagLogLevel
	}
	if flagPort != 0 {
		loaded.Port = flagPort
	}
	if flagCenter != "" {
		lat, lng, err := models.ParseCoordinate(flagCenter)
		if err != nil {
			return fmt.Errorf("invalid --center: %w", err)
		}
		loaded.CenterLat, loaded.CenterLng = lat, lng
	}

	cfg = loaded
	return nil
}

// newLogger builds the command logger. fallback receives logs when no
// --log-file is given; the TUI passes io.Discard since it owns the terminal.
func newLogger(fallback io.Writer) (*slog.Logger, func(), error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	if flagLogFile == "" {
		return logging.New(fallback, level, cfg.LogFormat), func() {}, nil
	}

	f, err := logging.OpenFile(flagLogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return logging.New(f, level, cfg.LogFormat), func() { _ = f.Close() }, nil
}

// createClient creates an API client from the loaded configuration
func createClient(logger *slog.Logger, m *metric.Metrics) (*api.Client, error) {
	opts := append(cfg.ClientOptions(), api.WithLogger(logger), api.WithMetrics(m))
	client, err := api.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	if !client.HasAPIKey() {
		logger.Warn("no geocoding API key set; addresses will show as N/A")
	}
	return client, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive map",
	Long: `Launch a full-screen terminal map.

Move the cursor with the arrow keys or hjkl and press Enter, or click a
point with the mouse, to place a marker. Its popup shows the address and
today's sunrise and sunset once both lookups are done.

Keys:
  ←↑↓→ / hjkl   move the cursor (the map pans at the edges)
  + / -         zoom in / out
  c             center the map on the cursor
  enter, space  select the point under the cursor
  /             go to a coordinate (lat,lng or lat:lng)
  ?             toggle help
  q, ctrl+c     quit`,
	RunE: runTUI,
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	logger, closeLog, err := newLogger(io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := createClient(logger, nil)
	if err != nil {
		return err
	}

	return tui.Run(ctx, client, tui.Options{
		CenterLat: cfg.CenterLat,
		CenterLng: cfg.CenterLng,
		Logger:    logger,
	})
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <lat>:<lng>",
	Short: "Show the popup for a single point",
	Long: `Run one selection and print its popup.

The point is given in decimal degrees as lat:lng or lat,lng.
The command exits with status 1 when the lookup failed and the fallback
message was printed instead.

Examples:
  sunmap lookup 13.41:122.56            # Colored text
  sunmap lookup 13.41:122.56 --json     # Address and times as JSON
  sunmap lookup 13.41:122.56 --raw-json # Both upstream responses
  sunmap lookup 13.41:122.56 --html     # Popup markup
  sunmap lookup -- -33.87:151.21        # Negative latitude`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	lat, lng, err := models.ParseCoordinate(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	client, err := createClient(logger, nil)
	if err != nil {
		return err
	}

	mode := lookupText
	switch {
	case flagJSON:
		mode = lookupJSON
	case flagRawJSON:
		mode = lookupRawJSON
	case flagHTML:
		mode = lookupHTML
	}

	return lookup(ctx, cmd.OutOrStdout(), client, lookupRequest{
		Event:   models.SelectionEvent{Lat: lat, Lng: lng},
		Mode:    mode,
		Colors:  output.NewColors(output.ParseColorMode(flagColor)),
		Logger:  logger,
		Timeout: cfg.SelectionTimeout,
		Escape:  cfg.EscapeMarkup,
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve popups over HTTP and websockets",
	Long: `Start an HTTP server for browser maps.

Endpoints:
  GET /healthz                     liveness probe
  GET /metrics                     Prometheus metrics
  GET /api/v1/popup?lat=..&lng=..  one selection, returns {"content", "ok"}
  GET /api/v1/ws                   websocket selection session

A websocket session accepts {"lat":..,"lng":..} frames and answers with
marker.place, marker.update and marker.remove frames. Only the latest
selection of a session is ever updated.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	logger, closeLog, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	m := metric.New()
	client, err := createClient(logger, m)
	if err != nil {
		return err
	}

	srv := server.New(cfg, server.Deps{
		Fetcher: client,
		Logger:  logger,
		Metrics: m,
	})
	return srv.Run(ctx)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the response cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached responses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return maintainCache(cmd.OutOrStdout(), "Removed %d cached responses from %s\n", (*cache.FileCache).Clear)
	},
}

var cacheCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired cached responses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return maintainCache(cmd.OutOrStdout(), "Removed %d expired responses from %s\n", (*cache.FileCache).Cleanup)
	},
}

func maintainCache(w io.Writer, format string, op func(*cache.FileCache) (int, error)) error {
	fc, err := cache.NewFileCache(cache.DefaultCacheDir(), cfg.CacheTTL)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	n, err := op(fc)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(w, format, n, fc.Dir())
	return nil
}
