// Package server exposes the selection pipeline over HTTP: a one-shot popup
// endpoint and a websocket session that behaves like a map widget.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mobil-koeln/sunmap/internal/config"
	"github.com/mobil-koeln/sunmap/internal/logging"
	"github.com/mobil-koeln/sunmap/internal/metric"
	"github.com/mobil-koeln/sunmap/internal/output"
	"github.com/mobil-koeln/sunmap/internal/pipeline"
)

const requestIDHeader = "X-Request-ID"

// Deps are the collaborators a Server needs.
type Deps struct {
	Fetcher pipeline.Fetcher
	Logger  *slog.Logger
	Metrics *metric.Metrics
}

// Server bundles router and dependencies for the HTTP API.
type Server struct {
	cfg    config.Config
	deps   Deps
	logger *slog.Logger
	engine *gin.Engine
	render output.RenderFunc

	// closed on shutdown so open websocket sessions end
	done     chan struct{}
	doneOnce sync.Once
	sessions sync.WaitGroup
}

// New constructs a server with routes and middleware.
func New(cfg config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(logger))
	engine.Use(corsMiddleware())

	render := output.RenderPopup
	if cfg.EscapeMarkup {
		render = output.RenderPopupEscaped
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger,
		engine: engine,
		render: render,
		done:   make(chan struct{}),
	}
	s.registerRoutes()
	return s
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until ctx ends, then shuts down.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.Close()
		return err
	}
}

// Close ends all open websocket sessions and waits for them.
func (s *Server) Close() {
	s.doneOnce.Do(func() { close(s.done) })
	s.sessions.Wait()
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))

	v1 := s.engine.Group("/api/v1")
	v1.GET("/popup", s.handlePopup)
	v1.GET("/ws", s.handleSession)
}

// pipelineOptions are shared by one-shot and session pipelines.
func (s *Server) pipelineOptions(logger *slog.Logger) []pipeline.Option {
	return []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(s.deps.Metrics),
		pipeline.WithRenderer(s.render),
		pipeline.WithSelectionTimeout(s.cfg.SelectionTimeout),
	}
}

// requestLogger tags each request with an ID and logs it once it completes.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)

		start := time.Now()
		c.Next()

		logger.Info("request",
			"id", id,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requestLoggerFor returns the server logger tagged with the request ID.
func (s *Server) requestLoggerFor(c *gin.Context) *slog.Logger {
	return s.logger.With("request", c.GetString(requestIDHeader))
}
