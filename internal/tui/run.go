package tui

import (
	"context"
	"errors"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/sunmap/internal/logging"
	"github.com/mobil-koeln/sunmap/internal/metric"
	"github.com/mobil-koeln/sunmap/internal/output"
	"github.com/mobil-koeln/sunmap/internal/pipeline"
)

// Options configures Run.
type Options struct {
	CenterLat float64
	CenterLng float64
	Logger    *slog.Logger
	Metrics   *metric.Metrics
	// Pipeline options are applied after the TUI defaults.
	Pipeline []pipeline.Option
}

// Run starts the full-screen map and blocks until the user quits or ctx ends.
func Run(ctx context.Context, fetcher pipeline.Fetcher, opts Options) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	pipeOpts := append([]pipeline.Option{
		pipeline.WithRenderer(output.RenderPopupText),
		pipeline.WithLogger(logger),
		pipeline.WithMetrics(opts.Metrics),
	}, opts.Pipeline...)

	sink := NewSink()
	pipe := pipeline.New(fetcher, sink, pipeOpts...)
	defer pipe.Close()

	model := New(pipe, opts.CenterLat, opts.CenterLng)
	prog := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	go sink.Run(ctx, prog.Send)

	logger.Info("tui started", "lat", opts.CenterLat, "lng", opts.CenterLng, "zoom", model.view.zoom)
	_, err := prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
