package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mobil-koeln/sunmap/internal/api"
	"github.com/mobil-koeln/sunmap/internal/logging"
	"github.com/mobil-koeln/sunmap/internal/metric"
	"github.com/mobil-koeln/sunmap/internal/models"
	"github.com/mobil-koeln/sunmap/internal/output"
)

// State is the lifecycle state of one selection.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateJoined
	StateRendered
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateJoined:
		return "joined"
	case StateRendered:
		return "rendered"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Outcome labels for metrics and logs.
const (
	OutcomeContent  = "content"
	OutcomeFallback = "fallback"

	selectionAccepted   = "accepted"
	selectionIgnored    = "ignored"
	selectionSuperseded = "superseded"
)

// Fetcher starts the two upstream requests for a coordinate.
// *api.Client implements it.
type Fetcher interface {
	GeocodingTask(ctx context.Context, lat, lng float64) *api.Task
	SunriseSunsetTask(ctx context.Context, lat, lng float64) *api.Task
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records selections, renders and join durations
func WithMetrics(m *metric.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithRenderer replaces the default markup renderer
func WithRenderer(fn output.RenderFunc) Option {
	return func(p *Pipeline) {
		p.render = fn
	}
}

// WithLoadingContent sets what a new marker shows until its content arrives
func WithLoadingContent(s string) Option {
	return func(p *Pipeline) {
		p.loading = s
	}
}

// WithSelectionTimeout bounds how long one selection may take.
// Running out of time renders the fallback. Zero disables the bound.
func WithSelectionTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		p.timeout = d
	}
}

// instance is the in-flight work for one selection.
type instance struct {
	ev      models.SelectionEvent
	state   State
	cancel  context.CancelFunc
	started time.Time
}

// Pipeline drives selections through fetch, join, transform and render,
// and owns the single marker shown by its Sink.
//
// Every state change and every Sink call happens under mu, so once Select
// returns, no output for an earlier selection can reach the Sink.
type Pipeline struct {
	fetcher Fetcher
	sink    Sink
	logger  *slog.Logger
	metrics *metric.Metrics
	render  output.RenderFunc
	loading string
	timeout time.Duration

	base     context.Context
	stopBase context.CancelFunc
	wg       sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	lastSeq   int64
	current   *instance
	marker    MarkerRef
	hasMarker bool
}

// New creates a pipeline delivering to sink.
func New(fetcher Fetcher, sink Sink, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher: fetcher,
		sink:    sink,
		logger:  logging.Discard(),
		render:  output.RenderPopup,
		loading: output.LoadingMessage,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.base, p.stopBase = context.WithCancel(context.Background())
	return p
}

// Select starts work for ev, cancelling whatever the previous selection
// still had in flight. An event with Seq zero is numbered automatically;
// otherwise events whose Seq is not above the last accepted one are ignored.
// It reports whether ev was accepted.
func (p *Pipeline) Select(ev models.SelectionEvent) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	if ev.Seq == 0 {
		ev.Seq = p.lastSeq + 1
	}
	if ev.Seq <= p.lastSeq {
		p.metrics.Selection(selectionIgnored)
		p.logger.Debug("selection ignored", "seq", ev.Seq, "last_seq", p.lastSeq)
		return false
	}
	p.lastSeq = ev.Seq

	if prev := p.current; prev != nil && prev.state != StateRendered && prev.state != StateCancelled {
		prev.state = StateCancelled
		prev.cancel()
		p.metrics.Selection(selectionSuperseded)
		p.logger.Debug("selection superseded", "seq", prev.ev.Seq, "by", ev.Seq)
	}

	// detach the old marker before attaching the new one
	if p.hasMarker {
		p.sink.RemoveMarker(p.marker)
		p.hasMarker = false
	}
	p.marker = p.sink.PlaceMarker(ev, p.loading)
	p.hasMarker = true

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if p.timeout > 0 {
		ctx, cancel = context.WithTimeout(p.base, p.timeout)
	} else {
		ctx, cancel = context.WithCancel(p.base)
	}
	inst := &instance{
		ev:      ev,
		state:   StateFetching,
		cancel:  cancel,
		started: time.Now(),
	}
	p.current = inst
	p.metrics.Selection(selectionAccepted)
	p.logger.Info("selection accepted", "seq", ev.Seq, "lat", ev.Lat, "lng", ev.Lng)

	p.wg.Add(1)
	go p.run(ctx, inst)
	return true
}

func (p *Pipeline) run(ctx context.Context, inst *instance) {
	defer p.wg.Done()
	defer inst.cancel()

	geocoding := p.fetcher.GeocodingTask(ctx, inst.ev.Lat, inst.ev.Lng)
	sunriseSunset := p.fetcher.SunriseSunsetTask(ctx, inst.ev.Lat, inst.ev.Lng)
	agg, err := Join(ctx, geocoding, sunriseSunset)

	p.mu.Lock()
	defer p.mu.Unlock()

	// Select and Close mark the instance before cancelling its context,
	// so any other error is a real failure
	if inst.state == StateCancelled {
		p.logger.Debug("discarding superseded selection", "seq", inst.ev.Seq)
		return
	}
	p.metrics.Join(time.Since(inst.started))

	var content, outcome string
	switch {
	case err == nil:
		inst.state = StateJoined
		content = p.render(models.Transform(agg))
		outcome = OutcomeContent
	default:
		p.logger.Warn("selection failed", "seq", inst.ev.Seq, "error", err)
		content = output.FallbackMessage
		outcome = OutcomeFallback
	}
	inst.state = StateRendered

	if p.current != inst || !p.hasMarker {
		return
	}
	p.sink.UpdateMarker(p.marker, content)
	p.metrics.Render(outcome)
	p.logger.Debug("selection rendered", "seq", inst.ev.Seq, "outcome", outcome, "duration", time.Since(inst.started))
}

// Current returns the sequence number and state of the latest selection.
func (p *Pipeline) Current() (int64, State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil {
		return 0, StateIdle
	}
	return p.current.ev.Seq, p.current.state
}

// Run feeds events into Select until ctx ends or events is closed,
// then closes the pipeline.
func (p *Pipeline) Run(ctx context.Context, events <-chan models.SelectionEvent) error {
	defer p.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			p.Select(ev)
		}
	}
}

// Close cancels the in-flight selection and waits for its goroutine.
// It is safe to call more than once.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		if cur := p.current; cur != nil && cur.state != StateRendered {
			cur.state = StateCancelled
			cur.cancel()
		}
		p.stopBase()
	}
	p.mu.Unlock()

	p.wg.Wait()
}
