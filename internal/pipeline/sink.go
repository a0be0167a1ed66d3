package pipeline

import (
	"context"

	"github.com/mobil-koeln/sunmap/internal/models"
	"github.com/mobil-koeln/sunmap/internal/output"
)

// MarkerRef identifies a marker placed by a Sink.
type MarkerRef string

// Sink is the map widget side of a pipeline: it shows one marker with a
// popup. Calls arrive serialized and must not block on the pipeline.
type Sink interface {
	// PlaceMarker attaches a marker at ev with its initial content.
	PlaceMarker(ev models.SelectionEvent, content string) MarkerRef
	// UpdateMarker replaces the popup content of ref.
	UpdateMarker(ref MarkerRef, content string)
	// RemoveMarker detaches ref and its popup.
	RemoveMarker(ref MarkerRef)
}

// Result is the single output of a one-shot selection.
type Result struct {
	Content  string
	Fallback bool
}

// collectSink keeps the first update it receives.
type collectSink struct {
	updates chan string
}

func (s *collectSink) PlaceMarker(ev models.SelectionEvent, _ string) MarkerRef {
	return MarkerRef(ev.String())
}

func (s *collectSink) UpdateMarker(_ MarkerRef, content string) {
	select {
	case s.updates <- content:
	default:
	}
}

func (s *collectSink) RemoveMarker(MarkerRef) {}

// Once runs a single selection through a fresh pipeline and waits for its
// output. It returns an error only if ctx ends first.
func Once(ctx context.Context, fetcher Fetcher, ev models.SelectionEvent, opts ...Option) (Result, error) {
	sink := &collectSink{updates: make(chan string, 1)}
	p := New(fetcher, sink, opts...)
	defer p.Close()

	p.Select(ev)

	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case content := <-sink.updates:
		return Result{Content: content, Fallback: content == output.FallbackMessage}, nil
	}
}
