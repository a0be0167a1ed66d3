package tui

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/sunmap/internal/models"
	"github.com/mobil-koeln/sunmap/internal/pipeline"
)

// Sink turns pipeline marker calls into program messages. Calls never block:
// messages are queued and forwarded by Run, so a pipeline may call the sink
// while the program is busy in Update.
type Sink struct {
	mu    sync.Mutex
	queue []tea.Msg
	next  int
	wake  chan struct{}
}

// NewSink creates an empty sink. Messages queue up until Run starts.
func NewSink() *Sink {
	return &Sink{wake: make(chan struct{}, 1)}
}

// PlaceMarker implements pipeline.Sink.
func (s *Sink) PlaceMarker(ev models.SelectionEvent, content string) pipeline.MarkerRef {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	ref := pipeline.MarkerRef(fmt.Sprintf("marker-%d", s.next))
	s.push(markerPlacedMsg{ref: ref, ev: ev, content: content})
	return ref
}

// UpdateMarker implements pipeline.Sink.
func (s *Sink) UpdateMarker(ref pipeline.MarkerRef, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.push(markerUpdatedMsg{ref: ref, content: content})
}

// RemoveMarker implements pipeline.Sink.
func (s *Sink) RemoveMarker(ref pipeline.MarkerRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.push(markerRemovedMsg{ref: ref})
}

// push must be called with mu held.
func (s *Sink) push(msg tea.Msg) {
	s.queue = append(s.queue, msg)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run forwards queued messages to send, in order, until ctx ends.
func (s *Sink) Run(ctx context.Context, send func(tea.Msg)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.wake:
		}

		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, msg := range batch {
			send(msg)
		}
	}
}
