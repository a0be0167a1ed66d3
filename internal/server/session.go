package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mobil-koeln/sunmap/internal/models"
	"github.com/mobil-koeln/sunmap/internal/pipeline"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxClientFrame = 512
)

// Server frame types.
const (
	FrameSession      = "session"
	FrameMarkerPlace  = "marker.place"
	FrameMarkerUpdate = "marker.update"
	FrameMarkerRemove = "marker.remove"
	FrameError        = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		return true
	},
}

// clientFrame is a selection sent by the browser.
type clientFrame struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

// Frame is a message sent to the browser.
type Frame struct {
	Type    string   `json:"type"`
	Session string   `json:"session,omitempty"`
	Marker  string   `json:"marker,omitempty"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
	Content string   `json:"content,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// session is one websocket connection acting as a map widget. It implements
// pipeline.Sink by queueing frames for its writer goroutine.
type session struct {
	id     string
	conn   *websocket.Conn
	logger *slog.Logger

	mu     sync.Mutex
	queue  []Frame
	next   int
	wake   chan struct{}
	closed bool
}

func newSession(conn *websocket.Conn, logger *slog.Logger) *session {
	id := uuid.NewString()
	return &session{
		id:     id,
		conn:   conn,
		logger: logger.With("session", id),
		wake:   make(chan struct{}, 1),
	}
}

// PlaceMarker implements pipeline.Sink.
func (s *session) PlaceMarker(ev models.SelectionEvent, content string) pipeline.MarkerRef {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	ref := pipeline.MarkerRef(fmt.Sprintf("marker-%d", s.next))
	lat, lng := ev.Lat, ev.Lng
	s.push(Frame{Type: FrameMarkerPlace, Marker: string(ref), Lat: &lat, Lng: &lng, Content: content})
	return ref
}

// UpdateMarker implements pipeline.Sink.
func (s *session) UpdateMarker(ref pipeline.MarkerRef, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.push(Frame{Type: FrameMarkerUpdate, Marker: string(ref), Content: content})
}

// RemoveMarker implements pipeline.Sink.
func (s *session) RemoveMarker(ref pipeline.MarkerRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.push(Frame{Type: FrameMarkerRemove, Marker: string(ref)})
}

func (s *session) send(f Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.push(f)
}

// push must be called with mu held.
func (s *session) push(f Frame) {
	if s.closed {
		return
	}
	s.queue = append(s.queue, f)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *session) drain() []Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	batch := s.queue
	s.queue = nil
	return batch
}

// writeLoop is the only writer on the connection.
func (s *session) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.conn.Close()
				return
			}

		case <-s.wake:
			for _, f := range s.drain() {
				data, err := json.Marshal(f)
				if err != nil {
					s.logger.Error("encode frame", "type", f.Type, "error", err)
					continue
				}
				_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
					s.logger.Debug("write failed", "error", err)
					s.conn.Close()
					return
				}
			}
		}
	}
}

// readLoop hands client selections to p until the connection fails.
func (s *session) readLoop(p *pipeline.Pipeline) {
	s.conn.SetReadLimit(maxClientFrame)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("session read failed", "error", err)
			}
			return
		}

		ev, err := parseClientFrame(data)
		if err != nil {
			s.send(Frame{Type: FrameError, Error: err.Error()})
			continue
		}
		p.Select(ev)
	}
}

func parseClientFrame(data []byte) (models.SelectionEvent, error) {
	var f clientFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return models.SelectionEvent{}, fmt.Errorf("invalid frame: %w", err)
	}
	if f.Lat == nil || f.Lng == nil {
		return models.SelectionEvent{}, fmt.Errorf("invalid frame: lat and lng are required")
	}
	if err := models.ValidateCoordinate(*f.Lat, *f.Lng); err != nil {
		return models.SelectionEvent{}, err
	}
	return models.SelectionEvent{Lat: *f.Lat, Lng: *f.Lng}, nil
}

func (s *Server) handleSession(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied
		s.requestLoggerFor(c).Warn("websocket upgrade failed", "error", err)
		return
	}

	s.sessions.Add(1)
	defer s.sessions.Done()

	sess := newSession(conn, s.requestLoggerFor(c))
	s.deps.Metrics.SessionOpened()
	defer s.deps.Metrics.SessionClosed()
	sess.logger.Info("session opened", "remote", c.ClientIP())

	ctx, cancel := context.WithCancel(context.Background())
	writerDone := make(chan struct{})
	go func() {
		sess.writeLoop(ctx)
		close(writerDone)
	}()

	// server shutdown ends the read loop by closing the connection
	go func() {
		select {
		case <-s.done:
			cancel()
			<-writerDone
			conn.Close()
		case <-ctx.Done():
		}
	}()

	p := pipeline.New(s.deps.Fetcher, sess, s.pipelineOptions(sess.logger)...)
	sess.send(Frame{Type: FrameSession, Session: sess.id})

	sess.readLoop(p)

	p.Close()
	sess.mu.Lock()
	sess.closed = true
	sess.mu.Unlock()
	cancel()
	<-writerDone
	conn.Close()
	sess.logger.Info("session closed")
}
