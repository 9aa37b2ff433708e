// Package watch exposes a live view of a running measurement: an HTTP server
// with a websocket endpoint that streams per-iteration results as JSON.
// It is purely observational; losing a watcher never affects the measurement.
package watch

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	sendBacklog  = 16
)

// Server streams published events to websocket subscribers.
type Server struct {
	logger *slog.Logger
	server *http.Server

	mu   sync.Mutex
	subs map[chan []byte]struct{}
	last []byte
}

// NewServer creates a watch server bound to addr (host:port).
func NewServer(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger: logger,
		subs:   make(map[chan []byte]struct{}),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	s.server = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Start begins serving in the background.
func (s *Server) Start() {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("watch server failed", "error", err)
		}
	}()
	s.logger.Info("watch server listening", "addr", s.server.Addr)
}

// Stop shuts the server down and disconnects subscribers.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Publish broadcasts an event to every connected subscriber. Slow subscribers
// miss events rather than stalling the publisher.
func (s *Server) Publish(event string, payload any) {
	msg, err := json.Marshal(map[string]any{
		"event": event,
		"time":  time.Now().Format(time.RFC3339),
		"data":  payload,
	})
	if err != nil {
		s.logger.Warn("watch publish failed", "error", err)
		return
	}

	s.mu.Lock()
	s.last = msg
	for ch := range s.subs {
		select {
		case ch <- msg:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	ch := make(chan []byte, sendBacklog)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	if s.last != nil {
		ch <- s.last
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	// Reader consumes control frames so pongs are processed.
	go func() {
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
