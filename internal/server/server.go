// Package server exposes the conversation pipeline over HTTP: a streaming
// WebSocket turn endpoint, a non-streaming chat endpoint, and health and
// stats probes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jhartinger/vitacoach-go/internal/coach"
	"github.com/jhartinger/vitacoach-go/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

// Turner executes conversation turns. *coach.Orchestrator satisfies it.
type Turner interface {
	Stream(ctx context.Context, req coach.Request) <-chan coach.Frame
	Respond(ctx context.Context, req coach.Request) coach.Response
}

// Server is the HTTP front of the pipeline.
type Server struct {
	httpServer *http.Server
	turner     Turner
	collector  *metrics.Collector
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// New creates a server listening on addr. collector may be nil; /stats then
// returns an empty snapshot.
func New(addr string, turner Turner, collector *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		turner:    turner,
		collector: collector,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /chat/stream", s.handleStream)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /stats", s.handleStats)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           withLogging(logger, mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the configured handler (used in tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// handleChat runs a single non-streaming turn.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req coach.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Owner) == "" || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "owner and message are required")
		return
	}

	resp := s.turner.Respond(r.Context(), req)
	writeJSON(w, http.StatusOK, resp)
}

// handleStream upgrades to WebSocket and serves turn requests until the
// client disconnects. Each turn emits its frames in order, terminated by a
// complete frame. A consumer that goes away simply drops the stream.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		var req coach.Request
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("websocket read ended", "error", err)
			}
			return
		}
		if strings.TrimSpace(req.Owner) == "" || strings.TrimSpace(req.Message) == "" {
			if err := conn.WriteJSON(coach.Frame{Complete: true, Error: "owner and message are required"}); err != nil {
				return
			}
			continue
		}

		for frame := range s.turner.Stream(r.Context(), req) {
			if err := conn.WriteJSON(frame); err != nil {
				s.logger.Debug("websocket write failed, dropping stream", "error", err)
				return
			}
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	if s.collector == nil {
		writeJSON(w, http.StatusOK, metrics.Snapshot{})
		return
	}
	writeJSON(w, http.StatusOK, s.collector.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
