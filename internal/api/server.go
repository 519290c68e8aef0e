// Package api exposes a read-only HTTP status surface for the analyzer.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// StatusSource provides the latest engine snapshot as JSON.
type StatusSource interface {
	StatusJSON() ([]byte, error)
}

// response is the envelope for endpoints that do not serve a raw snapshot.
type response struct {
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Server serves the status endpoints. It never mutates engine state.
type Server struct {
	source  StatusSource
	logger  *zap.Logger
	mux     *http.ServeMux
	srv     *http.Server
	address string
}

// NewServer creates a status server.
func NewServer(address string, source StatusSource, logger *zap.Logger) *Server {
	s := &Server{
		source:  source,
		logger:  logger,
		mux:     http.NewServeMux(),
		address: address,
	}
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	return s
}

// Run starts the HTTP server and blocks until the context is cancelled or
// the listener fails.
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:    s.address,
		Handler: corsMiddleware(s.mux),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("status_server_started", zap.String("address", s.address))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response{
		Data:      map[string]string{"status": "ok"},
		Timestamp: time.Now(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	data, err := s.source.StatusJSON()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, response{
			Error:     err.Error(),
			Timestamp: time.Now(),
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
