// Package server exposes the scan engine over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phishguard/phishguard/internal/engine"
	"github.com/phishguard/phishguard/internal/model"
	"github.com/phishguard/phishguard/internal/validate"
)

// Server serves the scan API.
type Server struct {
	engine *engine.Engine
	logger *slog.Logger
}

// New returns a Server. A nil logger falls back to slog.Default.
func New(eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{engine: eng, logger: logger}
}

// Router builds the chi handler tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/v1/scan", s.handleScan)
	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req model.ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	started := time.Now()
	result, err := s.engine.Scan(r.Context(), req)
	if err != nil {
		var invalid *validate.InvalidURLError
		if errors.As(err, &invalid) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: invalid.Error()})
			return
		}
		s.logger.Error("scan failed", "url", req.URL, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	s.logger.Info("scan completed",
		"url", result.URL,
		"score", result.Score,
		"status", result.Status,
		"reports", result.Threat.ReportCount,
		"duration", time.Since(started))
	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
