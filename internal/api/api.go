// Package api serves the chart catalog, stored simulations and rendered
// visualizations over HTTP.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ndrandal/simviz/internal/chart"
	"github.com/ndrandal/simviz/internal/persist"
	"github.com/ndrandal/simviz/internal/session"
	"github.com/ndrandal/simviz/internal/viz"
)

// Server provides REST API endpoints for the visualization service.
type Server struct {
	repo      persist.Repository
	factories []*viz.Factory
	env       chart.Env
	hub       *session.Manager
	records   chan<- persist.VisualizationRecord
	log       *slog.Logger
	startAt   time.Time
}

// NewServer creates a new API server. factories is the chart catalog;
// nil entries are charts that failed to build and are not served.
func NewServer(repo persist.Repository, factories []*viz.Factory, env chart.Env, hub *session.Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		repo:      repo,
		factories: factories,
		env:       env,
		hub:       hub,
		log:       logger,
		startAt:   time.Now(),
	}
}

// SetRecordQueue makes the server hand rendered visualizations to ch
// instead of saving them inline. Records are dropped when ch is full.
func (s *Server) SetRecordQueue(ch chan<- persist.VisualizationRecord) {
	s.records = ch
}

// Register attaches API routes to the given mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/charts", s.handleCharts)
	mux.HandleFunc("GET /api/simulations", s.handleSimulations)
	mux.HandleFunc("GET /api/simulations/{id}", s.handleSimulationDetail)
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("GET /api/visualizations", s.handleVisualizations)
	mux.HandleFunc("GET /api/visualizations/{id}", s.handleVisualization)
	mux.HandleFunc("GET /api/stats", s.handleStats)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
