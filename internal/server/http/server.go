// Package http serves the platform list and metrics over HTTP.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ekisa-team/synadapt/internal/discovery"
	"github.com/ekisa-team/synadapt/internal/metrics"
)

// PlatformsResponse is the body of GET /platforms.
type PlatformsResponse struct {
	Platforms []discovery.Info `json:"platforms"`
}

// Handler serves the HTTP API.
type Handler struct {
	lister discovery.Lister
	mux    *http.ServeMux
}

// NewHandler routes GET /platforms to lister and GET /metrics to gatherer.
// A nil gatherer disables /metrics.
func NewHandler(lister discovery.Lister, gatherer prometheus.Gatherer) *Handler {
	h := &Handler{
		lister: lister,
		mux:    http.NewServeMux(),
	}

	h.mux.HandleFunc("GET /platforms", h.handlePlatforms)
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	if gatherer != nil {
		h.mux.Handle("GET /metrics", metrics.Handler(gatherer))
	}

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// handlePlatforms handles the list platforms operation.
func (h *Handler) handlePlatforms(w http.ResponseWriter, r *http.Request) {
	infos, err := h.lister.ListPlatforms(r.Context())
	if err != nil {
		slog.Error("Failed to list platforms", "error", err)
		http.Error(w, "failed to list platforms", http.StatusServiceUnavailable)
		return
	}
	if infos == nil {
		infos = []discovery.Info{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(PlatformsResponse{Platforms: infos}); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// NewServer returns an HTTP server for handler listening on port.
func NewServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
