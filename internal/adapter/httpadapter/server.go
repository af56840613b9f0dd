// Package httpadapter serves the rendered catalog over HTTP alongside the
// operational health, readiness, and metrics endpoints.
package httpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/quake-data-kml/internal/kml"
)

const kmlContentType = "application/vnd.google-earth.kml+xml"

// CatalogSource provides the current catalog snapshot to HTTP handlers.
type CatalogSource interface {
	CheckReadiness(ctx context.Context) error
	DocumentKML() (doc []byte, builtAt time.Time, ok bool)
	Asset(name string) ([]byte, bool)
}

// Server exposes the catalog document, its beachball icons, and the
// health/readiness/metrics endpoints.
type Server struct {
	httpServer  *http.Server
	logger      *slog.Logger
	source      CatalogSource
	networkLink []byte
}

// NewServer creates an HTTP server for the catalog. The root path serves a
// NetworkLink document that tells Google Earth to re-fetch /catalog.kml
// every refreshInterval.
func NewServer(addr string, source CatalogSource, refreshInterval time.Duration, logger *slog.Logger) (*Server, error) {
	link, err := kml.NetworkLinkDocument("catalog.kml", refreshInterval)
	if err != nil {
		return nil, fmt.Errorf("build network link document: %w", err)
	}

	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:      logger,
		source:      source,
		networkLink: link,
	}

	mux.HandleFunc("GET /{$}", s.handleNetworkLink)
	mux.HandleFunc("GET /catalog.kml", s.handleCatalog)
	mux.HandleFunc("GET /assets/{name}", s.handleAsset)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(source))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s, nil
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleNetworkLink(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", kmlContentType)
	w.Write(s.networkLink) //nolint:errcheck // client disconnects are not actionable
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	doc, builtAt, ok := s.source.DocumentKML()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  "catalog has not been built yet",
		})
		return
	}

	w.Header().Set("Content-Type", kmlContentType)
	w.Header().Set("Last-Modified", builtAt.UTC().Format(http.TimeFormat))
	w.Write(doc) //nolint:errcheck // client disconnects are not actionable
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	data, ok := s.source.Asset(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown asset"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(data) //nolint:errcheck // client disconnects are not actionable
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(source CatalogSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := source.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
