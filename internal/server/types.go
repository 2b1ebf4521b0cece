// Package server exposes the processing pipeline over HTTP: a multipart
// scan endpoint, a JSON batch endpoint, a WebSocket channel with progress
// streaming, and the usual health, info, and Prometheus metrics surfaces.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/scanbill/scanbill/internal/document"
	"github.com/scanbill/scanbill/internal/pipeline"
)

// processor defines the methods the server needs from a pipeline.
type processor interface {
	ProcessWithOptions(ctx context.Context, doc document.Document, opts pipeline.Options) (*pipeline.Result, error)
	Info() map[string]interface{}
	Stats() pipeline.StatsSnapshot
	Close() error
}

// Server holds the HTTP server state and dependencies. Requests are
// processed strictly sequentially: the pipeline owns a single engine
// session, and the request mutex serializes access to it.
type Server struct {
	proc        processor
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
	baseOptions pipeline.Options
	rateLimiter *RateLimiter

	procMu chan struct{} // capacity 1, acts as the session lock
}

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	MaxUploadMB     int64
	TimeoutSec      int
	ShutdownTimeout int
	// Options are the per-request default processing options; request
	// form fields and WebSocket option maps override them per call.
	Options pipeline.Options
	// RateLimit enables request throttling when non-nil.
	RateLimit *RateLimitConfig
}

// RateLimitConfig holds throttling settings.
type RateLimitConfig struct {
	RequestsPerMinute int
	MaxDataPerDay     int64
}

// HealthResponse is the health endpoint body.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// InfoResponse describes the running pipeline and its statistics.
type InfoResponse struct {
	Pipeline map[string]interface{} `json:"pipeline"`
	Stats    pipeline.StatsSnapshot `json:"stats"`
}

// New creates a server around an already built pipeline. The server takes
// ownership of the processor; Close releases it.
func New(cfg Config, proc processor) *Server {
	s := &Server{
		proc:        proc,
		corsOrigin:  cfg.CORSOrigin,
		maxUploadMB: cfg.MaxUploadMB,
		timeoutSec:  cfg.TimeoutSec,
		baseOptions: cfg.Options,
		procMu:      make(chan struct{}, 1),
	}
	if s.corsOrigin == "" {
		s.corsOrigin = "*"
	}
	if s.maxUploadMB <= 0 {
		s.maxUploadMB = 50
	}
	if s.timeoutSec <= 0 {
		s.timeoutSec = 120
	}
	if err := s.baseOptions.Validate(); err != nil {
		s.baseOptions = pipeline.DefaultOptions()
	}
	if cfg.RateLimit != nil {
		s.rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.MaxDataPerDay)
	}
	return s
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.proc != nil {
		return s.proc.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/info", s.corsMiddleware(s.infoHandler))
	mux.HandleFunc("/scan", s.corsMiddleware(s.rateLimitMiddleware(s.scanHandler)))
	mux.HandleFunc("/scan/batch", s.corsMiddleware(s.rateLimitMiddleware(s.batchScanHandler)))
	mux.HandleFunc("/ws", s.scanWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// acquire serializes pipeline access, honoring the caller's context while
// waiting for the session.
func (s *Server) acquire(ctx context.Context) error {
	select {
	case s.procMu <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) release() { <-s.procMu }

// requestTimeout is the deadline applied to one HTTP scan request.
func (s *Server) requestTimeout() time.Duration {
	return time.Duration(s.timeoutSec) * time.Second
}
