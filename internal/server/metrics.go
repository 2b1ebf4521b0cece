package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanbill_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scanbill_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Scan processing metrics
	scanRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanbill_scan_requests_total",
			Help: "Total number of scan requests",
		},
		[]string{"type", "status"}, // type: http, batch, websocket
	)

	scanProcessingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scanbill_scan_processing_duration_seconds",
			Help:    "Document processing duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50, 100},
		},
		[]string{"type"},
	)

	scanQualityScore = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scanbill_scan_quality_score",
			Help:    "Extraction quality score of processed documents",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
		[]string{"type"},
	)

	scanTextLength = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scanbill_scan_text_length",
			Help:    "Length of recognized raw text",
			Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000, 10000},
		},
		[]string{"type"},
	)

	// Rate limiting metrics
	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanbill_rate_limit_hits_total",
			Help: "Total number of rate limit hits",
		},
		[]string{"type"}, // type: minute, data
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scanbill_upload_size_bytes",
			Help:    "Size of uploaded documents in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 10 * 1024 * 1024, 50 * 1024 * 1024},
		},
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scanbill_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scanbill_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)
