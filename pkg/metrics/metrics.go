package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stream_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Transcode metrics
var (
	TranscodeJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_transcode_jobs_total",
			Help: "Transcode jobs by terminal result",
		},
		[]string{"result"},
	)

	TranscodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stream_transcode_duration_seconds",
			Help:    "Wall time spent running the encoder",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		},
	)

	TranscodeJobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_transcode_jobs_in_flight",
			Help: "Transcode jobs currently held by a worker",
		},
	)

	TranscodeQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "stream_transcode_queue_depth",
			Help: "Jobs waiting in the transcode queue",
		},
	)
)

// Streaming metrics
var (
	StreamResponsesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_responses_total",
			Help: "Media responses by mode and status",
		},
		[]string{"mode", "status"},
	)

	StreamBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_bytes_total",
			Help: "Media bytes served by mode",
		},
		[]string{"mode"},
	)
)
