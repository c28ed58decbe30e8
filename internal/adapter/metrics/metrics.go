package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for upstream requests.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
	OutcomeTimeout  = "timeout"
	OutcomeLimited  = "rate_limited"
	OutcomeDecode   = "decode_error"
)

// Metrics groups the collectors exported on /metrics.
type Metrics struct {
	UpstreamRequests *prometheus.CounterVec
	UpstreamDuration *prometheus.HistogramVec
	PageRenders      *prometheus.CounterVec
	UniqueSessions   *prometheus.GaugeVec
	FeedConnections  prometheus.Gauge
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		UpstreamRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "upstream_requests_total",
			Help:      "Requests sent to the NFT data API, by chain, endpoint and outcome.",
		}, []string{"chain", "endpoint", "outcome"}),
		UpstreamDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "upstream_request_duration_seconds",
			Help:      "Latency of NFT data API requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"chain", "endpoint"}),
		PageRenders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "page_renders_total",
			Help:      "Server-rendered pages, by page and chain.",
		}, []string{"page", "chain"}),
		UniqueSessions: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "storefront",
			Name:      "unique_sessions",
			Help:      "Estimated distinct sessions that viewed each chain since start.",
		}, []string{"chain"}),
		FeedConnections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "storefront",
			Name:      "feed_connections",
			Help:      "Open live ranking feed connections.",
		}),
	}
}

// ChainLabel formats a chain id as a metric label value.
func ChainLabel(chainID int64) string {
	return strconv.FormatInt(chainID, 10)
}
