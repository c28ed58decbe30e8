package memory

import (
	"sync"

	"nft-storefront/internal/adapter/metrics"

	"github.com/axiomhq/hyperloglog"
)

// VisitorStats estimates how many distinct sessions viewed each chain.
// Sketches use constant memory per chain regardless of traffic.
type VisitorStats struct {
	mu       sync.Mutex
	sketches map[int64]*hyperloglog.Sketch
	metrics  *metrics.Metrics
}

// NewVisitorStats creates an empty tracker. m may be nil.
func NewVisitorStats(m *metrics.Metrics) *VisitorStats {
	return &VisitorStats{
		sketches: make(map[int64]*hyperloglog.Sketch),
		metrics:  m,
	}
}

// Observe records that sessionID viewed chainID.
func (s *VisitorStats) Observe(chainID int64, sessionID string) {
	s.mu.Lock()
	sketch, ok := s.sketches[chainID]
	if !ok {
		sketch = hyperloglog.New14()
		s.sketches[chainID] = sketch
	}
	sketch.Insert([]byte(sessionID))
	estimate := sketch.Estimate()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.UniqueSessions.WithLabelValues(metrics.ChainLabel(chainID)).Set(float64(estimate))
	}
}

// Estimate returns the approximate number of distinct sessions seen on chainID.
func (s *VisitorStats) Estimate(chainID int64) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	sketch, ok := s.sketches[chainID]
	if !ok {
		return 0
	}
	return sketch.Estimate()
}
