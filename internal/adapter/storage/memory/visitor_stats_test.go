package memory

import (
	"fmt"
	"testing"

	"nft-storefront/internal/adapter/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestVisitorStatsCountsDistinctSessions(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	stats := NewVisitorStats(m)

	for i := 0; i < 100; i++ {
		stats.Observe(369, fmt.Sprintf("session-%d", i%10))
	}
	stats.Observe(1, "session-0")

	assert.InDelta(t, 10, stats.Estimate(369), 1)
	assert.EqualValues(t, 1, stats.Estimate(1))
	assert.EqualValues(t, 0, stats.Estimate(137))
	assert.InDelta(t, 10, testutil.ToFloat64(m.UniqueSessions.WithLabelValues("369")), 1)
}
