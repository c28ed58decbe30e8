package livefeed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"nft-storefront/internal/adapter/metrics"
	"nft-storefront/internal/adapter/storage/memory"
	"nft-storefront/internal/application"
	"nft-storefront/internal/application/chaincontext"
	"nft-storefront/internal/application/registry"
	"nft-storefront/internal/config"
	"nft-storefront/internal/domain/entity"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const cookieName = "sid"

var errUpstreamDown = errors.New("upstream down")

// echoRankings names each row after the query and chain that produced it.
type echoRankings struct {
	calls atomic.Int64
	fail  atomic.Bool
}

func (e *echoRankings) GetCollections(_ context.Context, chain entity.NetworkDescriptor, q entity.RankingQuery) (entity.CollectionsPayload, error) {
	e.calls.Add(1)
	if e.fail.Load() {
		return entity.CollectionsPayload{}, errUpstreamDown
	}
	return entity.CollectionsPayload{Collections: []entity.Collection{{
		ID:   chain.RoutePrefix,
		Name: string(q.SortBy),
	}}}, nil
}

func (e *echoRankings) GetTrendingMints(_ context.Context, chain entity.NetworkDescriptor, q entity.RankingQuery) (entity.MintsPayload, error) {
	e.calls.Add(1)
	if e.fail.Load() {
		return entity.MintsPayload{}, errUpstreamDown
	}
	return entity.MintsPayload{Mints: []entity.Mint{{ID: chain.RoutePrefix, Name: string(q.Period)}}}, nil
}

type feedFixture struct {
	server   *httptest.Server
	contexts *chaincontext.Manager
	metrics  *metrics.Metrics
}

func newFeedFixture(t *testing.T) *feedFixture {
	t.Helper()
	return newFeedFixtureWith(t, &echoRankings{})
}

func newFeedFixtureWith(t *testing.T, rankings *echoRankings) *feedFixture {
	t.Helper()
	logger := zap.NewNop()

	reg, err := registry.NewRegistry(entity.DeploymentMainnet, registry.MainnetNetworks(), registry.TestnetNetworks(), "pulsechain", logger)
	require.NoError(t, err)

	cfg := config.Config{
		Rankings: config.RankingsConfig{TrendingSetID: "trending-set", Limit: 20, FeaturedLimit: 20, MintsLimit: 20},
		Feed:     config.FeedConfig{DefaultPollInterval: 20 * time.Millisecond, WriteTimeout: time.Second, MaxMessageSize: 1024},
	}
	prefetch := application.NewPrefetchService(rankings, cfg, logger)
	sessions := memory.NewSessionRepository(config.SessionConfig{TTL: time.Hour, CleanupInterval: time.Hour}, logger)
	contexts := chaincontext.NewManager(reg, sessions, logger)
	m := metrics.New(prometheus.NewRegistry())

	srv := httptest.NewServer(NewHandler(reg, prefetch, contexts, cfg.Feed, cookieName, m, logger))
	t.Cleanup(srv.Close)

	return &feedFixture{server: srv, contexts: contexts, metrics: m}
}

func (f *feedFixture) dial(t *testing.T, path, sid string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	if sid != "" {
		header.Set("Cookie", cookieName+"="+sid)
	}
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func readUntil(t *testing.T, conn *websocket.Conn, pred func(Message) bool) Message {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if msg := readMessage(t, conn); pred(msg) {
			return msg
		}
	}
	t.Fatal("expected feed message never arrived")
	return Message{}
}

func TestFeedStartsFromFallbackThenRefreshes(t *testing.T) {
	f := newFeedFixture(t)
	conn := f.dial(t, "/ws/polygon/rankings?kind=collections", "")

	first := readMessage(t, conn)
	assert.Equal(t, entity.RankingCollections, first.Kind)
	assert.Equal(t, int64(137), first.ChainID)
	assert.Contains(t, []string{"readyFromFallback", "revalidating", "ready"}, first.State)
	require.NotNil(t, first.Collections)
	require.Len(t, first.Collections.Collections, 1, "fallback rows are shown right away")
	assert.Equal(t, string(entity.DefaultSortBy), first.Collections.Collections[0].Name)

	ready := readUntil(t, conn, func(m Message) bool { return m.State == "ready" })
	assert.Greater(t, ready.Version, first.Version)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FeedConnections))
}

func TestFeedStartsFromRequestedWindow(t *testing.T) {
	f := newFeedFixture(t)
	conn := f.dial(t, "/ws/polygon/rankings?kind=collections&sortBy=7DayVolume&period=1h", "")

	first := readMessage(t, conn)
	assert.Equal(t, entity.SortBy7DayVolume, first.SortBy)
	assert.Equal(t, entity.Volume7Day, first.VolumeKey)
	require.NotNil(t, first.Collections)
	require.Len(t, first.Collections.Collections, 1)
	assert.Equal(t, "7DayVolume", first.Collections.Collections[0].Name)

	mints := f.dial(t, "/ws/polygon/rankings?kind=mints&period=1h&sortBy=bogus", "")
	msg := readMessage(t, mints)
	assert.Equal(t, entity.MintPeriod1h, msg.Period)
	require.NotNil(t, msg.Mints)
	assert.Equal(t, "1h", msg.Mints.Mints[0].Name)
}

func TestFeedNeverPushesEmptyRowsWhenSeedFails(t *testing.T) {
	rankings := &echoRankings{}
	rankings.fail.Store(true)
	f := newFeedFixtureWith(t, rankings)
	conn := f.dial(t, "/ws/polygon/rankings", "")

	failed := readUntil(t, conn, func(m Message) bool {
		assert.Nil(t, m.Collections, "no payload until a fetch succeeds")
		return m.Error != ""
	})
	assert.Equal(t, "ready", failed.State)

	rankings.fail.Store(false)
	recovered := readUntil(t, conn, func(m Message) bool { return m.Collections != nil })
	assert.Empty(t, recovered.Error)
	assert.Equal(t, string(entity.DefaultSortBy), recovered.Collections.Collections[0].Name)
}

func TestFeedAppliesClientSortBy(t *testing.T) {
	f := newFeedFixture(t)
	conn := f.dial(t, "/ws/polygon/rankings", "")
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]string{"sortBy": "7DayVolume"}))

	msg := readUntil(t, conn, func(m Message) bool {
		return m.State == "ready" && m.SortBy == entity.SortBy7DayVolume &&
			m.Collections != nil && len(m.Collections.Collections) == 1 &&
			m.Collections.Collections[0].Name == "7DayVolume"
	})
	assert.Empty(t, msg.Error)
}

func TestFeedMintsFollowPeriod(t *testing.T) {
	f := newFeedFixture(t)
	conn := f.dial(t, "/ws/base/rankings?kind=mints", "")

	first := readMessage(t, conn)
	assert.Equal(t, entity.RankingMints, first.Kind)
	assert.Nil(t, first.Collections)

	require.NoError(t, conn.WriteJSON(map[string]string{"period": "1h"}))
	readUntil(t, conn, func(m Message) bool {
		return m.Period == entity.MintPeriod1h && m.Mints != nil && len(m.Mints.Mints) == 1 && m.Mints.Mints[0].Name == "1h"
	})
}

func TestFeedFollowsSessionChainSwitch(t *testing.T) {
	f := newFeedFixture(t)
	conn := f.dial(t, "/ws/polygon/rankings", "visitor-1")
	readMessage(t, conn)

	_, err := f.contexts.ForSession("visitor-1").SwitchCurrentChain(context.Background(), 8453)
	require.NoError(t, err)

	readUntil(t, conn, func(m Message) bool {
		return m.ChainID == 8453 && m.State == "ready" &&
			m.Collections != nil && len(m.Collections.Collections) == 1 &&
			m.Collections.Collections[0].ID == "base"
	})
}

func TestFeedRejectsBadRequests(t *testing.T) {
	f := newFeedFixture(t)
	base := "ws" + strings.TrimPrefix(f.server.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(base+"/ws/nowhere/rankings", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(base+"/ws/polygon/rankings?kind=sales", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChainFromPath(t *testing.T) {
	prefix, err := chainFromPath("/ws/pulsechain/rankings")
	require.NoError(t, err)
	assert.Equal(t, "pulsechain", prefix)

	for _, bad := range []string{"/ws//rankings", "/ws/pulsechain", "/api/pulsechain/rankings", "/ws/a/b/rankings"} {
		_, err := chainFromPath(bad)
		assert.Error(t, err, bad)
	}
}
