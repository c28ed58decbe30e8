package http

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	handler "nft-storefront/internal/adapter/handler/http"
	"nft-storefront/internal/adapter/livefeed"
	"nft-storefront/internal/adapter/metrics"
	"nft-storefront/internal/adapter/storage/memory"
	"nft-storefront/internal/application"
	"nft-storefront/internal/application/chaincontext"
	"nft-storefront/internal/application/registry"
	"nft-storefront/internal/config"
	"nft-storefront/internal/domain/entity"

	"github.com/fasthttp/router"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"
	"go.uber.org/zap"
)

type emptyRankings struct{}

func (emptyRankings) GetCollections(context.Context, entity.NetworkDescriptor, entity.RankingQuery) (entity.CollectionsPayload, error) {
	return entity.CollectionsPayload{}, nil
}

func (emptyRankings) GetTrendingMints(context.Context, entity.NetworkDescriptor, entity.RankingQuery) (entity.MintsPayload, error) {
	return entity.MintsPayload{}, nil
}

func startRouter(t *testing.T) (*fasthttp.Client, *fasthttputil.InmemoryListener) {
	t.Helper()
	logger := zap.NewNop()

	reg, err := registry.NewRegistry(entity.DeploymentMainnet, registry.MainnetNetworks(), registry.TestnetNetworks(), "pulsechain", logger)
	require.NoError(t, err)

	cfg := config.Config{Rankings: config.RankingsConfig{Limit: 20, FeaturedLimit: 20, MintsLimit: 20}}
	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)
	prefetch := application.NewPrefetchService(emptyRankings{}, cfg, logger)
	sessions := memory.NewSessionRepository(config.SessionConfig{TTL: time.Hour, CleanupInterval: time.Hour}, logger)
	contexts := chaincontext.NewManager(reg, sessions, logger)

	pages, err := handler.NewPageHandler(reg, prefetch, contexts, memory.NewVisitorStats(m), m, "public, s-maxage=10", logger)
	require.NoError(t, err)

	r := router.New()
	RegisterRoutes(r, Handlers{
		Pages:    pages,
		API:      handler.NewAPIHandler(reg, prefetch, contexts, logger),
		Feed:     livefeed.NewHandler(reg, prefetch, contexts, cfg.Feed, "sid", m, logger),
		Sessions: handler.NewSessionMiddleware("sid", time.Hour, sessions, logger),
		Gatherer: promReg,
	}, logger)

	ln := fasthttputil.NewInmemoryListener()
	srv := &fasthttp.Server{Handler: LoggingMiddleware(r.Handler, logger)}
	go func() { _ = srv.Serve(ln) }()
	t.Cleanup(func() { _ = srv.Shutdown() })

	return &fasthttp.Client{Dial: func(string) (net.Conn, error) { return ln.Dial() }}, ln
}

func get(t *testing.T, client *fasthttp.Client, path string) (int, string, *fasthttp.ResponseHeader) {
	t.Helper()
	return getWithSession(t, client, path, "")
}

func getWithSession(t *testing.T, client *fasthttp.Client, path, sid string) (int, string, *fasthttp.ResponseHeader) {
	t.Helper()
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://storefront.test" + path)
	if sid != "" {
		req.Header.SetCookie("sid", sid)
	}
	require.NoError(t, client.DoTimeout(req, resp, 2*time.Second))

	var header fasthttp.ResponseHeader
	resp.Header.CopyTo(&header)
	return resp.StatusCode(), string(resp.Body()), &header
}

func TestRoutes(t *testing.T) {
	client, _ := startRouter(t)

	status, body, _ := get(t, client, "/health")
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.Equal(t, "OK", body)

	status, body, _ = get(t, client, "/api/chains")
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.Contains(t, body, `"routePrefix":"pulsechain"`)

	status, _, _ = get(t, client, "/api/nowhere/collections")
	assert.Equal(t, fasthttp.StatusNotFound, status)

	status, body, header := get(t, client, "/polygon")
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.Contains(t, body, `data-chain="polygon"`)
	assert.NotEmpty(t, header.PeekCookie("sid"), "pages issue a session cookie")

	status, body, _ = get(t, client, "/mints/trending")
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.Contains(t, body, "Trending Mints")

	status, body, _ = get(t, client, "/metrics")
	assert.Equal(t, fasthttp.StatusOK, status)
	assert.Contains(t, body, "storefront_page_renders_total")
}

func TestPagesAreCacheSafe(t *testing.T) {
	client, _ := startRouter(t)

	status, _, header := get(t, client, "/")
	require.Equal(t, fasthttp.StatusOK, status)
	sid := string(header.PeekCookie("sid"))
	require.NotEmpty(t, sid)
	assert.Equal(t, "private, no-store", string(header.Peek(fasthttp.HeaderCacheControl)))

	var cookie fasthttp.Cookie
	require.NoError(t, cookie.Parse(sid))
	session := string(cookie.Value())

	status, body, header := getWithSession(t, client, "/polygon", session)
	require.Equal(t, fasthttp.StatusOK, status)
	assert.Contains(t, body, `data-chain="polygon"`)
	assert.Empty(t, header.PeekCookie("sid"))

	status, body, header = getWithSession(t, client, "/", session)
	require.Equal(t, fasthttp.StatusOK, status)
	assert.Contains(t, body, `data-chain="pulsechain"`, "unprefixed pages ignore the session chain")
	assert.Equal(t, "public, s-maxage=10", string(header.Peek(fasthttp.HeaderCacheControl)))
	assert.Empty(t, header.PeekCookie("sid"))
}

func TestFeedUpgradesThroughRouter(t *testing.T) {
	_, ln := startRouter(t)

	dialer := websocket.Dialer{
		NetDial:          func(string, string) (net.Conn, error) { return ln.Dial() },
		HandshakeTimeout: 2 * time.Second,
	}
	conn, resp, err := dialer.Dial("ws://storefront.test/ws/polygon/rankings?kind=collections&sortBy=7DayVolume", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg livefeed.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, entity.RankingCollections, msg.Kind)
	assert.Equal(t, int64(137), msg.ChainID)
	assert.Equal(t, entity.SortBy7DayVolume, msg.SortBy)

	_, resp, err = dialer.Dial("ws://storefront.test/ws/nowhere/rankings", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
