package http

import (
	"net/http"
	"time"

	handler "nft-storefront/internal/adapter/handler/http"

	"github.com/fasthttp/router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Pages    *handler.PageHandler
	API      *handler.APIHandler
	Feed     http.Handler
	Sessions *handler.SessionMiddleware
	Gatherer prometheus.Gatherer
}

// RegisterRoutes sets up the storefront pages, the JSON API, the live feed and the operational routes.
func RegisterRoutes(r *router.Router, h Handlers, logger *zap.Logger) {
	logger.Info("Setting up application-specific routes...")

	withSession := h.Sessions.Wrap

	api := r.Group("/api")
	api.GET("/chains", h.API.ListChains)
	api.GET("/chains/unsupported", h.API.UnsupportedChain)
	api.GET("/session/chain", withSession(h.API.CurrentChain))
	api.POST("/session/chain", withSession(h.API.SwitchChain))
	api.GET("/{chain}/collections", h.API.Collections)
	api.GET("/{chain}/mints", h.API.Mints)

	r.GET("/ws/{chain}/rankings", fasthttpadaptor.NewFastHTTPHandler(h.Feed))

	logger.Info("Setting up health check and metrics routes...")
	r.GET("/health", func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("OK")
	})
	r.GET("/metrics", fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{}),
	))

	r.GET("/", withSession(h.Pages.Home))
	r.GET("/collections/trending", withSession(h.Pages.TrendingCollections))
	r.GET("/mints/trending", withSession(h.Pages.TrendingMints))
	r.GET("/{chain}", withSession(h.Pages.Home))
	r.GET("/{chain}/collections/trending", withSession(h.Pages.TrendingCollections))
	r.GET("/{chain}/mints/trending", withSession(h.Pages.TrendingMints))

	logger.Info("All routes registered.")
}

// LoggingMiddleware logs every request with its status and latency.
func LoggingMiddleware(next fasthttp.RequestHandler, logger *zap.Logger) fasthttp.RequestHandler {
	logger = logger.Named("HTTP")
	return func(ctx *fasthttp.RequestCtx) {
		start := time.Now()
		next(ctx)
		logger.Info("Request handled",
			zap.ByteString("method", ctx.Method()),
			zap.ByteString("uri", ctx.RequestURI()),
			zap.Int("status", ctx.Response.StatusCode()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
