package http

import (
	"bytes"
	"html/template"

	"nft-storefront/internal/adapter/metrics"
	"nft-storefront/internal/application/chaincontext"
	"nft-storefront/internal/application/port"
	"nft-storefront/internal/domain/entity"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	tabCollections = "collections"
	tabMints       = "mints"

	collectionsSuffix = "/collections/trending"
	mintsSuffix       = "/mints/trending"

	// privateCacheControl keeps per-visitor responses out of shared caches.
	privateCacheControl = "private, no-store"
)

// VisitorObserver records which sessions looked at which chain.
type VisitorObserver interface {
	Observe(chainID int64, sessionID string)
}

// PageHandler serves the server-rendered storefront pages.
type PageHandler struct {
	registry     port.ChainRegistry
	prefetch     port.PrefetchService
	contexts     *chaincontext.Manager
	visitors     VisitorObserver
	metrics      *metrics.Metrics
	cacheControl string
	pages        map[string]*template.Template
	logger       *zap.Logger
}

// NewPageHandler parses the page templates and creates the handler. visitors and m may be nil.
func NewPageHandler(
	registry port.ChainRegistry,
	prefetch port.PrefetchService,
	contexts *chaincontext.Manager,
	visitors VisitorObserver,
	m *metrics.Metrics,
	cacheControl string,
	logger *zap.Logger,
) (*PageHandler, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	return &PageHandler{
		registry:     registry,
		prefetch:     prefetch,
		contexts:     contexts,
		visitors:     visitors,
		metrics:      m,
		cacheControl: cacheControl,
		pages:        pages,
		logger:       logger.Named("PageHandler"),
	}, nil
}

// Home renders the landing page: featured collections plus the trending tab.
func (h *PageHandler) Home(ctx *fasthttp.RequestCtx) {
	chain, ok := h.syncChain(ctx, "")
	if !ok {
		return
	}

	sortBy := querySortBy(ctx)
	period := queryPeriod(ctx)
	tab := tabCollections
	if string(ctx.QueryArgs().Peek("tab")) == tabMints {
		tab = tabMints
	}

	home := h.prefetch.PrefetchHome(ctx, chain, port.HomeOptions{SortBy: sortBy, Period: period})

	base := chainPath(chain, "")
	view := homeView{
		Page:               h.pageView("Home", chain, "", feedURL(chain, tab, sortBy, period)),
		SSR:                home,
		Home:               home,
		Tab:                tab,
		CollectionsTabHref: href(base, "sortBy", string(sortBy), "period", string(period)),
		MintsTabHref:       href(base, "tab", tabMints, "sortBy", string(sortBy), "period", string(period)),
		SortOptions:        sortOptions(base, sortBy, "period", string(period)),
		PeriodOptions:      periodOptions(base, period, "tab", tabMints, "sortBy", string(sortBy)),
		CollectionsTable: collectionsTable{
			Rows:      home.TrendingCollections.Collections,
			VolumeKey: sortBy.VolumeKey(),
		},
		SeeMoreHref: href(chainPath(chain, collectionsSuffix), "sortBy", string(sortBy)),
	}
	if tab == tabMints {
		view.SeeMoreHref = href(chainPath(chain, mintsSuffix), "period", string(period))
	}

	h.render(ctx, pageHome, chain, view)
}

// TrendingCollections renders one page of the trending collections ranking.
func (h *PageHandler) TrendingCollections(ctx *fasthttp.RequestCtx) {
	chain, ok := h.syncChain(ctx, collectionsSuffix)
	if !ok {
		return
	}

	sortBy := querySortBy(ctx)
	continuation := string(ctx.QueryArgs().Peek("continuation"))
	payload := h.prefetch.PrefetchTrendingCollections(ctx, chain, sortBy, continuation)

	path := chainPath(chain, collectionsSuffix)
	view := collectionsView{
		Page:        h.pageView("Trending Collections", chain, collectionsSuffix, feedURL(chain, tabCollections, sortBy, entity.DefaultMintPeriod)),
		SSR:         payload,
		SortOptions: sortOptions(path, sortBy),
		CollectionsTable: collectionsTable{
			Rows:      payload.Collections,
			VolumeKey: sortBy.VolumeKey(),
		},
	}
	if next, ok := payload.NextPage(); ok {
		view.NextHref = href(path, "sortBy", string(sortBy), "continuation", next)
	}

	h.render(ctx, pageCollections, chain, view)
}

// TrendingMints renders the trending mints ranking.
func (h *PageHandler) TrendingMints(ctx *fasthttp.RequestCtx) {
	chain, ok := h.syncChain(ctx, mintsSuffix)
	if !ok {
		return
	}

	period := queryPeriod(ctx)
	payload := h.prefetch.PrefetchTrendingMints(ctx, chain, period, entity.MintTypeAny)

	view := mintsView{
		Page:          h.pageView("Trending Mints", chain, mintsSuffix, feedURL(chain, tabMints, entity.DefaultSortBy, period)),
		SSR:           payload,
		Payload:       payload,
		PeriodOptions: periodOptions(chainPath(chain, mintsSuffix), period),
	}

	h.render(ctx, pageMints, chain, view)
}

// syncChain aligns the session with the route's chain. It returns false when a redirect was written.
func (h *PageHandler) syncChain(ctx *fasthttp.RequestCtx, suffix string) (entity.NetworkDescriptor, bool) {
	prefix := routePrefix(ctx)
	canonical := ""
	if prefix != "" {
		canonical = "/" + prefix + suffix
	}

	res := h.contexts.SyncRoute(ctx, sessionID(ctx), prefix, canonical, string(ctx.Path()))
	if res.RedirectTo == "" {
		return res.Chain, true
	}

	target := res.RedirectTo
	if qs := ctx.QueryArgs().QueryString(); len(qs) > 0 {
		target += "?" + string(qs)
	}
	ctx.Response.Header.Set(fasthttp.HeaderCacheControl, privateCacheControl)
	ctx.Redirect(target, fasthttp.StatusFound)
	return res.Chain, false
}

func (h *PageHandler) pageView(title string, chain entity.NetworkDescriptor, suffix, feed string) pageView {
	supported := h.registry.ListSupportedChains()
	links := make([]chainLink, 0, len(supported))
	for _, c := range supported {
		links = append(links, chainLink{
			Name:   c.Name,
			Href:   chainPath(c, suffix),
			Active: c.ID == chain.ID,
		})
	}
	return pageView{
		Title:               title,
		Chain:               chain,
		Chains:              links,
		IsTestnetDeployment: h.registry.Mode().IsTestnet(),
		FeedURL:             feed,
	}
}

func (h *PageHandler) render(ctx *fasthttp.RequestCtx, page string, chain entity.NetworkDescriptor, view any) {
	var buf bytes.Buffer
	if err := h.pages[page].ExecuteTemplate(&buf, "layout", view); err != nil {
		h.logger.Error("Failed to render page",
			zap.String("page", page),
			zap.Int64("chainId", chain.ID),
			zap.Error(err),
		)
		ctx.Error("Internal Server Error", fasthttp.StatusInternalServerError)
		return
	}

	if h.visitors != nil {
		h.visitors.Observe(chain.ID, sessionID(ctx))
	}
	if h.metrics != nil {
		h.metrics.PageRenders.WithLabelValues(page, metrics.ChainLabel(chain.ID)).Inc()
	}

	ctx.SetContentType("text/html; charset=utf-8")
	switch {
	case sessionIssued(ctx):
		// A Set-Cookie must never be replayed to other visitors.
		ctx.Response.Header.Set(fasthttp.HeaderCacheControl, privateCacheControl)
	case h.cacheControl != "":
		ctx.Response.Header.Set(fasthttp.HeaderCacheControl, h.cacheControl)
	}
	ctx.SetBody(buf.Bytes())
}

// feedURL points the live feed at the same ranking window the page was rendered with.
func feedURL(chain entity.NetworkDescriptor, kind string, sortBy entity.SortBy, period entity.MintPeriod) string {
	return href("/ws/"+chain.RoutePrefix+"/rankings", "kind", kind, "sortBy", string(sortBy), "period", string(period))
}

// querySortBy reads sortBy, falling back to the default on a missing or unknown value.
func querySortBy(ctx *fasthttp.RequestCtx) entity.SortBy {
	s, err := entity.ParseSortBy(string(ctx.QueryArgs().Peek("sortBy")))
	if err != nil {
		return entity.DefaultSortBy
	}
	return s
}

// queryPeriod reads period, falling back to the default on a missing or unknown value.
func queryPeriod(ctx *fasthttp.RequestCtx) entity.MintPeriod {
	p, err := entity.ParseMintPeriod(string(ctx.QueryArgs().Peek("period")))
	if err != nil {
		return entity.DefaultMintPeriod
	}
	return p
}
