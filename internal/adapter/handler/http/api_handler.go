package http

import (
	"fmt"
	"strconv"
	"strings"

	"nft-storefront/internal/application/chaincontext"
	"nft-storefront/internal/application/port"
	"nft-storefront/internal/domain"
	"nft-storefront/internal/domain/entity"
	"nft-storefront/internal/pkg/apperrors"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const (
	walletChainHeader = "X-Wallet-Chain-Id"
	maxAPILimit       = 100
)

// APIHandler serves the JSON endpoints used by the browser for refreshes and chain selection.
type APIHandler struct {
	registry port.ChainRegistry
	prefetch port.PrefetchService
	contexts *chaincontext.Manager
	logger   *zap.Logger
}

// NewAPIHandler creates the JSON API handler.
func NewAPIHandler(
	registry port.ChainRegistry,
	prefetch port.PrefetchService,
	contexts *chaincontext.Manager,
	logger *zap.Logger,
) *APIHandler {
	return &APIHandler{
		registry: registry,
		prefetch: prefetch,
		contexts: contexts,
		logger:   logger.Named("APIHandler"),
	}
}

type chainsResponse struct {
	Chains              []entity.NetworkDescriptor `json:"chains"`
	DefaultChainID      int64                      `json:"defaultChainId"`
	IsTestnetDeployment bool                       `json:"isTestnetDeployment"`
}

type unsupportedResponse struct {
	Unsupported         bool                      `json:"unsupported"`
	Chain               *entity.NetworkDescriptor `json:"chain,omitempty"`
	IsTestnetDeployment bool                      `json:"isTestnetDeployment"`
}

type currentChainResponse struct {
	Chain   entity.NetworkDescriptor `json:"chain"`
	Changed bool                     `json:"changed"`
}

type switchChainRequest struct {
	ChainID *int64 `json:"chainId"`
}

// ListChains returns the networks this deployment serves.
func (h *APIHandler) ListChains(ctx *fasthttp.RequestCtx) {
	writeJSON(ctx, fasthttp.StatusOK, chainsResponse{
		Chains:              h.registry.ListSupportedChains(),
		DefaultChainID:      h.registry.DefaultChain().ID,
		IsTestnetDeployment: h.registry.Mode().IsTestnet(),
	}, h.logger)
}

// UnsupportedChain tells whether the wallet's chain belongs to the network set this
// deployment does not serve.
func (h *APIHandler) UnsupportedChain(ctx *fasthttp.RequestCtx) {
	raw := string(ctx.QueryArgs().Peek("chainId"))
	if raw == "" {
		raw = string(ctx.Request.Header.Peek(walletChainHeader))
	}
	chainID, err := parseChainID(raw)
	if err != nil {
		writeError(ctx, err, h.logger)
		return
	}

	resp := unsupportedResponse{IsTestnetDeployment: h.registry.Mode().IsTestnet()}
	if chain, ok := h.registry.ClassifyUnsupported(chainID); ok {
		resp.Unsupported = true
		resp.Chain = &chain
	}
	writeJSON(ctx, fasthttp.StatusOK, resp, h.logger)
}

// CurrentChain returns the chain selected by the caller's session.
func (h *APIHandler) CurrentChain(ctx *fasthttp.RequestCtx) {
	chain := h.contexts.ForSession(sessionID(ctx)).Current(ctx)
	writeJSON(ctx, fasthttp.StatusOK, currentChainResponse{Chain: chain}, h.logger)
}

// SwitchChain selects the chain named in the body for the caller's session.
func (h *APIHandler) SwitchChain(ctx *fasthttp.RequestCtx) {
	var req switchChainRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		writeError(ctx, fmt.Errorf("%w: malformed body: %v", apperrors.ErrInvalidInput, err), h.logger)
		return
	}
	if req.ChainID == nil {
		writeError(ctx, fmt.Errorf("%w: chainId is required", apperrors.ErrInvalidInput), h.logger)
		return
	}

	c := h.contexts.ForSession(sessionID(ctx))
	changed, err := c.SwitchCurrentChain(ctx, *req.ChainID)
	if err != nil {
		writeError(ctx, err, h.logger)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, currentChainResponse{Chain: c.Current(ctx), Changed: changed}, h.logger)
}

// Collections runs a collections ranking query for the chain in the path.
func (h *APIHandler) Collections(ctx *fasthttp.RequestCtx) {
	chain, err := h.lookupChain(ctx)
	if err != nil {
		writeError(ctx, err, h.logger)
		return
	}

	args := ctx.QueryArgs()
	var sortBy entity.SortBy
	if raw := string(args.Peek("sortBy")); raw != "" {
		if sortBy, err = entity.ParseSortBy(raw); err != nil {
			writeError(ctx, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err), h.logger)
			return
		}
	}
	set, ok := port.ParseCollectionSet(string(args.Peek("set")))
	if !ok {
		writeError(ctx, fmt.Errorf("%w: unknown set %q", apperrors.ErrInvalidInput, args.Peek("set")), h.logger)
		return
	}
	limit, err := parseLimit(args)
	if err != nil {
		writeError(ctx, err, h.logger)
		return
	}

	q := h.prefetch.CollectionsQuery(set, sortBy, limit, string(args.Peek("continuation")))
	payload, err := h.prefetch.Collections(ctx, chain, q)
	if err != nil {
		writeUpstreamError(ctx, err, h.logger)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, payload, h.logger)
}

// Mints runs a trending mints query for the chain in the path.
func (h *APIHandler) Mints(ctx *fasthttp.RequestCtx) {
	chain, err := h.lookupChain(ctx)
	if err != nil {
		writeError(ctx, err, h.logger)
		return
	}

	args := ctx.QueryArgs()
	period := entity.DefaultMintPeriod
	if raw := string(args.Peek("period")); raw != "" {
		if period, err = entity.ParseMintPeriod(raw); err != nil {
			writeError(ctx, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err), h.logger)
			return
		}
	}
	mintType := entity.MintTypeAny
	if raw := string(args.Peek("type")); raw != "" {
		if mintType, err = entity.ParseMintType(raw); err != nil {
			writeError(ctx, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err), h.logger)
			return
		}
	}
	limit, err := parseLimit(args)
	if err != nil {
		writeError(ctx, err, h.logger)
		return
	}

	payload, err := h.prefetch.Mints(ctx, chain, h.prefetch.MintsQuery(period, mintType, limit))
	if err != nil {
		writeUpstreamError(ctx, err, h.logger)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, payload, h.logger)
}

// lookupChain resolves the {chain} path segment without falling back to the default chain.
func (h *APIHandler) lookupChain(ctx *fasthttp.RequestCtx) (entity.NetworkDescriptor, error) {
	prefix := routePrefix(ctx)
	chain, ok := h.registry.Lookup(prefix)
	if !ok {
		return entity.NetworkDescriptor{}, fmt.Errorf("%w: route prefix %q", domain.ErrChainNotFound, prefix)
	}
	return chain, nil
}

// writeUpstreamError answers a failed data API call. Anything but a bad query is a bad gateway.
func writeUpstreamError(ctx *fasthttp.RequestCtx, err error, logger *zap.Logger) {
	if apperrors.StatusCode(err) == fasthttp.StatusBadRequest {
		writeError(ctx, err, logger)
		return
	}
	logger.Warn("Data API request failed", zap.ByteString("uri", ctx.RequestURI()), zap.Error(err))
	writeJSON(ctx, fasthttp.StatusBadGateway, errorBody{Error: err.Error()}, logger)
}

// parseChainID accepts decimal ids and the 0x-prefixed hex form wallets report.
func parseChainID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: chainId is required", apperrors.ErrInvalidInput)
	}

	var (
		id  int64
		err error
	)
	if hex, ok := strings.CutPrefix(strings.ToLower(raw), "0x"); ok {
		id, err = strconv.ParseInt(hex, 16, 64)
	} else {
		id, err = strconv.ParseInt(raw, 10, 64)
	}
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid chainId %q", apperrors.ErrInvalidInput, raw)
	}
	return id, nil
}

// parseLimit reads limit. Zero means the configured default.
func parseLimit(args *fasthttp.Args) (int, error) {
	raw := string(args.Peek("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > maxAPILimit {
		return 0, fmt.Errorf("%w: limit must be between 1 and %d", apperrors.ErrInvalidInput, maxAPILimit)
	}
	return limit, nil
}
