package http

import (
	"fmt"
	"testing"

	"nft-storefront/internal/domain/entity"
	"nft-storefront/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func decode(t *testing.T, ctx *fasthttp.RequestCtx, v any) {
	t.Helper()
	require.Equal(t, "application/json", string(ctx.Response.Header.ContentType()))
	require.NoError(t, json.Unmarshal(ctx.Response.Body(), v))
}

func TestListChains(t *testing.T) {
	f := newFixture(t, entity.DeploymentMainnet)
	ctx := newRequestCtx(fasthttp.MethodGet, "/api/chains", "", "s1")

	f.api.ListChains(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var resp chainsResponse
	decode(t, ctx, &resp)
	assert.Len(t, resp.Chains, 13)
	assert.Equal(t, int64(369), resp.DefaultChainID)
	assert.False(t, resp.IsTestnetDeployment)
}

func TestUnsupportedChain(t *testing.T) {
	tests := []struct {
		name        string
		mode        entity.DeploymentMode
		uri         string
		header      string
		unsupported bool
		chainID     int64
	}{
		{name: "testnet wallet on mainnet", mode: entity.DeploymentMainnet, uri: "/api/chains/unsupported?chainId=5", unsupported: true, chainID: 5},
		{name: "supported chain", mode: entity.DeploymentMainnet, uri: "/api/chains/unsupported?chainId=137"},
		{name: "unknown chain", mode: entity.DeploymentMainnet, uri: "/api/chains/unsupported?chainId=999999"},
		{name: "hex header", mode: entity.DeploymentMainnet, uri: "/api/chains/unsupported", header: "0xaa36a7", unsupported: true, chainID: 11155111},
		{name: "mainnet wallet on testnet", mode: entity.DeploymentTestnet, uri: "/api/chains/unsupported?chainId=1", unsupported: true, chainID: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.mode)
			ctx := newRequestCtx(fasthttp.MethodGet, tt.uri, "", "s1")
			if tt.header != "" {
				ctx.Request.Header.Set(walletChainHeader, tt.header)
			}

			f.api.UnsupportedChain(ctx)

			require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
			var resp unsupportedResponse
			decode(t, ctx, &resp)
			assert.Equal(t, tt.unsupported, resp.Unsupported)
			assert.Equal(t, tt.mode.IsTestnet(), resp.IsTestnetDeployment)
			if tt.unsupported {
				require.NotNil(t, resp.Chain)
				assert.Equal(t, tt.chainID, resp.Chain.ID)
			} else {
				assert.Nil(t, resp.Chain)
			}
		})
	}
}

func TestUnsupportedChainRejectsBadID(t *testing.T) {
	f := newFixture(t, entity.DeploymentMainnet)
	for _, uri := range []string{"/api/chains/unsupported", "/api/chains/unsupported?chainId=abc", "/api/chains/unsupported?chainId=-1"} {
		ctx := newRequestCtx(fasthttp.MethodGet, uri, "", "s1")
		f.api.UnsupportedChain(ctx)
		assert.Equal(t, fasthttp.StatusBadRequest, ctx.Response.StatusCode(), uri)
	}
}

func TestSwitchChain(t *testing.T) {
	f := newFixture(t, entity.DeploymentMainnet)

	post := func(body string) *fasthttp.RequestCtx {
		ctx := newRequestCtx(fasthttp.MethodPost, "/api/session/chain", "", "s1")
		ctx.Request.SetBodyString(body)
		f.api.SwitchChain(ctx)
		return ctx
	}

	ctx := post(`{"chainId":137}`)
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var resp currentChainResponse
	decode(t, ctx, &resp)
	assert.True(t, resp.Changed)
	assert.Equal(t, int64(137), resp.Chain.ID)

	ctx = post(`{"chainId":137}`)
	decode(t, ctx, &resp)
	assert.False(t, resp.Changed)

	assert.Equal(t, fasthttp.StatusNotFound, post(`{"chainId":5}`).Response.StatusCode())
	assert.Equal(t, fasthttp.StatusBadRequest, post(`{}`).Response.StatusCode())
	assert.Equal(t, fasthttp.StatusBadRequest, post(`not json`).Response.StatusCode())

	current := newRequestCtx(fasthttp.MethodGet, "/api/session/chain", "", "s1")
	f.api.CurrentChain(current)
	decode(t, current, &resp)
	assert.Equal(t, int64(137), resp.Chain.ID)
}

func TestCollectionsAPI(t *testing.T) {
	f := newFixture(t, entity.DeploymentMainnet)
	ctx := newRequestCtx(fasthttp.MethodGet, "/api/pulsechain/collections?set=featured&sortBy=30DayVolume&limit=5", "pulsechain", "s1")

	f.api.Collections(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var payload entity.CollectionsPayload
	decode(t, ctx, &payload)
	require.Len(t, payload.Collections, 1)
	assert.Equal(t, "Pulse Punks", payload.Collections[0].Name)

	q := f.rankings.lastQuery(entity.RankingCollections)
	assert.Equal(t, "featured-set", q.CollectionsSetID)
	assert.Equal(t, entity.SortBy30DayVolume, q.SortBy)
	assert.Equal(t, 5, q.Limit)
}

func TestCollectionsAPIErrors(t *testing.T) {
	tests := []struct {
		name     string
		chain    string
		uri      string
		upstream error
		status   int
	}{
		{name: "unknown chain", chain: "nowhere", uri: "/api/nowhere/collections", status: fasthttp.StatusNotFound},
		{name: "bad sort", chain: "polygon", uri: "/api/polygon/collections?sortBy=price", status: fasthttp.StatusBadRequest},
		{name: "bad set", chain: "polygon", uri: "/api/polygon/collections?set=hot", status: fasthttp.StatusBadRequest},
		{name: "bad limit", chain: "polygon", uri: "/api/polygon/collections?limit=1000", status: fasthttp.StatusBadRequest},
		{name: "upstream failure", chain: "polygon", uri: "/api/polygon/collections", upstream: apperrors.ErrExternalServiceFailure, status: fasthttp.StatusBadGateway},
		{name: "upstream timeout", chain: "polygon", uri: "/api/polygon/collections", upstream: fmt.Errorf("%w: slow", apperrors.ErrTimeout), status: fasthttp.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, entity.DeploymentMainnet)
			f.rankings.err = tt.upstream
			ctx := newRequestCtx(fasthttp.MethodGet, tt.uri, tt.chain, "s1")

			f.api.Collections(ctx)

			assert.Equal(t, tt.status, ctx.Response.StatusCode())
			var body errorBody
			decode(t, ctx, &body)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestMintsAPI(t *testing.T) {
	f := newFixture(t, entity.DeploymentMainnet)
	ctx := newRequestCtx(fasthttp.MethodGet, "/api/base/mints?period=1h&type=paid", "base", "s1")

	f.api.Mints(ctx)

	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	var payload entity.MintsPayload
	decode(t, ctx, &payload)
	require.Len(t, payload.Mints, 1)

	q := f.rankings.lastQuery(entity.RankingMints)
	assert.Equal(t, entity.MintPeriod1h, q.Period)
	assert.Equal(t, entity.MintTypePaid, q.MintType)
	assert.Equal(t, 20, q.Limit)

	bad := newRequestCtx(fasthttp.MethodGet, "/api/base/mints?period=7d", "base", "s1")
	f.api.Mints(bad)
	assert.Equal(t, fasthttp.StatusBadRequest, bad.Response.StatusCode())
}

func TestParseChainID(t *testing.T) {
	id, err := parseChainID("0x171")
	require.NoError(t, err)
	assert.Equal(t, int64(369), id)

	id, err = parseChainID(" 8453 ")
	require.NoError(t, err)
	assert.Equal(t, int64(8453), id)

	_, err = parseChainID("0x")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
