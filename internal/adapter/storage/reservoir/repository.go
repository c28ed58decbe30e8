package reservoir

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"nft-storefront/internal/adapter/metrics"
	"nft-storefront/internal/config"
	"nft-storefront/internal/domain"
	"nft-storefront/internal/domain/entity"
	domainRepo "nft-storefront/internal/domain/repository"
	"nft-storefront/internal/pkg/apperrors"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Compile-time check
var _ domainRepo.RankingRepository = (*Repository)(nil)

const apiKeyHeader = "x-api-key"

// Repository implements RankingRepository against the hosted NFT market data API.
type Repository struct {
	client   *fasthttp.Client
	apiKey   string
	timeout  time.Duration
	limit    rate.Limit
	burst    int
	limiters map[int64]*rate.Limiter
	mu       sync.Mutex
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// Option customizes a Repository.
type Option func(*Repository)

// WithHTTPClient replaces the default fasthttp client.
func WithHTTPClient(c *fasthttp.Client) Option {
	return func(r *Repository) {
		r.client = c
	}
}

// WithMetrics records upstream request counts and latencies.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Repository) {
		r.metrics = m
	}
}

// NewRepository creates a data API repository. Each chain gets its own rate limiter.
func NewRepository(cfg config.APIConfig, logger *zap.Logger, opts ...Option) domainRepo.RankingRepository {
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	r := &Repository{
		client: &fasthttp.Client{
			Name:                "nft-storefront",
			MaxIdleConnDuration: 90 * time.Second,
		},
		apiKey:   cfg.Key,
		timeout:  cfg.GetTimeout(),
		limit:    limit,
		burst:    burst,
		limiters: make(map[int64]*rate.Limiter),
		logger:   logger.Named("ReservoirStorage"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GetCollections runs a collections ranking query.
func (r *Repository) GetCollections(
	ctx context.Context,
	chain entity.NetworkDescriptor,
	q entity.RankingQuery,
) (entity.CollectionsPayload, error) {
	var payload entity.CollectionsPayload
	if q.Kind != entity.RankingCollections {
		return payload, fmt.Errorf("%w: expected collections query, got %q", domain.ErrInvalidQuery, q.Kind)
	}
	if err := r.get(ctx, chain, q, &payload); err != nil {
		return entity.CollectionsPayload{}, err
	}
	return payload, nil
}

// GetTrendingMints runs a trending mints query.
func (r *Repository) GetTrendingMints(
	ctx context.Context,
	chain entity.NetworkDescriptor,
	q entity.RankingQuery,
) (entity.MintsPayload, error) {
	var payload entity.MintsPayload
	if q.Kind != entity.RankingMints {
		return payload, fmt.Errorf("%w: expected mints query, got %q", domain.ErrInvalidQuery, q.Kind)
	}
	if err := r.get(ctx, chain, q, &payload); err != nil {
		return entity.MintsPayload{}, err
	}
	return payload, nil
}

// get issues one GET for q and decodes the body into out.
func (r *Repository) get(ctx context.Context, chain entity.NetworkDescriptor, q entity.RankingQuery, out any) error {
	if err := q.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidQuery, err)
	}

	endpoint := q.Endpoint()
	chainLabel := metrics.ChainLabel(chain.ID)

	if err := r.limiter(chain.ID).Wait(ctx); err != nil {
		r.observe(chainLabel, endpoint, metrics.OutcomeLimited, 0)
		return fmt.Errorf("%w: waiting for %s on chain %d: %v", apperrors.ErrRateLimited, endpoint, chain.ID, err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(strings.TrimRight(chain.BaseAPIURL, "/") + endpoint)
	args := req.URI().QueryArgs()
	for _, p := range q.Params() {
		args.Add(p.Key, p.Value)
	}
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	req.Header.Set(fasthttp.HeaderAcceptEncoding, "gzip")
	if r.apiKey != "" {
		req.Header.Set(apiKeyHeader, r.apiKey)
	}

	timeout := r.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
			timeout = remaining
		}
	}

	r.logger.Debug("Fetching ranking from data API",
		zap.Int64("chainId", chain.ID),
		zap.String("uri", req.URI().String()),
		zap.Duration("timeout", timeout),
	)

	start := time.Now()
	err := r.client.DoTimeout(req, resp, timeout)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			r.observe(chainLabel, endpoint, metrics.OutcomeTimeout, elapsed)
			return fmt.Errorf("%w: %s on chain %d after %s", apperrors.ErrTimeout, endpoint, chain.ID, timeout)
		}
		r.observe(chainLabel, endpoint, metrics.OutcomeError, elapsed)
		r.logger.Error("Failed to execute request to data API",
			zap.Int64("chainId", chain.ID), zap.String("endpoint", endpoint), zap.Error(err),
		)
		return fmt.Errorf("%w: request to %s failed: %v", apperrors.ErrExternalServiceFailure, endpoint, err)
	}

	switch status := resp.StatusCode(); {
	case status == fasthttp.StatusNotFound:
		r.observe(chainLabel, endpoint, metrics.OutcomeNotFound, elapsed)
		return fmt.Errorf("%w: %s on chain %d", apperrors.ErrNotFound, endpoint, chain.ID)
	case status != fasthttp.StatusOK:
		r.observe(chainLabel, endpoint, metrics.OutcomeError, elapsed)
		r.logger.Warn("Data API returned non-OK status",
			zap.Int64("chainId", chain.ID),
			zap.String("endpoint", endpoint),
			zap.Int("statusCode", status),
			zap.ByteString("body", sample(resp.Body())),
		)
		return fmt.Errorf("%w: %s returned status %d", apperrors.ErrExternalServiceFailure, endpoint, status)
	}

	body := resp.Body()
	if bytes.EqualFold(resp.Header.Peek(fasthttp.HeaderContentEncoding), []byte("gzip")) {
		body, err = resp.BodyGunzip()
		if err != nil {
			r.observe(chainLabel, endpoint, metrics.OutcomeDecode, elapsed)
			return fmt.Errorf("%w: failed to decompress %s response: %v", apperrors.ErrExternalServiceFailure, endpoint, err)
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		r.observe(chainLabel, endpoint, metrics.OutcomeDecode, elapsed)
		r.logger.Error("Failed to decode data API response",
			zap.Int64("chainId", chain.ID),
			zap.String("endpoint", endpoint),
			zap.ByteString("bodySample", sample(body)),
			zap.Error(err),
		)
		return fmt.Errorf("%w: failed to parse %s response: %v", apperrors.ErrExternalServiceFailure, endpoint, err)
	}

	r.observe(chainLabel, endpoint, metrics.OutcomeOK, elapsed)
	return nil
}

// limiter returns the chain's limiter, creating it on first use.
func (r *Repository) limiter(chainID int64) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.limiters[chainID]
	if !ok {
		l = rate.NewLimiter(r.limit, r.burst)
		r.limiters[chainID] = l
	}
	return l
}

func (r *Repository) observe(chain, endpoint, outcome string, elapsed time.Duration) {
	if r.metrics == nil {
		return
	}
	r.metrics.UpstreamRequests.WithLabelValues(chain, endpoint, outcome).Inc()
	if elapsed > 0 {
		r.metrics.UpstreamDuration.WithLabelValues(chain, endpoint).Observe(elapsed.Seconds())
	}
}

func sample(body []byte) []byte {
	return body[:min(1024, len(body))]
}
