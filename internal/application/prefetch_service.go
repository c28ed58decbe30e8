package application

import (
	"context"
	"fmt"
	"slices"

	"nft-storefront/internal/application/port"
	"nft-storefront/internal/config"
	"nft-storefront/internal/domain/entity"
	domainRepo "nft-storefront/internal/domain/repository"
	"nft-storefront/internal/pkg/batch"

	"go.uber.org/zap"
)

// Compile-time check
var _ port.PrefetchService = (*prefetchService)(nil)

// prefetchService loads the ranking datasets of each page with the best-effort batch policy.
type prefetchService struct {
	rankings domainRepo.RankingRepository
	cfg      config.RankingsConfig
	api      config.APIConfig
	logger   *zap.Logger
}

// NewPrefetchService creates a new instance of the prefetch service.
func NewPrefetchService(
	rankings domainRepo.RankingRepository,
	cfg config.Config,
	logger *zap.Logger,
) port.PrefetchService {
	return &prefetchService{
		rankings: rankings,
		cfg:      cfg.Rankings,
		api:      cfg.API,
		logger:   logger.Named("PrefetchService"),
	}
}

// dataset is one tagged member of the landing page batch. Exactly one of the payloads is set.
type dataset struct {
	collections entity.CollectionsPayload
	mints       entity.MintsPayload
}

// PrefetchHome loads the three landing page datasets concurrently.
// A failed dataset renders as an empty table; the page itself never fails.
func (s *prefetchService) PrefetchHome(
	ctx context.Context,
	chain entity.NetworkDescriptor,
	opts port.HomeOptions,
) entity.HomeRankings {
	if opts.SortBy == "" {
		opts.SortBy = entity.DefaultSortBy
	}
	if opts.Period == "" {
		opts.Period = entity.DefaultMintPeriod
	}

	trendingQ := s.CollectionsQuery(port.CollectionSetTrending, opts.SortBy, s.cfg.Limit, "")
	featuredQ := s.CollectionsQuery(port.CollectionSetFeatured, "", s.cfg.FeaturedLimit, "")
	mintsQ := s.MintsQuery(opts.Period, entity.MintTypeAny, s.cfg.MintsLimit)

	tasks := map[entity.DatasetTag]batch.Task[dataset]{
		entity.DatasetTrendingCollections: func(ctx context.Context) (dataset, error) {
			p, err := s.rankings.GetCollections(ctx, chain, trendingQ)
			return dataset{collections: p}, err
		},
		entity.DatasetFeaturedCollections: func(ctx context.Context) (dataset, error) {
			p, err := s.rankings.GetCollections(ctx, chain, featuredQ)
			return dataset{collections: p}, err
		},
		entity.DatasetTrendingMints: func(ctx context.Context) (dataset, error) {
			p, err := s.rankings.GetTrendingMints(ctx, chain, mintsQ)
			return dataset{mints: p}, err
		},
	}

	results := batch.BestEffort(ctx, tasks, 0)
	logRejected(s.logger, chain, results)

	failed := results.Rejected()
	slices.Sort(failed)

	return entity.HomeRankings{
		TrendingCollections: results.Value(entity.DatasetTrendingCollections).collections,
		FeaturedCollections: results.Value(entity.DatasetFeaturedCollections).collections,
		TrendingMints:       results.Value(entity.DatasetTrendingMints).mints,
		SortBy:              opts.SortBy,
		Period:              opts.Period,
		Failed:              failed,
	}
}

// PrefetchTrendingCollections loads one page of the trending collections ranking.
func (s *prefetchService) PrefetchTrendingCollections(
	ctx context.Context,
	chain entity.NetworkDescriptor,
	sortBy entity.SortBy,
	continuation string,
) entity.CollectionsPayload {
	q := s.CollectionsQuery(port.CollectionSetTrending, sortBy, s.cfg.Limit, continuation)
	results := batch.BestEffort(ctx, map[entity.DatasetTag]batch.Task[entity.CollectionsPayload]{
		entity.DatasetTrendingCollections: func(ctx context.Context) (entity.CollectionsPayload, error) {
			return s.rankings.GetCollections(ctx, chain, q)
		},
	}, 0)
	logRejected(s.logger, chain, results)
	return results.Value(entity.DatasetTrendingCollections)
}

// PrefetchTrendingMints loads the trending mints ranking.
func (s *prefetchService) PrefetchTrendingMints(
	ctx context.Context,
	chain entity.NetworkDescriptor,
	period entity.MintPeriod,
	mintType entity.MintType,
) entity.MintsPayload {
	q := s.MintsQuery(period, mintType, s.cfg.MintsLimit)
	results := batch.BestEffort(ctx, map[entity.DatasetTag]batch.Task[entity.MintsPayload]{
		entity.DatasetTrendingMints: func(ctx context.Context) (entity.MintsPayload, error) {
			return s.rankings.GetTrendingMints(ctx, chain, q)
		},
	}, 0)
	logRejected(s.logger, chain, results)
	return results.Value(entity.DatasetTrendingMints)
}

// Collections runs q and reports failures to the caller.
func (s *prefetchService) Collections(
	ctx context.Context,
	chain entity.NetworkDescriptor,
	q entity.RankingQuery,
) (entity.CollectionsPayload, error) {
	payload, err := s.rankings.GetCollections(ctx, chain, q)
	if err != nil {
		return entity.CollectionsPayload{}, fmt.Errorf("collections for chain %d: %w", chain.ID, err)
	}
	return payload, nil
}

// Mints runs q and reports failures to the caller.
func (s *prefetchService) Mints(
	ctx context.Context,
	chain entity.NetworkDescriptor,
	q entity.RankingQuery,
) (entity.MintsPayload, error) {
	payload, err := s.rankings.GetTrendingMints(ctx, chain, q)
	if err != nil {
		return entity.MintsPayload{}, fmt.Errorf("trending mints for chain %d: %w", chain.ID, err)
	}
	return payload, nil
}

// CollectionsQuery builds a collections query limited to the configured curated set.
func (s *prefetchService) CollectionsQuery(
	set port.CollectionSet,
	sortBy entity.SortBy,
	limit int,
	continuation string,
) entity.RankingQuery {
	if limit <= 0 {
		limit = s.cfg.Limit
	}
	q := entity.RankingQuery{
		Kind:               entity.RankingCollections,
		Limit:              limit,
		SortBy:             sortBy,
		NormalizeRoyalties: s.api.NormalizeRoyalties,
		Continuation:       continuation,
	}
	switch set {
	case port.CollectionSetTrending:
		q.CollectionsSetID = s.cfg.TrendingSetID
	case port.CollectionSetFeatured:
		q.CollectionsSetID = s.cfg.FeaturedSetID
	case port.CollectionSetNone:
	}
	return q
}

// MintsQuery builds a trending mints query.
func (s *prefetchService) MintsQuery(period entity.MintPeriod, mintType entity.MintType, limit int) entity.RankingQuery {
	if limit <= 0 {
		limit = s.cfg.MintsLimit
	}
	if mintType == "" {
		mintType = entity.MintTypeAny
	}
	return entity.RankingQuery{
		Kind:     entity.RankingMints,
		Limit:    limit,
		Period:   period,
		MintType: mintType,
	}
}

// logRejected records each dataset that fell back to its empty value.
func logRejected[T any](logger *zap.Logger, chain entity.NetworkDescriptor, results batch.Results[entity.DatasetTag, T]) {
	for tag, outcome := range results {
		if outcome.Fulfilled() {
			continue
		}
		logger.Warn("Ranking dataset unavailable, rendering empty",
			zap.Int64("chainId", chain.ID),
			zap.String("dataset", string(tag)),
			zap.Error(outcome.Err),
		)
	}
}
