package port

import (
	"context"

	"nft-storefront/internal/domain/entity"
)

// HomeOptions carries the user-selected ranking windows of the landing page.
type HomeOptions struct {
	SortBy entity.SortBy
	Period entity.MintPeriod
}

// PrefetchService loads ranking data for server-rendered pages and for client refreshes.
type PrefetchService interface {
	// PrefetchHome loads trending collections, featured collections and trending mints as one best-effort batch.
	PrefetchHome(ctx context.Context, chain entity.NetworkDescriptor, opts HomeOptions) entity.HomeRankings

	// PrefetchTrendingCollections loads one page of trending collections. Failures yield an empty payload.
	PrefetchTrendingCollections(ctx context.Context, chain entity.NetworkDescriptor, sortBy entity.SortBy, continuation string) entity.CollectionsPayload

	// PrefetchTrendingMints loads trending mints. Failures yield an empty payload.
	PrefetchTrendingMints(ctx context.Context, chain entity.NetworkDescriptor, period entity.MintPeriod, mintType entity.MintType) entity.MintsPayload

	// Collections runs an arbitrary collections query and reports failures.
	Collections(ctx context.Context, chain entity.NetworkDescriptor, q entity.RankingQuery) (entity.CollectionsPayload, error)

	// Mints runs an arbitrary trending mints query and reports failures.
	Mints(ctx context.Context, chain entity.NetworkDescriptor, q entity.RankingQuery) (entity.MintsPayload, error)

	// CollectionsQuery builds the query used for trending or featured collection rankings.
	CollectionsQuery(set CollectionSet, sortBy entity.SortBy, limit int, continuation string) entity.RankingQuery

	// MintsQuery builds the query used for trending mints.
	MintsQuery(period entity.MintPeriod, mintType entity.MintType, limit int) entity.RankingQuery
}

// CollectionSet picks the curated collection group a ranking is limited to.
type CollectionSet string

const (
	CollectionSetTrending CollectionSet = "trending"
	CollectionSetFeatured CollectionSet = "featured"
	CollectionSetNone     CollectionSet = "none"
)

// ParseCollectionSet returns the set named by s. Empty means trending.
func ParseCollectionSet(s string) (CollectionSet, bool) {
	switch CollectionSet(s) {
	case "", CollectionSetTrending:
		return CollectionSetTrending, true
	case CollectionSetFeatured, CollectionSetNone:
		return CollectionSet(s), true
	default:
		return "", false
	}
}
