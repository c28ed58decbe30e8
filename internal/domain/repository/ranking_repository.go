package repository

import (
	"context"

	"nft-storefront/internal/domain/entity"
)

// RankingRepository defines access to the remote NFT market data API of a chain.
type RankingRepository interface {
	// GetCollections runs a collections ranking query against the chain's data API.
	GetCollections(ctx context.Context, chain entity.NetworkDescriptor, q entity.RankingQuery) (entity.CollectionsPayload, error)

	// GetTrendingMints runs a trending mints query against the chain's data API.
	GetTrendingMints(ctx context.Context, chain entity.NetworkDescriptor, q entity.RankingQuery) (entity.MintsPayload, error)
}
