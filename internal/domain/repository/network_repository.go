package repository

import (
	"context"

	"nft-storefront/internal/domain/entity"
)

// NetworkRepository supplies network descriptors declared outside the built-in tables.
type NetworkRepository interface {
	// LoadNetworks returns the extra mainnet and testnet descriptors.
	LoadNetworks(ctx context.Context) (mainnet, testnet []entity.NetworkDescriptor, err error)
}
