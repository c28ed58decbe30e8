package port

import "nft-storefront/internal/domain/entity"

// ChainRegistry exposes the networks this deployment serves.
type ChainRegistry interface {
	// Mode returns the deployment mode the registry was built for.
	Mode() entity.DeploymentMode

	// ListSupportedChains returns the active network set in display order.
	ListSupportedChains() []entity.NetworkDescriptor

	// DefaultChain returns the chain used when a route names none.
	DefaultChain() entity.NetworkDescriptor

	// ResolveChain returns the chain whose route prefix matches, or the default chain.
	ResolveChain(routePrefix string) entity.NetworkDescriptor

	// Lookup returns the chain whose route prefix matches, without falling back.
	Lookup(routePrefix string) (entity.NetworkDescriptor, bool)

	// ChainByID returns the active chain with the given id.
	ChainByID(chainID int64) (entity.NetworkDescriptor, bool)

	// ClassifyUnsupported returns the chain from the inactive set with the given id.
	// A false result means the id is supported or unknown.
	ClassifyUnsupported(chainID int64) (entity.NetworkDescriptor, bool)
}
