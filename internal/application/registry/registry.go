package registry

import (
	"fmt"

	"nft-storefront/internal/application/port"
	"nft-storefront/internal/domain"
	"nft-storefront/internal/domain/entity"

	"go.uber.org/zap"
)

// Compile-time check
var _ port.ChainRegistry = (*Registry)(nil)

// Registry is the process-wide, read-only table of networks.
// It is built once at startup and never mutated, so it is safe for concurrent use.
type Registry struct {
	mode         entity.DeploymentMode
	active       []entity.NetworkDescriptor
	inactive     []entity.NetworkDescriptor
	defaultChain entity.NetworkDescriptor
	logger       *zap.Logger
}

// NewRegistry validates both network tables and selects the active one for mode.
// The default chain is the active chain routed under defaultPrefix, or the first active chain.
func NewRegistry(
	mode entity.DeploymentMode,
	mainnet, testnet []entity.NetworkDescriptor,
	defaultPrefix string,
	logger *zap.Logger,
) (*Registry, error) {
	if err := validateTables(mainnet, testnet); err != nil {
		return nil, err
	}

	active, inactive := cloneAll(mainnet), cloneAll(testnet)
	if mode.IsTestnet() {
		active, inactive = inactive, active
	}
	if len(active) == 0 {
		return nil, fmt.Errorf("%w: no %s networks configured", domain.ErrChainNotFound, mode)
	}

	r := &Registry{
		mode:     mode,
		active:   active,
		inactive: inactive,
		logger:   logger.Named("ChainRegistry"),
	}

	def, ok := r.Lookup(defaultPrefix)
	if !ok {
		def = active[0]
		if defaultPrefix != "" {
			r.logger.Warn("Default route prefix is not served in this deployment, using first chain",
				zap.String("routePrefix", defaultPrefix),
				zap.String("mode", mode.String()),
				zap.String("fallback", def.RoutePrefix),
			)
		}
	}
	r.defaultChain = def

	r.logger.Info("Chain registry ready",
		zap.String("mode", mode.String()),
		zap.Int("supported", len(active)),
		zap.Int("unsupported", len(inactive)),
		zap.String("default", def.RoutePrefix),
	)

	return r, nil
}

// Mode returns the deployment mode the registry was built for.
func (r *Registry) Mode() entity.DeploymentMode {
	return r.mode
}

// ListSupportedChains returns a copy of the active set in display order.
func (r *Registry) ListSupportedChains() []entity.NetworkDescriptor {
	return cloneAll(r.active)
}

// DefaultChain returns the configured default descriptor.
func (r *Registry) DefaultChain() entity.NetworkDescriptor {
	return r.defaultChain.Clone()
}

// ResolveChain never fails: an unknown or empty prefix resolves to the default chain.
func (r *Registry) ResolveChain(routePrefix string) entity.NetworkDescriptor {
	if chain, ok := r.Lookup(routePrefix); ok {
		return chain
	}
	return r.DefaultChain()
}

// Lookup does a linear search of the active set by route prefix.
func (r *Registry) Lookup(routePrefix string) (entity.NetworkDescriptor, bool) {
	if routePrefix == "" {
		return entity.NetworkDescriptor{}, false
	}
	for _, chain := range r.active {
		if chain.RoutePrefix == routePrefix {
			return chain.Clone(), true
		}
	}
	return entity.NetworkDescriptor{}, false
}

// ChainByID does a linear search of the active set by id.
func (r *Registry) ChainByID(chainID int64) (entity.NetworkDescriptor, bool) {
	return findByID(r.active, chainID)
}

// ClassifyUnsupported searches the opposite set for chainID.
func (r *Registry) ClassifyUnsupported(chainID int64) (entity.NetworkDescriptor, bool) {
	return findByID(r.inactive, chainID)
}

func findByID(set []entity.NetworkDescriptor, chainID int64) (entity.NetworkDescriptor, bool) {
	for _, chain := range set {
		if chain.ID == chainID {
			return chain.Clone(), true
		}
	}
	return entity.NetworkDescriptor{}, false
}

func cloneAll(set []entity.NetworkDescriptor) []entity.NetworkDescriptor {
	out := make([]entity.NetworkDescriptor, len(set))
	for i, chain := range set {
		out[i] = chain.Clone()
	}
	return out
}

// validateTables enforces unique ids across both sets, unique route prefixes and valid tokens.
func validateTables(mainnet, testnet []entity.NetworkDescriptor) error {
	ids := make(map[int64]string)
	prefixes := make(map[string]int64)

	for _, set := range [][]entity.NetworkDescriptor{mainnet, testnet} {
		for _, chain := range set {
			if other, dup := ids[chain.ID]; dup {
				return fmt.Errorf("%w: id %d used by %q and %q", domain.ErrDuplicateChain, chain.ID, other, chain.Name)
			}
			ids[chain.ID] = chain.Name

			if chain.RoutePrefix == "" {
				return fmt.Errorf("%w: chain %d has no route prefix", domain.ErrDuplicateChain, chain.ID)
			}
			if other, dup := prefixes[chain.RoutePrefix]; dup {
				return fmt.Errorf("%w: route prefix %q used by %d and %d",
					domain.ErrDuplicateChain, chain.RoutePrefix, other, chain.ID,
				)
			}
			prefixes[chain.RoutePrefix] = chain.ID

			if err := ValidateTokens(chain); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateTokens checks every payment token of chain against its invariants.
func ValidateTokens(chain entity.NetworkDescriptor) error {
	for _, token := range chain.PaymentTokens {
		if token.ChainID != chain.ID {
			return fmt.Errorf("%w: %s declared on chain %d belongs to chain %d",
				domain.ErrInvalidToken, token.Symbol, chain.ID, token.ChainID,
			)
		}
		if !token.Address.Valid() {
			return fmt.Errorf("%w: %s on chain %d has address %q",
				domain.ErrInvalidToken, token.Symbol, chain.ID, token.Address,
			)
		}
	}
	return nil
}

// MergeNetworks adds overlay networks to the built-in tables.
// An overlay entry with a built-in id replaces that chain in the same table. Entries whose id
// belongs to the other table, whose route prefix is taken by another chain, or whose tokens are
// invalid are logged and skipped, so the result always passes NewRegistry's validation.
func MergeNetworks(
	mainnet, testnet, extraMainnet, extraTestnet []entity.NetworkDescriptor,
	logger *zap.Logger,
) (mergedMainnet, mergedTestnet []entity.NetworkDescriptor) {
	logger = logger.Named("ChainRegistry")
	mergedMainnet, mergedTestnet = cloneAll(mainnet), cloneAll(testnet)

	merge := func(own, other *[]entity.NetworkDescriptor, extra []entity.NetworkDescriptor) {
		for _, chain := range extra {
			skip := func(reason string) {
				logger.Warn("Skipping overlay network",
					zap.Int64("chainId", chain.ID),
					zap.String("routePrefix", chain.RoutePrefix),
					zap.String("reason", reason),
				)
			}
			if _, taken := findByID(*other, chain.ID); taken {
				skip("id is served by the other deployment")
				continue
			}
			if chain.RoutePrefix == "" {
				skip("missing route prefix")
				continue
			}
			if prefixTaken(*own, chain) || prefixTaken(*other, chain) {
				skip("route prefix is used by another chain")
				continue
			}
			if err := ValidateTokens(chain); err != nil {
				skip(err.Error())
				continue
			}

			replaced := false
			for i := range *own {
				if (*own)[i].ID == chain.ID {
					(*own)[i] = chain.Clone()
					replaced = true
					break
				}
			}
			if replaced {
				logger.Info("Overlay network overrides built-in chain",
					zap.Int64("chainId", chain.ID),
					zap.String("routePrefix", chain.RoutePrefix),
				)
				continue
			}
			*own = append(*own, chain.Clone())
		}
	}
	merge(&mergedMainnet, &mergedTestnet, extraMainnet)
	merge(&mergedTestnet, &mergedMainnet, extraTestnet)
	return mergedMainnet, mergedTestnet
}

// prefixTaken reports whether a chain other than chain already routes under its prefix.
func prefixTaken(set []entity.NetworkDescriptor, chain entity.NetworkDescriptor) bool {
	for _, c := range set {
		if c.RoutePrefix == chain.RoutePrefix && c.ID != chain.ID {
			return true
		}
	}
	return false
}
