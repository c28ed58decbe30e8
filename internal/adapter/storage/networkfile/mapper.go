package networkfile

import (
	"fmt"
	"math"

	dto "nft-storefront/internal/adapter/storage/networkfile/dto"
	"nft-storefront/internal/domain/entity"

	"go.uber.org/zap"
)

const defaultDecimals = 18

// toDomainNetworks converts raw entries into descriptors, split by set.
// Entries that break an invariant are logged and skipped.
func toDomainNetworks(raws []dto.NetworkRaw, logger *zap.Logger) (mainnet, testnet []entity.NetworkDescriptor) {
	for _, raw := range raws {
		network, err := toDomainNetwork(raw, logger)
		if err != nil {
			logger.Warn("Skipping invalid network during mapping",
				zap.Int64("chainId", raw.ID),
				zap.String("name", raw.Name),
				zap.Error(err),
			)
			continue
		}
		if network.Testnet {
			testnet = append(testnet, network)
		} else {
			mainnet = append(mainnet, network)
		}
	}
	return mainnet, testnet
}

func toDomainNetwork(raw dto.NetworkRaw, logger *zap.Logger) (entity.NetworkDescriptor, error) {
	if raw.ID <= 0 {
		return entity.NetworkDescriptor{}, fmt.Errorf("chain id must be positive")
	}
	if raw.RoutePrefix == "" {
		return entity.NetworkDescriptor{}, fmt.Errorf("route prefix is required")
	}
	if err := entity.ValidateAPIBaseURL(raw.BaseAPIURL); err != nil {
		return entity.NetworkDescriptor{}, err
	}

	name := raw.Name
	if name == "" {
		name = raw.RoutePrefix
	}

	tokens := make([]entity.TokenDescriptor, 0, len(raw.PaymentTokens))
	for _, t := range raw.PaymentTokens {
		token, err := toDomainToken(raw.ID, t)
		if err != nil {
			logger.Warn("Skipping invalid payment token during mapping",
				zap.Int64("chainId", raw.ID),
				zap.String("symbol", t.Symbol),
				zap.Error(err),
			)
			continue
		}
		tokens = append(tokens, token)
	}

	return entity.NetworkDescriptor{
		ID:                raw.ID,
		Name:              name,
		RoutePrefix:       raw.RoutePrefix,
		BaseAPIURL:        raw.BaseAPIURL,
		PaymentTokens:     tokens,
		PollingIntervalMs: raw.PollingIntervalMs,
		Testnet:           raw.Testnet,
	}, nil
}

func toDomainToken(networkID int64, raw dto.TokenRaw) (entity.TokenDescriptor, error) {
	chainID := networkID
	if raw.ChainID != nil {
		chainID = *raw.ChainID
	}
	if chainID != networkID {
		return entity.TokenDescriptor{}, fmt.Errorf("token chain id %d does not match network %d", chainID, networkID)
	}

	address, err := entity.NewAddress(raw.Address)
	if err != nil {
		return entity.TokenDescriptor{}, err
	}

	decimals := defaultDecimals
	if raw.Decimals != nil {
		decimals = *raw.Decimals
	}
	if decimals < 0 || decimals > math.MaxUint8 {
		return entity.TokenDescriptor{}, fmt.Errorf("decimals %d out of range", decimals)
	}

	name := raw.Name
	if name == "" {
		name = raw.Symbol
	}

	return entity.TokenDescriptor{
		ChainID:  chainID,
		Address:  address,
		Symbol:   raw.Symbol,
		Name:     name,
		Decimals: uint8(decimals),
	}, nil
}
