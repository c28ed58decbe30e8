package registry

import "nft-storefront/internal/domain/entity"

// PulseChainID is the chain id of the one network not served by the hosted data API.
const PulseChainID int64 = 369

func nativeToken(chainID int64, symbol string) entity.TokenDescriptor {
	return entity.TokenDescriptor{
		ChainID:  chainID,
		Address:  entity.ZeroAddress,
		Symbol:   symbol,
		Name:     symbol,
		Decimals: 18,
	}
}

func erc20Token(chainID int64, address, symbol string) entity.TokenDescriptor {
	return entity.TokenDescriptor{
		ChainID:  chainID,
		Address:  entity.Address(address),
		Symbol:   symbol,
		Name:     symbol,
		Decimals: 18,
	}
}

func network(id int64, name, prefix, baseURL, nativeSymbol, wrappedAddr, wrappedSymbol string) entity.NetworkDescriptor {
	return entity.NetworkDescriptor{
		ID:          id,
		Name:        name,
		RoutePrefix: prefix,
		BaseAPIURL:  baseURL,
		PaymentTokens: []entity.TokenDescriptor{
			nativeToken(id, nativeSymbol),
			erc20Token(id, wrappedAddr, wrappedSymbol),
		},
	}
}

// MainnetNetworks returns a fresh copy of the production network table, in display order.
func MainnetNetworks() []entity.NetworkDescriptor {
	return []entity.NetworkDescriptor{
		network(1, "Ethereum", "ethereum", "https://api.reservoir.tools",
			"ETH", "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", "WETH"),
		network(137, "Polygon", "polygon", "https://api-polygon.reservoir.tools",
			"MATIC", "0x0d500b1d8e8ef31e21c99d1db9a6444d3adf1270", "WMATIC"),
		network(42161, "Arbitrum", "arbitrum", "https://api-arbitrum.reservoir.tools",
			"ETH", "0x82af49447d8a07e3bd95bd0d56f35241523fbab1", "WETH"),
		network(10, "Optimism", "optimism", "https://api-optimism.reservoir.tools",
			"ETH", "0x4200000000000000000000000000000000000006", "WETH"),
		network(7777777, "Zora", "zora", "https://api-zora.reservoir.tools",
			"ETH", "0x4200000000000000000000000000000000000006", "WETH"),
		network(56, "BNB Chain", "bsc", "https://api-bsc.reservoir.tools",
			"BNB", "0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c", "WBNB"),
		network(43114, "Avalanche", "avalanche", "https://api-avalanche.reservoir.tools",
			"AVAX", "0xb31f66aa3c1e785363f0875a1b74e27b85fd66c7", "WAVAX"),
		network(8453, "Base", "base", "https://api-base.reservoir.tools",
			"ETH", "0x4200000000000000000000000000000000000006", "WETH"),
		network(59144, "Linea", "linea", "https://api-linea.reservoir.tools",
			"ETH", "0xe5d7c2a44ffddf6b295a15c148167daaaf5cf34f", "WETH"),
		network(324, "zkSync Era", "zksync", "https://api-zksync.reservoir.tools",
			"ETH", "0x5aea5775959fbc2557cc8789bc1bf90a239d9a91", "WETH"),
		network(1101, "Polygon zkEVM", "polygon-zkevm", "https://api-polygon-zkevm.reservoir.tools",
			"ETH", "0x4f9a0e7fd2bf6067db6994cf12e4495df938e6e9", "WETH"),
		network(534352, "Scroll", "scroll", "https://api-scroll.reservoir.tools",
			"ETH", "0x5300000000000000000000000000000000000004", "WETH"),
		{
			ID:          PulseChainID,
			Name:        "PulseChain",
			RoutePrefix: "pulsechain",
			BaseAPIURL:  "https://nft-v2.9mm.pro",
			PaymentTokens: []entity.TokenDescriptor{
				nativeToken(PulseChainID, "PLS"),
				erc20Token(PulseChainID, "0xa1077a294dde1b09bb078844df40758a5d0f9a27", "WPLS"),
			},
			PollingIntervalMs: 1000,
		},
	}
}

// TestnetNetworks returns a fresh copy of the staging network table, in display order.
func TestnetNetworks() []entity.NetworkDescriptor {
	nets := []entity.NetworkDescriptor{
		network(5, "Goerli", "goerli", "https://api-goerli.reservoir.tools",
			"ETH", "0xb4fbf271143f4fbf7b91a5ded31805e42b2208d6", "WETH"),
		network(11155111, "Sepolia", "sepolia", "https://api-sepolia.reservoir.tools",
			"ETH", "0x7b79995e5f793a07bc00c21412e50ecae098e7f9", "WETH"),
		network(80001, "Mumbai", "mumbai", "https://api-mumbai.reservoir.tools",
			"MATIC", "0x9c3c9283d3e44854697cd22d3faa240cfb032889", "WMATIC"),
		network(84531, "Base Goerli", "base-goerli", "https://api-base-goerli.reservoir.tools",
			"ETH", "0x4200000000000000000000000000000000000006", "WETH"),
		network(534353, "Scroll Testnet", "scroll-testnet", "https://api-scroll-alpha.reservoir.tools",
			"ETH", "0x5300000000000000000000000000000000000004", "WETH"),
		network(999, "Zora Testnet", "zora-testnet", "https://api-zora-testnet.reservoir.tools",
			"ETH", "0x4200000000000000000000000000000000000006", "WETH"),
	}
	for i := range nets {
		nets[i].Testnet = true
	}
	return nets
}
