package entity

import (
	"slices"
	"time"
)

// DeploymentMode tells which network set this instance serves.
type DeploymentMode int

const (
	DeploymentMainnet DeploymentMode = iota
	DeploymentTestnet
)

// String returns a lower-case name of the mode.
func (m DeploymentMode) String() string {
	if m == DeploymentTestnet {
		return "testnet"
	}
	return "mainnet"
}

// IsTestnet reports whether the testnet set is the served one.
func (m DeploymentMode) IsTestnet() bool {
	return m == DeploymentTestnet
}

// DeploymentModeFromHost derives the mode from the instance's own host URL.
// Only an exact match on the testnet host, outside the mainnet allow-list, selects testnet.
// Anything else, including an empty or malformed value, is mainnet.
func DeploymentModeFromHost(hostURL string, mainnetHosts []string, testnetHost string) DeploymentMode {
	if slices.Contains(mainnetHosts, hostURL) {
		return DeploymentMainnet
	}
	if testnetHost != "" && hostURL == testnetHost {
		return DeploymentTestnet
	}
	return DeploymentMainnet
}

// TokenDescriptor describes a currency accepted for payment on a network.
type TokenDescriptor struct {
	ChainID  int64   `json:"chainId"`
	Address  Address `json:"address"`
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Decimals uint8   `json:"decimals"`
}

// IsNative reports whether the token is the chain's native currency.
func (t TokenDescriptor) IsNative() bool {
	return t.Address.IsZero()
}

// NetworkDescriptor is the static description of a supported chain.
type NetworkDescriptor struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	RoutePrefix       string            `json:"routePrefix"`
	BaseAPIURL        string            `json:"baseApiUrl"`
	PaymentTokens     []TokenDescriptor `json:"paymentTokens"`
	PollingIntervalMs int               `json:"pollingIntervalMs"`
	Testnet           bool              `json:"testnet"`
}

// EffectivePollingInterval returns the chain's own refresh interval, or def when it declares none.
func (n NetworkDescriptor) EffectivePollingInterval(def time.Duration) time.Duration {
	if n.PollingIntervalMs <= 0 {
		return def
	}
	return time.Duration(n.PollingIntervalMs) * time.Millisecond
}

// NativeToken returns the native currency descriptor, if the network declares one.
func (n NetworkDescriptor) NativeToken() (TokenDescriptor, bool) {
	for _, t := range n.PaymentTokens {
		if t.IsNative() {
			return t, true
		}
	}
	return TokenDescriptor{}, false
}

// Clone returns a copy that shares no slices with n.
func (n NetworkDescriptor) Clone() NetworkDescriptor {
	n.PaymentTokens = slices.Clone(n.PaymentTokens)
	return n
}
