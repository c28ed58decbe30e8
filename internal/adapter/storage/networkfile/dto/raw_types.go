package networkfile_dto

// FileRaw is the top-level document of a custom networks file.
type FileRaw struct {
	Networks []NetworkRaw `yaml:"networks"`
}

// NetworkRaw is one network entry as written in the file.
type NetworkRaw struct {
	ID                int64      `yaml:"id"`
	Name              string     `yaml:"name"`
	RoutePrefix       string     `yaml:"route_prefix"`
	BaseAPIURL        string     `yaml:"base_api_url"`
	PollingIntervalMs int        `yaml:"polling_interval_ms"`
	Testnet           bool       `yaml:"testnet"`
	PaymentTokens     []TokenRaw `yaml:"payment_tokens"`
}

// TokenRaw is one payment token entry. ChainID may be omitted and then defaults to the network id.
type TokenRaw struct {
	ChainID  *int64 `yaml:"chain_id,omitempty"`
	Address  string `yaml:"address"`
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Decimals *int   `yaml:"decimals,omitempty"`
}
