package entity

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Address is a lower-case, 0x-prefixed, 20-byte hex account or contract address.
type Address string

// ZeroAddress marks a chain's native currency in payment token lists.
var ZeroAddress = Address(strings.ToLower(common.Address{}.Hex()))

// NewAddress validates raw and returns it in canonical lower-case form.
func NewAddress(raw string) (Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("address cannot be empty")
	}
	if len(trimmed) != 2+2*common.AddressLength || !common.IsHexAddress(trimmed) {
		return "", fmt.Errorf("invalid address format '%s'", raw)
	}
	return Address(strings.ToLower(trimmed)), nil
}

// IsZero reports whether a is the all-zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Valid reports whether a is already in canonical form.
func (a Address) Valid() bool {
	canonical, err := NewAddress(string(a))
	return err == nil && canonical == a
}

// String returns the string representation of the Address.
func (a Address) String() string {
	return string(a)
}

// ValidateAPIBaseURL checks that raw is an absolute http(s) URL usable as a data API base.
func ValidateAPIBaseURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return fmt.Errorf("api base url cannot be empty")
	}

	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return fmt.Errorf("invalid api base url format '%s': %w", raw, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("api base url '%s' has unsupported scheme: '%s'", raw, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("api base url '%s' has no host", raw)
	}
	return nil
}
