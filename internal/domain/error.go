package domain

import (
	"errors"
	"fmt"

	"nft-storefront/internal/pkg/apperrors"
)

var (
	// ErrChainNotFound means no supported chain matches the requested id or route prefix.
	ErrChainNotFound = fmt.Errorf("%w: chain not found", apperrors.ErrNotFound)

	// ErrDuplicateChain means a chain id or route prefix is declared twice across the network tables.
	ErrDuplicateChain = errors.New("duplicate chain")

	// ErrInvalidToken means a payment token descriptor breaks its invariants.
	ErrInvalidToken = errors.New("invalid payment token")

	// ErrInvalidQuery means a ranking query cannot be sent to the data API as built.
	ErrInvalidQuery = fmt.Errorf("%w: invalid ranking query", apperrors.ErrInvalidInput)
)
