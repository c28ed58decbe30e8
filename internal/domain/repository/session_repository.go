package repository

import "context"

// SessionRepository stores which chain each visitor session has selected.
type SessionRepository interface {
	// GetChainID returns the chain id selected by the session, if any.
	GetChainID(ctx context.Context, sessionID string) (int64, bool, error)

	// SetChainID records the session's selection and refreshes its expiry.
	SetChainID(ctx context.Context, sessionID string, chainID int64) error

	// Touch extends the session's expiry without changing it.
	Touch(ctx context.Context, sessionID string) error
}
