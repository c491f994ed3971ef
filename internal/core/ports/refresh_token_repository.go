package ports

import (
	"context"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// RefreshTokenRepository is the persistent ledger of issued refresh tokens.
// Rows are inserted on login and only ever mutated by revocation; expired and
// revoked rows are permanently invalid.
type RefreshTokenRepository interface {
	// Create inserts a new ledger row. Multiple rows per user are allowed
	// (one per concurrent session/device).
	Create(ctx context.Context, t *domain.RefreshToken) error
	// FindValid returns the user's rows that are neither revoked nor expired.
	FindValid(ctx context.Context, userID int64) ([]domain.RefreshToken, error)
	// RevokeAll marks every row for the user revoked.
	RevokeAll(ctx context.Context, userID int64) error
}
