package ports

import (
	"context"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// UserRepository defines the interface for user persistence consumed by the
// auth service.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}
