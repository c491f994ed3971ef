package ports

import (
	"context"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// AuthResult is the outcome of a successful authentication operation.
// RefreshToken carries the plaintext bearer secret and is populated by Login
// only; the transport layer is responsible for moving it into an HTTP-only
// cookie.
type AuthResult struct {
	User         *domain.User
	Permissions  []string
	AccessToken  string
	RefreshToken string
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// Logout revokes every session of the token's owner. It is idempotent and
	// never fails on invalid input.
	Logout(ctx context.Context, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Me(ctx context.Context, userID int64) (*AuthResult, error)
}

// LoginThrottle caps failed login attempts per email. Implementations are
// best-effort; a throttle outage must not lock users out.
type LoginThrottle interface {
	TooManyFailures(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}
