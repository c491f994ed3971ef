package ports

import "context"

// PermissionRepository exposes the explicit permission grants of employee
// users. Admin users never have grant rows consulted; the resolver hands them
// the full catalog.
type PermissionRepository interface {
	// GrantedCodes returns the permission codes explicitly granted to a user.
	GrantedCodes(ctx context.Context, userID int64) ([]string, error)
	// ReplaceGrants swaps a user's grant set. Callers must validate the set
	// with domain.ValidateGrantSet first.
	ReplaceGrants(ctx context.Context, userID int64, codes []string) error
}
