package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-api/internal/api/metrics"
	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
	"github.com/stockroom/inventory-api/internal/pkg/hasher"
	"github.com/stockroom/inventory-api/internal/token"
)

type authService struct {
	users    ports.UserRepository
	grants   ports.PermissionRepository
	ledger   ports.RefreshTokenRepository
	throttle ports.LoginThrottle // optional, may be nil
	codec    *token.Codec
	hash     hasher.Hasher

	accessTTL  time.Duration
	refreshTTL time.Duration
	log        zerolog.Logger
}

// NewAuthService returns an AuthService implementation. TTLs at or below zero
// fall back to 15 minutes (access) and 7 days (refresh).
func NewAuthService(
	users ports.UserRepository,
	grants ports.PermissionRepository,
	ledger ports.RefreshTokenRepository,
	throttle ports.LoginThrottle,
	codec *token.Codec,
	hash hasher.Hasher,
	accessTTL, refreshTTL time.Duration,
	log zerolog.Logger,
) ports.AuthService {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &authService{
		users:      users,
		grants:     grants,
		ledger:     ledger,
		throttle:   throttle,
		codec:      codec,
		hash:       hash,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		log:        log,
	}
}

// Login authenticates by email/password and issues both token kinds. Every
// failure surfaces as the same generic error; the actual reason is only
// logged, so responses cannot be used to probe which emails exist.
func (s *authService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	// 1. Throttle check — best effort, an unavailable throttle never locks
	// users out.
	if s.throttle != nil {
		blocked, err := s.throttle.TooManyFailures(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Msg("login throttle check failed, continuing")
		} else if blocked {
			metrics.LoginThrottledTotal.Inc()
			s.log.Warn().Str("email", email).Msg("login throttled")
			return nil, domain.ErrTooManyAttempts
		}
	}

	// 2. Look up the account.
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recordFailure(ctx, email, "unknown_email")
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 3. Suspension gates every auth operation, even with valid credentials.
	if !user.IsActive {
		s.recordFailure(ctx, email, "suspended")
		return nil, domain.ErrInvalidCredentials
	}

	// 4. Password check.
	if !s.hash.Verify(password, user.PasswordHash) {
		s.recordFailure(ctx, email, "wrong_password")
		return nil, domain.ErrInvalidCredentials
	}

	if s.throttle != nil {
		if err := s.throttle.Reset(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("login throttle reset failed")
		}
	}

	// 5. Resolve effective permissions and mint both tokens.
	perms, err := s.effectivePermissions(ctx, user)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.codec.IssueAccess(accessPayload(user, perms), s.accessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.codec.IssueRefresh(user.ID, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	// 6. Persist only a digest of the refresh token.
	digest, err := s.hash.Hash(refreshToken)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	record := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: digest,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	}
	if err := s.ledger.Create(ctx, record); err != nil {
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("login succeeded")

	return &ports.AuthResult{
		User:         user,
		Permissions:  perms,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout revokes every ledger row of the token's owner. Invalid or missing
// tokens are swallowed: logout is idempotent and always reports success.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	userID, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		s.log.Debug().Err(err).Msg("logout with undecodable refresh token")
		return nil
	}

	if err := s.ledger.RevokeAll(ctx, userID); err != nil {
		s.log.Error().Err(err).Int64("user_id", userID).Msg("logout revocation failed")
		return nil
	}

	metrics.RevocationsTotal.Inc()
	s.log.Info().Int64("user_id", userID).Msg("all sessions revoked")
	return nil
}

// Refresh mints a new access token for a valid refresh token. The ledger, not
// the token's own expiry claim, is the source of truth: revoked, expired and
// never-issued tokens all fail the digest scan identically. The refresh token
// itself is not rotated.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*ports.AuthResult, error) {
	if refreshToken == "" {
		return nil, domain.ErrUnauthorized
	}

	userID, err := s.codec.VerifyRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, token.ErrExpired) {
			s.log.Debug().Msg("refresh with expired token")
		} else {
			s.log.Warn().Msg("refresh with malformed token")
		}
		metrics.RefreshesTotal.WithLabelValues("rejected").Inc()
		return nil, domain.ErrUnauthorized
	}

	// Scan the user's valid ledger rows for a digest match. O(active
	// sessions), each step a deliberate slow compare.
	records, err := s.ledger.FindValid(ctx, userID)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	matched := false
	for i := range records {
		if s.hash.Verify(refreshToken, records[i].TokenHash) {
			matched = true
			break
		}
	}
	metrics.RefreshScanDuration.Observe(time.Since(start).Seconds())
	if !matched {
		metrics.RefreshesTotal.WithLabelValues("rejected").Inc()
		s.log.Warn().Int64("user_id", userID).Msg("refresh token not in ledger")
		return nil, domain.ErrUnauthorized
	}

	// Re-fetch the account; suspension or deletion since login ends the
	// session here.
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.RefreshesTotal.WithLabelValues("rejected").Inc()
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		metrics.RefreshesTotal.WithLabelValues("rejected").Inc()
		s.log.Warn().Int64("user_id", user.ID).Msg("refresh for suspended account")
		return nil, domain.ErrUnauthorized
	}

	// Permissions are recomputed fresh; nothing embedded in the old access
	// token is trusted.
	perms, err := s.effectivePermissions(ctx, user)
	if err != nil {
		return nil, err
	}
	accessToken, err := s.codec.IssueAccess(accessPayload(user, perms), s.accessTTL)
	if err != nil {
		return nil, err
	}

	metrics.RefreshesTotal.WithLabelValues("success").Inc()
	return &ports.AuthResult{
		User:        user,
		Permissions: perms,
		AccessToken: accessToken,
	}, nil
}

// Me re-mints an access token with the user's current identity and permission
// data for an already-authenticated caller.
func (s *authService) Me(ctx context.Context, userID int64) (*ports.AuthResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUnauthorized
	}

	perms, err := s.effectivePermissions(ctx, user)
	if err != nil {
		return nil, err
	}
	accessToken, err := s.codec.IssueAccess(accessPayload(user, perms), s.accessTTL)
	if err != nil {
		return nil, err
	}

	return &ports.AuthResult{
		User:        user,
		Permissions: perms,
		AccessToken: accessToken,
	}, nil
}

// effectivePermissions resolves a user's permission set. Grant rows are only
// read for employees; admins get the catalog from the resolver.
func (s *authService) effectivePermissions(ctx context.Context, user *domain.User) ([]string, error) {
	if user.IsAdmin() {
		return domain.ResolvePermissions(user.Role, nil), nil
	}
	granted, err := s.grants.GrantedCodes(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return domain.ResolvePermissions(user.Role, granted), nil
}

func (s *authService) recordFailure(ctx context.Context, email, reason string) {
	metrics.LoginsTotal.WithLabelValues("failure").Inc()
	s.log.Warn().Str("email", email).Str("reason", reason).Msg("login rejected")
	if s.throttle != nil {
		if err := s.throttle.RecordFailure(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("login throttle record failed")
		}
	}
}

func accessPayload(user *domain.User, perms []string) token.AccessPayload {
	return token.AccessPayload{
		UserID:      user.ID,
		Email:       user.Email,
		Name:        user.Name,
		Role:        user.Role,
		Permissions: perms,
	}
}
