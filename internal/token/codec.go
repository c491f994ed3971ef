// Package token implements the signed-token codec for the two bearer
// credentials the API issues: short-lived access tokens carrying identity and
// effective permissions, and longer-lived refresh tokens carrying only the
// user id. The two kinds are signed with independent secrets so a leaked
// access secret cannot be used to forge refresh tokens, and vice versa.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLen is the minimum accepted signing-secret length in bytes.
const MinSecretLen = 32

var (
	// ErrExpired marks a structurally valid token whose expiry has passed.
	ErrExpired = errors.New("token expired")
	// ErrMalformed marks a token that failed signature or structure checks.
	ErrMalformed = errors.New("token malformed")
)

// AccessPayload is the typed content of an access token. Permissions are
// resolved at issuance so downstream authorization never needs a database
// round trip.
type AccessPayload struct {
	UserID      int64
	Email       string
	Name        string
	Role        string
	Permissions []string
}

type accessClaims struct {
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	jwt.RegisteredClaims
}

// Codec signs and verifies both token kinds using HS256.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
}

// NewCodec validates both secrets and returns a ready Codec.
func NewCodec(accessSecret, refreshSecret string) (*Codec, error) {
	if len(accessSecret) < MinSecretLen {
		return nil, fmt.Errorf("access token secret must be at least %d bytes", MinSecretLen)
	}
	if len(refreshSecret) < MinSecretLen {
		return nil, fmt.Errorf("refresh token secret must be at least %d bytes", MinSecretLen)
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh token secrets must differ")
	}
	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
	}, nil
}

// IssueAccess signs an access token valid for ttl.
func (c *Codec) IssueAccess(p AccessPayload, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := accessClaims{
		Email:       p.Email,
		Name:        p.Name,
		Role:        p.Role,
		Permissions: p.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.accessSecret)
}

// VerifyAccess checks signature and expiry and returns the typed payload.
// Returns ErrExpired for well-formed-but-stale tokens and ErrMalformed for
// everything else; callers use the distinction only for log verbosity.
func (c *Codec) VerifyAccess(raw string) (*AccessPayload, error) {
	claims := &accessClaims{}
	if err := c.parse(raw, claims, c.accessSecret); err != nil {
		return nil, err
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrMalformed
	}
	return &AccessPayload{
		UserID:      userID,
		Email:       claims.Email,
		Name:        claims.Name,
		Role:        claims.Role,
		Permissions: claims.Permissions,
	}, nil
}

// IssueRefresh signs a refresh token valid for ttl. The payload carries only
// the user id; everything else is re-derived at refresh time.
func (c *Codec) IssueRefresh(userID int64, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(c.refreshSecret)
}

// VerifyRefresh checks signature and expiry and returns the embedded user id.
func (c *Codec) VerifyRefresh(raw string) (int64, error) {
	claims := &refreshClaims{}
	if err := c.parse(raw, claims, c.refreshSecret); err != nil {
		return 0, err
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, ErrMalformed
	}
	return userID, nil
}

func (c *Codec) parse(raw string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpired
		}
		return ErrMalformed
	}
	if !parsed.Valid {
		return ErrMalformed
	}
	return nil
}
