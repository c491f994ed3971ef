// Package hasher provides one-way hashing for secrets at rest: account
// passwords and refresh-token bearer secrets. Neither is ever stored in
// plaintext.
package hasher

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost targets roughly 100ms+ per hash on current hardware. The
// latency is deliberate: it rate-limits brute force on the login and refresh
// paths.
const DefaultCost = 12

// Hasher is the one-way hash/verify capability consumed by the auth service.
type Hasher interface {
	Hash(secret string) (string, error)
	Verify(secret, digest string) bool
}

// Bcrypt implements Hasher with salted bcrypt digests.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a Bcrypt hasher. Costs outside bcrypt's valid range fall
// back to DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash returns a salted bcrypt digest of secret.
func (b *Bcrypt) Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(normalize(secret), b.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether secret matches digest.
func (b *Bcrypt) Verify(secret, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), normalize(secret)) == nil
}

// normalize pre-hashes secrets longer than bcrypt's 72-byte input limit with
// SHA-256. Refresh-token plaintexts (signed JWTs) always exceed the limit;
// passwords normally do not.
func normalize(secret string) []byte {
	if len(secret) <= 72 {
		return []byte(secret)
	}
	sum := sha256.Sum256([]byte(secret))
	return []byte(base64.RawStdEncoding.EncodeToString(sum[:]))
}
