package domain

import "time"

// RefreshToken is one ledger row for an issued refresh token. Only a bcrypt
// digest of the bearer secret is stored; the plaintext is handed to the client
// once at login and never persisted. A user may hold several concurrent valid
// rows (one per device/session).
type RefreshToken struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expires_at"`
	IsRevoked bool      `json:"is_revoked"`
	CreatedAt time.Time `json:"created_at"`
}

// Valid reports whether the row can still honour a refresh at the given time.
// Expired or revoked rows are permanently invalid; they are garbage-collection
// candidates but correctness never depends on their deletion.
func (t *RefreshToken) Valid(now time.Time) bool {
	return !t.IsRevoked && t.ExpiresAt.After(now)
}
