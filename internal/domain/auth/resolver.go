package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"time"
)

// Resolver turns opaque session cookie values into caller identities by
// hashing the token with HMAC-SHA256 and looking it up in the session store.
// Any failure (missing, malformed, expired, unknown) resolves to Anonymous —
// the gate fails closed, never open.
type Resolver struct {
	sessions SessionRepository
	pepper   []byte
	now      func() time.Time
}

// NewResolver creates a Resolver with the given session repository and HMAC
// pepper.
func NewResolver(sessions SessionRepository, pepper []byte) *Resolver {
	return &Resolver{
		sessions: sessions,
		pepper:   pepper,
		now:      time.Now,
	}
}

// HashToken computes the hex-encoded HMAC-SHA256 of a session token. The same
// function is used when minting sessions so lookups match.
func HashToken(pepper []byte, token string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Resolve derives the caller's identity from a session token. An empty token,
// an unknown or expired session, or a stored-hash mismatch all yield the
// anonymous identity.
func (r *Resolver) Resolve(ctx context.Context, token string) Context {
	if token == "" {
		return Anonymous()
	}

	hash := HashToken(r.pepper, token)

	s, err := r.sessions.FindByTokenHash(ctx, hash)
	if err != nil {
		return Anonymous()
	}

	if !s.ExpiresAt.After(r.now()) {
		return Anonymous()
	}

	// The lookup already matched, but compare in constant time in case the
	// repository returned a stale or wrong row.
	if subtle.ConstantTimeCompare([]byte(hash), []byte(s.TokenHash)) != 1 {
		return Anonymous()
	}

	role := RoleUser
	if s.IsAdmin {
		role = RoleAdmin
	}

	return Context{Role: role, UserID: s.UserID}
}
