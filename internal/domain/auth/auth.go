// Package auth resolves session tokens to caller identities. The resolved
// Context is passed explicitly into every domain operation; nothing here is
// cached across requests.
package auth

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrUnauthenticated is returned when an operation requires a valid
	// session and none was presented.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrUnauthorized is returned when the caller is authenticated but lacks
	// the required role or does not own the resource.
	ErrUnauthorized = errors.New("not authorized")
	// ErrSessionNotFound is returned by SessionRepository when no session
	// matches the token hash.
	ErrSessionNotFound = errors.New("session not found")
)

// Role is the caller's access level, derived fresh from the session token on
// every request.
type Role int

const (
	RoleAnonymous Role = iota
	RoleUser
	RoleAdmin
)

// Context is the caller's resolved identity. Admin is a user with an elevated
// flag, not a separate identity class.
type Context struct {
	Role   Role
	UserID string
}

// Anonymous is the zero identity used when no valid session is present.
func Anonymous() Context {
	return Context{Role: RoleAnonymous}
}

// Authenticated reports whether the caller holds a valid session.
func (c Context) Authenticated() bool {
	return c.Role == RoleUser || c.Role == RoleAdmin
}

// Admin reports whether the caller holds the admin role.
func (c Context) Admin() bool {
	return c.Role == RoleAdmin
}

// Session is a stored session record. Tokens are stored only as HMAC hashes.
type Session struct {
	TokenHash string
	UserID    string
	IsAdmin   bool
	ExpiresAt time.Time
}

// SessionRepository provides lookup of sessions by their token hash.
type SessionRepository interface {
	FindByTokenHash(ctx context.Context, hash string) (*Session, error)
}
