// Package auth resolves who is making a request. Sessions travel explicitly
// in the request context; there is no global current user.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrNoSession means the request carries no valid session.
var ErrNoSession = errors.New("no active session")

// User is the identity supplied by the auth provider.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Name is the greeting name for u.
func (u User) Name() string {
	return DisplayNameFor(u.DisplayName, u.Email)
}

// Initial is the avatar letter for u.
func (u User) Initial() string {
	return Initial(u.Name())
}

// Session is the per-request authentication state.
type Session struct {
	User          User
	Authenticated bool
}

// Provider is the boundary to the identity service.
type Provider interface {
	// CurrentUser returns the user behind r or ErrNoSession.
	CurrentUser(r *http.Request) (User, error)
	// SignOut ends the session carried by r.
	SignOut(w http.ResponseWriter, r *http.Request) error
}

// DisplayNameFor prefers the provider's display name. Without one it derives
// a name from the email local part: "john.doe42@x" becomes "John Doe".
func DisplayNameFor(name, email string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	local, _, _ := strings.Cut(email, "@")
	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || unicode.IsDigit(r)
	})
	for i, p := range parts {
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r)) + p[size:]
	}
	if len(parts) == 0 {
		return "User"
	}
	return strings.Join(parts, " ")
}

// Initial returns the upper-cased first letter of name.
func Initial(name string) string {
	r, _ := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored by Middleware. A missing session is
// unauthenticated.
func SessionFrom(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey{}).(Session)
	return s
}
