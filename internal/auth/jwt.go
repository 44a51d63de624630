package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"finsight/internal/cache"
)

const defaultMaxRevoked = 10000

// ErrRevocationFull is returned by SignOut when no more tokens can be
// revoked until earlier revocations expire.
var ErrRevocationFull = errors.New("revocation list is full")

// Claims is the session token payload. Subject holds the user id and ID the
// token id used for revocation.
type Claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider validates HS256 session tokens from a cookie or bearer header.
type JWTProvider struct {
	secret     []byte
	cookieName string
	ttl        time.Duration
	secure     bool
	revoked    *cache.LRUCache[struct{}]
	now        func() time.Time
}

// JWTConfig configures NewJWTProvider.
type JWTConfig struct {
	Secret     string
	CookieName string
	TTL        time.Duration
	// SecureCookie marks the cookie HTTPS-only.
	SecureCookie bool
	// MaxRevoked bounds the number of signed-out tokens tracked at once.
	MaxRevoked int
}

func NewJWTProvider(cfg JWTConfig) *JWTProvider {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	maxRevoked := cfg.MaxRevoked
	if maxRevoked <= 0 {
		maxRevoked = defaultMaxRevoked
	}
	return &JWTProvider{
		secret:     []byte(cfg.Secret),
		cookieName: cfg.CookieName,
		ttl:        ttl,
		secure:     cfg.SecureCookie,
		revoked:    cache.NewLRUCache[struct{}](maxRevoked, ttl),
		now:        time.Now,
	}
}

// WithClock replaces the time source for issuing and validating tokens.
func (p *JWTProvider) WithClock(now func() time.Time) *JWTProvider {
	p.now = now
	p.revoked.WithClock(now)
	return p
}

// Revoked exposes the revocation set so it can be registered for cleanup.
func (p *JWTProvider) Revoked() cache.Cleaner {
	return p.revoked
}

// Issue mints a session token for u. A non-positive ttl uses the default.
func (p *JWTProvider) Issue(u User, ttl time.Duration) (string, time.Time, error) {
	if u.ID == "" {
		return "", time.Time{}, errors.New("issue token: empty user id")
	}
	if ttl <= 0 {
		ttl = p.ttl
	}
	now := p.now()
	exp := now.Add(ttl)
	claims := Claims{
		Name:  u.DisplayName,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse validates a token string.
func (p *JWTProvider) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrNoSession
	}
	if claims.ID != "" && p.revoked.Contains(claims.ID) {
		return nil, fmt.Errorf("%w: token revoked", ErrNoSession)
	}
	return claims, nil
}

func (p *JWTProvider) CurrentUser(r *http.Request) (User, error) {
	token := p.tokenFrom(r)
	if token == "" {
		return User{}, ErrNoSession
	}
	claims, err := p.Parse(token)
	if err != nil {
		return User{}, err
	}
	return User{ID: claims.Subject, DisplayName: claims.Name, Email: claims.Email}, nil
}

// SignOut revokes the presented token until it would have expired and
// clears the cookie. Signing out without a valid session only clears the
// cookie. Revocations are never evicted early; when the set is full SignOut
// returns ErrRevocationFull and the token stays valid.
func (p *JWTProvider) SignOut(w http.ResponseWriter, r *http.Request) error {
	defer p.clearCookie(w)

	token := p.tokenFrom(r)
	if token == "" {
		return nil
	}
	claims, err := p.Parse(token)
	if err != nil {
		return nil
	}
	if claims.ID != "" && claims.ExpiresAt != nil {
		if left := claims.ExpiresAt.Sub(p.now()); left > 0 && !p.revoked.Add(claims.ID, struct{}{}, left) {
			return fmt.Errorf("revoke token %s: %w", claims.ID, ErrRevocationFull)
		}
	}
	return nil
}

// SetCookie stores token in the session cookie.
func (p *JWTProvider) SetCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.cookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (p *JWTProvider) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     p.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (p *JWTProvider) tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if p.cookieName != "" {
		if c, err := r.Cookie(p.cookieName); err == nil {
			return c.Value
		}
	}
	return ""
}
