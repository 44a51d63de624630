package auth

import (
	"errors"
	"net/http"
	"strings"

	"finsight/internal/log"
)

// LoginPath is where unauthenticated page requests are sent.
const LoginPath = "/login"

// Middleware resolves the session for every request and stores it in the
// context. It never rejects; see RequireSession.
func Middleware(p Provider, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var s Session
			u, err := p.CurrentUser(r)
			switch {
			case err == nil:
				s = Session{User: u, Authenticated: true}
			case !errors.Is(err, ErrNoSession) && logger != nil:
				logger.WarnContext(r.Context(), "Session lookup failed", log.FieldError, err)
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
		})
	}
}

// RequireSession rejects unauthenticated requests: API and HTMX calls get
// 401, page loads are redirected to the login page.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if SessionFrom(r.Context()).Authenticated {
			next.ServeHTTP(w, r)
			return
		}
		if wantsRedirect(r) {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"authentication required"}`))
	})
}

func wantsRedirect(r *http.Request) bool {
	if r.Method != http.MethodGet || r.Header.Get("HX-Request") == "true" {
		return false
	}
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
