package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"finsight/internal/auth"
	"finsight/internal/log"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newUserView(auth.SessionFrom(r.Context()).User))
}

// handleLogout signs out and then redirects page requests to the login page.
// API callers get JSON.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.SignOut(w, r); err != nil {
		log.LogError(r.Context(), s.logger, "Sign out failed", err, log.ErrorTypeAuth, log.OpSignOut,
			log.NewFields().WithComponent(log.ComponentAuth))
		InternalServerError("Could not sign out. Please try again.").Write(w)
		return
	}
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", loginPath)
		w.WriteHeader(http.StatusOK)
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "text/html") {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"signed_out": true})
}

const loginPath = auth.LoginPath

type loginView struct {
	Error string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if auth.SessionFrom(r.Context()).Authenticated {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.renderLogin(w, r, http.StatusOK, loginView{})
}

// handleLogin accepts a session token minted by the identity service and
// stores it in the session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.renderLogin(w, r, http.StatusBadRequest, loginView{Error: "Invalid request"})
		return
	}
	token := strings.TrimSpace(p.Get("token"))
	claims, err := s.tokens.Parse(token)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Rejected sign-in token",
			log.FieldError, err, log.FieldErrorType, log.ErrorTypeAuth)
		s.renderLogin(w, r, http.StatusUnauthorized, loginView{Error: "That token is not valid"})
		return
	}
	var expires time.Time
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	s.tokens.SetCookie(w, token, expires)
	s.logger.InfoContext(r.Context(), "User signed in", log.FieldUserID, claims.Subject)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, v loginView) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.templates.ExecuteTemplate(w, "login.html", v); err != nil {
		log.LogError(r.Context(), s.logger, "Login template execution failed", err,
			log.ErrorTypeInternal, log.OpRender, log.NewFields().WithComponent(log.ComponentHTTP))
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	tm := s.tracer.GetMetrics()
	rm := s.limiter.GetMetrics()
	dm := s.detector.GetMetrics()
	writeJSON(w, http.StatusOK, map[string]any{
		"requests_total":        tm.TotalRequests,
		"last_response_us":      tm.LastResponseTime,
		"rate_limit_hits":       rm.TotalHits,
		"rate_limit_clients":    rm.ClientCount,
		"suspicious_requests":   dm.SuspiciousRequests,
		"rate_limit_per_minute": s.rateLimit,
	})
}
