package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"budget/internal/core"
	applog "budget/internal/log"
	"budget/internal/services"
)

const sessionCookieName = "budget_session"

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *services.Session)

// withSession resolves the session cookie before calling h. Requests without
// a live session are sent to the login page; JSON endpoints get a 401.
func (s *Server) withSession(h sessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			s.unauthenticated(w, r)
			return
		}

		sess, err := s.svc.Resume(ctx, cookie.Value)
		if err != nil {
			if !errors.Is(err, core.ErrUnauthorized) {
				applog.FromContext(ctx).ErrorContext(ctx, "Failed to resume session",
					applog.FieldError, err)
			}
			s.clearSessionCookie(w)
			s.unauthenticated(w, r)
			return
		}

		logger := applog.FromContext(ctx).With(applog.FieldUsername, sess.Username)
		ctx = contextWithLogger(ctx, logger)
		h(w, r.WithContext(ctx), sess)
	})
}

func (s *Server) unauthenticated(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/"):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": core.ErrSessionExpired.Error()})
	case isHTMX(r):
		NewHTMXResponse().Status(http.StatusUnauthorized).Redirect("/login").Write(w)
	default:
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}
