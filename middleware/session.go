package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/cachex/core/session"
	"github.com/dmitrymomot/cachex/pkg/clientip"
)

type sessionKey struct{}

// SessionConfig configures the session middleware.
type SessionConfig struct {
	// Manager verifies tokens and loads sessions (required).
	Manager *session.Manager
	// Skip defines a function to skip middleware execution for specific requests.
	Skip func(r *http.Request) bool
	// Logger for structured logging (default: slog with io.Discard).
	Logger *slog.Logger
}

// Session creates middleware that resolves the session token, loads the
// session, and stores it in the request context. Load failures are
// logged and the request proceeds without a session.
func Session(manager *session.Manager) func(http.Handler) http.Handler {
	return SessionWithConfig(SessionConfig{Manager: manager})
}

// SessionWithConfig creates the session middleware with custom
// configuration.
func SessionWithConfig(cfg SessionConfig) func(http.Handler) http.Handler {
	if cfg.Manager == nil {
		panic("session middleware: manager is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.Skip != nil && cfg.Skip(r) {
				next.ServeHTTP(w, r)
				return
			}

			token := ExtractToken(r, cfg.Manager.Config())
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := cfg.Manager.Get(r.Context(), token, clientip.GetIP(r), r.UserAgent())
			if err != nil {
				cfg.Logger.DebugContext(r.Context(), "session middleware: failed to load session", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// ExtractToken resolves the session token from the request per the
// configured source priority. Returns "" when no source yields a token.
func ExtractToken(r *http.Request, cfg session.Config) string {
	for _, source := range cfg.TokenSourcePriority {
		switch source {
		case session.TokenSourceCookie:
			if c, err := r.Cookie(cfg.CookieName); err == nil && c.Value != "" {
				return c.Value
			}
		case session.TokenSourceHeader:
			if v := r.Header.Get(cfg.HeaderName); v != "" {
				return v
			}
		case session.TokenSourceBearer:
			if !cfg.UseBearerToken {
				continue
			}
			auth := r.Header.Get("Authorization")
			if token, ok := strings.CutPrefix(auth, "Bearer "); ok && token != "" {
				return token
			}
		}
	}
	return ""
}

// WithSession returns a context carrying the session.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext retrieves the session attached by the middleware.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*session.Session)
	return sess, ok && sess != nil
}

// RequireSession rejects requests without a loaded session with a 401
// JSON body.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := SessionFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized"}`)) //nolint:errcheck
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SetSessionCookie writes the session token cookie per the manager
// configuration.
func SetSessionCookie(w http.ResponseWriter, cfg session.Config, token string) {
	cookie := &http.Cookie{
		Name:     cfg.CookieName,
		Value:    token,
		Path:     cfg.CookiePath,
		Domain:   cfg.CookieDomain,
		Secure:   cfg.CookieSecure,
		HttpOnly: cfg.CookieHTTPOnly,
		SameSite: sameSite(cfg.CookieSameSite),
	}
	if cfg.CookieMaxAge > 0 {
		cookie.MaxAge = int(cfg.CookieMaxAge.Seconds())
	}
	http.SetCookie(w, cookie)
}

// ClearSessionCookie expires the session cookie on the client.
func ClearSessionCookie(w http.ResponseWriter, cfg session.Config) {
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.CookieName,
		Value:    "",
		Path:     cfg.CookiePath,
		Domain:   cfg.CookieDomain,
		Secure:   cfg.CookieSecure,
		HttpOnly: cfg.CookieHTTPOnly,
		SameSite: sameSite(cfg.CookieSameSite),
		MaxAge:   -1,
	})
}

func sameSite(value string) http.SameSite {
	switch value {
	case session.SameSiteStrict:
		return http.SameSiteStrictMode
	case session.SameSiteNone:
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
