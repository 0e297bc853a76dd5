package session

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/cachex/core/security"
)

// TokenFormat selects the session token wire format.
type TokenFormat string

const (
	TokenFormatSimple TokenFormat = "simple"
	TokenFormatJWT    TokenFormat = "jwt"
)

// TokenSource names a place tokens are read from by the HTTP middleware.
type TokenSource string

const (
	TokenSourceCookie TokenSource = "cookie"
	TokenSourceHeader TokenSource = "header"
	TokenSourceBearer TokenSource = "bearer"
)

// SameSite values accepted for the session cookie.
const (
	SameSiteLax    = "lax"
	SameSiteStrict = "strict"
	SameSiteNone   = "none"
)

// Config holds the session manager settings. Build it from
// DefaultConfig and override fields; the zero value is not usable.
type Config struct {
	// Lifetime
	TTL               time.Duration // idle timeout, default 1h
	AbsoluteTimeout   time.Duration // hard cap since creation, 0 = none
	SlidingExpiration bool
	SlidingThreshold  float64 // fraction of TTL that must pass before renewal, in [0,1]

	// Cookie transport
	CookieName     string
	CookieMaxAge   time.Duration // 0 = session cookie
	CookiePath     string
	CookieDomain   string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite string

	// Header / bearer transport
	HeaderName          string
	UseBearerToken      bool
	TokenSourcePriority []TokenSource

	// Security
	SecretKey         string // >= 32 bytes, required
	IPBinding         bool
	UserAgentBinding  bool
	RegenerateOnLogin bool

	// CSRF token generation (enforcement is the caller's concern)
	EnableCSRF     bool
	CSRFCookieName string
	CSRFHeaderName string

	// Storage
	BackendKeyPrefix string

	// Token format
	TokenFormat  TokenFormat
	JWTAlgorithm string // HS256 (default), HS384, HS512
	JWTIssuer    string
	JWTAudience  string
}

// DefaultConfig returns the documented defaults. SecretKey must still be
// set by the caller.
func DefaultConfig() Config {
	return Config{
		TTL:                 time.Hour,
		SlidingExpiration:   true,
		SlidingThreshold:    0.5,
		CookieName:          "cachex_session",
		CookiePath:          "/",
		CookieSecure:        true,
		CookieHTTPOnly:      true,
		CookieSameSite:      SameSiteLax,
		HeaderName:          "X-Session-Token",
		UseBearerToken:      true,
		TokenSourcePriority: []TokenSource{TokenSourceCookie, TokenSourceHeader, TokenSourceBearer},
		RegenerateOnLogin:   true,
		CSRFCookieName:      "cachex_csrf",
		CSRFHeaderName:      "X-CSRF-Token",
		BackendKeyPrefix:    "session:",
		TokenFormat:         TokenFormatSimple,
		JWTAlgorithm:        "HS256",
	}
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if len(c.SecretKey) < security.MinSecretLength {
		return fmt.Errorf("%w: secret key must be at least %d characters", ErrInvalidConfig, security.MinSecretLength)
	}
	if c.TTL <= 0 {
		return fmt.Errorf("%w: TTL must be positive", ErrInvalidConfig)
	}
	if c.SlidingThreshold < 0 || c.SlidingThreshold > 1 {
		return fmt.Errorf("%w: sliding threshold must be in [0, 1]", ErrInvalidConfig)
	}
	switch c.CookieSameSite {
	case SameSiteLax, SameSiteStrict, SameSiteNone:
	default:
		return fmt.Errorf("%w: unknown samesite value %q", ErrInvalidConfig, c.CookieSameSite)
	}
	switch c.TokenFormat {
	case TokenFormatSimple, TokenFormatJWT:
	default:
		return fmt.Errorf("%w: unknown token format %q", ErrInvalidConfig, c.TokenFormat)
	}
	if c.TokenFormat == TokenFormatJWT {
		switch c.JWTAlgorithm {
		case "HS256", "HS384", "HS512":
		default:
			return fmt.Errorf("%w: unsupported JWT algorithm %q", ErrInvalidConfig, c.JWTAlgorithm)
		}
	}
	for _, src := range c.TokenSourcePriority {
		switch src {
		case TokenSourceCookie, TokenSourceHeader, TokenSourceBearer:
		default:
			return fmt.Errorf("%w: unknown token source %q", ErrInvalidConfig, src)
		}
	}
	return nil
}
