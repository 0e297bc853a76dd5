package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwtClaims is the claim set carried by JWT-format session tokens:
// {sid, iat, exp, iss?, aud?}.
type jwtClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

func (m *Manager) signingMethod() jwt.SigningMethod {
	switch m.cfg.JWTAlgorithm {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

// encodeJWT serialises a session reference into a JWS compact token.
func (m *Manager) encodeJWT(sessionID string, expiresAt *time.Time) (string, error) {
	now := m.now()
	claims := jwtClaims{
		SID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if expiresAt != nil {
		claims.ExpiresAt = jwt.NewNumericDate(*expiresAt)
	}
	if m.cfg.JWTIssuer != "" {
		claims.Issuer = m.cfg.JWTIssuer
	}
	if m.cfg.JWTAudience != "" {
		claims.Audience = jwt.ClaimStrings{m.cfg.JWTAudience}
	}

	token := jwt.NewWithClaims(m.signingMethod(), claims)
	signed, err := token.SignedString([]byte(m.cfg.SecretKey))
	if err != nil {
		return "", errors.Join(ErrTokenInvalid, err)
	}
	return signed, nil
}

// decodeJWT verifies a JWS compact token and returns the session id from
// its sid claim. Any JWT-level failure maps to ErrTokenInvalid; a valid
// JWT without a usable sid claim maps to ErrInvalidPayload.
func (m *Manager) decodeJWT(raw string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.cfg.JWTAlgorithm}),
		jwt.WithTimeFunc(m.now),
	}
	if m.cfg.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(m.cfg.JWTIssuer))
	}
	if m.cfg.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(m.cfg.JWTAudience))
	}

	var claims jwtClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return []byte(m.cfg.SecretKey), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: token expired", ErrTokenInvalid)
		}
		return "", errors.Join(ErrTokenInvalid, err)
	}
	if claims.SID == "" {
		return "", ErrInvalidPayload
	}
	return claims.SID, nil
}
