package session_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachex/core/session"
)

func validConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.SecretKey = strings.Repeat("s", 32)
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("defaults with a secret pass", func(t *testing.T) {
		t.Parallel()

		require.NoError(t, validConfig().Validate())
	})

	t.Run("short secret fails", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.SecretKey = strings.Repeat("s", 31)
		assert.ErrorIs(t, cfg.Validate(), session.ErrInvalidConfig)
	})

	t.Run("non positive ttl fails", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.TTL = 0
		assert.ErrorIs(t, cfg.Validate(), session.ErrInvalidConfig)
	})

	t.Run("sliding threshold outside unit interval fails", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.SlidingThreshold = 1.5
		assert.ErrorIs(t, cfg.Validate(), session.ErrInvalidConfig)

		cfg.SlidingThreshold = -0.1
		assert.ErrorIs(t, cfg.Validate(), session.ErrInvalidConfig)
	})

	t.Run("unknown samesite fails", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.CookieSameSite = "loose"
		assert.ErrorIs(t, cfg.Validate(), session.ErrInvalidConfig)
	})

	t.Run("unknown token format fails", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.TokenFormat = "paseto"
		assert.ErrorIs(t, cfg.Validate(), session.ErrInvalidConfig)
	})

	t.Run("unsupported jwt algorithm fails", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.TokenFormat = session.TokenFormatJWT
		cfg.JWTAlgorithm = "RS256"
		assert.ErrorIs(t, cfg.Validate(), session.ErrInvalidConfig)
	})

	t.Run("unknown token source fails", func(t *testing.T) {
		t.Parallel()

		cfg := validConfig()
		cfg.TokenSourcePriority = []session.TokenSource{"query"}
		assert.ErrorIs(t, cfg.Validate(), session.ErrInvalidConfig)
	})
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := session.DefaultConfig()
	assert.Equal(t, "cachex_session", cfg.CookieName)
	assert.Equal(t, "session:", cfg.BackendKeyPrefix)
	assert.Equal(t, session.TokenFormatSimple, cfg.TokenFormat)
	assert.True(t, cfg.SlidingExpiration)
	assert.Equal(t, 0.5, cfg.SlidingThreshold)
	assert.Equal(t,
		[]session.TokenSource{session.TokenSourceCookie, session.TokenSourceHeader, session.TokenSourceBearer},
		cfg.TokenSourcePriority)
}
