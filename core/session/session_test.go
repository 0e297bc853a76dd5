package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/cachex/core/session"
)

func TestUser_RolesAndPermissions(t *testing.T) {
	t.Parallel()

	user := &session.User{
		ID:          "u1",
		Roles:       []string{"admin", "editor"},
		Permissions: []string{"posts:write"},
	}

	assert.True(t, user.HasRole("admin"))
	assert.False(t, user.HasRole("viewer"))
	assert.True(t, user.HasPermission("posts:write"))
	assert.False(t, user.HasPermission("posts:delete"))

	var nobody *session.User
	assert.False(t, nobody.HasRole("admin"))
	assert.False(t, nobody.HasPermission("posts:write"))
}

func TestSession_DataAndFlashes(t *testing.T) {
	t.Parallel()

	sess := &session.Session{ID: "s1", Status: session.StatusActive}

	sess.Set("theme", "dark")
	v, ok := sess.Get("theme")
	assert.True(t, ok)
	assert.Equal(t, "dark", v)

	_, ok = sess.Get("missing")
	assert.False(t, ok)

	sess.AddFlash("saved", "success")
	sess.AddFlash("heads up", "warning")

	flashes := sess.PopFlashes()
	assert.Equal(t, []session.Flash{
		{Message: "saved", Category: "success"},
		{Message: "heads up", Category: "warning"},
	}, flashes)
	assert.Empty(t, sess.PopFlashes(), "pop drains the queue")
}

func TestSession_Validity(t *testing.T) {
	t.Parallel()

	t.Run("no expiry never expires", func(t *testing.T) {
		t.Parallel()

		sess := &session.Session{Status: session.StatusActive}
		assert.False(t, sess.IsExpired())
		assert.True(t, sess.IsValid())
	})

	t.Run("past expiry", func(t *testing.T) {
		t.Parallel()

		past := time.Now().Add(-time.Minute)
		sess := &session.Session{Status: session.StatusActive, ExpiresAt: &past}
		assert.True(t, sess.IsExpired())
		assert.False(t, sess.IsValid())
	})

	t.Run("invalidated is never valid", func(t *testing.T) {
		t.Parallel()

		future := time.Now().Add(time.Hour)
		sess := &session.Session{Status: session.StatusInvalidated, ExpiresAt: &future}
		assert.False(t, sess.IsExpired())
		assert.False(t, sess.IsValid())
	})
}
