package backend_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachex/core/backend"
)

func TestProxy(t *testing.T) {
	// Mutates process-wide state: not parallel.

	t.Run("empty slot fails with sentinel", func(t *testing.T) {
		backend.ResetCurrent()
		t.Cleanup(backend.ResetCurrent)

		_, err := backend.Current()
		assert.ErrorIs(t, err, backend.ErrBackendNotFound)
	})

	t.Run("set then current returns the same instance", func(t *testing.T) {
		backend.ResetCurrent()
		t.Cleanup(backend.ResetCurrent)

		mem := backend.NewMemory()
		backend.SetCurrent(mem)

		got, err := backend.Current()
		require.NoError(t, err)
		assert.Same(t, mem, got)
	})

	t.Run("reset empties the slot", func(t *testing.T) {
		backend.SetCurrent(backend.NewMemory())
		backend.ResetCurrent()

		_, err := backend.Current()
		assert.ErrorIs(t, err, backend.ErrBackendNotFound)
	})
}
