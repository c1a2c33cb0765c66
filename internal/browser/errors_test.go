// internal/browser/errors_test.go
package browser

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterfaceError(t *testing.T) {
	cause := errors.New("websocket: close 1006")
	err := NewInterfaceError("dispatch event", cause)

	assert.Contains(t, err.Error(), "dispatch event")
	assert.Contains(t, err.Error(), "websocket: close 1006")
	assert.ErrorIs(t, err, cause, "the cause must stay unwrappable")
}

func TestIsInterfaceError(t *testing.T) {
	t.Run("direct", func(t *testing.T) {
		assert.True(t, IsInterfaceError(NewInterfaceError("op", errors.New("x"))))
	})

	t.Run("wrapped", func(t *testing.T) {
		err := fmt.Errorf("session: %w", NewInterfaceError("op", errors.New("x")))
		assert.True(t, IsInterfaceError(err))
	})

	t.Run("element-level sentinels are not interface errors", func(t *testing.T) {
		assert.False(t, IsInterfaceError(ErrTargetMissing))
		assert.False(t, IsInterfaceError(ErrDispatchTimeout))
		assert.False(t, IsInterfaceError(ErrDOMNotReady))
		assert.False(t, IsInterfaceError(nil))
	})
}

func TestSentinelWrapping(t *testing.T) {
	err := fmt.Errorf("%w: %q", ErrTargetMissing, "#gone")
	require.ErrorIs(t, err, ErrTargetMissing)
	assert.NotErrorIs(t, err, ErrDispatchTimeout)
}
