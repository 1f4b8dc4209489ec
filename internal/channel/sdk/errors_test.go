package sdk

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelError(t *testing.T) {
	t.Run("Error returns formatted message with method", func(t *testing.T) {
		err := &ChannelError{
			Channel: "flutter_taerae",
			Method:  "getPlatformVersion",
			Err:     errors.New("connection reset"),
		}

		assert.Equal(t, "channel flutter_taerae: getPlatformVersion: connection reset", err.Error())
	})

	t.Run("Error returns formatted message without method", func(t *testing.T) {
		err := &ChannelError{
			Channel: "flutter_taerae",
			Err:     errors.New("plugin exited"),
		}

		assert.Equal(t, "channel flutter_taerae: plugin exited", err.Error())
	})

	t.Run("Unwrap exposes sentinel", func(t *testing.T) {
		err := NewChannelError("flutter_taerae", "", ErrChannelNotFound)

		assert.True(t, IsChannelNotFound(err))
		assert.Equal(t, ErrChannelNotFound, err.Unwrap())
	})
}

func TestLoadError(t *testing.T) {
	t.Run("with underlying error", func(t *testing.T) {
		underlying := errors.New("exec format error")
		err := NewLoadError("/opt/plugins/platform", "failed to connect", underlying)

		assert.Equal(t, `failed to load plugin "/opt/plugins/platform": failed to connect: exec format error`, err.Error())
		assert.ErrorIs(t, err, underlying)
	})

	t.Run("without underlying error", func(t *testing.T) {
		err := NewLoadError("/opt/plugins/platform", "binary path is not a regular file", nil)

		assert.Equal(t, `failed to load plugin "/opt/plugins/platform": binary path is not a regular file`, err.Error())
		assert.Nil(t, err.Unwrap())
	})
}

func TestMethodError(t *testing.T) {
	err := NewMethodError("BAD_ARGS", "expected a map", nil)
	assert.Equal(t, "BAD_ARGS: expected a map", err.Error())

	bare := NewMethodError("UNAVAILABLE", "", nil)
	assert.Equal(t, "UNAVAILABLE", bare.Error())

	var target *MethodError
	wrapped := fmt.Errorf("handler: %w", err)
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "BAD_ARGS", target.Code)
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsCircuitOpen(fmt.Errorf("invoke: %w", ErrCircuitOpen)))
	assert.False(t, IsCircuitOpen(ErrTimeout))
	assert.True(t, IsTimeout(NewChannelError("c", "m", ErrTimeout)))
	assert.False(t, IsChannelNotFound(nil))
}
