package shared

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestIDGenerator(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.UnixMilli(1700000000123))
	gen := NewIDGenerator(clock)

	assert.Equal(t, "1700000000123", gen.NewID())

	clock.Advance(5 * time.Millisecond)
	assert.Equal(t, "1700000000128", gen.NewID())
}

func TestErrorTaxonomy(t *testing.T) {
	t.Run("TransportUnwraps", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := fmt.Errorf("failed to stream recipe: %w", &TransportError{Op: "stream", Err: cause})

		assert.True(t, IsTransport(err))
		assert.False(t, IsGeneration(err))
		assert.ErrorIs(t, err, cause)
	})

	t.Run("GenerationWrapsSentinel", func(t *testing.T) {
		err := &GenerationError{Stage: "video", Reason: "timed out", Err: ErrVideoTimeout}

		assert.True(t, IsGeneration(err))
		assert.ErrorIs(t, err, ErrVideoTimeout)
		assert.Contains(t, err.Error(), "video generation failed")
	})
}
