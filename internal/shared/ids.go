package shared

import (
	"strconv"

	"github.com/jonboulle/clockwork"
)

// IDGenerator hands out creation-timestamp ids (milliseconds since epoch).
// Two ids taken in the same millisecond collide; callers accept that.
type IDGenerator struct {
	clock clockwork.Clock
}

// NewIDGenerator returns a generator reading time from clock. A nil clock
// means the real wall clock.
func NewIDGenerator(clock clockwork.Clock) *IDGenerator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &IDGenerator{clock: clock}
}

// NewID returns the current timestamp as a decimal string.
func (g *IDGenerator) NewID() string {
	return strconv.FormatInt(g.clock.Now().UnixMilli(), 10)
}
