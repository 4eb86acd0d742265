package acquisition

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) add(m string) {
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func TestLoadingStatus(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := clockwork.NewFakeClock()
	status := NewLoadingStatus(clock)
	rec := &recorder{}

	done := make(chan struct{})
	go func() {
		status.Run(ctx, rec.add)
		close(done)
	}()

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	for i := 0; i < len(LoadingMessages); i++ {
		clock.Advance(StatusInterval)
		want := i + 2
		require.Eventually(t, func() bool { return len(rec.snapshot()) == want }, time.Second, time.Millisecond)
	}

	got := rec.snapshot()
	assert.Equal(t, LoadingMessages, got[:len(LoadingMessages)])
	assert.Equal(t, LoadingMessages[0], got[len(LoadingMessages)], "rotation wraps around")

	status.MarkStreaming()
	assert.Equal(t, StreamingMessage, status.Message())

	clock.Advance(StatusInterval)
	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("Run did not stop after streaming started")
	}
	assert.Len(t, rec.snapshot(), len(LoadingMessages)+1)
}
