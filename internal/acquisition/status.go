package acquisition

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// StatusInterval is how often the waiting message changes.
const StatusInterval = 2500 * time.Millisecond

// StreamingMessage replaces the rotation once text has arrived.
const StreamingMessage = "Transcription en direct..."

// LoadingMessages rotate while no text has arrived yet.
var LoadingMessages = []string{
	"Connexion au cortex culinaire...",
	"Analyse visuelle en cours...",
	"Décodage des ingrédients...",
	"Transcription des étapes...",
	"Finalisation de la recette...",
}

// LoadingStatus tracks the status line shown during an acquisition.
type LoadingStatus struct {
	clock     clockwork.Clock
	mu        sync.Mutex
	idx       int
	streaming bool
}

func NewLoadingStatus(clock clockwork.Clock) *LoadingStatus {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &LoadingStatus{clock: clock}
}

// Message returns the current status line.
func (l *LoadingStatus) Message() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.streaming {
		return StreamingMessage
	}
	return LoadingMessages[l.idx]
}

// MarkStreaming switches to StreamingMessage for good.
func (l *LoadingStatus) MarkStreaming() {
	l.mu.Lock()
	l.streaming = true
	l.mu.Unlock()
}

// Run reports the first message, then the next one every StatusInterval
// until text streams or ctx ends.
func (l *LoadingStatus) Run(ctx context.Context, onChange func(string)) {
	onChange(l.Message())

	ticker := l.clock.NewTicker(StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			l.mu.Lock()
			if l.streaming {
				l.mu.Unlock()
				return
			}
			l.idx = (l.idx + 1) % len(LoadingMessages)
			msg := LoadingMessages[l.idx]
			l.mu.Unlock()
			onChange(msg)
		}
	}
}
