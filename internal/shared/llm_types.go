package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a single model call.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// IsZero reports whether the call reported no usage at all (cache hits, fakes).
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// AgentMeta holds operational metadata for one generation step.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}

// NewAgentMeta stamps the latency of a step that began at start.
func NewAgentMeta(agent string, usage TokenUsage, start, end time.Time) AgentMeta {
	return AgentMeta{
		AgentName: agent,
		Usage:     usage,
		Latency:   end.Sub(start),
	}
}
