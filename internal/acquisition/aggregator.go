package acquisition

import (
	"context"
	"iter"

	"miam-planner/internal/llm"
	"miam-planner/internal/recipe"
	"miam-planner/internal/shared"
)

// Result is the outcome of a completed stream.
type Result struct {
	Text    string
	Sources []recipe.Source
	Usage   shared.TokenUsage
}

// Aggregate drains a response stream. Fragments are concatenated in arrival
// order and onUpdate, when set, receives the whole buffer after every
// non-empty fragment. Sources are deduplicated by URI, the first title seen
// wins. A stream failure discards everything and returns a TransportError.
func Aggregate(ctx context.Context, stream iter.Seq2[llm.StreamChunk, error], onUpdate func(buffer string)) (*Result, error) {
	var (
		buf  []byte
		res  Result
		seen = map[string]struct{}{}
	)

	for chunk, err := range stream {
		if err != nil {
			return nil, &shared.TransportError{Op: "recipe stream", Err: err}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &shared.TransportError{Op: "recipe stream", Err: ctxErr}
		}

		if chunk.Text != "" {
			buf = append(buf, chunk.Text...)
			if onUpdate != nil {
				onUpdate(string(buf))
			}
		}
		for _, s := range chunk.Sources {
			if s.URI == "" {
				continue
			}
			if _, dup := seen[s.URI]; dup {
				continue
			}
			seen[s.URI] = struct{}{}
			res.Sources = append(res.Sources, s)
		}
		// Usage metadata is cumulative; the last report is the total.
		if !chunk.Usage.IsZero() {
			res.Usage = chunk.Usage
		}
	}

	res.Text = string(buf)
	return &res, nil
}
