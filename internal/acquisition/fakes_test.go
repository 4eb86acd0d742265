package acquisition

import (
	"context"
	"errors"
	"iter"

	"miam-planner/internal/clipper"
	"miam-planner/internal/llm"
	"miam-planner/internal/shared"
)

type fakePantry struct {
	names []string
	err   error
	calls int
}

func (f *fakePantry) Names(context.Context) ([]string, error) {
	f.calls++
	return f.names, f.err
}

type fakePages struct {
	page *clipper.Page
	err  error
}

func (f *fakePages) Fetch(_ context.Context, url string) (*clipper.Page, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := *f.page
	p.URL = url
	return &p, nil
}

// fakeStreamer replays chunks, then err if set.
type fakeStreamer struct {
	chunks []llm.StreamChunk
	err    error
	got    []llm.RecipeRequest
}

func (f *fakeStreamer) StreamRecipe(_ context.Context, req llm.RecipeRequest) iter.Seq2[llm.StreamChunk, error] {
	f.got = append(f.got, req)
	return stream(f.chunks, f.err)
}

func stream(chunks []llm.StreamChunk, err error) iter.Seq2[llm.StreamChunk, error] {
	return func(yield func(llm.StreamChunk, error) bool) {
		for _, c := range chunks {
			if !yield(c, nil) {
				return
			}
		}
		if err != nil {
			yield(llm.StreamChunk{}, err)
		}
	}
}

func textChunks(parts ...string) []llm.StreamChunk {
	out := make([]llm.StreamChunk, 0, len(parts))
	for _, p := range parts {
		out = append(out, llm.StreamChunk{Text: p})
	}
	return out
}

type fakeMetrics struct {
	metas []shared.AgentMeta
	err   error
}

func (f *fakeMetrics) RecordMeta(_ context.Context, meta shared.AgentMeta) error {
	f.metas = append(f.metas, meta)
	return f.err
}

var errNetwork = errors.New("connection reset by peer")
