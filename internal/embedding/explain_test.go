package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"

	"hellio/internal/llm"
)

type fakeGenerator struct {
	calls   atomic.Int64
	failOn  string // substring of the prompt that triggers a failure
	respond func(prompt string) string
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, prompt string) (llm.Generation, error) {
	f.calls.Add(1)
	if f.failOn != "" && strings.Contains(prompt, f.failOn) {
		return llm.Generation{}, errors.New("model unavailable")
	}
	text := "Strong overlap on backend skills."
	if f.respond != nil {
		text = f.respond(prompt)
	}
	return llm.Generation{Text: text, InputTokens: 10, OutputTokens: 20}, nil
}

func TestExplainCachesPerPair(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	candID := seedCandidate(t, store, "jane@example.com", 8, []float32{1, 0})
	posID := seedPosition(t, store, "Backend Engineer", 0, []float32{1, 0})

	gen := &fakeGenerator{}
	explainer := NewExplainer(store, gen, zap.NewNop())

	pairs := []Pair{{CandidateID: candID, PositionID: posID, Similarity: 0.9}}
	first := explainer.Explain(ctx, pairs)
	if len(first) != 1 || first[0] == "" {
		t.Fatalf("expected one explanation, got %+v", first)
	}
	if got := gen.calls.Load(); got != 1 {
		t.Fatalf("expected 1 model call, got %d", got)
	}

	second := explainer.Explain(ctx, pairs)
	if second[0] != first[0] {
		t.Fatalf("cached explanation changed: %q vs %q", first[0], second[0])
	}
	if got := gen.calls.Load(); got != 1 {
		t.Fatalf("cache hit must not call the model again, calls=%d", got)
	}
}

func TestExplainFailedPairDoesNotAffectSiblings(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	candID := seedCandidate(t, store, "jane@example.com", 8, []float32{1, 0})
	okID := seedPosition(t, store, "Backend Engineer", 0, []float32{1, 0})
	// No stored embedding text, so the prompt is rebuilt from the entity
	// and carries the title the fake generator fails on.
	failID := seedPosition(t, store, "Doomed Role", 0, nil)
	otherID := seedPosition(t, store, "Platform Engineer", 0, []float32{1, 0})

	gen := &fakeGenerator{failOn: "Doomed Role"}
	explainer := NewExplainer(store, gen, zap.NewNop())

	out := explainer.Explain(ctx, []Pair{
		{CandidateID: candID, PositionID: okID, Similarity: 0.9},
		{CandidateID: candID, PositionID: failID, Similarity: 0.8},
		{CandidateID: candID, PositionID: otherID, Similarity: 0.7},
	})
	if len(out) != 3 {
		t.Fatalf("output must be index-aligned with input, got %d entries", len(out))
	}
	if out[0] == "" || out[2] == "" {
		t.Fatalf("sibling explanations lost to one failure: %+v", out)
	}
	if out[1] != "" {
		t.Fatalf("failed pair must yield an empty string, got %q", out[1])
	}

	// A failed pair is never cached, so a retry asks the model again.
	cached, err := store.GetExplanation(ctx, candID, failID)
	if err != nil {
		t.Fatalf("GetExplanation: %v", err)
	}
	if cached != nil {
		t.Fatalf("failure must not be cached, got %+v", cached)
	}
}

func TestExplainDistinctPairsGetDistinctEntries(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	candID := seedCandidate(t, store, "jane@example.com", 8, []float32{1, 0})
	firstID := seedPosition(t, store, "Backend Engineer", 0, []float32{1, 0})
	secondID := seedPosition(t, store, "Platform Engineer", 0, []float32{1, 0})

	gen := &fakeGenerator{respond: func(prompt string) string {
		return fmt.Sprintf("prompt length %d", len(prompt))
	}}
	explainer := NewExplainer(store, gen, zap.NewNop())

	explainer.Explain(ctx, []Pair{
		{CandidateID: candID, PositionID: firstID, Similarity: 0.9},
		{CandidateID: candID, PositionID: secondID, Similarity: 0.8},
	})
	if got := gen.calls.Load(); got != 2 {
		t.Fatalf("expected 2 model calls, got %d", got)
	}

	first, err := store.GetExplanation(ctx, candID, firstID)
	if err != nil || first == nil {
		t.Fatalf("GetExplanation first pair: %v %v", first, err)
	}
	second, err := store.GetExplanation(ctx, candID, secondID)
	if err != nil || second == nil {
		t.Fatalf("GetExplanation second pair: %v %v", second, err)
	}
	if first.Similarity != 0.9 || second.Similarity != 0.8 {
		t.Fatalf("similarity snapshots wrong: %v %v", first.Similarity, second.Similarity)
	}
}
