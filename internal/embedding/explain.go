package embedding

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"hellio/internal/llm"
	"hellio/internal/storage"
)

const explainConcurrency = 4

// Generator is the slice of the inference client the explainer needs.
type Generator interface {
	Generate(ctx context.Context, operation, prompt string) (llm.Generation, error)
}

// Explainer produces natural-language match explanations, memoized per
// (candidate, position) pair. Cached text is returned unchanged even when
// the similarity context has since drifted, so displayed text stays
// stable.
type Explainer struct {
	store *storage.Store
	gen   Generator
	log   *zap.Logger
}

func NewExplainer(store *storage.Store, gen Generator, log *zap.Logger) *Explainer {
	return &Explainer{store: store, gen: gen, log: log}
}

// Pair identifies one explanation request.
type Pair struct {
	CandidateID string
	PositionID  string
	Similarity  float64
}

// Explain resolves explanations for all pairs concurrently and joins the
// results, index-aligned with the input. A failed pair yields an empty
// string and never affects its siblings.
func (x *Explainer) Explain(ctx context.Context, pairs []Pair) []string {
	out := make([]string, len(pairs))

	var g errgroup.Group
	g.SetLimit(explainConcurrency)
	for i, pair := range pairs {
		g.Go(func() error {
			text, err := x.explainPair(ctx, pair)
			if err != nil {
				x.log.Warn("explanation generation failed",
					zap.String("candidate_id", pair.CandidateID),
					zap.String("position_id", pair.PositionID),
					zap.Error(err))
				return nil
			}
			out[i] = text
			return nil
		})
	}
	_ = g.Wait()

	return out
}

func (x *Explainer) explainPair(ctx context.Context, pair Pair) (string, error) {
	cached, err := x.store.GetExplanation(ctx, pair.CandidateID, pair.PositionID)
	if err != nil {
		return "", fmt.Errorf("explanation cache lookup: %w", err)
	}
	if cached != nil {
		return cached.Text, nil
	}

	candText, posText, err := x.canonicalTexts(ctx, pair)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`You are an experienced technical recruiter.

Candidate profile:
%s

Open position:
%s

In two or three sentences, explain why this candidate is (or is not) a good fit for the position. Be concrete about matching and missing skills. Do not mention similarity scores.`, candText, posText)

	gen, err := x.gen.Generate(ctx, "explain_match", prompt)
	if err != nil {
		return "", fmt.Errorf("generate explanation: %w", err)
	}

	if err := x.store.UpsertExplanation(ctx, pair.CandidateID, pair.PositionID, gen.Text, pair.Similarity); err != nil {
		return "", err
	}
	return gen.Text, nil
}

// canonicalTexts prefers the stored embedding source text and falls back
// to rebuilding it from the loaded entity.
func (x *Explainer) canonicalTexts(ctx context.Context, pair Pair) (string, string, error) {
	cand, err := x.store.GetCandidate(ctx, pair.CandidateID)
	if err != nil {
		return "", "", fmt.Errorf("load candidate: %w", err)
	}
	candText := cand.EmbeddingText
	if candText == "" {
		candText = CandidateText(cand)
	}

	pos, err := x.store.GetPosition(ctx, pair.PositionID)
	if err != nil {
		return "", "", fmt.Errorf("load position: %w", err)
	}
	posText := pos.EmbeddingText
	if posText == "" {
		posText = PositionText(pos)
	}

	return candText, posText, nil
}
