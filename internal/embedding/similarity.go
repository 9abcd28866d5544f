package embedding

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"hellio/internal/storage"
)

const (
	// MaxResults caps top-K regardless of the caller-requested limit.
	MaxResults = 10
	// SimilarityFloor is the minimum cosine similarity for a
	// candidate-to-position match.
	SimilarityFloor = 0.5

	// NoRelevantPositions is returned instead of forcing weak matches.
	NoRelevantPositions = "no sufficiently relevant positions found"
)

// Engine ranks entities by cosine similarity over persisted embeddings.
type Engine struct {
	store  *storage.Store
	client *Client
	log    *zap.Logger
}

func NewEngine(store *storage.Store, client *Client, log *zap.Logger) *Engine {
	return &Engine{store: store, client: client, log: log}
}

// PositionMatch is one ranked result of candidate-to-position matching.
type PositionMatch struct {
	PositionID  string  `json:"positionId"`
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	Similarity  float64 `json:"similarity"`
	Explanation string  `json:"explanation,omitempty"`
}

// CandidateMatch is one ranked result of position-to-candidate matching.
type CandidateMatch struct {
	CandidateID string  `json:"candidateId"`
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Similarity  float64 `json:"similarity"`
	Explanation string  `json:"explanation,omitempty"`
}

// SuggestPositions ranks open positions for a candidate. Matches below the
// similarity floor are dropped; when experienceFilter is on, positions the
// candidate does not meet on years of experience are excluded. An empty
// result carries an explanatory message rather than forcing matches.
func (e *Engine) SuggestPositions(ctx context.Context, candidateID string, limit int, experienceFilter bool) ([]PositionMatch, string, error) {
	cand, err := e.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, "", fmt.Errorf("load candidate: %w", err)
	}

	vec := storage.DecodeVector(cand.Embedding)
	if vec == nil {
		return nil, "candidate embedding not yet computed", nil
	}

	positions, err := e.store.ListEmbeddedPositions(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("list positions: %w", err)
	}

	var matches []PositionMatch
	for _, pos := range positions {
		sim := Cosine(vec, storage.DecodeVector(pos.Embedding))
		if sim < SimilarityFloor {
			continue
		}
		if experienceFilter && pos.MinYears > 0 && cand.YearsExperience < pos.MinYears {
			continue
		}
		matches = append(matches, PositionMatch{
			PositionID: pos.ID,
			Title:      pos.Title,
			Company:    pos.Company,
			Similarity: sim,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	matches = capResults(matches, limit)

	if len(matches) == 0 {
		return nil, NoRelevantPositions, nil
	}
	return matches, "", nil
}

// SuggestCandidates ranks candidates for a position, excluding candidates
// already assigned to it. No similarity floor applies; the count is
// caller-limited and capped.
func (e *Engine) SuggestCandidates(ctx context.Context, positionID string, limit int) ([]CandidateMatch, error) {
	pos, err := e.store.GetPosition(ctx, positionID)
	if err != nil {
		return nil, fmt.Errorf("load position: %w", err)
	}

	vec := storage.DecodeVector(pos.Embedding)
	if vec == nil {
		return nil, nil
	}

	assignedIDs, err := e.store.AssignedCandidateIDs(ctx, positionID)
	if err != nil {
		return nil, fmt.Errorf("list assigned candidates: %w", err)
	}
	assigned := make(map[string]bool, len(assignedIDs))
	for _, id := range assignedIDs {
		assigned[id] = true
	}

	candidates, err := e.store.ListEmbeddedCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	var matches []CandidateMatch
	for _, cand := range candidates {
		if assigned[cand.ID] {
			continue
		}
		sim := Cosine(vec, storage.DecodeVector(cand.Embedding))
		matches = append(matches, CandidateMatch{
			CandidateID: cand.ID,
			Name:        cand.Name,
			Email:       cand.Email,
			Similarity:  sim,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Similarity > matches[j].Similarity })
	return capResults(matches, limit), nil
}

// EmbedCandidate builds the canonical text, requests a vector and stores
// both. The caller decides whether a failure is fatal; for pipeline runs
// it never is.
func (e *Engine) EmbedCandidate(ctx context.Context, candidateID string) error {
	cand, err := e.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return fmt.Errorf("load candidate: %w", err)
	}
	text := CandidateText(cand)
	vec, err := e.client.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed candidate: %w", err)
	}
	return e.store.SetCandidateEmbedding(ctx, candidateID, vec, text)
}

// EmbedPosition is the position counterpart of EmbedCandidate.
func (e *Engine) EmbedPosition(ctx context.Context, positionID string) error {
	pos, err := e.store.GetPosition(ctx, positionID)
	if err != nil {
		return fmt.Errorf("load position: %w", err)
	}
	text := PositionText(pos)
	vec, err := e.client.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed position: %w", err)
	}
	return e.store.SetPositionEmbedding(ctx, positionID, vec, text)
}

func capResults[T any](matches []T, limit int) []T {
	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}

// Cosine computes cosine similarity between two vectors. Mismatched or
// empty vectors score zero.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
