package api

import (
	"net/http"

	"hellio/internal/embedding"
)

// SuggestCandidatesHandler ranks candidates for a position by embedding
// similarity. ?limit= is clamped to the engine cap; ?explain=true attaches
// cached or freshly generated explanations.
func (a *API) SuggestCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	positionID := r.PathValue("id")
	limit := queryInt(r, "limit", embedding.MaxResults)
	explain := queryBool(r, "explain", false)

	matches, err := a.engine.SuggestCandidates(r.Context(), positionID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if explain && len(matches) > 0 {
		pairs := make([]embedding.Pair, len(matches))
		for i, m := range matches {
			pairs[i] = embedding.Pair{CandidateID: m.CandidateID, PositionID: positionID, Similarity: m.Similarity}
		}
		texts := a.explainer.Explain(r.Context(), pairs)
		for i := range matches {
			matches[i].Explanation = texts[i]
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"positionId": positionID,
		"matches":    matches,
	})
}

// SuggestPositionsHandler ranks open positions for a candidate.
// ?experienceFilter= toggles the experience feasibility filter (on by
// default); matches below the similarity floor are never returned.
func (a *API) SuggestPositionsHandler(w http.ResponseWriter, r *http.Request) {
	candidateID := r.PathValue("id")
	limit := queryInt(r, "limit", embedding.MaxResults)
	explain := queryBool(r, "explain", false)
	experienceFilter := queryBool(r, "experienceFilter", true)

	matches, message, err := a.engine.SuggestPositions(r.Context(), candidateID, limit, experienceFilter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if explain && len(matches) > 0 {
		pairs := make([]embedding.Pair, len(matches))
		for i, m := range matches {
			pairs[i] = embedding.Pair{CandidateID: candidateID, PositionID: m.PositionID, Similarity: m.Similarity}
		}
		texts := a.explainer.Explain(r.Context(), pairs)
		for i := range matches {
			matches[i].Explanation = texts[i]
		}
	}

	resp := map[string]any{
		"candidateId": candidateID,
		"matches":     matches,
	}
	if message != "" {
		resp["message"] = message
	}
	writeJSON(w, http.StatusOK, resp)
}
