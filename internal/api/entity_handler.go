package api

import (
	"errors"
	"net/http"

	"gorm.io/gorm"
)

// ListCandidatesHandler returns all candidates without child collections.
func (a *API) ListCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	candidates, err := a.store.ListCandidates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

// GetCandidateHandler returns one candidate with all owned child data.
func (a *API) GetCandidateHandler(w http.ResponseWriter, r *http.Request) {
	cand, err := a.store.GetCandidate(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "candidate not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, cand)
}

// ListPositionsHandler returns all positions without child collections.
func (a *API) ListPositionsHandler(w http.ResponseWriter, r *http.Request) {
	positions, err := a.store.ListPositions(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

// GetPositionHandler returns one position with skills and requirements.
func (a *API) GetPositionHandler(w http.ResponseWriter, r *http.Request) {
	pos, err := a.store.GetPosition(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(w, http.StatusNotFound, "position not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, pos)
}
