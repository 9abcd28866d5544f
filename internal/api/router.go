package api

import "net/http"

func NewRouter(a *API) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	mux.HandleFunc("POST /api/ingestion/upload", a.UploadHandler)

	mux.HandleFunc("GET /api/candidates", a.ListCandidatesHandler)
	mux.HandleFunc("GET /api/candidates/{id}", a.GetCandidateHandler)
	mux.HandleFunc("GET /api/positions", a.ListPositionsHandler)
	mux.HandleFunc("GET /api/positions/{id}", a.GetPositionHandler)

	mux.HandleFunc("GET /api/embeddings/positions/{id}/suggest-candidates", a.SuggestCandidatesHandler)
	mux.HandleFunc("GET /api/embeddings/candidates/{id}/suggest-positions", a.SuggestPositionsHandler)

	return mux
}
