package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"hellio/internal/embedding"
	"hellio/internal/pipeline"
	"hellio/internal/storage"
)

// API is the thin HTTP surface over the ingestion and matching core.
// Authentication and authorization live in front of it and are not its
// concern.
type API struct {
	store     *storage.Store
	pipeline  *pipeline.Pipeline
	engine    *embedding.Engine
	explainer *embedding.Explainer
	log       *zap.Logger
}

func NewAPI(store *storage.Store, pl *pipeline.Pipeline, engine *embedding.Engine, explainer *embedding.Explainer, log *zap.Logger) *API {
	return &API{store: store, pipeline: pl, engine: engine, explainer: explainer, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// queryInt reads an integer query parameter, falling back on absence or
// garbage.
func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// queryBool reads a boolean query parameter with a default.
func queryBool(r *http.Request, key string, fallback bool) bool {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return b
}
