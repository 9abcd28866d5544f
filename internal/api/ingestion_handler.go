package api

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"hellio/internal/llm"
	"hellio/internal/pipeline"
)

const maxUploadBytes = 10 << 20 // 10MB

// UploadHandler ingests a CV or job posting document.
// Accepts multipart/form-data with a "file" part; ?type=cv|job selects the
// document kind.
func (a *API) UploadHandler(w http.ResponseWriter, r *http.Request) {
	kind := llm.DocKind(r.URL.Query().Get("type"))
	if kind != llm.KindCV && kind != llm.KindJob {
		writeError(w, http.StatusBadRequest, "type must be cv or job")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid (max 10MB)")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	result, err := a.pipeline.Ingest(r.Context(), pipeline.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Kind:        kind,
		Data:        data,
	})
	if err != nil {
		a.log.Warn("ingestion request failed",
			zap.String("filename", header.Filename), zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"logId":  result.LogID,
			"status": result.Status,
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, result)
}
