package parser

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"code.sajari.com/docconv"
)

const (
	mimePDF  = "application/pdf"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Result carries the extracted text of a document. A decode failure is
// reported through Err rather than a Go error so callers can record it on
// the extraction log and fail the run as a stage outcome.
type Result struct {
	Text    string
	Elapsed time.Duration
	Err     string
}

// Parse extracts plain text from a document buffer. The file kind is
// detected from the filename extension first, then from the declared
// content type.
func Parse(data []byte, filename, contentType string) Result {
	start := time.Now()

	kind := detectKind(filename, contentType)

	var text string
	var err error

	switch kind {
	case "pdf":
		res, convErr := docconv.Convert(bytes.NewReader(data), mimePDF, true)
		if convErr != nil {
			err = fmt.Errorf("parse pdf: %w", convErr)
		} else {
			text = res.Body
		}
	case "docx":
		res, convErr := docconv.Convert(bytes.NewReader(data), mimeDOCX, true)
		if convErr != nil {
			err = fmt.Errorf("parse docx: %w", convErr)
		} else {
			text = res.Body
		}
	case "txt":
		text = string(data)
	default:
		err = fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	result := Result{Text: strings.TrimSpace(text), Elapsed: time.Since(start)}
	if err != nil {
		result.Text = ""
		result.Err = err.Error()
	}
	return result
}

func detectKind(filename, contentType string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "pdf"
	case ".docx", ".doc":
		return "docx"
	case ".txt":
		return "txt"
	}

	// No usable extension; fall back to the declared MIME type.
	mediaType := contentType
	if i := strings.Index(mediaType, ";"); i >= 0 {
		mediaType = mediaType[:i]
	}
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))

	switch {
	case mediaType == mimePDF:
		return "pdf"
	case mediaType == mimeDOCX || mediaType == "application/msword":
		return "docx"
	case strings.HasPrefix(mediaType, "text/"):
		return "txt"
	}
	return ""
}
