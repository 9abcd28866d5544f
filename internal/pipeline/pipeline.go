package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"hellio/internal/extract"
	"hellio/internal/llm"
	"hellio/internal/parser"
	"hellio/internal/schema"
	"hellio/internal/storage"
)

// Extractor is the slice of the inference client the pipeline needs.
type Extractor interface {
	Extract(ctx context.Context, kind llm.DocKind, docText string) llm.Extraction
}

// Embedder generates and persists entity embeddings.
type Embedder interface {
	EmbedCandidate(ctx context.Context, candidateID string) error
	EmbedPosition(ctx context.Context, positionID string) error
}

// Pipeline sequences one document through parse, deterministic extraction,
// structured extraction, validation and persistence, recording stage
// outcomes on an extraction log. Embedding runs detached as a best-effort
// tail step.
type Pipeline struct {
	store     *storage.Store
	extractor Extractor
	embedder  Embedder
	log       *zap.Logger

	embeds sync.WaitGroup
}

func New(store *storage.Store, extractor Extractor, embedder Embedder, log *zap.Logger) *Pipeline {
	return &Pipeline{store: store, extractor: extractor, embedder: embedder, log: log}
}

// Upload is one inbound document.
type Upload struct {
	Filename    string
	ContentType string
	Kind        llm.DocKind
	Data        []byte
}

// Result reports the outcome of one ingestion run.
type Result struct {
	LogID    uint   `json:"logId"`
	EntityID string `json:"entityId,omitempty"`
	Kind     string `json:"kind"`
	Status   string `json:"status"`
	Created  bool   `json:"created"`
}

// Ingest runs the full pipeline for one document. Exactly one terminal
// status lands on the extraction log; persistence defines success, so a
// failed embedding still reports success.
func (p *Pipeline) Ingest(ctx context.Context, up Upload) (Result, error) {
	start := time.Now()

	logID, err := p.store.CreateExtractionLog(ctx, up.Filename, string(up.Kind))
	if err != nil {
		return Result{}, fmt.Errorf("open extraction log: %w", err)
	}
	res := Result{LogID: logID, Kind: string(up.Kind), Status: "failed"}

	// Parse.
	parsed := parser.Parse(up.Data, up.Filename, up.ContentType)
	_ = p.store.UpdateExtractionLog(ctx, logID, map[string]any{
		"raw_text":     parsed.Text,
		"parse_millis": parsed.Elapsed.Milliseconds(),
	})
	if parsed.Err != "" {
		return res, p.fail(ctx, logID, start, "[parse] "+parsed.Err)
	}
	p.log.Info("stage complete",
		zap.Uint("log_id", logID), zap.String("stage", "parse"),
		zap.Duration("elapsed", parsed.Elapsed), zap.Int("text_len", len(parsed.Text)))

	// Deterministic extraction, advisory override of model output.
	contacts := extract.ExtractContacts(parsed.Text)
	var hints extract.JobHints
	if up.Kind == llm.KindJob {
		hints = extract.ExtractJobHints(parsed.Text)
		_ = p.store.UpdateExtractionLog(ctx, logID, map[string]any{
			"deterministic": storage.JSONColumn(hints),
		})
	} else {
		_ = p.store.UpdateExtractionLog(ctx, logID, map[string]any{
			"deterministic": storage.JSONColumn(contacts),
		})
	}

	// Structured extraction.
	extraction := p.extractor.Extract(ctx, up.Kind, parsed.Text)
	_ = p.store.UpdateExtractionLog(ctx, logID, map[string]any{
		"raw_llm_output": extraction.Raw,
		"parsed_output":  storage.JSONColumn(extraction.Data),
		"prompt_version": extraction.PromptVersion,
		"llm_millis":     extraction.Elapsed.Milliseconds(),
	})
	if extraction.Err != "" {
		return res, p.fail(ctx, logID, start, "[llm] "+extraction.Err)
	}
	p.log.Info("stage complete",
		zap.Uint("log_id", logID), zap.String("stage", "llm"),
		zap.Duration("elapsed", extraction.Elapsed),
		zap.String("prompt_version", extraction.PromptVersion))

	switch up.Kind {
	case llm.KindCV:
		return p.persistCandidate(ctx, logID, start, up, extraction.Data, contacts, res)
	case llm.KindJob:
		return p.persistPosition(ctx, logID, start, extraction.Data, hints, res)
	default:
		return res, p.fail(ctx, logID, start, fmt.Sprintf("[unexpected] unknown document kind %q", up.Kind))
	}
}

func (p *Pipeline) persistCandidate(ctx context.Context, logID uint, start time.Time, up Upload, data map[string]any, contacts extract.Contacts, res Result) (Result, error) {
	rec, violations := schema.ValidateCV(data)
	if len(violations) > 0 {
		_ = p.store.UpdateExtractionLog(ctx, logID, map[string]any{
			"validation_errors": storage.JSONColumn(violations),
		})
		return res, p.fail(ctx, logID, start, fmt.Sprintf("[validation] %d field violations", len(violations)))
	}

	// The deterministic extractor wins for the fields it found.
	if contacts.Email != nil {
		rec.Email = *contacts.Email
	}
	if contacts.Phone != nil {
		rec.Phone = *contacts.Phone
	}
	if contacts.LinkedIn != nil {
		rec.LinkedIn = *contacts.LinkedIn
	}
	if contacts.GitHub != nil {
		rec.GitHub = *contacts.GitHub
	}

	email := rec.Email
	if email == "" {
		email = storage.PlaceholderEmail()
	}

	id, created, err := p.store.SaveCandidate(ctx, rec, email)
	if err != nil {
		return res, p.fail(ctx, logID, start, "[unexpected] "+err.Error())
	}

	if len(up.Data) > 0 {
		if _, err := p.store.SaveCandidateFile(ctx, id, "cv", up.Filename, up.ContentType, up.Data); err != nil {
			return res, p.fail(ctx, logID, start, "[unexpected] "+err.Error())
		}
	}

	res.EntityID = id
	res.Created = created
	res.Status = "success"
	p.succeed(ctx, logID, start, id)

	if p.embedder != nil {
		p.detachEmbed(logID, "candidate", id, p.embedder.EmbedCandidate)
	}
	return res, nil
}

func (p *Pipeline) persistPosition(ctx context.Context, logID uint, start time.Time, data map[string]any, hints extract.JobHints, res Result) (Result, error) {
	rec, violations := schema.ValidateJob(data)
	if len(violations) > 0 {
		_ = p.store.UpdateExtractionLog(ctx, logID, map[string]any{
			"validation_errors": storage.JSONColumn(violations),
		})
		return res, p.fail(ctx, logID, start, fmt.Sprintf("[validation] %d field violations", len(violations)))
	}

	if hints.Title != nil {
		rec.Title = *hints.Title
	}
	if hints.Company != nil {
		rec.Company = *hints.Company
	}
	if hints.ContactEmail != nil {
		rec.ContactEmail = *hints.ContactEmail
	}

	id, err := p.store.CreatePosition(ctx, rec)
	if err != nil {
		return res, p.fail(ctx, logID, start, "[unexpected] "+err.Error())
	}

	res.EntityID = id
	res.Created = true
	res.Status = "success"
	p.succeed(ctx, logID, start, id)

	if p.embedder != nil {
		p.detachEmbed(logID, "position", id, p.embedder.EmbedPosition)
	}
	return res, nil
}

// detachEmbed runs embedding generation outside the request lifecycle.
// Failures are logged and swallowed: the entity is already durably
// persisted and can be backfilled later.
func (p *Pipeline) detachEmbed(logID uint, entityKind, id string, embed func(context.Context, string) error) {
	if p.embedder == nil {
		return
	}
	p.embeds.Add(1)
	go func() {
		defer p.embeds.Done()
		if err := embed(context.Background(), id); err != nil {
			p.log.Warn("embedding generation failed",
				zap.Uint("log_id", logID),
				zap.String("entity_kind", entityKind),
				zap.String("entity_id", id),
				zap.Error(err))
			return
		}
		p.log.Info("embedding stored",
			zap.Uint("log_id", logID),
			zap.String("entity_kind", entityKind),
			zap.String("entity_id", id))
	}()
}

// Wait blocks until all detached embedding work has finished. Used on
// shutdown and in tests.
func (p *Pipeline) Wait() {
	p.embeds.Wait()
}

func (p *Pipeline) succeed(ctx context.Context, logID uint, start time.Time, entityID string) {
	total := time.Since(start)
	_ = p.store.UpdateExtractionLog(ctx, logID, map[string]any{
		"status":       "success",
		"entity_id":    entityID,
		"total_millis": total.Milliseconds(),
	})
	p.log.Info("ingestion complete",
		zap.Uint("log_id", logID), zap.String("entity_id", entityID),
		zap.Duration("total", total))
}

// fail marks the run terminally failed with a stage-tagged message and
// returns it as the pipeline error.
func (p *Pipeline) fail(ctx context.Context, logID uint, start time.Time, msg string) error {
	total := time.Since(start)
	_ = p.store.UpdateExtractionLog(ctx, logID, map[string]any{
		"status":        "failed",
		"error_message": msg,
		"total_millis":  total.Milliseconds(),
	})
	p.log.Warn("ingestion failed",
		zap.Uint("log_id", logID), zap.String("error", msg), zap.Duration("total", total))
	return fmt.Errorf("%s", msg)
}
