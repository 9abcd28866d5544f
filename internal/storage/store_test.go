package storage

import (
	"context"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"hellio/internal/schema"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "hellio.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store, err := NewStore(db)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func sampleCV() *schema.CVRecord {
	return &schema.CVRecord{
		Name:            "Jane Doe",
		Email:           "jane@example.com",
		Location:        "Berlin, Germany",
		Summary:         "Backend engineer focused on distributed systems and developer tooling.",
		YearsExperience: 8,
		Skills: []schema.SkillEntry{
			{Name: "Go", Level: "Expert"},
			{Name: "PostgreSQL", Level: "Advanced"},
		},
		Languages: []string{"English", "German"},
		Experience: []schema.ExperienceEntry{
			{Company: "Acme", Title: "Senior Engineer", StartDate: "2019-03", EndDate: "present",
				Highlights: []string{"Led payments team", "Cut p99 latency in half"}},
		},
		Education: []schema.EducationEntry{
			{Degree: "BSc", Field: "Computer Science", Institution: "TU Berlin", Year: 2015},
		},
		Certifications: []string{"CKA"},
	}
}

func TestSaveCandidateCreateThenUpdateInPlace(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	id, created, err := store.SaveCandidate(ctx, sampleCV(), "Jane@Example.com")
	if err != nil {
		t.Fatalf("SaveCandidate error: %v", err)
	}
	if !created {
		t.Fatal("expected first ingestion to create the candidate")
	}

	// Re-ingesting the same email must update the existing row, not
	// create a second candidate.
	updated := sampleCV()
	updated.Summary = "Rewritten summary after a second ingestion of the same résumé document."
	updated.Skills = []schema.SkillEntry{{Name: "Go", Level: "Expert"}, {Name: "Kubernetes"}}

	id2, created2, err := store.SaveCandidate(ctx, updated, "jane@example.com")
	if err != nil {
		t.Fatalf("SaveCandidate update error: %v", err)
	}
	if created2 {
		t.Fatal("expected an in-place update, got a create")
	}
	if id2 != id {
		t.Fatalf("candidate id changed on re-ingestion: %s vs %s", id, id2)
	}

	cand, err := store.GetCandidate(ctx, id)
	if err != nil {
		t.Fatalf("GetCandidate error: %v", err)
	}
	if cand.Email != "jane@example.com" {
		t.Fatalf("email not normalized: %s", cand.Email)
	}
	if cand.Summary != updated.Summary {
		t.Fatal("scalar fields not overwritten")
	}
	// Children are replaced, not merged.
	if len(cand.Skills) != 2 || cand.Skills[1].Skill.Name != "Kubernetes" {
		t.Fatalf("skills not replaced: %+v", cand.Skills)
	}
}

func TestSaveCandidateDistinctEmails(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	id1, _, err := store.SaveCandidate(ctx, sampleCV(), "jane@example.com")
	if err != nil {
		t.Fatalf("SaveCandidate error: %v", err)
	}
	other := sampleCV()
	other.Name = "John Roe"
	id2, created, err := store.SaveCandidate(ctx, other, "john@example.com")
	if err != nil {
		t.Fatalf("SaveCandidate error: %v", err)
	}
	if !created || id1 == id2 {
		t.Fatalf("distinct emails must create distinct candidates: %s vs %s", id1, id2)
	}
}

func TestSkillRowsSharedAcrossCandidates(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if _, _, err := store.SaveCandidate(ctx, sampleCV(), "a@example.com"); err != nil {
		t.Fatalf("SaveCandidate error: %v", err)
	}
	if _, _, err := store.SaveCandidate(ctx, sampleCV(), "b@example.com"); err != nil {
		t.Fatalf("SaveCandidate error: %v", err)
	}

	var count int64
	if err := store.db.Model(&Skill{}).Where("name = ?", "Go").Count(&count).Error; err != nil {
		t.Fatalf("count skills: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one shared Go skill row, got %d", count)
	}
}

func TestFileVersioning(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	id, _, err := store.SaveCandidate(ctx, sampleCV(), "jane@example.com")
	if err != nil {
		t.Fatalf("SaveCandidate error: %v", err)
	}

	v1, err := store.SaveCandidateFile(ctx, id, "cv", "cv_v1.pdf", "application/pdf", []byte("first"))
	if err != nil {
		t.Fatalf("SaveCandidateFile error: %v", err)
	}
	v2, err := store.SaveCandidateFile(ctx, id, "cv", "cv_v2.pdf", "application/pdf", []byte("second"))
	if err != nil {
		t.Fatalf("SaveCandidateFile error: %v", err)
	}

	if v1 != 1 || v2 != 2 {
		t.Fatalf("expected versions 1 then 2, got %d then %d", v1, v2)
	}

	files, err := store.ListCandidateFiles(ctx, id, "cv")
	if err != nil {
		t.Fatalf("ListCandidateFiles error: %v", err)
	}
	currentCount := 0
	for _, f := range files {
		if f.Current {
			currentCount++
		}
	}
	if currentCount != 1 {
		t.Fatalf("exactly one version must be current, got %d", currentCount)
	}

	current, err := store.GetCurrentFile(ctx, id, "cv")
	if err != nil {
		t.Fatalf("GetCurrentFile error: %v", err)
	}
	if current == nil || current.Version != 2 || current.Filename != "cv_v2.pdf" {
		t.Fatalf("unexpected current version: %+v", current)
	}
}

func TestPositionAlwaysCreated(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	job := &schema.JobRecord{
		Title:   "Platform Engineer",
		Company: "Acme",
		Skills:  []string{"Go", "Kubernetes"},
		Requirements: []schema.Requirement{
			{Text: "5+ years of Go", Required: true},
			{Text: "Kafka exposure", Required: false},
		},
		MinYearsExperience: 5,
		ContactEmail:       "Hiring@Acme.example",
	}

	id1, err := store.CreatePosition(ctx, job)
	if err != nil {
		t.Fatalf("CreatePosition error: %v", err)
	}
	id2, err := store.CreatePosition(ctx, job)
	if err != nil {
		t.Fatalf("CreatePosition error: %v", err)
	}
	if id1 == id2 {
		t.Fatal("job ingestions must never deduplicate")
	}

	pos, err := store.GetPosition(ctx, id1)
	if err != nil {
		t.Fatalf("GetPosition error: %v", err)
	}
	if pos.ContactEmail != "hiring@acme.example" {
		t.Fatalf("contact email not normalized: %s", pos.ContactEmail)
	}
	if len(pos.Requirements) != 2 || pos.Requirements[1].Required {
		t.Fatalf("requirements not stored in order with flags: %+v", pos.Requirements)
	}
}

func TestExplanationUpsertByPair(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertExplanation(ctx, "cand_1", "pos_1", "first text", 0.61); err != nil {
		t.Fatalf("UpsertExplanation error: %v", err)
	}
	if err := store.UpsertExplanation(ctx, "cand_1", "pos_1", "second text", 0.72); err != nil {
		t.Fatalf("UpsertExplanation error: %v", err)
	}

	var count int64
	if err := store.db.Model(&Explanation{}).Count(&count).Error; err != nil {
		t.Fatalf("count explanations: %v", err)
	}
	if count != 1 {
		t.Fatalf("pair must stay unique, got %d rows", count)
	}

	entry, err := store.GetExplanation(ctx, "cand_1", "pos_1")
	if err != nil {
		t.Fatalf("GetExplanation error: %v", err)
	}
	if entry.Text != "second text" || entry.Similarity != 0.72 {
		t.Fatalf("last write must win: %+v", entry)
	}

	miss, err := store.GetExplanation(ctx, "cand_1", "pos_2")
	if err != nil {
		t.Fatalf("GetExplanation miss error: %v", err)
	}
	if miss != nil {
		t.Fatal("expected nil on cache miss")
	}
}

func TestExtractionLogLifecycle(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.CreateExtractionLog(ctx, "cv.pdf", "cv")
	if err != nil {
		t.Fatalf("CreateExtractionLog error: %v", err)
	}

	err = store.UpdateExtractionLog(ctx, id, map[string]any{
		"raw_text":     "parsed text",
		"parse_millis": int64(12),
	})
	if err != nil {
		t.Fatalf("UpdateExtractionLog error: %v", err)
	}
	err = store.UpdateExtractionLog(ctx, id, map[string]any{
		"status":    "success",
		"entity_id": "cand_42",
	})
	if err != nil {
		t.Fatalf("UpdateExtractionLog error: %v", err)
	}

	row, err := store.GetExtractionLog(ctx, id)
	if err != nil {
		t.Fatalf("GetExtractionLog error: %v", err)
	}
	// Updates are additive across stage boundaries.
	if row.RawText != "parsed text" || row.Status != "success" || row.EntityID != "cand_42" {
		t.Fatalf("log fields lost across updates: %+v", row)
	}
}

func TestMissingEmbeddingIDs(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	id, _, err := store.SaveCandidate(ctx, sampleCV(), "jane@example.com")
	if err != nil {
		t.Fatalf("SaveCandidate error: %v", err)
	}

	candIDs, _, err := store.MissingEmbeddingIDs(ctx, 10)
	if err != nil {
		t.Fatalf("MissingEmbeddingIDs error: %v", err)
	}
	if len(candIDs) != 1 || candIDs[0] != id {
		t.Fatalf("expected the new candidate to lack an embedding: %v", candIDs)
	}

	if err := store.SetCandidateEmbedding(ctx, id, []float32{0.1, 0.2}, "canonical text"); err != nil {
		t.Fatalf("SetCandidateEmbedding error: %v", err)
	}

	candIDs, _, err = store.MissingEmbeddingIDs(ctx, 10)
	if err != nil {
		t.Fatalf("MissingEmbeddingIDs error: %v", err)
	}
	if len(candIDs) != 0 {
		t.Fatalf("embedded candidate still reported missing: %v", candIDs)
	}

	cand, err := store.GetCandidate(ctx, id)
	if err != nil {
		t.Fatalf("GetCandidate error: %v", err)
	}
	vec := DecodeVector(cand.Embedding)
	if len(vec) != 2 || vec[0] != 0.1 {
		t.Fatalf("stored vector does not round-trip: %v", vec)
	}
	if cand.EmbeddingText != "canonical text" {
		t.Fatal("embedding source text not stored")
	}
}
