package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hellio/internal/schema"
)

// SaveCandidate resolves identity by email and either creates a candidate
// or updates the existing row in place. Owned child collections are
// deleted and re-inserted from the new extraction (replace, not merge).
// Returns the candidate id and whether a new row was created.
func (s *Store) SaveCandidate(ctx context.Context, rec *schema.CVRecord, email string) (string, bool, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", false, fmt.Errorf("candidate email must not be empty")
	}

	var id string
	var created bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Candidate
		err := tx.Where("email = ?", email).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			id = NewCandidateID()
			created = true
			cand := Candidate{
				ID:              id,
				Email:           email,
				Name:            rec.Name,
				Phone:           rec.Phone,
				Location:        rec.Location,
				LinkedIn:        rec.LinkedIn,
				GitHub:          rec.GitHub,
				Summary:         rec.Summary,
				YearsExperience: rec.YearsExperience,
				Status:          "active",
			}
			if err := tx.Create(&cand).Error; err != nil {
				return fmt.Errorf("create candidate: %w", err)
			}
		case err != nil:
			return fmt.Errorf("lookup candidate by email: %w", err)
		default:
			id = existing.ID
			updates := map[string]any{
				"name":             rec.Name,
				"phone":            rec.Phone,
				"location":         rec.Location,
				"linked_in":        rec.LinkedIn,
				"git_hub":          rec.GitHub,
				"summary":          rec.Summary,
				"years_experience": rec.YearsExperience,
			}
			if err := tx.Model(&Candidate{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return fmt.Errorf("update candidate: %w", err)
			}
			if err := deleteCandidateChildren(tx, id); err != nil {
				return err
			}
		}
		return insertCandidateChildren(tx, id, rec)
	})
	if err != nil {
		return "", false, err
	}
	return id, created, nil
}

func deleteCandidateChildren(tx *gorm.DB, candidateID string) error {
	for _, model := range []any{
		&CandidateSkill{}, &CandidateLanguage{}, &Experience{}, &Education{}, &Certification{},
	} {
		if err := tx.Where("candidate_id = ?", candidateID).Delete(model).Error; err != nil {
			return fmt.Errorf("delete candidate children: %w", err)
		}
	}
	return nil
}

func insertCandidateChildren(tx *gorm.DB, candidateID string, rec *schema.CVRecord) error {
	for i, skill := range rec.Skills {
		skillID, err := getOrCreateSkill(tx, skill.Name)
		if err != nil {
			return err
		}
		row := CandidateSkill{CandidateID: candidateID, SkillID: skillID, Level: skill.Level, Ordinal: i}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert candidate skill: %w", err)
		}
	}

	for i, lang := range rec.Languages {
		langID, err := getOrCreateLanguage(tx, lang)
		if err != nil {
			return err
		}
		row := CandidateLanguage{CandidateID: candidateID, LanguageID: langID, Ordinal: i}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert candidate language: %w", err)
		}
	}

	for i, exp := range rec.Experience {
		row := Experience{
			CandidateID: candidateID,
			Company:     exp.Company,
			Title:       exp.Title,
			StartDate:   exp.StartDate,
			EndDate:     exp.EndDate,
			Highlights:  highlightsJSON(exp.Highlights),
			Ordinal:     i,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert experience: %w", err)
		}
	}

	for i, edu := range rec.Education {
		row := Education{
			CandidateID: candidateID,
			Degree:      edu.Degree,
			Field:       edu.Field,
			Institution: edu.Institution,
			Year:        edu.Year,
			Ordinal:     i,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert education: %w", err)
		}
	}

	for i, cert := range rec.Certifications {
		row := Certification{CandidateID: candidateID, Name: cert, Ordinal: i}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert certification: %w", err)
		}
	}

	return nil
}

// getOrCreateSkill inserts the skill name or reuses the existing row. A
// concurrent duplicate insert resolves through the unique name constraint
// instead of erroring.
func getOrCreateSkill(tx *gorm.DB, name string) (uint, error) {
	skill := Skill{Name: name}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&skill).Error
	if err != nil {
		return 0, fmt.Errorf("insert skill: %w", err)
	}
	if skill.ID != 0 {
		return skill.ID, nil
	}
	var existing Skill
	if err := tx.Where("name = ?", name).First(&existing).Error; err != nil {
		return 0, fmt.Errorf("lookup skill %q: %w", name, err)
	}
	return existing.ID, nil
}

func getOrCreateLanguage(tx *gorm.DB, name string) (uint, error) {
	lang := Language{Name: name}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&lang).Error
	if err != nil {
		return 0, fmt.Errorf("insert language: %w", err)
	}
	if lang.ID != 0 {
		return lang.ID, nil
	}
	var existing Language
	if err := tx.Where("name = ?", name).First(&existing).Error; err != nil {
		return 0, fmt.Errorf("lookup language %q: %w", name, err)
	}
	return existing.ID, nil
}

// GetCandidate loads a candidate with all owned child collections in
// stored order.
func (s *Store) GetCandidate(ctx context.Context, id string) (*Candidate, error) {
	var cand Candidate
	err := s.db.WithContext(ctx).
		Preload("Skills", orderByOrdinal).Preload("Skills.Skill").
		Preload("Languages", orderByOrdinal).Preload("Languages.Language").
		Preload("Experiences", orderByOrdinal).
		Preload("Education", orderByOrdinal).
		Preload("Certifications", orderByOrdinal).
		First(&cand, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cand, nil
}

// GetCandidateByEmail resolves a candidate by its identity key.
func (s *Store) GetCandidateByEmail(ctx context.Context, email string) (*Candidate, error) {
	var cand Candidate
	err := s.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&cand).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cand, nil
}

// ListCandidates returns all candidates without child collections.
func (s *Store) ListCandidates(ctx context.Context) ([]Candidate, error) {
	var out []Candidate
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

// ListEmbeddedCandidates returns candidates whose embedding exists.
func (s *Store) ListEmbeddedCandidates(ctx context.Context) ([]Candidate, error) {
	var out []Candidate
	err := s.db.WithContext(ctx).Where("embedding IS NOT NULL").Find(&out).Error
	return out, err
}

// SetCandidateEmbedding stores the vector and the canonical text it was
// computed from.
func (s *Store) SetCandidateEmbedding(ctx context.Context, id string, vector []float32, text string) error {
	return s.db.WithContext(ctx).Model(&Candidate{}).Where("id = ?", id).Updates(map[string]any{
		"embedding":      VectorJSON(vector),
		"embedding_text": text,
	}).Error
}

// AssignCandidateToPosition records a candidate-position assignment.
func (s *Store) AssignCandidateToPosition(ctx context.Context, candidateID, positionID string) error {
	return s.db.WithContext(ctx).Exec(
		"INSERT INTO candidate_positions (candidate_id, position_id) VALUES (?, ?)",
		candidateID, positionID,
	).Error
}

// AssignedCandidateIDs lists candidates already assigned to a position.
func (s *Store) AssignedCandidateIDs(ctx context.Context, positionID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Table("candidate_positions").
		Where("position_id = ?", positionID).
		Pluck("candidate_id", &ids).Error
	return ids, err
}

func orderByOrdinal(db *gorm.DB) *gorm.DB {
	return db.Order("ordinal ASC")
}

// NormalizeEmail lower-cases and trims an address; email is the candidate
// identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewCandidateID generates a prefixed candidate identifier.
func NewCandidateID() string {
	return "cand_" + uuid.NewString()
}

// NewPositionID generates a prefixed position identifier.
func NewPositionID() string {
	return "pos_" + uuid.NewString()
}

// PlaceholderEmail synthesizes a unique address for CVs that carry no
// email, so identity resolution never fails on a missing key.
func PlaceholderEmail() string {
	return fmt.Sprintf("unknown+%s@placeholder.invalid", uuid.NewString())
}
