package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"hellio/internal/schema"
)

// CreatePosition inserts a new position with its skills and requirements.
// Positions carry no identity resolution: every job ingestion creates a
// fresh row.
func (s *Store) CreatePosition(ctx context.Context, rec *schema.JobRecord) (string, error) {
	id := NewPositionID()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pos := Position{
			ID:              id,
			Title:           rec.Title,
			Company:         rec.Company,
			Location:        rec.Location,
			Description:     rec.Description,
			MinYears:        rec.MinYearsExperience,
			WorkArrangement: rec.WorkArrangement,
			Salary:          rec.Salary,
			ContactEmail:    NormalizeEmail(rec.ContactEmail),
			Status:          "open",
		}
		if err := tx.Create(&pos).Error; err != nil {
			return fmt.Errorf("create position: %w", err)
		}

		for i, skill := range rec.Skills {
			skillID, err := getOrCreateSkill(tx, skill)
			if err != nil {
				return err
			}
			row := PositionSkill{PositionID: id, SkillID: skillID, Ordinal: i}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert position skill: %w", err)
			}
		}

		for i, req := range rec.Requirements {
			row := PositionRequirement{PositionID: id, Text: req.Text, Required: req.Required, Ordinal: i}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("insert position requirement: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// GetPosition loads a position with skills and requirements in stored
// order.
func (s *Store) GetPosition(ctx context.Context, id string) (*Position, error) {
	var pos Position
	err := s.db.WithContext(ctx).
		Preload("Skills", orderByOrdinal).Preload("Skills.Skill").
		Preload("Requirements", orderByOrdinal).
		First(&pos, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

// ListPositions returns all positions without child collections.
func (s *Store) ListPositions(ctx context.Context) ([]Position, error) {
	var out []Position
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error
	return out, err
}

// ListEmbeddedPositions returns open positions whose embedding exists.
func (s *Store) ListEmbeddedPositions(ctx context.Context) ([]Position, error) {
	var out []Position
	err := s.db.WithContext(ctx).
		Where("embedding IS NOT NULL AND status = ?", "open").
		Find(&out).Error
	return out, err
}

// SetPositionEmbedding stores the vector and its canonical source text.
func (s *Store) SetPositionEmbedding(ctx context.Context, id string, vector []float32, text string) error {
	return s.db.WithContext(ctx).Model(&Position{}).Where("id = ?", id).Updates(map[string]any{
		"embedding":      VectorJSON(vector),
		"embedding_text": text,
	}).Error
}
