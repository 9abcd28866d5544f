package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetExplanation returns the cached explanation for a candidate-position
// pair, or nil on a cache miss.
func (s *Store) GetExplanation(ctx context.Context, candidateID, positionID string) (*Explanation, error) {
	var row Explanation
	err := s.db.WithContext(ctx).
		Where("candidate_id = ? AND position_id = ?", candidateID, positionID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// UpsertExplanation stores a generated explanation keyed by the pair.
// Re-generation overwrites text and score rather than duplicating the row.
func (s *Store) UpsertExplanation(ctx context.Context, candidateID, positionID, text string, similarity float64) error {
	row := Explanation{
		CandidateID: candidateID,
		PositionID:  positionID,
		Text:        text,
		Similarity:  similarity,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "candidate_id"}, {Name: "position_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"text", "similarity", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert explanation: %w", err)
	}
	return nil
}
