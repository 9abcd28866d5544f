package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// CreateExtractionLog opens a pending log row for a new ingestion run.
func (s *Store) CreateExtractionLog(ctx context.Context, sourceRef, kind string) (uint, error) {
	row := ExtractionLog{SourceRef: sourceRef, Kind: kind, Status: "pending"}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("create extraction log: %w", err)
	}
	return row.ID, nil
}

// UpdateExtractionLog applies additive column updates at a stage boundary.
func (s *Store) UpdateExtractionLog(ctx context.Context, id uint, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&ExtractionLog{}).Where("id = ?", id).Updates(updates).Error
}

// GetExtractionLog loads one ingestion log.
func (s *Store) GetExtractionLog(ctx context.Context, id uint) (*ExtractionLog, error) {
	var row ExtractionLog
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// JSONColumn marshals a snapshot value for storage in a JSON column; nil
// input yields a null column.
func JSONColumn(v any) datatypes.JSON {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

// RecordUsage implements the inference client's usage recorder. Usage rows
// are cost-accounting input for an external collaborator; a write failure
// never disturbs the calling run.
func (s *Store) RecordUsage(ctx context.Context, operation, model string, inputTokens, outputTokens int, elapsed time.Duration) {
	row := LLMUsageLog{
		Operation:    operation,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		ElapsedMs:    elapsed.Milliseconds(),
	}
	_ = s.db.WithContext(ctx).Create(&row).Error
}
