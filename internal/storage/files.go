package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// SaveCandidateFile stores a new document version for a candidate. All
// prior versions of the same kind flip to non-current in the same
// transaction, so exactly one current version exists afterwards. Version
// numbers are assigned as max(existing)+1.
func (s *Store) SaveCandidateFile(ctx context.Context, candidateID, kind, filename, contentType string, data []byte) (int, error) {
	var version int

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&FileVersion{}).
			Where("candidate_id = ? AND kind = ?", candidateID, kind).
			Update("current", false).Error; err != nil {
			return fmt.Errorf("demote prior versions: %w", err)
		}

		var maxVersion int
		err := tx.Model(&FileVersion{}).
			Where("candidate_id = ? AND kind = ?", candidateID, kind).
			Select("COALESCE(MAX(version), 0)").
			Scan(&maxVersion).Error
		if err != nil {
			return fmt.Errorf("read max version: %w", err)
		}
		version = maxVersion + 1

		row := FileVersion{
			CandidateID: candidateID,
			Kind:        kind,
			Filename:    filename,
			ContentType: contentType,
			Data:        data,
			Version:     version,
			Current:     true,
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert file version: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

// ListCandidateFiles returns a candidate's stored documents, newest
// version first, without the raw bytes.
func (s *Store) ListCandidateFiles(ctx context.Context, candidateID, kind string) ([]FileVersion, error) {
	var out []FileVersion
	err := s.db.WithContext(ctx).
		Select("id", "candidate_id", "kind", "filename", "content_type", "version", "current", "created_at").
		Where("candidate_id = ? AND kind = ?", candidateID, kind).
		Order("version DESC").
		Find(&out).Error
	return out, err
}

// GetCurrentFile returns the authoritative document version for a
// candidate, or nil when none was ever uploaded.
func (s *Store) GetCurrentFile(ctx context.Context, candidateID, kind string) (*FileVersion, error) {
	var row FileVersion
	err := s.db.WithContext(ctx).
		Where("candidate_id = ? AND kind = ? AND current = ?", candidateID, kind, true).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
