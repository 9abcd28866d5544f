package storage

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps the relational database. All cross-run coordination happens
// through its uniqueness constraints (candidate email, skill/language
// name, explanation pair).
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the schema.
func Open(databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return NewStore(db)
}

// NewStore wraps an existing gorm connection (tests use sqlite here) and
// runs auto-migration.
func NewStore(db *gorm.DB) (*Store, error) {
	err := db.AutoMigrate(
		&Skill{},
		&Language{},
		&Candidate{},
		&Position{},
		&CandidateSkill{},
		&CandidateLanguage{},
		&Experience{},
		&Education{},
		&Certification{},
		&PositionSkill{},
		&PositionRequirement{},
		&FileVersion{},
		&ExtractionLog{},
		&Explanation{},
		&LLMUsageLog{},
	)
	if err != nil {
		return nil, fmt.Errorf("auto migrate models: %w", err)
	}
	return &Store{db: db}, nil
}

// MissingEmbeddingIDs lists candidates and open positions that still have
// no embedding, oldest first, for backfill tooling.
func (s *Store) MissingEmbeddingIDs(ctx context.Context, limit int) (candidateIDs, positionIDs []string, err error) {
	err = s.db.WithContext(ctx).Model(&Candidate{}).
		Where("embedding IS NULL").
		Order("created_at ASC").Limit(limit).
		Pluck("id", &candidateIDs).Error
	if err != nil {
		return nil, nil, fmt.Errorf("list candidates without embeddings: %w", err)
	}
	err = s.db.WithContext(ctx).Model(&Position{}).
		Where("embedding IS NULL AND status = ?", "open").
		Order("created_at ASC").Limit(limit).
		Pluck("id", &positionIDs).Error
	if err != nil {
		return nil, nil, fmt.Errorf("list positions without embeddings: %w", err)
	}
	return candidateIDs, positionIDs, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("get sql DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}
