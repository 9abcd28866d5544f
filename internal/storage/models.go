package storage

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Candidate identity is the case-normalized contact email; re-ingesting a
// CV with a known email updates this row in place. The embedding is null
// until the detached embed step has run.
type Candidate struct {
	ID              string `gorm:"primaryKey" json:"id"`
	Email           string `gorm:"uniqueIndex;not null" json:"email"`
	Name            string `json:"name"`
	Phone           string `json:"phone,omitempty"`
	Location        string `json:"location,omitempty"`
	LinkedIn        string `json:"linkedin,omitempty"`
	GitHub          string `json:"github,omitempty"`
	Summary         string `json:"summary,omitempty"`
	YearsExperience float64 `json:"yearsExperience"`
	Status          string `json:"status"`
	Embedding       datatypes.JSON `json:"-"`
	EmbeddingText   string         `json:"-"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`

	Skills         []CandidateSkill    `gorm:"constraint:OnDelete:CASCADE" json:"skills,omitempty"`
	Languages      []CandidateLanguage `gorm:"constraint:OnDelete:CASCADE" json:"languages,omitempty"`
	Experiences    []Experience        `gorm:"constraint:OnDelete:CASCADE" json:"experiences,omitempty"`
	Education      []Education         `gorm:"constraint:OnDelete:CASCADE" json:"education,omitempty"`
	Certifications []Certification     `gorm:"constraint:OnDelete:CASCADE" json:"certifications,omitempty"`
	Positions      []Position          `gorm:"many2many:candidate_positions" json:"-"`
}

// Position rows are always freshly created; job ingestions are never
// deduplicated.
type Position struct {
	ID              string `gorm:"primaryKey" json:"id"`
	Title           string `json:"title"`
	Company         string `json:"company,omitempty"`
	Location        string `json:"location,omitempty"`
	Description     string `json:"description,omitempty"`
	MinYears        float64 `json:"minYears"`
	WorkArrangement string  `json:"workArrangement,omitempty"`
	Salary          string  `json:"salary,omitempty"`
	ContactEmail    string  `json:"contactEmail,omitempty"`
	Status          string  `json:"status"`
	Embedding       datatypes.JSON `json:"-"`
	EmbeddingText   string         `json:"-"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`

	Skills       []PositionSkill       `gorm:"constraint:OnDelete:CASCADE" json:"skills,omitempty"`
	Requirements []PositionRequirement `gorm:"constraint:OnDelete:CASCADE" json:"requirements,omitempty"`
}

// Skill and Language are globally unique by name; rows are shared across
// candidates and positions via get-or-create.
type Skill struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

type Language struct {
	ID   uint   `gorm:"primaryKey" json:"-"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

type CandidateSkill struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	CandidateID string `gorm:"index;not null" json:"-"`
	SkillID     uint   `gorm:"not null" json:"-"`
	Skill       Skill  `json:"skill"`
	Level       string `json:"level,omitempty"`
	Ordinal     int    `json:"-"`
}

type CandidateLanguage struct {
	ID          uint     `gorm:"primaryKey" json:"-"`
	CandidateID string   `gorm:"index;not null" json:"-"`
	LanguageID  uint     `gorm:"not null" json:"-"`
	Language    Language `json:"language"`
	Ordinal     int      `json:"-"`
}

type Experience struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	CandidateID string `gorm:"index;not null" json:"-"`
	Company     string `json:"company"`
	Title       string `json:"title"`
	StartDate   string `json:"startDate"` // YYYY-MM
	EndDate     string `json:"endDate"`   // YYYY-MM, empty or "present" when ongoing
	Highlights  datatypes.JSON `json:"highlights,omitempty"`
	Ordinal     int            `json:"-"`
}

type Education struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	CandidateID string `gorm:"index;not null" json:"-"`
	Degree      string `json:"degree"`
	Field       string `json:"field,omitempty"`
	Institution string `json:"institution"`
	Year        int    `json:"year,omitempty"`
	Ordinal     int    `json:"-"`
}

type Certification struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	CandidateID string `gorm:"index;not null" json:"-"`
	Name        string `json:"name"`
	Ordinal     int    `json:"-"`
}

type PositionSkill struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	PositionID string `gorm:"index;not null" json:"-"`
	SkillID    uint   `gorm:"not null" json:"-"`
	Skill      Skill  `json:"skill"`
	Ordinal    int    `json:"-"`
}

type PositionRequirement struct {
	ID         uint   `gorm:"primaryKey" json:"-"`
	PositionID string `gorm:"index;not null" json:"-"`
	Text       string `json:"text"`
	Required   bool   `json:"required"`
	Ordinal    int    `json:"-"`
}

// FileVersion stores a candidate's uploaded documents. At most one row per
// candidate and kind is current; version numbers only grow.
type FileVersion struct {
	ID          uint   `gorm:"primaryKey"`
	CandidateID string `gorm:"index;not null"`
	Kind        string `gorm:"not null"`
	Filename    string
	ContentType string
	Data        []byte
	Version     int
	Current     bool
	CreatedAt   time.Time
}

// ExtractionLog records one ingestion attempt. It is created at pipeline
// start, mutated additively at stage boundaries, and never deleted.
type ExtractionLog struct {
	ID               uint   `gorm:"primaryKey"`
	SourceRef        string // original filename
	Kind             string // cv or job
	Status           string // pending, success, failed
	ParseMillis      int64
	LLMMillis        int64
	TotalMillis      int64
	RawText          string
	Deterministic    datatypes.JSON
	RawLLMOutput     string
	ParsedOutput     datatypes.JSON
	PromptVersion    string
	ValidationErrors datatypes.JSON
	ErrorMessage     string
	EntityID         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Explanation caches one generated match explanation per candidate and
// position pair.
type Explanation struct {
	ID          uint   `gorm:"primaryKey"`
	CandidateID string `gorm:"uniqueIndex:idx_explanations_pair;not null"`
	PositionID  string `gorm:"uniqueIndex:idx_explanations_pair;not null"`
	Text        string
	Similarity  float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type LLMUsageLog struct {
	ID           uint `gorm:"primaryKey"`
	Operation    string
	Model        string
	InputTokens  int
	OutputTokens int
	ElapsedMs    int64
	CreatedAt    time.Time
}

// VectorJSON encodes an embedding for storage in a JSON column.
func VectorJSON(v []float32) datatypes.JSON {
	data, _ := json.Marshal(v)
	return datatypes.JSON(data)
}

// DecodeVector returns the stored embedding, or nil when none exists yet.
func DecodeVector(data datatypes.JSON) []float32 {
	if len(data) == 0 {
		return nil
	}
	var v []float32
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	return v
}

func highlightsJSON(highlights []string) datatypes.JSON {
	if len(highlights) == 0 {
		return nil
	}
	data, _ := json.Marshal(highlights)
	return datatypes.JSON(data)
}

// DecodeHighlights returns an experience row's highlight strings.
func DecodeHighlights(data datatypes.JSON) []string {
	if len(data) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
