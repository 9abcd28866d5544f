package schema

// CVRecord is the validated, strongly-shaped form of a model extraction
// for a résumé. It is the only shape the persistence layer accepts.
type CVRecord struct {
	Name            string
	Email           string
	Phone           string
	Location        string
	LinkedIn        string
	GitHub          string
	Summary         string
	YearsExperience float64
	Skills          []SkillEntry
	Languages       []string
	Experience      []ExperienceEntry
	Education       []EducationEntry
	Certifications  []string
}

type SkillEntry struct {
	Name  string
	Level string // Beginner|Intermediate|Advanced|Expert, free-form tolerated
}

// ExperienceEntry dates use the "2006-01" month format. An empty or
// "present" EndDate means the role is ongoing.
type ExperienceEntry struct {
	Company    string
	Title      string
	StartDate  string
	EndDate    string
	Highlights []string
}

type EducationEntry struct {
	Degree      string
	Field       string
	Institution string
	Year        int
}

// JobRecord is the validated form of a job posting extraction.
type JobRecord struct {
	Title              string
	Company            string
	Location           string
	Description        string
	Skills             []string
	Requirements       []Requirement
	MinYearsExperience float64
	WorkArrangement    string // remote|hybrid|onsite, free-form tolerated
	Salary             string
	ContactEmail       string
}

type Requirement struct {
	Text     string
	Required bool
}
