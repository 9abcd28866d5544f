package llm

import "fmt"

type DocKind string

const (
	KindCV  DocKind = "cv"
	KindJob DocKind = "job"
)

// Template is a versioned extraction prompt. The version tag is persisted
// with every extraction log so historical runs stay attributable to the
// template that produced them.
type Template struct {
	Version string
	Text    string // contains one %s slot for the document text
}

func (t Template) Render(docText string) string {
	return fmt.Sprintf(t.Text, docText)
}

// Registry maps document kinds to their prompt templates. It is built once
// at process start and injected into the extraction client.
type Registry struct {
	templates map[DocKind]Template
}

func NewRegistry() *Registry {
	return &Registry{
		templates: map[DocKind]Template{
			KindCV:  {Version: "cv-v2", Text: cvPrompt},
			KindJob: {Version: "job-v1", Text: jobPrompt},
		},
	}
}

func (r *Registry) Lookup(kind DocKind) (Template, bool) {
	t, ok := r.templates[kind]
	return t, ok
}

const cvPrompt = `You are an expert résumé parser. Extract structured information from this CV.

CV Text:
"""
%s
"""

Return ONLY valid JSON (no markdown, no explanation) with this exact structure:
{
  "name": "Full name",
  "email": "email or null",
  "phone": "phone or null",
  "location": "City, Country",
  "linkedin": "profile URL or null",
  "github": "profile URL or null",
  "summary": "2-4 sentence professional summary",
  "years_of_experience": 0,
  "skills": [{"name": "Canonical skill name", "level": "Beginner|Intermediate|Advanced|Expert"}],
  "languages": ["Language names"],
  "experience": [
    {
      "company": "Company name",
      "title": "Job title",
      "start_date": "YYYY-MM",
      "end_date": "YYYY-MM or present",
      "highlights": ["Achievement or responsibility"]
    }
  ],
  "education": [{"degree": "Degree", "field": "Field", "institution": "University", "year": 2020}],
  "certifications": ["Certification names"]
}

Important:
- Normalize skill names (e.g., "K8s" -> "Kubernetes", "JS" -> "JavaScript")
- Order experience most recent first
- Use null for missing values and empty arrays for missing categories
- Dates must be YYYY-MM; use "present" for current roles`

const jobPrompt = `You are an expert recruiter. Extract structured information from this job posting.

Job Posting Text:
"""
%s
"""

Return ONLY valid JSON (no markdown, no explanation) with this exact structure:
{
  "title": "Job title",
  "company": "Company name",
  "location": "City, Country",
  "description": "2-4 sentence role summary",
  "skills": ["Required skill names"],
  "requirements": [{"text": "Requirement text", "required": true}],
  "min_years_experience": 0,
  "work_arrangement": "remote|hybrid|onsite",
  "salary": "Salary range as stated, or null",
  "contact_email": "contact email or null"
}

Important:
- Mark nice-to-have requirements with "required": false
- Normalize skill names
- Use null for missing values and empty arrays for missing categories`
