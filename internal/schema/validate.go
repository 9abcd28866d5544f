package schema

import (
	"fmt"
	"strings"
)

// Model output is untrusted until it has passed through here: the pipeline
// parses responses into map[string]any and this package turns them into
// typed records or a list of human-readable violations. A non-empty
// violation list is terminal for the run.

const minSummaryLength = 40

// ValidateCV checks a parsed résumé extraction. All violations are
// collected, not just the first.
func ValidateCV(data map[string]any) (*CVRecord, []string) {
	var errs []string
	rec := &CVRecord{}

	rec.Name = requireString(data, "name", &errs)
	rec.Email = optionalString(data, "email", &errs)
	rec.Phone = optionalString(data, "phone", &errs)
	rec.Location = optionalString(data, "location", &errs)
	rec.LinkedIn = optionalString(data, "linkedin", &errs)
	rec.GitHub = optionalString(data, "github", &errs)

	rec.Summary = optionalString(data, "summary", &errs)
	if rec.Summary != "" && len(rec.Summary) < minSummaryLength {
		errs = append(errs, fmt.Sprintf("summary: must be at least %d characters, got %d", minSummaryLength, len(rec.Summary)))
	}

	rec.YearsExperience = optionalNumber(data, "years_of_experience", &errs)
	if rec.YearsExperience < 0 {
		errs = append(errs, "years_of_experience: must not be negative")
	}

	if raw, ok := data["skills"]; ok {
		items, ok := raw.([]any)
		if !ok {
			errs = append(errs, "skills: expected an array")
		}
		for i, item := range items {
			switch v := item.(type) {
			case string:
				if strings.TrimSpace(v) != "" {
					rec.Skills = append(rec.Skills, SkillEntry{Name: strings.TrimSpace(v)})
				}
			case map[string]any:
				name := stringField(v, "name")
				if name == "" {
					errs = append(errs, fmt.Sprintf("skills[%d]: missing name", i))
					continue
				}
				rec.Skills = append(rec.Skills, SkillEntry{Name: name, Level: stringField(v, "level")})
			default:
				errs = append(errs, fmt.Sprintf("skills[%d]: expected string or object", i))
			}
		}
	}

	rec.Languages = stringArray(data, "languages", &errs)
	rec.Certifications = stringArray(data, "certifications", &errs)

	if raw, ok := data["experience"]; ok {
		items, ok := raw.([]any)
		if !ok {
			errs = append(errs, "experience: expected an array")
		}
		for i, item := range items {
			entry, ok := item.(map[string]any)
			if !ok {
				errs = append(errs, fmt.Sprintf("experience[%d]: expected an object", i))
				continue
			}
			exp := ExperienceEntry{
				Company:   stringField(entry, "company"),
				Title:     stringField(entry, "title"),
				StartDate: stringField(entry, "start_date"),
				EndDate:   stringField(entry, "end_date"),
			}
			if exp.Company == "" && exp.Title == "" {
				errs = append(errs, fmt.Sprintf("experience[%d]: needs a company or title", i))
				continue
			}
			if exp.StartDate != "" && !validMonth(exp.StartDate) {
				errs = append(errs, fmt.Sprintf("experience[%d]: start_date %q is not YYYY-MM", i, exp.StartDate))
			}
			if exp.EndDate != "" && !strings.EqualFold(exp.EndDate, "present") && !validMonth(exp.EndDate) {
				errs = append(errs, fmt.Sprintf("experience[%d]: end_date %q is not YYYY-MM", i, exp.EndDate))
			}
			if hl, ok := entry["highlights"].([]any); ok {
				for _, h := range hl {
					if s, ok := h.(string); ok && strings.TrimSpace(s) != "" {
						exp.Highlights = append(exp.Highlights, strings.TrimSpace(s))
					}
				}
			}
			rec.Experience = append(rec.Experience, exp)
		}
	}

	if raw, ok := data["education"]; ok {
		items, ok := raw.([]any)
		if !ok {
			errs = append(errs, "education: expected an array")
		}
		for i, item := range items {
			entry, ok := item.(map[string]any)
			if !ok {
				errs = append(errs, fmt.Sprintf("education[%d]: expected an object", i))
				continue
			}
			edu := EducationEntry{
				Degree:      stringField(entry, "degree"),
				Field:       stringField(entry, "field"),
				Institution: stringField(entry, "institution"),
			}
			if n, ok := numberField(entry, "year"); ok {
				edu.Year = int(n)
			}
			if edu.Institution == "" && edu.Degree == "" {
				errs = append(errs, fmt.Sprintf("education[%d]: needs an institution or degree", i))
				continue
			}
			rec.Education = append(rec.Education, edu)
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return rec, nil
}

// ValidateJob checks a parsed job posting extraction.
func ValidateJob(data map[string]any) (*JobRecord, []string) {
	var errs []string
	rec := &JobRecord{}

	rec.Title = requireString(data, "title", &errs)
	rec.Company = optionalString(data, "company", &errs)
	rec.Location = optionalString(data, "location", &errs)
	rec.Description = optionalString(data, "description", &errs)
	rec.WorkArrangement = optionalString(data, "work_arrangement", &errs)
	rec.Salary = optionalString(data, "salary", &errs)
	rec.ContactEmail = optionalString(data, "contact_email", &errs)

	rec.MinYearsExperience = optionalNumber(data, "min_years_experience", &errs)
	if rec.MinYearsExperience < 0 {
		errs = append(errs, "min_years_experience: must not be negative")
	}

	rec.Skills = stringArray(data, "skills", &errs)

	if raw, ok := data["requirements"]; ok {
		items, ok := raw.([]any)
		if !ok {
			errs = append(errs, "requirements: expected an array")
		}
		for i, item := range items {
			switch v := item.(type) {
			case string:
				if strings.TrimSpace(v) != "" {
					rec.Requirements = append(rec.Requirements, Requirement{Text: strings.TrimSpace(v), Required: true})
				}
			case map[string]any:
				text := stringField(v, "text")
				if text == "" {
					errs = append(errs, fmt.Sprintf("requirements[%d]: missing text", i))
					continue
				}
				required := true
				if b, ok := v["required"].(bool); ok {
					required = b
				}
				rec.Requirements = append(rec.Requirements, Requirement{Text: text, Required: required})
			default:
				errs = append(errs, fmt.Sprintf("requirements[%d]: expected string or object", i))
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return rec, nil
}

func requireString(data map[string]any, key string, errs *[]string) string {
	raw, ok := data[key]
	if !ok || raw == nil {
		*errs = append(*errs, key+": is required")
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		*errs = append(*errs, key+": expected a string")
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*errs = append(*errs, key+": must not be empty")
	}
	return s
}

func optionalString(data map[string]any, key string, errs *[]string) string {
	raw, ok := data[key]
	if !ok || raw == nil {
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		*errs = append(*errs, key+": expected a string")
		return ""
	}
	return strings.TrimSpace(s)
}

func optionalNumber(data map[string]any, key string, errs *[]string) float64 {
	raw, ok := data[key]
	if !ok || raw == nil {
		return 0
	}
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		*errs = append(*errs, key+": expected a number")
		return 0
	}
}

func stringArray(data map[string]any, key string, errs *[]string) []string {
	raw, ok := data[key]
	if !ok || raw == nil {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		*errs = append(*errs, key+": expected an array")
		return nil
	}
	var out []string
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			*errs = append(*errs, fmt.Sprintf("%s[%d]: expected a string", key, i))
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func numberField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}
