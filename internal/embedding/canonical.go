package embedding

import (
	"fmt"
	"strings"

	"hellio/internal/storage"
)

// Canonical text is the deterministic serialization of an entity that gets
// embedded. Section order is fixed; sections with no data are omitted so
// identical inputs always produce identical text.

const (
	maxCanonicalExperiences = 5
	maxHighlightsPerEntry   = 3
)

// CandidateText builds the canonical document for a candidate. Child
// collections must be loaded.
func CandidateText(c *storage.Candidate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Candidate: %s\n", c.Name)
	if c.Summary != "" {
		fmt.Fprintf(&b, "Summary: %s\n", c.Summary)
	}
	if c.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", c.Location)
	}
	if c.YearsExperience > 0 {
		fmt.Fprintf(&b, "Years of experience: %g\n", c.YearsExperience)
	}

	if len(c.Skills) > 0 {
		var parts []string
		for _, s := range c.Skills {
			if s.Level != "" {
				parts = append(parts, fmt.Sprintf("%s (%s)", s.Skill.Name, s.Level))
			} else {
				parts = append(parts, s.Skill.Name)
			}
		}
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(parts, ", "))
	}

	if len(c.Languages) > 0 {
		var parts []string
		for _, l := range c.Languages {
			parts = append(parts, l.Language.Name)
		}
		fmt.Fprintf(&b, "Languages: %s\n", strings.Join(parts, ", "))
	}

	if len(c.Experiences) > 0 {
		b.WriteString("Experience:\n")
		entries := c.Experiences
		if len(entries) > maxCanonicalExperiences {
			entries = entries[:maxCanonicalExperiences]
		}
		for _, e := range entries {
			fmt.Fprintf(&b, "- %s at %s (%s)\n", e.Title, e.Company, dateRange(e.StartDate, e.EndDate))
			highlights := storage.DecodeHighlights(e.Highlights)
			if len(highlights) > maxHighlightsPerEntry {
				highlights = highlights[:maxHighlightsPerEntry]
			}
			for _, h := range highlights {
				fmt.Fprintf(&b, "  * %s\n", h)
			}
		}
	}

	if len(c.Education) > 0 {
		b.WriteString("Education:\n")
		for _, e := range c.Education {
			line := e.Degree
			if e.Field != "" {
				line += " in " + e.Field
			}
			if e.Institution != "" {
				line += ", " + e.Institution
			}
			if e.Year > 0 {
				line += fmt.Sprintf(" (%d)", e.Year)
			}
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}

	if len(c.Certifications) > 0 {
		var parts []string
		for _, cert := range c.Certifications {
			parts = append(parts, cert.Name)
		}
		fmt.Fprintf(&b, "Certifications: %s\n", strings.Join(parts, ", "))
	}

	return strings.TrimRight(b.String(), "\n")
}

// PositionText builds the canonical document for a position. Child
// collections must be loaded.
func PositionText(p *storage.Position) string {
	var b strings.Builder

	title := p.Title
	if p.Company != "" {
		title += " at " + p.Company
	}
	fmt.Fprintf(&b, "Position: %s\n", title)

	if p.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", p.Description)
	}
	if p.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", p.Location)
	}
	if p.WorkArrangement != "" {
		fmt.Fprintf(&b, "Work arrangement: %s\n", p.WorkArrangement)
	}
	if p.MinYears > 0 {
		fmt.Fprintf(&b, "Required experience: %g+ years\n", p.MinYears)
	}

	if len(p.Skills) > 0 {
		var parts []string
		for _, s := range p.Skills {
			parts = append(parts, s.Skill.Name)
		}
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(parts, ", "))
	}

	if len(p.Requirements) > 0 {
		b.WriteString("Requirements:\n")
		for _, r := range p.Requirements {
			flag := "required"
			if !r.Required {
				flag = "nice to have"
			}
			fmt.Fprintf(&b, "- %s (%s)\n", r.Text, flag)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func dateRange(start, end string) string {
	if start == "" {
		start = "?"
	}
	if end == "" {
		end = "present"
	}
	return start + " - " + end
}
