package extract

import (
	"regexp"
	"strings"
)

// Contacts holds the deterministically extracted contact fields of a
// document. Fields the patterns did not find are nil. These values are
// advisory: they override model output for the fields they cover.
type Contacts struct {
	Email    *string
	Phone    *string
	LinkedIn *string
	GitHub   *string
}

// JobHints holds best-effort header fields pulled from a job posting.
type JobHints struct {
	Title        *string
	Company      *string
	ContactEmail *string
}

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// International numbers, then common separated local forms.
	phoneRes = []*regexp.Regexp{
		regexp.MustCompile(`\+\d{1,3}[\s\-.]?\(?\d{1,4}\)?(?:[\s\-.]?\d{2,4}){2,4}`),
		regexp.MustCompile(`\(?\d{3,4}\)?[\s\-.]\d{3}[\s\-.]?\d{2}[\s\-.]?\d{2,4}`),
	}

	linkedinRe = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?linkedin\.com/(in|company)/([a-zA-Z0-9_\-%.]+)`)
	githubRe   = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?github\.com/([a-zA-Z0-9_\-]+)`)

	titleLineRe   = regexp.MustCompile(`(?im)^(?:job title|position|role|title)\s*[:\-]\s*(.+)$`)
	companyLineRe = regexp.MustCompile(`(?im)^(?:company|employer|organization)\s*[:\-]\s*(.+)$`)
)

// ExtractContacts pulls contact fields out of raw document text. It is a
// pure function; the first match wins when the text contains several
// candidates.
func ExtractContacts(text string) Contacts {
	var c Contacts

	if m := emailRe.FindString(text); m != "" {
		email := strings.ToLower(m)
		c.Email = &email
	}

	for _, re := range phoneRes {
		if m := re.FindString(text); m != "" {
			phone := strings.TrimSpace(m)
			c.Phone = &phone
			break
		}
	}

	if m := linkedinRe.FindStringSubmatch(text); m != nil {
		url := "https://linkedin.com/" + strings.ToLower(m[1]) + "/" + trimSlug(m[2])
		c.LinkedIn = &url
	}

	if m := githubRe.FindStringSubmatch(text); m != nil {
		url := "https://github.com/" + trimSlug(m[1])
		c.GitHub = &url
	}

	return c
}

// ExtractJobHints pulls header-style title/company/contact lines out of a
// job posting. Absent patterns yield nil fields.
func ExtractJobHints(text string) JobHints {
	var h JobHints

	if m := titleLineRe.FindStringSubmatch(text); m != nil {
		title := strings.TrimSpace(m[1])
		h.Title = &title
	}
	if m := companyLineRe.FindStringSubmatch(text); m != nil {
		company := strings.TrimSpace(m[1])
		h.Company = &company
	}
	if m := emailRe.FindString(text); m != "" {
		email := strings.ToLower(m)
		h.ContactEmail = &email
	}

	return h
}

func trimSlug(s string) string {
	return strings.TrimRight(s, "/.")
}
