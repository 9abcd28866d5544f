package extract

import "testing"

const sampleCV = `John Carter
Senior Backend Engineer

Contact: John.Carter@Example.COM | +90 532 123 45 67
Profiles: www.linkedin.com/in/john-carter and https://github.com/jcarter

Previously reachable at old.address@example.org.
`

func TestExtractContactsFirstMatchWins(t *testing.T) {
	t.Parallel()

	c := ExtractContacts(sampleCV)

	if c.Email == nil || *c.Email != "john.carter@example.com" {
		t.Fatalf("expected first email lower-cased, got %v", c.Email)
	}
	if c.Phone == nil || *c.Phone != "+90 532 123 45 67" {
		t.Fatalf("expected phone, got %v", c.Phone)
	}
}

func TestExtractContactsNormalizesProfileURLs(t *testing.T) {
	t.Parallel()

	c := ExtractContacts(sampleCV)

	if c.LinkedIn == nil || *c.LinkedIn != "https://linkedin.com/in/john-carter" {
		t.Fatalf("expected normalized linkedin URL, got %v", c.LinkedIn)
	}
	if c.GitHub == nil || *c.GitHub != "https://github.com/jcarter" {
		t.Fatalf("expected normalized github URL, got %v", c.GitHub)
	}
}

func TestExtractContactsIsPure(t *testing.T) {
	t.Parallel()

	first := ExtractContacts(sampleCV)
	for i := 0; i < 5; i++ {
		again := ExtractContacts(sampleCV)
		if *first.Email != *again.Email || *first.Phone != *again.Phone {
			t.Fatalf("extraction changed between calls: %v vs %v", first, again)
		}
	}
}

func TestExtractContactsMissingFields(t *testing.T) {
	t.Parallel()

	c := ExtractContacts("no contact details in this text at all")
	if c.Email != nil || c.Phone != nil || c.LinkedIn != nil || c.GitHub != nil {
		t.Fatalf("expected all nil fields, got %+v", c)
	}
}

func TestExtractJobHints(t *testing.T) {
	t.Parallel()

	text := `Job Title: Staff Platform Engineer
Company: Acme Rockets
Apply via hiring@acme.example with your CV.
`
	h := ExtractJobHints(text)

	if h.Title == nil || *h.Title != "Staff Platform Engineer" {
		t.Fatalf("expected title hint, got %v", h.Title)
	}
	if h.Company == nil || *h.Company != "Acme Rockets" {
		t.Fatalf("expected company hint, got %v", h.Company)
	}
	if h.ContactEmail == nil || *h.ContactEmail != "hiring@acme.example" {
		t.Fatalf("expected contact email, got %v", h.ContactEmail)
	}
}
