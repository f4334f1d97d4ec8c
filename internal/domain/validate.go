package domain

import "strings"

// Bounds for submitted fields. The store applies them authoritatively;
// the submission service applies them again up front so bad payloads
// fail before a connection is taken.
const (
	MaxTitleLen   = 200
	MaxContentLen = 5000
	MaxListItems  = 20
	MaxItemLen    = 160
)

func (d ReviewDraft) Validate() error {
	if strings.TrimSpace(d.VPNSlug) == "" {
		return Invalid("vpnSlug is required")
	}
	if strings.TrimSpace(d.AuthorName) == "" {
		return Invalid("authorName is required")
	}
	if strings.TrimSpace(d.AuthorEmail) == "" {
		return Invalid("authorEmail is required")
	}
	if d.Rating < 1 || d.Rating > 5 {
		return Invalid("rating must be between 1 and 5")
	}
	if len(d.Title) > MaxTitleLen {
		return Invalid("title too long")
	}
	if strings.TrimSpace(d.Content) == "" {
		return Invalid("content is required")
	}
	if len(d.Content) > MaxContentLen {
		return Invalid("content too long")
	}
	if err := checkList(d.Pros, "pros"); err != nil {
		return err
	}
	return checkList(d.Cons, "cons")
}

func checkList(items []string, field string) error {
	if len(items) > MaxListItems {
		return Invalid(field + " has too many entries")
	}
	for _, it := range items {
		if strings.TrimSpace(it) == "" {
			return Invalid(field + " entries must be non-empty")
		}
		if len(it) > MaxItemLen {
			return Invalid(field + " entry too long")
		}
	}
	return nil
}
