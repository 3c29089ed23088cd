package security

import (
	"regexp"

	"brainvoice/internal/config"
)

// Redactor strips personal data from text before it is persisted.
// Unlike a reversible sanitizer it keeps no mapping: stored summaries
// only ever see the placeholder.
type Redactor struct {
	filters []piiFilter
	enabled bool
}

type piiFilter struct {
	name    string
	pattern *regexp.Regexp
	label   string
}

// Cards and SSNs run before phones so the phone pattern does not eat them.
var defaultFilters = []struct {
	name    string
	pattern string
	label   string
}{
	{"email", `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, "[EMAIL]"},
	{"card", `\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`, "[CARD]"},
	{"ssn", `\b\d{3}-\d{2}-\d{4}\b`, "[SSN]"},
	{"ip", `\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`, "[IP]"},
	{"phone", `(?:\+?\d{1,3}[-.\s]?)?\(?\d{2,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{3,4}`, "[PHONE]"},
}

// NewRedactor creates a redactor from config.
func NewRedactor(cfg config.RedactionConfig) *Redactor {
	r := &Redactor{enabled: cfg.Enabled}

	enableMap := map[string]bool{
		"email": cfg.RedactEmails,
		"phone": cfg.RedactPhones,
		"card":  cfg.RedactCards,
		"ip":    cfg.RedactIPs,
		"ssn":   cfg.RedactSSN,
	}
	for _, f := range defaultFilters {
		if enableMap[f.name] {
			r.filters = append(r.filters, piiFilter{
				name:    f.name,
				pattern: regexp.MustCompile(f.pattern),
				label:   f.label,
			})
		}
	}
	return r
}

// Redact replaces every match with its label.
func (r *Redactor) Redact(text string) string {
	if r == nil || !r.enabled {
		return text
	}
	for _, f := range r.filters {
		text = f.pattern.ReplaceAllLiteralString(text, f.label)
	}
	return text
}
