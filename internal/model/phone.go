package model

import "strings"

// Validity is the tri-state outcome of phone validation: unknown until a
// validation collector has run.
type Validity string

const (
	ValidityUnknown Validity = "unknown"
	ValidityValid   Validity = "valid"
	ValidityInvalid Validity = "invalid"
)

// PhoneCandidate is a deduplicated phone number reported by one or more
// collectors. Candidates are created the first time a never-seen digit string
// appears; afterwards Sources and Contacts only grow.
type PhoneCandidate struct {
	Raw       string `json:"raw"`
	Digits    string `json:"digits"`
	Formatted string `json:"formatted,omitempty"`

	// Sources is the ordered set of collector names that reported this number.
	Sources []string `json:"sources"`

	// Contacts is the ordered set of person names co-reported with this
	// number. ContactHits counts how many times each name was co-reported,
	// which drives attribution.
	Contacts    []string       `json:"contacts,omitempty"`
	ContactHits map[string]int `json:"contact_hits,omitempty"`

	// AttributedTo is the contact selected by reconciliation, "Unknown" when
	// no name dominates.
	AttributedTo string `json:"attributed_to,omitempty"`

	Confidence Confidence `json:"confidence,omitempty"`
	Valid      Validity   `json:"valid,omitempty"`
	LineType   string     `json:"line_type,omitempty"`

	// Order is the discovery index used to break ranking ties.
	Order int `json:"order"`
}

func (p PhoneCandidate) clone() PhoneCandidate {
	c := p
	c.Sources = append([]string(nil), p.Sources...)
	c.Contacts = append([]string(nil), p.Contacts...)
	if p.ContactHits != nil {
		c.ContactHits = make(map[string]int, len(p.ContactHits))
		for k, v := range p.ContactHits {
			c.ContactHits[k] = v
		}
	}
	return c
}

// HasSource reports whether the named collector already reported this number.
func (p PhoneCandidate) HasSource(name string) bool {
	for _, s := range p.Sources {
		if s == name {
			return true
		}
	}
	return false
}

// NewPhoneCandidate builds a candidate from a raw number as reported by a
// single source, optionally co-reported with a contact name.
func NewPhoneCandidate(raw, source, contact string) PhoneCandidate {
	digits := NormalizeDigits(raw)
	p := PhoneCandidate{
		Raw:       raw,
		Digits:    digits,
		Formatted: FormatPhone(digits),
		Sources:   []string{source},
		Valid:     ValidityUnknown,
	}
	if p.Formatted == "" {
		p.Formatted = strings.TrimSpace(raw)
	}
	if contact != "" {
		p.Contacts = []string{contact}
		p.ContactHits = map[string]int{contact: 1}
	}
	return p
}

// NormalizeDigits strips every non-digit character. The result is the
// canonical dedup key for phone candidates.
func NormalizeDigits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone renders a digit string as (XXX) XXX-XXXX for US numbers,
// with or without the leading country code. Returns "" for other lengths.
func FormatPhone(digits string) string {
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return ""
	}
	return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
}
