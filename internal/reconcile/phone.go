package reconcile

import (
	"sort"

	"github.com/sells-group/property-research-cli/internal/model"
)

// resolvePhones assigns confidence to each phone candidate from its source
// mix, attributes it to a contact, ranks the set, and selects the primary
// number. Candidates marked invalid by validation stay in the record for
// audit but are never selected.
func (r *Reconciler) resolvePhones(rec *model.ResearchRecord) {
	if len(rec.PhoneCandidates) == 0 {
		return
	}

	resolved := make([]model.PhoneCandidate, len(rec.PhoneCandidates))
	for i := range rec.PhoneCandidates {
		c := rec.PhoneCandidates[i]
		c.Confidence = r.phoneConfidence(c.Sources)
		c.AttributedTo = attributeContact(c.ContactHits)
		resolved[i] = c
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		a, b := resolved[i], resolved[j]
		if a.Confidence.Rank() != b.Confidence.Rank() {
			return a.Confidence.Rank() > b.Confidence.Rank()
		}
		return a.Order < b.Order
	})
	rec.PhoneCandidates = resolved

	rec.ContactNumber = r.selectPrimary(rec)
}

// phoneConfidence applies the ladder: one non-authoritative source is low;
// an authoritative source alone is medium; an authoritative source plus any
// corroboration, or enough independent non-authoritative sources, is high.
func (r *Reconciler) phoneConfidence(sources []string) model.Confidence {
	distinct := make(map[string]bool, len(sources))
	authoritative := false
	for _, s := range sources {
		distinct[s] = true
		if r.cfg.Authoritative[s] {
			authoritative = true
		}
	}

	switch {
	case authoritative && len(distinct) >= 2:
		return model.ConfidenceHigh
	case !authoritative && len(distinct) >= r.cfg.CorroborationCount:
		return model.ConfidenceHigh
	case authoritative:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// attributeContact picks the name most frequently co-reported with a number.
// A tie between different names, or no names at all, attributes to "Unknown".
func attributeContact(hits map[string]int) string {
	best := ""
	bestCount := 0
	tied := false
	for name, n := range hits {
		switch {
		case n > bestCount:
			best, bestCount, tied = name, n, false
		case n == bestCount && name != best:
			tied = true
		}
	}
	if best == "" || tied {
		return "Unknown"
	}
	return best
}

// selectPrimary picks the contact number for the record. A previously
// selected number that is still present and not invalidated is kept for
// stability; otherwise the highest-confidence eligible candidate wins.
func (r *Reconciler) selectPrimary(rec *model.ResearchRecord) string {
	if rec.ContactNumber != "" {
		prev := model.NormalizeDigits(rec.ContactNumber)
		for _, c := range rec.PhoneCandidates {
			if c.Digits == prev && c.Valid != model.ValidityInvalid {
				return display(c)
			}
		}
	}

	for _, c := range rec.PhoneCandidates {
		if c.Valid == model.ValidityInvalid {
			continue
		}
		return display(c)
	}
	return ""
}

func display(c model.PhoneCandidate) string {
	if c.Formatted != "" {
		return c.Formatted
	}
	return c.Raw
}
