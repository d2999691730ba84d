// Package merge folds collector partial updates into the canonical research
// record. Every field has a declared reducer; shared collection fields merge
// by set union so the outcome is invariant to the order concurrent branches
// complete in.
package merge

import (
	"github.com/sells-group/property-research-cli/internal/model"
)

// Apply combines a base record and a partial update into a new record. It is
// pure and total: the base is never mutated and no input can make it fail.
//
// Reducers per field:
//   - Address: first non-empty value wins.
//   - CurrentStep, OwnerName/OwnerType/OwnerConfidence, ContactNumber:
//     last writer wins (update overrides when set).
//   - Errors: append-only concatenation, no dedup.
//   - SourceResults: union by source name, existing payload kept.
//   - Documents: union by document ID.
//   - OwnerCandidates, Contacts: union keyed by (name, source).
//   - PhoneCandidates: union keyed by normalized digits; on key collision the
//     sub-fields merge (sources and contacts union, validity upgrades from
//     unknown, confidence keeps the higher label).
//   - PendingSteps: replaced when the update carries a non-nil list.
//   - Stage: forward-only; a lower-ranked stage in the update is ignored.
func Apply(base *model.ResearchRecord, upd model.PartialUpdate) *model.ResearchRecord {
	if base == nil {
		base = &model.ResearchRecord{}
	}
	rec := base.Clone()

	if rec.Address == "" {
		rec.Address = upd.Address
	}

	if upd.CurrentStep != "" {
		rec.CurrentStep = upd.CurrentStep
	}
	if upd.OwnerName != "" {
		rec.OwnerName = upd.OwnerName
	}
	if upd.OwnerType != "" {
		rec.OwnerType = upd.OwnerType
	}
	if upd.OwnerConfidence != "" {
		rec.OwnerConfidence = upd.OwnerConfidence
	}
	if upd.ContactNumber != "" {
		rec.ContactNumber = upd.ContactNumber
	} else if upd.ClearContactNumber {
		rec.ContactNumber = ""
	}

	rec.Errors = append(rec.Errors, upd.Errors...)

	if len(upd.SourceResults) > 0 {
		if rec.SourceResults == nil {
			rec.SourceResults = make(map[string]string, len(upd.SourceResults))
		}
		for source, payload := range upd.SourceResults {
			if _, ok := rec.SourceResults[source]; !ok {
				rec.SourceResults[source] = payload
			}
		}
	}

	rec.Documents = mergeDocuments(rec.Documents, upd.Documents)
	rec.OwnerCandidates = mergeOwners(rec.OwnerCandidates, upd.OwnerCandidates)
	rec.Contacts = mergeContacts(rec.Contacts, upd.Contacts)
	rec.PhoneCandidates = mergePhones(rec.PhoneCandidates, upd.PhoneCandidates)

	// Reconciliation output replaces the accumulated candidate sets wholesale.
	if upd.ReplaceOwnerCandidates != nil {
		rec.OwnerCandidates = append([]model.OwnerCandidate(nil), upd.ReplaceOwnerCandidates...)
	}
	if upd.ReplacePhoneCandidates != nil {
		rec.PhoneCandidates = append([]model.PhoneCandidate(nil), upd.ReplacePhoneCandidates...)
	}

	if upd.PendingSteps != nil {
		rec.PendingSteps = append([]string(nil), upd.PendingSteps...)
	}

	if upd.Stage != "" && upd.Stage.Rank() > rec.Stage.Rank() {
		rec.Stage = upd.Stage
	}

	return rec
}

func mergeDocuments(base, upd []model.Document) []model.Document {
	if len(upd) == 0 {
		return base
	}
	seen := make(map[string]bool, len(base))
	for _, d := range base {
		seen[d.ID] = true
	}
	for _, d := range upd {
		if d.ID == "" || seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		base = append(base, d)
	}
	return base
}

func mergeOwners(base, upd []model.OwnerCandidate) []model.OwnerCandidate {
	if len(upd) == 0 {
		return base
	}
	index := make(map[string]int, len(base))
	for i, c := range base {
		index[c.Key()] = i
	}
	for _, c := range upd {
		if c.Name == "" {
			continue
		}
		if i, ok := index[c.Key()]; ok {
			// Same (name, source) seen again: keep the earlier discovery
			// order, upgrade the confidence label if the new one is stronger.
			if c.Confidence.Rank() > base[i].Confidence.Rank() {
				base[i].Confidence = c.Confidence
			}
			if base[i].OwnerType == model.OwnerTypeUnknown && c.OwnerType != "" {
				base[i].OwnerType = c.OwnerType
			}
			for _, s := range c.Sources {
				if !containsString(base[i].Sources, s) {
					base[i].Sources = append(base[i].Sources, s)
				}
			}
			continue
		}
		c.Order = len(base)
		index[c.Key()] = len(base)
		base = append(base, c)
	}
	return base
}

func mergeContacts(base, upd []model.IndividualContact) []model.IndividualContact {
	if len(upd) == 0 {
		return base
	}
	seen := make(map[string]bool, len(base))
	for _, c := range base {
		seen[c.Key()] = true
	}
	for _, c := range upd {
		if c.Name == "" || seen[c.Key()] {
			continue
		}
		seen[c.Key()] = true
		c.Order = len(base)
		base = append(base, c)
	}
	return base
}

func mergePhones(base, upd []model.PhoneCandidate) []model.PhoneCandidate {
	if len(upd) == 0 {
		return base
	}
	index := make(map[string]int, len(base))
	for i, p := range base {
		index[p.Digits] = i
	}
	for _, p := range upd {
		if p.Digits == "" {
			continue
		}
		i, ok := index[p.Digits]
		if !ok {
			p.Order = len(base)
			index[p.Digits] = len(base)
			base = append(base, p)
			continue
		}
		base[i] = mergePhone(base[i], p)
	}
	return base
}

// mergePhone unions the sub-fields of two candidates for the same digits.
func mergePhone(dst, src model.PhoneCandidate) model.PhoneCandidate {
	for _, s := range src.Sources {
		if !dst.HasSource(s) {
			dst.Sources = append(dst.Sources, s)
		}
	}

	for _, c := range src.Contacts {
		if !containsString(dst.Contacts, c) {
			dst.Contacts = append(dst.Contacts, c)
		}
	}
	if len(src.ContactHits) > 0 {
		if dst.ContactHits == nil {
			dst.ContactHits = make(map[string]int, len(src.ContactHits))
		}
		for name, n := range src.ContactHits {
			dst.ContactHits[name] += n
		}
	}

	if dst.Formatted == "" {
		dst.Formatted = src.Formatted
	}
	if src.Valid != "" && src.Valid != model.ValidityUnknown {
		dst.Valid = src.Valid
	}
	if src.LineType != "" {
		dst.LineType = src.LineType
	}
	if src.Confidence.Rank() > dst.Confidence.Rank() {
		dst.Confidence = src.Confidence
	}
	return dst
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
