package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/property-research-cli/internal/model"
)

func TestPhoneConfidence(t *testing.T) {
	r := New(Config{})

	assert.Equal(t, model.ConfidenceLow, r.phoneConfidence([]string{"propertyshark"}))
	assert.Equal(t, model.ConfidenceMedium, r.phoneConfidence([]string{"documents"}))
	assert.Equal(t, model.ConfidenceHigh, r.phoneConfidence([]string{"documents", "skipgenie"}))
	assert.Equal(t, model.ConfidenceHigh, r.phoneConfidence([]string{"propertyshark", "skipgenie"}))
	// Repeats of the same source do not corroborate.
	assert.Equal(t, model.ConfidenceLow, r.phoneConfidence([]string{"propertyshark", "propertyshark"}))
}

func TestAttributeContact(t *testing.T) {
	assert.Equal(t, "Jane Roe", attributeContact(map[string]int{"Jane Roe": 3, "John Doe": 1}))
	assert.Equal(t, "Unknown", attributeContact(map[string]int{"Jane Roe": 2, "John Doe": 2}))
	assert.Equal(t, "Unknown", attributeContact(nil))
	assert.Equal(t, "Jane Roe", attributeContact(map[string]int{"Jane Roe": 1}))
}

func TestResolvePhones_RankingAndSelection(t *testing.T) {
	r := New(Config{})
	rec := model.NewResearchRecord("123 Main St")

	low := model.NewPhoneCandidate("212-555-0100", "propertyshark", "Jane Roe")
	low.Order = 0
	high := model.NewPhoneCandidate("212-555-0147", "skipgenie", "Jane Roe")
	high.Sources = append(high.Sources, "truepeoplesearch")
	high.Order = 1
	rec.PhoneCandidates = []model.PhoneCandidate{low, high}

	out := r.Phones(rec)

	require.Len(t, out.PhoneCandidates, 2)
	assert.Equal(t, "(212) 555-0147", out.PhoneCandidates[0].Formatted)
	assert.Equal(t, model.ConfidenceHigh, out.PhoneCandidates[0].Confidence)
	assert.Equal(t, "Jane Roe", out.PhoneCandidates[0].AttributedTo)
	assert.Equal(t, "(212) 555-0147", out.ContactNumber)
}

func TestResolvePhones_InvalidNeverSelected(t *testing.T) {
	r := New(Config{})
	rec := model.NewResearchRecord("123 Main St")

	bad := model.NewPhoneCandidate("212-555-0147", "skipgenie", "")
	bad.Sources = append(bad.Sources, "propertyshark")
	bad.Valid = model.ValidityInvalid
	bad.Order = 0
	ok := model.NewPhoneCandidate("212-555-0100", "truepeoplesearch", "")
	ok.Order = 1
	rec.PhoneCandidates = []model.PhoneCandidate{bad, ok}

	out := r.Phones(rec)

	// The invalid candidate outranks on confidence but is skipped; it stays
	// in the set for audit.
	assert.Equal(t, "(212) 555-0100", out.ContactNumber)
	require.Len(t, out.PhoneCandidates, 2)
}

func TestResolvePhones_AllInvalidClearsSelection(t *testing.T) {
	r := New(Config{})
	rec := model.NewResearchRecord("123 Main St")
	rec.ContactNumber = "(212) 555-0147"

	only := model.NewPhoneCandidate("212-555-0147", "skipgenie", "")
	only.Valid = model.ValidityInvalid
	rec.PhoneCandidates = []model.PhoneCandidate{only}

	out := r.Phones(rec)
	assert.Empty(t, out.ContactNumber)
}

func TestResolvePhones_PrimaryIsStable(t *testing.T) {
	r := New(Config{})
	rec := model.NewResearchRecord("123 Main St")
	rec.ContactNumber = "(212) 555-0100"

	prev := model.NewPhoneCandidate("212-555-0100", "propertyshark", "")
	prev.Order = 0
	newer := model.NewPhoneCandidate("212-555-0147", "skipgenie", "")
	newer.Sources = append(newer.Sources, "truepeoplesearch")
	newer.Order = 1
	rec.PhoneCandidates = []model.PhoneCandidate{prev, newer}

	// A higher-confidence newcomer does not displace a still-valid primary.
	out := r.Phones(rec)
	assert.Equal(t, "(212) 555-0100", out.ContactNumber)

	// Invalidation of the primary does.
	rec.PhoneCandidates[0].Valid = model.ValidityInvalid
	out = r.Phones(rec)
	assert.Equal(t, "(212) 555-0147", out.ContactNumber)
}

func TestResolvePhones_EmptySetUntouched(t *testing.T) {
	r := New(Config{})
	rec := model.NewResearchRecord("123 Main St")
	rec.ContactNumber = "(212) 555-0147"

	out := r.Phones(rec)
	assert.Equal(t, "(212) 555-0147", out.ContactNumber)
}
