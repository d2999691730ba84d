package merge

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/property-research-cli/internal/model"
)

func TestApply_NeverMutatesBase(t *testing.T) {
	base := model.NewResearchRecord("123 Main St")
	base.Errors = []string{"first"}

	out := Apply(base, model.PartialUpdate{
		Errors:      []string{"second"},
		CurrentStep: "next",
	})

	assert.Equal(t, []string{"first"}, base.Errors)
	assert.Empty(t, base.CurrentStep)
	assert.Equal(t, []string{"first", "second"}, out.Errors)
	assert.Equal(t, "next", out.CurrentStep)
}

func TestApply_NilBase(t *testing.T) {
	out := Apply(nil, model.PartialUpdate{Address: "9 Elm St"})
	assert.Equal(t, "9 Elm St", out.Address)
}

func TestApply_AddressFirstWins(t *testing.T) {
	base := model.NewResearchRecord("123 Main St")
	out := Apply(base, model.PartialUpdate{Address: "999 Other Ave"})
	assert.Equal(t, "123 Main St", out.Address)
}

func TestApply_LastWriterFields(t *testing.T) {
	base := model.NewResearchRecord("123 Main St")
	base.OwnerName = "Old Owner"
	base.ContactNumber = "(212) 555-0100"

	out := Apply(base, model.PartialUpdate{
		OwnerName:       "Acme LLC",
		OwnerType:       model.OwnerTypeLLC,
		OwnerConfidence: model.ConfidenceMedium,
		ContactNumber:   "(212) 555-0147",
	})

	assert.Equal(t, "Acme LLC", out.OwnerName)
	assert.Equal(t, model.OwnerTypeLLC, out.OwnerType)
	assert.Equal(t, model.ConfidenceMedium, out.OwnerConfidence)
	assert.Equal(t, "(212) 555-0147", out.ContactNumber)

	// Empty values leave the previous ones alone.
	out = Apply(out, model.PartialUpdate{})
	assert.Equal(t, "Acme LLC", out.OwnerName)
	assert.Equal(t, "(212) 555-0147", out.ContactNumber)
}

func TestApply_ClearContactNumber(t *testing.T) {
	base := model.NewResearchRecord("123 Main St")
	base.ContactNumber = "(212) 555-0147"

	out := Apply(base, model.PartialUpdate{ClearContactNumber: true})
	assert.Empty(t, out.ContactNumber)

	// A set number beats the clear flag.
	base.ContactNumber = "(212) 555-0147"
	out = Apply(base, model.PartialUpdate{ContactNumber: "(212) 555-0199", ClearContactNumber: true})
	assert.Equal(t, "(212) 555-0199", out.ContactNumber)
}

func TestApply_ErrorsAppendOnly(t *testing.T) {
	base := model.NewResearchRecord("123 Main St")
	out := Apply(base, model.PartialUpdate{Errors: []string{"zola: boom"}})
	out = Apply(out, model.PartialUpdate{Errors: []string{"acris: bust", "zola: boom"}})

	assert.Equal(t, []string{"zola: boom", "acris: bust", "zola: boom"}, out.Errors)
}

func TestApply_SourceResultsKeepExisting(t *testing.T) {
	base := model.NewResearchRecord("123 Main St")
	out := Apply(base, model.PartialUpdate{SourceResults: map[string]string{"zola": "first"}})
	out = Apply(out, model.PartialUpdate{SourceResults: map[string]string{
		"zola":  "second",
		"acris": "fresh",
	}})

	assert.Equal(t, "first", out.SourceResults["zola"])
	assert.Equal(t, "fresh", out.SourceResults["acris"])
}

func TestApply_DocumentsUnionByID(t *testing.T) {
	base := model.NewResearchRecord("123 Main St")
	out := Apply(base, model.PartialUpdate{Documents: []model.Document{
		{ID: "doc-1", Type: "DEED"},
	}})
	out = Apply(out, model.PartialUpdate{Documents: []model.Document{
		{ID: "doc-1", Type: "DEED AGAIN"},
		{ID: "doc-2", Type: "MORTGAGE"},
		{ID: ""},
	}})

	require.Len(t, out.Documents, 2)
	assert.Equal(t, "DEED", out.Documents[0].Type)
	assert.Equal(t, "doc-2", out.Documents[1].ID)
}

func TestApply_OwnerUnionUpgradesInPlace(t *testing.T) {
	base := model.NewResearchRecord("123 Main St")
	out := Apply(base, model.PartialUpdate{OwnerCandidates: []model.OwnerCandidate{
		{Name: "Acme LLC", Source: "zola", OwnerType: model.OwnerTypeUnknown, Confidence: model.ConfidenceLow},
	}})
	out = Apply(out, model.PartialUpdate{OwnerCandidates: []model.OwnerCandidate{
		{Name: "Acme LLC", Source: "zola", OwnerType: model.OwnerTypeLLC, Confidence: model.ConfidenceHigh, Sources: []string{"zola", "acris"}},
		{Name: "Acme LLC", Source: "acris"},
	}})

	require.Len(t, out.OwnerCandidates, 2)
	assert.Equal(t, model.ConfidenceHigh, out.OwnerCandidates[0].Confidence)
	assert.Equal(t, model.OwnerTypeLLC, out.OwnerCandidates[0].OwnerType)
	assert.Equal(t, 0, out.OwnerCandidates[0].Order)
	// Corroborating sources union on collision instead of being dropped.
	assert.Equal(t, []string{"zola", "acris"}, out.OwnerCandidates[0].Sources)
	assert.Equal(t, "acris", out.OwnerCandidates[1].Source)
	assert.Equal(t, 1, out.OwnerCandidates[1].Order)
}

func TestApply_PhoneUnionMergesSubfields(t *testing.T) {
	base := model.NewResearchRecord("123 Main St")
	first := model.NewPhoneCandidate("(212) 555-0147", "propertyshark", "Jane Roe")
	out := Apply(base, model.PartialUpdate{PhoneCandidates: []model.PhoneCandidate{first}})

	second := model.NewPhoneCandidate("212.555.0147", "skipgenie", "Jane Roe")
	second.Valid = model.ValidityValid
	second.LineType = "mobile"
	out = Apply(out, model.PartialUpdate{PhoneCandidates: []model.PhoneCandidate{second}})

	require.Len(t, out.PhoneCandidates, 1)
	p := out.PhoneCandidates[0]
	assert.ElementsMatch(t, []string{"propertyshark", "skipgenie"}, p.Sources)
	assert.Equal(t, []string{"Jane Roe"}, p.Contacts)
	assert.Equal(t, 2, p.ContactHits["Jane Roe"])
	assert.Equal(t, model.ValidityValid, p.Valid)
	assert.Equal(t, "mobile", p.LineType)
	// Raw of the first sighting is kept.
	assert.Equal(t, "(212) 555-0147", p.Raw)
}

func TestApply_PhoneValidityNeverDowngradesToUnknown(t *testing.T) {
	base := model.NewResearchRecord("123 Main St")
	p := model.NewPhoneCandidate("212-555-0147", "propertyshark", "")
	p.Valid = model.ValidityInvalid
	out := Apply(base, model.PartialUpdate{PhoneCandidates: []model.PhoneCandidate{p}})

	again := model.NewPhoneCandidate("212-555-0147", "skipgenie", "")
	out = Apply(out, model.PartialUpdate{PhoneCandidates: []model.PhoneCandidate{again}})

	assert.Equal(t, model.ValidityInvalid, out.PhoneCandidates[0].Valid)
}

func TestApply_ReplaceCandidateSets(t *testing.T) {
	base := model.NewResearchRecord("123 Main St")
	out := Apply(base, model.PartialUpdate{
		OwnerCandidates: []model.OwnerCandidate{
			{Name: "Acme LLC", Source: "zola"},
			{Name: "ACME L.L.C.", Source: "acris"},
		},
		PhoneCandidates: []model.PhoneCandidate{
			model.NewPhoneCandidate("212-555-0147", "propertyshark", ""),
			model.NewPhoneCandidate("212-555-0199", "skipgenie", ""),
		},
	})

	out = Apply(out, model.PartialUpdate{
		ReplaceOwnerCandidates: []model.OwnerCandidate{{Name: "Acme LLC", Source: "acris"}},
		ReplacePhoneCandidates: []model.PhoneCandidate{model.NewPhoneCandidate("212-555-0147", "propertyshark", "")},
	})

	require.Len(t, out.OwnerCandidates, 1)
	require.Len(t, out.PhoneCandidates, 1)

	// Empty non-nil replacement empties the set; nil leaves it alone.
	out = Apply(out, model.PartialUpdate{ReplaceOwnerCandidates: []model.OwnerCandidate{}})
	assert.Empty(t, out.OwnerCandidates)
	out = Apply(out, model.PartialUpdate{})
	assert.Len(t, out.PhoneCandidates, 1)
}

func TestApply_PendingStepsReplaced(t *testing.T) {
	base := model.NewResearchRecord("123 Main St")
	base.PendingSteps = []string{"zola", "acris"}

	out := Apply(base, model.PartialUpdate{})
	assert.Equal(t, []string{"zola", "acris"}, out.PendingSteps)

	out = Apply(out, model.PartialUpdate{PendingSteps: []string{"refine"}})
	assert.Equal(t, []string{"refine"}, out.PendingSteps)

	out = Apply(out, model.PartialUpdate{PendingSteps: []string{}})
	assert.Empty(t, out.PendingSteps)
}

func TestApply_StageForwardOnly(t *testing.T) {
	base := model.NewResearchRecord("123 Main St")

	out := Apply(base, model.PartialUpdate{Stage: model.StageRunning})
	assert.Equal(t, model.StageRunning, out.Stage)

	out = Apply(out, model.PartialUpdate{Stage: model.StagePending})
	assert.Equal(t, model.StageRunning, out.Stage)

	out = Apply(out, model.PartialUpdate{Stage: model.StageCompleted})
	assert.Equal(t, model.StageCompleted, out.Stage)

	out = Apply(out, model.PartialUpdate{Stage: model.StageRunning})
	assert.Equal(t, model.StageCompleted, out.Stage)
}

// Concurrent branches must converge on the same evidence set regardless of
// which merge lands first. Insertion order may differ; membership and merged
// sub-fields may not.
func TestApply_OrderInsensitiveForSets(t *testing.T) {
	updA := model.PartialUpdate{
		SourceResults:   map[string]string{"zola": "a"},
		OwnerCandidates: []model.OwnerCandidate{{Name: "Acme LLC", Source: "zola"}},
		PhoneCandidates: []model.PhoneCandidate{model.NewPhoneCandidate("212-555-0147", "zola", "Jane Roe")},
	}
	updB := model.PartialUpdate{
		SourceResults: map[string]string{"acris": "b"},
		OwnerCandidates: []model.OwnerCandidate{
			{Name: "Acme LLC", Source: "acris"},
			{Name: "Jane Roe", Source: "acris"},
		},
		PhoneCandidates: []model.PhoneCandidate{model.NewPhoneCandidate("(212) 555-0147", "acris", "Jane Roe")},
	}

	ab := Apply(Apply(model.NewResearchRecord("123 Main St"), updA), updB)
	ba := Apply(Apply(model.NewResearchRecord("123 Main St"), updB), updA)

	assert.Equal(t, ab.SourceResults, ba.SourceResults)
	assert.ElementsMatch(t, ownerKeys(ab.OwnerCandidates), ownerKeys(ba.OwnerCandidates))

	require.Len(t, ab.PhoneCandidates, 1)
	require.Len(t, ba.PhoneCandidates, 1)
	pa, pb := ab.PhoneCandidates[0], ba.PhoneCandidates[0]
	assert.ElementsMatch(t, pa.Sources, pb.Sources)
	assert.Equal(t, pa.ContactHits, pb.ContactHits)
	assert.Equal(t, pa.Digits, pb.Digits)
}

func ownerKeys(cands []model.OwnerCandidate) []string {
	keys := make([]string, 0, len(cands))
	for _, c := range cands {
		keys = append(keys, c.Key())
	}
	sort.Strings(keys)
	return keys
}
