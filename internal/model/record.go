package model

// Stage tracks the lifecycle of a research run. Transitions are forward-only:
// Pending -> Running -> Completed or Failed.
type Stage string

const (
	StagePending   Stage = "pending"
	StageRunning   Stage = "running"
	StageCompleted Stage = "completed"
	StageFailed    Stage = "failed"
)

var stageRank = map[Stage]int{
	StagePending:   0,
	StageRunning:   1,
	StageCompleted: 2,
	StageFailed:    2,
}

// Rank returns the ordering position of the stage. Unknown stages rank lowest.
func (s Stage) Rank() int {
	return stageRank[s]
}

// Document is a property record file surfaced by a records search, pending
// extraction. Text holds the instrument abstract when the registry indexed
// one.
type Document struct {
	ID         string `json:"id"`
	Type       string `json:"type,omitempty"`
	URL        string `json:"url,omitempty"`
	RecordedAt string `json:"recorded_at,omitempty"`
	Text       string `json:"text,omitempty"`
}

// ResearchRecord is the single aggregate for one property address. It is
// mutable by replacement only: collectors receive clones and the engine folds
// their partial updates back into the canonical copy one at a time.
type ResearchRecord struct {
	Address string `json:"address"`

	// SourceResults maps a collector name to its raw output payload. A key is
	// absent until that collector has run.
	SourceResults map[string]string `json:"source_results,omitempty"`

	Documents []Document `json:"documents,omitempty"`

	OwnerCandidates []OwnerCandidate    `json:"owner_candidates,omitempty"`
	Contacts        []IndividualContact `json:"contacts,omitempty"`
	PhoneCandidates []PhoneCandidate    `json:"phone_candidates,omitempty"`

	// Primary selections made by reconciliation.
	OwnerName       string     `json:"owner_name,omitempty"`
	OwnerType       OwnerType  `json:"owner_type,omitempty"`
	OwnerConfidence Confidence `json:"owner_confidence,omitempty"`
	ContactNumber   string     `json:"contact_number,omitempty"`

	// Errors is append-only: merges concatenate, never drop or reorder.
	Errors []string `json:"errors,omitempty"`

	CurrentStep  string   `json:"current_step,omitempty"`
	PendingSteps []string `json:"pending_steps,omitempty"`
	Stage        Stage    `json:"stage"`
}

// NewResearchRecord creates a pending record for the given address.
func NewResearchRecord(address string) *ResearchRecord {
	return &ResearchRecord{
		Address: address,
		Stage:   StagePending,
	}
}

// Clone returns a deep copy of the record. The engine hands clones to
// collectors so concurrent steps never share the canonical record.
func (r *ResearchRecord) Clone() *ResearchRecord {
	if r == nil {
		return nil
	}
	c := *r

	if r.SourceResults != nil {
		c.SourceResults = make(map[string]string, len(r.SourceResults))
		for k, v := range r.SourceResults {
			c.SourceResults[k] = v
		}
	}

	c.Documents = append([]Document(nil), r.Documents...)
	if r.OwnerCandidates != nil {
		c.OwnerCandidates = make([]OwnerCandidate, len(r.OwnerCandidates))
		for i, oc := range r.OwnerCandidates {
			oc.Sources = append([]string(nil), oc.Sources...)
			c.OwnerCandidates[i] = oc
		}
	}
	c.Contacts = append([]IndividualContact(nil), r.Contacts...)
	c.Errors = append([]string(nil), r.Errors...)
	c.PendingSteps = append([]string(nil), r.PendingSteps...)

	if r.PhoneCandidates != nil {
		c.PhoneCandidates = make([]PhoneCandidate, len(r.PhoneCandidates))
		for i := range r.PhoneCandidates {
			c.PhoneCandidates[i] = r.PhoneCandidates[i].clone()
		}
	}

	return &c
}
