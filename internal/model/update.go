package model

// PartialUpdate is a collector's contribution to the research record. All
// fields are optional; the zero value is a no-op update. Collectors build
// updates against a snapshot and never touch the canonical record.
type PartialUpdate struct {
	Address string

	SourceResults map[string]string
	Documents     []Document

	OwnerCandidates []OwnerCandidate
	Contacts        []IndividualContact
	PhoneCandidates []PhoneCandidate

	OwnerName       string
	OwnerType       OwnerType
	OwnerConfidence Confidence
	ContactNumber   string

	// ClearContactNumber retracts the primary number, used when validation
	// invalidates the previously selected one and nothing eligible remains.
	ClearContactNumber bool

	// Replacement fields carry reconciliation output: the deduplicated,
	// ranked candidate sets overwrite the accumulated ones when non-nil.
	// Only the reconciler emits these, at designated join points.
	ReplaceOwnerCandidates []OwnerCandidate
	ReplacePhoneCandidates []PhoneCandidate

	Errors []string

	CurrentStep string

	// PendingSteps replaces the record's pending list when non-nil.
	PendingSteps []string

	// Stage advances the record's stage when set; backward transitions are
	// ignored at merge time.
	Stage Stage
}

// IsZero reports whether the update carries no changes.
func (u PartialUpdate) IsZero() bool {
	return u.Address == "" &&
		len(u.SourceResults) == 0 &&
		len(u.Documents) == 0 &&
		len(u.OwnerCandidates) == 0 &&
		len(u.Contacts) == 0 &&
		len(u.PhoneCandidates) == 0 &&
		u.OwnerName == "" &&
		u.OwnerType == "" &&
		u.OwnerConfidence == "" &&
		u.ContactNumber == "" &&
		!u.ClearContactNumber &&
		u.ReplaceOwnerCandidates == nil &&
		u.ReplacePhoneCandidates == nil &&
		len(u.Errors) == 0 &&
		u.CurrentStep == "" &&
		u.PendingSteps == nil &&
		u.Stage == ""
}

// AddError appends a diagnostic error to the update.
func (u *PartialUpdate) AddError(msg string) {
	u.Errors = append(u.Errors, msg)
}

// SetSourceResult records a collector's raw output payload.
func (u *PartialUpdate) SetSourceResult(source, payload string) {
	if u.SourceResults == nil {
		u.SourceResults = make(map[string]string, 1)
	}
	u.SourceResults[source] = payload
}
