package model

import "strings"

// OwnerType classifies the legal form of a property owner.
type OwnerType string

const (
	OwnerTypeIndividual  OwnerType = "individual"
	OwnerTypeLLC         OwnerType = "llc"
	OwnerTypeCorporation OwnerType = "corporation"
	OwnerTypeTrust       OwnerType = "trust"
	OwnerTypeUnknown     OwnerType = "unknown"
)

// IsCompany reports whether the owner is a legal entity rather than a person.
func (t OwnerType) IsCompany() bool {
	return t == OwnerTypeLLC || t == OwnerTypeCorporation || t == OwnerTypeTrust
}

// Confidence labels how well-supported a piece of evidence is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

var confidenceRank = map[Confidence]int{
	ConfidenceHigh:   3,
	ConfidenceMedium: 2,
	ConfidenceLow:    1,
}

// Rank returns the ordering position of the confidence label, higher is
// better. Unset confidence ranks below Low.
func (c Confidence) Rank() int {
	return confidenceRank[c]
}

// OwnerCandidate is one source's assertion about who owns the property.
// Candidates from different sources coexist until reconciliation selects a
// primary owner.
type OwnerCandidate struct {
	Name       string     `json:"name"`
	OwnerType  OwnerType  `json:"owner_type"`
	Source     string     `json:"source"`
	Confidence Confidence `json:"confidence,omitempty"`

	// Sources lists every source that corroborated this candidate once
	// reconciliation has grouped duplicates. Raw collector candidates leave
	// it empty; Source alone identifies them.
	Sources []string `json:"sources,omitempty"`

	// Order is the discovery index across all collectors, used as the final
	// tie-break when confidence and source priority are equal.
	Order int `json:"order"`
}

// Key identifies a candidate for set-union merging.
func (c OwnerCandidate) Key() string {
	return strings.ToUpper(strings.TrimSpace(c.Name)) + "\x00" + c.Source
}

// IndividualContact is a person associated with the property, produced by
// identity-extraction collectors. Never mutated after creation except for
// name normalization.
type IndividualContact struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Role   string `json:"role,omitempty"`
	Order  int    `json:"order"`
}

// Key identifies a contact for set-union merging.
func (c IndividualContact) Key() string {
	return strings.ToUpper(strings.TrimSpace(c.Name)) + "\x00" + c.Source
}
