// Package reconcile resolves conflicting owner-identity and phone-number
// evidence gathered from multiple collectors into a single ranked,
// confidence-labeled view.
package reconcile

import (
	"github.com/sells-group/property-research-cli/internal/model"
)

// Config holds the reconciliation thresholds. The exact values are tuning
// knobs, not invariants; more corroboration always means higher confidence.
type Config struct {
	// SimilarityThreshold is the minimum edit-similarity ratio for two owner
	// names to be treated as the same owner.
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`

	// MinSubstringLength guards the substring match rule against false
	// positives on short names.
	MinSubstringLength int `yaml:"min_substring_length" mapstructure:"min_substring_length"`

	// CorroborationCount is how many independent sources upgrade a candidate
	// to high confidence.
	CorroborationCount int `yaml:"corroboration_count" mapstructure:"corroboration_count"`

	// Authoritative names the sources trusted enough to carry medium
	// confidence on their own (the records registry, legal-document
	// extraction).
	Authoritative map[string]bool `yaml:"authoritative" mapstructure:"authoritative"`

	// SourcePriority breaks ties between candidates of equal confidence;
	// earlier is preferred. Sources not listed rank last.
	SourcePriority []string `yaml:"source_priority" mapstructure:"source_priority"`
}

// DefaultConfig returns the reconciliation defaults.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: 0.95,
		MinSubstringLength:  5,
		CorroborationCount:  2,
		Authoritative: map[string]bool{
			"acris":     true,
			"documents": true,
		},
		SourcePriority: []string{"acris", "documents", "propertyshark", "zola", "opencorporates"},
	}
}

// Reconciler applies the owner and phone resolution rules to a record.
type Reconciler struct {
	cfg Config
}

// New creates a Reconciler. Zero-valued config fields fall back to defaults.
func New(cfg Config) *Reconciler {
	def := DefaultConfig()
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = def.SimilarityThreshold
	}
	if cfg.MinSubstringLength <= 0 {
		cfg.MinSubstringLength = def.MinSubstringLength
	}
	if cfg.CorroborationCount <= 0 {
		cfg.CorroborationCount = def.CorroborationCount
	}
	if cfg.Authoritative == nil {
		cfg.Authoritative = def.Authoritative
	}
	if cfg.SourcePriority == nil {
		cfg.SourcePriority = def.SourcePriority
	}
	return &Reconciler{cfg: cfg}
}

// Reconcile runs owner and phone resolution on a clone of the record and
// returns it. A record with no candidates comes back unchanged: insufficient
// evidence is a valid terminal state, not an error.
func (r *Reconciler) Reconcile(rec *model.ResearchRecord) *model.ResearchRecord {
	out := rec.Clone()
	r.resolveOwners(out)
	r.resolvePhones(out)
	return out
}

// Owners runs only the owner-identity pass, used mid-run to establish an
// interim primary owner before contact search begins.
func (r *Reconciler) Owners(rec *model.ResearchRecord) *model.ResearchRecord {
	out := rec.Clone()
	r.resolveOwners(out)
	return out
}

// Phones runs only the phone pass, used after validation results arrive to
// re-rank candidates without disturbing the owner resolution.
func (r *Reconciler) Phones(rec *model.ResearchRecord) *model.ResearchRecord {
	out := rec.Clone()
	r.resolvePhones(out)
	return out
}

// priorityIndex returns the tie-break rank of a source, lower is better.
func (r *Reconciler) priorityIndex(source string) int {
	for i, s := range r.cfg.SourcePriority {
		if s == source {
			return i
		}
	}
	return len(r.cfg.SourcePriority)
}
