package research

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/property-research-cli/internal/reconcile"
)

// Collector and source names. Collector names double as the source label on
// the evidence they produce, so the reconciler's priority list speaks the
// same vocabulary as the graph.
const (
	StepInitialize     = "initialize"
	StepZola           = "zola"
	StepAcris          = "acris"
	StepAssess         = "assess"
	StepDocuments      = "documents"
	StepIdentify       = "identify"
	StepOpenCorporates = "opencorporates"
	StepContactSearch  = "contact_search"
	StepPropertyShark  = "propertyshark"
	StepTruePeople     = "truepeoplesearch"
	StepSkipGenie      = "skipgenie"
	StepRefine         = "refine"
	StepVerify         = "verify"
	StepFinalize       = "finalize"
)

// SourceEntry describes one evidence source in the registry.
type SourceEntry struct {
	Name string `yaml:"name"`

	// Authoritative sources carry medium confidence on their own.
	Authoritative bool `yaml:"authoritative"`
}

// SourceRegistry is the ordered list of evidence sources. Order is the
// reconciler's tie-break priority, earlier is more trusted.
type SourceRegistry struct {
	Sources []SourceEntry `yaml:"sources"`
}

// DefaultSources returns the built-in registry, matching the default graph.
func DefaultSources() *SourceRegistry {
	return &SourceRegistry{
		Sources: []SourceEntry{
			{Name: StepAcris, Authoritative: true},
			{Name: StepDocuments, Authoritative: true},
			{Name: StepPropertyShark},
			{Name: StepZola},
			{Name: StepOpenCorporates},
			{Name: StepTruePeople},
			{Name: StepSkipGenie},
		},
	}
}

// LoadSources reads a source registry from a YAML file. An empty path returns
// the built-in defaults.
func LoadSources(path string) (*SourceRegistry, error) {
	if path == "" {
		return DefaultSources(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "research: read sources %s", path)
	}

	var reg SourceRegistry
	if err := yaml.Unmarshal(data, &reg); err != nil {
		return nil, eris.Wrapf(err, "research: parse sources %s", path)
	}
	if len(reg.Sources) == 0 {
		return nil, eris.Errorf("research: sources file %s declares no sources", path)
	}
	for i, s := range reg.Sources {
		if s.Name == "" {
			return nil, eris.Errorf("research: sources file %s entry %d has no name", path, i)
		}
	}
	return &reg, nil
}

// ReconcileConfig projects the registry onto the reconciler's authority and
// priority settings, keeping the threshold knobs from cfg.
func (r *SourceRegistry) ReconcileConfig(cfg reconcile.Config) reconcile.Config {
	cfg.Authoritative = make(map[string]bool, len(r.Sources))
	cfg.SourcePriority = make([]string, 0, len(r.Sources))
	for _, s := range r.Sources {
		cfg.SourcePriority = append(cfg.SourcePriority, s.Name)
		if s.Authoritative {
			cfg.Authoritative[s.Name] = true
		}
	}
	return cfg
}
