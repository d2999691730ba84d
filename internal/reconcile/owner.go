package reconcile

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/property-research-cli/internal/model"
)

// suffixVariants collapses legal-suffix spelling variants to one canonical
// token so "ACME L.L.C." and "ACME LLC" compare equal. Applied to the
// normalized comparison form only; display names keep their original casing.
var suffixVariants = []struct {
	re    *regexp.Regexp
	canon string
}{
	{regexp.MustCompile(`\bL L C\b`), "LLC"},
	{regexp.MustCompile(`\bL L P\b`), "LLP"},
	{regexp.MustCompile(`\bL P\b`), "LP"},
	{regexp.MustCompile(`\bCORPORATION\b`), "CORP"},
	{regexp.MustCompile(`\bINCORPORATED\b`), "INC"},
	{regexp.MustCompile(`\bLIMITED\b`), "LTD"},
	{regexp.MustCompile(`\bCOMPANY\b`), "CO"},
}

var spaceRun = regexp.MustCompile(`\s{2,}`)

var diacriticFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName produces the canonical comparison form of an owner name:
// uppercase, diacritics folded, punctuation stripped, legal suffixes
// canonicalized, whitespace collapsed.
func NormalizeName(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))

	if folded, _, err := transform.String(diacriticFold, n); err == nil {
		n = folded
	}

	var b strings.Builder
	b.Grow(len(n))
	for _, r := range n {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	n = spaceRun.ReplaceAllString(strings.TrimSpace(b.String()), " ")

	for _, v := range suffixVariants {
		n = v.re.ReplaceAllString(n, v.canon)
	}
	return n
}

// InferOwnerType classifies a name by its legal-suffix tokens. Names without
// an entity suffix but with at least two words are treated as individuals.
func InferOwnerType(name string) model.OwnerType {
	n := NormalizeName(name)
	if n == "" {
		return model.OwnerTypeUnknown
	}
	tokens := strings.Fields(n)
	for _, t := range tokens {
		switch t {
		case "LLC", "LLP", "LP", "PLLC":
			return model.OwnerTypeLLC
		case "CORP", "INC", "CO", "LTD":
			return model.OwnerTypeCorporation
		case "TRUST", "TRUSTEE", "TRUSTEES":
			return model.OwnerTypeTrust
		}
	}
	if len(tokens) >= 2 {
		return model.OwnerTypeIndividual
	}
	return model.OwnerTypeUnknown
}

// sameOwner reports whether two normalized names refer to the same owner:
// exact equality, bounded substring containment, or edit similarity at or
// above the configured threshold.
func (r *Reconciler) sameOwner(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if len(a) >= r.cfg.MinSubstringLength && len(b) >= r.cfg.MinSubstringLength &&
		(strings.Contains(a, b) || strings.Contains(b, a)) {
		return true
	}
	return levenshtein.Similarity(a, b, nil) >= r.cfg.SimilarityThreshold
}

// ownerGroup accumulates candidates judged to be the same owner.
type ownerGroup struct {
	normals   []string
	display   model.OwnerCandidate
	sources   map[string]bool
	ownerType model.OwnerType
	order     int
}

func (g *ownerGroup) matches(r *Reconciler, normal string) bool {
	for _, n := range g.normals {
		if r.sameOwner(n, normal) {
			return true
		}
	}
	return false
}

// resolveOwners deduplicates owner candidates, assigns confidence from source
// corroboration, and selects the primary owner. With no candidates the record
// is left untouched.
func (r *Reconciler) resolveOwners(rec *model.ResearchRecord) {
	if len(rec.OwnerCandidates) == 0 {
		return
	}

	candidates := append([]model.OwnerCandidate(nil), rec.OwnerCandidates...)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Order < candidates[j].Order
	})

	var groups []*ownerGroup
	for _, c := range candidates {
		normal := NormalizeName(c.Name)
		if normal == "" {
			continue
		}

		var g *ownerGroup
		for _, existing := range groups {
			if existing.matches(r, normal) {
				g = existing
				break
			}
		}
		if g == nil {
			g = &ownerGroup{
				display:   c,
				sources:   map[string]bool{},
				ownerType: c.OwnerType,
				order:     c.Order,
			}
			groups = append(groups, g)
		}

		g.normals = append(g.normals, normal)
		g.sources[c.Source] = true
		// Candidates that already went through a pass carry the sources that
		// corroborated them; grouping must not lose that provenance.
		for _, s := range c.Sources {
			g.sources[s] = true
		}
		if r.priorityIndex(c.Source) < r.priorityIndex(g.display.Source) {
			g.display = c
		}
		if g.ownerType == "" || g.ownerType == model.OwnerTypeUnknown {
			g.ownerType = c.OwnerType
		}
	}

	resolved := make([]model.OwnerCandidate, 0, len(groups))
	for _, g := range groups {
		ownerType := g.ownerType
		if ownerType == "" || ownerType == model.OwnerTypeUnknown {
			ownerType = InferOwnerType(g.display.Name)
		}
		sources := make([]string, 0, len(g.sources))
		for s := range g.sources {
			sources = append(sources, s)
		}
		sort.Strings(sources)
		resolved = append(resolved, model.OwnerCandidate{
			Name:       g.display.Name,
			OwnerType:  ownerType,
			Source:     g.display.Source,
			Sources:    sources,
			Confidence: r.ownerConfidence(g.sources),
			Order:      g.order,
		})
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		a, b := resolved[i], resolved[j]
		if a.Confidence.Rank() != b.Confidence.Rank() {
			return a.Confidence.Rank() > b.Confidence.Rank()
		}
		if pa, pb := r.priorityIndex(a.Source), r.priorityIndex(b.Source); pa != pb {
			return pa < pb
		}
		return a.Order < b.Order
	})

	rec.OwnerCandidates = resolved
	primary := resolved[0]
	rec.OwnerName = primary.Name
	rec.OwnerType = primary.OwnerType
	rec.OwnerConfidence = primary.Confidence
}

// ownerConfidence applies the corroboration ladder: multiple independent
// sources beat a single authoritative source, which beats everything else.
func (r *Reconciler) ownerConfidence(sources map[string]bool) model.Confidence {
	if len(sources) >= r.cfg.CorroborationCount {
		return model.ConfidenceHigh
	}
	for s := range sources {
		if r.cfg.Authoritative[s] {
			return model.ConfidenceMedium
		}
	}
	return model.ConfidenceLow
}
