package research

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/property-research-cli/internal/model"
	"github.com/sells-group/property-research-cli/internal/reconcile"
	"github.com/sells-group/property-research-cli/internal/sink"
	"github.com/sells-group/property-research-cli/internal/workflow"
	"github.com/sells-group/property-research-cli/pkg/acris"
	"github.com/sells-group/property-research-cli/pkg/extract"
	"github.com/sells-group/property-research-cli/pkg/opencorporates"
	"github.com/sells-group/property-research-cli/pkg/propertyshark"
	"github.com/sells-group/property-research-cli/pkg/skiptrace"
	"github.com/sells-group/property-research-cli/pkg/twilio"
	"github.com/sells-group/property-research-cli/pkg/zola"
)

// How many contact names a people-search collector queries, and how many
// phone candidates the verify step sends to validation.
const (
	maxPeopleQueries = 5
	maxVerifyLookups = 3
)

// Deps bundles the external clients the collectors are built on. Nil clients
// are allowed; their collectors degrade to a recorded skip so a partially
// configured install still produces a usable record.
type Deps struct {
	Zola           zola.Client
	Acris          acris.Client
	PropertyShark  propertyshark.Client
	OpenCorporates opencorporates.Client
	People         []skiptrace.Provider
	Twilio         twilio.Client
	Extract        extract.Client
	Reconciler     *reconcile.Reconciler
	Sinks          []sink.Sink
}

func payload(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func (d *Deps) initializeCollector() workflow.Collector {
	return workflow.CollectorFunc{
		StepName: StepInitialize,
		Fn: func(ctx context.Context, snap *model.ResearchRecord) (model.PartialUpdate, error) {
			zap.L().Info("research: starting", zap.String("address", snap.Address))
			return model.PartialUpdate{
				CurrentStep:  "Starting property research",
				PendingSteps: []string{StepZola, StepAcris},
			}, nil
		},
	}
}

func (d *Deps) zolaCollector() workflow.Collector {
	return workflow.CollectorFunc{
		StepName: StepZola,
		Fn: func(ctx context.Context, snap *model.ResearchRecord) (model.PartialUpdate, error) {
			upd := model.PartialUpdate{CurrentStep: "Looking up tax lot ownership"}
			if d.Zola == nil {
				upd.AddError("zola: client not configured, skipping")
				return upd, nil
			}

			res, err := d.Zola.LookupOwner(ctx, snap.Address)
			if err != nil {
				return upd, err
			}

			upd.SetSourceResult(StepZola, payload(res))
			if res.OwnerName != "" {
				upd.OwnerCandidates = []model.OwnerCandidate{{
					Name:      res.OwnerName,
					OwnerType: reconcile.InferOwnerType(res.OwnerName),
					Source:    StepZola,
				}}
			}
			return upd, nil
		},
	}
}

// ownerRoles are the recorded-party roles that assert current ownership.
var ownerRoles = map[string]bool{
	"":        true,
	"owner":   true,
	"grantee": true,
}

func (d *Deps) acrisCollector() workflow.Collector {
	return workflow.CollectorFunc{
		StepName: StepAcris,
		Fn: func(ctx context.Context, snap *model.ResearchRecord) (model.PartialUpdate, error) {
			upd := model.PartialUpdate{CurrentStep: "Searching recorded instruments"}
			if d.Acris == nil {
				upd.AddError("acris: client not configured, skipping")
				return upd, nil
			}

			res, err := d.Acris.Search(ctx, snap.Address)
			if err != nil {
				return upd, err
			}

			upd.SetSourceResult(StepAcris, payload(res))
			for _, p := range res.Parties {
				if p.Name == "" || !ownerRoles[strings.ToLower(p.Role)] {
					continue
				}
				upd.OwnerCandidates = append(upd.OwnerCandidates, model.OwnerCandidate{
					Name:      p.Name,
					OwnerType: reconcile.InferOwnerType(p.Name),
					Source:    StepAcris,
				})
			}
			for _, doc := range res.Documents {
				upd.Documents = append(upd.Documents, model.Document{
					ID:         doc.ID,
					Type:       doc.DocType,
					URL:        doc.URL,
					RecordedAt: doc.RecordedDate,
					Text:       doc.Text,
				})
			}
			return upd, nil
		},
	}
}

func (d *Deps) assessCollector() workflow.Collector {
	return workflow.CollectorFunc{
		StepName: StepAssess,
		Fn: func(ctx context.Context, snap *model.ResearchRecord) (model.PartialUpdate, error) {
			return model.PartialUpdate{CurrentStep: "Assessing recorded evidence"}, nil
		},
	}
}

func (d *Deps) documentsCollector() workflow.Collector {
	return workflow.CollectorFunc{
		StepName: StepDocuments,
		Fn: func(ctx context.Context, snap *model.ResearchRecord) (model.PartialUpdate, error) {
			upd := model.PartialUpdate{CurrentStep: "Extracting ownership from documents"}
			if d.Extract == nil {
				upd.AddError("documents: extraction client not configured, skipping")
				return upd, nil
			}

			req := extract.ExtractionRequest{Address: snap.Address}
			for _, doc := range snap.Documents {
				if doc.Text == "" {
					continue
				}
				req.Documents = append(req.Documents, extract.DocumentText{
					ID:   doc.ID,
					Type: doc.Type,
					Text: doc.Text,
				})
			}
			if len(req.Documents) == 0 {
				return upd, nil
			}

			ownership, err := d.Extract.ExtractOwnership(ctx, req)
			if err != nil {
				return upd, err
			}

			upd.SetSourceResult(StepDocuments, payload(ownership))
			for _, p := range ownership.Owners {
				if p.Name == "" {
					continue
				}
				upd.OwnerCandidates = append(upd.OwnerCandidates, model.OwnerCandidate{
					Name:      p.Name,
					OwnerType: parseOwnerType(p.Type, p.Name),
					Source:    StepDocuments,
				})
			}
			for _, p := range ownership.Contacts {
				if p.Name == "" {
					continue
				}
				upd.Contacts = append(upd.Contacts, model.IndividualContact{
					Name:   p.Name,
					Source: StepDocuments,
					Role:   p.Role,
				})
			}
			return upd, nil
		},
	}
}

func (d *Deps) identifyCollector() workflow.Collector {
	return workflow.CollectorFunc{
		StepName: StepIdentify,
		Fn: func(ctx context.Context, snap *model.ResearchRecord) (model.PartialUpdate, error) {
			upd := model.PartialUpdate{CurrentStep: "Identifying primary owner"}
			if len(snap.OwnerCandidates) == 0 {
				upd.AddError("identify: no owner candidates from any source")
				return upd, nil
			}

			rc := d.Reconciler.Owners(snap)
			upd.ReplaceOwnerCandidates = rc.OwnerCandidates
			upd.OwnerName = rc.OwnerName
			upd.OwnerType = rc.OwnerType
			upd.OwnerConfidence = rc.OwnerConfidence

			// An individual owner is their own contact for people search.
			if rc.OwnerType == model.OwnerTypeIndividual && rc.OwnerName != "" {
				upd.Contacts = []model.IndividualContact{{
					Name:   rc.OwnerName,
					Source: StepIdentify,
					Role:   "owner",
				}}
			}
			return upd, nil
		},
	}
}

func (d *Deps) opencorporatesCollector() workflow.Collector {
	return workflow.CollectorFunc{
		StepName: StepOpenCorporates,
		Fn: func(ctx context.Context, snap *model.ResearchRecord) (model.PartialUpdate, error) {
			upd := model.PartialUpdate{CurrentStep: "Looking up company officers"}
			if d.OpenCorporates == nil {
				upd.AddError("opencorporates: client not configured, skipping")
				return upd, nil
			}
			if snap.OwnerName == "" {
				return upd, nil
			}

			company, err := d.OpenCorporates.SearchCompany(ctx, snap.OwnerName)
			if err != nil {
				return upd, err
			}

			upd.SetSourceResult(StepOpenCorporates, payload(company))
			for _, o := range company.Officers {
				if o.Name == "" {
					continue
				}
				upd.Contacts = append(upd.Contacts, model.IndividualContact{
					Name:   o.Name,
					Source: StepOpenCorporates,
					Role:   o.Position,
				})
			}
			return upd, nil
		},
	}
}

func (d *Deps) contactSearchCollector() workflow.Collector {
	return workflow.CollectorFunc{
		StepName: StepContactSearch,
		Fn: func(ctx context.Context, snap *model.ResearchRecord) (model.PartialUpdate, error) {
			pending := []string{StepPropertyShark}
			for _, p := range d.People {
				pending = append(pending, p.Name())
			}
			return model.PartialUpdate{
				CurrentStep:  "Searching for contact information",
				PendingSteps: pending,
			}, nil
		},
	}
}

func (d *Deps) propertysharkCollector() workflow.Collector {
	return workflow.CollectorFunc{
		StepName: StepPropertyShark,
		Fn: func(ctx context.Context, snap *model.ResearchRecord) (model.PartialUpdate, error) {
			upd := model.PartialUpdate{CurrentStep: "Pulling ownership report"}
			if d.PropertyShark == nil {
				upd.AddError("propertyshark: client not configured, skipping")
				return upd, nil
			}

			report, err := d.PropertyShark.Ownership(ctx, snap.Address)
			if err != nil {
				return upd, err
			}

			upd.SetSourceResult(StepPropertyShark, payload(report))
			for _, o := range report.Owners {
				if o.Name == "" {
					continue
				}
				upd.OwnerCandidates = append(upd.OwnerCandidates, model.OwnerCandidate{
					Name:      o.Name,
					OwnerType: parseOwnerType(o.Type, o.Name),
					Source:    StepPropertyShark,
				})
			}
			for _, c := range report.Contacts {
				if c.Name != "" {
					upd.Contacts = append(upd.Contacts, model.IndividualContact{
						Name:   c.Name,
						Source: StepPropertyShark,
						Role:   c.Role,
					})
				}
				for _, ph := range c.Phones {
					if ph.Number == "" {
						continue
					}
					cand := model.NewPhoneCandidate(ph.Number, StepPropertyShark, c.Name)
					cand.LineType = ph.Type
					upd.PhoneCandidates = append(upd.PhoneCandidates, cand)
				}
			}
			return upd, nil
		},
	}
}

// peopleCollector builds a collector for one skip-trace provider. Each
// contact lookup fails independently; a provider that errors on one name
// still reports what it found for the others.
func (d *Deps) peopleCollector(p skiptrace.Provider) workflow.Collector {
	return workflow.CollectorFunc{
		StepName: p.Name(),
		Fn: func(ctx context.Context, snap *model.ResearchRecord) (model.PartialUpdate, error) {
			upd := model.PartialUpdate{CurrentStep: "Skip tracing contacts"}

			queries := contactQueries(snap)
			if len(queries) == 0 {
				return upd, nil
			}

			var all []skiptrace.PersonMatch
			for _, name := range queries {
				matches, err := p.SearchPerson(ctx, skiptrace.PersonQuery{
					Name:    name,
					Address: snap.Address,
				})
				if err != nil {
					upd.AddError(p.Name() + ": " + name + ": " + err.Error())
					continue
				}
				all = append(all, matches...)
				for _, m := range matches {
					for _, ph := range m.Phones {
						if ph.Number == "" {
							continue
						}
						cand := model.NewPhoneCandidate(ph.Number, p.Name(), m.Name)
						cand.LineType = ph.Type
						upd.PhoneCandidates = append(upd.PhoneCandidates, cand)
					}
				}
			}
			if len(all) > 0 {
				upd.SetSourceResult(p.Name(), payload(all))
			}
			return upd, nil
		},
	}
}

// contactQueries selects the names worth skip tracing: known individual
// contacts first, the owner themselves when the owner is a person.
func contactQueries(snap *model.ResearchRecord) []string {
	seen := make(map[string]bool)
	var queries []string
	add := func(name string) {
		key := strings.ToUpper(strings.TrimSpace(name))
		if key == "" || seen[key] || len(queries) >= maxPeopleQueries {
			return
		}
		seen[key] = true
		queries = append(queries, strings.TrimSpace(name))
	}

	for _, c := range snap.Contacts {
		add(c.Name)
	}
	if snap.OwnerType == model.OwnerTypeIndividual {
		add(snap.OwnerName)
	}
	return queries
}

func (d *Deps) refineCollector() workflow.Collector {
	return workflow.CollectorFunc{
		StepName: StepRefine,
		Fn: func(ctx context.Context, snap *model.ResearchRecord) (model.PartialUpdate, error) {
			upd := model.PartialUpdate{CurrentStep: "Reconciling evidence"}

			rc := d.Reconciler.Reconcile(snap)
			upd.ReplaceOwnerCandidates = rc.OwnerCandidates
			upd.ReplacePhoneCandidates = rc.PhoneCandidates
			upd.OwnerName = rc.OwnerName
			upd.OwnerType = rc.OwnerType
			upd.OwnerConfidence = rc.OwnerConfidence
			upd.ContactNumber = rc.ContactNumber
			return upd, nil
		},
	}
}

func (d *Deps) verifyCollector() workflow.Collector {
	return workflow.CollectorFunc{
		StepName: StepVerify,
		Fn: func(ctx context.Context, snap *model.ResearchRecord) (model.PartialUpdate, error) {
			upd := model.PartialUpdate{CurrentStep: "Validating phone numbers"}
			if d.Twilio == nil {
				upd.AddError("verify: validation client not configured, skipping")
				return upd, nil
			}

			work := snap.Clone()
			checked := 0
			for i := range work.PhoneCandidates {
				if checked >= maxVerifyLookups {
					break
				}
				c := &work.PhoneCandidates[i]
				if c.Valid != model.ValidityUnknown && c.Valid != "" {
					continue
				}
				number := e164(c.Digits)
				if number == "" {
					c.Valid = model.ValidityInvalid
					continue
				}
				checked++

				res, err := d.Twilio.Lookup(ctx, number)
				if err != nil {
					upd.AddError("verify: " + c.Digits + ": " + err.Error())
					continue
				}
				if res.Valid {
					c.Valid = model.ValidityValid
					if res.LineType != "" {
						c.LineType = res.LineType
					}
				} else {
					c.Valid = model.ValidityInvalid
				}
			}

			// Re-rank with the validation outcomes folded in. Validation only
			// changes validity; it never adds evidence weight.
			rc := d.Reconciler.Phones(work)
			upd.ReplacePhoneCandidates = rc.PhoneCandidates
			if rc.ContactNumber != "" {
				upd.ContactNumber = rc.ContactNumber
			} else if snap.ContactNumber != "" {
				upd.ClearContactNumber = true
			}
			return upd, nil
		},
	}
}

// e164 renders a US digit string for the lookup API.
func e164(digits string) string {
	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits
	}
	return ""
}

func (d *Deps) finalizeCollector() workflow.Collector {
	return workflow.CollectorFunc{
		StepName: StepFinalize,
		Fn: func(ctx context.Context, snap *model.ResearchRecord) (model.PartialUpdate, error) {
			upd := model.PartialUpdate{CurrentStep: "Research completed"}
			for _, s := range d.Sinks {
				if err := s.Write(ctx, snap); err != nil {
					upd.AddError("finalize: " + s.Name() + ": " + err.Error())
					zap.L().Warn("research: sink write failed",
						zap.String("sink", s.Name()),
						zap.Error(err),
					)
				}
			}
			return upd, nil
		},
	}
}

// parseOwnerType maps a source-reported type label onto the owner taxonomy,
// falling back to suffix inference on the name.
func parseOwnerType(label, name string) model.OwnerType {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "individual", "person":
		return model.OwnerTypeIndividual
	case "llc":
		return model.OwnerTypeLLC
	case "corporation", "corp":
		return model.OwnerTypeCorporation
	case "trust":
		return model.OwnerTypeTrust
	}
	return reconcile.InferOwnerType(name)
}
