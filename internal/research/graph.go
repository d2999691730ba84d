package research

import (
	"github.com/sells-group/property-research-cli/internal/model"
	"github.com/sells-group/property-research-cli/internal/workflow"
)

// Branch predicates, evaluated against the merged record after the source
// step completes.

func hasDocuments(rec *model.ResearchRecord) bool {
	return len(rec.Documents) > 0
}

func ownerIsCompany(rec *model.ResearchRecord) bool {
	return rec.OwnerType.IsCompany()
}

func hasPhones(rec *model.ResearchRecord) bool {
	return len(rec.PhoneCandidates) > 0
}

// BuildGraph assembles the default research graph:
//
//	initialize
//	  ==> zola, acris                          (parallel)
//	  -> assess                                (joins both)
//	  -> documents? -> identify                (when instruments were found)
//	  -> opencorporates? -> contact_search     (when the owner is an entity)
//	  ==> propertyshark, truepeoplesearch, skipgenie
//	  -> refine                                (joins all three)
//	  -> verify? -> finalize                   (when any number surfaced)
func (d *Deps) BuildGraph() (*workflow.Graph, error) {
	b := workflow.NewBuilder(StepInitialize)

	b.Step(StepInitialize, d.initializeCollector())
	b.Step(StepZola, d.zolaCollector())
	b.Step(StepAcris, d.acrisCollector())
	b.Step(StepAssess, d.assessCollector())
	b.Step(StepDocuments, d.documentsCollector())
	b.Step(StepIdentify, d.identifyCollector())
	b.Step(StepOpenCorporates, d.opencorporatesCollector())
	b.Step(StepContactSearch, d.contactSearchCollector())
	b.Step(StepPropertyShark, d.propertysharkCollector())
	for _, p := range d.People {
		b.Step(p.Name(), d.peopleCollector(p))
	}
	b.Step(StepRefine, d.refineCollector())
	b.Step(StepVerify, d.verifyCollector())
	b.Step(StepFinalize, d.finalizeCollector())

	b.Fatal(StepInitialize)

	b.FanOut(StepInitialize, StepZola, StepAcris)
	b.Next(StepZola, StepAssess)
	b.Next(StepAcris, StepAssess)
	b.Join(StepAssess, StepZola, StepAcris)

	b.Conditional(StepAssess, hasDocuments, StepDocuments, StepIdentify)
	b.Next(StepDocuments, StepIdentify)

	b.Conditional(StepIdentify, ownerIsCompany, StepOpenCorporates, StepContactSearch)
	b.Next(StepOpenCorporates, StepContactSearch)

	contactSteps := []string{StepPropertyShark}
	for _, p := range d.People {
		contactSteps = append(contactSteps, p.Name())
	}
	b.FanOut(StepContactSearch, contactSteps...)
	for _, name := range contactSteps {
		b.Next(name, StepRefine)
	}
	b.Join(StepRefine, contactSteps...)

	b.Conditional(StepRefine, hasPhones, StepVerify, StepFinalize)
	b.Next(StepVerify, StepFinalize)

	return b.Build()
}
