// Package workflow provides the research execution engine: a directed graph
// of collector-bound steps with conditional branching, parallel fan-out and
// join barriers, driven concurrently with serialized state merges.
package workflow

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/property-research-cli/internal/model"
)

// Collector is a unit of research work. It receives a private snapshot of the
// current record and returns a partial update plus an optional error. Errors
// are diagnostic: the engine records them and keeps routing.
type Collector interface {
	Name() string
	Collect(ctx context.Context, snapshot *model.ResearchRecord) (model.PartialUpdate, error)
}

// CollectorFunc adapts a function to the Collector interface.
type CollectorFunc struct {
	StepName string
	Fn       func(ctx context.Context, snapshot *model.ResearchRecord) (model.PartialUpdate, error)
}

// Name implements Collector.
func (c CollectorFunc) Name() string { return c.StepName }

// Collect implements Collector.
func (c CollectorFunc) Collect(ctx context.Context, snapshot *model.ResearchRecord) (model.PartialUpdate, error) {
	return c.Fn(ctx, snapshot)
}

// Predicate routes a conditional edge by inspecting the merged record.
type Predicate func(*model.ResearchRecord) bool

type edgeKind int

const (
	edgeNext edgeKind = iota
	edgeConditional
	edgeFanOut
)

type edge struct {
	kind      edgeKind
	target    string
	targets   []string
	predicate Predicate
	ifTrue    string
	ifFalse   string
}

// step is a named node bound to a Collector. A step with a non-empty join set
// becomes eligible only after every listed predecessor has completed.
type step struct {
	name      string
	collector Collector
	fatal     bool
	joinOf    []string
	edges     []edge
}

// Graph is an immutable, validated step graph. Build one with Builder; the
// zero value is unusable.
type Graph struct {
	start string
	steps map[string]*step
}

// Builder assembles a Graph. Errors are accumulated and surfaced by Build so
// construction mistakes (dangling edges, undeclared join predecessors) fail
// before any run starts.
type Builder struct {
	start string
	steps map[string]*step
	order []string
	errs  []error
}

// NewBuilder creates a graph builder with the given start step name.
func NewBuilder(start string) *Builder {
	return &Builder{
		start: start,
		steps: make(map[string]*step),
	}
}

// Step declares a step bound to a collector.
func (b *Builder) Step(name string, c Collector) *Builder {
	if name == "" {
		b.errs = append(b.errs, eris.New("workflow: step name must not be empty"))
		return b
	}
	if c == nil {
		b.errs = append(b.errs, eris.Errorf("workflow: step %q has no collector", name))
		return b
	}
	if _, ok := b.steps[name]; ok {
		b.errs = append(b.errs, eris.Errorf("workflow: step %q declared twice", name))
		return b
	}
	b.steps[name] = &step{name: name, collector: c}
	b.order = append(b.order, name)
	return b
}

// Fatal marks a step as fatal: a fault in it fails the whole run.
func (b *Builder) Fatal(name string) *Builder {
	if s, ok := b.steps[name]; ok {
		s.fatal = true
	} else {
		b.errs = append(b.errs, eris.Errorf("workflow: fatal on undeclared step %q", name))
	}
	return b
}

// Next adds an unconditional edge.
func (b *Builder) Next(from, to string) *Builder {
	b.addEdge(from, edge{kind: edgeNext, target: to})
	return b
}

// Conditional adds an edge that routes to ifTrue or ifFalse by evaluating the
// predicate against the merged record.
func (b *Builder) Conditional(from string, p Predicate, ifTrue, ifFalse string) *Builder {
	if p == nil {
		b.errs = append(b.errs, eris.Errorf("workflow: conditional edge from %q has nil predicate", from))
		return b
	}
	b.addEdge(from, edge{kind: edgeConditional, predicate: p, ifTrue: ifTrue, ifFalse: ifFalse})
	return b
}

// FanOut adds an edge that schedules all targets concurrently.
func (b *Builder) FanOut(from string, targets ...string) *Builder {
	if len(targets) == 0 {
		b.errs = append(b.errs, eris.Errorf("workflow: fan-out from %q has no targets", from))
		return b
	}
	b.addEdge(from, edge{kind: edgeFanOut, targets: append([]string(nil), targets...)})
	return b
}

// Join declares that a step waits for every named predecessor to complete
// before it becomes eligible.
func (b *Builder) Join(name string, predecessors ...string) *Builder {
	s, ok := b.steps[name]
	if !ok {
		b.errs = append(b.errs, eris.Errorf("workflow: join on undeclared step %q", name))
		return b
	}
	if len(predecessors) == 0 {
		b.errs = append(b.errs, eris.Errorf("workflow: join step %q has empty predecessor set", name))
		return b
	}
	s.joinOf = append([]string(nil), predecessors...)
	return b
}

func (b *Builder) addEdge(from string, e edge) {
	s, ok := b.steps[from]
	if !ok {
		b.errs = append(b.errs, eris.Errorf("workflow: edge from undeclared step %q", from))
		return
	}
	s.edges = append(s.edges, e)
}

// Build validates the graph and returns it. All accumulated construction
// errors are reported; a graph with any error is never returned.
func (b *Builder) Build() (*Graph, error) {
	errs := append([]error(nil), b.errs...)

	if _, ok := b.steps[b.start]; !ok {
		errs = append(errs, eris.Errorf("workflow: start step %q not declared", b.start))
	}

	for _, name := range b.order {
		s := b.steps[name]
		for _, e := range s.edges {
			for _, target := range edgeTargets(e) {
				if _, ok := b.steps[target]; !ok {
					errs = append(errs, eris.Errorf("workflow: step %q routes to undeclared step %q", name, target))
				}
			}
		}
		for _, pred := range s.joinOf {
			if _, ok := b.steps[pred]; !ok {
				errs = append(errs, eris.Errorf("workflow: join step %q references undeclared predecessor %q", name, pred))
			}
		}
	}

	if len(errs) > 0 {
		return nil, eris.Wrap(errors.Join(errs...), "workflow: invalid graph")
	}

	steps := make(map[string]*step, len(b.steps))
	for name, s := range b.steps {
		steps[name] = s
	}
	return &Graph{start: b.start, steps: steps}, nil
}

func edgeTargets(e edge) []string {
	switch e.kind {
	case edgeNext:
		return []string{e.target}
	case edgeConditional:
		return []string{e.ifTrue, e.ifFalse}
	case edgeFanOut:
		return e.targets
	}
	return nil
}

// Steps returns the declared step names.
func (g *Graph) Steps() []string {
	names := make([]string, 0, len(g.steps))
	for name := range g.steps {
		names = append(names, name)
	}
	return names
}
