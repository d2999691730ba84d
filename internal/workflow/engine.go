package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/property-research-cli/internal/merge"
	"github.com/sells-group/property-research-cli/internal/model"
)

const defaultStepTimeout = 60 * time.Second

// Engine executes a graph for one research run. Collectors run concurrently;
// their updates are folded into the canonical record one at a time by the
// engine's result loop, which is the only goroutine that touches it.
type Engine struct {
	graph       *Graph
	stepTimeout time.Duration
	runTimeout  time.Duration
}

// Option configures the engine.
type Option func(*Engine)

// WithStepTimeout bounds each collector invocation. A step that exceeds it is
// treated as a fault.
func WithStepTimeout(d time.Duration) Option {
	return func(e *Engine) { e.stepTimeout = d }
}

// WithRunTimeout bounds the whole run. Outstanding collectors are cancelled;
// each cancelled branch is folded into the record's errors independently.
func WithRunTimeout(d time.Duration) Option {
	return func(e *Engine) { e.runTimeout = d }
}

// NewEngine creates an engine for the given graph.
func NewEngine(g *Graph, opts ...Option) *Engine {
	e := &Engine{
		graph:       g,
		stepTimeout: defaultStepTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type stepResult struct {
	name   string
	update model.PartialUpdate
	err    error
}

// Run drives the graph from the start step until no step is ready or in
// flight, then returns the terminal record. Collector faults never abort the
// run; only a fault in a step marked fatal moves the record to StageFailed.
func (e *Engine) Run(ctx context.Context, rec *model.ResearchRecord) (*model.ResearchRecord, error) {
	if rec == nil || strings.TrimSpace(rec.Address) == "" {
		return nil, eris.New("workflow: record address must not be empty")
	}

	if e.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.runTimeout)
		defer cancel()
	}

	log := zap.L().With(zap.String("address", rec.Address))
	log.Info("workflow: starting run", zap.Int("steps", len(e.graph.steps)))

	rec = merge.Apply(rec, model.PartialUpdate{Stage: model.StageRunning})

	results := make(chan stepResult)
	scheduled := make(map[string]bool, len(e.graph.steps))
	completed := make(map[string]bool, len(e.graph.steps))
	pendingJoins := make(map[string]bool)
	inflight := 0
	fatalFault := false

	launch := func(s *step) {
		// The snapshot is captured under the serialized loop, so every step
		// scheduled after a merge sees that merged state.
		snap := rec.Clone()
		inflight++
		go e.invoke(ctx, s, snap, results)
	}

	joinReady := func(s *step) bool {
		for _, pred := range s.joinOf {
			if !completed[pred] {
				return false
			}
		}
		return true
	}

	trySchedule := func(name string) {
		if scheduled[name] {
			return
		}
		s := e.graph.steps[name]
		if !joinReady(s) {
			pendingJoins[name] = true
			return
		}
		scheduled[name] = true
		delete(pendingJoins, name)
		launch(s)
	}

	trySchedule(e.graph.start)

	for inflight > 0 {
		res := <-results
		inflight--

		rec = merge.Apply(rec, res.update)
		completed[res.name] = true

		s := e.graph.steps[res.name]
		if res.err != nil {
			rec = merge.Apply(rec, model.PartialUpdate{
				Errors: []string{res.name + ": " + res.err.Error()},
			})
			log.Warn("workflow: step faulted",
				zap.String("step", res.name),
				zap.Error(res.err),
			)
			if s.fatal {
				fatalFault = true
			}
		} else {
			log.Debug("workflow: step complete", zap.String("step", res.name))
		}

		// Faulted steps still route: their edges run against whatever
		// partial update they managed to produce.
		for _, edg := range s.edges {
			for _, target := range e.routeEdge(edg, rec) {
				trySchedule(target)
			}
		}

		// A completion may unblock a previously gated join.
		for name := range pendingJoins {
			if joinReady(e.graph.steps[name]) {
				trySchedule(name)
			}
		}
	}

	stage := model.StageCompleted
	if fatalFault {
		stage = model.StageFailed
	}
	rec = merge.Apply(rec, model.PartialUpdate{Stage: stage, PendingSteps: []string{}})

	log.Info("workflow: run finished",
		zap.String("stage", string(rec.Stage)),
		zap.Int("steps_completed", len(completed)),
		zap.Int("errors", len(rec.Errors)),
	)

	return rec, nil
}

// routeEdge resolves an edge to the steps it schedules, evaluating
// conditional predicates against the merged record.
func (e *Engine) routeEdge(edg edge, rec *model.ResearchRecord) []string {
	switch edg.kind {
	case edgeNext:
		return []string{edg.target}
	case edgeConditional:
		if edg.predicate(rec) {
			return []string{edg.ifTrue}
		}
		return []string{edg.ifFalse}
	case edgeFanOut:
		return edg.targets
	}
	return nil
}

// invoke runs one collector against its snapshot, bounded by the step
// timeout. A panic or timeout is reported as a fault, never propagated.
func (e *Engine) invoke(ctx context.Context, s *step, snap *model.ResearchRecord, results chan<- stepResult) {
	sctx := ctx
	if e.stepTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, e.stepTimeout)
		defer cancel()
	}

	done := make(chan stepResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- stepResult{name: s.name, err: eris.Errorf("workflow: step panicked: %v", r)}
			}
		}()
		upd, err := s.collector.Collect(sctx, snap)
		done <- stepResult{name: s.name, update: upd, err: err}
	}()

	select {
	case res := <-done:
		results <- res
	case <-sctx.Done():
		results <- stepResult{
			name: s.name,
			err:  eris.Wrapf(sctx.Err(), "workflow: step %s cancelled", s.name),
		}
	}
}
