// Package research wires the external-source clients into the workflow
// engine's default property research graph and runs it end to end.
package research

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/property-research-cli/internal/model"
	"github.com/sells-group/property-research-cli/internal/reconcile"
	"github.com/sells-group/property-research-cli/internal/store"
	"github.com/sells-group/property-research-cli/internal/workflow"
)

// Runner executes research runs against the default graph, persisting run
// lifecycle and results when a store is attached.
type Runner struct {
	deps   *Deps
	engine *workflow.Engine
	store  store.Store
}

// Option configures the runner.
type Option func(*Runner) error

// WithStore attaches run persistence.
func WithStore(st store.Store) Option {
	return func(r *Runner) error {
		r.store = st
		return nil
	}
}

// NewRunner builds the default graph from the given dependencies. A nil
// reconciler falls back to the default thresholds.
func NewRunner(deps *Deps, engineOpts []workflow.Option, opts ...Option) (*Runner, error) {
	if deps == nil {
		return nil, eris.New("research: deps must not be nil")
	}
	if deps.Reconciler == nil {
		deps.Reconciler = reconcile.New(reconcile.Config{})
	}

	graph, err := deps.BuildGraph()
	if err != nil {
		return nil, eris.Wrap(err, "research: build graph")
	}

	r := &Runner{
		deps:   deps,
		engine: workflow.NewEngine(graph, engineOpts...),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Research runs the full graph for one address and returns the persisted run.
// Collector faults surface on the record's error list, not here; the returned
// error covers engine-level failures only.
func (r *Runner) Research(ctx context.Context, address string) (*model.Run, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, eris.New("research: address must not be empty")
	}

	now := time.Now().UTC()
	run := &model.Run{
		ID:        uuid.NewString(),
		Address:   address,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if r.store != nil {
		if err := r.store.CreateRun(ctx, run); err != nil {
			return nil, eris.Wrap(err, "research: create run")
		}
		if err := r.store.UpdateRunStatus(ctx, run.ID, model.RunStatusProcessing); err != nil {
			zap.L().Warn("research: mark run processing failed",
				zap.String("run_id", run.ID),
				zap.Error(err),
			)
		}
	}
	run.Status = model.RunStatusProcessing

	rec, err := r.engine.Run(ctx, model.NewResearchRecord(address))
	if err != nil {
		run.Status = model.RunStatusFailed
		if r.store != nil {
			if serr := r.store.CompleteRun(ctx, run.ID, nil, model.RunStatusFailed); serr != nil {
				zap.L().Warn("research: mark run failed errored",
					zap.String("run_id", run.ID),
					zap.Error(serr),
				)
			}
		}
		return nil, eris.Wrapf(err, "research: run %s", run.ID)
	}

	run.Record = rec
	run.Status = model.RunStatusCompleted
	if rec.Stage == model.StageFailed {
		run.Status = model.RunStatusFailed
	}
	run.UpdatedAt = time.Now().UTC()

	if r.store != nil {
		if err := r.store.CompleteRun(ctx, run.ID, rec, run.Status); err != nil {
			return nil, eris.Wrap(err, "research: persist run result")
		}
	}

	zap.L().Info("research: run complete",
		zap.String("run_id", run.ID),
		zap.String("address", address),
		zap.String("status", string(run.Status)),
		zap.String("owner", rec.OwnerName),
		zap.String("contact_number", rec.ContactNumber),
	)
	return run, nil
}
