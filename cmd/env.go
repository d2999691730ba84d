package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/property-research-cli/internal/reconcile"
	"github.com/sells-group/property-research-cli/internal/research"
	"github.com/sells-group/property-research-cli/internal/sink"
	"github.com/sells-group/property-research-cli/internal/store"
	"github.com/sells-group/property-research-cli/internal/workflow"
	"github.com/sells-group/property-research-cli/pkg/acris"
	"github.com/sells-group/property-research-cli/pkg/extract"
	"github.com/sells-group/property-research-cli/pkg/opencorporates"
	"github.com/sells-group/property-research-cli/pkg/propertyshark"
	"github.com/sells-group/property-research-cli/pkg/skiptrace"
	"github.com/sells-group/property-research-cli/pkg/twilio"
	"github.com/sells-group/property-research-cli/pkg/zola"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "research.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// buildDeps assembles the collector clients from config. Clients whose
// credentials are absent stay nil; their steps degrade to recorded skips.
func buildDeps() (*research.Deps, error) {
	deps := &research.Deps{
		Zola:  zola.NewClient(zola.WithBaseURL(cfg.Zola.BaseURL), zola.WithRateLimit(cfg.Zola.RPS)),
		Acris: acris.NewClient(acris.WithBaseURL(cfg.Acris.BaseURL), acris.WithRateLimit(cfg.Acris.RPS)),
	}

	if cfg.PropertyShark.Key != "" {
		deps.PropertyShark = propertyshark.NewClient(cfg.PropertyShark.Key,
			propertyshark.WithBaseURL(cfg.PropertyShark.BaseURL))
	}
	if cfg.OpenCorporates.Token != "" {
		deps.OpenCorporates = opencorporates.NewClient(cfg.OpenCorporates.Token,
			opencorporates.WithBaseURL(cfg.OpenCorporates.BaseURL))
	}
	if cfg.TruePeople.Enabled {
		deps.People = append(deps.People, skiptrace.NewTruePeopleSearch(cfg.TruePeople.Key,
			skiptrace.WithBaseURL(cfg.TruePeople.BaseURL)))
	}
	if cfg.SkipGenie.Enabled {
		deps.People = append(deps.People, skiptrace.NewSkipGenie(cfg.SkipGenie.Key,
			skiptrace.WithBaseURL(cfg.SkipGenie.BaseURL)))
	}
	if cfg.Twilio.AccountSID != "" {
		deps.Twilio = twilio.NewClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken)
	}
	if cfg.Anthropic.Key != "" {
		deps.Extract = extract.NewClient(extract.Config{
			APIKey:    cfg.Anthropic.Key,
			Model:     cfg.Anthropic.Model,
			MaxTokens: cfg.Anthropic.MaxTokens,
		})
	}

	sources, err := research.LoadSources(cfg.Reconcile.SourcesFile)
	if err != nil {
		return nil, err
	}
	deps.Reconciler = reconcile.New(sources.ReconcileConfig(reconcile.Config{
		SimilarityThreshold: cfg.Reconcile.SimilarityThreshold,
		MinSubstringLength:  cfg.Reconcile.MinSubstringLength,
		CorroborationCount:  cfg.Reconcile.CorroborationCount,
	}))

	if cfg.Sinks.XLSXDir != "" {
		deps.Sinks = append(deps.Sinks, sink.NewXLSX(cfg.Sinks.XLSXDir))
	}
	if cfg.Sinks.FTP.Host != "" {
		deps.Sinks = append(deps.Sinks, sink.NewFTP(sink.FTPOptions{
			Host:     cfg.Sinks.FTP.Host,
			User:     cfg.Sinks.FTP.User,
			Password: cfg.Sinks.FTP.Password,
			Dir:      cfg.Sinks.FTP.Dir,
		}))
	}
	if cfg.Sinks.Notion.Token != "" {
		deps.Sinks = append(deps.Sinks, sink.NewNotion(cfg.Sinks.Notion.Token, cfg.Sinks.Notion.DatabaseID))
	}

	return deps, nil
}

// initRunner builds the research runner with a migrated store attached. The
// caller owns the store's lifetime.
func initRunner(ctx context.Context) (*research.Runner, store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, nil, eris.Wrap(err, "migrate store")
	}

	deps, err := buildDeps()
	if err != nil {
		st.Close()
		return nil, nil, err
	}

	engineOpts := []workflow.Option{
		workflow.WithStepTimeout(time.Duration(cfg.Workflow.StepTimeoutSecs) * time.Second),
		workflow.WithRunTimeout(time.Duration(cfg.Workflow.RunTimeoutSecs) * time.Second),
	}

	runner, err := research.NewRunner(deps, engineOpts, research.WithStore(st))
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return runner, st, nil
}
