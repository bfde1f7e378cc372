package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/DachengChen/sqlagent/ai"
	"github.com/DachengChen/sqlagent/assistant"
	"github.com/DachengChen/sqlagent/audit"
	"github.com/DachengChen/sqlagent/config"
	"github.com/DachengChen/sqlagent/db"
)

// app holds everything serve and chat share: the engine, the answerer
// handed to the front end and the resources to release on exit.
type app struct {
	cfg      *config.Config
	engine   *assistant.Engine
	answerer assistant.Answerer
	registry *prometheus.Registry
	closers  []io.Closer
}

func newApp(cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client := ai.New(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, ai.WithTimeout(cfg.OpenAI.Timeout))
	engine := assistant.NewEngine(client, engineOptions(cfg, assistant.NewMetrics(reg)))

	a := &app{
		cfg:      cfg,
		engine:   engine,
		answerer: engine,
		registry: reg,
	}

	if cfg.Audit.Path != "" {
		sink, err := audit.NewJSONL(cfg.Audit.Path, cfg.Audit.RotateMaxBytes)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, sink)
		a.answerer = audit.Wrap(engine, sink)
	}
	return a, nil
}

func engineOptions(cfg *config.Config, m *assistant.Metrics) assistant.Options {
	dialect := cfg.Assistant.Dialect
	if dialect == "" {
		dialect = cfg.Database.Driver
	}
	return assistant.Options{
		Model:           cfg.OpenAI.Model,
		Name:            cfg.Assistant.Name,
		VectorStoreName: cfg.Assistant.VectorStoreName,
		AssistantID:     cfg.OpenAI.AssistantID,
		Instructions:    ai.Instructions(ai.DialectFor(dialect)),
		IndexPoll: assistant.Policy{
			Interval:    cfg.Assistant.IndexPoll.Interval,
			MaxAttempts: cfg.Assistant.IndexPoll.MaxAttempts,
		},
		RunPoll: assistant.Policy{
			Interval:    cfg.Assistant.RunPoll.Interval,
			MaxAttempts: cfg.Assistant.RunPoll.MaxAttempts,
		},
		SerializeConversations: cfg.Assistant.SerializeConversations,
		Metrics:                m,
	}
}

// initialize reads the schema and prepares the engine. A configured
// assistant needs no knowledge base, so the database is not touched.
func (a *app) initialize(ctx context.Context) error {
	var tables []assistant.TableSchema
	if a.cfg.OpenAI.AssistantID == "" {
		var err error
		if tables, err = fetchSchema(ctx, a.cfg.Database); err != nil {
			return err
		}
	}
	return a.engine.Initialize(ctx, tables)
}

func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// fetchSchema opens the configured schema source, reads every table and
// closes the connection again.
func fetchSchema(ctx context.Context, cfg config.Database) ([]assistant.TableSchema, error) {
	provider, closer, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open schema source: %w", err)
	}
	defer closer.Close()

	tables, err := provider.FetchSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch schema: %w", err)
	}
	slog.InfoContext(ctx, "schema loaded", "driver", cfg.Driver, "tables", len(tables))
	return tables, nil
}

// sourceLabel describes the schema source without credentials.
func sourceLabel(cfg config.Database) string {
	switch cfg.Driver {
	case "sqlite", "file":
		return cfg.Driver + ":" + cfg.ConnString
	}
	if cfg.ConnString != "" {
		return cfg.Driver
	}
	return cfg.Driver + "://" + cfg.Addr() + "/" + cfg.Name
}
