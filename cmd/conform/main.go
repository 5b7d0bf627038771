package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rendis/conform/internal/constraint"
	"github.com/rendis/conform/internal/decision"
	"github.com/rendis/conform/internal/dispatch"
	"github.com/rendis/conform/internal/logging"
	"github.com/rendis/conform/internal/pipeline"
	"github.com/rendis/conform/internal/store"
	"github.com/rendis/conform/pkg/mcp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "conform:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := loadConfig()

	logger, cleanup, err := logging.Setup(logging.Config{
		Level:      cfg.LogLevel,
		FilePath:   cfg.LogFile,
		MaxSizeMB:  logging.DefaultConfig().MaxSizeMB,
		MaxBackups: logging.DefaultConfig().MaxBackups,
		MaxAgeDays: logging.DefaultConfig().MaxAgeDays,
		Compress:   true,
	})
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer func() { _ = cleanup() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(conformDir(), 0o755); err != nil {
		return fmt.Errorf("create conform dir: %w", err)
	}

	st, err := store.NewLibSQLStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()

	if err := st.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}

	model, err := loadModel(cfg)
	if err != nil {
		return fmt.Errorf("load payload model: %w", err)
	}

	registry := dispatch.NewRegistry()
	for _, op := range dispatch.BuiltinOperations(st, logger) {
		if err := registry.Register(op); err != nil {
			return fmt.Errorf("register operation: %w", err)
		}
	}

	engines, err := decision.DefaultEngines()
	if err != nil {
		return fmt.Errorf("build expression engines: %w", err)
	}
	tableSpec, err := loadTableSpec(cfg)
	if err != nil {
		return fmt.Errorf("load decision table: %w", err)
	}
	table, err := decision.NewTable(tableSpec, engines)
	if err != nil {
		return fmt.Errorf("build decision table: %w", err)
	}

	dispatcher := dispatch.NewDispatcher(registry, logger, st)
	pipe := pipeline.New(pipeline.Deps{
		Model:      model,
		Table:      table,
		Dispatcher: dispatcher,
		Store:      st,
		Logger:     logger,
	})

	srv := mcp.NewConformServer(mcp.ConformServerDeps{
		Model:      model,
		Registry:   registry,
		Dispatcher: dispatcher,
		Pipeline:   pipe,
		Store:      st,
		Logger:     logger,
	})

	logger.InfoContext(ctx, "conform server starting",
		"db_path", cfg.DBPath, "operations", registry.Count())
	return srv.Serve(ctx)
}

// loadModel reads the payload model spec from config, falling back to the
// built-in review model.
func loadModel(cfg Config) (*constraint.Node, error) {
	if cfg.ModelPath != "" {
		raw, err := os.ReadFile(filepath.Clean(cfg.ModelPath))
		if err != nil {
			return nil, err
		}
		return constraint.Parse(raw)
	}
	return defaultModel(), nil
}

// loadTableSpec reads the decision table spec from config, falling back to
// the built-in table routing on the recommendation field.
func loadTableSpec(cfg Config) (*decision.TableSpec, error) {
	if cfg.TablePath != "" {
		raw, err := os.ReadFile(filepath.Clean(cfg.TablePath))
		if err != nil {
			return nil, err
		}
		var spec decision.TableSpec
		if err := json.Unmarshal(raw, &spec); err != nil {
			return nil, err
		}
		return &spec, nil
	}
	return defaultTableSpec(), nil
}

// defaultModel is the demonstration payload shape: a scored review with a
// categorical recommendation driving dispatch.
func defaultModel() *constraint.Node {
	return constraint.Object(
		constraint.F("id", constraint.String(constraint.MinLength(1))),
		constraint.F("score", constraint.Number(constraint.Min(0), constraint.Max(100))),
		constraint.F("recommendation", constraint.Enum("approve", "reject", "escalate")),
		constraint.Opt("summary", constraint.String(constraint.MinLength(1))),
		constraint.Opt("tags", constraint.Array(constraint.String(constraint.MinLength(1)))),
	)
}

func defaultTableSpec() *decision.TableSpec {
	return &decision.TableSpec{
		Driver: ".recommendation",
		Domain: []string{"approve", "reject", "escalate"},
		Cases: map[string]decision.CaseSpec{
			"approve": {
				Operation: "payload.store",
				Args: map[string]decision.Binding{
					"collection": {Literal: "approved"},
					"document":   {Expr: "."},
				},
			},
			"reject": {
				Operation: "payload.log",
				Args: map[string]decision.Binding{
					"level":   {Literal: "info"},
					"message": {Literal: "payload rejected"},
					"fields":  {Expr: "{id: .id, score: .score}"},
				},
			},
			"escalate": {
				Operation: "payload.flag",
				Args: map[string]decision.Binding{
					"reason":   {Literal: "escalated for review"},
					"severity": {Literal: "medium"},
					"details":  {Expr: "{id: .id, score: .score}"},
				},
			},
		},
		Default: &decision.CaseSpec{
			Operation: "payload.flag",
			Args: map[string]decision.Binding{
				"reason":   {Literal: "unrecognized recommendation"},
				"severity": {Literal: "high"},
				"details":  {Expr: "{id: .id}"},
			},
		},
	}
}
