package cli

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vijay-prabhu/mailpeek/internal/config"
	"github.com/vijay-prabhu/mailpeek/internal/database"
	"github.com/vijay-prabhu/mailpeek/internal/email"
	"github.com/vijay-prabhu/mailpeek/internal/email/graph"
	"github.com/vijay-prabhu/mailpeek/internal/email/relay"
	"github.com/vijay-prabhu/mailpeek/internal/pipeline"
	"github.com/vijay-prabhu/mailpeek/internal/registry"
)

// app holds the process-wide dependencies built once from config
type app struct {
	cfg      *config.Config
	db       *database.DB
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
}

// newLogger builds the process logger from the [log] section
func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler), nil
}

// openDB loads the config and opens the database it names
func openDB() (*config.Config, *database.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, nil, err
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, db, nil
}

// newApp wires the store, both provider adapters, and the pipeline
func newApp(logOut io.Writer) (*app, error) {
	cfg, db, err := openDB()
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log, logOut)
	if err != nil {
		db.Close()
		return nil, err
	}

	client := &http.Client{Timeout: cfg.Upstream.Timeout.Duration}
	policy := email.RetryPolicy{
		Attempts: cfg.Upstream.RetryAttempts,
		Delay:    cfg.Upstream.RetryDelay.Duration,
	}
	graphCfg := graph.Config(cfg.Graph)

	router := email.NewRouter(
		relay.New(client, policy, logger.With("provider_kind", email.KindScriptRelay)),
		graph.New(graphCfg, client, policy, logger.With("provider_kind", email.KindGraphMailbox)),
	)

	return &app{
		cfg:      cfg,
		db:       db,
		logger:   logger,
		pipeline: pipeline.New(db, registry.New(db), router, logger),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
