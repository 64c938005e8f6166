// Package servecmder provides the serve command that runs the innerself
// engine behind its HTTP and MCP API.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/innerself/api"
	"github.com/papercomputeco/innerself/cmd/innerself/sqlitepath"
	"github.com/papercomputeco/innerself/pkg/config"
	"github.com/papercomputeco/innerself/pkg/credentials"
	"github.com/papercomputeco/innerself/pkg/eventstream"
	"github.com/papercomputeco/innerself/pkg/eventstream/hub"
	"github.com/papercomputeco/innerself/pkg/eventstream/kafka"
	"github.com/papercomputeco/innerself/pkg/eventstream/nop"
	"github.com/papercomputeco/innerself/pkg/eventstream/worker"
	"github.com/papercomputeco/innerself/pkg/innerself"
	"github.com/papercomputeco/innerself/pkg/logger"
	"github.com/papercomputeco/innerself/pkg/storage"
	"github.com/papercomputeco/innerself/pkg/storage/inmemory"
	"github.com/papercomputeco/innerself/pkg/storage/postgres"
	"github.com/papercomputeco/innerself/pkg/storage/sqlite"
	"github.com/papercomputeco/innerself/pkg/thought"
	"github.com/papercomputeco/innerself/pkg/utils"
)

const serveLongDesc string = `Run the innerself engine and its API server.

The engine tracks the inner thoughts, memories, goals, secrets, and opinions
of every chat character. Chat events are posted to /events, and the rendered
context for a character is served from /context/<name>. New thoughts stream
live from /stream, and MCP tools are mounted at /mcp.

Settings come from config.toml in the .innerself/ directory, INNERSELF_*
environment variables, and the flags below, in increasing precedence.
Changes to config.toml are applied while the server runs.

Examples:
  innerself serve
  innerself serve --listen :9000 --chance 30
  innerself serve --storage postgres --postgres postgres://localhost/innerself
  innerself serve --provider anthropic --model claude-haiku-4-5-20251001`

const serveShortDesc string = "Run the innerself API server"

var serveFlagKeys = []string{
	config.FlagAPIListen,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgres,
	config.FlagProvider,
	config.FlagModel,
	config.FlagGeneratorTarget,
	config.FlagChance,
	config.FlagDebugMode,
}

type serveCommander struct {
	flags struct {
		listen, storage, sqlite, postgres string
		provider, model, target           string
		chance                            int
		debugMode                         bool
		logJSON                           bool
		logFile                           string
	}

	configDir string
	debug     bool
	cfg       *config.Config
	logger    *slog.Logger
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			cmder.debug, _ = cmd.Flags().GetBool("debug")

			cfg, err := cmder.loadConfig(cmd)
			if err != nil {
				return err
			}
			cmder.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return cmder.run(ctx, cmd)
		},
	}

	config.AddStringFlag(cmd, config.ServeFlags, config.FlagAPIListen, &cmder.flags.listen)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagStorageDriver, &cmder.flags.storage)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagSQLite, &cmder.flags.sqlite)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagPostgres, &cmder.flags.postgres)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagProvider, &cmder.flags.provider)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagModel, &cmder.flags.model)
	config.AddStringFlag(cmd, config.ServeFlags, config.FlagGeneratorTarget, &cmder.flags.target)
	config.AddIntFlag(cmd, config.ServeFlags, config.FlagChance, &cmder.flags.chance)
	config.AddBoolFlag(cmd, config.ServeFlags, config.FlagDebugMode, &cmder.flags.debugMode)
	cmd.Flags().BoolVar(&cmder.flags.logJSON, "log-json", false, "Write JSON logs instead of colorized output")
	cmd.Flags().StringVar(&cmder.flags.logFile, "log-file", "", "Also append JSON logs with source locations to this file")

	return cmd
}

// loadConfig merges defaults, config.toml, environment, and flags.
func (c *serveCommander) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v, err := config.InitViper(c.configDir)
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.ServeFlags, serveFlagKeys)

	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the console logger and, with --log-file, fans records
// out to a JSON log file as well. The returned func closes the file.
func (c *serveCommander) newLogger(console io.Writer) (*slog.Logger, func(), error) {
	debug := c.debug || c.cfg.InnerSelf.DebugMode
	log := logger.New(
		logger.WithDebug(debug),
		logger.WithPretty(!c.flags.logJSON),
		logger.WithJSON(c.flags.logJSON),
		logger.WithWriter(console),
	)
	if c.flags.logFile == "" {
		return log, func() {}, nil
	}

	f, err := os.OpenFile(c.flags.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	fileLog := logger.New(
		logger.WithDebug(debug),
		logger.WithJSON(true),
		logger.WithSource(true),
		logger.WithWriter(f),
	)
	return logger.Multi(log, fileLog), func() { _ = f.Close() }, nil
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	log, closeLog, err := c.newLogger(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer closeLog()
	c.logger = log

	driver, err := c.newStorageDriver(ctx)
	if err != nil {
		return err
	}
	defer driver.Close()

	generator, err := c.newGenerator()
	if err != nil {
		return err
	}

	events := hub.New(c.logger)
	publisher, err := c.newPublisher(events)
	if err != nil {
		return err
	}

	interval, err := c.cfg.PersistInterval()
	if err != nil {
		return err
	}

	engine, err := innerself.New(innerself.Options{
		Settings:        innerself.SettingsFromConfig(c.cfg.InnerSelf),
		Generator:       generator,
		Storage:         driver,
		SnapshotKey:     c.cfg.Persistence.Key,
		PersistInterval: interval,
		Publisher:       publisher,
		Logger:          c.logger,
	})
	if err != nil {
		_ = publisher.Close()
		return fmt.Errorf("creating engine: %w", err)
	}

	if err := engine.Start(ctx); err != nil {
		_ = engine.Close()
		return fmt.Errorf("starting engine: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			c.logger.Error("failed to close engine", "error", err)
		}
	}()

	go c.watchConfig(ctx, cmd, engine)

	server, err := api.NewServer(api.Config{ListenAddr: c.cfg.API.Listen, Events: events}, engine, c.logger)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	c.logger.Info("starting innerself", "version", utils.VersionString(), "listen", c.cfg.API.Listen)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		c.logger.Info("received signal, shutting down")
		return server.Shutdown()
	}
}

// watchConfig re-resolves settings whenever config.toml changes, keeping
// flag and environment overrides in effect.
func (c *serveCommander) watchConfig(ctx context.Context, cmd *cobra.Command, engine *innerself.Engine) {
	cfger, err := config.NewConfiger(c.configDir)
	if err != nil {
		c.logger.Warn("config hot reload disabled", "error", err)
		return
	}

	err = config.Watch(ctx, cfger.GetTarget(), c.logger, func(*config.Config) {
		cfg, err := c.loadConfig(cmd)
		if err != nil {
			c.logger.Warn("ignoring config change", "error", err)
			return
		}
		if err := engine.UpdateSettings(innerself.SettingsFromConfig(cfg.InnerSelf)); err != nil {
			c.logger.Warn("ignoring config change", "error", err)
		}
	})
	if err != nil {
		c.logger.Warn("config watcher stopped", "error", err)
	}
}

func (c *serveCommander) newStorageDriver(ctx context.Context) (storage.Driver, error) {
	switch c.cfg.Storage.Driver {
	case "inmemory":
		c.logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil

	case "postgres":
		if c.cfg.Storage.PostgresDSN == "" {
			return nil, errors.New("storage.postgres_dsn is required for the postgres driver")
		}
		driver, err := postgres.NewDriver(ctx, c.cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL driver: %w", err)
		}
		c.logger.Info("using PostgreSQL storage")
		return driver, nil

	default:
		path, err := sqlitepath.ResolveSQLitePath(c.cfg.Storage.SQLitePath, c.configDir)
		if err != nil {
			return nil, err
		}
		driver, err := sqlite.NewDriver(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite driver: %w", err)
		}
		c.logger.Info("using SQLite storage", "path", path)
		return driver, nil
	}
}

func (c *serveCommander) newGenerator() (thought.Generator, error) {
	credMgr, err := credentials.NewManager(c.configDir)
	if err != nil {
		c.logger.Warn("stored credentials unavailable", "error", err)
	}

	// The default model and target point at a local ollama; other
	// providers fall back to their own defaults.
	model, target := c.cfg.Generator.Model, c.cfg.Generator.Target
	if c.cfg.Generator.Provider != "ollama" {
		defaults := config.NewDefaultConfig().Generator
		if model == defaults.Model {
			model = ""
		}
		if target == defaults.Target {
			target = ""
		}
	}

	call, err := thought.NewLLMCaller(thought.CallerConfig{
		Provider: c.cfg.Generator.Provider,
		Model:    model,
		BaseURL:  target,
		CredMgr:  credMgr,
		Logger:   c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating thought generator: %w", err)
	}

	timeout, err := c.cfg.GeneratorTimeout()
	if err != nil {
		return nil, err
	}

	c.logger.Info("using thought generator",
		"provider", c.cfg.Generator.Provider,
		"model", c.cfg.Generator.Model,
		"timeout", timeout.String(),
	)
	return thought.NewLLMGenerator(call, timeout), nil
}

// newPublisher feeds the live stream hub and, when configured, an
// external event stream behind an async worker pool.
func (c *serveCommander) newPublisher(events *hub.Hub) (eventstream.Publisher, error) {
	if c.cfg.EventStream.Provider != "kafka" {
		return eventstream.Fanout(events, nop.NewPublisher()), nil
	}

	p, err := kafka.NewPublisher(kafka.Config{
		Brokers:      c.cfg.EventStream.Brokers,
		Topic:        c.cfg.EventStream.Topic,
		WriteTimeout: 10 * time.Second,
		Logger:       c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}

	pool, err := worker.NewPool(&worker.Config{Publisher: p, Logger: c.logger})
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("creating event worker pool: %w", err)
	}

	c.logger.Info("publishing mind events to kafka",
		"brokers", c.cfg.EventStream.Brokers,
		"topic", c.cfg.EventStream.Topic,
	)
	return eventstream.Fanout(events, pool), nil
}
