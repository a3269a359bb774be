package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/sandeepkv93/tasksync/internal/commands"
	"github.com/sandeepkv93/tasksync/internal/config"
	"github.com/sandeepkv93/tasksync/internal/engine"
	"github.com/sandeepkv93/tasksync/internal/logging"
	"github.com/sandeepkv93/tasksync/internal/notion"
	"github.com/sandeepkv93/tasksync/internal/storage"
)

// Populated at build-time via -ldflags.
var version = "dev"

// drainTimeout bounds how long exit waits for queued Notion patches.
const drainTimeout = 15 * time.Second

func build() string {
	if version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				return mv
			}
		}
	}
	return version
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		store     *storage.SQLiteRepository
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "tasksync",
		Usage:     "Keep a local cache of a Notion task database in sync",
		UsageText: "tasksync [global options] command [command options]",
		Description: `tasksync mirrors the tasks of one Notion database into a local SQLite
cache. Views read the cache; edits are applied locally first and then pushed
to Notion, and rolled back if Notion rejects them.

Credentials come from TASKSYNC_NOTION_TOKEN and TASKSYNC_DATABASE_ID or from
the config file.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("TASKSYNC_LOG_LEVEL"),
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "append JSON logs to this file instead of stderr",
				Sources:     cli.EnvVars("TASKSYNC_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TASKSYNC_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if flags.LogLevel != "" {
				cfg.Log.Level = flags.LogLevel
			}
			if flags.LogFile != "" {
				cfg.Log.File = flags.LogFile
			}

			logger, closer, err := logging.New(cfg.Log.Level, cfg.Log.File)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
				return ctx, fmt.Errorf("create data dir: %w", err)
			}
			store, err = storage.OpenSQLite(cfg.Store.Path)
			if err != nil {
				return ctx, fmt.Errorf("open cache: %w", err)
			}

			client := notion.NewHTTPClient(
				notion.WithBaseURL(cfg.Notion.BaseURL),
				notion.WithTimeout(cfg.Notion.Timeout),
				notion.WithLogger(logging.Component(logger, "notion")),
			)

			flags.Config = cfg
			flags.Store = store
			flags.Engine = engine.New(store, client, cfg.CredentialSource(), engine.WithLogger(logger))
			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if flags.Engine != nil {
				drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), drainTimeout)
				if err := flags.Engine.Wait(drainCtx); err != nil {
					log.Warn().Err(err).Msg("pending changes did not finish before exit")
				}
				cancel()
				flags.Engine.Close()
			}

			if store != nil {
				if err := store.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close cache")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewSyncCmd(flags).Register(app)
	app = commands.NewWatchCmd(flags).Register(app)
	app = commands.NewListCmd(flags).Register(app)
	app = commands.NewTaskCmd(flags).Register(app)
	app = commands.NewEditCmd(flags).Register(app)

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
