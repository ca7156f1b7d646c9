package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/locsheet/internal/config"
	"github.com/JonMunkholm/locsheet/internal/core"
	"github.com/JonMunkholm/locsheet/internal/logging"
	"github.com/JonMunkholm/locsheet/internal/store/postgres"
)

// backend is the storage the commands run against.
type backend interface {
	core.Store
	core.UnitSyncer
}

// opener connects to the store described by cfg. The returned func releases it.
type opener func(ctx context.Context, cfg *config.Config) (backend, func(), error)

func openPostgres(ctx context.Context, cfg *config.Config) (backend, func(), error) {
	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return postgres.New(pool), pool.Close, nil
}

// app holds state shared by every command of one invocation.
type app struct {
	open       opener
	configPath string
	logLevel   string
	cfg        *config.Config
}

// newRootCommand builds the command tree. open is called lazily by commands
// that need the store.
func newRootCommand(open opener) *cobra.Command {
	a := &app{open: open}

	root := &cobra.Command{
		Use:   "locsheet",
		Short: "Exchange content translations as XLSX spreadsheets",
		Long: `locsheet exports the translatable strings of a content object to an
XLSX workbook and imports the edited workbook back as translations.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv(config.FileEnv), "YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newExportCommand(a),
		newImportCommand(a),
		newLoadCommand(a),
		newMigrateCommand(a),
		newConfigCommand(a),
	)
	return root
}

// config loads the configuration once and installs a stderr logger, keeping
// stdout for command output.
func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.LoadFile(a.configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	slog.SetDefault(logging.New(os.Stderr, level, cfg.Logging.Format))

	a.cfg = cfg
	return cfg, nil
}

// service opens the store and wraps it in a Service. The CLI trusts its
// operator, so every actor may edit.
func (a *app) service(ctx context.Context) (*core.Service, backend, func(), error) {
	cfg, err := a.config()
	if err != nil {
		return nil, nil, nil, err
	}
	store, closeFn, err := a.open(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}

	svc := core.NewService(store,
		core.WithAuthorizer(core.AllowAll),
		core.WithWorkbookLimits(core.WorkbookLimits{
			MaxBytes:    cfg.Upload.MaxFileSize,
			MaxUnzipped: cfg.Upload.MaxUnzippedSize,
			MaxRows:     cfg.Upload.MaxRows,
		}),
		core.WithToolName(cfg.Interchange.ToolName),
		core.WithImportTimeout(cfg.Upload.Timeout),
		core.WithLogger(slog.Default()),
	)
	return svc, store, closeFn, nil
}
