package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/locsheet/internal/config"
	"github.com/JonMunkholm/locsheet/internal/core"
	"github.com/JonMunkholm/locsheet/internal/i18n"
	"github.com/JonMunkholm/locsheet/internal/lock"
	"github.com/JonMunkholm/locsheet/internal/logging"
	"github.com/JonMunkholm/locsheet/internal/store/postgres"
	"github.com/JonMunkholm/locsheet/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"require_api_key", cfg.Security.RequireAPIKey,
		"redis_lock", cfg.Redis.Enabled(),
	)

	if cfg.Database.AutoMigrate {
		if err := postgres.MigrateUp(cfg.Database.URL); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	translator, err := i18n.New(cfg.Interchange.DefaultLocale)
	if err != nil {
		slog.Error("failed to load message catalog", "error", err)
		os.Exit(1)
	}

	service := core.NewService(postgres.New(pool),
		core.WithAuthorizer(core.AllowActors(cfg.Security.Editors...)),
		core.WithLimiter(core.NewImportLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime)),
		core.WithWorkbookLimits(core.WorkbookLimits{
			MaxBytes:    cfg.Upload.MaxFileSize,
			MaxUnzipped: cfg.Upload.MaxUnzippedSize,
			MaxRows:     cfg.Upload.MaxRows,
		}),
		core.WithToolName(cfg.Interchange.ToolName),
		core.WithImportTimeout(cfg.Upload.Timeout),
	)

	var opts []web.ServerOption
	if cfg.Redis.Enabled() {
		locker, err := lock.Connect(ctx, cfg.Redis.URL, cfg.Redis.LockTTL)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer locker.Close()
		opts = append(opts, web.WithLocker(locker))
	}

	server := web.NewServer(cfg, service, translator, opts...)

	// Graceful shutdown
	idle := make(chan struct{})
	go func() {
		defer close(idle)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-idle
	slog.Info("server stopped")
}
