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

	"github.com/JonMunkholm/stmtimport/internal/archive"
	"github.com/JonMunkholm/stmtimport/internal/config"
	"github.com/JonMunkholm/stmtimport/internal/core"
	"github.com/JonMunkholm/stmtimport/internal/database"
	"github.com/JonMunkholm/stmtimport/internal/logging"
	"github.com/JonMunkholm/stmtimport/internal/web"
)

func main() {
	// Overload lets .env win over variables already set in the shell.
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
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"archive_enabled", cfg.Archive.Enabled(),
	)

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database.URL); err != nil {
			slog.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	store := database.NewStore(pool, cfg.Import.CopyBatchSize)

	var archiver core.Archiver
	if cfg.Archive.Enabled() {
		gcs, err := archive.NewGCS(ctx, cfg.Archive.Bucket, cfg.Archive.Prefix)
		if err != nil {
			slog.Error("failed to create statement archive", "error", err)
			os.Exit(1)
		}
		defer gcs.Close()
		archiver = gcs
		slog.Info("archiving statements", "bucket", cfg.Archive.Bucket, "prefix", cfg.Archive.Prefix)
	}

	service := core.NewImportService(store, archiver, core.OptionsFrom(cfg.Import))
	server := web.NewServer(service, store, cfg)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		if status := service.LimiterStatus(); status.Active > 0 {
			slog.Info("waiting for commits to complete", "active", status.Active)
			if err := service.WaitForCommits(shutdownCtx); err != nil {
				slog.Warn("commits did not complete in time", "error", err)
			} else {
				slog.Info("all commits completed")
			}
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
}
