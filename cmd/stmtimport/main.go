// Command stmtimport is the operator CLI for statement imports: schema
// migrations, strategy export and import, and file imports from disk.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/stmtimport/internal/config"
	"github.com/JonMunkholm/stmtimport/internal/core"
	"github.com/JonMunkholm/stmtimport/internal/database"
	"github.com/JonMunkholm/stmtimport/internal/logging"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// codedError carries the process exit code for an error.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	return exitFailure
}

func main() {
	_ = godotenv.Overload()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	stop()
	os.Exit(exitCode(err))
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "stmtimport",
		Short:         "Manage bank statement import strategies and run imports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logLevel, "text")
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(newMigrateCmd(), newStrategyCmd(), newImportCmd())
	return root
}

// env is the database and service a command works against.
type env struct {
	cfg     *config.Config
	pool    *pgxpool.Pool
	service *core.ImportService
}

func (e *env) Close() {
	e.pool.Close()
}

// openEnv loads configuration and connects to the database.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, withCode(exitUsage, err)
	}
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	store := database.NewStore(pool, cfg.Import.CopyBatchSize)
	slog.Debug("service ready", "copy_batch_size", cfg.Import.CopyBatchSize)
	return &env{
		cfg:     cfg,
		pool:    pool,
		service: core.NewImportService(store, nil, core.OptionsFrom(cfg.Import)),
	}, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return withCode(exitUsage, err)
			}
			if err := database.Migrate(cfg.Database.URL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
			return nil
		},
	}
}
