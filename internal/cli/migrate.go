package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"stylestudio/internal/adapter/repo"
	"stylestudio/internal/infra"
)

type migrateResult struct {
	Driver string `json:"driver" yaml:"driver"`
	Target string `json:"target" yaml:"target"`
}

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	cfg := &infra.Config{}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the history ledger schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)
			target := cfg.SQLitePath
			switch cfg.LedgerDriver {
			case infra.LedgerPostgres:
				if cfg.DatabaseURL == "" {
					return NewExitError(ExitCommandError, "--database-url or DATABASE_URL is required for postgres")
				}
				target = "postgres"
			case infra.LedgerSQLite:
			default:
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown driver %q", cfg.LedgerDriver))
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			out.VerboseLog("migrating %s ledger", cfg.LedgerDriver)
			if err := repo.Migrate(ctx, cfg); err != nil {
				return WrapExitError(ExitFailure, "migration failed", err)
			}
			res := migrateResult{Driver: cfg.LedgerDriver, Target: target}
			return out.Success(res, func(w io.Writer) {
				fmt.Fprintf(w, "%s ledger schema is up to date (%s)\n", res.Driver, res.Target)
			})
		},
	}
	cmd.Flags().StringVar(&cfg.LedgerDriver, "driver", envOr("LEDGER_DRIVER", infra.LedgerSQLite), "ledger driver (postgres|sqlite)")
	cmd.Flags().StringVar(&cfg.DatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
	cmd.Flags().StringVar(&cfg.SQLitePath, "sqlite-path", envOr("SQLITE_PATH", "stylestudio.db"), "SQLite database file")
	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
