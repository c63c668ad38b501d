package repo

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"stylestudio/internal/domain"
	"stylestudio/internal/infra"
)

// OpenLedger connects the ledger selected by cfg.LedgerDriver and applies
// its schema. The close function is never nil.
func OpenLedger(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (domain.HistoryLedger, func(), error) {
	switch cfg.LedgerDriver {
	case infra.LedgerPostgres:
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, func() {}, err
		}
		if _, err := pool.Exec(ctx, PostgresSchema); err != nil {
			pool.Close()
			return nil, func() {}, fmt.Errorf("apply postgres schema: %w", err)
		}
		return NewHistoryRepositoryPG(infra.NewSQLRunner(pool, logger)), pool.Close, nil
	case infra.LedgerSQLite, "":
		db, err := infra.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, func() {}, err
		}
		ledger, err := NewHistoryRepositorySQLite(ctx, db)
		if err != nil {
			db.Close()
			return nil, func() {}, err
		}
		return ledger, func() { _ = db.Close() }, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown ledger driver %q", cfg.LedgerDriver)
	}
}

// Migrate applies the schema for cfg.LedgerDriver without starting a ledger.
func Migrate(ctx context.Context, cfg *infra.Config) error {
	switch cfg.LedgerDriver {
	case infra.LedgerPostgres:
		return infra.ApplyPostgresSchema(ctx, cfg.DatabaseURL, PostgresSchema)
	case infra.LedgerSQLite, "":
		db, err := infra.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return err
		}
		defer db.Close()
		_, err = NewHistoryRepositorySQLite(ctx, db)
		return err
	default:
		return fmt.Errorf("unknown ledger driver %q", cfg.LedgerDriver)
	}
}
