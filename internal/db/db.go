// Package db opens the Postgres connection backing the durable queue and
// case index, grounded on the teacher's pkg/database.NewClient: build a
// pgx-backed database/sql handle, configure the connection pool, wrap it
// in an ent driver, and hand back a ready *ent.Client.
package db

import (
	"context"
	stdsql "database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/codeready-toolchain/tarka/ent"
	"github.com/codeready-toolchain/tarka/internal/config"
)

// Open connects to Postgres per cfg, applies the connection-pool settings,
// and runs ent's schema auto-migration (CREATE TABLE IF NOT EXISTS /
// ALTER TABLE ADD COLUMN, introspected directly off ent/schema — no
// hand-maintained SQL migration files to keep in sync with it).
func Open(ctx context.Context, cfg config.DatabaseConfig) (*ent.Client, error) {
	sqlDB, err := stdsql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	drv := entsql.OpenDB(dialect.Postgres, sqlDB)
	client := ent.NewClient(ent.Driver(drv))

	if err := client.Schema.Create(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("run schema migration: %w", err)
	}

	return client, nil
}
