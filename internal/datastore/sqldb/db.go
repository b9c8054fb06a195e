package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Config struct {
	Dialect         string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// OpenDB opens a pooled handle for the configured dialect and pings it.
func OpenDB(ctx context.Context, cfg Config) (*sql.DB, Dialect, error) {
	dialect, err := DialectByName(cfg.Dialect)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DSN == "" && dialect.Name() != "duckdb" {
		return nil, nil, fmt.Errorf("datastore dsn is required")
	}

	dsn, err := dialect.PrepareDSN(cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s datastore: %w", dialect.Name(), err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s datastore: %w", dialect.Name(), dialect.Classify(err))
	}

	return db, dialect, nil
}

func Open(ctx context.Context, cfg Config) (*Store, error) {
	db, dialect, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(db, dialect), nil
}
