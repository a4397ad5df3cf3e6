package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type DB struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New creates a connection pool from a Postgres URL and pings it. The
// pool is the only bound on concurrent database work.
func New(ctx context.Context, databaseURL string, logger *zap.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	// Pool tuning for the rental API:
	//
	// MaxConns (25): every request holds a connection only while its
	//   queries run, and the application transactions are a handful of
	//   statements. 25 leaves most of Postgres' default 100 slots free
	//   for migrations and psql sessions.
	//
	// MinConns (2): traffic is bursty (listing searches), so a couple of
	//   warm connections is enough to skip the first-request dial.
	//
	// MaxConnLifetime (1h) / MaxConnIdleTime (20min): recycle connections
	//   so RDS failovers and DNS changes are picked up.
	//
	// HealthCheckPeriod (1min): ping idle connections so a dead one is
	//   found before a request does.
	//
	// application_name shows up in pg_stat_activity, which is where you
	// look first when a lock from UpdateStatus is held too long.
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 20 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "rentalrabbit"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Fail at startup on bad credentials or an unreachable host rather
	// than on the first request.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping DB: %w", err)
	}

	logger.Info("DB connection established",
		zap.String("host", poolConfig.ConnConfig.Host),
		zap.String("database", poolConfig.ConnConfig.Database),
		zap.Int32("max_conns", poolConfig.MaxConns),
	)
	return &DB{
		pool:   pool,
		logger: logger,
	}, nil
}

func (db *DB) Close() {
	db.logger.Info("closing database connection pool")
	db.pool.Close()
}

func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *DB) Health(ctx context.Context) error {
	return db.pool.Ping(ctx)
}
