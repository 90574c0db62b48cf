// Package app connects the configured backends. The server and the CLI share it.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"park-ops/internal/config"
	"park-ops/internal/database/migrations"
	"park-ops/internal/logger"
	"park-ops/internal/store"
	storedb "park-ops/internal/store/db"
	storeredis "park-ops/internal/store/redis"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

const (
	maxRetries = 5
	retryDelay = 2 * time.Second
)

// Backend is the connected record store plus whatever it runs on.
type Backend struct {
	Store store.SnapshotStore
	Redis *redis.Client
	Bun   *bun.DB
}

func (b *Backend) Close() {
	if b.Redis != nil {
		b.Redis.Close()
	}
	if b.Bun != nil {
		b.Bun.Close()
	}
}

// Connect opens the store named by cfg.Store.Driver, retrying the initial
// connection, and brings its schema up to date.
func Connect(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Backend, error) {
	switch cfg.Store.Driver {
	case DriverRedis:
		client, err := ConnectRedis(ctx, cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: storeredis.NewRedis(client, log), Redis: client}, nil

	case DriverPostgres:
		bunDB, err := ConnectPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		runner := migrations.NewRunner(bunDB, log)
		if err := runner.RunMigrations(); err != nil {
			bunDB.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return &Backend{Store: storedb.NewDB(bunDB), Bun: bunDB}, nil

	case DriverSQLite:
		bunDB, err := OpenSQLite(cfg.Database.SQLitePath)
		if err != nil {
			return nil, err
		}
		snapshots := storedb.NewDB(bunDB)
		if err := snapshots.CreateSchema(ctx); err != nil {
			bunDB.Close()
			return nil, fmt.Errorf("failed to create snapshots table: %w", err)
		}
		log.Info("DATABASE", fmt.Sprintf("Using SQLite store at %s", cfg.Database.SQLitePath))
		return &Backend{Store: snapshots, Bun: bunDB}, nil

	case DriverMemory:
		log.Warn("STORE", "Using the in-memory store; nothing survives a restart")
		return &Backend{Store: store.NewMemoryStore()}, nil
	}
	return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
}

func ConnectRedis(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 10,
	})

	var err error
	for i := 0; i < maxRetries; i++ {
		log.Info("REDIS", fmt.Sprintf("Attempting to connect to Redis at %s (attempt %d/%d)", cfg.Addr, i+1, maxRetries))
		if err = client.Ping(ctx).Err(); err == nil {
			break
		}
		log.Error("REDIS", fmt.Sprintf("Redis connection error: %v", err))
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis after %d attempts: %w", maxRetries, err)
	}

	log.Info("REDIS", fmt.Sprintf("Redis connection successful to %s (DB: %d)", cfg.Addr, cfg.DB))
	return client, nil
}

func ConnectPostgres(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	sqldb, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
	}
	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		if err = sqldb.PingContext(ctx); err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL after %d attempts: %w", maxRetries, err)
	}

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// OpenSQLite opens a file database. SQLite allows a single writer.
func OpenSQLite(path string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, "file:"+path+"?cache=shared&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}
