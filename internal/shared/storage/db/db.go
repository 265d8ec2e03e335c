package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	"github.com/spf13/viper"

	"github.com/bads1de/CareerRise/internal/shared/telemetry"
)

// Profile selects pool defaults for the kind of process opening the database.
type Profile string

const (
	ProfileServer  Profile = "server"
	ProfileLambda  Profile = "lambda"
	ProfileMigrate Profile = "migrate"
)

// Options controls database pool and connectivity behavior.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

var profiles = map[Profile]Options{
	// Lambda runs many small environments; each keeps a tiny pool.
	ProfileLambda: {
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxIdleTime: 30 * time.Second,
		ConnMaxLifetime: 15 * time.Minute,
		PingTimeout:     3 * time.Second,
	},
	ProfileServer: {
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnMaxLifetime: time.Hour,
		PingTimeout:     5 * time.Second,
	},
	ProfileMigrate: {
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxIdleTime: 2 * time.Minute,
		ConnMaxLifetime: time.Hour,
		PingTimeout:     5 * time.Second,
	},
}

var (
	openDB   = sql.Open
	sharedMu sync.Mutex
	sharedDB *sql.DB
)

// IsLambdaRuntime reports whether the current process is running in AWS Lambda.
func IsLambdaRuntime() bool {
	return strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != ""
}

// RuntimeProfile returns ProfileLambda inside Lambda and ProfileServer otherwise.
func RuntimeProfile() Profile {
	if IsLambdaRuntime() {
		return ProfileLambda
	}
	return ProfileServer
}

// OptionsFor returns the defaults of p with DB_* environment overrides
// (DB_MAX_OPEN_CONNS, DB_MAX_IDLE_CONNS, DB_CONN_MAX_LIFETIME,
// DB_CONN_MAX_IDLE_TIME, DB_PING_TIMEOUT) applied.
func OptionsFor(p Profile) Options {
	opts, ok := profiles[p]
	if !ok {
		opts = profiles[ProfileServer]
	}

	v := viper.New()
	v.SetEnvPrefix("DB")
	v.AutomaticEnv()

	overrideInt(v, "MAX_OPEN_CONNS", &opts.MaxOpenConns)
	overrideInt(v, "MAX_IDLE_CONNS", &opts.MaxIdleConns)
	overrideDuration(v, "CONN_MAX_LIFETIME", &opts.ConnMaxLifetime)
	overrideDuration(v, "CONN_MAX_IDLE_TIME", &opts.ConnMaxIdleTime)
	overrideDuration(v, "PING_TIMEOUT", &opts.PingTimeout)
	return opts
}

// Open connects with the pool profile of the current runtime. Inside Lambda
// the pool is shared by every invocation of the execution environment.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	p := RuntimeProfile()
	if p == ProfileLambda {
		return Shared(ctx, databaseURL, OptionsFor(p))
	}
	return Connect(ctx, databaseURL, OptionsFor(p))
}

// Connect opens a *sql.DB using the provided DATABASE_URL and verifies connectivity.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	applyOptions(db, opts)

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	stats := db.Stats()
	telemetry.Info("db.connected", map[string]any{
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
		"idle":     stats.Idle,
	})
	return db, nil
}

// Shared returns the process-wide pool, connecting on first use. A failed
// connect is not cached, so the next call tries again.
func Shared(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if sharedDB != nil {
		return sharedDB, nil
	}
	db, err := Connect(ctx, databaseURL, opts)
	if err != nil {
		return nil, err
	}
	sharedDB = db
	return db, nil
}

// WithTx runs fn inside a transaction and commits when fn returns nil.
func WithTx(ctx context.Context, database *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := database.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func applyOptions(db *sql.DB, opts Options) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

func overrideInt(v *viper.Viper, key string, dst *int) {
	if !v.IsSet(key) {
		return
	}
	if n := v.GetInt(key); n > 0 {
		*dst = n
		return
	}
	telemetry.Warn("db.env_invalid", map[string]any{"key": "DB_" + key, "value": v.GetString(key)})
}

func overrideDuration(v *viper.Viper, key string, dst *time.Duration) {
	if !v.IsSet(key) {
		return
	}
	if d := v.GetDuration(key); d > 0 {
		*dst = d
		return
	}
	telemetry.Warn("db.env_invalid", map[string]any{"key": "DB_" + key, "value": v.GetString(key)})
}
