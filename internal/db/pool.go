// Package db owns the PostgreSQL connection pool shared by every request.
//
// Connections come from a pgxpool.Pool capped at the configured maximum.
// The ORM talks to that pool through database/sql, and each unit of work
// borrows one connection via Session, which waits at most the configured
// acquire timeout before failing with a PoolExhaustedError.
package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/agentstation/roster/pkg/errors"
)

// probeValue is bound into the startup liveness query.
const probeValue = 150

// Config describes how to reach the database.
type Config struct {
	URL            string
	Password       string
	MaxConnections uint32
	AcquireTimeout time.Duration
}

// Pool is the process-wide connection pool.
type Pool struct {
	pgx            *pgxpool.Pool
	sqlDB          *sql.DB
	gorm           *gorm.DB
	maxConns       int32
	acquireTimeout time.Duration
}

// Open connects to the database, runs one liveness probe and returns the
// ready pool. Any failure is returned; the caller decides whether it is fatal.
func Open(ctx context.Context, cfg Config, logger *zerolog.Logger) (*Pool, error) {
	logger.Info().
		Str("url", Redact(cfg.URL, cfg.Password)).
		Uint32("max_connections", cfg.MaxConnections).
		Dur("acquire_timeout", cfg.AcquireTimeout).
		Msg("Connecting to database")

	pgxCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, errors.NewConfigError("DATABASE_URL", Redact(err.Error(), cfg.Password), err)
	}
	if cfg.MaxConnections > 0 {
		pgxCfg.MaxConns = clampConns(cfg.MaxConnections)
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, errors.WrapResource("open", "database pool", "", err)
	}

	var n int
	if err := pool.QueryRow(ctx, "SELECT $1::int4", probeValue).Scan(&n); err != nil {
		pool.Close()
		return nil, errors.WrapResource("probe", "database", "", err)
	}
	if n <= 0 {
		pool.Close()
		return nil, errors.NewResourceError("probe", "database", "", stderrors.New("liveness probe returned a non-positive value"))
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	sqlDB.SetMaxOpenConns(int(pgxCfg.MaxConns))

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:                 NewGormLogger(logger),
		TranslateError:         true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		_ = sqlDB.Close()
		pool.Close()
		return nil, errors.WrapResource("open", "orm", "", err)
	}

	logger.Info().Int32("max_connections", pgxCfg.MaxConns).Msg("Database pool ready")

	return &Pool{
		pgx:            pool,
		sqlDB:          sqlDB,
		gorm:           gdb,
		maxConns:       pgxCfg.MaxConns,
		acquireTimeout: cfg.AcquireTimeout,
	}, nil
}

// FromGorm wraps an already opened ORM handle. The underlying
// database/sql pool limits decide how many sessions can be open at once.
func FromGorm(gdb *gorm.DB, acquireTimeout time.Duration) (*Pool, error) {
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, errors.WrapResource("open", "orm", "", err)
	}
	maxConns := int32(sqlDB.Stats().MaxOpenConnections)
	return &Pool{
		sqlDB:          sqlDB,
		gorm:           gdb,
		maxConns:       maxConns,
		acquireTimeout: acquireTimeout,
	}, nil
}

// Session borrows one connection for the duration of a unit of work.
// The returned release func must be called once the work is done.
func (p *Pool) Session(ctx context.Context) (*gorm.DB, func(), error) {
	acquireCtx := ctx
	var cancel context.CancelFunc = func() {}
	if p.acquireTimeout > 0 {
		acquireCtx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
	}
	defer cancel()

	conn, err := p.sqlDB.Conn(acquireCtx)
	if err != nil {
		if ctx.Err() == nil && stderrors.Is(acquireCtx.Err(), context.DeadlineExceeded) {
			return nil, nil, errors.NewPoolExhaustedError(p.maxConns, p.acquireTimeout.String())
		}
		return nil, nil, errors.WrapResource("acquire", "database connection", "", err)
	}

	tx := p.gorm.WithContext(ctx)
	tx.Statement.ConnPool = conn
	return tx, func() { _ = conn.Close() }, nil
}

// AcquireTimeout reports how long Session waits for a free connection.
func (p *Pool) AcquireTimeout() time.Duration {
	return p.acquireTimeout
}

// Stats reports the current database/sql pool usage.
func (p *Pool) Stats() sql.DBStats {
	return p.sqlDB.Stats()
}

// Close releases every connection.
func (p *Pool) Close() {
	_ = p.sqlDB.Close()
	if p.pgx != nil {
		p.pgx.Close()
	}
}

// Redact hides password inside s so connection strings can be logged.
func Redact(s, password string) string {
	if password == "" {
		return s
	}
	return strings.ReplaceAll(s, password, "*****")
}

func clampConns(n uint32) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(n)
}
