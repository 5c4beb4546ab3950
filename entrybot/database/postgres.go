package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const (
	defaultConnTimeout   = 5 * time.Second
	defaultMaxRetries    = 3
	defaultRetryInterval = time.Second
)

type DBConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

// Document is one collection stored as a JSONB row.
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`

	Name      string    `bun:"name,pk"`
	Body      string    `bun:"body,type:jsonb,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// DB is the Postgres backend: a pgx pool for raw statements and bun for the
// documents table.
type DB struct {
	pool  *pgxpool.Pool
	bunDB *bun.DB
}

func NewPostgres(ctx context.Context, cfg DBConfig) (*DB, error) {
	if err := waitReachable(ctx, net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))); err != nil {
		return nil, err
	}

	dsn := buildDSN(cfg)
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.PoolSize > 0 {
		poolConfig.MaxConns = int32(cfg.PoolSize)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = time.Duration(cfg.MaxLifetime) * time.Second
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := &DB{pool: pool, bunDB: bun.NewDB(sqldb, pgdialect.New())}
	if err := db.InitializeSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}

// waitReachable dials addr until it answers, giving up after
// defaultMaxRetries attempts or when ctx ends.
func waitReachable(ctx context.Context, addr string) error {
	dialer := net.Dialer{Timeout: defaultConnTimeout}
	var err error
	for attempt := 1; attempt <= defaultMaxRetries; attempt++ {
		var conn net.Conn
		if conn, err = dialer.DialContext(ctx, "tcp", addr); err == nil {
			return conn.Close()
		}
		slog.Warn("Database not reachable yet",
			slog.String("type", "db"),
			slog.String("address", addr),
			slog.Int("attempt", attempt),
			slog.Any("error", err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(defaultRetryInterval):
		}
	}
	return fmt.Errorf("database server unreachable after %d attempts: %w", defaultMaxRetries, err)
}

// buildDSN is shared by the pgx pool and the bun connector. PG_SSLMODE
// overrides the default of disable.
func buildDSN(cfg DBConfig) string {
	sslMode := os.Getenv("PG_SSLMODE")
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Database,
		RawQuery: "connect_timeout=5&sslmode=" + url.QueryEscape(sslMode),
	}
	return u.String()
}

// InitializeSchema creates the documents table.
func (db *DB) InitializeSchema(ctx context.Context) error {
	if _, err := db.bunDB.NewCreateTable().
		Model((*Document)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

func (db *DB) Name() string { return "postgres" }

func (db *DB) Read(ctx context.Context, collection string) ([]byte, error) {
	doc := new(Document)
	err := db.bunDB.NewSelect().
		Model(doc).
		Where("name = ?", collection).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(doc.Body), nil
}

const upsertDocument = `INSERT INTO documents (name, body, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`

func (db *DB) Write(ctx context.Context, collection string, data []byte) error {
	_, err := db.execWithLog(ctx, upsertDocument, collection, string(data))
	return err
}

// execWithLog runs a raw statement on the pool.
func (db *DB) execWithLog(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	start := time.Now()
	result, err := db.pool.Exec(ctx, query, args...)
	if err != nil {
		slog.Error("Query failed",
			slog.String("type", "db"),
			slog.String("operation", "exec"),
			slog.Duration("took", time.Since(start)),
			slog.Any("error", err),
		)
		return result, err
	}

	slog.Debug("Query executed",
		slog.String("type", "db"),
		slog.String("operation", "exec"),
		slog.Duration("took", time.Since(start)),
		slog.Int64("affected_rows", result.RowsAffected()),
	)
	return result, nil
}

func (db *DB) Close(context.Context) error {
	if db.pool != nil {
		db.pool.Close()
	}
	if db.bunDB != nil {
		return db.bunDB.Close()
	}
	return nil
}
