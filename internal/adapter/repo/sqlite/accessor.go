// Package sqlite provides the SQLite-backed store for posts.
//
// Connections are opened per operation and closed before the operation
// returns; nothing is pooled or shared between requests.
package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// Register modernc SQLite driver with database/sql.
	_ "modernc.org/sqlite"

	"github.com/fairyhunter13/techtrends/internal/domain"
)

// DriverName is the database/sql driver registered by modernc.org/sqlite.
const DriverName = "sqlite"

// Config captures SQLite store configuration derived from application settings.
type Config struct {
	// Path is the database file. It must already exist.
	Path string

	// BusyTimeout configures sqlite busy timeout via PRAGMA busy_timeout.
	BusyTimeout time.Duration
}

// ConnectionRecorder is notified once per successfully opened connection.
type ConnectionRecorder interface{ Inc() }

// ConnectFunc opens and verifies a database handle for dsn.
type ConnectFunc func(ctx context.Context, driverName, dsn string) (*sqlx.DB, error)

// Option customizes an Accessor.
type Option func(*Accessor)

// WithConnectFunc replaces the function used to open connections.
func WithConnectFunc(fn ConnectFunc) Option {
	return func(a *Accessor) { a.connect = fn }
}

// Accessor opens connections to the on-disk store.
type Accessor struct {
	dsn     string
	counter ConnectionRecorder
	connect ConnectFunc
}

// Opener is the part of Accessor the repository depends on.
type Opener interface {
	Open(ctx context.Context) (*Conn, error)
}

// NewAccessor constructs an Accessor for cfg. counter may be nil.
func NewAccessor(cfg Config, counter ConnectionRecorder, opts ...Option) *Accessor {
	a := &Accessor{dsn: buildDSN(cfg), counter: counter, connect: connect}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Open acquires a new connection and counts it. On error no connection is
// returned and the counter is left unchanged. Callers must Close the
// returned Conn on every path.
func (a *Accessor) Open(ctx context.Context) (*Conn, error) {
	db, err := a.connect(ctx, DriverName, a.dsn)
	if err != nil {
		return nil, fmt.Errorf("op=store.open: %w: %v", domain.ErrStoreUnavailable, err)
	}
	if a.counter != nil {
		a.counter.Inc()
	}
	return &Conn{db: db}, nil
}

// Conn is one open session to the store. Rows scan into structs by column name.
type Conn struct{ db *sqlx.DB }

// Close releases all resources held by the connection.
func (c *Conn) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// buildDSN opens the file read-write without creating it, so a missing
// database surfaces as an open error instead of an empty store.
func buildDSN(cfg Config) string {
	dsn := fmt.Sprintf("file:%s?mode=rw", cfg.Path)
	if cfg.BusyTimeout > 0 {
		dsn += fmt.Sprintf("&_pragma=busy_timeout(%d)", cfg.BusyTimeout.Milliseconds())
	}
	return dsn
}

func connect(ctx context.Context, driverName, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	// Reading the schema version forces sqlite to parse the file header,
	// which rejects files that are not databases.
	var version int
	if err := db.QueryRowContext(ctx, "PRAGMA schema_version").Scan(&version); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
