package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/isdelr/notes-be/internal/config"
)

// Dialect identifies the SQL flavour behind a DB.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// sqliteFoldFunc is a Unicode-aware lowercase. SQLite's built-in LOWER only
// folds ASCII letters.
const sqliteFoldFunc = "fold_lower"

func init() {
	// sqlx only knows "sqlite3" out of the box; modernc registers as "sqlite".
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	sqlite.MustRegisterDeterministicScalarFunction(sqliteFoldFunc, 1, foldLower)
}

func foldLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case nil:
		return nil, nil
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}

// DB is the process-wide connection pool. Queries are written with "?"
// placeholders and passed through Rebind.
type DB struct {
	*sqlx.DB
	Dialect Dialect
}

// New creates a new database connection pool and verifies it with a ping.
func New(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch Dialect(cfg.Driver) {
	case SQLite:
		db, err = sqlx.Open("sqlite", sqliteDSN(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("opening sqlite db: %w", err)
		}
		// WAL allows concurrent readers, but writers still serialize on the file.
		db.SetMaxOpenConns(4)
	case Postgres:
		db, err = sqlx.Open("pgx", postgresDSN(cfg))
		if err != nil {
			return nil, fmt.Errorf("opening postgres db: %w", err)
		}
		maxConns := cfg.MaxConns
		if maxConns <= 0 {
			maxConns = 10
		}
		db.SetMaxOpenConns(maxConns)
		db.SetConnMaxIdleTime(30 * time.Second)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s: %w", cfg.Driver, err)
	}

	return &DB{DB: db, Dialect: Dialect(cfg.Driver)}, nil
}

// sqliteDSN applies the pragmas on every pooled connection rather than once
// on whichever connection happens to run them.
func sqliteDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	q.Set("_time_format", "sqlite")
	return "file:" + path + "?" + q.Encode()
}

func postgresDSN(cfg config.DatabaseConfig) string {
	sslMode := "disable"
	if cfg.SSL {
		sslMode = "require"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=" + sslMode,
	}
	return u.String()
}

// Lower wraps a SQL expression in the dialect's Unicode-aware lowercase
// function, matching strings.ToLower on the Go side.
func (db *DB) Lower(expr string) string {
	if db.Dialect == SQLite {
		return sqliteFoldFunc + "(" + expr + ")"
	}
	return "LOWER(" + expr + ")"
}

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func (db *DB) WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Optimize refreshes planner statistics.
func (db *DB) Optimize(ctx context.Context) error {
	stmt := "PRAGMA optimize"
	if db.Dialect == Postgres {
		stmt = "ANALYZE"
	}
	start := time.Now()
	if _, err := db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("running %s: %w", stmt, err)
	}
	log.Debug().Str("dialect", string(db.Dialect)).Dur("took", time.Since(start)).Msg("Store optimized")
	return nil
}

// IsUniqueViolation reports whether err is a unique or primary key
// constraint failure from either driver.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
		}
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
