package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// migration holds a single schema migration with its target version and
// the statements to apply, one per entry.
type migration struct {
	version int
	stmts   []string
}

// sqliteMigrations and postgresMigrations must stay in step: same versions,
// same logical schema.
var sqliteMigrations = []migration{
	{
		version: 1,
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id            INTEGER PRIMARY KEY AUTOINCREMENT,
				email         TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at    DATETIME NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS notes (
				id         INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				title      TEXT NOT NULL CHECK (title <> ''),
				content    TEXT NOT NULL DEFAULT '',
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_notes_user_updated ON notes(user_id, updated_at)`,
			`CREATE TABLE IF NOT EXISTS tags (
				id   INTEGER PRIMARY KEY AUTOINCREMENT,
				name TEXT NOT NULL UNIQUE
			)`,
			`CREATE TABLE IF NOT EXISTS note_tags (
				note_id INTEGER NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
				tag_id  INTEGER NOT NULL REFERENCES tags(id),
				PRIMARY KEY (note_id, tag_id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_note_tags_tag ON note_tags(tag_id)`,
		},
	},
}

var postgresMigrations = []migration{
	{
		version: 1,
		stmts: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id            BIGSERIAL PRIMARY KEY,
				email         TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				created_at    TIMESTAMPTZ NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS notes (
				id         BIGSERIAL PRIMARY KEY,
				user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				title      TEXT NOT NULL CHECK (title <> ''),
				content    TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_notes_user_updated ON notes(user_id, updated_at)`,
			`CREATE TABLE IF NOT EXISTS tags (
				id   BIGSERIAL PRIMARY KEY,
				name TEXT NOT NULL UNIQUE
			)`,
			`CREATE TABLE IF NOT EXISTS note_tags (
				note_id BIGINT NOT NULL REFERENCES notes(id) ON DELETE CASCADE,
				tag_id  BIGINT NOT NULL REFERENCES tags(id),
				PRIMARY KEY (note_id, tag_id)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_note_tags_tag ON note_tags(tag_id)`,
		},
	},
}

func (db *DB) migrations() []migration {
	if db.Dialect == Postgres {
		return postgresMigrations
	}
	return sqliteMigrations
}

// Migrate checks the current schema version and applies any outstanding
// migrations in order, each in its own transaction.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	current, err := db.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, m := range db.migrations() {
		if m.version <= current {
			continue
		}
		err := db.WithTx(ctx, func(tx *sqlx.Tx) error {
			for _, stmt := range m.stmts {
				if _, err := tx.ExecContext(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx,
				db.Rebind(`INSERT INTO schema_version (version) VALUES (?)`), m.version)
			return err
		})
		if err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
		log.Info().Int("version", m.version).Str("dialect", string(db.Dialect)).Msg("Applied schema migration")
	}

	return nil
}

// SchemaVersion returns the highest applied migration version, 0 for a fresh store.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := db.GetContext(ctx, &version,
		`SELECT COALESCE(MAX(version), 0) FROM schema_version`); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}
