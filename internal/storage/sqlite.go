// Package storage persists the journal ledger and patent records in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Errors returned by the store.
var (
	ErrNoParts         = errors.New("journal has no downloaded parts")
	ErrJournalNotFound = errors.New("journal not found")
	ErrPatentNotFound  = errors.New("patent record not found")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrNotConfirmed    = errors.New("destructive operation not confirmed")
)

// DB wraps a SQLite database connection.
type DB struct {
	db  *sqlx.DB
	log logrus.FieldLogger
}

// Option configures a DB.
type Option func(*DB)

// WithLogger sets the logger used for warnings about malformed stored rows.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *DB) {
		d.log = log.WithField("component", "storage")
	}
}

const schema = `
	CREATE TABLE IF NOT EXISTS journals (
		journal_id TEXT PRIMARY KEY,
		part1_path TEXT NOT NULL DEFAULT '',
		part2_path TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'downloaded',
		created_at TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_journals_status ON journals(status);

	CREATE TABLE IF NOT EXISTS patents (
		application_no TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		date_of_filing TEXT NOT NULL DEFAULT '',
		publication_date TEXT NOT NULL DEFAULT '',
		abstract TEXT NOT NULL DEFAULT '',
		classification_raw TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'newly_extracted',
		created_at TEXT NOT NULL DEFAULT '',
		updated_at TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_patents_status ON patents(status);

	-- Full-text search over record content (standalone, kept in sync on write)
	CREATE VIRTUAL TABLE IF NOT EXISTS patents_fts USING fts5(
		application_no UNINDEXED,
		title,
		abstract,
		applicant
	);
`

// patentColumns are added after the base table so databases created before
// they existed pick them up on open.
var patentColumns = []struct {
	name string
	decl string
}{
	{"applicant", "TEXT NOT NULL DEFAULT ''"},
	{"inventor", "TEXT NOT NULL DEFAULT ''"},
	{"classification_codes", "TEXT NOT NULL DEFAULT ''"},
	{"publication_part", "TEXT NOT NULL DEFAULT ''"},
	{"journal_id", "TEXT NOT NULL DEFAULT ''"},
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string, opts ...Option) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	d := &DB{db: db, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// migrate adds any patent columns missing from an older database.
// SQLite has no ADD COLUMN IF NOT EXISTS, so the table info is checked first.
func migrate(db *sqlx.DB) error {
	var cols []struct {
		CID       int     `db:"cid"`
		Name      string  `db:"name"`
		Type      string  `db:"type"`
		NotNull   int     `db:"notnull"`
		DfltValue *string `db:"dflt_value"`
		PK        int     `db:"pk"`
	}
	if err := db.Select(&cols, "PRAGMA table_info(patents)"); err != nil {
		return fmt.Errorf("reading table info: %w", err)
	}

	existing := make(map[string]bool, len(cols))
	for _, c := range cols {
		existing[strings.ToLower(c.Name)] = true
	}

	for _, col := range patentColumns {
		if existing[col.name] {
			continue
		}
		if _, err := db.Exec(fmt.Sprintf("ALTER TABLE patents ADD COLUMN %s %s", col.name, col.decl)); err != nil {
			return fmt.Errorf("adding column %s: %w", col.name, err)
		}
	}
	return nil
}

// execute runs a squirrel statement and returns the number of affected rows.
func execute(ctx context.Context, runner sqlx.ExecerContext, b sq.Sqlizer) (int64, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("building query: %w", err)
	}
	res, err := runner.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
