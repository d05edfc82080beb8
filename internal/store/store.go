package store

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - Initial schema (pre-migration)
// 1 - Added index on subscriptions.subscriber
const currentSchemaVersion = 1

// Document names used in the documents table.
const (
	notificationsDocument = "notifications"
	tagsDocument          = "tags"
)

// Store provides SQLite-backed storage for pulse registries.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	// Open database (creates file if doesn't exist)
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Notifications returns the backend for the notifications document.
func (s *Store) Notifications() *NotificationsTable {
	return &NotificationsTable{db: s.db}
}

// Tags returns the backend for the tags document.
func (s *Store) Tags() *TagsTable {
	return &TagsTable{db: s.db}
}

// Revision returns how many times the named document has been saved.
// Zero means never.
func (s *Store) Revision(document string) (int64, error) {
	revision, found, err := readRevision(s.db, document)
	if err != nil || !found {
		return 0, err
	}
	return revision, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations applies incremental schema migrations based on user_version.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 indexes subscriptions by subscriber for "my notifications"
// style lookups.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_subscriptions_subscriber
		ON subscriptions(subscriber)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

// readRevision reports whether the document has ever been saved.
func readRevision(q queryRower, document string) (int64, bool, error) {
	var revision int64
	err := q.QueryRow(`SELECT revision FROM documents WHERE name = ?`, document).Scan(&revision)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read %s revision: %w", document, err)
	}
	return revision, true, nil
}

// bumpRevision marks the document as saved once more.
func bumpRevision(tx *sql.Tx, document string) error {
	_, err := tx.Exec(`
		INSERT INTO documents (name, revision) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET revision = revision + 1
	`, document)
	if err != nil {
		return fmt.Errorf("bump %s revision: %w", document, err)
	}
	return nil
}
