// Package sqlite implements the archive state store on SQLite.
package sqlite

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"ttkeep/pkg/storage"
)

//go:embed queries/*.sql
var queryFS embed.FS

// DB is a SQLite implementation of the storage.Store interface.
//
// SaveRun commits all of a run's new and changed records in a single
// transaction, so the persisted state is replaced all-or-nothing: a crash
// mid-save leaves the prior state fully intact, and a run that never reaches
// SaveRun persists nothing.
type DB struct {
	Conn *sql.DB // The raw database connection, exposed for extensibility.
}

// New opens (or creates) the archive database and ensures the schema is up
// to date. An unreadable database fails with storage.ErrStateCorrupt.
func New(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	instance := &DB{Conn: db}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", storage.ErrStateCorrupt, err)
	}
	if err := instance.checkIntegrity(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := instance.createSchema(); err != nil {
		_ = instance.Close()
		return nil, fmt.Errorf("%w: failed to create schema: %v", storage.ErrStateCorrupt, err)
	}
	return instance, nil
}

// getQuery reads a raw SQL query from the embedded filesystem.
func getQuery(name string) (string, error) {
	b, err := queryFS.ReadFile("queries/" + name)
	if err != nil {
		return "", fmt.Errorf("failed to read embedded query %s: %w", name, err)
	}
	return string(b), nil
}

// checkIntegrity runs SQLite's quick corruption check.
func (db *DB) checkIntegrity() error {
	var result string
	if err := db.Conn.QueryRow("PRAGMA quick_check;").Scan(&result); err != nil {
		return fmt.Errorf("%w: integrity check failed: %v", storage.ErrStateCorrupt, err)
	}
	if !strings.EqualFold(result, "ok") {
		return fmt.Errorf("%w: integrity check reported: %s", storage.ErrStateCorrupt, result)
	}
	return nil
}

func (db *DB) createSchema() error {
	query, err := getQuery("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Conn.Exec(query)
	return err
}

// Load reads the full persisted state into memory. Selecting named columns
// keeps the store forward-compatible: unknown future columns are ignored.
func (db *DB) Load() (*storage.ArchiveState, error) {
	query, err := getQuery("load_posts.sql")
	if err != nil {
		return nil, err
	}
	rows, err := db.Conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read posts: %v", storage.ErrStateCorrupt, err)
	}
	defer func() { _ = rows.Close() }()

	state := storage.NewState()
	for rows.Next() {
		var (
			r          storage.PostRecord
			imagePaths string
			firstSeen  sql.NullTime
			fetchedAt  sql.NullTime
		)
		if err := rows.Scan(&r.Identifier, &r.Seq, &r.Kind, &r.Status, &r.Title,
			&r.LocalPath, &imagePaths, &r.AudioPath, &r.SHA256, &r.ErrorDetail,
			&firstSeen, &fetchedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan post row: %v", storage.ErrStateCorrupt, err)
		}
		if imagePaths != "" && imagePaths != "[]" {
			if err := json.Unmarshal([]byte(imagePaths), &r.ImagePaths); err != nil {
				return nil, fmt.Errorf("%w: bad image path list for %s: %v", storage.ErrStateCorrupt, r.Identifier, err)
			}
		}
		if firstSeen.Valid {
			r.FirstSeenAt = firstSeen.Time
		}
		if fetchedAt.Valid {
			r.FetchedAt = fetchedAt.Time
		}
		rec := r
		state.Records[rec.Identifier] = &rec
		if rec.Seq > state.MaxSeq {
			state.MaxSeq = rec.Seq
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: error during row iteration: %v", storage.ErrStateCorrupt, err)
	}
	return state, nil
}

// SaveRun upserts all of a run's records inside one transaction. Sequence,
// kind, and first-seen time are written once and never updated: the upsert
// leaves them untouched on conflict.
func (db *DB) SaveRun(records []*storage.PostRecord) error {
	if len(records) == 0 {
		return nil
	}
	query, err := getQuery("upsert_post.sql")
	if err != nil {
		return err
	}

	tx, err := db.Conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin save transaction: %w", err)
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		imagePaths, err := json.Marshal(r.ImagePaths)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to serialize image paths for %s: %w", r.Identifier, err)
		}
		var fetchedAt any
		if !r.FetchedAt.IsZero() {
			fetchedAt = r.FetchedAt
		}
		if _, err := stmt.Exec(r.Identifier, r.Seq, string(r.Kind), string(r.Status),
			r.Title, r.LocalPath, string(imagePaths), r.AudioPath, r.SHA256,
			r.ErrorDetail, r.FirstSeenAt, fetchedAt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to upsert record %s: %w", r.Identifier, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit save transaction: %w", err)
	}

	_, err = db.Conn.Exec("PRAGMA wal_checkpoint(TRUNCATE);")
	if err != nil {
		return fmt.Errorf("failed to checkpoint WAL after save: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.Conn.Close()
}
