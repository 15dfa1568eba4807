package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLite keeps the processed-file record in a SQLite database so it
// survives restarts of the watch loop.
type SQLite struct {
	db     *sql.DB
	dbPath string
}

// OpenSQLite opens or creates the database at path
func OpenSQLite(path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store needs a database path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLite{db: db, dbPath: path}
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path
func (s *SQLite) Path() string {
	return s.dbPath
}

func (s *SQLite) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS processed_files (
		name TEXT PRIMARY KEY,
		output TEXT,
		status TEXT NOT NULL,
		error TEXT,
		pages INTEGER DEFAULT 0,
		redactions INTEGER DEFAULT 0,
		processed_at INTEGER NOT NULL
	);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

func (s *SQLite) Has(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM processed_files WHERE name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query record: %w", err)
	}
	return n > 0, nil
}

// Put inserts or replaces the record for rec.Name
func (s *SQLite) Put(ctx context.Context, rec Record) error {
	if rec.Name == "" {
		return fmt.Errorf("record without name")
	}
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = time.Now()
	}

	query := `
	INSERT INTO processed_files (name, output, status, error, pages, redactions, processed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(name) DO UPDATE SET
		output = excluded.output,
		status = excluded.status,
		error = excluded.error,
		pages = excluded.pages,
		redactions = excluded.redactions,
		processed_at = excluded.processed_at
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.Name, rec.Output, string(rec.Status), rec.Error, rec.Pages, rec.Redactions, rec.ProcessedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}
	return nil
}

// List returns all records ordered by name
func (s *SQLite) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT name, output, status, error, pages, redactions, processed_at
	FROM processed_files ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec            Record
			output, errMsg sql.NullString
			status         string
			at             int64
		)
		if err := rows.Scan(&rec.Name, &output, &status, &errMsg, &rec.Pages, &rec.Redactions, &at); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		rec.Output = output.String
		rec.Error = errMsg.String
		rec.Status = Status(status)
		rec.ProcessedAt = time.Unix(0, at)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) Delete(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM processed_files WHERE name = ?", name); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

func (s *SQLite) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM processed_files"); err != nil {
		return fmt.Errorf("failed to reset records: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
