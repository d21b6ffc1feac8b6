package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pacbox/pacbox/internal/core"
)

// ErrNotFound is returned when a container is not tracked
var ErrNotFound = errors.New("container not found")

// DB tracks provisioned containers with separate read/write pools
type DB struct {
	write *sql.DB
	read  *sql.DB
	path  string
}

// New creates a new database instance with separate read/write pools
func New(ctx context.Context, dbPath string) (*DB, error) {
	connStr := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", dbPath)

	// Write pool: MUST be 1 connection only
	write, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open write connection: %w", err)
	}
	write.SetMaxOpenConns(1)
	write.SetMaxIdleConns(1)
	write.SetConnMaxIdleTime(time.Minute)
	write.SetConnMaxLifetime(time.Hour)

	read, err := sql.Open("sqlite", connStr)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("open read connection: %w", err)
	}
	read.SetMaxOpenConns(10)
	read.SetMaxIdleConns(5)
	read.SetConnMaxIdleTime(time.Minute)
	read.SetConnMaxLifetime(time.Hour)

	db := &DB{
		write: write,
		read:  read,
		path:  dbPath,
	}

	if err := db.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

// Close closes both database connections
func (db *DB) Close() error {
	writeErr := db.write.Close()
	readErr := db.read.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

// initSchema creates the schema if it doesn't exist
func (db *DB) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS containers (
    name TEXT PRIMARY KEY,
    image TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    features TEXT,
    desktop_files TEXT,
    wrapper_script TEXT,
    tool_version TEXT
);

CREATE INDEX IF NOT EXISTS idx_containers_image ON containers(image);
	`

	_, err := db.write.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Create inserts a new container record
func (db *DB) Create(ctx context.Context, rec *core.ContainerRecord) error {
	featuresJSON, err := json.Marshal(rec.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}

	query := `
INSERT INTO containers (name, image, created_at, features, desktop_files, wrapper_script, tool_version)
VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = db.write.ExecContext(ctx, query,
		rec.Name,
		rec.Image,
		rec.CreatedAt,
		string(featuresJSON),
		strings.Join(rec.DesktopFiles, "\n"),
		rec.WrapperScript,
		rec.ToolVersion,
	)

	if err != nil {
		return fmt.Errorf("insert container: %w", err)
	}

	return nil
}

// Get retrieves a container record by name
func (db *DB) Get(ctx context.Context, name string) (*core.ContainerRecord, error) {
	query := `
SELECT name, image, created_at, features, desktop_files, wrapper_script, tool_version
FROM containers WHERE name = ?
	`

	rec, err := scanRecord(db.read.QueryRowContext(ctx, query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("query container: %w", err)
	}

	return rec, nil
}

// List retrieves all container records, newest first
func (db *DB) List(ctx context.Context) ([]core.ContainerRecord, error) {
	query := `
SELECT name, image, created_at, features, desktop_files, wrapper_script, tool_version
FROM containers ORDER BY created_at DESC
	`

	rows, err := db.read.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query containers: %w", err)
	}
	defer rows.Close()

	var records []core.ContainerRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan container: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return records, nil
}

// Delete removes a container record
func (db *DB) Delete(ctx context.Context, name string) error {
	result, err := db.write.ExecContext(ctx, "DELETE FROM containers WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete container: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*core.ContainerRecord, error) {
	var rec core.ContainerRecord
	var featuresJSON, desktopFiles string

	err := row.Scan(
		&rec.Name,
		&rec.Image,
		&rec.CreatedAt,
		&featuresJSON,
		&desktopFiles,
		&rec.WrapperScript,
		&rec.ToolVersion,
	)
	if err != nil {
		return nil, err
	}

	if featuresJSON != "" {
		if err := json.Unmarshal([]byte(featuresJSON), &rec.Features); err != nil {
			return nil, fmt.Errorf("unmarshal features: %w", err)
		}
	}
	if desktopFiles != "" {
		rec.DesktopFiles = strings.Split(desktopFiles, "\n")
	}

	return &rec, nil
}
