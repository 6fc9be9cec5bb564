// Package duckdb stores analysis records and ranked scoring runs in DuckDB.
// Analysis records are cached as gob blobs keyed by fingerprint.
// Ranked runs are appended to a queryable table, one row per variant.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for cached analyses and ranked output.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, "" for in-memory databases.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS analysis_cache (
			key VARCHAR PRIMARY KEY,
			data BLOB,
			written_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS ranked_variants (
			run_id VARCHAR,
			weights_version VARCHAR,
			weights_fingerprint VARCHAR,
			variant_rank INTEGER,
			category VARCHAR,
			score DOUBLE,
			raw_score DOUBLE,
			override VARCHAR,
			chrom VARCHAR,
			source_pos BIGINT,
			target_pos BIGINT,
			ref VARCHAR,
			alt VARCHAR,
			source_gene VARCHAR,
			target_gene VARCHAR,
			priority_transcript VARCHAR,
			priority_status VARCHAR,
			reasons VARCHAR,
			created_at TIMESTAMP,
			PRIMARY KEY (run_id, variant_rank)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
