// Package store reads the liftover comparison table and the per-build
// predictor annotation tables produced by the ETL step.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// ErrMissingTable is returned when a required input table does not exist.
var ErrMissingTable = errors.New("missing required table")

// Default table names.
const (
	ComparisonTable    = "comparison"
	DefaultSourceTable = "hg19_vep"
	DefaultTargetTable = "hg38_vep"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options names the per-build annotation tables.
type Options struct {
	SourceTable string
	TargetTable string
}

func (o Options) withDefaults() Options {
	if o.SourceTable == "" {
		o.SourceTable = DefaultSourceTable
	}
	if o.TargetTable == "" {
		o.TargetTable = DefaultTargetTable
	}
	return o
}

// Store is a read-only view of the relational input.
type Store struct {
	db          *sql.DB
	opts        Options
	fingerprint FileFingerprint
	logger      *zap.Logger
}

// Open opens an existing SQLite input database. A missing file, a failed
// ping or a missing table is an error.
func Open(path string, opts Options) (*Store, error) {
	fp, err := StatFile(path)
	if err != nil {
		return nil, fmt.Errorf("open input database: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open input database: %w", err)
	}
	s, err := New(db, opts)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.fingerprint = fp
	return s, nil
}

// New wraps an open database handle and verifies the input tables exist.
func New(db *sql.DB, opts Options) (*Store, error) {
	opts = opts.withDefaults()
	for _, t := range []string{opts.SourceTable, opts.TargetTable} {
		if !tableName.MatchString(t) {
			return nil, fmt.Errorf("invalid table name %q", t)
		}
	}

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping input database: %w", err)
	}
	s := &Store{db: db, opts: opts, logger: zap.NewNop()}
	for _, t := range []string{ComparisonTable, opts.SourceTable, opts.TargetTable} {
		if err := s.checkTable(ctx, t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SetLogger sets the logger for skipped-row messages.
func (s *Store) SetLogger(l *zap.Logger) {
	s.logger = l
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Options returns the table names in use.
func (s *Store) Options() Options {
	return s.opts
}

// DataVersion identifies the input file contents. It is empty for stores
// created with New.
func (s *Store) DataVersion() string {
	if s.fingerprint.Path == "" {
		return ""
	}
	return s.fingerprint.DataVersion()
}

func (s *Store) checkTable(ctx context.Context, name string) error {
	var found string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name = ?", name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrMissingTable, name)
	}
	if err != nil {
		return fmt.Errorf("check table %s: %w", name, err)
	}
	return nil
}
