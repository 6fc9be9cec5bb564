package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/inodb/crossbuild/internal/cache"
)

// AnalysisCache is a cache.Backend over the analysis_cache table.
type AnalysisCache struct {
	db *sql.DB
}

var _ cache.Backend = (*AnalysisCache)(nil)

// AnalysisCache returns a cache backend sharing the store's connection.
func (s *Store) AnalysisCache() *AnalysisCache {
	return &AnalysisCache{db: s.db}
}

// Exists reports whether key has an entry.
func (c *AnalysisCache) Exists(key string) (bool, error) {
	var n int64
	if err := c.db.QueryRow("SELECT count(*) FROM analysis_cache WHERE key = ?", key).Scan(&n); err != nil {
		return false, fmt.Errorf("query analysis cache: %w", err)
	}
	return n > 0, nil
}

// Read returns the entry for key, or cache.ErrNotFound.
func (c *AnalysisCache) Read(key string) ([]byte, error) {
	var data []byte
	err := c.db.QueryRow("SELECT data FROM analysis_cache WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read analysis cache: %w", err)
	}
	return data, nil
}

// Write stores data under key in a single statement, replacing any previous entry.
func (c *AnalysisCache) Write(key string, data []byte) error {
	if _, err := c.db.Exec(
		"INSERT OR REPLACE INTO analysis_cache (key, data, written_at) VALUES (?, ?, ?)",
		key, data, time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("write analysis cache: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (c *AnalysisCache) Clear() error {
	if _, err := c.db.Exec("DELETE FROM analysis_cache"); err != nil {
		return fmt.Errorf("clear analysis cache: %w", err)
	}
	return nil
}

// Count returns the number of cached entries.
func (c *AnalysisCache) Count() (int64, error) {
	var n int64
	if err := c.db.QueryRow("SELECT count(*) FROM analysis_cache").Scan(&n); err != nil {
		return 0, fmt.Errorf("count analysis cache: %w", err)
	}
	return n, nil
}
