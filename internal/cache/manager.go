package cache

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/inodb/crossbuild/internal/annotate"
)

// DefaultLRUSize is the number of recently written records kept in memory.
const DefaultLRUSize = 50000

// Lookup is the outcome of a cache read.
type Lookup int

const (
	Hit       Lookup = iota // Entry found and decoded
	Miss                    // No entry for the fingerprint
	ReadError               // Entry present but unreadable; treated as a miss
)

// Stats counts cache activity since the manager was created.
type Stats struct {
	Hits       int
	Misses     int
	ReadErrors int
	Writes     int
}

// Manager owns the lifetime of cached comparison records: it derives
// fingerprints, encodes records and keeps recently written ones in memory.
type Manager struct {
	backend     Backend
	dataVersion string
	recent      *lru.Cache[string, *annotate.VariantAnalysisResult]
	logger      *zap.Logger

	mu    sync.Mutex
	stats Stats
}

// NewManager creates a cache manager over backend. dataVersion identifies the
// input data; entries written for another version are never read.
// lruSize <= 0 uses DefaultLRUSize.
func NewManager(backend Backend, dataVersion string, lruSize int) (*Manager, error) {
	if lruSize <= 0 {
		lruSize = DefaultLRUSize
	}
	recent, err := lru.New[string, *annotate.VariantAnalysisResult](lruSize)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Manager{
		backend:     backend,
		dataVersion: dataVersion,
		recent:      recent,
		logger:      zap.NewNop(),
	}, nil
}

// SetLogger sets the logger for warning and info messages.
func (m *Manager) SetLogger(l *zap.Logger) {
	m.logger = l
}

// DataVersion returns the input data version the manager was created with.
func (m *Manager) DataVersion() string {
	return m.dataVersion
}

// Key returns the fingerprint of v under the current data and extraction versions.
func (m *Manager) Key(v *annotate.Variant) string {
	return Fingerprint(m.dataVersion, v.Key(), annotate.ExtractionVersion)
}

// Clear removes every cached record. Call it once before a forced run.
func (m *Manager) Clear() error {
	m.recent.Purge()
	if err := m.backend.Clear(); err != nil {
		return err
	}
	m.logger.Info("cleared analysis cache", zap.String("data_version", m.dataVersion))
	return nil
}

// Has reports whether a record for v is cached.
func (m *Manager) Has(v *annotate.Variant) (bool, error) {
	key := m.Key(v)
	if m.recent.Contains(key) {
		return true, nil
	}
	return m.backend.Exists(key)
}

// Get returns the cached record for v. Unreadable or undecodable entries are
// reported as ReadError and must be recomputed by the caller.
func (m *Manager) Get(v *annotate.Variant) (*annotate.VariantAnalysisResult, Lookup) {
	key := m.Key(v)
	if r, ok := m.recent.Get(key); ok {
		m.count(Hit)
		return r, Hit
	}

	data, err := m.backend.Read(key)
	if errors.Is(err, ErrNotFound) {
		m.count(Miss)
		return nil, Miss
	}
	if err != nil {
		m.logger.Warn("failed to read cached analysis",
			zap.String("variant", v.Key()),
			zap.Error(err))
		m.count(ReadError)
		return nil, ReadError
	}

	r, err := decode(data)
	if err == nil && r.Variant.Key() != v.Key() {
		err = fmt.Errorf("entry holds variant %s", r.Variant.Key())
	}
	if err == nil && r.ExtractionVersion != annotate.ExtractionVersion {
		err = fmt.Errorf("entry has extraction version %d", r.ExtractionVersion)
	}
	if err != nil {
		m.logger.Warn("discarding unreadable cached analysis",
			zap.String("variant", v.Key()),
			zap.Error(err))
		m.count(ReadError)
		return nil, ReadError
	}

	m.count(Hit)
	return r, Hit
}

// Put writes r to the backend, replacing any previous entry.
func (m *Manager) Put(r *annotate.VariantAnalysisResult) error {
	data, err := encode(r)
	if err != nil {
		return fmt.Errorf("encode analysis %s: %w", r.Variant.Key(), err)
	}
	key := m.Key(&r.Variant)
	if err := m.backend.Write(key, data); err != nil {
		return fmt.Errorf("write analysis %s: %w", r.Variant.Key(), err)
	}
	m.recent.Add(key, r)

	m.mu.Lock()
	m.stats.Writes++
	m.mu.Unlock()
	return nil
}

// Stats returns a snapshot of the cache counters.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

func (m *Manager) count(l Lookup) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch l {
	case Hit:
		m.stats.Hits++
	case Miss:
		m.stats.Misses++
	case ReadError:
		m.stats.ReadErrors++
	}
}

func encode(r *annotate.VariantAnalysisResult) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte) (*annotate.VariantAnalysisResult, error) {
	var r annotate.VariantAnalysisResult
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode cached analysis: %w", err)
	}
	return &r, nil
}
