package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/crossbuild/internal/cache"
	"github.com/inodb/crossbuild/internal/duckdb"
	"github.com/inodb/crossbuild/internal/pipeline"
	"github.com/inodb/crossbuild/internal/scoring"
	"github.com/inodb/crossbuild/internal/store"
)

// options are the resolved settings of one invocation.
type options struct {
	DB            string
	SourceTable   string
	TargetTable   string
	CacheBackend  string
	CacheDir      string
	CacheDuckDB   string
	Force         bool
	LRUSize       int
	ChunkSize     int
	Workers       int
	DataVersion   string
	Weights       string
	OutputTSV     string
	OutputDuckDB  string
	OutputMetrics string
	Verbose       bool
}

func loadOptions() options {
	return options{
		DB:            viper.GetString(keyDB),
		SourceTable:   viper.GetString(keySourceTable),
		TargetTable:   viper.GetString(keyTargetTable),
		CacheBackend:  viper.GetString(keyCacheBackend),
		CacheDir:      viper.GetString(keyCacheDir),
		CacheDuckDB:   viper.GetString(keyCacheDuckDB),
		Force:         viper.GetBool(keyCacheForce),
		LRUSize:       viper.GetInt(keyCacheLRUSize),
		ChunkSize:     viper.GetInt(keyChunkSize),
		Workers:       viper.GetInt(keyWorkers),
		DataVersion:   viper.GetString(keyDataVersion),
		Weights:       viper.GetString(keyWeights),
		OutputTSV:     viper.GetString(keyOutputTSV),
		OutputDuckDB:  viper.GetString(keyOutputDuckDB),
		OutputMetrics: viper.GetString(keyOutputMetrics),
		Verbose:       viper.GetBool(keyVerbose),
	}
}

func addInputFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("db", "", "Input SQLite database with comparison and annotation tables")
	f.String("source-table", "hg19_vep", "Source build annotation table")
	f.String("target-table", "hg38_vep", "Target build annotation table")
	addCacheFlags(cmd)
	f.Int("lru-size", cache.DefaultLRUSize, "Recently written records kept in memory")
	f.Int("chunk-size", pipeline.DefaultChunkSize, "Comparison rows per chunk")
	f.Int("workers", 0, "Analysis workers (0 = all CPUs)")
	f.String("data-version", "", "Input data version for cache keys (default: input file size and mtime)")
}

func addCacheFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("cache-backend", backendFile, "Cache backend: file or duckdb")
	f.String("cache-dir", "", "Directory for the file cache")
	f.String("cache-duckdb", "", "DuckDB database for the duckdb cache backend")
}

func addScoreFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("weights", "", "Weight table YAML (default: built-in table)")
	f.StringP("output", "o", "", "Ranked TSV output file (default: stdout)")
	f.String("output-duckdb", "", "Append the ranked list to this DuckDB database")
	f.String("metrics", "", "Write run metrics in Prometheus text format to this file")
}

// session holds the resources of one invocation.
type session struct {
	opts     options
	logger   *zap.Logger
	input    *store.Store
	cache    *cache.Manager
	pipeline *pipeline.Pipeline
	duck     map[string]*duckdb.Store
}

func newSession(opts options, logger *zap.Logger) *session {
	return &session{opts: opts, logger: logger, duck: make(map[string]*duckdb.Store)}
}

// openPipeline opens the input store and the cache and wires them into a pipeline.
func (s *session) openPipeline() error {
	if s.opts.DB == "" {
		return errors.New("no input database: set --db or the db config key")
	}
	input, err := store.Open(s.opts.DB, store.Options{
		SourceTable: s.opts.SourceTable,
		TargetTable: s.opts.TargetTable,
	})
	if err != nil {
		return err
	}
	input.SetLogger(s.logger)
	s.input = input

	version := s.opts.DataVersion
	if version == "" {
		version = input.DataVersion()
	}
	if err := s.openCache(version); err != nil {
		return err
	}

	s.pipeline = pipeline.New(input, s.cache, pipeline.Config{
		ChunkSize: s.opts.ChunkSize,
		Workers:   s.opts.Workers,
		Force:     s.opts.Force,
	})
	s.pipeline.SetLogger(s.logger)

	s.logger.Info("opened input",
		zap.String("db", s.opts.DB),
		zap.String("data_version", version),
		zap.String("cache_backend", s.opts.CacheBackend))
	return nil
}

func (s *session) openCache(dataVersion string) error {
	var backend cache.Backend
	switch s.opts.CacheBackend {
	case backendFile, "":
		dir := s.opts.CacheDir
		if dir == "" {
			dir = defaultCacheDir()
		}
		fb, err := cache.NewFileBackend(dir)
		if err != nil {
			return err
		}
		backend = fb
	case backendDuckDB:
		if s.opts.CacheDuckDB == "" {
			return errors.New("cache backend duckdb needs --cache-duckdb")
		}
		db, err := s.openDuckDB(s.opts.CacheDuckDB)
		if err != nil {
			return err
		}
		backend = db.AnalysisCache()
	default:
		return fmt.Errorf("unknown cache backend %q (want %s or %s)", s.opts.CacheBackend, backendFile, backendDuckDB)
	}

	m, err := cache.NewManager(backend, dataVersion, s.opts.LRUSize)
	if err != nil {
		return err
	}
	m.SetLogger(s.logger)
	s.cache = m
	return nil
}

// openDuckDB opens a DuckDB database once per path so the cache and the
// ranked output can share a file.
func (s *session) openDuckDB(path string) (*duckdb.Store, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = path
	}
	if db, ok := s.duck[key]; ok {
		return db, nil
	}
	db, err := duckdb.Open(path)
	if err != nil {
		return nil, err
	}
	s.duck[key] = db
	return db, nil
}

func (s *session) Close() {
	if s.input != nil {
		if err := s.input.Close(); err != nil {
			s.logger.Warn("closing input database", zap.Error(err))
		}
	}
	for path, db := range s.duck {
		if err := db.Close(); err != nil {
			s.logger.Warn("closing duckdb", zap.String("path", path), zap.Error(err))
		}
	}
	_ = s.logger.Sync()
}

// loadEngine loads the weight table. Validation failures are fatal before any variant is processed.
func loadEngine(path string) (*scoring.Engine, error) {
	var (
		w   *scoring.WeightTable
		err error
	)
	if path == "" {
		w, err = scoring.DefaultWeights()
	} else {
		w, err = scoring.LoadWeights(path)
	}
	if err != nil {
		return nil, err
	}
	return scoring.NewEngine(w), nil
}
