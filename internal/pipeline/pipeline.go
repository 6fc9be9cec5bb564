// Package pipeline drives the two passes of a run: chunked analysis of every
// lifted-over variant into the cache, then scoring and ranking of the cached records.
package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/crossbuild/internal/annotate"
	"github.com/inodb/crossbuild/internal/cache"
	"github.com/inodb/crossbuild/internal/scoring"
	"github.com/inodb/crossbuild/internal/store"
)

// DefaultChunkSize is the number of comparison rows processed per chunk.
const DefaultChunkSize = 10000

// Source supplies variants and their annotation rows.
type Source interface {
	Variants(ctx context.Context, afterID int64, limit int) (store.Page, error)
	LoadInput(ctx context.Context, v annotate.Variant) (*annotate.VariantInput, error)
}

// Config controls chunking, parallelism and cache reuse.
type Config struct {
	ChunkSize int  // Comparison rows per chunk; <= 0 uses DefaultChunkSize
	Workers   int  // Analysis workers; <= 0 uses runtime.NumCPU()
	Force     bool // Clear the cache once before analyzing
}

// Diagnostics counts what a run did. Malformed input is reported here, never as an error.
type Diagnostics struct {
	Chunks                int
	Variants              int // Mapped variants read from the comparison table
	Analyzed              int // Comparison records computed and written
	Cached                int // Variants skipped by the analysis pass because they were cached
	Recomputed            int // Records recomputed by the scoring pass
	CacheReadErrors       int
	SkippedComparisonRows int
	SkippedAnnotationRows int
}

// Pipeline runs analysis and scoring over a Source with an explicit cache.
type Pipeline struct {
	src      Source
	cache    *cache.Manager
	analyzer *annotate.Analyzer
	cfg      Config
	metrics  *Metrics
	logger   *zap.Logger

	cleared bool
	walked  bool // a full pass has counted the malformed comparison rows
	diag    Diagnostics
}

// New creates a pipeline.
func New(src Source, cm *cache.Manager, cfg Config) *Pipeline {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	return &Pipeline{
		src:      src,
		cache:    cm,
		analyzer: annotate.NewAnalyzer(),
		cfg:      cfg,
		metrics:  NewMetrics(),
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger for the pipeline and its analyzer.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
	p.analyzer.SetLogger(l)
}

// Metrics returns the run metrics.
func (p *Pipeline) Metrics() *Metrics {
	return p.metrics
}

// Diagnostics returns the counters accumulated so far.
func (p *Pipeline) Diagnostics() Diagnostics {
	return p.diag
}

// Run analyzes every variant, then scores and ranks them.
func (p *Pipeline) Run(ctx context.Context, engine *scoring.Engine) ([]scoring.ScoredVariant, error) {
	if err := p.Analyze(ctx); err != nil {
		return nil, err
	}
	return p.Score(ctx, engine)
}

// Analyze walks the comparison table chunk by chunk and writes a comparison
// record for every variant not already cached. With Force set the cache is
// cleared once before the first chunk.
func (p *Pipeline) Analyze(ctx context.Context) error {
	if p.cfg.Force && !p.cleared {
		if err := p.cache.Clear(); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		p.cleared = true
	}

	return p.walk(ctx, func(variants []annotate.Variant) error {
		p.diag.Chunks++
		return p.analyzeChunk(ctx, variants)
	})
}

// Score reads the cached record of every variant, recomputing missing or
// unreadable ones, and returns the ranked scores.
func (p *Pipeline) Score(ctx context.Context, engine *scoring.Engine) ([]scoring.ScoredVariant, error) {
	var results []*annotate.VariantAnalysisResult
	err := p.walk(ctx, func(variants []annotate.Variant) error {
		for i := range variants {
			r, err := p.cachedResult(ctx, variants[i])
			if err != nil {
				return err
			}
			results = append(results, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ranked := engine.ScoreAll(results)
	p.metrics.setCategories(scoring.CategoryCounts(ranked))
	p.logger.Info("scored variants",
		zap.Int("variants", len(ranked)),
		zap.Int("recomputed", p.diag.Recomputed),
		zap.String("weights_version", engine.Weights().Version()))
	return ranked, nil
}

// walk pages through the comparison table, handing each chunk of valid variants to fn.
// Malformed rows are counted on the first complete pass only.
func (p *Pipeline) walk(ctx context.Context, fn func([]annotate.Variant) error) error {
	count := !p.walked
	skipped := 0
	var afterID int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := p.src.Variants(ctx, afterID, p.cfg.ChunkSize)
		if err != nil {
			return err
		}
		skipped += page.Skipped
		if len(page.Variants) > 0 {
			if err := fn(page.Variants); err != nil {
				return err
			}
		}
		if page.Done(p.cfg.ChunkSize) {
			if count {
				p.walked = true
				p.diag.SkippedComparisonRows += skipped
				p.metrics.skippedRows.WithLabelValues("comparison").Add(float64(skipped))
			}
			return nil
		}
		afterID = page.LastID
	}
}

func (p *Pipeline) analyzeChunk(ctx context.Context, variants []annotate.Variant) error {
	p.diag.Variants += len(variants)

	var inputs []*annotate.VariantInput
	for i := range variants {
		cached, err := p.cache.Has(&variants[i])
		if err != nil {
			p.logger.Warn("cache lookup failed", zap.String("variant", variants[i].Key()), zap.Error(err))
		}
		if cached {
			p.diag.Cached++
			p.metrics.cacheHits.Inc()
			continue
		}
		p.metrics.cacheMisses.Inc()

		in, err := p.load(ctx, variants[i])
		if err != nil {
			return err
		}
		inputs = append(inputs, in)
	}
	if len(inputs) == 0 {
		return nil
	}

	results := p.analyzer.ParallelAnalyze(ctx, inputs, p.cfg.Workers)
	err := annotate.OrderedCollect(results, func(wr annotate.WorkResult) error {
		if wr.Err != nil {
			return wr.Err
		}
		if err := p.cache.Put(wr.Result); err != nil {
			return err
		}
		p.diag.Analyzed++
		p.metrics.analyzed.Inc()
		return nil
	})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.logger.Info("analyzed chunk",
		zap.Int("chunk", p.diag.Chunks),
		zap.Int("variants", len(variants)),
		zap.Int("computed", len(inputs)))
	return nil
}

func (p *Pipeline) cachedResult(ctx context.Context, v annotate.Variant) (*annotate.VariantAnalysisResult, error) {
	r, lookup := p.cache.Get(&v)
	switch lookup {
	case cache.Hit:
		p.metrics.cacheHits.Inc()
		return r, nil
	case cache.ReadError:
		p.diag.CacheReadErrors++
		p.metrics.cacheReadErrors.Inc()
	default:
		p.metrics.cacheMisses.Inc()
	}

	in, err := p.load(ctx, v)
	if err != nil {
		return nil, err
	}
	r, err = p.analyzer.Analyze(in)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Put(r); err != nil {
		return nil, err
	}
	p.diag.Recomputed++
	p.metrics.analyzed.Inc()
	return r, nil
}

func (p *Pipeline) load(ctx context.Context, v annotate.Variant) (*annotate.VariantInput, error) {
	in, err := p.src.LoadInput(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("load variant %s: %w", v.Key(), err)
	}
	if in.SkippedRows > 0 {
		p.diag.SkippedAnnotationRows += in.SkippedRows
		p.metrics.skippedRows.WithLabelValues("annotation").Add(float64(in.SkippedRows))
	}
	return in, nil
}
