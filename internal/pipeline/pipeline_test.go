package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/inodb/crossbuild/internal/annotate"
	"github.com/inodb/crossbuild/internal/cache"
	"github.com/inodb/crossbuild/internal/scoring"
	"github.com/inodb/crossbuild/internal/store"
	"github.com/inodb/crossbuild/internal/store/storetest"
)

// newFixture builds an input with a concordant KRAS variant, a TP53 variant
// whose HGVSc differs between builds and one malformed comparison row.
func newFixture(t *testing.T) *store.Store {
	t.Helper()
	fx := storetest.New(t)

	fx.AddComparison(
		storetest.SNV(1, "12", 25398284, "C", "T", 25245350),
		storetest.Comparison{ID: 2, SourceChrom: "1", SourcePos: 5, SourceAlleles: "C", TargetChrom: "1", TargetPos: 6},
		storetest.SNV(3, "17", 7577120, "C", "T", 7673802),
	)

	kras := func(pos int64, accession string) storetest.Annotation {
		a := storetest.Transcript("12", pos, "T", accession, "KRAS", "missense_variant", "MODERATE")
		a.MANESelect = "NM_004985.5"
		a.HGVSc = accession + ":c.35G>A"
		a.SIFT = "deleterious(0)"
		a.PolyPhen = "probably_damaging(0.99)"
		a.ClinSig = "pathogenic"
		return a
	}
	tp53 := func(pos int64, accession, hgvsc string) storetest.Annotation {
		a := storetest.Transcript("17", pos, "T", accession, "TP53", "missense_variant", "MODERATE")
		a.MANESelect = "NM_000546.6"
		a.HGVSc = accession + ":" + hgvsc
		return a
	}
	fx.AddSource(kras(25398284, "ENST00000256078.4"), tp53(7577120, "ENST00000269305.4", "c.818G>A"))
	fx.AddTarget(kras(25245350, "ENST00000256078.10"), tp53(7673802, "ENST00000269305.9", "c.817C>T"))

	s, err := store.New(fx.DB, store.Options{})
	require.NoError(t, err)
	return s
}

func newCache(t *testing.T, dir string) *cache.Manager {
	t.Helper()
	b, err := cache.NewFileBackend(dir)
	require.NoError(t, err)
	m, err := cache.NewManager(b, "test-data", 0)
	require.NoError(t, err)
	m.SetLogger(zaptest.NewLogger(t))
	return m
}

func newEngine(t *testing.T) *scoring.Engine {
	t.Helper()
	w, err := scoring.DefaultWeights()
	require.NoError(t, err)
	return scoring.NewEngine(w)
}

func newPipeline(t *testing.T, src Source, cm *cache.Manager, cfg Config) *Pipeline {
	t.Helper()
	p := New(src, cm, cfg)
	p.SetLogger(zaptest.NewLogger(t))
	return p
}

func TestRun(t *testing.T) {
	src := newFixture(t)
	p := newPipeline(t, src, newCache(t, t.TempDir()), Config{Workers: 2})

	ranked, err := p.Run(context.Background(), newEngine(t))
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	assert.Equal(t, "TP53", ranked[0].Result.PrioritySource.GeneSymbol)
	assert.Equal(t, scoring.CategoryCritical, ranked[0].Category)
	assert.Equal(t, "KRAS", ranked[1].Result.PrioritySource.GeneSymbol)
	assert.Equal(t, scoring.CategoryConcordant, ranked[1].Category)

	d := p.Diagnostics()
	assert.Equal(t, 1, d.Chunks)
	assert.Equal(t, 2, d.Variants)
	assert.Equal(t, 2, d.Analyzed)
	assert.Equal(t, 0, d.Cached)
	assert.Equal(t, 0, d.Recomputed)
	assert.Equal(t, 1, d.SkippedComparisonRows)

	m := p.Metrics()
	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyzed))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheMisses))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheHits), "scoring pass reads both records")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.skippedRows.WithLabelValues("comparison")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.byCategory.WithLabelValues("CRITICAL")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.byCategory.WithLabelValues("CONCORDANT")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.byCategory.WithLabelValues("HIGH")))
}

func TestSkippedComparisonRows_CountedOncePerRun(t *testing.T) {
	tests := []struct {
		name string
		run  func(ctx context.Context, p *Pipeline, e *scoring.Engine) error
	}{
		{"run", func(ctx context.Context, p *Pipeline, e *scoring.Engine) error {
			_, err := p.Run(ctx, e)
			return err
		}},
		{"analyze then score", func(ctx context.Context, p *Pipeline, e *scoring.Engine) error {
			if err := p.Analyze(ctx); err != nil {
				return err
			}
			_, err := p.Score(ctx, e)
			return err
		}},
		{"score only", func(ctx context.Context, p *Pipeline, e *scoring.Engine) error {
			_, err := p.Score(ctx, e)
			return err
		}},
		{"analyze twice", func(ctx context.Context, p *Pipeline, e *scoring.Engine) error {
			if err := p.Analyze(ctx); err != nil {
				return err
			}
			return p.Analyze(ctx)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newPipeline(t, newFixture(t), newCache(t, t.TempDir()), Config{ChunkSize: 1})
			require.NoError(t, tt.run(context.Background(), p, newEngine(t)))

			assert.Equal(t, 1, p.Diagnostics().SkippedComparisonRows)
			assert.Equal(t, 1.0, testutil.ToFloat64(p.Metrics().skippedRows.WithLabelValues("comparison")))
		})
	}
}

func TestAnalyze_ChunksAreSequential(t *testing.T) {
	src := newFixture(t)
	p := newPipeline(t, src, newCache(t, t.TempDir()), Config{ChunkSize: 1})

	require.NoError(t, p.Analyze(context.Background()))
	d := p.Diagnostics()
	assert.Equal(t, 2, d.Chunks, "a page with only malformed rows is not a chunk")
	assert.Equal(t, 2, d.Analyzed)
}

func TestAnalyze_ResumeSkipsCached(t *testing.T) {
	src := newFixture(t)
	dir := t.TempDir()

	first := newPipeline(t, src, newCache(t, dir), Config{})
	require.NoError(t, first.Analyze(context.Background()))
	assert.Equal(t, 2, first.Diagnostics().Analyzed)

	second := newPipeline(t, src, newCache(t, dir), Config{})
	require.NoError(t, second.Analyze(context.Background()))
	assert.Equal(t, 0, second.Diagnostics().Analyzed)
	assert.Equal(t, 2, second.Diagnostics().Cached)

	ranked, err := second.Score(context.Background(), newEngine(t))
	require.NoError(t, err)
	assert.Len(t, ranked, 2)
	assert.Equal(t, 0, second.Diagnostics().Recomputed)
}

func TestAnalyze_ForceRecomputes(t *testing.T) {
	src := newFixture(t)
	dir := t.TempDir()

	require.NoError(t, newPipeline(t, src, newCache(t, dir), Config{}).Analyze(context.Background()))

	p := newPipeline(t, src, newCache(t, dir), Config{Force: true})
	require.NoError(t, p.Analyze(context.Background()))
	assert.Equal(t, 2, p.Diagnostics().Analyzed)
	assert.Equal(t, 0, p.Diagnostics().Cached)

	// The cache is cleared once per pipeline, so a second pass reuses it.
	require.NoError(t, p.Analyze(context.Background()))
	assert.Equal(t, 2, p.Diagnostics().Analyzed)
	assert.Equal(t, 2, p.Diagnostics().Cached)
}

func TestScore_RecomputesUnreadableEntries(t *testing.T) {
	src := newFixture(t)
	dir := t.TempDir()
	require.NoError(t, newPipeline(t, src, newCache(t, dir), Config{}).Analyze(context.Background()))

	page, err := src.Variants(context.Background(), 0, 10)
	require.NoError(t, err)
	require.NotEmpty(t, page.Variants)

	cm := newCache(t, dir)
	b, err := cache.NewFileBackend(dir)
	require.NoError(t, err)
	require.NoError(t, b.Write(cm.Key(&page.Variants[0]), []byte("not a gob stream")))

	p := newPipeline(t, src, cm, Config{})
	ranked, err := p.Score(context.Background(), newEngine(t))
	require.NoError(t, err)
	assert.Len(t, ranked, 2)
	assert.Equal(t, 1, p.Diagnostics().CacheReadErrors)
	assert.Equal(t, 1, p.Diagnostics().Recomputed)
	assert.Equal(t, 1.0, testutil.ToFloat64(p.Metrics().cacheReadErrors))

	// The recomputed record replaced the broken one.
	_, lookup := newCache(t, dir).Get(&page.Variants[0])
	assert.Equal(t, cache.Hit, lookup)
}

func TestScore_WithoutAnalyze(t *testing.T) {
	src := newFixture(t)
	p := newPipeline(t, src, newCache(t, t.TempDir()), Config{})

	ranked, err := p.Score(context.Background(), newEngine(t))
	require.NoError(t, err)
	assert.Len(t, ranked, 2)
	assert.Equal(t, 2, p.Diagnostics().Recomputed)
}

func TestRun_Cancelled(t *testing.T) {
	src := newFixture(t)
	p := newPipeline(t, src, newCache(t, t.TempDir()), Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx, newEngine(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_Deterministic(t *testing.T) {
	src := newFixture(t)
	engine := newEngine(t)

	var keys [][]string
	for _, workers := range []int{1, 4} {
		p := newPipeline(t, src, newCache(t, t.TempDir()), Config{Workers: workers})
		ranked, err := p.Run(context.Background(), engine)
		require.NoError(t, err)
		var k []string
		for _, sv := range ranked {
			k = append(k, sv.Result.Variant.Key())
		}
		keys = append(keys, k)
	}
	assert.Equal(t, keys[0], keys[1])
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := NewMetrics()
	m.analyzed.Add(3)
	m.setCategories(map[scoring.Category]int{scoring.CategoryHigh: 2})

	path := filepath.Join(t.TempDir(), "crossbuild.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "crossbuild_variants_analyzed_total 3")
	assert.Contains(t, string(data), `crossbuild_variants_by_category{category="HIGH"} 2`)
}

type failingSource struct{ Source }

func (failingSource) LoadInput(context.Context, annotate.Variant) (*annotate.VariantInput, error) {
	return nil, os.ErrPermission
}

func TestAnalyze_LoadErrorIsFatal(t *testing.T) {
	src := failingSource{Source: newFixture(t)}
	p := newPipeline(t, src, newCache(t, t.TempDir()), Config{})

	err := p.Analyze(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Contains(t, err.Error(), "load variant 12_25398284_C/T>25245350")
}
