package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/crossbuild/internal/duckdb"
	"github.com/inodb/crossbuild/internal/output"
	"github.com/inodb/crossbuild/internal/pipeline"
	"github.com/inodb/crossbuild/internal/scoring"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Analyze every variant, then score and rank them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScoring(cmd, true)
		},
	}
	addInputFlags(cmd)
	cmd.Flags().Bool("force", false, "Clear the cache and recompute every comparison record")
	addScoreFlags(cmd)
	return cmd
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute and cache comparison records without scoring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd)
		},
	}
	addInputFlags(cmd)
	cmd.Flags().Bool("force", false, "Clear the cache and recompute every comparison record")
	cmd.Flags().String("metrics", "", "Write run metrics in Prometheus text format to this file")
	return cmd
}

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score and rank cached comparison records",
		Long: `Score and rank the cached comparison record of every variant. Records
missing from the cache or unreadable are recomputed first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScoring(cmd, false)
		},
	}
	addInputFlags(cmd)
	addScoreFlags(cmd)
	return cmd
}

func newCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the comparison record cache",
	}
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached comparison record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := loadOptions()
			logger, err := newLogger(opts.Verbose)
			if err != nil {
				return err
			}
			sess := newSession(opts, logger)
			defer sess.Close()

			if err := sess.openCache(opts.DataVersion); err != nil {
				return err
			}
			return sess.cache.Clear()
		},
	}
	addCacheFlags(clearCmd)
	cmd.AddCommand(clearCmd)
	return cmd
}

func newWeightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weights [file]",
		Short: "Validate a weight table and print its contents",
		Long: `Validate a weight table and print its version, fingerprint and per-key
weights and levels. Without a file the built-in table is shown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			}
			engine, err := loadEngine(path)
			if err != nil {
				return err
			}
			printWeights(cmd.OutOrStdout(), engine.Weights())
			return nil
		},
	}
}

func runAnalyze(cmd *cobra.Command) error {
	opts := loadOptions()
	logger, err := newLogger(opts.Verbose)
	if err != nil {
		return err
	}
	sess := newSession(opts, logger)
	defer sess.Close()

	if err := sess.openPipeline(); err != nil {
		return err
	}
	if err := sess.pipeline.Analyze(cmd.Context()); err != nil {
		return err
	}
	logDiagnostics(logger, sess.pipeline.Diagnostics())
	return writeMetrics(sess, opts.OutputMetrics)
}

func runScoring(cmd *cobra.Command, analyze bool) error {
	opts := loadOptions()
	logger, err := newLogger(opts.Verbose)
	if err != nil {
		return err
	}

	engine, err := loadEngine(opts.Weights)
	if err != nil {
		return err
	}
	w := engine.Weights()
	logger.Info("loaded weight table",
		zap.String("version", w.Version()),
		zap.String("fingerprint", w.Fingerprint()))

	sess := newSession(opts, logger)
	defer sess.Close()
	if err := sess.openPipeline(); err != nil {
		return err
	}

	ctx := cmd.Context()
	var ranked []scoring.ScoredVariant
	if analyze {
		ranked, err = sess.pipeline.Run(ctx, engine)
	} else {
		ranked, err = sess.pipeline.Score(ctx, engine)
	}
	if err != nil {
		return err
	}
	logDiagnostics(logger, sess.pipeline.Diagnostics())

	if err := writeTSV(cmd, opts.OutputTSV, ranked); err != nil {
		return err
	}
	output.WriteSummary(cmd.ErrOrStderr(), ranked)

	if opts.OutputDuckDB != "" {
		if err := writeRanked(ctx, sess, engine, ranked); err != nil {
			return err
		}
	}
	return writeMetrics(sess, opts.OutputMetrics)
}

func writeTSV(cmd *cobra.Command, path string, ranked []scoring.ScoredVariant) error {
	var out io.Writer = cmd.OutOrStdout()
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	if err := output.NewTabWriter(out).WriteAll(ranked); err != nil {
		return fmt.Errorf("writing ranked output: %w", err)
	}
	return nil
}

func writeRanked(ctx context.Context, sess *session, engine *scoring.Engine, ranked []scoring.ScoredVariant) error {
	db, err := sess.openDuckDB(sess.opts.OutputDuckDB)
	if err != nil {
		return err
	}
	run := duckdb.RankedRun{
		ID:                 uuid.NewString(),
		WeightsVersion:     engine.Weights().Version(),
		WeightsFingerprint: engine.Weights().Fingerprint(),
	}
	if err := db.WriteRanked(ctx, run, ranked); err != nil {
		return fmt.Errorf("writing ranked run: %w", err)
	}
	sess.logger.Info("wrote ranked run",
		zap.String("run_id", run.ID),
		zap.String("path", sess.opts.OutputDuckDB),
		zap.Int("variants", len(ranked)))
	return nil
}

func writeMetrics(sess *session, path string) error {
	if path == "" {
		return nil
	}
	if err := sess.pipeline.Metrics().WriteTextfile(path); err != nil {
		return fmt.Errorf("writing metrics: %w", err)
	}
	return nil
}

func logDiagnostics(logger *zap.Logger, d pipeline.Diagnostics) {
	logger.Info("run diagnostics",
		zap.Int("chunks", d.Chunks),
		zap.Int("variants", d.Variants),
		zap.Int("analyzed", d.Analyzed),
		zap.Int("cached", d.Cached),
		zap.Int("recomputed", d.Recomputed),
		zap.Int("cache_read_errors", d.CacheReadErrors),
		zap.Int("skipped_comparison_rows", d.SkippedComparisonRows),
		zap.Int("skipped_annotation_rows", d.SkippedAnnotationRows))
}

func printWeights(w io.Writer, t *scoring.WeightTable) {
	o := t.Overrides()
	fmt.Fprintf(w, "version:     %s\n", t.Version())
	fmt.Fprintf(w, "fingerprint: %s\n", t.Fingerprint())
	fmt.Fprintf(w, "boost:       %g\n", o.Boost)
	fmt.Fprintf(w, "suppression: %g\n\n", o.Suppression)
	for _, key := range scoring.WeightKeys() {
		fmt.Fprintf(w, "  %-40s%8g  %s\n", key, t.Weight(key), t.Level(key))
	}
}
