package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/crossbuild/internal/scoring"
)

// RankedRun identifies one scoring run written to ranked_variants.
type RankedRun struct {
	ID                 string // Run id (UUID)
	WeightsVersion     string
	WeightsFingerprint string
}

// RankedRow is one variant of a ranked run as stored in DuckDB.
type RankedRow struct {
	Rank               int32
	Category           string
	Score              float64
	RawScore           float64
	Override           string
	Chrom              string
	SourcePos          int64
	TargetPos          int64
	Ref                string
	Alt                string
	SourceGene         string
	TargetGene         string
	PriorityTranscript string
	PriorityStatus     string
	Reasons            string
}

// reasonKeys joins reason keys the way they are stored, e.g. "hgvs_mismatch;sift_change".
func reasonKeys(reasons []scoring.Reason) string {
	keys := make([]string, len(reasons))
	for i, r := range reasons {
		keys[i] = r.Key
	}
	return strings.Join(keys, ";")
}

// WriteRanked appends an already ranked list into ranked_variants using the Appender API.
// Rank numbers start at 1 in list order.
func (s *Store) WriteRanked(ctx context.Context, run RankedRun, ranked []scoring.ScoredVariant) error {
	if len(ranked) == 0 {
		return nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "ranked_variants")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	now := time.Now().UTC()
	for i, sv := range ranked {
		r := sv.Result
		v := &r.Variant
		var srcGene, tgtGene, transcript string
		if r.PrioritySource != nil {
			srcGene = r.PrioritySource.GeneSymbol
		}
		if r.PriorityTarget != nil {
			tgtGene = r.PriorityTarget.GeneSymbol
		}
		if p := r.Priority(); p != nil {
			transcript = p.TranscriptID
		}
		if err := appender.AppendRow(
			run.ID, run.WeightsVersion, run.WeightsFingerprint,
			int32(i+1), string(sv.Category), sv.Score, sv.RawScore, string(sv.Override),
			v.SourceChrom, v.SourcePos, v.TargetPos, v.Ref, v.Alt,
			srcGene, tgtGene, transcript, string(r.PriorityStatus),
			reasonKeys(sv.Reasons), now,
		); err != nil {
			return fmt.Errorf("append ranked variant: %w", err)
		}
	}

	return appender.Flush()
}

// RankedVariants returns the rows of a run in rank order.
func (s *Store) RankedVariants(runID string) ([]RankedRow, error) {
	rows, err := s.db.Query(`SELECT
		variant_rank, category, score, raw_score, override,
		chrom, source_pos, target_pos, ref, alt,
		source_gene, target_gene, priority_transcript, priority_status, reasons
		FROM ranked_variants
		WHERE run_id = ?
		ORDER BY variant_rank`, runID)
	if err != nil {
		return nil, fmt.Errorf("query ranked variants: %w", err)
	}
	defer rows.Close()

	var out []RankedRow
	for rows.Next() {
		var r RankedRow
		if err := rows.Scan(
			&r.Rank, &r.Category, &r.Score, &r.RawScore, &r.Override,
			&r.Chrom, &r.SourcePos, &r.TargetPos, &r.Ref, &r.Alt,
			&r.SourceGene, &r.TargetGene, &r.PriorityTranscript, &r.PriorityStatus, &r.Reasons,
		); err != nil {
			return nil, fmt.Errorf("scan ranked variant: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ranked variants: %w", err)
	}
	return out, nil
}

// CategoryCounts returns the number of variants per category in a run.
func (s *Store) CategoryCounts(runID string) (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT category, count(*)
		FROM ranked_variants
		WHERE run_id = ?
		GROUP BY category`, runID)
	if err != nil {
		return nil, fmt.Errorf("query category counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var cat string
		var n int64
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts[cat] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category counts: %w", err)
	}
	return counts, nil
}
