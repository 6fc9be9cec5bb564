package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/crossbuild/internal/annotate"
)

// ErrMalformedRow marks a comparison row that cannot be turned into a variant.
var ErrMalformedRow = errors.New("malformed comparison row")

const comparisonQuery = `SELECT id, mapping_status, source_chrom, source_pos, source_alleles, flip, swap,
	target_chrom, target_pos, target_ref, target_alt, pos_match, gt_match
FROM comparison
WHERE id > ? AND target_chrom IS NOT NULL AND target_pos IS NOT NULL
ORDER BY id
LIMIT ?`

// Page is one keyset-paginated slice of the comparison table.
type Page struct {
	Variants []annotate.Variant
	Rows     int   // Rows read, including skipped ones
	LastID   int64 // Id of the last row read; pass as afterID for the next page
	Skipped  int   // Malformed rows dropped
}

// Done reports whether the page was the last one.
func (p *Page) Done(limit int) bool {
	return p.Rows < limit
}

type comparisonRow struct {
	id            int64
	mappingStatus sql.NullString
	sourceChrom   sql.NullString
	sourcePos     sql.NullString
	sourceAlleles sql.NullString
	flip          sql.NullString
	swap          sql.NullString
	targetChrom   sql.NullString
	targetPos     sql.NullString
	targetRef     sql.NullString
	targetAlt     sql.NullString
	posMatch      sql.NullString
	gtMatch       sql.NullString
}

// Variants reads up to limit mapped comparison rows with id greater than afterID.
func (s *Store) Variants(ctx context.Context, afterID int64, limit int) (Page, error) {
	rows, err := s.db.QueryContext(ctx, comparisonQuery, afterID, limit)
	if err != nil {
		return Page{}, fmt.Errorf("query comparison rows: %w", err)
	}
	defer rows.Close()

	page := Page{LastID: afterID}
	for rows.Next() {
		var r comparisonRow
		if err := rows.Scan(&r.id, &r.mappingStatus, &r.sourceChrom, &r.sourcePos, &r.sourceAlleles,
			&r.flip, &r.swap, &r.targetChrom, &r.targetPos, &r.targetRef, &r.targetAlt,
			&r.posMatch, &r.gtMatch); err != nil {
			return Page{}, fmt.Errorf("scan comparison row: %w", err)
		}
		page.Rows++
		page.LastID = r.id

		v, err := r.variant()
		if err != nil {
			page.Skipped++
			s.logger.Debug("skipping comparison row", zap.Int64("id", r.id), zap.Error(err))
			continue
		}
		page.Variants = append(page.Variants, v)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("read comparison rows: %w", err)
	}
	return page, nil
}

func (r *comparisonRow) variant() (annotate.Variant, error) {
	chrom := annotate.NormalizeChrom(r.sourceChrom.String)
	if chrom == "" {
		return annotate.Variant{}, fmt.Errorf("%w: empty source_chrom", ErrMalformedRow)
	}
	pos, err := parsePosition(r.sourcePos.String)
	if err != nil {
		return annotate.Variant{}, fmt.Errorf("%w: source_pos: %v", ErrMalformedRow, err)
	}
	ref, alt, err := ParseAlleles(r.sourceAlleles.String)
	if err != nil {
		return annotate.Variant{}, fmt.Errorf("%w: source_alleles: %v", ErrMalformedRow, err)
	}
	targetPos, err := parsePosition(r.targetPos.String)
	if err != nil {
		return annotate.Variant{}, fmt.Errorf("%w: target_pos: %v", ErrMalformedRow, err)
	}

	v := annotate.Variant{
		ID:            r.id,
		SourceChrom:   chrom,
		SourcePos:     pos,
		TargetChrom:   annotate.NormalizeChrom(r.targetChrom.String),
		TargetPos:     targetPos,
		Ref:           ref,
		Alt:           alt,
		TargetRef:     allele(r.targetRef.String),
		TargetAlt:     allele(r.targetAlt.String),
		MappingStatus: strings.TrimSpace(r.mappingStatus.String),
		PosMatch:      parseFlag(r.posMatch.String, true),
		GTMatch:       parseFlag(r.gtMatch.String, true),
		Flip:          parseFlip(r.flip.String),
		Swap:          parseSwap(r.swap.String),
	}
	if v.TargetChrom == "" {
		return annotate.Variant{}, fmt.Errorf("%w: empty target_chrom", ErrMalformedRow)
	}
	if v.TargetRef == "" {
		v.TargetRef = v.Ref
	}
	if v.TargetAlt == "" {
		v.TargetAlt = v.Alt
	}
	return v, nil
}

// ParseAlleles splits a "REF/ALT" or "REF,ALT" allele pair.
// An empty allele is written as "-".
func ParseAlleles(s string) (ref, alt string, err error) {
	s = strings.TrimSpace(s)
	sep := ","
	if strings.Contains(s, "/") {
		sep = "/"
	}
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("want two alleles, got %q", s)
	}
	ref, alt = allele(parts[0]), allele(parts[1])
	if ref == "" && alt == "" {
		return "", "", fmt.Errorf("both alleles empty in %q", s)
	}
	if ref == "" {
		ref = "-"
	}
	if alt == "" {
		alt = "-"
	}
	if !isAllele(ref) || !isAllele(alt) {
		return "", "", fmt.Errorf("invalid allele in %q", s)
	}
	return ref, alt, nil
}

func allele(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "." || s == "NA" || s == "NAN" {
		return ""
	}
	return s
}

func isAllele(s string) bool {
	if s == "-" {
		return true
	}
	for _, c := range s {
		switch c {
		case 'A', 'C', 'G', 'T', 'N':
		default:
			return false
		}
	}
	return true
}

// parsePosition accepts integer positions, including float renderings such as "12345.0".
func parsePosition(s string) (int64, error) {
	s = strings.TrimSpace(s)
	pos, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("invalid position %q", s)
		}
		pos = int64(f)
	}
	if pos <= 0 {
		return 0, fmt.Errorf("position %d out of range", pos)
	}
	return pos, nil
}

// parseFlag reads a boolean column. Missing values yield def.
func parseFlag(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true", "t", "yes", "y", "match", "matched":
		return true
	case "0", "0.0", "false", "f", "no", "n", "mismatch":
		return false
	}
	return def
}

func parseFlip(s string) bool {
	if strings.EqualFold(strings.TrimSpace(s), "flip") {
		return true
	}
	return parseFlag(s, false)
}

// parseSwap reads the liftover swap status: "1" means ref and alt were
// swapped, "-1" means the swap could not be resolved.
func parseSwap(s string) bool {
	switch strings.TrimSpace(s) {
	case "1", "1.0":
		return true
	}
	return false
}
