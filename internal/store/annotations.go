package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/crossbuild/internal/annotate"
)

const annotationColumns = `feature_type, feature, symbol, consequence, impact, mane_select,
	mane_plus_clinical, canonical, hgvsc, hgvsp, sift, polyphen, clin_sig`

type annotationRow struct {
	featureType      sql.NullString
	feature          sql.NullString
	symbol           sql.NullString
	consequence      sql.NullString
	impact           sql.NullString
	maneSelect       sql.NullString
	manePlusClinical sql.NullString
	canonical        sql.NullString
	hgvsc            sql.NullString
	hgvsp            sql.NullString
	sift             sql.NullString
	polyphen         sql.NullString
	clinSig          sql.NullString
}

// buildRows is everything loaded from one annotation table for one variant.
type buildRows struct {
	transcripts []annotate.TranscriptAnnotation
	clinical    annotate.ClinicalAnnotation
	skipped     int
}

// LookupKey returns the position and allele the predictor uses for a variant:
// indels drop the shared leading base and move one position to the right.
// e.g., (100, "A", "AG") -> (101, "G"); (100, "AGC", "A") -> (101, "-")
func LookupKey(pos int64, ref, alt string) (int64, string) {
	switch {
	case ref == "-" || alt == "-":
		return pos, alt
	case len(ref) < len(alt) && strings.HasPrefix(alt, ref):
		return pos + int64(len(ref)), alt[len(ref):]
	case len(ref) > len(alt) && strings.HasPrefix(ref, alt):
		return pos + int64(len(alt)), "-"
	}
	return pos, alt
}

// LoadInput reads the annotation rows of both builds for v. Rows for other
// feature types are ignored; malformed transcript rows are skipped and counted.
func (s *Store) LoadInput(ctx context.Context, v annotate.Variant) (*annotate.VariantInput, error) {
	srcPos, srcAllele := LookupKey(v.SourcePos, v.Ref, v.Alt)
	src, err := s.loadBuild(ctx, s.opts.SourceTable, v.SourceChrom, srcPos, srcAllele)
	if err != nil {
		return nil, err
	}
	tgtPos, tgtAllele := LookupKey(v.TargetPos, v.TargetRef, v.TargetAlt)
	tgt, err := s.loadBuild(ctx, s.opts.TargetTable, v.TargetChrom, tgtPos, tgtAllele)
	if err != nil {
		return nil, err
	}

	in := &annotate.VariantInput{
		Variant:        v,
		Source:         src.transcripts,
		Target:         tgt.transcripts,
		SourceClinical: src.clinical,
		TargetClinical: tgt.clinical,
		SkippedRows:    src.skipped + tgt.skipped,
	}
	if in.SkippedRows > 0 {
		s.logger.Debug("skipped malformed annotation rows",
			zap.String("variant", v.Key()),
			zap.Int("source", src.skipped),
			zap.Int("target", tgt.skipped))
	}
	return in, nil
}

func (s *Store) loadBuild(ctx context.Context, table, chrom string, pos int64, allele string) (buildRows, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE chrom IN (?, ?) AND pos = ? AND allele = ? ORDER BY rowid`,
		annotationColumns, table)
	rows, err := s.db.QueryContext(ctx, query, chrom, "chr"+chrom, pos, allele)
	if err != nil {
		return buildRows{}, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	out := buildRows{clinical: annotate.ParseClinical("")}
	for rows.Next() {
		var r annotationRow
		if err := rows.Scan(&r.featureType, &r.feature, &r.symbol, &r.consequence, &r.impact,
			&r.maneSelect, &r.manePlusClinical, &r.canonical, &r.hgvsc, &r.hgvsp,
			&r.sift, &r.polyphen, &r.clinSig); err != nil {
			return buildRows{}, fmt.Errorf("scan %s row: %w", table, err)
		}

		if out.clinical.Raw == "" && !annotate.IsPlaceholder(r.clinSig.String) {
			out.clinical = annotate.ParseClinical(r.clinSig.String)
		}
		if !strings.EqualFold(strings.TrimSpace(r.featureType.String), "Transcript") {
			continue
		}
		t, ok := r.transcript()
		if !ok {
			out.skipped++
			continue
		}
		out.transcripts = append(out.transcripts, t)
	}
	if err := rows.Err(); err != nil {
		return buildRows{}, fmt.Errorf("read %s rows: %w", table, err)
	}
	return out, nil
}

func (r *annotationRow) transcript() (annotate.TranscriptAnnotation, bool) {
	id, ok := annotate.NormalizeTranscriptID(r.feature.String)
	if !ok {
		return annotate.TranscriptAnnotation{}, false
	}
	consequences := annotate.ParseConsequences(r.consequence.String)
	impact, ok := annotate.ResolveImpact(r.impact.String, consequences)
	if !ok {
		return annotate.TranscriptAnnotation{}, false
	}

	t := annotate.TranscriptAnnotation{
		TranscriptID: id,
		Accession:    strings.TrimSpace(r.feature.String),
		GeneSymbol:   field(r.symbol),
		Consequences: consequences,
		Impact:       impact,
		IsCanonical:  strings.EqualFold(strings.TrimSpace(r.canonical.String), "YES"),
		HGVSc:        field(r.hgvsc),
		HGVSp:        field(r.hgvsp),
		SIFT:         field(r.sift),
		PolyPhen:     field(r.polyphen),
	}
	switch {
	case field(r.maneSelect) != "":
		t.MANE = annotate.MANESelect
	case field(r.manePlusClinical) != "":
		t.MANE = annotate.MANEPlusClinical
	}
	return t, true
}

func field(ns sql.NullString) string {
	if !ns.Valid || annotate.IsPlaceholder(ns.String) {
		return ""
	}
	return strings.TrimSpace(ns.String)
}
