// Package output provides ranked-variant output formatters.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/crossbuild/internal/annotate"
	"github.com/inodb/crossbuild/internal/scoring"
)

// TabWriter writes ranked variants in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
	rank    int
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Rank",
			"Category",
			"Score",
			"Raw_score",
			"Variant",
			"Source_location",
			"Target_location",
			"Mapping_status",
			"Priority_transcript",
			"Priority_status",
			"Source_gene",
			"Target_gene",
			"Source_consequence",
			"Target_consequence",
			"Source_impact",
			"Target_impact",
			"Source_HGVSc",
			"Target_HGVSc",
			"Source_HGVSp",
			"Target_HGVSp",
			"Source_clinical",
			"Target_clinical",
			"Override",
			"Reasons",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes the next ranked variant. Ranks are numbered from 1 in write order.
func (tw *TabWriter) Write(sv *scoring.ScoredVariant) error {
	tw.rank++
	r := sv.Result
	v := &r.Variant
	src, tgt := r.PrioritySource, r.PriorityTarget

	transcript, status := "-", string(r.PriorityStatus)
	if p := r.Priority(); p != nil {
		transcript = p.TranscriptID
	}

	values := []string{
		strconv.Itoa(tw.rank),
		string(sv.Category),
		formatScore(sv.Score),
		formatScore(sv.RawScore),
		annotate.FormatVariantID(v.SourceChrom, v.SourcePos, v.Ref, v.Alt),
		v.SourceChrom + ":" + strconv.FormatInt(v.SourcePos, 10),
		v.TargetChrom + ":" + strconv.FormatInt(v.TargetPos, 10),
		orDash(v.MappingStatus),
		transcript,
		orDash(status),
		orDash(fieldOf(src, func(a *annotate.TranscriptAnnotation) string { return a.GeneSymbol })),
		orDash(fieldOf(tgt, func(a *annotate.TranscriptAnnotation) string { return a.GeneSymbol })),
		orDash(fieldOf(src, (*annotate.TranscriptAnnotation).ConsequenceString)),
		orDash(fieldOf(tgt, (*annotate.TranscriptAnnotation).ConsequenceString)),
		orDash(fieldOf(src, func(a *annotate.TranscriptAnnotation) string { return a.Impact })),
		orDash(fieldOf(tgt, func(a *annotate.TranscriptAnnotation) string { return a.Impact })),
		orDash(fieldOf(src, func(a *annotate.TranscriptAnnotation) string { return a.HGVSc })),
		orDash(fieldOf(tgt, func(a *annotate.TranscriptAnnotation) string { return a.HGVSc })),
		orDash(fieldOf(src, func(a *annotate.TranscriptAnnotation) string { return a.HGVSp })),
		orDash(fieldOf(tgt, func(a *annotate.TranscriptAnnotation) string { return a.HGVSp })),
		r.SourceClinical.Tier.Short(),
		r.TargetClinical.Tier.Short(),
		orDash(string(sv.Override)),
		FormatReasons(sv.Reasons),
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteAll writes the header followed by every ranked variant and flushes.
func (tw *TabWriter) WriteAll(ranked []scoring.ScoredVariant) error {
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for i := range ranked {
		if err := tw.Write(&ranked[i]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// FormatReasons renders reasons as "key:points" pairs with their details,
// e.g. "hgvs_mismatch:12(ENST00000256078 c.35G>A->c.35G>T);allele_swap:2".
func FormatReasons(reasons []scoring.Reason) string {
	if len(reasons) == 0 {
		return "-"
	}
	parts := make([]string, len(reasons))
	for i, r := range reasons {
		s := r.Key + ":" + formatScore(r.Points)
		if r.Detail != "" {
			s += "(" + r.Detail + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, ";")
}

func formatScore(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func fieldOf(a *annotate.TranscriptAnnotation, get func(*annotate.TranscriptAnnotation) string) string {
	if a == nil {
		return ""
	}
	return get(a)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
