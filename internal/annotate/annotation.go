// Package annotate reconciles per-build transcript annotations of a lifted-over variant.
package annotate

import (
	"sort"
	"strings"
)

// Impact levels for variant consequences.
const (
	ImpactHigh     = "HIGH"
	ImpactModerate = "MODERATE"
	ImpactLow      = "LOW"
	ImpactModifier = "MODIFIER"
)

// Consequence types (Sequence Ontology terms).
const (
	// HIGH impact
	ConsequenceTranscriptAblation = "transcript_ablation"
	ConsequenceSpliceAcceptor     = "splice_acceptor_variant"
	ConsequenceSpliceDonor        = "splice_donor_variant"
	ConsequenceStopGained         = "stop_gained"
	ConsequenceFrameshiftVariant  = "frameshift_variant"
	ConsequenceStopLost           = "stop_lost"
	ConsequenceStartLost          = "start_lost"

	// MODERATE impact
	ConsequenceMissenseVariant  = "missense_variant"
	ConsequenceInframeInsertion = "inframe_insertion"
	ConsequenceInframeDeletion  = "inframe_deletion"
	ConsequenceProteinAltering  = "protein_altering_variant"

	// LOW impact
	ConsequenceSynonymousVariant = "synonymous_variant"
	ConsequenceSpliceRegion      = "splice_region_variant"
	ConsequenceStopRetained      = "stop_retained_variant"
	ConsequenceStartRetained     = "start_retained_variant"

	// MODIFIER impact
	ConsequenceIntronVariant     = "intron_variant"
	Consequence5PrimeUTR         = "5_prime_UTR_variant"
	Consequence3PrimeUTR         = "3_prime_UTR_variant"
	ConsequenceUpstreamGene      = "upstream_gene_variant"
	ConsequenceDownstreamGene    = "downstream_gene_variant"
	ConsequenceIntergenicVariant = "intergenic_variant"
	ConsequenceNonCodingExon     = "non_coding_transcript_exon_variant"
)

// MANEStatus is the MANE designation of a transcript.
type MANEStatus string

const (
	MANENone         MANEStatus = ""
	MANESelect       MANEStatus = "MANE_Select"
	MANEPlusClinical MANEStatus = "MANE_Plus_Clinical"
)

// Build identifies one of the two reference builds being compared.
type Build string

const (
	BuildSource Build = "source"
	BuildTarget Build = "target"
)

// TranscriptAnnotation is one predictor row for a (variant, build, transcript).
type TranscriptAnnotation struct {
	TranscriptID string     // Normalized transcript id (version stripped)
	Accession    string     // Raw accession as emitted by the predictor, e.g. "ENST00000311936.8"
	GeneSymbol   string     // Gene symbol
	Consequences []string   // Sorted, deduplicated SO terms
	Impact       string     // HIGH, MODERATE, LOW, MODIFIER, or "" when absent
	MANE         MANEStatus // MANE designation
	IsCanonical  bool       // Canonical transcript flag
	HGVSc        string     // HGVS coding DNA notation
	HGVSp        string     // HGVS protein notation
	SIFT         string     // Raw SIFT call, e.g. "deleterious(0.01)"
	PolyPhen     string     // Raw PolyPhen call, e.g. "probably_damaging(0.998)"
}

// ConsequenceString returns the consequence terms joined the way the predictor writes them.
func (t *TranscriptAnnotation) ConsequenceString() string {
	return strings.Join(t.Consequences, ",")
}

// SameConsequences reports whether two annotations carry identical consequence term sets.
func (t *TranscriptAnnotation) SameConsequences(o *TranscriptAnnotation) bool {
	if len(t.Consequences) != len(o.Consequences) {
		return false
	}
	for i := range t.Consequences {
		if t.Consequences[i] != o.Consequences[i] {
			return false
		}
	}
	return true
}

// ParseConsequences splits a comma- or ampersand-separated consequence field into
// a sorted, deduplicated term set. Empty and placeholder values yield nil.
func ParseConsequences(field string) []string {
	field = strings.TrimSpace(field)
	if IsPlaceholder(field) {
		return nil
	}
	seen := make(map[string]bool)
	var terms []string
	for _, term := range strings.FieldsFunc(field, func(r rune) bool { return r == ',' || r == '&' }) {
		term = strings.TrimSpace(term)
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// ParseImpact validates an impact field. Empty and placeholder values are
// reported as ("", true); unrecognized values as ("", false).
func ParseImpact(field string) (string, bool) {
	field = strings.ToUpper(strings.TrimSpace(field))
	if IsPlaceholder(field) {
		return "", true
	}
	switch field {
	case ImpactHigh, ImpactModerate, ImpactLow, ImpactModifier:
		return field, true
	}
	return "", false
}

// GetImpact returns the impact level for a given consequence type.
// For comma-separated consequences, returns the highest impact among all terms.
func GetImpact(consequence string) string {
	best := ImpactModifier
	for rest := consequence; rest != ""; {
		term := rest
		if i := strings.IndexByte(rest, ','); i >= 0 {
			term = rest[:i]
			rest = rest[i+1:]
		} else {
			rest = ""
		}
		var impact string
		switch term {
		case ConsequenceTranscriptAblation, ConsequenceSpliceAcceptor, ConsequenceSpliceDonor,
			ConsequenceStopGained, ConsequenceFrameshiftVariant,
			ConsequenceStopLost, ConsequenceStartLost,
			"transcript_amplification", "feature_elongation", "feature_truncation":
			impact = ImpactHigh
		case ConsequenceMissenseVariant, ConsequenceInframeInsertion,
			ConsequenceInframeDeletion, ConsequenceProteinAltering:
			impact = ImpactModerate
		case ConsequenceSynonymousVariant, ConsequenceSpliceRegion,
			ConsequenceStopRetained, ConsequenceStartRetained,
			"splice_donor_5th_base_variant", "splice_donor_region_variant",
			"splice_polypyrimidine_tract_variant", "incomplete_terminal_codon_variant":
			impact = ImpactLow
		default:
			impact = ImpactModifier
		}
		if ImpactRank(impact) > ImpactRank(best) {
			best = impact
		}
	}
	return best
}

// ImpactRank returns numeric rank for impact comparison (higher = more severe).
// Absent or unknown impacts rank 0, below MODIFIER.
func ImpactRank(impact string) int {
	switch impact {
	case ImpactHigh:
		return 4
	case ImpactModerate:
		return 3
	case ImpactLow:
		return 2
	case ImpactModifier:
		return 1
	default:
		return 0
	}
}

// IsLowImpact reports whether impact is LOW or MODIFIER.
func IsLowImpact(impact string) bool {
	return impact == ImpactLow || impact == ImpactModifier
}

// IsPlaceholder reports whether a field value stands for "no data".
func IsPlaceholder(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "-", ".", "na", "nan", "none", "null":
		return true
	}
	return false
}

// ResolveImpact returns the impact of a row: the reported impact when present,
// otherwise the highest impact among its consequence terms. ok is false when
// the reported impact is not a recognized level.
func ResolveImpact(field string, consequences []string) (impact string, ok bool) {
	impact, ok = ParseImpact(field)
	if !ok {
		return "", false
	}
	if impact == "" && len(consequences) > 0 {
		impact = GetImpact(strings.Join(consequences, ","))
	}
	return impact, true
}
