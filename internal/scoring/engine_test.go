package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/crossbuild/internal/annotate"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	w, err := DefaultWeights()
	require.NoError(t, err)
	return NewEngine(w)
}

func variant() annotate.Variant {
	return annotate.Variant{
		ID: 1, SourceChrom: "12", SourcePos: 25398284, TargetChrom: "12", TargetPos: 25245350,
		Ref: "C", Alt: "T", TargetRef: "C", TargetAlt: "T",
		MappingStatus: "UNIQUE", PosMatch: true, GTMatch: true,
	}
}

func kras(impact, hgvsc string) annotate.TranscriptAnnotation {
	return annotate.TranscriptAnnotation{
		TranscriptID: "ENST00000256078",
		Accession:    "ENST00000256078.4",
		GeneSymbol:   "KRAS",
		Consequences: annotate.ParseConsequences("missense_variant"),
		Impact:       impact,
		MANE:         annotate.MANESelect,
		IsCanonical:  true,
		HGVSc:        hgvsc,
		HGVSp:        "ENSP00000256078.4:p.Gly12Asp",
		SIFT:         "deleterious(0)",
		PolyPhen:     "probably_damaging(0.99)",
	}
}

func analyze(in annotate.VariantInput) *annotate.VariantAnalysisResult {
	return annotate.Extract(&in)
}

func ruleKeys(reasons []Reason) []string {
	var keys []string
	for _, r := range reasons {
		keys = append(keys, r.Key)
	}
	return keys
}

func TestScore_CriticalHGVSMismatch(t *testing.T) {
	e := newTestEngine(t)
	r := analyze(annotate.VariantInput{
		Variant: variant(),
		Source:  []annotate.TranscriptAnnotation{kras(annotate.ImpactModerate, "ENST00000256078.4:c.1234G>A")},
		Target:  []annotate.TranscriptAnnotation{kras(annotate.ImpactModerate, "ENST00000256078.5:c.1235G>A")},
	})

	sv := e.Score(r)

	require.NotEmpty(t, sv.Reasons)
	assert.Equal(t, RuleHGVSMismatch, sv.Reasons[0].Rule)
	assert.Contains(t, sv.Reasons[0].Detail, "c.1234G>A->c.1235G>A")
	assert.Equal(t, CategoryCritical, sv.Category)
	assert.Greater(t, sv.Score, 0.0)
}

func TestScore_Concordant(t *testing.T) {
	e := newTestEngine(t)
	clin := annotate.ParseClinical("pathogenic")
	r := analyze(annotate.VariantInput{
		Variant:        variant(),
		Source:         []annotate.TranscriptAnnotation{kras(annotate.ImpactModerate, "ENST00000256078.4:c.35G>A")},
		Target:         []annotate.TranscriptAnnotation{kras(annotate.ImpactModerate, "ENST00000256078.5:c.35G>A")},
		SourceClinical: clin,
		TargetClinical: clin,
	})

	sv := e.Score(r)

	assert.Empty(t, sv.Reasons)
	assert.Equal(t, 0.0, sv.Score)
	assert.Equal(t, CategoryConcordant, sv.Category)
	assert.Equal(t, OverrideNone, sv.Override)
}

func TestScore_SuppressedLow(t *testing.T) {
	e := newTestEngine(t)
	primary := annotate.TranscriptAnnotation{
		TranscriptID: "ENST00000380152", GeneSymbol: "BRCA2", MANE: annotate.MANESelect,
		Consequences: []string{"intron_variant"}, Impact: annotate.ImpactModifier,
	}
	extra := annotate.TranscriptAnnotation{
		TranscriptID: "ENST00000544455", GeneSymbol: "BRCA2",
		Consequences: []string{"intron_variant"}, Impact: annotate.ImpactModifier,
	}
	benign := annotate.ParseClinical("benign")
	r := analyze(annotate.VariantInput{
		Variant:        variant(),
		Source:         []annotate.TranscriptAnnotation{primary, extra},
		Target:         []annotate.TranscriptAnnotation{primary},
		SourceClinical: benign,
		TargetClinical: benign,
	})

	sv := e.Score(r)

	assert.Equal(t, []string{"unmatched_consequence"}, ruleKeys(sv.Reasons))
	assert.Greater(t, sv.RawScore, 0.0)
	assert.Equal(t, OverrideSuppression, sv.Override)
	assert.Less(t, sv.Score, sv.RawScore)
	assert.InDelta(t, 0.4, sv.Score, 1e-9)
	assert.Equal(t, CategoryLow, sv.Category)
}

func TestScore_BoostOnPathogenic(t *testing.T) {
	e := newTestEngine(t)
	src := kras(annotate.ImpactModerate, "c.35G>A")
	tgt := kras(annotate.ImpactModerate, "c.35G>A")
	tgt.SIFT = "-"
	r := analyze(annotate.VariantInput{
		Variant:        variant(),
		Source:         []annotate.TranscriptAnnotation{src},
		Target:         []annotate.TranscriptAnnotation{tgt},
		SourceClinical: annotate.ParseClinical("likely_pathogenic"),
		TargetClinical: annotate.ParseClinical("likely_pathogenic"),
	})

	sv := e.Score(r)

	assert.Equal(t, []string{"missing_prediction"}, ruleKeys(sv.Reasons))
	assert.Equal(t, OverrideBoost, sv.Override)
	assert.InDelta(t, 2.0, sv.Score, 1e-9)
	assert.Equal(t, CategoryLow, sv.Category)
}

// HIGH impact on one build with Benign on the other resolves to boost.
func TestScore_OverrideExclusivity(t *testing.T) {
	e := newTestEngine(t)
	src := kras(annotate.ImpactHigh, "c.35G>A")
	src.Consequences = []string{"stop_gained"}
	tgt := kras(annotate.ImpactLow, "c.35G>A")
	tgt.Consequences = []string{"synonymous_variant"}
	tgt.SIFT = "tolerated(0.5)"

	r := analyze(annotate.VariantInput{
		Variant:        variant(),
		Source:         []annotate.TranscriptAnnotation{src},
		Target:         []annotate.TranscriptAnnotation{tgt},
		SourceClinical: annotate.ParseClinical("uncertain_significance"),
		TargetClinical: annotate.ParseClinical("benign"),
	})

	sv := e.Score(r)
	assert.Equal(t, OverrideBoost, sv.Override)
	assert.InDelta(t, sv.RawScore*2.0, sv.Score, 1e-9)
	assert.Equal(t, CategoryHigh, sv.Category)

	for i := 0; i < 5; i++ {
		again := e.Score(r)
		assert.Equal(t, sv.Override, again.Override)
	}
}

func TestSelectOverride(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name     string
		src, tgt string
		srcClin  string
		tgtClin  string
		sift     string
		want     Override
	}{
		{"high impact", annotate.ImpactHigh, annotate.ImpactModifier, "", "benign", "", OverrideBoost},
		{"high target benign source", annotate.ImpactLow, annotate.ImpactHigh, "benign", "", "tolerated(0.3)", OverrideBoost},
		{"pathogenic tier", annotate.ImpactLow, annotate.ImpactLow, "pathogenic", "benign", "", OverrideBoost},
		{"benign low", annotate.ImpactLow, annotate.ImpactModifier, "likely_benign", "", "", OverrideSuppression},
		{"tolerated low", annotate.ImpactLow, annotate.ImpactLow, "", "", "tolerated(0.3)", OverrideSuppression},
		{"moderate benign", annotate.ImpactModerate, annotate.ImpactLow, "benign", "benign", "", OverrideNone},
		{"low without evidence", annotate.ImpactLow, annotate.ImpactLow, "", "", "", OverrideNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := annotate.TranscriptAnnotation{TranscriptID: "T", Impact: tt.src, SIFT: tt.sift}
			tgt := annotate.TranscriptAnnotation{TranscriptID: "T", Impact: tt.tgt}
			r := analyze(annotate.VariantInput{
				Variant:        variant(),
				Source:         []annotate.TranscriptAnnotation{src},
				Target:         []annotate.TranscriptAnnotation{tgt},
				SourceClinical: annotate.ParseClinical(tt.srcClin),
				TargetClinical: annotate.ParseClinical(tt.tgtClin),
			})
			assert.Equal(t, tt.want, SelectOverride(r))

			sv := e.Score(r)
			if len(sv.Reasons) > 0 {
				assert.Equal(t, tt.want, sv.Override)
			}
			assertSingleMultiplier(t, e, sv)
		})
	}
}

// assertSingleMultiplier checks that the final score is the raw score times
// exactly one of 1, boost or suppression, and that it matches the override.
func assertSingleMultiplier(t *testing.T, e *Engine, sv ScoredVariant) {
	t.Helper()
	o := e.Weights().Overrides()
	factors := map[Override]float64{OverrideNone: 1, OverrideBoost: o.Boost, OverrideSuppression: o.Suppression}

	if sv.RawScore == 0 {
		assert.Zero(t, sv.Score)
		return
	}
	var applied []Override
	for override, f := range factors {
		if diff := sv.RawScore*f - sv.Score; diff < 1e-9 && diff > -1e-9 {
			applied = append(applied, override)
		}
	}
	require.Len(t, applied, 1, "score %g from raw %g", sv.Score, sv.RawScore)
	assert.Equal(t, sv.Override, applied[0])
}

// HIGH impact in one build with a benign call in the other resolves to boost.
func TestScore_HighImpactWithBenignTierBoosts(t *testing.T) {
	e := newTestEngine(t)
	src := kras(annotate.ImpactModerate, "c.35G>A")
	tgt := kras(annotate.ImpactHigh, "c.35G>A")
	tgt.Consequences = annotate.ParseConsequences("stop_gained")

	r := analyze(annotate.VariantInput{
		Variant:        variant(),
		Source:         []annotate.TranscriptAnnotation{src},
		Target:         []annotate.TranscriptAnnotation{tgt},
		SourceClinical: annotate.ParseClinical("benign"),
		TargetClinical: annotate.ParseClinical("benign"),
	})

	for i := 0; i < 5; i++ {
		sv := e.Score(r)
		require.NotEmpty(t, sv.Reasons)
		assert.Equal(t, OverrideBoost, sv.Override)
		assert.InDelta(t, sv.RawScore*e.Weights().Overrides().Boost, sv.Score, 1e-9)
		assertSingleMultiplier(t, e, sv)
	}
}

func TestScore_Determinism(t *testing.T) {
	e := newTestEngine(t)
	src := kras(annotate.ImpactHigh, "c.35G>A")
	tgt := kras(annotate.ImpactModerate, "c.36G>A")
	tgt.GeneSymbol = "KRAS2"
	in := annotate.VariantInput{
		Variant:        variant(),
		Source:         []annotate.TranscriptAnnotation{src, {TranscriptID: "ENST00000311936", Impact: annotate.ImpactLow}},
		Target:         []annotate.TranscriptAnnotation{tgt},
		SourceClinical: annotate.ParseClinical("pathogenic"),
		TargetClinical: annotate.ParseClinical("benign"),
	}

	first := e.Score(analyze(in))
	for i := 0; i < 10; i++ {
		again := e.Score(analyze(in))
		assert.Equal(t, first.Score, again.Score)
		assert.Equal(t, first.Category, again.Category)
		assert.Equal(t, first.Reasons, again.Reasons)
	}
}

// Any number of low-level reasons never escalates past MODERATE.
func TestCategorize_BoundedEscalation(t *testing.T) {
	for n := 1; n <= 200; n *= 3 {
		reasons := make([]Reason, n)
		for i := range reasons {
			reasons[i] = Reason{Rule: RuleUnmatchedConsequence, Key: "unmatched_consequence", Points: 1000, Level: LevelLow}
		}
		for _, sparse := range []bool{false, true} {
			got := Categorize(reasons, sparse)
			assert.Less(t, CategoryHigh.Severity(), got.Severity(), "n=%d sparse=%v got %s", n, sparse, got)
		}
	}
}

func TestScore_ManyLowReasonsStayLow(t *testing.T) {
	e := newTestEngine(t)
	v := variant()
	v.PosMatch = false
	v.GTMatch = false
	v.Swap = true

	source := []annotate.TranscriptAnnotation{{TranscriptID: "P", MANE: annotate.MANESelect, Impact: annotate.ImpactModifier}}
	target := []annotate.TranscriptAnnotation{{TranscriptID: "P", MANE: annotate.MANESelect, Impact: annotate.ImpactModifier}}
	for _, id := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		source = append(source, annotate.TranscriptAnnotation{TranscriptID: id, Impact: annotate.ImpactModifier})
	}

	sv := e.Score(analyze(annotate.VariantInput{Variant: v, Source: source, Target: target}))

	assert.Len(t, sv.Reasons, 12)
	assert.Contains(t, ruleKeys(sv.Reasons), "missing_clinical_data")
	assert.Greater(t, sv.Score, e.Weights().Weight("hgvs_mismatch"))
	assert.Equal(t, CategoryLow, sv.Category)
}

func TestCategorize(t *testing.T) {
	r := func(l Level) Reason { return Reason{Level: l} }
	tests := []struct {
		name    string
		reasons []Reason
		sparse  bool
		want    Category
	}{
		{"empty", nil, false, CategoryConcordant},
		{"low", []Reason{r(LevelLow)}, false, CategoryLow},
		{"moderate", []Reason{r(LevelLow), r(LevelModerate)}, false, CategoryModerate},
		{"high", []Reason{r(LevelModerate), r(LevelHigh)}, false, CategoryHigh},
		{"critical", []Reason{r(LevelHigh), r(LevelCritical)}, false, CategoryCritical},
		{"sparse moderate", []Reason{r(LevelModerate)}, true, CategoryInvestigate},
		{"sparse low", []Reason{r(LevelLow)}, true, CategoryInvestigate},
		{"sparse high", []Reason{r(LevelHigh)}, true, CategoryHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.reasons, tt.sparse))
		})
	}
}
