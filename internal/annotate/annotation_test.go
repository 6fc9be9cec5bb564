package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetImpact(t *testing.T) {
	tests := []struct {
		consequence string
		want        string
	}{
		{"missense_variant", ImpactModerate},
		{"stop_gained", ImpactHigh},
		{"synonymous_variant", ImpactLow},
		{"intron_variant", ImpactModifier},
		{"frameshift_variant,splice_region_variant", ImpactHigh},
		{"splice_region_variant,intron_variant", ImpactLow},
		{"missense_variant,splice_region_variant", ImpactModerate},
		{"transcript_ablation", ImpactHigh},
		{"", ImpactModifier},
	}
	for _, tt := range tests {
		t.Run(tt.consequence, func(t *testing.T) {
			if got := GetImpact(tt.consequence); got != tt.want {
				t.Errorf("GetImpact(%q) = %q, want %q", tt.consequence, got, tt.want)
			}
		})
	}
}

// TestAllocRegression_GetImpact verifies zero allocations for GetImpact.
func TestAllocRegression_GetImpact(t *testing.T) {
	allocs := testing.AllocsPerRun(100, func() {
		GetImpact("frameshift_variant,splice_region_variant")
	})
	if allocs > 0 {
		t.Errorf("GetImpact(compound) allocs: %.0f, want 0", allocs)
	}
}

func TestImpactRank(t *testing.T) {
	assert.Greater(t, ImpactRank(ImpactHigh), ImpactRank(ImpactModerate))
	assert.Greater(t, ImpactRank(ImpactModerate), ImpactRank(ImpactLow))
	assert.Greater(t, ImpactRank(ImpactLow), ImpactRank(ImpactModifier))
	assert.Greater(t, ImpactRank(ImpactModifier), ImpactRank(""))
	assert.Equal(t, 0, ImpactRank("SEVERE"))
}

func TestParseConsequences(t *testing.T) {
	tests := []struct {
		field string
		want  []string
	}{
		{"missense_variant", []string{"missense_variant"}},
		{"splice_region_variant&missense_variant", []string{"missense_variant", "splice_region_variant"}},
		{"intron_variant,intron_variant", []string{"intron_variant"}},
		{" stop_gained , ", []string{"stop_gained"}},
		{"-", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseConsequences(tt.field))
		})
	}
}

func TestResolveImpact(t *testing.T) {
	tests := []struct {
		name   string
		field  string
		csq    []string
		want   string
		wantOK bool
	}{
		{"reported", "moderate", []string{"synonymous_variant"}, ImpactModerate, true},
		{"derived from consequence", "", []string{"intron_variant", "stop_gained"}, ImpactHigh, true},
		{"placeholder derived", "-", []string{"synonymous_variant"}, ImpactLow, true},
		{"absent", "", nil, "", true},
		{"unrecognized", "SEVERE", []string{"missense_variant"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveImpact(tt.field, tt.csq)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSameConsequences(t *testing.T) {
	a := &TranscriptAnnotation{Consequences: []string{"missense_variant", "splice_region_variant"}}
	b := &TranscriptAnnotation{Consequences: ParseConsequences("splice_region_variant,missense_variant")}
	c := &TranscriptAnnotation{Consequences: []string{"missense_variant"}}

	assert.True(t, a.SameConsequences(b))
	assert.False(t, a.SameConsequences(c))
	assert.Equal(t, "missense_variant,splice_region_variant", a.ConsequenceString())
}

func TestVariantKeyAndOrder(t *testing.T) {
	v := &Variant{SourceChrom: "7", SourcePos: 140453136, TargetPos: 140753336, Ref: "A", Alt: "T"}
	assert.Equal(t, "7_140453136_A/T>140753336", v.Key())
	assert.True(t, v.IsSNV())

	assert.Equal(t, "17", NormalizeChrom("chr17"))
	assert.Equal(t, "X", NormalizeChrom("X"))

	chr2 := &Variant{SourceChrom: "2", SourcePos: 5}
	chr10 := &Variant{SourceChrom: "10", SourcePos: 1}
	chrX := &Variant{SourceChrom: "X", SourcePos: 1}
	assert.True(t, PositionLess(chr2, chr10))
	assert.True(t, PositionLess(chr10, chrX))
	assert.False(t, PositionLess(chrX, chr2))
	assert.True(t, PositionLess(&Variant{SourceChrom: "2", SourcePos: 4}, chr2))
}
