package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectPriority(t *testing.T) {
	plain := TranscriptAnnotation{TranscriptID: "T1"}
	canonical := TranscriptAnnotation{TranscriptID: "T2", IsCanonical: true}
	plusClinical := TranscriptAnnotation{TranscriptID: "T3", MANE: MANEPlusClinical}
	maneSelect := TranscriptAnnotation{TranscriptID: "T4", MANE: MANESelect}

	tests := []struct {
		name string
		anns []TranscriptAnnotation
		want string
	}{
		{"MANE Select wins", []TranscriptAnnotation{plain, canonical, plusClinical, maneSelect}, "T4"},
		{"Plus Clinical over canonical", []TranscriptAnnotation{plain, canonical, plusClinical}, "T3"},
		{"canonical over plain", []TranscriptAnnotation{plain, canonical}, "T2"},
		{"first row fallback", []TranscriptAnnotation{plain, {TranscriptID: "T5"}}, "T1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectPriority(tt.anns)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.TranscriptID)
		})
	}

	assert.Nil(t, SelectPriority(nil))
}

func TestSelectPriority_FirstOfClassWins(t *testing.T) {
	anns := []TranscriptAnnotation{
		{TranscriptID: "A", IsCanonical: true},
		{TranscriptID: "B", MANE: MANESelect},
		{TranscriptID: "C", MANE: MANESelect},
	}
	assert.Equal(t, "B", SelectPriority(anns).TranscriptID)
}

// Reordering rows outside the winning class never changes the choice.
func TestSelectPriority_Stability(t *testing.T) {
	base := []TranscriptAnnotation{
		{TranscriptID: "A"},
		{TranscriptID: "B", IsCanonical: true},
		{TranscriptID: "C", MANE: MANESelect},
		{TranscriptID: "D", MANE: MANEPlusClinical},
	}
	perms := [][]int{
		{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}, {0, 3, 1, 2},
	}
	for _, p := range perms {
		anns := make([]TranscriptAnnotation, len(p))
		for i, j := range p {
			anns[i] = base[j]
		}
		assert.Equal(t, "C", SelectPriority(anns).TranscriptID, "permutation %v", p)
	}
}
