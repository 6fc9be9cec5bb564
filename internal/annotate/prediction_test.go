package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredictionCalls_CaseAndWhitespace(t *testing.T) {
	a := TranscriptAnnotation{SIFT: "Deleterious(0.01)", PolyPhen: " benign(0.1) "}
	assert.Equal(t, SIFTDeleterious, a.SIFTCall())
	assert.Equal(t, PolyPhenBenign, a.PolyPhenCall())

	empty := TranscriptAnnotation{SIFT: "-", PolyPhen: ""}
	assert.Empty(t, empty.SIFTCall())
	assert.Empty(t, empty.PolyPhenCall())
}

func TestExpectsPrediction(t *testing.T) {
	tests := []struct {
		csq  string
		want bool
	}{
		{"missense_variant", true},
		{"splice_region_variant&missense_variant", true},
		{"synonymous_variant", false},
		{"stop_gained", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.csq, func(t *testing.T) {
			a := TranscriptAnnotation{Consequences: ParseConsequences(tt.csq)}
			assert.Equal(t, tt.want, a.ExpectsPrediction())
		})
	}
}
