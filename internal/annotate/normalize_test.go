package annotate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTranscriptID(t *testing.T) {
	tests := []struct {
		raw    string
		want   string
		wantOK bool
	}{
		{"ENST00000311936.8", "ENST00000311936", true},
		{" enst00000311936 ", "ENST00000311936", true},
		{"NM_000546.6", "NM_000546", true},
		{"XM_011541469.2", "XM_011541469", true},
		{"ENST00000311936.x", "ENST00000311936.X", true},
		{"", "", false},
		{"-", "", false},
		{"NA", "", false},
		{"nan", "", false},
		{"ENST 0001", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := NormalizeTranscriptID(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeTranscriptID_VersionsCompareEqual(t *testing.T) {
	a, _ := NormalizeTranscriptID("ENST00000269305.4")
	b, _ := NormalizeTranscriptID("ENST00000269305.9")
	assert.Equal(t, a, b)
}

func TestNormalizeHGVS(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ENST00000311936.8:c.35G>A", "c.35G>A"},
		{"NM_033360.4:c.35G>A", "c.35G>A"},
		{"ENSP00000256078.4:p.Gly12Asp", "p.Gly12Asp"},
		{"ENSP00000256078.4:p.Leu10%3D", "p.Leu10="},
		{"c.35G>A", "c.35G>A"},
		{"-", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHGVS(tt.in))
		})
	}
}
