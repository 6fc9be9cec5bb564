package annotate

import (
	"slices"
	"strings"
)

// Binary pathogenicity prediction calls.
const (
	SIFTDeleterious  = "deleterious"
	SIFTTolerated    = "tolerated"
	PolyPhenDamaging = "damaging"
	PolyPhenBenign   = "benign"
)

// SIFTCall returns the binary SIFT call ("deleterious" or "tolerated"), or "" when absent.
// e.g., "deleterious_low_confidence(0.03)" -> "deleterious"
func (t *TranscriptAnnotation) SIFTCall() string {
	return parseSIFT(t.SIFT)
}

// PolyPhenCall returns the binary PolyPhen call ("damaging" or "benign"), or "" when absent.
// e.g., "possibly_damaging(0.62)" -> "damaging"
func (t *TranscriptAnnotation) PolyPhenCall() string {
	return parsePolyPhen(t.PolyPhen)
}

// ExpectsPrediction reports whether SIFT and PolyPhen score this annotation.
// Both only score amino acid substitutions.
func (t *TranscriptAnnotation) ExpectsPrediction() bool {
	return slices.Contains(t.Consequences, "missense_variant")
}

func parseSIFT(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, SIFTDeleterious):
		return SIFTDeleterious
	case strings.HasPrefix(s, SIFTTolerated):
		return SIFTTolerated
	}
	return ""
}

func parsePolyPhen(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "probably_damaging"), strings.HasPrefix(s, "possibly_damaging"):
		return PolyPhenDamaging
	case strings.HasPrefix(s, PolyPhenBenign):
		return PolyPhenBenign
	}
	return ""
}
