package annotate

import (
	"strings"
	"unicode"
)

// NormalizeTranscriptID canonicalizes a transcript identifier so the same
// transcript compares equal across builds: surrounding whitespace is trimmed,
// a numeric version suffix is dropped and the result is upper-cased.
// e.g., " enst00000311936.8 " -> "ENST00000311936"
//
// Empty values, placeholders ("-", "NA", "nan") and ids containing internal
// whitespace are rejected.
func NormalizeTranscriptID(raw string) (string, bool) {
	id := strings.TrimSpace(raw)
	if IsPlaceholder(id) {
		return "", false
	}
	if strings.IndexFunc(id, unicode.IsSpace) >= 0 {
		return "", false
	}
	id = stripVersion(id)
	if id == "" {
		return "", false
	}
	return strings.ToUpper(id), true
}

// stripVersion removes a trailing ".N" suffix when N is all digits.
// e.g., "NM_000546.6" -> "NM_000546", "ENST00000456328" unchanged
func stripVersion(id string) string {
	idx := strings.LastIndexByte(id, '.')
	if idx == -1 || idx == len(id)-1 {
		return id
	}
	for _, r := range id[idx+1:] {
		if r < '0' || r > '9' {
			return id
		}
	}
	return id[:idx]
}

// NormalizeHGVS strips the reference accession prefix from an HGVS string and
// decodes the URL-escaped "=" the predictor emits for synonymous changes.
// e.g., "ENST00000311936.8:c.35G>A" -> "c.35G>A", "ENSP00000256078.4:p.Leu10%3D" -> "p.Leu10="
// Placeholders normalize to "".
func NormalizeHGVS(s string) string {
	s = strings.TrimSpace(s)
	if IsPlaceholder(s) {
		return ""
	}
	if idx := strings.LastIndexByte(s, ':'); idx != -1 {
		s = s[idx+1:]
	}
	return strings.ReplaceAll(s, "%3D", "=")
}
