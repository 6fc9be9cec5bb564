package scoring

import (
	"sort"

	"github.com/inodb/crossbuild/internal/annotate"
)

// ScoreAll scores every record and returns them ranked.
func (e *Engine) ScoreAll(results []*annotate.VariantAnalysisResult) []ScoredVariant {
	scored := make([]ScoredVariant, len(results))
	for i, r := range results {
		scored[i] = e.Score(r)
	}
	Rank(scored)
	return scored
}

// Rank sorts scored variants by category severity, then score descending,
// then genomic position ascending.
func Rank(scored []ScoredVariant) {
	sort.SliceStable(scored, func(i, j int) bool {
		a, b := &scored[i], &scored[j]
		if sa, sb := a.Category.Severity(), b.Category.Severity(); sa != sb {
			return sa < sb
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return annotate.PositionLess(&a.Result.Variant, &b.Result.Variant)
	})
}

// CategoryCounts returns the number of variants in each category.
func CategoryCounts(scored []ScoredVariant) map[Category]int {
	counts := make(map[Category]int, len(Categories))
	for _, sv := range scored {
		counts[sv.Category]++
	}
	return counts
}

// RuleCounts returns how many variants each rule fired for.
func RuleCounts(scored []ScoredVariant) map[Rule]int {
	counts := make(map[Rule]int)
	for _, sv := range scored {
		seen := make(map[Rule]bool, len(sv.Reasons))
		for _, r := range sv.Reasons {
			if !seen[r.Rule] {
				seen[r.Rule] = true
				counts[r.Rule]++
			}
		}
	}
	return counts
}
