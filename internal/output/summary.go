package output

import (
	"fmt"
	"io"
	"sort"

	"github.com/inodb/crossbuild/internal/scoring"
)

// WriteSummary writes the category distribution and how often each rule fired.
func WriteSummary(w io.Writer, ranked []scoring.ScoredVariant) {
	fmt.Fprintf(w, "\nScoring Summary (%d variants):\n", len(ranked))

	counts := scoring.CategoryCounts(ranked)
	fmt.Fprintf(w, "\n  Categories:\n")
	for _, c := range scoring.Categories {
		fmt.Fprintf(w, "    %-20s%d\n", c, counts[c])
	}

	rules := scoring.RuleCounts(ranked)
	if len(rules) == 0 {
		return
	}

	// Sort rules by count descending
	type ruleCount struct {
		rule  scoring.Rule
		count int
	}
	var sorted []ruleCount
	for rule, count := range rules {
		sorted = append(sorted, ruleCount{rule, count})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].count != sorted[j].count {
			return sorted[i].count > sorted[j].count
		}
		return sorted[i].rule < sorted[j].rule
	})

	fmt.Fprintf(w, "\n  Rules:\n")
	for _, rc := range sorted {
		fmt.Fprintf(w, "    %-32s%d\n", rc.rule, rc.count)
	}
}
