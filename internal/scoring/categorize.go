package scoring

// Category is the clinical review priority of a variant.
type Category string

const (
	CategoryCritical    Category = "CRITICAL"
	CategoryHigh        Category = "HIGH"
	CategoryModerate    Category = "MODERATE"
	CategoryInvestigate Category = "INVESTIGATE"
	CategoryLow         Category = "LOW"
	CategoryConcordant  Category = "CONCORDANT"
)

// Categories lists every category from most to least urgent.
var Categories = []Category{
	CategoryCritical,
	CategoryHigh,
	CategoryModerate,
	CategoryInvestigate,
	CategoryLow,
	CategoryConcordant,
}

// Severity returns the position of c in Categories (0 = most urgent).
// Unknown categories sort last.
func (c Category) Severity() int {
	for i, cat := range Categories {
		if cat == c {
			return i
		}
	}
	return len(Categories)
}

// Categorize assigns a category from the most severe reason level present.
// Sparse evidence (no matched priority transcript and no clinical data)
// sends a variant without high or critical reasons to INVESTIGATE.
// The category never depends on the summed score.
func Categorize(reasons []Reason, sparse bool) Category {
	top := 0
	for _, r := range reasons {
		if rank := r.Level.Rank(); rank > top {
			top = rank
		}
	}

	switch {
	case top >= LevelCritical.Rank():
		return CategoryCritical
	case top >= LevelHigh.Rank():
		return CategoryHigh
	case sparse:
		return CategoryInvestigate
	case top >= LevelModerate.Rank():
		return CategoryModerate
	case top >= LevelLow.Rank():
		return CategoryLow
	}
	return CategoryConcordant
}
