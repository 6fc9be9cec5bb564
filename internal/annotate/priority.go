package annotate

// priorityClass ranks a transcript for headline selection (higher = preferred).
func priorityClass(t *TranscriptAnnotation) int {
	switch {
	case t.MANE == MANESelect:
		return 3
	case t.MANE == MANEPlusClinical:
		return 2
	case t.IsCanonical:
		return 1
	default:
		return 0
	}
}

// SelectPriority picks the headline transcript of one build:
// MANE Select, then MANE Plus Clinical, then canonical, then the first row.
// Within a class the earliest row wins, so the choice depends only on input order.
// Returns nil for an empty list.
func SelectPriority(anns []TranscriptAnnotation) *TranscriptAnnotation {
	idx := selectPriorityIndex(anns)
	if idx < 0 {
		return nil
	}
	return &anns[idx]
}

func selectPriorityIndex(anns []TranscriptAnnotation) int {
	best, bestClass := -1, -1
	for i := range anns {
		if c := priorityClass(&anns[i]); c > bestClass {
			best, bestClass = i, c
		}
	}
	return best
}
