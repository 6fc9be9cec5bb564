package annotate

// ComparisonStatus tags how a transcript id was found across the two builds.
type ComparisonStatus string

const (
	StatusMatched    ComparisonStatus = "matched"
	StatusSourceOnly ComparisonStatus = "source_only"
	StatusTargetOnly ComparisonStatus = "target_only"
	// StatusNoPriority is only used as a priority status: neither build has a transcript.
	StatusNoPriority ComparisonStatus = "no_priority_transcript"
)

// TranscriptComparison pairs the source and target annotation of one normalized transcript id.
type TranscriptComparison struct {
	TranscriptID string
	Status       ComparisonStatus
	Source       *TranscriptAnnotation // nil for target_only
	Target       *TranscriptAnnotation // nil for source_only
}

// Match is the outcome of pairing two builds' transcript annotations.
type Match struct {
	Comparisons    []TranscriptComparison
	PriorityIndex  int                   // Index into Comparisons, -1 when no build has a transcript
	PriorityStatus ComparisonStatus      // Status of the priority comparison, or StatusNoPriority
	PriorityBuild  Build                 // Build whose priority transcript was chosen
	SourceBest     *TranscriptAnnotation // Source build's own priority transcript
	TargetBest     *TranscriptAnnotation // Target build's own priority transcript
	Skipped        int                   // Duplicate or unidentified rows that were dropped
}

// Priority returns the priority comparison, or nil.
func (m *Match) Priority() *TranscriptComparison {
	if m.PriorityIndex < 0 {
		return nil
	}
	return &m.Comparisons[m.PriorityIndex]
}

// dedupe keeps the first annotation for each transcript id, preserving input order.
func dedupe(anns []TranscriptAnnotation) ([]TranscriptAnnotation, int) {
	seen := make(map[string]bool, len(anns))
	out := make([]TranscriptAnnotation, 0, len(anns))
	skipped := 0
	for _, a := range anns {
		if a.TranscriptID == "" || seen[a.TranscriptID] {
			skipped++
			continue
		}
		seen[a.TranscriptID] = true
		out = append(out, a)
	}
	return out, skipped
}

// MatchTranscripts pairs source and target annotations by normalized transcript id.
//
// Comparisons are emitted as matched pairs in source order, then source-only
// rows in source order, then target-only rows in target order. The first row
// for an id wins; later duplicates are counted in Skipped.
//
// The priority comparison follows the source build's priority transcript. The
// target build's priority transcript is used instead when the source has none,
// or when the source's choice is unmatched but the target's is matched.
func MatchTranscripts(source, target []TranscriptAnnotation) Match {
	src, srcSkipped := dedupe(source)
	tgt, tgtSkipped := dedupe(target)

	tgtByID := make(map[string]*TranscriptAnnotation, len(tgt))
	for i := range tgt {
		tgtByID[tgt[i].TranscriptID] = &tgt[i]
	}
	srcIDs := make(map[string]bool, len(src))

	comparisons := make([]TranscriptComparison, 0, len(src)+len(tgt))
	for i := range src {
		srcIDs[src[i].TranscriptID] = true
		if t, ok := tgtByID[src[i].TranscriptID]; ok {
			comparisons = append(comparisons, TranscriptComparison{
				TranscriptID: src[i].TranscriptID,
				Status:       StatusMatched,
				Source:       &src[i],
				Target:       t,
			})
		}
	}
	for i := range src {
		if _, ok := tgtByID[src[i].TranscriptID]; !ok {
			comparisons = append(comparisons, TranscriptComparison{
				TranscriptID: src[i].TranscriptID,
				Status:       StatusSourceOnly,
				Source:       &src[i],
			})
		}
	}
	for i := range tgt {
		if !srcIDs[tgt[i].TranscriptID] {
			comparisons = append(comparisons, TranscriptComparison{
				TranscriptID: tgt[i].TranscriptID,
				Status:       StatusTargetOnly,
				Target:       &tgt[i],
			})
		}
	}

	m := Match{
		Comparisons:    comparisons,
		PriorityIndex:  -1,
		PriorityStatus: StatusNoPriority,
		Skipped:        srcSkipped + tgtSkipped,
	}

	srcIdx := -1
	if i := selectPriorityIndex(src); i >= 0 {
		m.SourceBest = &src[i]
		srcIdx = m.indexOf(src[i].TranscriptID)
	}
	tgtIdx := -1
	if i := selectPriorityIndex(tgt); i >= 0 {
		m.TargetBest = &tgt[i]
		tgtIdx = m.indexOf(tgt[i].TranscriptID)
	}

	switch {
	case srcIdx >= 0 && (comparisons[srcIdx].Status == StatusMatched ||
		tgtIdx < 0 || comparisons[tgtIdx].Status != StatusMatched):
		m.PriorityIndex, m.PriorityBuild = srcIdx, BuildSource
	case tgtIdx >= 0:
		m.PriorityIndex, m.PriorityBuild = tgtIdx, BuildTarget
	}
	if m.PriorityIndex >= 0 {
		m.PriorityStatus = comparisons[m.PriorityIndex].Status
	}
	return m
}

func (m *Match) indexOf(id string) int {
	for i := range m.Comparisons {
		if m.Comparisons[i].TranscriptID == id {
			return i
		}
	}
	return -1
}
