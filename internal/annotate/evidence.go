package annotate

// ExtractionVersion identifies the comparison logic. Bump it whenever the
// contents of VariantAnalysisResult change meaning so cached results are recomputed.
const ExtractionVersion = 2

// VariantInput holds everything the relational store knows about one variant.
type VariantInput struct {
	Variant        Variant
	Source         []TranscriptAnnotation // Source build rows in table order
	Target         []TranscriptAnnotation // Target build rows in table order
	SourceClinical ClinicalAnnotation
	TargetClinical ClinicalAnnotation
	SkippedRows    int // Malformed annotation rows dropped while loading
}

// ImpactTransition records the largest impact change across matched transcripts.
type ImpactTransition struct {
	TranscriptID string
	From         string // Source build impact
	To           string // Target build impact
}

// Pair returns the transition key with the more severe impact first, e.g. "HIGH-MODIFIER".
func (t *ImpactTransition) Pair() string {
	hi, lo := t.From, t.To
	if ImpactRank(lo) > ImpactRank(hi) {
		hi, lo = lo, hi
	}
	return hi + "-" + lo
}

// DiscrepancyFlags lists every cross-build difference found for a variant.
type DiscrepancyFlags struct {
	HGVScMismatch         bool
	HGVSpMismatch         bool
	ImpactTransition      *ImpactTransition
	ConsequenceChanges    []string // Matched transcript ids whose consequence terms differ
	UnmatchedTranscripts  []string // Non-priority transcript ids present in one build only
	GeneSymbolChange      bool
	SIFTChange            bool
	PolyPhenChange        bool
	ClinicalTransition    bool
	MissingClinicalData   bool // No clinical significance in at least one build
	MissingPrediction     bool // SIFT or PolyPhen absent from a missense headline annotation, or from one build only
	MissingTranscriptData bool
	NoPriorityTranscript  bool
	PriorityUnmatched     bool
	PositionMismatch      bool
	GenotypeMismatch      bool
	AlleleSwap            bool
}

// VariantAnalysisResult is the cached comparison record of one variant.
type VariantAnalysisResult struct {
	Variant           Variant
	ExtractionVersion int
	Comparisons       []TranscriptComparison
	PriorityIndex     int // Index into Comparisons, -1 when neither build has a transcript
	PriorityStatus    ComparisonStatus
	PriorityBuild     Build
	PrioritySource    *TranscriptAnnotation // Headline annotation of the source build
	PriorityTarget    *TranscriptAnnotation // Headline annotation of the target build
	SourceClinical    ClinicalAnnotation
	TargetClinical    ClinicalAnnotation
	Flags             DiscrepancyFlags
	SkippedRows       int
}

// Priority returns the priority comparison, or nil.
func (r *VariantAnalysisResult) Priority() *TranscriptComparison {
	if r.PriorityIndex < 0 || r.PriorityIndex >= len(r.Comparisons) {
		return nil
	}
	return &r.Comparisons[r.PriorityIndex]
}

// HeadlineImpacts returns the impacts of the source and target headline annotations.
func (r *VariantAnalysisResult) HeadlineImpacts() (string, string) {
	var src, tgt string
	if r.PrioritySource != nil {
		src = r.PrioritySource.Impact
	}
	if r.PriorityTarget != nil {
		tgt = r.PriorityTarget.Impact
	}
	return src, tgt
}

// SparseEvidence reports whether the variant has neither a matched priority
// transcript nor clinical data in either build.
func (r *VariantAnalysisResult) SparseEvidence() bool {
	return r.PriorityStatus != StatusMatched &&
		!r.SourceClinical.HasData() && !r.TargetClinical.HasData()
}

// Extract compares the two builds' annotations of a variant and records every discrepancy.
func Extract(in *VariantInput) *VariantAnalysisResult {
	m := MatchTranscripts(in.Source, in.Target)

	r := &VariantAnalysisResult{
		Variant:           in.Variant,
		ExtractionVersion: ExtractionVersion,
		Comparisons:       m.Comparisons,
		PriorityIndex:     m.PriorityIndex,
		PriorityStatus:    m.PriorityStatus,
		PriorityBuild:     m.PriorityBuild,
		SourceClinical:    in.SourceClinical,
		TargetClinical:    in.TargetClinical,
		SkippedRows:       in.SkippedRows + m.Skipped,
	}
	r.PrioritySource, r.PriorityTarget = headlines(&m)

	f := &r.Flags
	v := &in.Variant
	f.PositionMismatch = !v.PosMatch
	f.GenotypeMismatch = !v.GTMatch
	f.AlleleSwap = v.Swap

	f.NoPriorityTranscript = m.PriorityStatus == StatusNoPriority
	f.PriorityUnmatched = m.PriorityStatus == StatusSourceOnly || m.PriorityStatus == StatusTargetOnly
	f.MissingTranscriptData = (len(in.Source) == 0) != (len(in.Target) == 0)

	for i := range m.Comparisons {
		c := &m.Comparisons[i]
		if c.Status != StatusMatched {
			if i != m.PriorityIndex {
				f.UnmatchedTranscripts = append(f.UnmatchedTranscripts, c.TranscriptID)
			}
			continue
		}
		if !c.Source.SameConsequences(c.Target) {
			f.ConsequenceChanges = append(f.ConsequenceChanges, c.TranscriptID)
		}
		f.ImpactTransition = largerTransition(f.ImpactTransition, c, i == m.PriorityIndex)
	}

	if p := m.Priority(); p != nil && p.Status == StatusMatched {
		f.HGVScMismatch = NormalizeHGVS(p.Source.HGVSc) != NormalizeHGVS(p.Target.HGVSc)
		f.HGVSpMismatch = NormalizeHGVS(p.Source.HGVSp) != NormalizeHGVS(p.Target.HGVSp)
	}

	if src, tgt := r.PrioritySource, r.PriorityTarget; src != nil && tgt != nil {
		f.GeneSymbolChange = src.GeneSymbol != "" && tgt.GeneSymbol != "" && src.GeneSymbol != tgt.GeneSymbol

		sa, sb := src.SIFTCall(), tgt.SIFTCall()
		pa, pb := src.PolyPhenCall(), tgt.PolyPhenCall()
		f.SIFTChange = sa != "" && sb != "" && sa != sb
		f.PolyPhenChange = pa != "" && pb != "" && pa != pb
		incomplete := sa == "" || sb == "" || pa == "" || pb == ""
		f.MissingPrediction = incomplete && (src.ExpectsPrediction() || tgt.ExpectsPrediction() ||
			(sa == "") != (sb == "") || (pa == "") != (pb == ""))
	}

	sc, tc := in.SourceClinical, in.TargetClinical
	f.MissingClinicalData = !sc.HasData() || !tc.HasData()
	f.ClinicalTransition = sc.Tier.Known() && tc.Tier.Known() && sc.Tier != tc.Tier

	return r
}

// headlines returns the annotation each build contributes to the priority
// comparison, falling back to the build's own priority transcript.
func headlines(m *Match) (*TranscriptAnnotation, *TranscriptAnnotation) {
	var src, tgt *TranscriptAnnotation
	if p := m.Priority(); p != nil {
		src, tgt = p.Source, p.Target
	}
	if src == nil {
		src = m.SourceBest
	}
	if tgt == nil {
		tgt = m.TargetBest
	}
	return src, tgt
}

// largerTransition keeps the larger of the current transition and the one in c.
// Transitions are ordered by ordinal distance, then by the more severe impact;
// on a tie the priority comparison wins, otherwise the earlier one is kept.
func largerTransition(cur *ImpactTransition, c *TranscriptComparison, priority bool) *ImpactTransition {
	from, to := c.Source.Impact, c.Target.Impact
	rf, rt := ImpactRank(from), ImpactRank(to)
	if rf == 0 || rt == 0 || rf == rt {
		return cur
	}
	next := &ImpactTransition{TranscriptID: c.TranscriptID, From: from, To: to}
	if cur == nil {
		return next
	}
	dn, hn := transitionSize(next)
	dc, hc := transitionSize(cur)
	switch {
	case dn != dc:
		if dn > dc {
			return next
		}
	case hn != hc:
		if hn > hc {
			return next
		}
	case priority:
		return next
	}
	return cur
}

func transitionSize(t *ImpactTransition) (distance, top int) {
	a, b := ImpactRank(t.From), ImpactRank(t.To)
	if a < b {
		a, b = b, a
	}
	return a - b, a
}
