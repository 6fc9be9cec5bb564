package scoring

import (
	"github.com/inodb/crossbuild/internal/annotate"
)

// Override is the clinical-evidence factor applied to a variant's summed points.
type Override string

const (
	OverrideNone        Override = ""
	OverrideBoost       Override = "boost"
	OverrideSuppression Override = "suppression"
)

// ScoredVariant is a comparison record with its score, category and the reasons behind them.
type ScoredVariant struct {
	Result   *annotate.VariantAnalysisResult
	RawScore float64 // Sum of reason points
	Score    float64 // RawScore after the override factor
	Category Category
	Reasons  []Reason
	Override Override
}

// Engine scores comparison records against a weight table.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	weights *WeightTable
}

// NewEngine creates a scoring engine over w.
func NewEngine(w *WeightTable) *Engine {
	return &Engine{weights: w}
}

// Weights returns the engine's weight table.
func (e *Engine) Weights() *WeightTable {
	return e.weights
}

// Reasons runs every detector against r and returns the weighted hits in rule order.
func (e *Engine) Reasons(r *annotate.VariantAnalysisResult) []Reason {
	var reasons []Reason
	for _, rl := range rules {
		for _, f := range rl.detect(r) {
			reasons = append(reasons, Reason{
				Rule:   rl.rule,
				Key:    f.key,
				Points: e.weights.Weight(f.key),
				Level:  e.weights.Level(f.key),
				Detail: f.detail,
			})
		}
	}
	return reasons
}

// Score computes the score and category of a comparison record.
func (e *Engine) Score(r *annotate.VariantAnalysisResult) ScoredVariant {
	reasons := e.Reasons(r)

	var raw float64
	for _, rs := range reasons {
		raw += rs.Points
	}

	sv := ScoredVariant{
		Result:   r,
		RawScore: raw,
		Score:    raw,
		Reasons:  reasons,
		Category: Categorize(reasons, r.SparseEvidence()),
	}
	if len(reasons) > 0 {
		sv.Override = SelectOverride(r)
		switch sv.Override {
		case OverrideBoost:
			sv.Score = raw * e.weights.Overrides().Boost
		case OverrideSuppression:
			sv.Score = raw * e.weights.Overrides().Suppression
		}
	}
	return sv
}

// SelectOverride picks the single override for a record: boost when either
// headline impact is HIGH or either build calls it (likely) pathogenic;
// otherwise suppression when both headline impacts are LOW or MODIFIER and
// there is benign evidence; otherwise none.
func SelectOverride(r *annotate.VariantAnalysisResult) Override {
	srcImpact, tgtImpact := r.HeadlineImpacts()
	sc, tc := r.SourceClinical.Tier, r.TargetClinical.Tier

	if srcImpact == annotate.ImpactHigh || tgtImpact == annotate.ImpactHigh ||
		sc.IsPathogenic() || tc.IsPathogenic() {
		return OverrideBoost
	}
	if annotate.IsLowImpact(srcImpact) && annotate.IsLowImpact(tgtImpact) && hasBenignEvidence(r) {
		return OverrideSuppression
	}
	return OverrideNone
}

func hasBenignEvidence(r *annotate.VariantAnalysisResult) bool {
	if r.SourceClinical.Tier.IsBenign() || r.TargetClinical.Tier.IsBenign() {
		return true
	}
	for _, a := range []*annotate.TranscriptAnnotation{r.PrioritySource, r.PriorityTarget} {
		if a == nil {
			continue
		}
		if a.SIFTCall() == annotate.SIFTTolerated || a.PolyPhenCall() == annotate.PolyPhenBenign {
			return true
		}
	}
	return false
}
