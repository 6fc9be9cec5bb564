// Package scoring turns cross-build comparison records into scored, categorized variants.
package scoring

import (
	"strings"

	"github.com/inodb/crossbuild/internal/annotate"
)

// Rule names a discrepancy detector.
type Rule string

const (
	RuleHGVSMismatch          Rule = "hgvs_mismatch"
	RuleClinicalTransition    Rule = "clinical_transition"
	RuleImpactTransition      Rule = "impact_transition"
	RuleConsequenceChange     Rule = "consequence_change"
	RuleUnmatchedConsequence  Rule = "unmatched_consequence"
	RuleGeneSymbolChange      Rule = "gene_symbol_change"
	RuleSIFTChange            Rule = "sift_change"
	RulePolyPhenChange        Rule = "polyphen_change"
	RulePositionMismatch      Rule = "position_mismatch"
	RuleGenotypeMismatch      Rule = "genotype_mismatch"
	RuleAlleleSwap            Rule = "allele_swap"
	RuleMissingClinicalData   Rule = "missing_clinical_data"
	RuleMissingPrediction     Rule = "missing_prediction"
	RuleMissingTranscriptData Rule = "missing_transcript_data"
	RuleNoPriorityTranscript  Rule = "no_priority_transcript"
	RulePriorityUnmatched     Rule = "priority_transcript_unmatched"
)

// Reason is one rule hit contributing to a variant's score.
type Reason struct {
	Rule   Rule
	Key    string  // Weight table key, e.g. "impact_transition/HIGH-LOW"
	Points float64 // Weight of Key
	Level  Level   // Severity of Key
	Detail string  // Human-readable evidence
}

// finding is a detector hit before weights are applied.
type finding struct {
	key    string
	detail string
}

type detector func(r *annotate.VariantAnalysisResult) []finding

// rules lists every detector in reporting order.
var rules = []struct {
	rule   Rule
	detect detector
}{
	{RuleHGVSMismatch, detectHGVSMismatch},
	{RuleClinicalTransition, detectClinicalTransition},
	{RuleImpactTransition, detectImpactTransition},
	{RuleConsequenceChange, detectConsequenceChange},
	{RuleUnmatchedConsequence, detectUnmatchedConsequence},
	{RuleGeneSymbolChange, detectGeneSymbolChange},
	{RuleSIFTChange, detectSIFTChange},
	{RulePolyPhenChange, detectPolyPhenChange},
	{RulePositionMismatch, flagRule(RulePositionMismatch, func(f *annotate.DiscrepancyFlags) bool { return f.PositionMismatch })},
	{RuleGenotypeMismatch, flagRule(RuleGenotypeMismatch, func(f *annotate.DiscrepancyFlags) bool { return f.GenotypeMismatch })},
	{RuleAlleleSwap, flagRule(RuleAlleleSwap, func(f *annotate.DiscrepancyFlags) bool { return f.AlleleSwap })},
	{RuleMissingClinicalData, detectMissingClinicalData},
	{RuleMissingPrediction, flagRule(RuleMissingPrediction, func(f *annotate.DiscrepancyFlags) bool { return f.MissingPrediction })},
	{RuleMissingTranscriptData, flagRule(RuleMissingTranscriptData, func(f *annotate.DiscrepancyFlags) bool { return f.MissingTranscriptData })},
	{RuleNoPriorityTranscript, flagRule(RuleNoPriorityTranscript, func(f *annotate.DiscrepancyFlags) bool { return f.NoPriorityTranscript })},
	{RulePriorityUnmatched, detectPriorityUnmatched},
}

// Weight table keys for keyed rules.
const (
	keyClinicalMajor         = "clinical_transition/major"
	keyClinicalVUSPathogenic = "clinical_transition/vus_pathogenic"
	keyClinicalMinor         = "clinical_transition/minor"
	keyGeneSymbolRelabel     = "gene_symbol_change/relabel"
)

// impactPairs lists the impact transition keys, more severe impact first.
var impactPairs = []string{
	"HIGH-MODERATE", "HIGH-LOW", "HIGH-MODIFIER",
	"MODERATE-LOW", "MODERATE-MODIFIER",
	"LOW-MODIFIER",
}

// WeightKeys returns every key a weight table must define.
func WeightKeys() []string {
	keys := []string{
		string(RuleHGVSMismatch),
		keyClinicalMajor, keyClinicalVUSPathogenic, keyClinicalMinor,
	}
	for _, p := range impactPairs {
		keys = append(keys, string(RuleImpactTransition)+"/"+p)
	}
	keys = append(keys,
		string(RuleConsequenceChange),
		string(RuleUnmatchedConsequence),
		string(RuleGeneSymbolChange), keyGeneSymbolRelabel,
		string(RuleSIFTChange),
		string(RulePolyPhenChange),
		string(RulePositionMismatch),
		string(RuleGenotypeMismatch),
		string(RuleAlleleSwap),
		string(RuleMissingClinicalData),
		string(RuleMissingPrediction),
		string(RuleMissingTranscriptData),
		string(RuleNoPriorityTranscript),
		string(RulePriorityUnmatched),
	)
	return keys
}

func flagRule(rule Rule, set func(*annotate.DiscrepancyFlags) bool) detector {
	return func(r *annotate.VariantAnalysisResult) []finding {
		if !set(&r.Flags) {
			return nil
		}
		return []finding{{key: string(rule)}}
	}
}

func detectHGVSMismatch(r *annotate.VariantAnalysisResult) []finding {
	f := &r.Flags
	p := r.Priority()
	if p == nil || p.Status != annotate.StatusMatched || (!f.HGVScMismatch && !f.HGVSpMismatch) {
		return nil
	}
	var parts []string
	if f.HGVScMismatch {
		parts = append(parts, changeDetail(annotate.NormalizeHGVS(p.Source.HGVSc), annotate.NormalizeHGVS(p.Target.HGVSc)))
	}
	if f.HGVSpMismatch {
		parts = append(parts, changeDetail(annotate.NormalizeHGVS(p.Source.HGVSp), annotate.NormalizeHGVS(p.Target.HGVSp)))
	}
	return []finding{{key: string(RuleHGVSMismatch), detail: p.TranscriptID + " " + strings.Join(parts, "; ")}}
}

// clinicalTransitionKey classifies a tier change between two known tiers.
func clinicalTransitionKey(from, to annotate.ClinicalTier) string {
	switch {
	case from.IsPathogenic() && to.IsBenign(), from.IsBenign() && to.IsPathogenic():
		return keyClinicalMajor
	case from == annotate.TierVUS && to.IsPathogenic(), from.IsPathogenic() && to == annotate.TierVUS:
		return keyClinicalVUSPathogenic
	}
	return keyClinicalMinor
}

func detectClinicalTransition(r *annotate.VariantAnalysisResult) []finding {
	if !r.Flags.ClinicalTransition {
		return nil
	}
	from, to := r.SourceClinical.Tier, r.TargetClinical.Tier
	return []finding{{
		key:    clinicalTransitionKey(from, to),
		detail: changeDetail(from.Short(), to.Short()),
	}}
}

func detectImpactTransition(r *annotate.VariantAnalysisResult) []finding {
	t := r.Flags.ImpactTransition
	if t == nil {
		return nil
	}
	return []finding{{
		key:    string(RuleImpactTransition) + "/" + t.Pair(),
		detail: t.TranscriptID + " " + changeDetail(t.From, t.To),
	}}
}

func detectConsequenceChange(r *annotate.VariantAnalysisResult) []finding {
	ids := r.Flags.ConsequenceChanges
	if len(ids) == 0 {
		return nil
	}
	return []finding{{key: string(RuleConsequenceChange), detail: strings.Join(ids, ",")}}
}

func detectUnmatchedConsequence(r *annotate.VariantAnalysisResult) []finding {
	var out []finding
	for _, id := range r.Flags.UnmatchedTranscripts {
		out = append(out, finding{key: string(RuleUnmatchedConsequence), detail: id})
	}
	return out
}

func detectGeneSymbolChange(r *annotate.VariantAnalysisResult) []finding {
	if !r.Flags.GeneSymbolChange {
		return nil
	}
	src, tgt := r.HeadlineImpacts()
	key := keyGeneSymbolRelabel
	if annotate.ImpactRank(src) >= annotate.ImpactRank(annotate.ImpactModerate) ||
		annotate.ImpactRank(tgt) >= annotate.ImpactRank(annotate.ImpactModerate) {
		key = string(RuleGeneSymbolChange)
	}
	return []finding{{key: key, detail: changeDetail(r.PrioritySource.GeneSymbol, r.PriorityTarget.GeneSymbol)}}
}

func detectSIFTChange(r *annotate.VariantAnalysisResult) []finding {
	if !r.Flags.SIFTChange {
		return nil
	}
	return []finding{{key: string(RuleSIFTChange), detail: changeDetail(r.PrioritySource.SIFTCall(), r.PriorityTarget.SIFTCall())}}
}

func detectPolyPhenChange(r *annotate.VariantAnalysisResult) []finding {
	if !r.Flags.PolyPhenChange {
		return nil
	}
	return []finding{{key: string(RulePolyPhenChange), detail: changeDetail(r.PrioritySource.PolyPhenCall(), r.PriorityTarget.PolyPhenCall())}}
}

func detectMissingClinicalData(r *annotate.VariantAnalysisResult) []finding {
	if !r.Flags.MissingClinicalData {
		return nil
	}
	var detail string
	switch {
	case r.SourceClinical.HasData():
		detail = "only " + string(annotate.BuildSource)
	case r.TargetClinical.HasData():
		detail = "only " + string(annotate.BuildTarget)
	default:
		detail = "neither build"
	}
	return []finding{{key: string(RuleMissingClinicalData), detail: detail}}
}

func detectPriorityUnmatched(r *annotate.VariantAnalysisResult) []finding {
	if !r.Flags.PriorityUnmatched {
		return nil
	}
	p := r.Priority()
	if p == nil {
		return nil
	}
	return []finding{{key: string(RulePriorityUnmatched), detail: p.TranscriptID + " " + string(p.Status)}}
}

func changeDetail(from, to string) string {
	if from == "" {
		from = "-"
	}
	if to == "" {
		to = "-"
	}
	return from + "->" + to
}
