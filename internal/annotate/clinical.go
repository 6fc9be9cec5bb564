package annotate

import "strings"

// ClinicalTier is a normalized clinical significance tier.
type ClinicalTier string

const (
	TierPathogenic       ClinicalTier = "Pathogenic"
	TierLikelyPathogenic ClinicalTier = "Likely_Pathogenic"
	TierVUS              ClinicalTier = "VUS"
	TierLikelyBenign     ClinicalTier = "Likely_Benign"
	TierBenign           ClinicalTier = "Benign"
	TierUnknown          ClinicalTier = "Unknown"
)

// IsPathogenic reports whether the tier is Pathogenic or Likely-Pathogenic.
func (t ClinicalTier) IsPathogenic() bool {
	return t == TierPathogenic || t == TierLikelyPathogenic
}

// IsBenign reports whether the tier is Benign or Likely-Benign.
func (t ClinicalTier) IsBenign() bool {
	return t == TierBenign || t == TierLikelyBenign
}

// Known reports whether the tier carries an interpretation.
func (t ClinicalTier) Known() bool {
	return t != TierUnknown && t != ""
}

// Short returns the abbreviation used in reports (P, LP, VUS, LB, B).
func (t ClinicalTier) Short() string {
	switch t {
	case TierPathogenic:
		return "P"
	case TierLikelyPathogenic:
		return "LP"
	case TierVUS:
		return "VUS"
	case TierLikelyBenign:
		return "LB"
	case TierBenign:
		return "B"
	}
	return "-"
}

// ClinicalAnnotation is the clinical significance reported for a variant in one build.
type ClinicalAnnotation struct {
	Raw  string       // Label as found in the predictor output, "" when absent
	Tier ClinicalTier // Normalized tier
}

// HasData reports whether the build carried any clinical significance label.
func (c ClinicalAnnotation) HasData() bool {
	return c.Raw != ""
}

// tierStrength orders tiers within a family; the strongest label of a compound wins.
var tierStrength = map[ClinicalTier]int{
	TierPathogenic:       5,
	TierBenign:           5,
	TierLikelyPathogenic: 4,
	TierLikelyBenign:     4,
	TierVUS:              1,
}

// clinicalTerms maps single normalized labels to tiers. Labels not listed
// (risk_factor, drug_response, protective, association, not_provided, ...)
// carry no tier.
var clinicalTerms = map[string]ClinicalTier{
	"pathogenic":             TierPathogenic,
	"likely_pathogenic":      TierLikelyPathogenic,
	"uncertain_significance": TierVUS,
	"uncertain":              TierVUS,
	"vus":                    TierVUS,

	"conflicting_interpretations_of_pathogenicity": TierVUS,
	"conflicting_classifications_of_pathogenicity": TierVUS,
	"conflicting_data_from_submitters":             TierVUS,

	"likely_benign": TierLikelyBenign,
	"benign":        TierBenign,
}

// ParseClinical normalizes a clinical significance field.
//
// Compound labels ("pathogenic/likely_pathogenic", "benign,likely_benign") take
// their strongest term. A label mixing pathogenic and benign terms is treated
// as VUS. A present label with no recognized term has tier Unknown.
func ParseClinical(raw string) ClinicalAnnotation {
	raw = strings.TrimSpace(raw)
	if IsPlaceholder(raw) {
		return ClinicalAnnotation{Tier: TierUnknown}
	}

	var best ClinicalTier
	var pathogenic, benign bool
	terms := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == ',' || r == '/' || r == '&' || r == '|' || r == ';'
	})
	for _, term := range terms {
		term = strings.Join(strings.Fields(term), "_")
		tier, ok := clinicalTerms[term]
		if !ok {
			continue
		}
		pathogenic = pathogenic || tier.IsPathogenic()
		benign = benign || tier.IsBenign()
		if best == "" || tierStrength[tier] > tierStrength[best] {
			best = tier
		}
	}

	switch {
	case pathogenic && benign:
		best = TierVUS
	case best == "":
		best = TierUnknown
	}
	return ClinicalAnnotation{Raw: raw, Tier: best}
}
