package annotate

import (
	"fmt"

	"go.uber.org/zap"
)

// Analyzer turns per-build annotation rows of a variant into a comparison record.
type Analyzer struct {
	logger *zap.Logger
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for warning and debug messages.
func (a *Analyzer) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Analyze compares the annotations of a single variant.
func (a *Analyzer) Analyze(in *VariantInput) (*VariantAnalysisResult, error) {
	if in == nil {
		return nil, fmt.Errorf("analyze variant: nil input")
	}
	v := &in.Variant
	if v.SourceChrom == "" || v.SourcePos <= 0 {
		return nil, fmt.Errorf("analyze variant %d: missing source coordinates", v.ID)
	}

	r := Extract(in)

	if r.SkippedRows > 0 {
		a.logger.Debug("skipped annotation rows",
			zap.String("variant", v.Key()),
			zap.Int("rows", r.SkippedRows))
	}
	if r.PriorityStatus == StatusNoPriority {
		a.logger.Debug("no transcript annotations in either build",
			zap.String("variant", v.Key()))
	}
	return r, nil
}
