package annotate

import (
	"strconv"
	"strings"
)

// Variant is one lifted-over variant from the comparison table.
type Variant struct {
	ID            int64  // Row id in the comparison table
	SourceChrom   string // Chromosome in the source build, "chr" prefix removed
	SourcePos     int64  // 1-based position in the source build
	TargetChrom   string // Chromosome in the target build
	TargetPos     int64  // 1-based position in the target build
	Ref           string // Source reference allele
	Alt           string // Source alternate allele
	TargetRef     string // Reference allele after liftover
	TargetAlt     string // Alternate allele after liftover
	MappingStatus string // Raw liftover mapping status, e.g. "UNIQUE" or "REGION"
	PosMatch      bool   // Liftover tools agree on the target position
	GTMatch       bool   // Liftover tools agree on the genotype
	Flip          bool   // Strand flipped during liftover
	Swap          bool   // Ref/alt swapped during liftover
}

// Key returns the stable identity of the variant: chromosome, both positions and alleles.
func (v *Variant) Key() string {
	return FormatVariantID(v.SourceChrom, v.SourcePos, v.Ref, v.Alt) + ">" + strconv.FormatInt(v.TargetPos, 10)
}

// IsSNV returns true if the variant is a single nucleotide variant.
func (v *Variant) IsSNV() bool {
	return len(v.Ref) == 1 && len(v.Alt) == 1
}

// FormatVariantID creates a variant identifier string.
func FormatVariantID(chrom string, pos int64, ref, alt string) string {
	return chrom + "_" + strconv.FormatInt(pos, 10) + "_" + ref + "/" + alt
}

// NormalizeChrom returns the chromosome name without "chr" prefix.
func NormalizeChrom(chrom string) string {
	chrom = strings.TrimSpace(chrom)
	if len(chrom) > 3 && strings.EqualFold(chrom[:3], "chr") {
		return chrom[3:]
	}
	return chrom
}

// ChromRank orders chromosomes numerically, then X, Y and MT, then everything else.
func ChromRank(chrom string) int {
	if n, err := strconv.Atoi(chrom); err == nil && n > 0 {
		return n
	}
	switch strings.ToUpper(chrom) {
	case "X":
		return 23
	case "Y":
		return 24
	case "M", "MT":
		return 25
	}
	return 26
}

// PositionLess reports whether a sorts before b in genomic order of the source build.
func PositionLess(a, b *Variant) bool {
	ra, rb := ChromRank(a.SourceChrom), ChromRank(b.SourceChrom)
	if ra != rb {
		return ra < rb
	}
	if a.SourceChrom != b.SourceChrom {
		return a.SourceChrom < b.SourceChrom
	}
	if a.SourcePos != b.SourcePos {
		return a.SourcePos < b.SourcePos
	}
	if a.TargetPos != b.TargetPos {
		return a.TargetPos < b.TargetPos
	}
	if a.Ref != b.Ref {
		return a.Ref < b.Ref
	}
	return a.Alt < b.Alt
}
