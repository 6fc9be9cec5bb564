// Package storetest builds SQLite input databases for tests.
package storetest

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// Schema creates the comparison table and two annotation tables with the default names.
var Schema = `
CREATE TABLE comparison (
	id INTEGER PRIMARY KEY,
	mapping_status TEXT,
	source_chrom TEXT,
	source_pos INTEGER,
	source_alleles TEXT,
	flip TEXT,
	swap TEXT,
	target_chrom TEXT,
	target_pos INTEGER,
	target_ref TEXT,
	target_alt TEXT,
	pos_match TEXT,
	gt_match TEXT
);
` + annotationTable("hg19_vep") + annotationTable("hg38_vep")

func annotationTable(name string) string {
	return fmt.Sprintf(`
CREATE TABLE %s (
	id INTEGER PRIMARY KEY,
	chrom TEXT,
	pos INTEGER,
	allele TEXT,
	feature_type TEXT,
	feature TEXT,
	symbol TEXT,
	consequence TEXT,
	impact TEXT,
	mane_select TEXT,
	mane_plus_clinical TEXT,
	canonical TEXT,
	hgvsc TEXT,
	hgvsp TEXT,
	sift TEXT,
	polyphen TEXT,
	clin_sig TEXT
);
`, name)
}

// Comparison is one row of the comparison table. Empty strings are stored as NULL.
type Comparison struct {
	ID            int64
	MappingStatus string
	SourceChrom   string
	SourcePos     int64
	SourceAlleles string
	Flip          string
	Swap          string
	TargetChrom   string
	TargetPos     int64
	TargetRef     string
	TargetAlt     string
	PosMatch      string
	GTMatch       string
}

// Annotation is one predictor row. Empty strings are stored as NULL.
type Annotation struct {
	Chrom            string
	Pos              int64
	Allele           string
	FeatureType      string
	Feature          string
	Symbol           string
	Consequence      string
	Impact           string
	MANESelect       string
	MANEPlusClinical string
	Canonical        string
	HGVSc            string
	HGVSp            string
	SIFT             string
	PolyPhen         string
	ClinSig          string
}

// DB is a test input database.
type DB struct {
	t  testing.TB
	DB *sql.DB
}

// New opens an in-memory SQLite database with the input schema.
// The connection pool is limited to one connection so every query sees the same database.
func New(t testing.TB) *DB {
	t.Helper()
	return open(t, ":memory:")
}

// NewFile creates a SQLite database file with the input schema at path.
func NewFile(t testing.TB, path string) *DB {
	t.Helper()
	return open(t, path)
}

func open(t testing.TB, dsn string) *DB {
	t.Helper()
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(Schema)
	require.NoError(t, err)
	return &DB{t: t, DB: db}
}

// AddComparison inserts comparison rows.
func (d *DB) AddComparison(rows ...Comparison) *DB {
	d.t.Helper()
	for _, r := range rows {
		_, err := d.DB.Exec(`INSERT INTO comparison (id, mapping_status, source_chrom, source_pos, source_alleles,
			flip, swap, target_chrom, target_pos, target_ref, target_alt, pos_match, gt_match)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, null(r.MappingStatus), null(r.SourceChrom), nullInt(r.SourcePos), null(r.SourceAlleles),
			null(r.Flip), null(r.Swap), null(r.TargetChrom), nullInt(r.TargetPos), null(r.TargetRef),
			null(r.TargetAlt), null(r.PosMatch), null(r.GTMatch))
		require.NoError(d.t, err)
	}
	return d
}

// AddSource inserts rows into the source build table.
func (d *DB) AddSource(rows ...Annotation) *DB {
	return d.addAnnotations("hg19_vep", rows)
}

// AddTarget inserts rows into the target build table.
func (d *DB) AddTarget(rows ...Annotation) *DB {
	return d.addAnnotations("hg38_vep", rows)
}

func (d *DB) addAnnotations(table string, rows []Annotation) *DB {
	d.t.Helper()
	for _, r := range rows {
		_, err := d.DB.Exec(`INSERT INTO `+table+` (chrom, pos, allele, feature_type, feature, symbol,
			consequence, impact, mane_select, mane_plus_clinical, canonical, hgvsc, hgvsp, sift, polyphen, clin_sig)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			null(r.Chrom), r.Pos, null(r.Allele), null(r.FeatureType), null(r.Feature), null(r.Symbol),
			null(r.Consequence), null(r.Impact), null(r.MANESelect), null(r.MANEPlusClinical),
			null(r.Canonical), null(r.HGVSc), null(r.HGVSp), null(r.SIFT), null(r.PolyPhen), null(r.ClinSig))
		require.NoError(d.t, err)
	}
	return d
}

// SNV returns a mapped comparison row for a single-base substitution lifted to targetPos.
func SNV(id int64, chrom string, pos int64, ref, alt string, targetPos int64) Comparison {
	return Comparison{
		ID:            id,
		MappingStatus: "UNIQUE",
		SourceChrom:   chrom,
		SourcePos:     pos,
		SourceAlleles: ref + "/" + alt,
		TargetChrom:   chrom,
		TargetPos:     targetPos,
		TargetRef:     ref,
		TargetAlt:     alt,
		PosMatch:      "1",
		GTMatch:       "1",
	}
}

// Transcript returns a Transcript row with the given identity and impact.
func Transcript(chrom string, pos int64, allele, feature, symbol, consequence, impact string) Annotation {
	return Annotation{
		Chrom:       chrom,
		Pos:         pos,
		Allele:      allele,
		FeatureType: "Transcript",
		Feature:     feature,
		Symbol:      symbol,
		Consequence: consequence,
		Impact:      impact,
	}
}

func null(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(n int64) any {
	if n == 0 {
		return nil
	}
	return n
}
