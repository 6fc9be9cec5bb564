package scoring

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default_weights.yaml
var defaultWeights []byte

// ErrInvalidWeights is returned for any weight table that fails validation.
var ErrInvalidWeights = errors.New("invalid weight table")

// Level is the severity tier of a rule hit.
type Level string

const (
	LevelLow      Level = "low"
	LevelModerate Level = "moderate"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Rank returns numeric rank for level comparison (higher = more severe).
func (l Level) Rank() int {
	switch l {
	case LevelCritical:
		return 4
	case LevelHigh:
		return 3
	case LevelModerate:
		return 2
	case LevelLow:
		return 1
	default:
		return 0
	}
}

// Overrides are the multiplicative factors applied to a variant's summed points.
type Overrides struct {
	Boost       float64 `yaml:"boost"`
	Suppression float64 `yaml:"suppression"`
}

type weightFile struct {
	Version   string             `yaml:"version"`
	Weights   map[string]float64 `yaml:"weights"`
	Levels    map[string]Level   `yaml:"levels"`
	Overrides Overrides          `yaml:"overrides"`
}

// WeightTable is an immutable, validated set of rule weights, levels and overrides.
type WeightTable struct {
	version     string
	weights     map[string]float64
	levels      map[string]Level
	overrides   Overrides
	fingerprint string
}

// DefaultWeights returns the weight table shipped with the binary.
func DefaultWeights() (*WeightTable, error) {
	return ParseWeights(defaultWeights)
}

// LoadWeights reads and validates a YAML weight table.
func LoadWeights(path string) (*WeightTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weight table: %w", err)
	}
	w, err := ParseWeights(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

// ParseWeights decodes and validates a YAML weight table. Unknown fields are rejected.
func ParseWeights(data []byte) (*WeightTable, error) {
	var wf weightFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&wf); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidWeights, err)
	}
	if err := wf.validate(); err != nil {
		return nil, err
	}

	canonical, err := yaml.Marshal(&wf)
	if err != nil {
		return nil, fmt.Errorf("encode weight table: %w", err)
	}
	sum := sha256.Sum256(canonical)

	return &WeightTable{
		version:     wf.Version,
		weights:     wf.Weights,
		levels:      wf.Levels,
		overrides:   wf.Overrides,
		fingerprint: hex.EncodeToString(sum[:]),
	}, nil
}

func (wf *weightFile) validate() error {
	var problems []string
	if strings.TrimSpace(wf.Version) == "" {
		problems = append(problems, "missing version")
	}

	known := make(map[string]bool)
	for _, key := range WeightKeys() {
		known[key] = true
		w, ok := wf.Weights[key]
		switch {
		case !ok:
			problems = append(problems, "missing weight "+key)
		case w < 0:
			problems = append(problems, fmt.Sprintf("negative weight %s=%g", key, w))
		case strings.HasPrefix(key, "missing_") && w == 0:
			problems = append(problems, "weight "+key+" must be positive")
		}
		l, ok := wf.Levels[key]
		switch {
		case !ok:
			problems = append(problems, "missing level "+key)
		case l.Rank() == 0:
			problems = append(problems, fmt.Sprintf("unknown level %s=%q", key, l))
		}
	}
	for key := range wf.Weights {
		if !known[key] {
			problems = append(problems, "unknown weight "+key)
		}
	}
	for key := range wf.Levels {
		if !known[key] {
			problems = append(problems, "unknown level key "+key)
		}
	}

	if wf.Overrides.Boost <= 1 {
		problems = append(problems, fmt.Sprintf("boost %g must be greater than 1", wf.Overrides.Boost))
	}
	if wf.Overrides.Suppression <= 0 || wf.Overrides.Suppression >= 1 {
		problems = append(problems, fmt.Sprintf("suppression %g must be between 0 and 1", wf.Overrides.Suppression))
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return fmt.Errorf("%w: %s", ErrInvalidWeights, strings.Join(problems, "; "))
	}
	return nil
}

// Version returns the weight table version string.
func (w *WeightTable) Version() string { return w.version }

// Weight returns the points for a key, 0 for unknown keys.
func (w *WeightTable) Weight(key string) float64 { return w.weights[key] }

// Level returns the severity level for a key, LevelLow for unknown keys.
func (w *WeightTable) Level(key string) Level {
	if l, ok := w.levels[key]; ok {
		return l
	}
	return LevelLow
}

// Overrides returns the boost and suppression factors.
func (w *WeightTable) Overrides() Overrides { return w.overrides }

// Fingerprint returns the SHA-256 of the table's canonical encoding.
// Two tables with equal content share a fingerprint regardless of key order or formatting.
func (w *WeightTable) Fingerprint() string { return w.fingerprint }
