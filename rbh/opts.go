package rbh

import (
	"fmt"
	"math"

	"github.com/grailbio/rbh/encoding/blasttab"
)

// Thresholds decide whether a hit may compete for best hit of its query. The
// same value is used for both search directions.
type Thresholds struct {
	// MinIdentity is the lowest accepted percent identity, in [0,100].
	MinIdentity float64
	// MaxEValue is the largest accepted e-value, >= 0.
	MaxEValue float64
	// MinCoverage is the lowest accepted query coverage (see
	// blasttab.Hit.Coverage), in [0,1]. Zero disables the check. Hits whose
	// layout lacks coverage columns are rejected when it is enabled.
	MinCoverage float64
}

// Opts configures a run.
type Opts struct {
	Thresholds
	// Strict makes the first malformed hit record fail the run. By default
	// malformed records are logged, counted and skipped.
	Strict bool
	// MaxLoggedMalformed caps the number of malformed records logged
	// individually per input. The rest are only counted.
	MaxLoggedMalformed int
}

// DefaultOpts sets the default values to Opts.
var DefaultOpts = Opts{
	Thresholds: Thresholds{
		MinIdentity: 90,   // -min-identity
		MaxEValue:   1e-5, // -max-evalue
		MinCoverage: 0,    // -min-coverage
	},
	Strict:             false, // -strict
	MaxLoggedMalformed: 10,
}

// ThresholdError reports a threshold outside its valid range.
type ThresholdError struct {
	Field string
	Value float64
	Want  string
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("rbh: %s=%v, want %s", e.Field, e.Value, e.Want)
}

// Validate checks the thresholds. It must be called before any hit is
// processed; an invalid value is fatal to the run.
func (t Thresholds) Validate() error {
	if math.IsNaN(t.MinIdentity) || t.MinIdentity < 0 || t.MinIdentity > 100 {
		return &ThresholdError{"min identity", t.MinIdentity, "a value in [0,100]"}
	}
	if math.IsNaN(t.MaxEValue) || t.MaxEValue < 0 {
		return &ThresholdError{"max e-value", t.MaxEValue, "a non-negative value"}
	}
	if math.IsNaN(t.MinCoverage) || t.MinCoverage < 0 || t.MinCoverage > 1 {
		return &ThresholdError{"min coverage", t.MinCoverage, "a value in [0,1]"}
	}
	return nil
}

// ValidateColumns checks that a hit layout carries what the thresholds need.
func (t Thresholds) ValidateColumns(cols *blasttab.Columns) error {
	if t.MinCoverage > 0 && !cols.HasCoverage() {
		return &blasttab.ColumnError{
			Format: cols.Format(),
			Reason: "min coverage is set, but qstart, qend, sstart, send or qlen is missing",
		}
	}
	return nil
}

// Accept reports whether the hit passes the thresholds.
func (t Thresholds) Accept(h blasttab.Hit) bool {
	if h.PercentIdentity < t.MinIdentity || h.EValue > t.MaxEValue {
		return false
	}
	if t.MinCoverage > 0 {
		cov, ok := h.Coverage()
		if !ok || cov < t.MinCoverage {
			return false
		}
	}
	return true
}
