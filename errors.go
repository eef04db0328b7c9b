package hyperspace

import (
	"errors"
	"fmt"
)

//////
// Sentinels.
//////

var (
	// ErrInvalidDomain is matched by every *InvalidDomainError.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrInvalidPartitionDepth is matched by every *InvalidPartitionDepthError.
	ErrInvalidPartitionDepth = errors.New("invalid partition depth")

	// ErrInvalidOverlap is returned when an overlap override is outside [0, 1]
	// or when per-level overlaps do not match the partition depth.
	ErrInvalidOverlap = errors.New("invalid overlap")

	// ErrNoSuccessfulEvaluations is returned by Optimize when every objective
	// evaluation failed.
	ErrNoSuccessfulEvaluations = errors.New("no successful evaluations")

	// ErrNonFiniteValue marks an evaluation whose objective returned NaN or
	// an infinity. Such evaluations count as failures.
	ErrNonFiniteValue = errors.New("objective value is not finite")
)

//////
// Fatal errors.
//////

// InvalidDomainError indicates a dimension (or space) that cannot be
// constructed: inverted or equal bounds, an empty or repeated category list,
// an out-of-range overlap, or an option that does not apply to the kind.
//
// It matches ErrInvalidDomain with errors.Is.
type InvalidDomainError struct {
	// Dimension is the offending dimension's name, empty if unnamed.
	Dimension string

	// Kind is the kind of the offending dimension.
	Kind Kind

	// Reason describes the violated constraint.
	Reason string
}

func (e *InvalidDomainError) Error() string {
	name := e.Dimension
	if name == "" {
		name = "<unnamed>"
	}

	return fmt.Sprintf("invalid %s dimension %s: %s", e.Kind, name, e.Reason)
}

// Is reports whether target is ErrInvalidDomain.
func (e *InvalidDomainError) Is(target error) bool { return target == ErrInvalidDomain }

// InvalidPartitionDepthError indicates a depth or worker count the partition
// tree cannot satisfy.
//
// It matches ErrInvalidPartitionDepth with errors.Is.
type InvalidPartitionDepthError struct {
	Depth   int
	Workers int
	Reason  string
}

func (e *InvalidPartitionDepthError) Error() string {
	if e.Workers != 0 {
		return fmt.Sprintf("invalid worker count %d: %s", e.Workers, e.Reason)
	}

	return fmt.Sprintf("invalid partition depth %d: %s", e.Depth, e.Reason)
}

// Is reports whether target is ErrInvalidPartitionDepth.
func (e *InvalidPartitionDepthError) Is(target error) bool {
	return target == ErrInvalidPartitionDepth
}

//////
// Warnings.
//////

// Warning is a non-fatal diagnostic produced while bisecting. Warnings never
// abort partitioning; they are returned next to the result so callers can log,
// collect or ignore them.
type Warning interface {
	error

	// DimensionName is the name of the dimension the warning refers to.
	DimensionName() string

	// AtLevel returns a copy of the warning tagged with a tree level.
	AtLevel(level int) Warning
}

// DegenerateIntervalWarning reports a bisection whose half-width (or
// half-count) is below one, so each child may hold a single value.
type DegenerateIntervalWarning struct {
	Dimension string
	Kind      Kind
	Level     int
	HalfWidth float64
}

func (w *DegenerateIntervalWarning) Error() string {
	return fmt.Sprintf("single-value hyperspace at dimension %s (%s, level %d, half-width %g)",
		displayName(w.Dimension), w.Kind, w.Level, w.HalfWidth)
}

// DimensionName implements Warning.
func (w *DegenerateIntervalWarning) DimensionName() string { return w.Dimension }

// AtLevel implements Warning.
func (w *DegenerateIntervalWarning) AtLevel(level int) Warning {
	c := *w
	c.Level = level

	return &c
}

// UncoveredCategoryWarning reports a categorical bisection that left the
// median category out of both children. It happens for an odd category count
// when the overlap rounds to zero extra categories.
type UncoveredCategoryWarning struct {
	Dimension string
	Level     int
	Category  string
}

func (w *UncoveredCategoryWarning) Error() string {
	return fmt.Sprintf("category %q of dimension %s is not covered by either child (level %d)",
		w.Category, displayName(w.Dimension), w.Level)
}

// DimensionName implements Warning.
func (w *UncoveredCategoryWarning) DimensionName() string { return w.Dimension }

// AtLevel implements Warning.
func (w *UncoveredCategoryWarning) AtLevel(level int) Warning {
	c := *w
	c.Level = level

	return &c
}

func displayName(name string) string {
	if name == "" {
		return "<unnamed>"
	}

	return name
}
