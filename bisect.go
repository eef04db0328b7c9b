package hyperspace

import (
	"fmt"
	"math"
	"slices"

	"golang.org/x/exp/constraints"
)

// Bisection is the result of splitting one dimension: two children of the
// parent's kind and any non-fatal warnings raised on the way.
type Bisection struct {
	// Low starts at the parent's lower bound (or first category).
	Low Dimension

	// High ends at the parent's upper bound (or last category).
	High Dimension

	Warnings []Warning
}

// Bisect splits d into two overlapping children of the same kind.
//
// For numeric dimensions with half-width h = (high-low)/2 and overlap o:
//
//	low  child: [low, low + h + h*o]
//	high child: [high - (h + h*o), high]
//
// Integer children round inward: the low child's upper bound is floored and
// the high child's lower bound is ceiled, so both stay inside the parent.
// Offsets are computed in integer arithmetic and clamped to the parent, so
// bounds beyond 2^53 are exact.
//
// Categorical children take h = floor(n/2) plus ceil(h*o) categories from
// each end, preserving the original order. Prior weights are sliced along
// with the categories.
//
// Parameters:
// - d: The dimension to split. Real, Integer and Categorical are supported
//
// Returns:
// - Bisection: The two children and any warnings
// - error: Non-nil only for a dimension type outside the closed set
//
// Usage example:
//
//	dropout := hyperspace.MustReal(0, 1, hyperspace.WithOverlap(0.5))
//	b, err := hyperspace.Bisect(dropout)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(b.Low, b.High) // [0, 0.75] and [0.25, 1]
//
// Important notes:
// - A half-width below one yields a *DegenerateIntervalWarning; the children
//   are still returned
// - An odd category count with too little overlap leaves the middle category
//   out of both children and yields an *UncoveredCategoryWarning
// - Fixed dimensions are returned unchanged on both sides
// - The parent is never modified
func Bisect(d Dimension) (Bisection, error) {
	if d.IsFixed() {
		return Bisection{Low: d, High: d}, nil
	}

	switch v := d.(type) {
	case Real:
		return bisectReal(v), nil
	case Integer:
		return bisectInteger(v), nil
	case Categorical:
		return bisectCategorical(v), nil
	default:
		return Bisection{}, fmt.Errorf("unsupported dimension type %T", d)
	}
}

//////
// Per-kind bisectors.
//////

func bisectReal(r Real) Bisection {
	half, extra := span(r.low, r.high, r.overlap)

	// Both inner bounds derive from one midpoint so that a zero overlap
	// yields children meeting exactly.
	mid := r.low + half

	b := Bisection{
		Low:  r.withBounds(r.low, min(mid+extra, r.high)),
		High: r.withBounds(max(mid-extra, r.low), r.high),
	}

	if half < 1 {
		b.Warnings = append(b.Warnings, degenerate(r, half))
	}

	return b
}

func bisectInteger(i Integer) Bisection {
	half, extra := span(i.low, i.high, i.overlap)
	step := i.reach(half + extra)

	// Offsets are applied in integer arithmetic; float64 cannot represent
	// bounds beyond 2^53 exactly.
	b := Bisection{
		Low:  i.withBounds(i.low, i.low+step),
		High: i.withBounds(i.high-step, i.high),
	}

	if half < 1 {
		b.Warnings = append(b.Warnings, degenerate(i, half))
	}

	return b
}

func bisectCategorical(c Categorical) Bisection {
	n := len(c.categories)
	half := n / 2
	extra := int(math.Ceil(float64(half) * c.overlap))

	// A single category still has to populate both children.
	take := max(half+extra, 1)

	b := Bisection{
		Low:  c.withCategories(firstN(c.categories, take), firstN(c.weights, take)),
		High: c.withCategories(lastN(c.categories, take), lastN(c.weights, take)),
	}

	if half < 1 {
		b.Warnings = append(b.Warnings, degenerate(c, float64(half)))
	}

	if 2*take < n {
		b.Warnings = append(b.Warnings, &UncoveredCategoryWarning{
			Dimension: c.name,
			Category:  c.categories[n/2],
		})
	}

	return b
}

//////
// Helpers.
//////

// reach floors r into an offset from either bound, never past the width of
// the range.
func (i Integer) reach(r float64) int {
	width := i.high - i.low
	if r >= float64(width) {
		return width
	}

	return min(int(math.Floor(r)), width)
}

// span returns the half-width of [low, high] and the share of it each child
// extends past the midpoint. The difference is taken in T so that integer
// bounds far from zero keep their exact distance.
func span[T constraints.Integer | constraints.Float](low, high T, overlap float64) (half, extra float64) {
	half = math.Abs(float64(high-low)) / 2

	return half, half * overlap
}

func firstN[T any](s []T, n int) []T {
	if s == nil {
		return nil
	}

	return slices.Clone(s[:n])
}

// lastN reverses s, takes its first n elements and reverses them back, so
// the result is the last n elements of s in their original order.
func lastN[T any](s []T, n int) []T {
	if s == nil {
		return nil
	}

	reversed := slices.Clone(s)
	slices.Reverse(reversed)

	out := slices.Clone(reversed[:n])
	slices.Reverse(out)

	return out
}

func degenerate(d Dimension, half float64) Warning {
	return &DegenerateIntervalWarning{
		Dimension: d.Name(),
		Kind:      d.Kind(),
		HalfWidth: half,
	}
}
