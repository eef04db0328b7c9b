package hyperspace

import (
	"fmt"
	"math"
	"strings"
)

// Space is an ordered, immutable list of dimensions: the joint search space
// handed to an optimizer. The zero value is not usable; create one with
// NewSpace.
type Space struct {
	dims []Dimension
}

// NewSpace builds a space from dims, in order. It fails with
// *InvalidDomainError if dims is empty, contains a nil dimension, or repeats a
// non-empty name.
func NewSpace(dims ...Dimension) (Space, error) {
	if len(dims) == 0 {
		return Space{}, &InvalidDomainError{Reason: "a space needs at least one dimension"}
	}

	seen := make(map[string]struct{}, len(dims))
	for i, d := range dims {
		if d == nil {
			return Space{}, &InvalidDomainError{Reason: fmt.Sprintf("dimension %d is nil", i)}
		}

		if d.Name() == "" {
			continue
		}

		if _, dup := seen[d.Name()]; dup {
			return Space{}, &InvalidDomainError{Dimension: d.Name(), Kind: d.Kind(), Reason: "name is used by more than one dimension"}
		}

		seen[d.Name()] = struct{}{}
	}

	return Space{dims: append([]Dimension(nil), dims...)}, nil
}

// MustSpace is like NewSpace but panics on error.
func MustSpace(dims ...Dimension) Space {
	s, err := NewSpace(dims...)
	if err != nil {
		panic(err)
	}

	return s
}

// Len returns the number of dimensions.
func (s Space) Len() int { return len(s.dims) }

// Dimension returns the i-th dimension.
func (s Space) Dimension(i int) Dimension { return s.dims[i] }

// Dimensions returns a copy of the dimension list.
func (s Space) Dimensions() []Dimension { return append([]Dimension(nil), s.dims...) }

// Names returns the dimension names in order; unnamed dimensions are "x<i>".
func (s Space) Names() []string {
	names := make([]string, len(s.dims))
	for i, d := range s.dims {
		names[i] = d.Name()
		if names[i] == "" {
			names[i] = fmt.Sprintf("x%d", i)
		}
	}

	return names
}

func (s Space) String() string {
	parts := make([]string, len(s.dims))
	for i, d := range s.dims {
		parts[i] = d.String()
	}

	return "Space[" + strings.Join(parts, ", ") + "]"
}

// Split is the result of bisecting every dimension of a space.
type Split struct {
	// Low holds the low child of every dimension.
	Low Space

	// High holds the high child of every dimension.
	High Space

	Warnings []Warning
}

// Bisect applies Bisect to each dimension independently and pairs the low
// children into one space and the high children into the other. Dimension
// count, order, names and kinds are preserved; fixed dimensions are copied
// unchanged into both children.
func (s Space) Bisect() (Split, error) {
	return s.bisect(nil, nil)
}

// BisectWithOverlap is like Bisect but uses overlap for every dimension
// instead of each dimension's own fraction.
func (s Space) BisectWithOverlap(overlap float64) (Split, error) {
	if math.IsNaN(overlap) || overlap < 0 || overlap > 1 {
		return Split{}, fmt.Errorf("%w: %g is outside [0, 1]", ErrInvalidOverlap, overlap)
	}

	return s.bisect(&overlap, nil)
}

// bisect splits every dimension, optionally overriding the overlap. observe,
// when non-nil, sees each non-fixed dimension with its bisection.
func (s Space) bisect(overlap *float64, observe func(Dimension, Bisection)) (Split, error) {
	if len(s.dims) == 0 {
		return Split{}, &InvalidDomainError{Reason: "a space needs at least one dimension"}
	}

	low := make([]Dimension, len(s.dims))
	high := make([]Dimension, len(s.dims))

	var warnings []Warning

	for i, d := range s.dims {
		override := overlap != nil && !d.IsFixed()
		if override {
			d = d.withOverlap(*overlap)
		}

		b, err := Bisect(d)
		if err != nil {
			return Split{}, fmt.Errorf("dimension %s: %w", displayName(d.Name()), err)
		}

		// Keep the dimension's own overlap on the children so a later level
		// without an override behaves as configured.
		if override {
			b.Low = b.Low.withOverlap(s.dims[i].Overlap())
			b.High = b.High.withOverlap(s.dims[i].Overlap())
		}

		if observe != nil && !d.IsFixed() {
			observe(d, b)
		}

		low[i], high[i] = b.Low, b.High
		warnings = append(warnings, b.Warnings...)
	}

	return Split{Low: Space{dims: low}, High: Space{dims: high}, Warnings: warnings}, nil
}
