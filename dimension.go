package hyperspace

import (
	"fmt"
	"math"
	"strings"
)

//////
// Const, vars, types.
//////

// DefaultOverlap is the overlap fraction used when WithOverlap is not given.
const DefaultOverlap = 0.25

// Kind identifies the variant of a Dimension.
type Kind int

const (
	KindReal Kind = iota + 1
	KindInteger
	KindCategorical
)

func (k Kind) String() string {
	switch k {
	case KindReal:
		return "real"
	case KindInteger:
		return "integer"
	case KindCategorical:
		return "categorical"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Prior is the distribution used when sampling points of a Real dimension.
type Prior int

const (
	// Uniform samples points uniformly between the bounds.
	Uniform Prior = iota

	// LogUniform samples points uniformly between log10(low) and log10(high).
	LogUniform
)

func (p Prior) String() string {
	if p == LogUniform {
		return "log-uniform"
	}

	return "uniform"
}

// ParsePrior parses "uniform" or "log-uniform". The empty string is Uniform.
func ParsePrior(s string) (Prior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "uniform":
		return Uniform, nil
	case "log-uniform", "loguniform", "log_uniform":
		return LogUniform, nil
	default:
		return Uniform, fmt.Errorf("unknown prior %q", s)
	}
}

// Transform is how a dimension's values are presented to the optimizer's
// surrogate model.
type Transform int

const (
	// Identity leaves values untouched.
	Identity Transform = iota

	// Normalize scales numeric values into [0, 1].
	Normalize

	// OneHot encodes a category as a one-hot vector.
	OneHot
)

func (t Transform) String() string {
	switch t {
	case Normalize:
		return "normalize"
	case OneHot:
		return "onehot"
	default:
		return "identity"
	}
}

// ParseTransform parses "identity", "normalize" or "onehot". The empty string
// yields ok=false so callers can apply the kind's default.
func ParseTransform(s string) (t Transform, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Identity, false, nil
	case "identity":
		return Identity, true, nil
	case "normalize":
		return Normalize, true, nil
	case "onehot", "one-hot":
		return OneHot, true, nil
	default:
		return Identity, false, fmt.Errorf("unknown transform %q", s)
	}
}

// Dimension is one axis of a search space. The set of implementations is
// closed: Real, Integer and Categorical. Values are immutable; every
// derivation returns a new value.
type Dimension interface {
	Kind() Kind
	Name() string

	// Overlap is the fraction of the half-width (or half-count) the two
	// children of a bisection share.
	Overlap() float64

	// IsFixed reports whether the dimension is excluded from bisection.
	IsFixed() bool

	String() string

	withOverlap(overlap float64) Dimension
}

// common holds the attributes shared by every kind.
type common struct {
	name    string
	overlap float64
	fixed   bool
}

// Name returns the dimension label, possibly empty.
func (c common) Name() string { return c.name }

// Overlap returns the overlap fraction.
func (c common) Overlap() float64 { return c.overlap }

// IsFixed reports whether the dimension passes through bisection unchanged.
func (c common) IsFixed() bool { return c.fixed }

//////
// Options.
//////

type dimensionOptions struct {
	name         string
	overlap      float64
	fixed        bool
	prior        Prior
	priorSet     bool
	transform    Transform
	transformSet bool
	weights      []float64
}

// Option configures a Dimension at construction.
type Option func(*dimensionOptions)

// WithName labels the dimension, e.g. "learning_rate".
func WithName(name string) Option {
	return func(o *dimensionOptions) { o.name = name }
}

// WithOverlap sets the overlap fraction, in [0, 1]. Zero makes the children
// meet at the midpoint; one makes each child (approximately) the full domain.
func WithOverlap(overlap float64) Option {
	return func(o *dimensionOptions) { o.overlap = overlap }
}

// WithPrior sets the sampling prior of a Real dimension.
func WithPrior(p Prior) Option {
	return func(o *dimensionOptions) {
		o.prior = p
		o.priorSet = true
	}
}

// WithTransform sets the transform of any dimension.
func WithTransform(t Transform) Option {
	return func(o *dimensionOptions) {
		o.transform = t
		o.transformSet = true
	}
}

// WithWeights sets the prior weights of a Categorical dimension, aligned by
// index with its categories. Weights are relative; they need not sum to one.
func WithWeights(weights ...float64) Option {
	return func(o *dimensionOptions) {
		o.weights = append([]float64(nil), weights...)
	}
}

// Fixed excludes the dimension from bisection: it is carried unchanged into
// every child space.
func Fixed() Option {
	return func(o *dimensionOptions) { o.fixed = true }
}

func applyOptions(opts []Option) dimensionOptions {
	o := dimensionOptions{overlap: DefaultOverlap}
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

func (o dimensionOptions) common(kind Kind) (common, error) {
	if math.IsNaN(o.overlap) || o.overlap < 0 || o.overlap > 1 {
		return common{}, &InvalidDomainError{
			Dimension: o.name,
			Kind:      kind,
			Reason:    fmt.Sprintf("overlap %g is outside [0, 1]", o.overlap),
		}
	}

	return common{name: o.name, overlap: o.overlap, fixed: o.fixed}, nil
}

//////
// Real.
//////

// Real is a continuous dimension over [Low, High].
type Real struct {
	common

	low, high float64
	prior     Prior
	transform Transform
}

// NewReal creates a continuous dimension. It fails with *InvalidDomainError if
// high <= low, a bound is not finite, the overlap is outside [0, 1], or a
// log-uniform prior is requested with low <= 0.
func NewReal(low, high float64, opts ...Option) (Real, error) {
	o := applyOptions(opts)

	c, err := o.common(KindReal)
	if err != nil {
		return Real{}, err
	}

	invalid := func(format string, args ...any) (Real, error) {
		return Real{}, &InvalidDomainError{Dimension: o.name, Kind: KindReal, Reason: fmt.Sprintf(format, args...)}
	}

	switch {
	case math.IsNaN(low) || math.IsNaN(high) || math.IsInf(low, 0) || math.IsInf(high, 0):
		return invalid("bounds [%g, %g] must be finite", low, high)
	case high <= low:
		return invalid("the lower bound %g has to be less than the upper bound %g", low, high)
	case o.priorSet && o.prior == LogUniform && low <= 0:
		return invalid("log-uniform prior needs a positive lower bound, got %g", low)
	case o.transformSet && o.transform == OneHot:
		return invalid("transform %s does not apply", o.transform)
	case o.weights != nil:
		return invalid("weights do not apply")
	}

	return Real{common: c, low: low, high: high, prior: o.prior, transform: o.transform}, nil
}

// MustReal is like NewReal but panics on error. Use it for literals.
func MustReal(low, high float64, opts ...Option) Real {
	r, err := NewReal(low, high, opts...)
	if err != nil {
		panic(err)
	}

	return r
}

func (r Real) Kind() Kind           { return KindReal }
func (r Real) Low() float64         { return r.low }
func (r Real) High() float64        { return r.high }
func (r Real) Prior() Prior         { return r.prior }
func (r Real) Transform() Transform { return r.transform }

// Contains reports whether x lies within the bounds.
func (r Real) Contains(x float64) bool { return x >= r.low && x <= r.high }

// Range converts the dimension into the optimizer's range type.
func (r Real) Range() ParameterRange[float64] {
	return ParameterRange[float64]{Min: r.low, Max: r.high}
}

func (r Real) String() string {
	return fmt.Sprintf("Real(low=%g, high=%g, prior=%s, transform=%s)", r.low, r.high, r.prior, r.transform)
}

func (r Real) withBounds(low, high float64) Real {
	r.low, r.high = low, high

	return r
}

func (r Real) withOverlap(overlap float64) Dimension {
	r.overlap = overlap

	return r
}

//////
// Integer.
//////

// Integer is a discrete dimension over the inclusive range [Low, High].
type Integer struct {
	common

	low, high int
	transform Transform
}

// NewInteger creates a discrete dimension. It fails with *InvalidDomainError
// if high <= low, the range holds more values than an int can count, or the
// overlap is outside [0, 1].
func NewInteger(low, high int, opts ...Option) (Integer, error) {
	o := applyOptions(opts)

	c, err := o.common(KindInteger)
	if err != nil {
		return Integer{}, err
	}

	invalid := func(format string, args ...any) (Integer, error) {
		return Integer{}, &InvalidDomainError{Dimension: o.name, Kind: KindInteger, Reason: fmt.Sprintf(format, args...)}
	}

	switch {
	case high <= low:
		return invalid("the lower bound %d has to be less than the upper bound %d", low, high)
	case uint64(high)-uint64(low) >= math.MaxInt:
		return invalid("range [%d, %d] holds more than %d values", low, high, math.MaxInt)
	case o.priorSet:
		return invalid("prior %s does not apply", o.prior)
	case o.transformSet && o.transform == OneHot:
		return invalid("transform %s does not apply", o.transform)
	case o.weights != nil:
		return invalid("weights do not apply")
	}

	return Integer{common: c, low: low, high: high, transform: o.transform}, nil
}

// MustInteger is like NewInteger but panics on error.
func MustInteger(low, high int, opts ...Option) Integer {
	i, err := NewInteger(low, high, opts...)
	if err != nil {
		panic(err)
	}

	return i
}

func (i Integer) Kind() Kind           { return KindInteger }
func (i Integer) Low() int             { return i.low }
func (i Integer) High() int            { return i.high }
func (i Integer) Transform() Transform { return i.transform }

// Size is the number of values in the range.
func (i Integer) Size() int { return i.high - i.low + 1 }

// Contains reports whether x lies within the bounds.
func (i Integer) Contains(x int) bool { return x >= i.low && x <= i.high }

// Range converts the dimension into the optimizer's range type.
func (i Integer) Range() ParameterRange[int] {
	return ParameterRange[int]{Min: i.low, Max: i.high}
}

func (i Integer) String() string {
	return fmt.Sprintf("Integer(low=%d, high=%d, transform=%s)", i.low, i.high, i.transform)
}

func (i Integer) withBounds(low, high int) Integer {
	i.low, i.high = low, high

	return i
}

func (i Integer) withOverlap(overlap float64) Dimension {
	i.overlap = overlap

	return i
}

//////
// Categorical.
//////

// Categorical is a dimension over an ordered, repeat-free list of categories.
type Categorical struct {
	common

	categories []string
	weights    []float64
	transform  Transform
}

// NewCategorical creates a categorical dimension. Transform defaults to
// OneHot. It fails with *InvalidDomainError for an empty or repeated category
// list, mismatched or invalid weights, or an overlap outside [0, 1].
func NewCategorical(categories []string, opts ...Option) (Categorical, error) {
	o := applyOptions(opts)

	c, err := o.common(KindCategorical)
	if err != nil {
		return Categorical{}, err
	}

	invalid := func(format string, args ...any) (Categorical, error) {
		return Categorical{}, &InvalidDomainError{Dimension: o.name, Kind: KindCategorical, Reason: fmt.Sprintf(format, args...)}
	}

	if len(categories) == 0 {
		return invalid("at least one category is required")
	}

	seen := make(map[string]struct{}, len(categories))
	for _, cat := range categories {
		if _, dup := seen[cat]; dup {
			return invalid("category %q is repeated", cat)
		}

		seen[cat] = struct{}{}
	}

	if o.priorSet {
		return invalid("prior %s does not apply, use weights", o.prior)
	}

	if o.transformSet && o.transform == Normalize {
		return invalid("transform %s does not apply", o.transform)
	}

	if o.weights != nil {
		if len(o.weights) != len(categories) {
			return invalid("%d weights for %d categories", len(o.weights), len(categories))
		}

		var total float64
		for _, w := range o.weights {
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				return invalid("weight %g must be a finite non-negative number", w)
			}

			total += w
		}

		if total == 0 {
			return invalid("weights must not all be zero")
		}
	}

	transform := OneHot
	if o.transformSet {
		transform = o.transform
	}

	return Categorical{
		common:     c,
		categories: append([]string(nil), categories...),
		weights:    o.weights,
		transform:  transform,
	}, nil
}

// MustCategorical is like NewCategorical but panics on error.
func MustCategorical(categories []string, opts ...Option) Categorical {
	c, err := NewCategorical(categories, opts...)
	if err != nil {
		panic(err)
	}

	return c
}

func (c Categorical) Kind() Kind           { return KindCategorical }
func (c Categorical) Transform() Transform { return c.transform }
func (c Categorical) Len() int             { return len(c.categories) }

// Categories returns a copy of the categories in order.
func (c Categorical) Categories() []string { return append([]string(nil), c.categories...) }

// Weights returns a copy of the prior weights, or nil for a uniform prior.
func (c Categorical) Weights() []float64 {
	if c.weights == nil {
		return nil
	}

	return append([]float64(nil), c.weights...)
}

// Probabilities returns the weights normalized to sum to one. A uniform prior
// yields equal probabilities. A slice whose weights are all zero (possible
// after bisection) also falls back to uniform.
func (c Categorical) Probabilities() []float64 {
	p := make([]float64, len(c.categories))

	var total float64
	for _, w := range c.weights {
		total += w
	}

	if c.weights == nil || total == 0 {
		for i := range p {
			p[i] = 1 / float64(len(p))
		}

		return p
	}

	for i, w := range c.weights {
		p[i] = w / total
	}

	return p
}

// Index returns the position of category, or -1.
func (c Categorical) Index(category string) int {
	for i, cat := range c.categories {
		if cat == category {
			return i
		}
	}

	return -1
}

// Contains reports whether category belongs to the dimension.
func (c Categorical) Contains(category string) bool { return c.Index(category) >= 0 }

func (c Categorical) String() string {
	cats := c.categories
	if len(cats) > 7 {
		cats = append(append(append([]string(nil), cats[:3]...), "..."), cats[len(cats)-3:]...)
	}

	prior := "uniform"
	if c.weights != nil {
		w := make([]string, 0, len(c.weights))
		for i, v := range c.weights {
			if len(c.weights) > 7 && i == 3 {
				w = append(w, "...")
			}

			if len(c.weights) > 7 && i >= 3 && i < len(c.weights)-3 {
				continue
			}

			w = append(w, fmt.Sprintf("%g", v))
		}

		prior = "[" + strings.Join(w, ", ") + "]"
	}

	return fmt.Sprintf("Categorical(categories=[%s], prior=%s)", strings.Join(cats, ", "), prior)
}

func (c Categorical) withCategories(categories []string, weights []float64) Categorical {
	c.categories = categories
	c.weights = weights

	return c
}

func (c Categorical) withOverlap(overlap float64) Dimension {
	c.overlap = overlap

	return c
}
