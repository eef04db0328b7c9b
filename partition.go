package hyperspace

import (
	"context"
	"fmt"
	"math"
	"math/bits"
	"time"
)

// MaxDepth bounds the partition tree. 2^20 leaves is far beyond any worker
// count the tree is meant to serve.
const MaxDepth = 20

//////
// Options.
//////

type partitionOptions struct {
	overlap *float64
	levels  []float64
	logger  *Logger
	metrics MetricsCollector
}

// PartitionOption configures Partition and PartitionWorkers.
type PartitionOption func(*partitionOptions)

// WithUniformOverlap overrides every dimension's overlap at every level.
func WithUniformOverlap(overlap float64) PartitionOption {
	return func(o *partitionOptions) { o.overlap = &overlap }
}

// WithLevelOverlaps overrides every dimension's overlap per level: overlaps[l]
// is used at level l. The count must equal the depth.
func WithLevelOverlaps(overlaps ...float64) PartitionOption {
	return func(o *partitionOptions) { o.levels = append([]float64(nil), overlaps...) }
}

// WithLogger logs warnings and the partition outcome.
func WithLogger(l *Logger) PartitionOption {
	return func(o *partitionOptions) { o.logger = l }
}

// WithMetrics records bisection and partition metrics.
func WithMetrics(m MetricsCollector) PartitionOption {
	return func(o *partitionOptions) { o.metrics = m }
}

//////
// Partition tree.
//////

// Partitioning is the set of leaf spaces produced by a partition tree.
type Partitioning struct {
	// Depth is the number of bisection levels.
	Depth int

	// Leaves holds 2^Depth spaces. Leaf i is assigned to worker rank i; the
	// bits of i, most significant first, give the path taken at each level
	// (0 = low child, 1 = high child).
	Leaves []Space

	// Warnings collects every non-fatal warning, tagged with its level.
	Warnings []Warning
}

// Workers returns the number of leaves.
func (p *Partitioning) Workers() int { return len(p.Leaves) }

// Leaf returns the space assigned to rank.
func (p *Partitioning) Leaf(rank int) (Space, error) {
	if rank < 0 || rank >= len(p.Leaves) {
		return Space{}, fmt.Errorf("rank %d is outside [0, %d)", rank, len(p.Leaves))
	}

	return p.Leaves[rank], nil
}

// DepthForWorkers returns log2(workers). It fails with
// *InvalidPartitionDepthError unless workers is a positive power of two no
// larger than 2^MaxDepth.
func DepthForWorkers(workers int) (int, error) {
	switch {
	case workers < 1:
		return 0, &InvalidPartitionDepthError{Workers: workers, Reason: "must be at least 1"}
	case workers&(workers-1) != 0:
		return 0, &InvalidPartitionDepthError{Workers: workers, Reason: "must be a power of two"}
	}

	depth := bits.TrailingZeros(uint(workers))
	if depth > MaxDepth {
		return 0, &InvalidPartitionDepthError{Workers: workers, Reason: fmt.Sprintf("exceeds 2^%d", MaxDepth)}
	}

	return depth, nil
}

// PartitionWorkers partitions space into one leaf per worker. workers must
// be a power of two.
func PartitionWorkers(space Space, workers int, opts ...PartitionOption) (*Partitioning, error) {
	depth, err := DepthForWorkers(workers)
	if err != nil {
		return nil, err
	}

	return Partition(space, depth, opts...)
}

// Partition bisects space depth times, yielding 2^depth leaves.
//
// Every level bisects every non-fixed dimension of every current space (see
// Space.Bisect). Leaves are ordered by the binary path taken from the root,
// most significant level first, so leaf i is the space of worker rank i.
//
// Parameters:
// - space: The search space to partition
// - depth: Number of bisection levels, in [0, MaxDepth]
// - opts: Overlap overrides (WithUniformOverlap or WithLevelOverlaps), a
//   logger and a metrics collector
//
// Returns:
// - *Partitioning: The 2^depth leaves and every warning, tagged with its level
// - error: *InvalidPartitionDepthError, ErrInvalidOverlap or a bisection error
//
// Usage example:
//
//	space := hyperspace.MustSpace(
//	    hyperspace.MustReal(1e-4, 1e-1, hyperspace.WithName("lr")),
//	    hyperspace.MustInteger(1, 8, hyperspace.WithName("layers")),
//	)
//
//	p, err := hyperspace.Partition(space, 2, hyperspace.WithLevelOverlaps(0.5, 0.25))
//	if err != nil {
//	    return err
//	}
//
//	mine, _ := p.Leaf(rank)
//
// Important notes:
// - The computation is pure and single-threaded
// - The input space is never modified
// - Invalid input fails before any bisection and no partial result is
//   returned
// - Depth 0 yields the input space as the only leaf
func Partition(space Space, depth int, opts ...PartitionOption) (*Partitioning, error) {
	o := partitionOptions{metrics: NoopMetricsCollector{}}
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()

	p, err := partition(space, depth, o)

	o.metrics.RecordPartition(depth, len(p.leaves()), time.Since(start), err)

	if o.logger != nil {
		ctx := context.Background()

		if p != nil {
			for _, w := range p.Warnings {
				o.logger.LogWarning(ctx, w)
			}
		}

		o.logger.LogPartition(ctx, depth, len(p.leaves()), len(p.warnings()), err)
	}

	if err != nil {
		return nil, err
	}

	return p, nil
}

func partition(space Space, depth int, o partitionOptions) (*Partitioning, error) {
	if depth < 0 {
		return nil, &InvalidPartitionDepthError{Depth: depth, Reason: "must not be negative"}
	}

	if depth > MaxDepth {
		return nil, &InvalidPartitionDepthError{Depth: depth, Reason: fmt.Sprintf("must not exceed %d", MaxDepth)}
	}

	if space.Len() == 0 {
		return nil, &InvalidDomainError{Reason: "a space needs at least one dimension"}
	}

	overlaps, err := levelOverlaps(depth, o)
	if err != nil {
		return nil, err
	}

	observe := func(d Dimension, b Bisection) {
		degenerate := false
		for _, w := range b.Warnings {
			if _, ok := w.(*DegenerateIntervalWarning); ok {
				degenerate = true
			}
		}

		o.metrics.RecordBisection(d.Kind(), degenerate)
	}

	p := &Partitioning{Depth: depth, Leaves: []Space{space}}

	for level := range depth {
		next := make([]Space, 0, 2*len(p.Leaves))

		for _, s := range p.Leaves {
			split, err := s.bisect(overlaps[level], observe)
			if err != nil {
				return nil, fmt.Errorf("level %d: %w", level, err)
			}

			next = append(next, split.Low, split.High)

			for _, w := range split.Warnings {
				p.Warnings = append(p.Warnings, w.AtLevel(level))
			}
		}

		p.Leaves = next
	}

	return p, nil
}

// levelOverlaps resolves the per-level override; a nil entry keeps each
// dimension's own overlap.
func levelOverlaps(depth int, o partitionOptions) ([]*float64, error) {
	overlaps := make([]*float64, depth)

	if o.levels != nil && o.overlap != nil {
		return nil, fmt.Errorf("%w: uniform and per-level overlaps are mutually exclusive", ErrInvalidOverlap)
	}

	if o.levels != nil && len(o.levels) != depth {
		return nil, fmt.Errorf("%w: %d per-level overlaps for depth %d", ErrInvalidOverlap, len(o.levels), depth)
	}

	for l := range overlaps {
		switch {
		case o.levels != nil:
			overlaps[l] = &o.levels[l]
		case o.overlap != nil:
			overlaps[l] = o.overlap
		}

		if v := overlaps[l]; v != nil && (math.IsNaN(*v) || *v < 0 || *v > 1) {
			return nil, fmt.Errorf("%w: level %d overlap %g is outside [0, 1]", ErrInvalidOverlap, l, *v)
		}
	}

	return overlaps, nil
}

func (p *Partitioning) leaves() []Space {
	if p == nil {
		return nil
	}

	return p.Leaves
}

func (p *Partitioning) warnings() []Warning {
	if p == nil {
		return nil
	}

	return p.Warnings
}
