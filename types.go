package hyperspace

import (
	"context"
	"math"
	"math/rand"

	"golang.org/x/exp/constraints"
)

// ParameterRange is the optimizer's view of a numeric dimension: an inclusive
// [Min, Max] range. Real.Range and Integer.Range convert leaf dimensions into
// it at the optimizer boundary.
//
// Type Parameter:
//   - T: The numeric type for this parameter range (int or float64)
//
// Usage:
//
//	lr := hyperspace.MustReal(1e-4, 1e-1, hyperspace.WithPrior(hyperspace.LogUniform))
//	r := lr.Range() // ParameterRange[float64]{Min: 0.0001, Max: 0.1}
type ParameterRange[T constraints.Integer | constraints.Float] struct {
	// Min defines the minimum allowed value (inclusive).
	Min T

	// Max defines the maximum allowed value (inclusive).
	Max T
}

// Width returns Max - Min as a float64.
func (r ParameterRange[T]) Width() float64 { return float64(r.Max) - float64(r.Min) }

// Log10 returns the range in log10 units. Min must be positive.
func (r ParameterRange[T]) Log10() ParameterRange[float64] {
	return ParameterRange[float64]{Min: math.Log10(float64(r.Min)), Max: math.Log10(float64(r.Max))}
}

// Normalize maps x into [0, 1] relative to the range. A zero-width range
// maps every x to 0.
func (r ParameterRange[T]) Normalize(x float64) float64 {
	w := r.Width()
	if w == 0 {
		return 0
	}

	return (x - float64(r.Min)) / w
}

// Uniform draws a float64 uniformly from the range.
func (r ParameterRange[T]) Uniform(rng *rand.Rand) float64 {
	return float64(r.Min) + rng.Float64()*r.Width()
}

// Point is one candidate in a space, index-aligned with its dimensions:
// float64 for Real, int for Integer and string for Categorical.
type Point []any

// Objective is the function being minimized over a leaf space.
//
// Returns:
//   - float64: objective value, lower is better
//   - error: non-nil marks the evaluation as failed. Failed evaluations are
//     counted but never fed to the surrogate model.
//
// Usage example:
//
//	objective := func(ctx context.Context, p hyperspace.Point) (float64, error) {
//	    lr := p[0].(float64)
//	    layers := p[1].(int)
//	    return trainAndValidate(ctx, lr, layers)
//	}
type Objective func(ctx context.Context, p Point) (float64, error)

// ProgressUpdate represents the current state of one optimization run.
type ProgressUpdate struct {
	// Rank is the leaf (worker) index the run belongs to.
	Rank int

	// Phase is "InitialSampling" or "Optimization".
	Phase string

	// CurrentIteration is the current iteration number within the phase.
	CurrentIteration int

	// TotalIterations is the number of iterations of the phase.
	TotalIterations int

	// CurrentParams holds the point just evaluated.
	CurrentParams Point

	// CurrentBestParams holds the best point found so far.
	CurrentBestParams Point

	// CurrentBestValue holds the best objective value found so far.
	CurrentBestValue float64

	// LastValue holds the objective value of the last evaluation.
	LastValue float64

	// LastErr holds the error of the last evaluation, if it failed.
	LastErr error
}

// AcquisitionFunc scores a candidate from the surrogate model's prediction.
// Lower values indicate more promising points.
//
// Built-in acquisition functions:
//   - UCB: Upper Confidence Bound
//   - ProbabilityOfImprovement: Probability of finding better value
//   - ExpectedImprovement: Expected magnitude of improvement
//   - ThompsonSampling: Random sampling from posterior
type AcquisitionFunc func(mean, variance float64, params AcquisitionParams) float64

// AcquisitionParams holds the parameters the acquisition functions read.
type AcquisitionParams struct {
	// Beta controls the exploration-exploitation trade-off of UCB.
	// Typical values range from 0.1 to 5.0.
	Beta float64

	// Xi is the minimum improvement PI and EI look for.
	// Typical values range from 0.01 to 0.1.
	Xi float64

	// BestSoFar is the best (lowest) objective value observed. The optimizer
	// keeps it current; it does not need to be set.
	BestSoFar float64

	// RandomState is used by Thompson Sampling. The optimizer sets a
	// per-run generator, so it does not need to be set either.
	RandomState *rand.Rand
}

// OptimizationConfig controls one optimization run over a leaf space.
//
// Usage example:
//
//	config := hyperspace.DefaultConfig()
//	config.Iterations = 100
//	config.AcquisitionFunc = hyperspace.ExpectedImprovement
//	results, err := hyperspace.OptimizeLeaves(ctx, config, partitioning.Leaves, objective)
//
// Note:
//   - Runs never share random state: each leaf is seeded with Seed + rank.
type OptimizationConfig struct {
	// Iterations is the number of model-guided steps after initial sampling.
	// Recommended range: 20-200
	Iterations int

	// InitialSamples is the number of random points evaluated before the
	// model is consulted.
	// Recommended range: 5-20
	InitialSamples int

	// NumCandidates is the number of random candidates scored per iteration.
	// Recommended range: 50-500
	NumCandidates int

	// AcquisitionFunc selects the next point among the candidates.
	AcquisitionFunc AcquisitionFunc

	// AcqParams holds the parameters for the acquisition function.
	AcqParams AcquisitionParams

	// KernelWidth is the RBF kernel width of the surrogate model, in encoded
	// units (see Transform).
	KernelWidth float64

	// Seed seeds the random generator of each run.
	Seed int64

	// ProgressChan receives progress updates. Updates are dropped when the
	// channel is full. If nil, no updates are sent.
	ProgressChan chan<- ProgressUpdate

	// Logger, when set, logs every evaluation at debug level.
	Logger *Logger

	// Metrics, when set, records every evaluation.
	Metrics MetricsCollector
}

// Result is the outcome of one optimization run.
type Result struct {
	// Rank is the leaf index the run explored.
	Rank int

	// Best is the best point found.
	Best Point

	// BestValue is the objective value at Best.
	BestValue float64

	// Evaluations is the number of objective calls.
	Evaluations int

	// Failures is the number of objective calls that returned an error.
	Failures int
}
