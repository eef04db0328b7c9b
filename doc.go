// Package hyperspace partitions a hyperparameter search space into
// overlapping sub-spaces so that independent workers (for example MPI ranks)
// can each run Bayesian optimization over a bounded slice of the domain while
// still finding optima near the partition boundaries.
//
// # Dimensions
//
// A search space is an ordered list of dimensions of three kinds:
//
//   - Real: a continuous range with a uniform or log-uniform prior
//   - Integer: an inclusive integer range
//   - Categorical: an ordered list of categories with optional prior weights
//
// Every dimension carries an overlap fraction in [0, 1] (0.25 by default).
// Dimensions are immutable values validated at construction:
//
//	lr, err := hyperspace.NewReal(1e-4, 1e-1,
//	    hyperspace.WithName("learning_rate"),
//	    hyperspace.WithPrior(hyperspace.LogUniform),
//	)
//
// # Bisection
//
// Bisect splits one dimension into two children of the same kind. With
// half-width h and overlap o, the low child spans [low, low+h+h*o] and the
// high child spans [high-(h+h*o), high]. Integer children round inward.
// Categorical children take floor(n/2) plus ceil(floor(n/2)*o) categories
// from each end, preserving order. Space.Bisect does this for every
// dimension at once, pairing low children and high children into two spaces.
//
// Degenerate bisections (half-width below one) and categories dropped by an
// odd split are reported as Warning values next to the result. They never
// abort partitioning.
//
// # Partition tree
//
// Partition applies Space.Bisect recursively, yielding 2^depth leaves in
// worker rank order:
//
//	p, err := hyperspace.PartitionWorkers(space, 8)
//	if err != nil {
//	    return err
//	}
//
//	leaf, _ := p.Leaf(rank)
//
// # Optimization
//
// Leaves are valid search spaces for the bundled Gaussian-process optimizer.
// OptimizeLeaves runs one optimization per leaf concurrently:
//
//	results, err := hyperspace.OptimizeLeaves(ctx, hyperspace.DefaultConfig(), p.Leaves, objective)
//
// Four acquisition functions are available: UCB (the default),
// ProbabilityOfImprovement, ExpectedImprovement and ThompsonSampling.
//
// # Configuration
//
// LoadConfig reads a YAML document describing the dimensions and the worker
// count; see Config. The hyperspace command partitions such a document and
// prints the leaf assigned to each rank.
//
// # Thread Safety
//
// Dimensions, spaces and partitionings are immutable and safe to share.
// Partitioning itself is a pure, synchronous computation. Optimization runs
// own their random state and surrogate model.
package hyperspace
