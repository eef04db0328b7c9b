package hyperspace

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"
)

//////
// Exported functionalities.
//////

// DefaultConfig returns a default configuration.
func DefaultConfig() OptimizationConfig {
	return OptimizationConfig{
		Iterations:      50,
		InitialSamples:  10,
		NumCandidates:   50,
		AcquisitionFunc: UCB,
		AcqParams: AcquisitionParams{
			BestSoFar: math.MaxFloat64,
			Beta:      2.0,
			Xi:        0.01,
		},
		KernelWidth:  1.0,
		Seed:         time.Now().UnixNano(),
		ProgressChan: nil, // Default to no progress updates.
	}
}

// OptimizeLeaves runs Optimize on every leaf concurrently, one goroutine per
// leaf, standing in for one worker per rank. Results are index-aligned with
// leaves. Leaf i is seeded with config.Seed + i.
//
// The first run to fail cancels the others and its error is returned.
//
// Usage example:
//
//	p, err := hyperspace.PartitionWorkers(space, 4)
//	if err != nil {
//	    return err
//	}
//
//	results, err := hyperspace.OptimizeLeaves(ctx, hyperspace.DefaultConfig(), p.Leaves, objective)
func OptimizeLeaves(ctx context.Context, config OptimizationConfig, leaves []Space, objective Objective) ([]*Result, error) {
	results := make([]*Result, len(leaves))

	g, ctx := errgroup.WithContext(ctx)

	for rank, leaf := range leaves {
		g.Go(func() error {
			r, err := optimize(ctx, config, rank, leaf, objective)
			if err != nil {
				return fmt.Errorf("rank %d: %w", rank, err)
			}

			results[rank] = r

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// Optimize minimizes objective over space with Gaussian-process Bayesian
// optimization.
//
// How it works:
//  1. Takes InitialSamples random points drawn from each dimension's prior
//  2. For each iteration:
//     - Draws NumCandidates random candidates
//     - Predicts each with the Gaussian process
//     - Evaluates the candidate with the lowest acquisition value
//     - Updates the model with the new result
//  3. Returns the best point found
//
// Parameters:
// - ctx: Cancels the run between evaluations; it is also passed to objective
// - config: Iterations, sampling, acquisition and observability settings
// - space: The space to search, typically one leaf of a Partitioning
// - objective: The function to minimize
//
// Returns:
// - *Result: The best point found, its value and evaluation counts
// - error: ErrNoSuccessfulEvaluations, ctx.Err() or an invalid input error
//
// Usage example:
//
//	config := hyperspace.DefaultConfig()
//	config.Iterations = 30
//
//	result, err := hyperspace.Optimize(ctx, config, leaf, objective)
//	if err != nil {
//	    return err
//	}
//
//	fmt.Println(result.Best, result.BestValue)
//
// Important notes:
// - Failed evaluations, including values that are NaN or infinite, are
//   counted in Result.Failures and never reach the model
// - If every evaluation fails, the error wraps ErrNoSuccessfulEvaluations
// - A cancelled context stops the run and returns ctx.Err()
// - The run is deterministic for a fixed Seed and a deterministic objective
func Optimize(ctx context.Context, config OptimizationConfig, space Space, objective Objective) (*Result, error) {
	return optimize(ctx, config, 0, space, objective)
}

func optimize(ctx context.Context, config OptimizationConfig, rank int, space Space, objective Objective) (*Result, error) {
	if space.Len() == 0 {
		return nil, &InvalidDomainError{Reason: "a space needs at least one dimension"}
	}

	if objective == nil {
		return nil, errors.New("objective is nil")
	}

	if config.AcquisitionFunc == nil {
		config.AcquisitionFunc = UCB
	}

	if config.Metrics == nil {
		config.Metrics = NoopMetricsCollector{}
	}

	logger := config.Logger
	if logger == nil {
		logger = NoopLogger()
	}

	logger = logger.WithRank(rank)

	// Each run owns its generator; *rand.Rand is not safe for concurrent use.
	rng := rand.New(rand.NewSource(config.Seed + int64(rank)))
	config.AcqParams.RandomState = rng

	enc := newEncoder(space)
	gp := newGaussianProcess(config.KernelWidth)

	result := &Result{Rank: rank, BestValue: math.MaxFloat64}

	sendProgress := func(phase string, iteration, total int, params Point, value float64, err error) {
		if config.ProgressChan == nil {
			return
		}

		update := ProgressUpdate{
			Rank:              rank,
			Phase:             phase,
			CurrentIteration:  iteration,
			TotalIterations:   total,
			CurrentParams:     params,
			CurrentBestParams: result.Best,
			CurrentBestValue:  result.BestValue,
			LastValue:         value,
			LastErr:           err,
		}

		select {
		case config.ProgressChan <- update:
		default:
			// Skip update if channel is full.
		}
	}

	evaluate := func(phase string, iteration, total int, params Point) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()

		value, err := objective(ctx, params)
		if err == nil && (math.IsNaN(value) || math.IsInf(value, 0)) {
			err = fmt.Errorf("%w: %g", ErrNonFiniteValue, value)
		}

		config.Metrics.RecordEvaluation(rank, time.Since(start), err)
		logger.LogEvaluation(ctx, phase, iteration, value, err)

		result.Evaluations++

		if err != nil {
			// A cancelled run is not a failed point.
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			result.Failures++
			sendProgress(phase, iteration, total, params, value, err)

			return nil
		}

		x, encErr := enc.Encode(params)
		if encErr != nil {
			return encErr
		}

		gp.Update(x, value)

		if value < result.BestValue {
			result.BestValue = value
			result.Best = params
		}

		sendProgress(phase, iteration, total, params, value, nil)

		return nil
	}

	// Phase 1: Initial random sampling.
	for i := range config.InitialSamples {
		if err := evaluate("InitialSampling", i+1, config.InitialSamples, sample(rng, space)); err != nil {
			return nil, err
		}
	}

	// Phase 2: Bayesian optimization loop.
	for i := range config.Iterations {
		config.AcqParams.BestSoFar = result.BestValue

		next := sample(rng, space)
		bestAcquisition := math.Inf(1)

		for range config.NumCandidates {
			candidate := sample(rng, space)

			x, err := enc.Encode(candidate)
			if err != nil {
				return nil, err
			}

			mean, variance := gp.Predict(x)

			if a := config.AcquisitionFunc(mean, variance, config.AcqParams); a < bestAcquisition {
				bestAcquisition = a
				next = candidate
			}
		}

		if err := evaluate("Optimization", i+1, config.Iterations, next); err != nil {
			return nil, err
		}
	}

	if result.Best == nil {
		return nil, fmt.Errorf("%w: %d of %d evaluations failed", ErrNoSuccessfulEvaluations, result.Failures, result.Evaluations)
	}

	return result, nil
}
