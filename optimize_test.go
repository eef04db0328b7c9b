package hyperspace

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quadratic is minimized at lr=0.3, layers=4, activation="tanh".
func quadratic(_ context.Context, p Point) (float64, error) {
	lr, layers, act := p[0].(float64), p[1].(int), p[2].(string)

	v := (lr-0.3)*(lr-0.3) + 0.01*float64((layers-4)*(layers-4))
	if act != "tanh" {
		v += 0.5
	}

	return v, nil
}

func optimizeSpace() Space {
	return MustSpace(
		MustReal(0, 1, WithName("lr")),
		MustInteger(1, 8, WithName("layers")),
		MustCategorical([]string{"relu", "tanh", "sigmoid"}, WithName("activation")),
	)
}

func testConfig() OptimizationConfig {
	config := DefaultConfig()
	config.InitialSamples = 5
	config.Iterations = 15
	config.NumCandidates = 30
	config.Seed = 42

	return config
}

func TestOptimize(t *testing.T) {
	space := optimizeSpace()
	lowest := math.MaxFloat64

	recording := func(ctx context.Context, p Point) (float64, error) {
		v, err := quadratic(ctx, p)
		lowest = math.Min(lowest, v)

		return v, err
	}

	result, err := Optimize(context.Background(), testConfig(), space, recording)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Rank)
	assert.Equal(t, 20, result.Evaluations)
	assert.Zero(t, result.Failures)

	// Assert the best point is a valid point of the space.
	require.Len(t, result.Best, 3)
	assert.True(t, space.Dimension(0).(Real).Contains(result.Best[0].(float64)))
	assert.True(t, space.Dimension(1).(Integer).Contains(result.Best[1].(int)))
	assert.True(t, space.Dimension(2).(Categorical).Contains(result.Best[2].(string)))

	v, _ := quadratic(context.Background(), result.Best)
	assert.Equal(t, v, result.BestValue)
	assert.Equal(t, lowest, result.BestValue)
}

func TestOptimizeAcquisitionFunctions(t *testing.T) {
	for name, acq := range map[string]AcquisitionFunc{
		"ucb":      UCB,
		"pi":       ProbabilityOfImprovement,
		"ei":       ExpectedImprovement,
		"thompson": ThompsonSampling,
	} {
		t.Run(name, func(t *testing.T) {
			config := testConfig()
			config.AcquisitionFunc = acq

			result, err := Optimize(context.Background(), config, optimizeSpace(), quadratic)
			require.NoError(t, err)

			assert.Len(t, result.Best, 3)
			assert.False(t, math.IsNaN(result.BestValue))
		})
	}
}

func TestOptimizeIsDeterministic(t *testing.T) {
	a, err := Optimize(context.Background(), testConfig(), optimizeSpace(), quadratic)
	require.NoError(t, err)

	b, err := Optimize(context.Background(), testConfig(), optimizeSpace(), quadratic)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestOptimizeProgressChannel(t *testing.T) {
	// Create a configuration
	config := testConfig()

	// Create a bidirectional channel for progress updates, large enough that
	// no update is dropped.
	progressChan := make(chan ProgressUpdate, config.InitialSamples+config.Iterations)
	config.ProgressChan = progressChan

	_, err := Optimize(context.Background(), config, optimizeSpace(), quadratic)
	require.NoError(t, err)

	close(progressChan)

	var initial, optimization int

	best := math.MaxFloat64
	for update := range progressChan {
		switch update.Phase {
		case "InitialSampling":
			initial++
			assert.Equal(t, config.InitialSamples, update.TotalIterations)
		case "Optimization":
			optimization++
			assert.Equal(t, config.Iterations, update.TotalIterations)
		}

		// The best value never gets worse.
		assert.LessOrEqual(t, update.CurrentBestValue, best)
		best = update.CurrentBestValue

		assert.Len(t, update.CurrentParams, 3)
		assert.NoError(t, update.LastErr)
	}

	assert.Equal(t, config.InitialSamples, initial)
	assert.Equal(t, config.Iterations, optimization)
}

func TestOptimizeFailedEvaluations(t *testing.T) {
	var calls atomic.Int32

	flaky := func(ctx context.Context, p Point) (float64, error) {
		if calls.Add(1)%2 == 0 {
			return 0, errors.New("training diverged")
		}

		return quadratic(ctx, p)
	}

	result, err := Optimize(context.Background(), testConfig(), optimizeSpace(), flaky)
	require.NoError(t, err)

	assert.Equal(t, 20, result.Evaluations)
	assert.Equal(t, 10, result.Failures)
}

func TestOptimizeAllEvaluationsFail(t *testing.T) {
	failing := func(context.Context, Point) (float64, error) {
		return 0, errors.New("boom")
	}

	_, err := Optimize(context.Background(), testConfig(), optimizeSpace(), failing)
	require.ErrorIs(t, err, ErrNoSuccessfulEvaluations)
	assert.ErrorContains(t, err, "20 of 20 evaluations failed")
}

func TestOptimizeNonFiniteValuesAreFailures(t *testing.T) {
	var calls atomic.Int32

	config := testConfig()
	progressChan := make(chan ProgressUpdate, config.InitialSamples+config.Iterations)
	config.ProgressChan = progressChan

	// Every third value is NaN and every fifth is +Inf.
	unstable := func(ctx context.Context, p Point) (float64, error) {
		n := calls.Add(1)

		switch {
		case n%3 == 0:
			return math.NaN(), nil
		case n%5 == 0:
			return math.Inf(1), nil
		}

		return quadratic(ctx, p)
	}

	result, err := Optimize(context.Background(), config, optimizeSpace(), unstable)
	require.NoError(t, err)

	// 1..20 holds 6 multiples of three and 3 more multiples of five.
	assert.Equal(t, 20, result.Evaluations)
	assert.Equal(t, 9, result.Failures)
	assert.False(t, math.IsNaN(result.BestValue))
	assert.False(t, math.IsInf(result.BestValue, 0))

	close(progressChan)

	var failed int
	for update := range progressChan {
		if update.LastErr != nil {
			failed++
			assert.ErrorIs(t, update.LastErr, ErrNonFiniteValue)
		}
	}

	assert.Equal(t, 9, failed)
}

func TestOptimizeOnlyNonFiniteValues(t *testing.T) {
	m := &BasicMetricsCollector{}
	config := testConfig()
	config.Metrics = m

	infinite := func(context.Context, Point) (float64, error) {
		return math.Inf(1), nil
	}

	_, err := Optimize(context.Background(), config, optimizeSpace(), infinite)
	require.ErrorIs(t, err, ErrNoSuccessfulEvaluations)
	assert.ErrorContains(t, err, "20 of 20 evaluations failed")
	assert.Equal(t, int64(20), m.EvaluationErrors.Load())
}

func TestOptimizeWideIntegerRange(t *testing.T) {
	wide := MustInteger(math.MinInt/2, math.MaxInt/2-1, WithTransform(Normalize))

	objective := func(_ context.Context, p Point) (float64, error) {
		x := float64(p[0].(int)) / math.MaxInt

		return x * x, nil
	}

	result, err := Optimize(context.Background(), testConfig(), MustSpace(wide), objective)
	require.NoError(t, err)

	assert.True(t, wide.Contains(result.Best[0].(int)))
}

func TestOptimizeCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32

	objective := func(ctx context.Context, p Point) (float64, error) {
		if calls.Add(1) == 3 {
			cancel()

			return 0, ctx.Err()
		}

		return quadratic(ctx, p)
	}

	_, err := Optimize(ctx, testConfig(), optimizeSpace(), objective)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOptimizeInvalidInput(t *testing.T) {
	_, err := Optimize(context.Background(), testConfig(), Space{}, quadratic)
	assert.ErrorIs(t, err, ErrInvalidDomain)

	_, err = Optimize(context.Background(), testConfig(), optimizeSpace(), nil)
	assert.EqualError(t, err, "objective is nil")
}

func TestOptimizeLeaves(t *testing.T) {
	p, err := PartitionWorkers(optimizeSpace(), 4)
	require.NoError(t, err)

	m := &BasicMetricsCollector{}
	config := testConfig()
	config.Metrics = m

	results, err := OptimizeLeaves(context.Background(), config, p.Leaves, quadratic)
	require.NoError(t, err)
	require.Len(t, results, 4)

	for rank, r := range results {
		leaf := p.Leaves[rank]

		assert.Equal(t, rank, r.Rank)
		assert.True(t, leaf.Dimension(0).(Real).Contains(r.Best[0].(float64)), "rank %d", rank)
		assert.True(t, leaf.Dimension(1).(Integer).Contains(r.Best[1].(int)), "rank %d", rank)
		assert.True(t, leaf.Dimension(2).(Categorical).Contains(r.Best[2].(string)), "rank %d", rank)
	}

	assert.Equal(t, int64(4*20), m.Evaluations.Load())
	assert.Zero(t, m.EvaluationErrors.Load())
}

func TestOptimizeLeavesReportsRank(t *testing.T) {
	p, err := Partition(MustSpace(MustInteger(0, 3, WithOverlap(0))), 2)
	require.NoError(t, err)

	// Leaf 2 holds only the value 2, which always fails.
	objective := func(_ context.Context, pt Point) (float64, error) {
		if pt[0].(int) == 2 {
			return 0, errors.New("unsupported")
		}

		return float64(pt[0].(int)), nil
	}

	_, err = OptimizeLeaves(context.Background(), testConfig(), p.Leaves, objective)
	require.ErrorIs(t, err, ErrNoSuccessfulEvaluations)
	assert.ErrorContains(t, err, "rank 2: ")
}
