package hyperspace

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUCB(t *testing.T) {
	params := AcquisitionParams{Beta: 2.0}

	assert.Equal(t, -3.0, UCB(1, 4, params))
	assert.Equal(t, 1.0, UCB(1, 0, params))

	// More uncertainty is more attractive.
	assert.Less(t, UCB(1, 1, params), UCB(1, 0.5, params))
}

func TestProbabilityOfImprovement(t *testing.T) {
	params := AcquisitionParams{BestSoFar: 1, Xi: 0}

	assert.InDelta(t, -0.5, ProbabilityOfImprovement(1, 1, params), 1e-12)
	assert.InDelta(t, -1, ProbabilityOfImprovement(-100, 1, params), 1e-12)
	assert.InDelta(t, 0, ProbabilityOfImprovement(100, 1, params), 1e-12)

	// A certain prediction stays finite.
	assert.False(t, math.IsNaN(ProbabilityOfImprovement(1, 0, params)))
}

func TestExpectedImprovement(t *testing.T) {
	params := AcquisitionParams{BestSoFar: 1, Xi: 0.01}

	low := ExpectedImprovement(0.5, 0.1, params)
	high := ExpectedImprovement(0.9, 0.1, params)

	assert.LessOrEqual(t, low, 0.0)
	assert.Less(t, low, high)

	// With no uncertainty EI is the plain improvement.
	assert.InDelta(t, -(1-0.01-0.5), ExpectedImprovement(0.5, 0, params), 1e-9)

	// At the target, EI is sigma * pdf(0).
	assert.InDelta(t, -normalPDF(0), ExpectedImprovement(0.99, 1, params), 1e-12)
}

func TestThompsonSampling(t *testing.T) {
	params := AcquisitionParams{RandomState: rand.New(rand.NewSource(7))}

	assert.Equal(t, 3.0, ThompsonSampling(3, 0, params))

	var sum float64
	for range 10000 {
		sum += ThompsonSampling(3, 0.25, params)
	}

	assert.InDelta(t, 3, sum/10000, 0.05)
}

func TestNormalDistribution(t *testing.T) {
	assert.InDelta(t, 0.5, normalCDF(0), 1e-12)
	assert.InDelta(t, 0.975, normalCDF(1.959964), 1e-6)
	assert.InDelta(t, 1/math.Sqrt(2*math.Pi), normalPDF(0), 1e-12)
}
