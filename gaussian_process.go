package hyperspace

import (
	"math"
	"sync"
)

//////
// Const, vars, types.
//////

// gpJitter is added to the kernel diagonal to keep it positive definite when
// observations repeat (likely in small integer or categorical leaves).
const gpJitter = 1e-6

// gaussianProcess is the surrogate model of an optimization run: a zero-mean
// Gaussian process with an RBF kernel over encoded points. Observed values
// are standardized before fitting so the prior variance of one matches their
// scale.
//
// The model is refitted lazily: Update only records the observation and the
// next Predict recomputes the Cholesky factor.
type gaussianProcess struct {
	mu sync.Mutex

	// x holds the encoded observed points, y the observed values.
	x [][]float64
	y []float64

	// sigma is the kernel width.
	sigma float64

	// Fitted state, valid while dirty is false.
	dirty     bool
	chol      [][]float64
	alpha     []float64
	yMean     float64
	yStd      float64
	fitFailed bool
}

func newGaussianProcess(sigma float64) *gaussianProcess {
	if sigma <= 0 {
		sigma = 1.0
	}

	return &gaussianProcess{sigma: sigma}
}

//////
// Methods.
//////

// rbf is exp(-|a-b|^2 / (2 sigma^2)). It panics if a and b differ in length.
func (gp *gaussianProcess) rbf(a, b []float64) float64 {
	if len(a) != len(b) {
		panic("input vectors must have the same length")
	}

	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}

	return math.Exp(-sum / (2 * gp.sigma * gp.sigma))
}

// Update records an observation. x is copied. A NaN or infinite y is
// dropped.
func (gp *gaussianProcess) Update(x []float64, y float64) {
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return
	}

	gp.mu.Lock()
	defer gp.mu.Unlock()

	gp.x = append(gp.x, append([]float64(nil), x...))
	gp.y = append(gp.y, y)
	gp.dirty = true
}

// Predict returns the posterior mean and variance at x, in the units of the
// observed values. Without observations it returns the prior (0, 1).
func (gp *gaussianProcess) Predict(x []float64) (mean, variance float64) {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	if len(gp.x) == 0 {
		return 0, 1
	}

	if gp.dirty {
		gp.fit()
	}

	k := make([]float64, len(gp.x))
	for i := range gp.x {
		k[i] = gp.rbf(x, gp.x[i])
	}

	if gp.fitFailed {
		return gp.kernelAverage(k)
	}

	var m float64
	for i := range k {
		m += k[i] * gp.alpha[i]
	}

	v := solveLower(gp.chol, k)

	variance = 1
	for _, vi := range v {
		variance -= vi * vi
	}

	variance = math.Max(variance, 0)

	return gp.yMean + m*gp.yStd, variance * gp.yStd * gp.yStd
}

// fit standardizes y and factors K + jitter*I. Must hold mu.
func (gp *gaussianProcess) fit() {
	gp.dirty = false
	n := len(gp.x)

	gp.yMean, gp.yStd = meanStd(gp.y)

	ys := make([]float64, n)
	for i, v := range gp.y {
		ys[i] = (v - gp.yMean) / gp.yStd
	}

	k := make([][]float64, n)
	for i := range k {
		k[i] = make([]float64, n)
		for j := range k[i] {
			k[i][j] = gp.rbf(gp.x[i], gp.x[j])
		}

		k[i][i] += gpJitter
	}

	chol, ok := cholesky(k)
	gp.fitFailed = !ok

	if !ok {
		return
	}

	gp.chol = chol
	gp.alpha = solveUpper(chol, solveLower(chol, ys))
}

// kernelAverage is the fallback when the kernel matrix cannot be factored:
// a kernel-weighted mean with a variance shrinking near observations.
func (gp *gaussianProcess) kernelAverage(k []float64) (mean, variance float64) {
	var sum, weight, nearest float64

	for i := range k {
		sum += k[i] * gp.y[i]
		weight += k[i]
		nearest = math.Max(nearest, k[i])
	}

	if weight == 0 {
		return gp.yMean, gp.yStd * gp.yStd
	}

	return sum / weight, (1 - nearest*nearest) * gp.yStd * gp.yStd
}

//////
// Helper functions.
//////

func meanStd(v []float64) (mean, std float64) {
	for _, x := range v {
		mean += x
	}

	mean /= float64(len(v))

	for _, x := range v {
		std += (x - mean) * (x - mean)
	}

	std = math.Sqrt(std / float64(len(v)))
	if std == 0 || math.IsNaN(std) || math.IsInf(std, 0) {
		std = 1
	}

	return mean, std
}

// cholesky returns the lower-triangular L with L*L^T = a, or false if a is
// not positive definite.
func cholesky(a [][]float64) ([][]float64, bool) {
	n := len(a)
	l := make([][]float64, n)

	for i := range l {
		l[i] = make([]float64, n)
	}

	for i := range n {
		for j := 0; j <= i; j++ {
			sum := a[i][j]
			for k := range j {
				sum -= l[i][k] * l[j][k]
			}

			if i == j {
				if sum <= 0 {
					return nil, false
				}

				l[i][i] = math.Sqrt(sum)

				continue
			}

			l[i][j] = sum / l[j][j]
		}
	}

	return l, true
}

// solveLower solves L*x = b by forward substitution.
func solveLower(l [][]float64, b []float64) []float64 {
	x := make([]float64, len(b))

	for i := range b {
		sum := b[i]
		for k := range i {
			sum -= l[i][k] * x[k]
		}

		x[i] = sum / l[i][i]
	}

	return x
}

// solveUpper solves L^T*x = b by back substitution.
func solveUpper(l [][]float64, b []float64) []float64 {
	n := len(b)
	x := make([]float64, n)

	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for k := i + 1; k < n; k++ {
			sum -= l[k][i] * x[k]
		}

		x[i] = sum / l[i][i]
	}

	return x
}
