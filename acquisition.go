package hyperspace

import "math"

//////
// Acquisition functions. The optimizer minimizes the objective and picks the
// candidate with the lowest acquisition value, so every function here returns
// lower values for more promising points.
//////

// minVariance keeps the standardized improvement finite where the model is
// certain (at observed points).
const minVariance = 1e-12

// UCB implements the (lower) confidence bound: the predicted mean minus Beta
// standard deviations. Larger Beta favours uncertain regions.
//
// Example:
//
//	params := AcquisitionParams{Beta: 2.0}
//	value := UCB(0.5, 0.2, params)
func UCB(mean, variance float64, params AcquisitionParams) float64 {
	return mean - params.Beta*math.Sqrt(math.Max(variance, 0))
}

// ProbabilityOfImprovement returns the negated probability that a point
// improves on BestSoFar by at least Xi.
//
// Conservative: favours small but likely improvements.
func ProbabilityOfImprovement(mean, variance float64, params AcquisitionParams) float64 {
	sigma := math.Sqrt(math.Max(variance, minVariance))

	return -normalCDF(improvement(mean, params) / sigma)
}

// ExpectedImprovement returns the negated expected improvement over
// BestSoFar - Xi, weighing how likely and how large an improvement is.
//
// Example:
//
//	params := AcquisitionParams{BestSoFar: 1.0, Xi: 0.01}
//	value := ExpectedImprovement(0.9, 0.2, params)
func ExpectedImprovement(mean, variance float64, params AcquisitionParams) float64 {
	sigma := math.Sqrt(math.Max(variance, minVariance))
	imp := improvement(mean, params)
	z := imp / sigma

	return -(imp*normalCDF(z) + sigma*normalPDF(z))
}

// ThompsonSampling draws one sample from the predictive distribution.
// params.RandomState must be set; the optimizer does this per run.
func ThompsonSampling(mean, variance float64, params AcquisitionParams) float64 {
	return mean + math.Sqrt(math.Max(variance, 0))*params.RandomState.NormFloat64()
}

// improvement is how far the predicted mean undercuts the target BestSoFar - Xi.
func improvement(mean float64, params AcquisitionParams) float64 {
	return params.BestSoFar - params.Xi - mean
}

// normalCDF is the standard normal cumulative distribution function.
func normalCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// normalPDF is the standard normal probability density function.
func normalPDF(x float64) float64 {
	return math.Exp(-x*x/2.0) / math.Sqrt(2.0*math.Pi)
}
