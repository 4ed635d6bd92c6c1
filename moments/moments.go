// Package moments computes first and second order statistics of an N×D
// sample matrix, one sample per row.
//
// Every aggregate is total: empty and single-sample inputs produce zeros,
// never NaN or Inf, so that statistics of degenerate data read as "no
// effect" further down the pipeline.
package moments

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Finite returns x, or 0 when x is NaN or infinite.
func Finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// Sqrt returns the square root of x with negative rounding noise mapped to 0.
func Sqrt(x float64) float64 {
	return Finite(math.Sqrt(x))
}

func rows(m mat.Matrix) int {
	if m == nil {
		return 0
	}
	r, _ := m.Dims()
	return r
}

func cols(m mat.Matrix) int {
	if m == nil {
		return 0
	}
	_, c := m.Dims()
	return c
}

// Mean is the arithmetic mean of values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Finite(stat.Mean(values, nil))
}

// Means returns the mean of every column of m.
func Means(m mat.Matrix) []float64 {
	ans := make([]float64, cols(m))
	for j := range ans {
		ans[j] = Mean(mat.Col(nil, j, m))
	}
	return ans
}

// Variance is the population variance of values about the given mean,
// computed as mean(x²) - mean².
func Variance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sq := mean * mean
	sum := 0.0
	for _, x := range values {
		sum += x*x - sq
	}
	return Finite(sum / float64(len(values)))
}

func Variances(m mat.Matrix, means []float64) []float64 {
	ans := make([]float64, cols(m))
	for j := range ans {
		ans[j] = Variance(mat.Col(nil, j, m), means[j])
	}
	return ans
}

func StdDevs(m mat.Matrix, means []float64) []float64 {
	ans := Variances(m, means)
	for j, v := range ans {
		ans[j] = Sqrt(v)
	}
	return ans
}

// CovarianceElement is the Bessel corrected sample covariance of columns a
// and b about the given means. It is 0 for fewer than two samples.
func CovarianceElement(m mat.Matrix, means []float64, a, b int) float64 {
	n := rows(m)
	if n < 2 {
		return 0
	}
	sum := 0.0
	for i := range n {
		sum += (m.At(i, a) - means[a]) * (m.At(i, b) - means[b])
	}
	return Finite(sum / float64(n-1))
}

// Covariance returns the full D×D sample covariance of m. Only the lower
// triangle is computed, the upper one mirrors it.
func Covariance(m mat.Matrix, means []float64) *mat.SymDense {
	d := len(means)
	if d == 0 {
		return &mat.SymDense{}
	}
	ans := mat.NewSymDense(d, nil)
	for i := range d {
		for j := 0; j <= i; j++ {
			ans.SetSym(i, j, CovarianceElement(m, means, i, j))
		}
	}
	return ans
}

// Correlation returns the covariance of m normalized by the product of the
// standard deviations. Pairs involving a zero variance column are 0.
func Correlation(m mat.Matrix) *mat.SymDense {
	means := Means(m)
	cov := Covariance(m, means)
	d := len(means)
	stds := make([]float64, d)
	for i := range d {
		stds[i] = Sqrt(cov.At(i, i))
	}
	for i := range d {
		for j := 0; j <= i; j++ {
			deviation := stds[i] * stds[j]
			if deviation == 0 {
				cov.SetSym(i, j, 0)
				continue
			}
			cov.SetSym(i, j, Finite(cov.At(i, j)/deviation))
		}
	}
	return cov
}

// Center returns a copy of m with means subtracted from every row.
func Center(m mat.Matrix, means []float64) *mat.Dense {
	r, c := rows(m), cols(m)
	if r == 0 || c == 0 {
		return &mat.Dense{}
	}
	ans := mat.DenseCopyOf(m)
	for i := range r {
		for j := range c {
			ans.Set(i, j, ans.At(i, j)-means[j])
		}
	}
	return ans
}
