package moments

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestEmptyInputIsZero(t *testing.T) {
	require.Equal(t, 0.0, Mean(nil))
	require.Equal(t, 0.0, Mean([]float64{}))
	require.Equal(t, 0.0, Variance(nil, 0))
	require.Equal(t, 0.0, Variance([]float64{}, 3))
	require.Empty(t, Means(&mat.Dense{}))
	r, c := Covariance(&mat.Dense{}, nil).Dims()
	require.Zero(t, r)
	require.Zero(t, c)
}

func TestSingleSample(t *testing.T) {
	m := mat.NewDense(1, 3, []float64{1, 2, 3})
	means := Means(m)
	require.Equal(t, []float64{1, 2, 3}, means)
	require.Equal(t, []float64{0, 0, 0}, Variances(m, means))
	cov := Covariance(m, means)
	for i := range 3 {
		for j := range 3 {
			require.Equal(t, 0.0, cov.At(i, j))
		}
	}
	// even with a mean that does not belong to the sample
	require.Equal(t, 0.0, CovarianceElement(m, []float64{5, 5, 5}, 0, 1))
}

func TestKnownStatistics(t *testing.T) {
	m := mat.NewDense(4, 2, []float64{
		1, 2,
		2, 4,
		3, 6,
		4, 8,
	})
	means := Means(m)
	assert.InDeltaSlice(t, []float64{2.5, 5}, means, 1e-12)
	// population variance
	assert.InDeltaSlice(t, []float64{1.25, 5}, Variances(m, means), 1e-12)
	assert.InDeltaSlice(t, []float64{math.Sqrt(1.25), math.Sqrt(5)}, StdDevs(m, means), 1e-12)
	// sample covariance
	cov := Covariance(m, means)
	assert.InDelta(t, 5.0/3.0, cov.At(0, 0), 1e-12)
	assert.InDelta(t, 10.0/3.0, cov.At(0, 1), 1e-12)
	assert.InDelta(t, 10.0/3.0, cov.At(1, 0), 1e-12)
	assert.InDelta(t, 20.0/3.0, cov.At(1, 1), 1e-12)

	corr := Correlation(m)
	assert.InDelta(t, 1.0, corr.At(0, 1), 1e-12)
	assert.InDelta(t, 1.0, corr.At(1, 1), 1e-12)
}

func TestCorrelationWithConstantColumn(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{
		1, 7,
		2, 7,
		3, 7,
	})
	corr := Correlation(m)
	assert.Equal(t, 0.0, corr.At(0, 1))
	assert.Equal(t, 0.0, corr.At(1, 1))
	assert.InDelta(t, 1.0, corr.At(0, 0), 1e-12)
}

func TestCenter(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, 10, 3, 30})
	c := Center(m, Means(m))
	require.True(t, mat.Equal(c, mat.NewDense(2, 2, []float64{-1, -10, 1, 10})))
	// the input is left untouched
	require.Equal(t, 1.0, m.At(0, 0))
}

func TestFinite(t *testing.T) {
	require.Equal(t, 0.0, Finite(math.NaN()))
	require.Equal(t, 0.0, Finite(math.Inf(-1)))
	require.Equal(t, 2.5, Finite(2.5))
	require.Equal(t, 0.0, Sqrt(-1e-17))
}
