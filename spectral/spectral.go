// Package spectral implements the symmetric eigen machinery behind the
// Monge-Kantorovich linear transport between two Gaussian distributions.
package spectral

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var _ = fmt.Print

// SymmetryTolerance is the largest |m[i,j] - m[j,i]|, relative to the largest
// absolute entry of m, accepted as symmetric.
var SymmetryTolerance = 1e-8

// SingularityTolerance is the smallest ratio of the smallest to the largest
// eigenvalue magnitude of a source covariance that ClosedFormTransport accepts.
var SingularityTolerance = 1e-12

// Symmetric checks that m is square and symmetric within SymmetryTolerance and
// returns its symmetric part.
func Symmetric(op string, m mat.Matrix) (*mat.SymDense, error) {
	if s, ok := m.(*mat.SymDense); ok {
		return s, nil
	}
	r, c := m.Dims()
	if r != c {
		return nil, &NumericalError{Op: op, Reason: fmt.Sprintf("matrix is not square (%d×%d)", r, c)}
	}
	if r == 0 {
		return nil, &NumericalError{Op: op, Reason: "matrix is empty"}
	}
	scale := 0.0
	for i := range r {
		for j := range c {
			scale = max(scale, math.Abs(m.At(i, j)))
		}
	}
	limit := SymmetryTolerance * max(scale, 1)
	ans := mat.NewSymDense(r, nil)
	for i := range r {
		for j := 0; j <= i; j++ {
			a, b := m.At(i, j), m.At(j, i)
			if math.IsNaN(a) || math.IsNaN(b) {
				return nil, &NumericalError{Op: op, Reason: fmt.Sprintf("NaN at (%d, %d)", i, j)}
			}
			if d := math.Abs(a - b); d > limit {
				return nil, &NumericalError{Op: op, Reason: fmt.Sprintf("matrix is not symmetric: |m[%d,%d] - m[%d,%d]| = %g", i, j, j, i, d)}
			}
			ans.SetSym(i, j, (a+b)/2)
		}
	}
	return ans, nil
}

// SymmetricEigendecompose returns the eigenvalues of the symmetric matrix m in
// ascending order, and the matching orthonormal eigenvectors as the columns of
// vectors.
func SymmetricEigendecompose(m mat.Matrix) (values []float64, vectors *mat.Dense, err error) {
	const op = "eigendecompose"
	s, err := Symmetric(op, m)
	if err != nil {
		return nil, nil, err
	}
	var eig mat.EigenSym
	if !eig.Factorize(s, true) {
		return nil, nil, &NumericalError{Op: op, Reason: "gonum mat.EigenSym Factorize failed"}
	}
	values = eig.Values(nil)
	vectors = &mat.Dense{}
	eig.VectorsTo(vectors)
	return values, vectors, nil
}

// Inverse returns the inverse of m, or a SingularMatrixError if m is singular
// or too badly conditioned to invert.
func Inverse(m mat.Matrix) (*mat.Dense, error) {
	var ans mat.Dense
	if err := ans.Inverse(m); err != nil {
		return nil, &SingularMatrixError{Op: "inverse", Err: err}
	}
	return &ans, nil
}

// MatrixSqrt returns the principal square root V·sqrt(|Λ|)·V⁻¹ of the
// symmetric matrix m. Negative eigenvalues, which on a positive semi-definite
// input can only come from rounding, are folded by absolute value.
func MatrixSqrt(m mat.Matrix) (*mat.Dense, error) {
	values, vectors, err := SymmetricEigendecompose(m)
	if err != nil {
		return nil, err
	}
	n := len(values)
	d := mat.NewDiagDense(n, nil)
	for i, v := range values {
		r := math.Sqrt(math.Abs(v))
		if math.IsNaN(r) {
			r = 0
		}
		d.SetDiag(i, r)
	}
	inv, err := Inverse(vectors)
	if err != nil {
		return nil, err
	}
	var ans mat.Dense
	ans.Product(vectors, d, inv)
	return &ans, nil
}

// ClosedFormTransport returns the linear map T of the Monge-Kantorovich
// solution between two zero mean Gaussians with covariances source and target:
//
//	A = sqrtm(source), B = sqrtm(A·target·A), T = A⁻¹·B·A⁻¹
//
// so that T·source·T = target. A SingularMatrixError is returned when source is
// not invertible, that is when the ratio of its smallest to largest eigenvalue
// magnitude is at most SingularityTolerance.
func ClosedFormTransport(source, target mat.Matrix) (*mat.Dense, error) {
	const op = "transport"
	sr, sc := source.Dims()
	tr, tc := target.Dims()
	if sr != tr || sc != tc {
		return nil, &NumericalError{Op: op, Reason: fmt.Sprintf("covariance shapes differ: %d×%d and %d×%d", sr, sc, tr, tc)}
	}
	values, _, err := SymmetricEigendecompose(source)
	if err != nil {
		return nil, err
	}
	lo, hi := math.Inf(1), 0.0
	for _, v := range values {
		lo, hi = min(lo, math.Abs(v)), max(hi, math.Abs(v))
	}
	if hi == 0 || lo <= SingularityTolerance*hi {
		return nil, &SingularMatrixError{Op: op, Err: fmt.Errorf("eigenvalue magnitudes span [%g, %g]", lo, hi)}
	}
	a, err := MatrixSqrt(source)
	if err != nil {
		return nil, err
	}
	var ainv mat.Dense
	if err = ainv.Inverse(a); err != nil {
		return nil, &SingularMatrixError{Op: op, Err: err}
	}
	var middle mat.Dense
	middle.Product(a, target, a)
	b, err := MatrixSqrt(&middle)
	if err != nil {
		return nil, err
	}
	var t mat.Dense
	t.Product(&ainv, b, &ainv)
	return &t, nil
}
