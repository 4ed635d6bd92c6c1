package types

import (
	"errors"
	"math"
)

type Vec3 [3]float64

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float64

var ErrSingularMat3 = errors.New("matrix is singular and cannot be inverted")

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]} }
func (v Vec3) Mul(o Vec3) Vec3      { return Vec3{v[0] * o[0], v[1] * o[1], v[2] * o[2]} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v[0] * s, v[1] * s, v[2] * s} }
func (v Vec3) Neg() Vec3            { return Vec3{-v[0], -v[1], -v[2]} }
func (v Vec3) Dot(o Vec3) float64   { return v[0]*o[0] + v[1]*o[1] + v[2]*o[2] }
func (v Vec3) Norm() float64        { return math.Sqrt(v.Dot(v)) }
func (v Vec3) L1() float64          { return math.Abs(v[0]) + math.Abs(v[1]) + math.Abs(v[2]) }
func (v Vec3) IsZero() bool         { return v[0] == 0 && v[1] == 0 && v[2] == 0 }

// Normalized returns v scaled to unit L2 length. The zero vector is returned
// unchanged.
func (v Vec3) Normalized() Vec3 {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

// NormalizedL1 returns v scaled so that the absolute values of its components
// sum to one. The zero vector is returned unchanged.
func (v Vec3) NormalizedL1() Vec3 {
	n := v.L1()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

func IdentityMat3() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

func (m *Mat3) IsIdentity() bool {
	return *m == IdentityMat3()
}

func (m *Mat3) Row(i int) Vec3 { return Vec3(m[i]) }

func (m *Mat3) SetRow(i int, v Vec3) { m[i] = v }

// Multiply returns m * o.
func (m *Mat3) Multiply(o Mat3) (ans Mat3) {
	for i := range 3 {
		for j := range 3 {
			sum := 0.0
			for k := range 3 {
				sum += m[i][k] * o[k][j]
			}
			ans[i][j] = sum
		}
	}
	return
}

// Apply returns the column-vector product m * v.
func (m *Mat3) Apply(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// ApplyRow returns the row-vector product v * m.
func (m *Mat3) ApplyRow(v Vec3) Vec3 {
	return Vec3{
		v[0]*m[0][0] + v[1]*m[1][0] + v[2]*m[2][0],
		v[0]*m[0][1] + v[1]*m[1][1] + v[2]*m[2][1],
		v[0]*m[0][2] + v[1]*m[1][2] + v[2]*m[2][2],
	}
}

func (m *Mat3) Transposed() (ans Mat3) {
	for i := range 3 {
		for j := range 3 {
			ans[i][j] = m[j][i]
		}
	}
	return
}

func (m *Mat3) Equals(o *Mat3, threshold float64) bool {
	for i := range 3 {
		for j := range 3 {
			if math.Abs(m[i][j]-o[i][j]) > threshold {
				return false
			}
		}
	}
	return true
}

func (mat *Mat3) Inverted() (ans Mat3, err error) {
	det := mat[0][0]*(mat[1][1]*mat[2][2]-mat[1][2]*mat[2][1]) -
		mat[0][1]*(mat[1][0]*mat[2][2]-mat[1][2]*mat[2][0]) +
		mat[0][2]*(mat[1][0]*mat[2][1]-mat[1][1]*mat[2][0])

	if det == 0 {
		return ans, ErrSingularMat3
	}
	invDet := 1 / det
	adj := Mat3{
		{
			(mat[1][1]*mat[2][2] - mat[1][2]*mat[2][1]),
			(mat[0][2]*mat[2][1] - mat[0][1]*mat[2][2]),
			(mat[0][1]*mat[1][2] - mat[0][2]*mat[1][1]),
		},
		{
			(mat[1][2]*mat[2][0] - mat[1][0]*mat[2][2]),
			(mat[0][0]*mat[2][2] - mat[0][2]*mat[2][0]),
			(mat[0][2]*mat[1][0] - mat[0][0]*mat[1][2]),
		},
		{
			(mat[1][0]*mat[2][1] - mat[1][1]*mat[2][0]),
			(mat[0][1]*mat[2][0] - mat[0][0]*mat[2][1]),
			(mat[0][0]*mat[1][1] - mat[0][1]*mat[1][0]),
		},
	}
	for i := range 3 {
		for j := range 3 {
			ans[i][j] = invDet * adj[i][j]
		}
	}
	return
}

// IfElse is a ternary helper.
func IfElse[T any](condition bool, if_val T, else_val T) T {
	if condition {
		return if_val
	}
	return else_val
}
