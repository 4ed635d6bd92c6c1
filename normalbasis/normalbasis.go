// Package normalbasis derives a canonical orthonormal basis from the normals
// of a point cloud, so that statistics bucketed by normal direction are
// comparable between clouds whose dominant surface orientations differ.
package normalbasis

import (
	"fmt"
	"math"
	"slices"

	"github.com/kovidgoyal/pcstyle/moments"
	"github.com/kovidgoyal/pcstyle/spectral"
	"github.com/kovidgoyal/pcstyle/types"

	"gonum.org/v1/gonum/mat"
)

var _ = fmt.Print

type Vec3 = types.Vec3

// Basis holds one basis vector per row. Row 0 is the vector attributed to the
// X axis, row 1 to Y and row 2 to Z.
type Basis = types.Mat3

var canonicalAxes = [3]Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// Identity is the basis used when PCA of the normals is disabled.
func Identity() Basis { return types.IdentityMat3() }

// PrincipalAxes returns the three principal directions of the normals, in
// order of decreasing variance. Equal variances keep the order of the
// underlying eigen solver.
func PrincipalAxes(normals []Vec3) (ans [3]Vec3, err error) {
	if len(normals) == 0 {
		return canonicalAxes, nil
	}
	data := mat.NewDense(len(normals), 3, nil)
	for i, n := range normals {
		data.SetRow(i, n[:])
	}
	cov := moments.Covariance(data, moments.Means(data))
	values, vectors, err := spectral.SymmetricEigendecompose(cov)
	if err != nil {
		return ans, fmt.Errorf("PCA of %d normals failed: %w", len(normals), err)
	}
	order := []int{0, 1, 2}
	// eigen values are ascending, stable sort keeps solver order for ties
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case values[a] > values[b]:
			return -1
		case values[a] < values[b]:
			return 1
		}
		return 0
	})
	for i, c := range order {
		ans[i] = Vec3{vectors.At(0, c), vectors.At(1, c), vectors.At(2, c)}
	}
	return ans, nil
}

// Canonicalize attributes each of the given axes, in order, to one of the
// canonical X, Y and Z axes. An axis goes to the canonical axis it is most
// aligned with, ties resolved in favor of X then Y, provided that axis has
// not been claimed by an earlier one; otherwise it is skipped. Claimed rows
// are sign flipped to point along their canonical axis, unclaimed rows keep
// the identity.
func Canonicalize(axes [3]Vec3) Basis {
	ans := Identity()
	var found [3]bool
	for _, v := range axes {
		x := math.Abs(v.Dot(canonicalAxes[0]))
		y := math.Abs(v.Dot(canonicalAxes[1]))
		z := math.Abs(v.Dot(canonicalAxes[2]))
		claim := -1
		switch {
		case !found[0] && x >= y && x >= z:
			claim = 0
		case !found[1] && y > x && y >= z:
			claim = 1
		case !found[2] && z > x && z > y:
			claim = 2
		}
		if claim < 0 {
			continue
		}
		found[claim] = true
		ans.SetRow(claim, types.IfElse(v.Dot(canonicalAxes[claim]) > 0, v, v.Neg()))
	}
	return ans
}

// FromNormals is Canonicalize(PrincipalAxes(normals)).
func FromNormals(normals []Vec3) (Basis, error) {
	axes, err := PrincipalAxes(normals)
	if err != nil {
		return Identity(), err
	}
	return Canonicalize(axes), nil
}
