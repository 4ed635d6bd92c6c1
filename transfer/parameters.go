package transfer

import (
	"fmt"
	"slices"

	"github.com/kovidgoyal/pcstyle/style"
	"github.com/kovidgoyal/pcstyle/types"
)

// Parameters is the flat set of values an external per point evaluator, such
// as a shader, needs to apply a method. Only the fields used by Method are
// set. Transform holds the L, a and b columns of the transport matrix.
type Parameters struct {
	Method      Method     `json:"method"`
	InputBasis  types.Mat3 `json:"input_basis"`
	TargetBasis types.Mat3 `json:"target_basis"`

	InputMeans  []float64 `json:"input_means,omitempty"`
	InputStds   []float64 `json:"input_stds,omitempty"`
	TargetMeans []float64 `json:"target_means,omitempty"`
	TargetStds  []float64 `json:"target_stds,omitempty"`

	InputMeansByOctant  *[style.ColorDims][style.NormalDims]float64 `json:"input_means_by_octant,omitempty"`
	InputStdsByOctant   *[style.ColorDims][style.NormalDims]float64 `json:"input_stds_by_octant,omitempty"`
	TargetMeansByOctant *[style.ColorDims][style.NormalDims]float64 `json:"target_means_by_octant,omitempty"`
	TargetStdsByOctant  *[style.ColorDims][style.NormalDims]float64 `json:"target_stds_by_octant,omitempty"`

	Transform [][]float64 `json:"transform,omitempty"`
}

// Parameters returns the evaluator parameters of method.
func (e *Engine) Parameters(method Method) (ans Parameters, err error) {
	in, tgt := e.input, e.target
	ans = Parameters{Method: method, InputBasis: in.Basis, TargetBasis: tgt.Basis}
	switch method {
	case IGD:
		ans.InputMeans, ans.InputStds = slices.Clone(in.Mean[:]), slices.Clone(in.Std[:])
		ans.TargetMeans, ans.TargetStds = slices.Clone(tgt.Mean[:]), slices.Clone(tgt.Std[:])
	case IGD_N:
		im, is, tm, ts := in.MeanByOctant, in.StdByOctant, tgt.MeanByOctant, tgt.StdByOctant
		ans.InputMeansByOctant, ans.InputStdsByOctant = &im, &is
		ans.TargetMeansByOctant, ans.TargetStdsByOctant = &tm, &ts
	case MGD, MGD_N:
		t, terr := e.Transport(method)
		if terr != nil {
			return ans, terr
		}
		ans.InputMeans, ans.TargetMeans = slices.Clone(in.Mean[:]), slices.Clone(tgt.Mean[:])
		rows, _ := t.Dims()
		ans.Transform = make([][]float64, style.ColorDims)
		for j := range ans.Transform {
			col := make([]float64, rows)
			for i := range rows {
				col[i] = t.At(i, j)
			}
			ans.Transform[j] = col
		}
	default:
		err = fmt.Errorf("unknown transfer method: %s", method)
	}
	return
}
