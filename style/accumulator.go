package style

import (
	"math"

	"github.com/kovidgoyal/pcstyle/colorconv"
	"github.com/kovidgoyal/pcstyle/moments"
	"github.com/kovidgoyal/pcstyle/types"

	"gonum.org/v1/gonum/mat"
)

// OneSided expands a normal into its six one-sided components
// (max(-x,0), max(x,0), max(-y,0), max(y,0), max(-z,0), max(z,0)).
func OneSided(n types.Vec3) [NormalDims]float64 {
	return [NormalDims]float64{
		max(-n[0], 0), max(n[0], 0),
		max(-n[1], 0), max(n[1], 0),
		max(-n[2], 0), max(n[2], 0),
	}
}

// SampleVector returns the 9 channel vector of a sample: the Reinhard Lab
// color followed by the one-sided weights of its normal expressed in basis
// and L1 normalized.
func SampleVector(s types.ColorSample, basis *types.Mat3) (ans [Dims]float64) {
	n := basis.ApplyRow(s.Normal).Normalized().NormalizedL1()
	lab := colorconv.ReinhardRGBToLab(s.RGB)
	w := OneSided(n)
	copy(ans[:ColorDims], lab[:])
	copy(ans[ColorDims:], w[:])
	return
}

// accumulator holds the running sums of a contiguous run of samples.
// Accumulators of consecutive runs merge into the accumulator of their
// concatenation.
type accumulator struct {
	n         int
	sum       [Dims]float64
	outer     *mat.SymDense
	oct_sum   [ColorDims][NormalDims]float64
	oct_sq    [ColorDims][NormalDims]float64
	oct_total [NormalDims]float64
	lo, hi    [Dims]float64

	scratch *mat.VecDense
}

func new_accumulator() *accumulator {
	a := &accumulator{outer: mat.NewSymDense(Dims, nil), scratch: mat.NewVecDense(Dims, nil)}
	for i := range Dims {
		a.lo[i], a.hi[i] = math.Inf(1), math.Inf(-1)
	}
	return a
}

func (a *accumulator) add(v *[Dims]float64) {
	a.n++
	for i, x := range v {
		a.sum[i] += x
		a.scratch.SetVec(i, x)
		a.lo[i], a.hi[i] = min(a.lo[i], x), max(a.hi[i], x)
	}
	a.outer.SymRankOne(a.outer, 1, a.scratch)
	w := v[ColorDims:]
	for o, wo := range w {
		for c := range ColorDims {
			a.oct_sum[c][o] += v[c] * wo
			a.oct_sq[c][o] += v[c] * v[c] * wo
		}
		a.oct_total[o] += wo
	}
}

func (a *accumulator) merge(o *accumulator) {
	a.n += o.n
	for i := range Dims {
		a.sum[i] += o.sum[i]
		a.lo[i], a.hi[i] = min(a.lo[i], o.lo[i]), max(a.hi[i], o.hi[i])
	}
	a.outer.AddSym(a.outer, o.outer)
	for c := range ColorDims {
		for k := range NormalDims {
			a.oct_sum[c][k] += o.oct_sum[c][k]
			a.oct_sq[c][k] += o.oct_sq[c][k]
		}
	}
	for k := range NormalDims {
		a.oct_total[k] += o.oct_total[k]
	}
}

func (a *accumulator) finish(basis types.Mat3) *Statistics {
	ans := &Statistics{N: a.n, Source: PointCloudSource, Basis: basis}
	for c := range ColorDims {
		for k := range NormalDims {
			mean := moments.Finite(a.oct_sum[c][k] / a.oct_total[k])
			ans.MeanByOctant[c][k] = mean
			ans.StdByOctant[c][k] = moments.Sqrt(a.oct_sq[c][k]/a.oct_total[k] - mean*mean)
		}
	}
	for i := range Dims {
		ans.Constant[i] = !(a.hi[i] > a.lo[i])
	}
	mean := mat.NewVecDense(Dims, nil)
	for i := range Dims {
		ans.Mean[i] = moments.Finite(a.sum[i] / float64(a.n))
		mean.SetVec(i, ans.Mean[i])
	}
	cov := mat.NewSymDense(Dims, nil)
	cov.ScaleSym(1/float64(max(a.n-1, 1)), a.outer)
	for i := range Dims {
		for j := 0; j <= i; j++ {
			if cov.At(i, j) == 0 {
				cov.SetSym(i, j, CovarianceFloor)
			}
		}
	}
	cov.SymRankOne(cov, -1, mean)
	ans.Cov = cov
	for i := range Dims {
		ans.Std[i] = moments.Sqrt(cov.At(i, i))
	}
	return ans
}
