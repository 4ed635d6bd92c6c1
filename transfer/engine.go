// Package transfer remaps the colors of a point cloud so that their
// statistics match those of a target style.
package transfer

import (
	"fmt"
	"math"
	"sync"

	"github.com/kovidgoyal/go-parallel"
	"github.com/kovidgoyal/pcstyle/colorconv"
	"github.com/kovidgoyal/pcstyle/spectral"
	"github.com/kovidgoyal/pcstyle/style"
	"github.com/kovidgoyal/pcstyle/types"

	"gonum.org/v1/gonum/mat"
)

var _ = fmt.Print

type Vec3 = types.Vec3

// RemapFunc maps the RGB color of an input sample with the given normal to
// its restyled RGB color.
type RemapFunc func(rgb, normal Vec3) Vec3

var closed_form_transport = spectral.ClosedFormTransport

type engineConfig struct {
	workers int
}

type Option func(*engineConfig)

// WithWorkers sets the number of goroutines Apply uses. Zero, the default,
// means one per CPU.
func WithWorkers(n int) Option {
	return func(c *engineConfig) { c.workers = max(0, n) }
}

// Engine transfers the style described by target onto clouds described by
// input. Transport matrices are computed lazily, at most once per engine.
type Engine struct {
	input, target *style.Statistics
	cfg           engineConfig

	color_transport, full_transport func() (*mat.Dense, error)
}

func New(input, target *style.Statistics, opts ...Option) *Engine {
	ans := &Engine{input: input, target: target}
	for _, o := range opts {
		o(&ans.cfg)
	}
	ans.color_transport = sync.OnceValues(func() (*mat.Dense, error) { return ans.masked_transport(style.ColorDims) })
	ans.full_transport = sync.OnceValues(func() (*mat.Dense, error) { return ans.masked_transport(style.Dims) })
	return ans
}

func (e *Engine) Input() *style.Statistics  { return e.input }
func (e *Engine) Target() *style.Statistics { return e.target }

// Transport returns the transport matrix of method: 3×3 for MGD, 9×9 for
// MGD_N and nil for the other methods. Channels that are constant in the
// input have identity rows and columns. The matrix is shared, callers must not
// modify it. Errors from the computation, typically
// *spectral.SingularMatrixError, are returned unchanged on every call.
func (e *Engine) Transport(method Method) (mat.Matrix, error) {
	var t *mat.Dense
	var err error
	switch method {
	case MGD:
		t, err = e.color_transport()
	case MGD_N:
		t, err = e.full_transport()
	case IGD, IGD_N:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown transfer method: %s", method)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func sub_covariance(cov *mat.SymDense, idx []int) *mat.SymDense {
	ans := mat.NewSymDense(len(idx), nil)
	for a, i := range idx {
		for b := a; b < len(idx); b++ {
			ans.SetSym(a, b, cov.At(i, idx[b]))
		}
	}
	return ans
}

// masked_transport is the n×n transport over the first n channels, computed
// from the covariances restricted to the channels that vary in the input.
// Constant channels have a zero delta in every remap and get identity rows
// and columns.
func (e *Engine) masked_transport(n int) (*mat.Dense, error) {
	idx := e.input.Varying(n)
	ans := mat.NewDense(n, n, nil)
	for i := range n {
		ans.Set(i, i, 1)
	}
	if len(idx) == 0 {
		return ans, nil
	}
	t, err := closed_form_transport(sub_covariance(e.input.Cov, idx), sub_covariance(e.target.Cov, idx))
	if err != nil {
		return nil, err
	}
	for a, i := range idx {
		for b, j := range idx {
			ans.Set(i, j, t.At(a, b))
		}
	}
	return ans, nil
}

func affine(x, in_mean, in_std, t_mean, t_std float64) float64 {
	if in_std == 0 {
		return t_mean
	}
	return (x-in_mean)*(t_std/in_std) + t_mean
}

func blend(table *[style.ColorDims][style.NormalDims]float64, w *[style.NormalDims]float64) (ans Vec3) {
	for c := range style.ColorDims {
		for k, wk := range w {
			ans[c] += table[c][k] * wk
		}
	}
	return
}

func octant_weights(normal Vec3, basis *types.Mat3) [style.NormalDims]float64 {
	return style.OneSided(basis.ApplyRow(normal).Normalized().NormalizedL1())
}

// Remapper returns the per sample color function of method. Colors are mapped
// in Reinhard Lab space, converted back to RGB and multiplied by exposure.
// Results are not clamped to [0,1].
func (e *Engine) Remapper(method Method, exposure float64) (RemapFunc, error) {
	in, tgt := e.input, e.target
	out := func(lab Vec3) Vec3 { return colorconv.ReinhardLabToRGB(lab).Scale(exposure) }
	switch method {
	case IGD:
		im, is, tm, ts := in.ColorMean(), in.ColorStd(), tgt.ColorMean(), tgt.ColorStd()
		return func(rgb, normal Vec3) Vec3 {
			lab := colorconv.ReinhardRGBToLab(rgb)
			for c := range lab {
				lab[c] = affine(lab[c], im[c], is[c], tm[c], ts[c])
			}
			return out(lab)
		}, nil
	case IGD_N:
		in_basis, t_basis := in.Basis, tgt.Basis
		return func(rgb, normal Vec3) Vec3 {
			wi, wt := octant_weights(normal, &in_basis), octant_weights(normal, &t_basis)
			im, is := blend(&in.MeanByOctant, &wi), blend(&in.StdByOctant, &wi)
			tm, ts := blend(&tgt.MeanByOctant, &wt), blend(&tgt.StdByOctant, &wt)
			lab := colorconv.ReinhardRGBToLab(rgb)
			for c := range lab {
				lab[c] = affine(lab[c], im[c], is[c], tm[c], ts[c])
			}
			return out(lab)
		}, nil
	case MGD:
		t, err := e.color_transport()
		if err != nil {
			return nil, err
		}
		im, tm := in.ColorMean(), tgt.ColorMean()
		var tt types.Mat3
		for i := range 3 {
			for j := range 3 {
				tt[i][j] = t.At(i, j)
			}
		}
		return func(rgb, normal Vec3) Vec3 {
			lab := colorconv.ReinhardRGBToLab(rgb)
			return out(tt.ApplyRow(lab.Sub(im)).Add(tm))
		}, nil
	case MGD_N:
		t, err := e.full_transport()
		if err != nil {
			return nil, err
		}
		// only the color columns of T contribute to the output
		var cols [style.Dims][style.ColorDims]float64
		for i := range style.Dims {
			for j := range style.ColorDims {
				cols[i][j] = t.At(i, j)
			}
		}
		in_basis, im, tm := in.Basis, in.Mean, tgt.Mean
		return func(rgb, normal Vec3) Vec3 {
			v := style.SampleVector(types.ColorSample{RGB: rgb, Normal: normal}, &in_basis)
			var lab Vec3
			for i := range style.Dims {
				d := v[i] - im[i]
				for j := range style.ColorDims {
					lab[j] += d * cols[i][j]
				}
			}
			return out(lab.Add(Vec3(tm[:style.ColorDims])))
		}, nil
	}
	return nil, fmt.Errorf("unknown transfer method: %s", method)
}

// Apply remaps the colors of every sample of cloud, in parallel.
func (e *Engine) Apply(method Method, exposure float64, cloud types.Supplier) (ans []Vec3, err error) {
	if math.IsNaN(exposure) || math.IsInf(exposure, 0) {
		return nil, fmt.Errorf("invalid exposure: %v", exposure)
	}
	remap, err := e.Remapper(method, exposure)
	if err != nil {
		return nil, err
	}
	ans = make([]Vec3, cloud.Len())
	if len(ans) == 0 {
		return ans, nil
	}
	f := func(start, limit int) {
		for i := start; i < limit; i++ {
			s := cloud.At(i)
			ans[i] = remap(s.RGB, s.Normal)
		}
	}
	if err = parallel.Run_in_parallel_over_range(e.cfg.workers, f, 0, len(ans)); err != nil {
		return nil, err
	}
	return ans, nil
}
