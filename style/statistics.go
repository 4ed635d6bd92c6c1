package style

import (
	"fmt"

	"github.com/kovidgoyal/pcstyle/types"

	"gonum.org/v1/gonum/mat"
)

var _ = fmt.Print

const (
	// ColorDims is the number of Reinhard Lab channels
	ColorDims = 3
	// NormalDims is the number of one-sided normal channels
	NormalDims = 6
	// Dims is the dimension of the per sample statistics vector
	Dims = ColorDims + NormalDims
)

// CovarianceFloor replaces every exactly zero entry of the raw second moment
// matrix so that the covariance of degenerate clouds stays invertible.
const CovarianceFloor = 1e-3

type Source int

const (
	PointCloudSource Source = iota
	ImageSource
)

func (s Source) String() string {
	switch s {
	case PointCloudSource:
		return "point-cloud"
	case ImageSource:
		return "image"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Octants, in the order of the one-sided normal channels
const (
	NegX = iota
	PosX
	NegY
	PosY
	NegZ
	PosZ
)

// Statistics is the color style of a point cloud: moments of the 9 channel
// vector (Reinhard L, a, b followed by the six one-sided normal weights) and
// the Lab moments of every normal octant. It is never modified after
// extraction.
type Statistics struct {
	N      int
	Source Source
	Mean   [Dims]float64
	Std    [Dims]float64
	// Cov is the 9×9 covariance, see PointCloudExtractor.ExtractStyle
	Cov *mat.SymDense
	// Rows are L, a and b, columns the octants
	MeanByOctant [ColorDims][NormalDims]float64
	StdByOctant  [ColorDims][NormalDims]float64
	// Basis normals were expressed in before bucketing, one basis vector per row
	Basis types.Mat3
	// Channels that take a single value over the whole cloud
	Constant [Dims]bool
}

func (s *Statistics) MeansL() [NormalDims]float64 { return s.MeanByOctant[0] }
func (s *Statistics) MeansA() [NormalDims]float64 { return s.MeanByOctant[1] }
func (s *Statistics) MeansB() [NormalDims]float64 { return s.MeanByOctant[2] }
func (s *Statistics) StdsL() [NormalDims]float64  { return s.StdByOctant[0] }
func (s *Statistics) StdsA() [NormalDims]float64  { return s.StdByOctant[1] }
func (s *Statistics) StdsB() [NormalDims]float64  { return s.StdByOctant[2] }

// ColorMean is the mean Reinhard Lab color.
func (s *Statistics) ColorMean() types.Vec3 { return types.Vec3(s.Mean[:ColorDims]) }

// ColorStd is the standard deviation of the Reinhard Lab channels.
func (s *Statistics) ColorStd() types.Vec3 { return types.Vec3(s.Std[:ColorDims]) }

// ColorCovariance returns a copy of the 3×3 L, a, b block of Cov.
func (s *Statistics) ColorCovariance() *mat.SymDense {
	ans := mat.NewSymDense(ColorDims, nil)
	ans.CopySym(s.Cov.SliceSym(0, ColorDims))
	return ans
}

// Covariance returns a copy of Cov.
func (s *Statistics) Covariance() *mat.SymDense {
	ans := mat.NewSymDense(Dims, nil)
	ans.CopySym(s.Cov)
	return ans
}

// HasNormals reports whether the normals of the cloud differ between
// samples, that is whether any one-sided normal channel is not constant.
func (s *Statistics) HasNormals() bool {
	for _, c := range s.Constant[ColorDims:] {
		if !c {
			return true
		}
	}
	return false
}

// Varying returns the indices of the channels among the first n that are not
// constant.
func (s *Statistics) Varying(n int) (ans []int) {
	for i, c := range s.Constant[:n] {
		if !c {
			ans = append(ans, i)
		}
	}
	return
}

func (s *Statistics) String() string {
	return fmt.Sprintf("Statistics{N: %d, Source: %s, Mean: %.4g, Std: %.4g}", s.N, s.Source, s.Mean, s.Std)
}
