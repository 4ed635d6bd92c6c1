// Package style extracts the color style of a point cloud: the moments of
// its colors in Reinhard Lab space, jointly with and conditioned on the
// direction of its surface normals.
package style

import (
	"errors"
	"fmt"

	"github.com/kovidgoyal/go-parallel"
	"github.com/kovidgoyal/pcstyle/normalbasis"
	"github.com/kovidgoyal/pcstyle/types"
)

var ErrNotReady = errors.New("style source has no samples")

// Samples are accumulated in chunks of this size, chunks in parallel. The
// chunk size, not the number of workers, fixes the order of summation.
const ChunkSize = 4096

// Extractor is implemented by every source of style statistics.
type Extractor interface {
	Ready() bool
	ExtractStyle() (*Statistics, error)
}

type extractConfig struct {
	normals_pca bool
	workers     int
}

type ExtractOption func(*extractConfig)

// WithNormalsPCA expresses normals in the canonical basis of their principal
// axes instead of world axes before bucketing them by octant.
func WithNormalsPCA(enabled bool) ExtractOption {
	return func(c *extractConfig) { c.normals_pca = enabled }
}

// WithWorkers sets the number of goroutines used for extraction. Zero, the
// default, means one per CPU.
func WithWorkers(n int) ExtractOption {
	return func(c *extractConfig) { c.workers = max(0, n) }
}

type PointCloudExtractor struct {
	cloud types.Supplier
	cfg   extractConfig
}

var _ Extractor = (*PointCloudExtractor)(nil)

func NewPointCloudExtractor(cloud types.Supplier, opts ...ExtractOption) *PointCloudExtractor {
	ans := &PointCloudExtractor{cloud: cloud}
	for _, o := range opts {
		o(&ans.cfg)
	}
	return ans
}

// Ready reports whether the cloud has at least one sample.
func (e *PointCloudExtractor) Ready() bool { return e.cloud != nil && e.cloud.Len() > 0 }

// Basis returns the normal basis statistics are extracted in.
func (e *PointCloudExtractor) Basis() (types.Mat3, error) {
	if !e.cfg.normals_pca {
		return normalbasis.Identity(), nil
	}
	normals := make([]types.Vec3, e.cloud.Len())
	for i := range normals {
		normals[i] = e.cloud.At(i).Normal
	}
	return normalbasis.FromNormals(normals)
}

// ExtractStyle computes the statistics of the cloud in a single pass.
//
// Octant moments are weighted by the one-sided normal channels and use the
// population convention. The covariance is the raw second moment divided by
// N-1, with exactly zero entries replaced by CovarianceFloor, minus the outer
// product of the mean. Std is the square root of its diagonal.
func (e *PointCloudExtractor) ExtractStyle() (ans *Statistics, err error) {
	if !e.Ready() {
		return nil, ErrNotReady
	}
	basis, err := e.Basis()
	if err != nil {
		return nil, fmt.Errorf("failed to compute normal basis: %w", err)
	}
	n := e.cloud.Len()
	chunks := make([]*accumulator, (n+ChunkSize-1)/ChunkSize)
	f := func(start, limit int) {
		for c := start; c < limit; c++ {
			acc := new_accumulator()
			for i := c * ChunkSize; i < min(n, (c+1)*ChunkSize); i++ {
				v := SampleVector(e.cloud.At(i), &basis)
				acc.add(&v)
			}
			chunks[c] = acc
		}
	}
	if err = parallel.Run_in_parallel_over_range(e.cfg.workers, f, 0, len(chunks)); err != nil {
		return nil, err
	}
	total := chunks[0]
	for _, c := range chunks[1:] {
		total.merge(c)
	}
	return total.finish(basis), nil
}
