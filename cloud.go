package pcstyle

import (
	"fmt"

	"github.com/kovidgoyal/pcstyle/types"
)

var _ = fmt.Print

type Vec3 = types.Vec3
type ColorSample = types.ColorSample

// PointCloud is an in-memory colored point cloud. It implements
// types.Supplier.
type PointCloud struct {
	Samples  []ColorSample
	Comments []string

	// Format is the PLY encoding the cloud was read from
	Format Format
}

var _ types.Supplier = (*PointCloud)(nil)

func (p *PointCloud) Len() int             { return len(p.Samples) }
func (p *PointCloud) At(i int) ColorSample { return p.Samples[i] }

// Ready is true once the cloud has at least one point.
func (p *PointCloud) Ready() bool { return p != nil && len(p.Samples) > 0 }

func (p *PointCloud) Normals() []Vec3 {
	ans := make([]Vec3, len(p.Samples))
	for i, s := range p.Samples {
		ans[i] = s.Normal
	}
	return ans
}

func (p *PointCloud) Colors() []Vec3 {
	ans := make([]Vec3, len(p.Samples))
	for i, s := range p.Samples {
		ans[i] = s.RGB
	}
	return ans
}

// WithColors returns a copy of the cloud with the colors replaced, keeping
// positions and normals.
func (p *PointCloud) WithColors(colors []Vec3) (*PointCloud, error) {
	if len(colors) != len(p.Samples) {
		return nil, fmt.Errorf("cloud has %d points but %d colors were supplied", len(p.Samples), len(colors))
	}
	ans := &PointCloud{Samples: make([]ColorSample, len(p.Samples)), Format: p.Format, Comments: p.Comments}
	for i, s := range p.Samples {
		s.RGB = colors[i]
		ans.Samples[i] = s
	}
	return ans, nil
}

func (p *PointCloud) String() string {
	return fmt.Sprintf("PointCloud{points: %d, format: %s}", len(p.Samples), p.Format)
}
