package types

import (
	"fmt"
)

var _ = fmt.Print

// Format is a PLY body encoding.
type Format int

// PLY body encodings.
const (
	UNKNOWN Format = iota
	ASCII
	BINARY_LITTLE_ENDIAN
	BINARY_BIG_ENDIAN
)

var FormatNames = map[string]Format{
	"ascii":                ASCII,
	"binary_little_endian": BINARY_LITTLE_ENDIAN,
	"binary_big_endian":    BINARY_BIG_ENDIAN,
}

var formatNames = map[Format]string{
	ASCII:                "ascii",
	BINARY_LITTLE_ENDIAN: "binary_little_endian",
	BINARY_BIG_ENDIAN:    "binary_big_endian",
}

func (f Format) String() string {
	return formatNames[f]
}

// ColorSample is a single point of a colored point cloud. RGB components are
// in [0,1]. A zero Normal means no normal was available; producers replace it
// with a default direction before handing samples to the statistics code.
type ColorSample struct {
	Position Vec3
	Normal   Vec3
	RGB      Vec3
}

func (s ColorSample) String() string {
	return fmt.Sprintf("ColorSample{pos=%v n=%v rgb=%v}", s.Position, s.Normal, s.RGB)
}

// Supplier is a read-only, ordered sequence of color samples.
type Supplier interface {
	Len() int
	At(i int) ColorSample
}
