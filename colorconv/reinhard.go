package colorconv

import (
	"math"
)

// The decorrelated log-LMS space of Reinhard et al, "Color Transfer between
// Images" (2001). This is the working space of the style statistics.

// logOffset keeps log10 finite for black.
const logOffset = 1e-6

var lmsFromRGB = Mat3{
	{0.3811, 0.5783, 0.0402},
	{0.1967, 0.7244, 0.0782},
	{0.0241, 0.1288, 0.8444},
}

var rgbFromLMS Mat3

var (
	invSqrt3 = 1 / math.Sqrt(3)
	invSqrt6 = 1 / math.Sqrt(6)
	invSqrt2 = 1 / math.Sqrt(2)
)

// ReinhardRGBToLab converts RGB to the log-LMS opponent space. RGB outside
// [0,1] is accepted as long as the LMS response stays above -logOffset.
func ReinhardRGBToLab(rgb Vec3) Vec3 {
	lms := lmsFromRGB.Apply(rgb)
	l := math.Log10(lms[0] + logOffset)
	m := math.Log10(lms[1] + logOffset)
	s := math.Log10(lms[2] + logOffset)
	return Vec3{
		invSqrt3 * (l + m + s),
		invSqrt6 * (l + m - 2*s),
		invSqrt2 * (l - m),
	}
}

// ReinhardLabToRGB is the exact inverse of ReinhardRGBToLab. The result is not
// clamped, transferred colors can leave the RGB cube.
func ReinhardLabToRGB(lab Vec3) Vec3 {
	L := lab[0] * invSqrt3
	a := lab[1] * invSqrt6
	b := lab[2] * invSqrt2
	lms := Vec3{
		math.Pow(10, L+a+b) - logOffset,
		math.Pow(10, L+a-b) - logOffset,
		math.Pow(10, L-2*a) - logOffset,
	}
	return rgbFromLMS.Apply(lms)
}
