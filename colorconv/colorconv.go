package colorconv

import (
	"fmt"
	"math"

	"github.com/kovidgoyal/pcstyle/types"
)

// This package converts between sRGB, linear CIE XYZ (D65), CIE L*a*b*, LCH,
// HSL and the log-LMS opponent space of Reinhard et al. that the style
// statistics are computed in.
//
// Notes:
// - RGB components are in [0,1]. XYZ and RGB outputs of the XYZ conversions
//   are clamped to [0,1], so colors whose Z exceeds 1 (saturated blues near
//   white) do not survive a round trip exactly.
// - Only the forward linear matrices are given as literals. Their inverses are
//   computed once at init so that every conversion pair round trips to
//   floating point precision.

type Vec3 = types.Vec3
type Mat3 = types.Mat3

var _ = fmt.Print

// D65 reference white, normalized so Y = 1.0
var whiteD65 = Vec3{0.95047, 1.00000, 1.08883}

const (
	labEpsilon = 0.008856
	labKappa   = 903.3
)

// linear sRGB to CIE XYZ (D65)
var xyzFromLinearRGB = Mat3{
	{0.4124, 0.3576, 0.1805},
	{0.2126, 0.7152, 0.0722},
	{0.0193, 0.1192, 0.9505},
}

var linearRGBFromXYZ Mat3

func init() {
	var err error
	if linearRGBFromXYZ, err = xyzFromLinearRGB.Inverted(); err != nil {
		panic(fmt.Sprintf("colorconv: cannot invert the XYZ matrix: %s", err))
	}
	if rgbFromLMS, err = lmsFromRGB.Inverted(); err != nil {
		panic(fmt.Sprintf("colorconv: cannot invert the LMS matrix: %s", err))
	}
}

// Public API

// RGBToXYZ converts gamma encoded sRGB to CIE XYZ (D65). The result is clamped
// to [0,1].
func RGBToXYZ(rgb Vec3) Vec3 {
	lin := Vec3{srgbToLinearComp(rgb[0]), srgbToLinearComp(rgb[1]), srgbToLinearComp(rgb[2])}
	return clamp01v(xyzFromLinearRGB.Apply(lin))
}

// XYZToRGB converts CIE XYZ (D65) to gamma encoded sRGB clamped to [0,1].
func XYZToRGB(xyz Vec3) Vec3 {
	lin := linearRGBFromXYZ.Apply(xyz)
	return clamp01v(Vec3{linearToSRGBComp(lin[0]), linearToSRGBComp(lin[1]), linearToSRGBComp(lin[2])})
}

// XYZToLab converts CIE XYZ to CIE L*a*b* relative to the D65 white.
func XYZToLab(xyz Vec3) Vec3 {
	fx := ff(xyz[0] / whiteD65[0])
	fy := ff(xyz[1] / whiteD65[1])
	fz := ff(xyz[2] / whiteD65[2])
	return Vec3{116.0*fy - 16.0, 500.0 * (fx - fy), 200.0 * (fy - fz)}
}

// LabToXYZ converts CIE L*a*b* (D65) to CIE XYZ clamped to [0,1].
func LabToXYZ(lab Vec3) Vec3 {
	L := lab[0]
	fy := (L + 16.0) / 116.0
	fz := fy - (lab[2] / 200.0)
	fx := (lab[1] / 500.0) + fy

	xr := finv(fx)
	zr := finv(fz)
	var yr float64
	if L > labKappa*labEpsilon {
		yr = fy * fy * fy
	} else {
		yr = L / labKappa
	}
	return clamp01v(Vec3{xr * whiteD65[0], yr * whiteD65[1], zr * whiteD65[2]})
}

// LabToLCH converts L*a*b* to its polar form with hue in degrees in (-180, 180].
func LabToLCH(lab Vec3) Vec3 {
	C := math.Hypot(lab[1], lab[2])
	H := math.Atan2(lab[2], lab[1]) * 180 / math.Pi
	return Vec3{lab[0], C, H}
}

func LCHToLab(lch Vec3) Vec3 {
	h := lch[2] * math.Pi / 180
	return Vec3{lch[0], lch[1] * math.Cos(h), lch[1] * math.Sin(h)}
}

func RGBToLab(rgb Vec3) Vec3 { return XYZToLab(RGBToXYZ(rgb)) }
func LabToRGB(lab Vec3) Vec3 { return XYZToRGB(LabToXYZ(lab)) }
func RGBToLCH(rgb Vec3) Vec3 { return LabToLCH(RGBToLab(rgb)) }
func LCHToRGB(lch Vec3) Vec3 { return LabToRGB(LCHToLab(lch)) }

// DeltaE returns the CMC l:c (1:1) color difference between two L*a*b* colors.
// It is not symmetric: lab1 is the reference color.
func DeltaE(lab1, lab2 Vec3) float64 {
	const l, c = 1.0, 1.0

	C1 := math.Hypot(lab1[1], lab1[2])
	C2 := math.Hypot(lab2[1], lab2[2])
	dC := C1 - C2
	dL := lab1[0] - lab2[0]
	da := lab1[1] - lab2[1]
	db := lab1[2] - lab2[2]
	// rounding can push the hue term slightly negative for equal hues
	dH := math.Sqrt(max(0, da*da+db*db-dC*dC))

	H := math.Atan2(lab1[2], lab1[1]) * 180 / math.Pi
	if H < 0 {
		H += 360
	}
	C1_4 := C1 * C1 * C1 * C1
	F := math.Sqrt(C1_4 / (C1_4 + 1900))
	var T float64
	if 164 <= H && H <= 345 {
		T = 0.56 + math.Abs(0.2*math.Cos((H+168)*math.Pi/180))
	} else {
		T = 0.36 + math.Abs(0.4*math.Cos((H+35)*math.Pi/180))
	}
	SL := 0.511
	if lab1[0] >= 16 {
		SL = (0.040975 * lab1[0]) / (1 + 0.01765*lab1[0])
	}
	SC := (0.0638*C1)/(1+0.0131*C1) + 0.638
	SH := SC * (F*T + 1 - F)

	ex := dL / (l * SL)
	ey := dC / (c * SC)
	ez := dH / SH
	return math.Sqrt(ex*ex + ey*ey + ez*ez)
}

// RGBToHSL converts RGB to hue (degrees in [0,360)), saturation and lightness.
func RGBToHSL(rgb Vec3) Vec3 {
	r, g, b := rgb[0], rgb[1], rgb[2]
	lo := min(r, g, b)
	hi := max(r, g, b)
	L := (lo + hi) / 2
	if lo == hi {
		return Vec3{0, 0, L}
	}
	d := hi - lo
	S := types.IfElse(L < 0.5, d/(hi+lo), d/(2-hi-lo))
	var H float64
	switch hi {
	case r:
		H = (g - b) / d
	case g:
		H = 2 + (b-r)/d
	default:
		H = 4 + (r-g)/d
	}
	H *= 60
	if H < 0 {
		H += 360
	}
	return Vec3{H, S, L}
}

func HSLToRGB(hsl Vec3) Vec3 {
	H, S, L := hsl[0], hsl[1], hsl[2]
	if S == 0 {
		return Vec3{L, L, L}
	}
	t1 := types.IfElse(L < 0.5, L*(1+S), L+S-L*S)
	t2 := 2*L - t1
	h := H / 360
	return Vec3{
		hueToChannel(t1, t2, h+1.0/3.0),
		hueToChannel(t1, t2, h),
		hueToChannel(t1, t2, h-1.0/3.0),
	}
}

// Helpers: core conversions

func hueToChannel(t1, t2, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	switch {
	case 6*t < 1:
		return t2 + (t1-t2)*6*t
	case 2*t < 1:
		return t1
	case 3*t < 2:
		return t2 + (t1-t2)*(2.0/3.0-t)*6
	}
	return t2
}

// ff is the forward CIE Lab companding function on a white-relative value.
func ff(t float64) float64 {
	if t > labEpsilon {
		return math.Cbrt(t)
	}
	return (labKappa*t + 16.0) / 116.0
}

func finv(f float64) float64 {
	if f3 := f * f * f; f3 > labEpsilon {
		return f3
	}
	return (116.0*f - 16.0) / labKappa
}

// srgbToLinearComp removes the sRGB (gamma) companding from a single component.
func srgbToLinearComp(c float64) float64 {
	if c > 0.04045 {
		return math.Pow((c+0.055)/1.055, 2.4)
	}
	return c / 12.92
}

// linearToSRGBComp applies the sRGB (gamma) companding function to a linear component.
func linearToSRGBComp(c float64) float64 {
	if c <= 0.0031308 {
		return 12.92 * c
	}
	return 1.055*math.Pow(c, 1.0/2.4) - 0.055
}

// clamp01 clamps value to [0,1]
func clamp01(x float64) float64 {
	return max(0, min(x, 1))
}

func clamp01v(v Vec3) Vec3 {
	return Vec3{clamp01(v[0]), clamp01(v[1]), clamp01(v[2])}
}
