package colorconv

import (
	"fmt"
	"math"
	"testing"
)

func nearlyEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func nearlyEqualVec(a, b Vec3, eps float64) bool {
	return nearlyEqual(a[0], b[0], eps) && nearlyEqual(a[1], b[1], eps) && nearlyEqual(a[2], b[2], eps)
}

var tableCases = []struct {
	name string
	rgb  Vec3
}{
	{"black", Vec3{0, 0, 0}},
	{"neutral gray", Vec3{0.5, 0.5, 0.5}},
	{"dark gray", Vec3{0.02, 0.02, 0.02}},
	{"vivid red", Vec3{0.95, 0.1, 0.05}},
	{"vivid green", Vec3{0.1, 0.9, 0.2}},
	{"dull blue", Vec3{0.2, 0.3, 0.6}},
	{"skin", Vec3{0.87, 0.68, 0.55}},
	{"olive", Vec3{0.5, 0.5, 0.0}},
	{"near white", Vec3{0.9, 0.9, 0.85}},
}

// rgbGrid yields every color of an n^3 lattice over the unit cube.
func rgbGrid(n int, f func(Vec3)) {
	for i := range n {
		for j := range n {
			for k := range n {
				f(Vec3{float64(i) / float64(n-1), float64(j) / float64(n-1), float64(k) / float64(n-1)})
			}
		}
	}
}

// xyzInRange reports whether the unclamped XYZ of rgb stays inside [0,1].
func xyzInRange(rgb Vec3) bool {
	lin := Vec3{srgbToLinearComp(rgb[0]), srgbToLinearComp(rgb[1]), srgbToLinearComp(rgb[2])}
	xyz := xyzFromLinearRGB.Apply(lin)
	return xyz[0] <= 1 && xyz[1] <= 1 && xyz[2] <= 1
}

func TestInverseMatrices(t *testing.T) {
	for name, pair := range map[string][2]Mat3{
		"xyz": {xyzFromLinearRGB, linearRGBFromXYZ},
		"lms": {lmsFromRGB, rgbFromLMS},
	} {
		p := pair[0].Multiply(pair[1])
		id := Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
		if !p.Equals(&id, 1e-12) {
			t.Fatalf("%s matrix times its inverse is not identity: %v", name, p)
		}
	}
}

func TestXYZRoundtrip(t *testing.T) {
	rgbGrid(11, func(c Vec3) {
		if !xyzInRange(c) {
			return
		}
		got := XYZToRGB(RGBToXYZ(c))
		if !nearlyEqualVec(c, got, 1e-4) {
			t.Fatalf("RGB->XYZ->RGB mismatch: in=%v out=%v", c, got)
		}
	})
}

func TestLabRoundtrip_TableDriven(t *testing.T) {
	for _, tc := range tableCases {
		t.Run(tc.name, func(t *testing.T) {
			got := LabToRGB(RGBToLab(tc.rgb))
			if !nearlyEqualVec(tc.rgb, got, 1e-4) {
				t.Fatalf("RGB->Lab->RGB mismatch for %s: in=%v out=%v", tc.name, tc.rgb, got)
			}
		})
	}
	rgbGrid(9, func(c Vec3) {
		if !xyzInRange(c) {
			return
		}
		got := LabToRGB(RGBToLab(c))
		if !nearlyEqualVec(c, got, 1e-4) {
			t.Fatalf("RGB->Lab->RGB mismatch: in=%v out=%v", c, got)
		}
	})
}

func TestLCHRoundtrip(t *testing.T) {
	for _, tc := range tableCases {
		if !xyzInRange(tc.rgb) {
			continue
		}
		got := LCHToRGB(RGBToLCH(tc.rgb))
		if !nearlyEqualVec(tc.rgb, got, 1e-4) {
			t.Fatalf("RGB->LCH->RGB mismatch for %s: in=%v out=%v", tc.name, tc.rgb, got)
		}
	}
	lab := Vec3{50, 20, -20}
	lch := LabToLCH(lab)
	if !nearlyEqual(lch[2], -45, 1e-9) || !nearlyEqual(lch[1], math.Sqrt(800), 1e-9) {
		t.Fatalf("unexpected LCH for %v: %v", lab, lch)
	}
}

func TestReinhardRoundtrip(t *testing.T) {
	rgbGrid(11, func(c Vec3) {
		got := ReinhardLabToRGB(ReinhardRGBToLab(c))
		if !nearlyEqualVec(c, got, 1e-4) {
			t.Fatalf("RGB->Reinhard->RGB mismatch: in=%v out=%v", c, got)
		}
	})
}

func TestReinhardBlackIsFinite(t *testing.T) {
	lab := ReinhardRGBToLab(Vec3{})
	for i, x := range lab {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			t.Fatalf("channel %d of black is not finite: %v", i, lab)
		}
	}
}

func TestHSL(t *testing.T) {
	rgbGrid(7, func(c Vec3) {
		got := HSLToRGB(RGBToHSL(c))
		if !nearlyEqualVec(c, got, 1e-9) {
			t.Fatalf("RGB->HSL->RGB mismatch: in=%v out=%v hsl=%v", c, got, RGBToHSL(c))
		}
	})
	for _, g := range []float64{0, 0.25, 0.5, 1} {
		t.Run(fmt.Sprintf("gray-%v", g), func(t *testing.T) {
			hsl := RGBToHSL(Vec3{g, g, g})
			if hsl != (Vec3{0, 0, g}) {
				t.Fatalf("gray %v did not map to (0,0,%v): %v", g, g, hsl)
			}
		})
	}
	if hsl := RGBToHSL(Vec3{1, 0, 0}); !nearlyEqualVec(hsl, Vec3{0, 1, 0.5}, 1e-12) {
		t.Fatalf("unexpected HSL for red: %v", hsl)
	}
	if hsl := RGBToHSL(Vec3{0, 0, 1}); !nearlyEqualVec(hsl, Vec3{240, 1, 0.5}, 1e-12) {
		t.Fatalf("unexpected HSL for blue: %v", hsl)
	}
}

func TestWhiteIsNearL100(t *testing.T) {
	lab := RGBToLab(Vec3{1, 1, 1})
	if !nearlyEqual(lab[0], 100, 0.05) {
		t.Fatalf("white L* not near 100: %v", lab)
	}
}

func TestDeltaE(t *testing.T) {
	for _, tc := range tableCases {
		lab := RGBToLab(tc.rgb)
		if d := DeltaE(lab, lab); d != 0 {
			t.Fatalf("DeltaE of %s with itself is %v", tc.name, d)
		}
	}
	a := Vec3{50, 10, 10}
	near := DeltaE(a, Vec3{50.5, 10, 10})
	far := DeltaE(a, Vec3{60, 30, -10})
	if !(near > 0 && far > near) {
		t.Fatalf("DeltaE is not monotonic: near=%v far=%v", near, far)
	}
	if d := DeltaE(Vec3{10, 0, 0}, Vec3{10, 0, 0}); math.IsNaN(d) {
		t.Fatalf("DeltaE of achromatic colors is NaN")
	}
}
