package pcstyle

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample_cloud() *PointCloud {
	return &PointCloud{Samples: []ColorSample{
		{Position: Vec3{0, 0.5, -1.25}, Normal: Vec3{0, 0, 1}, RGB: Vec3{0.25, 0.5, 0.75}},
		{Position: Vec3{1e3, -2, 3.5}, Normal: Vec3{-1, 0, 0}, RGB: Vec3{0, 1, 0.125}},
		{Position: Vec3{-7, 8, 9}, Normal: Vec3{0, 0.6, 0.8}, RGB: Vec3{1.5, -0.25, 1}},
	}}
}

func TestRoundtripFloatColors(t *testing.T) {
	src := sample_cloud()
	for _, format := range []Format{ASCII, BINARY_LITTLE_ENDIAN, BINARY_BIG_ENDIAN} {
		t.Run(format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, src, format, FloatColors(true), Comment("made by a test")))
			got, err := Decode(&buf)
			require.NoError(t, err)
			require.Equal(t, format, got.Format)
			require.Equal(t, []string{"made by a test"}, got.Comments)
			// normal 0.6, 0.8 is not exact in float32
			want := sample_cloud().Samples
			want[2].Normal = Vec3{0, float64(float32(0.6)), float64(float32(0.8))}
			if diff := cmp.Diff(want, got.Samples); diff != "" {
				t.Fatalf("Unexpected samples after round trip:\n%s", diff)
			}
		})
	}
}

func TestRoundtripQuantizedColors(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, sample_cloud(), BINARY_LITTLE_ENDIAN))
	got, err := Decode(&buf)
	require.NoError(t, err)
	expected := [][3]float64{
		{64. / 255, 128. / 255, 191. / 255},
		{0, 1, 32. / 255},
		{1, 0, 1},
	}
	for i, s := range got.Samples {
		assert.InDeltaSlice(t, expected[i][:], s.RGB[:], 1e-15, "sample %d", i)
	}
	assert.Equal(t, sample_cloud().Samples[0].Position, got.Samples[0].Position)
}

const ascii_ply = `ply
format ascii 1.0
comment exported by hand
obj_info not used
element camera 1
property list uchar float intrinsics
property int id
element vertex 3
property float x
property float y
property float z
property uchar red
property uchar green
property uchar blue
property uchar alpha
element face 1
property list uchar int vertex_indices
end_header
3 1.5 2.5 3.5 42
0 0 0 255 0 0 255

1 2 3 0 255 0 255
-1 -2 -3 0 0 51 255
3 0 1 2
`

func TestDecodeASCII(t *testing.T) {
	got, err := Decode(strings.NewReader(ascii_ply))
	require.NoError(t, err)
	require.Equal(t, 3, got.Len())
	require.True(t, got.Ready())
	assert.Equal(t, []string{"exported by hand"}, got.Comments)
	assert.Equal(t, ColorSample{Position: Vec3{1, 2, 3}, Normal: Vec3{0, 0, 1}, RGB: Vec3{0, 1, 0}}, got.At(1))
	assert.InDelta(t, 0.2, got.At(2).RGB[2], 1e-15)
	for _, n := range got.Normals() {
		assert.Equal(t, Vec3{0, 0, 1}, n)
	}

	got, err = Decode(strings.NewReader(ascii_ply), DefaultNormal(Vec3{0, 1, 0}))
	require.NoError(t, err)
	assert.Equal(t, Vec3{0, 1, 0}, got.At(0).Normal)
}

func TestDecodeFloatColorsAsUchar(t *testing.T) {
	data := "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\nproperty float z\n" +
		"property float nx\nproperty float ny\nproperty float nz\nproperty float r\nproperty float g\nproperty float b\nend_header\n" +
		"0 0 0 0 0 0 255 51 0\n"
	got, err := Decode(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, Vec3{255, 51, 0}, got.At(0).RGB)
	assert.Equal(t, Vec3{0, 0, 1}, got.At(0).Normal, "zero normals must be replaced")

	got, err = Decode(strings.NewReader(data), FloatColorsAsUchar(true))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 0.2, 0}, got.Colors()[0][:], 1e-15)
}

func TestDecodeErrors(t *testing.T) {
	for name, data := range map[string]string{
		"not ply":       "PLY\nformat ascii 1.0\nend_header\n",
		"bad format":    "ply\nformat binary_middle_endian 1.0\nend_header\n",
		"no format":     "ply\nelement vertex 0\nend_header\n",
		"bad version":   "ply\nformat ascii 2.0\nend_header\n",
		"no colors":     "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nend_header\n1\n",
		"no vertices":   "ply\nformat ascii 1.0\nelement face 0\nproperty list uchar int vertex_indices\nend_header\n",
		"bad type":      "ply\nformat ascii 1.0\nelement vertex 1\nproperty quad x\nend_header\n",
		"truncated":     "ply\nformat binary_little_endian 1.0\nelement vertex 2\nproperty uchar red\nproperty uchar green\nproperty uchar blue\nend_header\n\x01\x02\x03\x04",
		"short record":  "ply\nformat ascii 1.0\nelement vertex 1\nproperty uchar red\nproperty uchar green\nproperty uchar blue\nend_header\n1 2\n",
		"no end_header": "ply\nformat ascii 1.0\n",
		"huge count":    "ply\nformat ascii 1.0\nelement vertex 999999999999999\nproperty uchar red\nproperty uchar green\nproperty uchar blue\nend_header\n1 2 3\n",
		"huge binary":   "ply\nformat binary_big_endian 1.0\nelement vertex 999999999999999\nproperty uchar red\nproperty uchar green\nproperty uchar blue\nend_header\n\x01\x02\x03",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(data))
			require.Error(t, err)
		})
	}
	_, err := Decode(strings.NewReader("PLY\n"))
	require.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestSaveAndOpen(t *testing.T) {
	dir := t.TempDir()
	src := sample_cloud()
	name := filepath.Join(dir, "cloud.ply")
	require.NoError(t, Save(src, name, FloatColors(true), Encoding(ASCII)))
	got, err := Open(name)
	require.NoError(t, err)
	assert.Equal(t, ASCII, got.Format)
	assert.Equal(t, src.Samples[1], got.Samples[1])

	require.NoError(t, Save(src, name))
	got, err = Open(name)
	require.NoError(t, err)
	assert.Equal(t, BINARY_LITTLE_ENDIAN, got.Format)

	require.ErrorIs(t, Save(src, filepath.Join(dir, "cloud.xyz")), ErrUnsupportedFormat)
	_, err = Open(filepath.Join(dir, "missing.ply"))
	require.Error(t, err)
}

func TestFormats(t *testing.T) {
	f, err := FormatFromFilename("a/b/scan.PLY")
	require.NoError(t, err)
	assert.Equal(t, BINARY_LITTLE_ENDIAN, f)
	_, err = FormatFromExtension("obj")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	f, err = ParseFormat("Binary_Big_Endian")
	require.NoError(t, err)
	assert.Equal(t, BINARY_BIG_ENDIAN, f)
	assert.ErrorIs(t, Encode(&bytes.Buffer{}, sample_cloud(), UNKNOWN), ErrUnsupportedFormat)
}

func TestWithColors(t *testing.T) {
	src := sample_cloud()
	colors := []Vec3{{1, 1, 1}, {0, 0, 0}, {0.5, 0.5, 0.5}}
	got, err := src.WithColors(colors)
	require.NoError(t, err)
	assert.Equal(t, colors, got.Colors())
	assert.Equal(t, src.Normals(), got.Normals())
	assert.Equal(t, Vec3{0.25, 0.5, 0.75}, src.At(0).RGB, "source must not be modified")
	_, err = src.WithColors(colors[:1])
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "0.3.0", Version.String())
	assert.Equal(t, "1.12.0", PCStyleVersion{1, 12, 0}.String())
}
