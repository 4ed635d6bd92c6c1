package pcstyle

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kovidgoyal/pcstyle/types"
)

type fileSystem interface {
	Create(string) (io.WriteCloser, error)
	Open(string) (io.ReadCloser, error)
}

type localFS struct{}

func (localFS) Create(name string) (io.WriteCloser, error) { return os.Create(name) }
func (localFS) Open(name string) (io.ReadCloser, error)    { return os.Open(name) }

var fs fileSystem = localFS{}

type Format = types.Format

const (
	UNKNOWN              = types.UNKNOWN
	ASCII                = types.ASCII
	BINARY_LITTLE_ENDIAN = types.BINARY_LITTLE_ENDIAN
	BINARY_BIG_ENDIAN    = types.BINARY_BIG_ENDIAN
)

// ErrUnsupportedFormat means the given point cloud format is not supported.
var ErrUnsupportedFormat = errors.New("pcstyle: unsupported point cloud format")

// ParseFormat parses a PLY encoding name: "ascii", "binary_little_endian" or
// "binary_big_endian".
func ParseFormat(name string) (Format, error) {
	if f, ok := types.FormatNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f, nil
	}
	return UNKNOWN, ErrUnsupportedFormat
}

// FormatFromExtension returns the default encoding for the filename extension
// ext. Only "ply" is supported, its default encoding is binary little endian.
func FormatFromExtension(ext string) (Format, error) {
	if strings.ToLower(strings.TrimPrefix(ext, ".")) == "ply" {
		return BINARY_LITTLE_ENDIAN, nil
	}
	return UNKNOWN, ErrUnsupportedFormat
}

// FormatFromFilename returns the default encoding for filename, see FormatFromExtension.
func FormatFromFilename(filename string) (Format, error) {
	ext := filepath.Ext(filename)
	return FormatFromExtension(ext)
}

type scalar int

const (
	invalid_scalar scalar = iota
	int8_scalar
	uint8_scalar
	int16_scalar
	uint16_scalar
	int32_scalar
	uint32_scalar
	float32_scalar
	float64_scalar
)

var scalar_names = map[string]scalar{
	"char": int8_scalar, "int8": int8_scalar,
	"uchar": uint8_scalar, "uint8": uint8_scalar,
	"short": int16_scalar, "int16": int16_scalar,
	"ushort": uint16_scalar, "uint16": uint16_scalar,
	"int": int32_scalar, "int32": int32_scalar,
	"uint": uint32_scalar, "uint32": uint32_scalar,
	"float": float32_scalar, "float32": float32_scalar,
	"double": float64_scalar, "float64": float64_scalar,
}

func (s scalar) size() int {
	switch s {
	case int8_scalar, uint8_scalar:
		return 1
	case int16_scalar, uint16_scalar:
		return 2
	case int32_scalar, uint32_scalar, float32_scalar:
		return 4
	case float64_scalar:
		return 8
	}
	return 0
}

// color_divisor maps integer color channels to [0,1]
func (s scalar) color_divisor() float64 {
	switch s {
	case uint8_scalar:
		return 255
	case uint16_scalar:
		return 65535
	}
	return 1
}

type property struct {
	name       string
	kind       scalar
	list_count scalar
}

func (p property) is_list() bool { return p.list_count != invalid_scalar }

type element struct {
	name       string
	count      int
	properties []property
}

type header struct {
	format   Format
	elements []*element
	comments []string
}

func read_header(r *bufio.Reader) (h header, err error) {
	line_num := 0
	next_line := func() (string, error) {
		line, err := r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return "", err
		}
		line_num++
		return strings.TrimSpace(line), nil
	}
	first, err := next_line()
	if err != nil {
		return h, err
	}
	if first != "ply" {
		return h, fmt.Errorf("%w: missing ply magic", ErrUnsupportedFormat)
	}
	var current *element
	for {
		line, err := next_line()
		if err != nil {
			return h, fmt.Errorf("failed to read PLY header: %w", err)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		bad := func() error { return fmt.Errorf("malformed PLY header line %d: %#v", line_num, line) }
		switch fields[0] {
		case "end_header":
			if h.format == UNKNOWN {
				return h, fmt.Errorf("%w: PLY header has no format line", ErrUnsupportedFormat)
			}
			return h, nil
		case "format":
			if len(fields) != 3 {
				return h, bad()
			}
			if h.format, err = ParseFormat(fields[1]); err != nil {
				return h, fmt.Errorf("%w: %s", err, fields[1])
			}
			if fields[2] != "1.0" {
				return h, fmt.Errorf("%w: PLY version %s", ErrUnsupportedFormat, fields[2])
			}
		case "comment":
			h.comments = append(h.comments, strings.TrimSpace(strings.TrimPrefix(line, "comment")))
		case "obj_info":
		case "element":
			if len(fields) != 3 {
				return h, bad()
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return h, bad()
			}
			current = &element{name: fields[1], count: count}
			h.elements = append(h.elements, current)
		case "property":
			if current == nil {
				return h, bad()
			}
			var p property
			var ok bool
			switch {
			case len(fields) == 3:
				p.name = fields[2]
				p.kind, ok = scalar_names[fields[1]]
			case len(fields) == 5 && fields[1] == "list":
				p.name = fields[4]
				if p.list_count, ok = scalar_names[fields[2]]; ok {
					p.kind, ok = scalar_names[fields[3]]
				}
			}
			if !ok {
				return h, bad()
			}
			current.properties = append(current.properties, p)
		default:
			return h, bad()
		}
	}
}

type value_reader interface {
	next_record() error
	read(kind scalar) (float64, error)
}

type ascii_reader struct {
	r      *bufio.Reader
	fields []string
	pos    int
}

func (a *ascii_reader) next_record() error {
	for {
		line, err := a.r.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return err
		}
		if a.fields = strings.Fields(line); len(a.fields) > 0 {
			a.pos = 0
			return nil
		}
	}
}

func (a *ascii_reader) read(kind scalar) (float64, error) {
	if a.pos >= len(a.fields) {
		return 0, fmt.Errorf("too few values in PLY record: %#v", strings.Join(a.fields, " "))
	}
	q := a.fields[a.pos]
	a.pos++
	return strconv.ParseFloat(q, types.IfElse(kind == float32_scalar, 32, 64))
}

type binary_reader struct {
	r     io.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binary_reader) next_record() error { return nil }

func (b *binary_reader) read(kind scalar) (float64, error) {
	s := b.buf[:kind.size()]
	if _, err := io.ReadFull(b.r, s); err != nil {
		return 0, err
	}
	switch kind {
	case int8_scalar:
		return float64(int8(s[0])), nil
	case uint8_scalar:
		return float64(s[0]), nil
	case int16_scalar:
		return float64(int16(b.order.Uint16(s))), nil
	case uint16_scalar:
		return float64(b.order.Uint16(s)), nil
	case int32_scalar:
		return float64(int32(b.order.Uint32(s))), nil
	case uint32_scalar:
		return float64(b.order.Uint32(s)), nil
	case float32_scalar:
		return float64(math.Float32frombits(b.order.Uint32(s))), nil
	case float64_scalar:
		return math.Float64frombits(b.order.Uint64(s)), nil
	}
	return 0, fmt.Errorf("invalid PLY scalar type: %d", kind)
}

type decodeConfig struct {
	defaultNormal      Vec3
	floatColorsAsUchar bool
}

var defaultDecodeConfig = decodeConfig{
	defaultNormal: Vec3{0, 0, 1},
}

// DecodeOption sets an optional parameter for the Decode and Open functions.
type DecodeOption func(*decodeConfig)

// DefaultNormal returns a DecodeOption that sets the normal given to points
// that have no normal, or a zero one. Default is +Z.
func DefaultNormal(n Vec3) DecodeOption {
	return func(c *decodeConfig) {
		c.defaultNormal = n
	}
}

// FloatColorsAsUchar returns a DecodeOption that treats floating point color
// channels as being in [0,255] rather than [0,1]. Integer color channels are
// always scaled by the maximum of their type. By default it's disabled.
func FloatColorsAsUchar(enabled bool) DecodeOption {
	return func(c *decodeConfig) {
		c.floatColorsAsUchar = enabled
	}
}

func skip_element(vr value_reader, e *element) error {
	for range e.count {
		if err := vr.next_record(); err != nil {
			return err
		}
		for _, p := range e.properties {
			if err := read_property(vr, p, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

func read_property(vr value_reader, p property, dest *float64) error {
	if p.is_list() {
		n, err := vr.read(p.list_count)
		if err != nil {
			return err
		}
		for range int(n) {
			if _, err = vr.read(p.kind); err != nil {
				return err
			}
		}
		return nil
	}
	v, err := vr.read(p.kind)
	if err == nil && dest != nil {
		*dest = v
	}
	return err
}

const max_preallocated_vertices = 1 << 20

func read_vertices(vr value_reader, e *element, cfg *decodeConfig) ([]ColorSample, error) {
	var scratch float64
	// counts come from the file and are not trusted
	ans := make([]ColorSample, 0, min(e.count, max_preallocated_vertices))
	targets := make([]func(*ColorSample) *float64, len(e.properties))
	divisors := make([]float64, len(e.properties))
	has_color := 0
	for i, p := range e.properties {
		divisors[i] = 1
		if p.is_list() {
			continue
		}
		color_divisor := p.kind.color_divisor()
		if cfg.floatColorsAsUchar && (p.kind == float32_scalar || p.kind == float64_scalar) {
			color_divisor = 255
		}
		switch p.name {
		case "x":
			targets[i] = func(s *ColorSample) *float64 { return &s.Position[0] }
		case "y":
			targets[i] = func(s *ColorSample) *float64 { return &s.Position[1] }
		case "z":
			targets[i] = func(s *ColorSample) *float64 { return &s.Position[2] }
		case "nx":
			targets[i] = func(s *ColorSample) *float64 { return &s.Normal[0] }
		case "ny":
			targets[i] = func(s *ColorSample) *float64 { return &s.Normal[1] }
		case "nz":
			targets[i] = func(s *ColorSample) *float64 { return &s.Normal[2] }
		case "red", "r", "diffuse_red":
			targets[i], divisors[i] = func(s *ColorSample) *float64 { return &s.RGB[0] }, color_divisor
			has_color |= 1
		case "green", "g", "diffuse_green":
			targets[i], divisors[i] = func(s *ColorSample) *float64 { return &s.RGB[1] }, color_divisor
			has_color |= 2
		case "blue", "b", "diffuse_blue":
			targets[i], divisors[i] = func(s *ColorSample) *float64 { return &s.RGB[2] }, color_divisor
			has_color |= 4
		}
	}
	if has_color != 7 {
		return nil, fmt.Errorf("PLY vertex element has no red, green and blue properties")
	}
	for n := range e.count {
		var sample ColorSample
		s := &sample
		if err := vr.next_record(); err != nil {
			return nil, fmt.Errorf("failed to read vertex %d: %w", n, err)
		}
		for i, p := range e.properties {
			dest := &scratch
			if targets[i] != nil {
				dest = targets[i](s)
			}
			if err := read_property(vr, p, dest); err != nil {
				return nil, fmt.Errorf("failed to read property %s of vertex %d: %w", p.name, n, err)
			}
			*dest /= divisors[i]
		}
		if s.Normal.IsZero() {
			s.Normal = cfg.defaultNormal
		}
		ans = append(ans, sample)
	}
	return ans, nil
}

// Decode reads a point cloud in PLY format from r. Only the vertex element is
// used, other elements such as faces are skipped.
func Decode(r io.Reader, opts ...DecodeOption) (*PointCloud, error) {
	cfg := defaultDecodeConfig
	for _, option := range opts {
		option(&cfg)
	}
	br := bufio.NewReader(r)
	h, err := read_header(br)
	if err != nil {
		return nil, err
	}
	var vr value_reader
	switch h.format {
	case ASCII:
		vr = &ascii_reader{r: br}
	case BINARY_LITTLE_ENDIAN:
		vr = &binary_reader{r: br, order: binary.LittleEndian}
	case BINARY_BIG_ENDIAN:
		vr = &binary_reader{r: br, order: binary.BigEndian}
	default:
		return nil, ErrUnsupportedFormat
	}
	for _, e := range h.elements {
		if e.name != "vertex" {
			if err = skip_element(vr, e); err != nil {
				return nil, fmt.Errorf("failed to skip PLY element %s: %w", e.name, err)
			}
			continue
		}
		samples, err := read_vertices(vr, e, &cfg)
		if err != nil {
			return nil, err
		}
		return &PointCloud{Samples: samples, Format: h.format, Comments: h.comments}, nil
	}
	return nil, fmt.Errorf("PLY file has no vertex element")
}

// Open loads a point cloud from a PLY file.
//
// Examples:
//
//	// Load a cloud whose colors are stored as floats in [0,255].
//	cloud, err := pcstyle.Open("scan.ply", pcstyle.FloatColorsAsUchar(true))
func Open(filename string, opts ...DecodeOption) (*PointCloud, error) {
	file, err := fs.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	ans, err := Decode(file, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to read point cloud from %s: %w", filename, err)
	}
	return ans, nil
}

type encodeConfig struct {
	format      Format
	floatColors bool
	comments    []string
}

var defaultEncodeConfig = encodeConfig{}

// EncodeOption sets an optional parameter for the Encode and Save functions.
type EncodeOption func(*encodeConfig)

// FloatColors returns an EncodeOption that writes colors as unclamped floats
// instead of quantizing them to uchar. By default it's disabled.
func FloatColors(enabled bool) EncodeOption {
	return func(c *encodeConfig) {
		c.floatColors = enabled
	}
}

// Encoding returns an EncodeOption that sets the PLY encoding used by Save,
// overriding the default for the filename.
func Encoding(f Format) EncodeOption {
	return func(c *encodeConfig) {
		c.format = f
	}
}

// Comment returns an EncodeOption that adds a comment line to the header.
func Comment(text string) EncodeOption {
	return func(c *encodeConfig) {
		c.comments = append(c.comments, text)
	}
}

func quantize(c float64) uint8 {
	return uint8(math.Round(max(0, min(c, 1)) * 255))
}

// Encode writes the cloud to w in PLY format with the specified encoding.
func Encode(w io.Writer, cloud types.Supplier, format Format, opts ...EncodeOption) (err error) {
	cfg := defaultEncodeConfig
	for _, option := range opts {
		option(&cfg)
	}
	var order binary.ByteOrder
	switch format {
	case ASCII:
	case BINARY_LITTLE_ENDIAN:
		order = binary.LittleEndian
	case BINARY_BIG_ENDIAN:
		order = binary.BigEndian
	default:
		return ErrUnsupportedFormat
	}
	bw := bufio.NewWriter(w)
	color_type := types.IfElse(cfg.floatColors, "float", "uchar")
	fmt.Fprintf(bw, "ply\nformat %s 1.0\n", format)
	for _, c := range cfg.comments {
		fmt.Fprintf(bw, "comment %s\n", strings.ReplaceAll(c, "\n", " "))
	}
	fmt.Fprintf(bw, "element vertex %d\n", cloud.Len())
	for _, name := range []string{"x", "y", "z", "nx", "ny", "nz"} {
		fmt.Fprintf(bw, "property float %s\n", name)
	}
	for _, name := range []string{"red", "green", "blue"} {
		fmt.Fprintf(bw, "property %s %s\n", color_type, name)
	}
	bw.WriteString("end_header\n")

	var buf [4]byte
	var fields [6]float32
	for i := range cloud.Len() {
		s := cloud.At(i)
		for j := range 3 {
			fields[j], fields[j+3] = float32(s.Position[j]), float32(s.Normal[j])
		}
		if order == nil {
			parts := make([]string, 0, 9)
			for _, f := range fields {
				parts = append(parts, strconv.FormatFloat(float64(f), 'g', -1, 32))
			}
			for _, c := range s.RGB {
				if cfg.floatColors {
					parts = append(parts, strconv.FormatFloat(float64(float32(c)), 'g', -1, 32))
				} else {
					parts = append(parts, strconv.Itoa(int(quantize(c))))
				}
			}
			bw.WriteString(strings.Join(parts, " "))
			bw.WriteByte('\n')
			continue
		}
		for _, f := range fields {
			order.PutUint32(buf[:], math.Float32bits(f))
			bw.Write(buf[:])
		}
		for _, c := range s.RGB {
			if cfg.floatColors {
				order.PutUint32(buf[:], math.Float32bits(float32(c)))
				bw.Write(buf[:])
			} else {
				bw.WriteByte(quantize(c))
			}
		}
	}
	return bw.Flush()
}

// Save saves the cloud to the file with the specified filename. The encoding
// is binary little endian unless set with the Encoding option.
//
// Examples:
//
//	// Save the cloud as human readable text.
//	err := pcstyle.Save(cloud, "out.ply", pcstyle.Encoding(pcstyle.ASCII))
func Save(cloud types.Supplier, filename string, opts ...EncodeOption) (err error) {
	f, err := FormatFromFilename(filename)
	if err != nil {
		return err
	}
	cfg := defaultEncodeConfig
	for _, option := range opts {
		option(&cfg)
	}
	if cfg.format != UNKNOWN {
		f = cfg.format
	}
	file, err := fs.Create(filename)
	if err != nil {
		return err
	}
	err = Encode(file, cloud, f, opts...)
	errc := file.Close()
	if err == nil {
		err = errc
	}
	return err
}
