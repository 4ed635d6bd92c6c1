// Package config holds the settings of the pcstyle binaries.
package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/kovidgoyal/pcstyle"
	"github.com/kovidgoyal/pcstyle/internal/logger"
	"github.com/kovidgoyal/pcstyle/style"
	"github.com/kovidgoyal/pcstyle/transfer"
)

var _ = fmt.Print

// Config holds everything needed for one style transfer run.
type Config struct {
	Input    CloudConfig    `yaml:"input"`
	Target   CloudConfig    `yaml:"target"`
	Output   OutputConfig   `yaml:"output"`
	Transfer TransferConfig `yaml:"transfer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// CloudConfig describes how one point cloud is read and how its style is
// extracted.
type CloudConfig struct {
	Path               string `yaml:"path"`
	NormalsPCA         bool   `yaml:"normals_pca"`
	FloatColorsAsUchar bool   `yaml:"float_colors_as_uchar"`

	// Used for points whose normal is zero
	DefaultNormal [3]float64 `yaml:"default_normal,flow"`
}

type OutputConfig struct {
	// Defaults to the input path with a -styled suffix
	Path        string `yaml:"path"`
	FloatColors bool   `yaml:"float_colors"`

	// One of ascii, binary_little_endian or binary_big_endian. Empty means
	// the default for the file extension.
	Format string `yaml:"format"`
}

type TransferConfig struct {
	Method   string  `yaml:"method"`
	Exposure float64 `yaml:"exposure"`

	// Zero means one worker per CPU
	Workers int `yaml:"workers"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the default values. Paths are left empty.
func Default() *Config {
	return &Config{
		Input:  CloudConfig{NormalsPCA: true, DefaultNormal: [3]float64{0, 0, 1}},
		Target: CloudConfig{NormalsPCA: true, DefaultNormal: [3]float64{0, 0, 1}},
		Transfer: TransferConfig{
			Method:   transfer.MGD_N.String(),
			Exposure: 1,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

func (c *CloudConfig) validate(which string) error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("no %s point cloud specified", which)
	}
	if c.DefaultNormal == [3]float64{} {
		return fmt.Errorf("the default normal for the %s point cloud must not be zero", which)
	}
	for _, x := range c.DefaultNormal {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("the default normal for the %s point cloud is not finite: %v", which, c.DefaultNormal)
		}
	}
	return nil
}

// Validate reports every problem with the config.
func (c *Config) Validate() error {
	var errs []error
	errs = append(errs, c.Input.validate("input"), c.Target.validate("target"))
	if _, err := transfer.ParseMethod(c.Transfer.Method); err != nil {
		errs = append(errs, err)
	}
	if e := c.Transfer.Exposure; !(e > 0) || math.IsInf(e, 0) {
		errs = append(errs, fmt.Errorf("exposure must be a positive number, not: %v", e))
	}
	if c.Transfer.Workers < 0 {
		errs = append(errs, fmt.Errorf("the number of workers cannot be negative: %d", c.Transfer.Workers))
	}
	if c.Output.Format != "" {
		if _, err := pcstyle.ParseFormat(c.Output.Format); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s", err, c.Output.Format))
		}
	}
	if c.Output.Path != "" {
		if _, err := pcstyle.FormatFromFilename(c.Output.Path); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s", err, c.Output.Path))
		}
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Method returns the parsed transfer method.
func (c *Config) Method() (transfer.Method, error) { return transfer.ParseMethod(c.Transfer.Method) }

// OutputPath returns the configured output path or one derived from the
// input path.
func (c *Config) OutputPath() string {
	if c.Output.Path != "" {
		return c.Output.Path
	}
	ext := filepath.Ext(c.Input.Path)
	return strings.TrimSuffix(c.Input.Path, ext) + "-styled.ply"
}

func (c *CloudConfig) DecodeOptions() []pcstyle.DecodeOption {
	return []pcstyle.DecodeOption{
		pcstyle.DefaultNormal(pcstyle.Vec3(c.DefaultNormal).Normalized()),
		pcstyle.FloatColorsAsUchar(c.FloatColorsAsUchar),
	}
}

func (c *Config) ExtractOptions(cloud *CloudConfig) []style.ExtractOption {
	return []style.ExtractOption{style.WithNormalsPCA(cloud.NormalsPCA), style.WithWorkers(c.Transfer.Workers)}
}

func (c *Config) EncodeOptions() (ans []pcstyle.EncodeOption, err error) {
	ans = append(ans, pcstyle.FloatColors(c.Output.FloatColors))
	if c.Output.Format != "" {
		f, err := pcstyle.ParseFormat(c.Output.Format)
		if err != nil {
			return nil, err
		}
		ans = append(ans, pcstyle.Encoding(f))
	}
	return
}
