package config

import (
	"flag"
	"io"
)

// Flags are the command line overrides for a Config.
type Flags struct {
	fs *flag.FlagSet

	config, input, target, output       string
	method, format, log_level, log_file string
	exposure                            float64
	workers                             int
	no_pca, float_colors, debug         bool
}

func NewFlags(name string) *Flags {
	f := &Flags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	fs := f.fs
	fs.StringVar(&f.config, "config", "", "Path to a YAML config file")
	fs.StringVar(&f.input, "input", "", "The point cloud to recolor")
	fs.StringVar(&f.target, "target", "", "The point cloud whose style is transferred")
	fs.StringVar(&f.output, "output", "", "Where to write the recolored point cloud")
	fs.StringVar(&f.method, "method", "", "Transfer method: IGD, IGD_N, MGD or MGD_N")
	fs.Float64Var(&f.exposure, "exposure", 0, "Multiplier applied to the output colors")
	fs.IntVar(&f.workers, "workers", -1, "Number of parallel workers, 0 for one per CPU")
	fs.BoolVar(&f.no_pca, "no-pca", false, "Use the identity normal basis for both clouds")
	fs.StringVar(&f.format, "format", "", "Output PLY encoding: ascii, binary_little_endian or binary_big_endian")
	fs.BoolVar(&f.float_colors, "float-colors", false, "Write colors as float instead of uchar")
	fs.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.log_level, "log-level", "", "Log level: debug, info, warn or error")
	fs.StringVar(&f.log_file, "log-file", "", "Also log to this file, rotating it as it grows")
	return f
}

func (f *Flags) Parse(args []string) error { return f.fs.Parse(args) }
func (f *Flags) Args() []string            { return f.fs.Args() }
func (f *Flags) ConfigPath() string        { return f.config }
func (f *Flags) SetOutput(w io.Writer)     { f.fs.SetOutput(w) }

// Apply overrides the values in cfg with the flags that were actually set on
// the command line.
func (f *Flags) Apply(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "input":
			cfg.Input.Path = f.input
		case "target":
			cfg.Target.Path = f.target
		case "output":
			cfg.Output.Path = f.output
		case "method":
			cfg.Transfer.Method = f.method
		case "exposure":
			cfg.Transfer.Exposure = f.exposure
		case "workers":
			cfg.Transfer.Workers = f.workers
		case "no-pca":
			cfg.Input.NormalsPCA, cfg.Target.NormalsPCA = !f.no_pca, !f.no_pca
		case "format":
			cfg.Output.Format = f.format
		case "float-colors":
			cfg.Output.FloatColors = f.float_colors
		case "log-level":
			cfg.Logging.Level = f.log_level
		case "log-file":
			cfg.Logging.LogFile = f.log_file
		}
	})
	// -debug wins over -log-level regardless of order
	if f.debug {
		cfg.Logging.Level = "debug"
	}
}
