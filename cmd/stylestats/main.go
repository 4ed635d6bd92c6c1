package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/kovidgoyal/pcstyle"
	"github.com/kovidgoyal/pcstyle/internal/config"
	"github.com/kovidgoyal/pcstyle/internal/logger"
	"github.com/kovidgoyal/pcstyle/style"
	"github.com/kovidgoyal/pcstyle/transfer"
	"github.com/kovidgoyal/pcstyle/types"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

var _ = fmt.Print

type cloud_report struct {
	Path         string                                     `json:"path"`
	Points       int                                        `json:"points"`
	Format       string                                     `json:"format"`
	Source       string                                     `json:"source"`
	HasNormals   bool                                       `json:"has_normals"`
	Basis        types.Mat3                                 `json:"basis"`
	Mean         [style.Dims]float64                        `json:"mean"`
	Std          [style.Dims]float64                        `json:"std"`
	Covariance   [][]float64                                `json:"covariance"`
	MeanByOctant [style.ColorDims][style.NormalDims]float64 `json:"mean_by_octant"`
	StdByOctant  [style.ColorDims][style.NormalDims]float64 `json:"std_by_octant"`
	Constant     [style.Dims]bool                           `json:"constant_channels"`
}

type report struct {
	Input      cloud_report         `json:"input"`
	Target     *cloud_report        `json:"target,omitempty"`
	Parameters *transfer.Parameters `json:"parameters,omitempty"`
}

func rows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	ans := make([][]float64, r)
	for i := range ans {
		ans[i] = make([]float64, c)
		for j := range c {
			ans[i][j] = m.At(i, j)
		}
	}
	return ans
}

func describe(cfg *config.Config, cc *config.CloudConfig) (ans cloud_report, s *style.Statistics, err error) {
	cloud, err := pcstyle.Open(cc.Path, cc.DecodeOptions()...)
	if err != nil {
		return
	}
	if s, err = style.NewPointCloudExtractor(cloud, cfg.ExtractOptions(cc)...).ExtractStyle(); err != nil {
		return ans, nil, fmt.Errorf("failed to extract the style of %s: %w", cc.Path, err)
	}
	logger.Debug("extracted style", zap.String("path", cc.Path), zap.Int("points", s.N))
	ans = cloud_report{
		Path: cc.Path, Points: s.N, Format: cloud.Format.String(), Source: s.Source.String(),
		HasNormals: s.HasNormals(), Basis: s.Basis, Mean: s.Mean, Std: s.Std, Covariance: rows(s.Cov),
		MeanByOctant: s.MeanByOctant, StdByOctant: s.StdByOctant, Constant: s.Constant,
	}
	return
}

func main() {
	var err error
	defer func() {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}()
	cfg, args, err := config.Load("stylestats", os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			err = nil
		}
		return
	}
	if len(args) > 2 || (len(args) == 0 && cfg.Input.Path == "") {
		fmt.Fprintln(os.Stderr, "usage: stylestats [options] input.ply [target.ply]")
		os.Exit(1)
	}
	for i, dest := range []*string{&cfg.Input.Path, &cfg.Target.Path}[:len(args)] {
		*dest = args[i]
	}
	// the output is JSON, not a point cloud
	json_file := cfg.Output.Path
	cfg.Output.Path = ""
	has_target := cfg.Target.Path != ""
	if !has_target {
		// only the input is described, validate the rest of the config
		cfg.Target.Path = cfg.Input.Path
	}
	if err = cfg.Validate(); err != nil {
		return
	}
	if err = logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return
	}
	defer logger.Sync()

	var r report
	ri, si, err := describe(cfg, &cfg.Input)
	if err != nil {
		return
	}
	r.Input = ri
	if has_target {
		rt, st, derr := describe(cfg, &cfg.Target)
		if err = derr; err != nil {
			return
		}
		r.Target = &rt
		method, merr := cfg.Method()
		if err = merr; err != nil {
			return
		}
		p, perr := transfer.New(si, st, transfer.WithWorkers(cfg.Transfer.Workers)).Parameters(method)
		if err = perr; err != nil {
			return
		}
		r.Parameters = &p
	}
	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return
	}
	if json_file == "" {
		_, err = os.Stdout.Write(append(b, '\n'))
		return
	}
	if err = os.WriteFile(json_file, b, 0o666); err == nil {
		fmt.Println("Statistics written to:", json_file)
	}
}
