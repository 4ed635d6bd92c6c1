package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kovidgoyal/pcstyle"
	"github.com/kovidgoyal/pcstyle/internal/config"
	"github.com/kovidgoyal/pcstyle/internal/logger"
	"github.com/kovidgoyal/pcstyle/style"
	"github.com/kovidgoyal/pcstyle/transfer"

	"go.uber.org/zap"
)

var _ = fmt.Print

func load(which string, cfg *config.Config, cc *config.CloudConfig) (cloud *pcstyle.PointCloud, stats *style.Statistics, err error) {
	if cloud, err = pcstyle.Open(cc.Path, cc.DecodeOptions()...); err != nil {
		return
	}
	logger.Info("loaded point cloud", zap.String("which", which), zap.String("path", cc.Path),
		zap.Int("points", cloud.Len()), zap.Stringer("format", cloud.Format))
	start := time.Now()
	if stats, err = style.NewPointCloudExtractor(cloud, cfg.ExtractOptions(cc)...).ExtractStyle(); err != nil {
		return nil, nil, fmt.Errorf("failed to extract the style of %s: %w", cc.Path, err)
	}
	logger.Debug("extracted style", zap.String("which", which), zap.Duration("took", time.Since(start)),
		zap.Any("basis", stats.Basis), zap.Bool("has_normals", stats.HasNormals()))
	logger.Debug(stats.String())
	return
}

func main() {
	var err error
	defer func() {
		if err != nil {
			logger.Error("style transfer failed", zap.Error(err))
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}()
	cfg, args, err := config.Load("styletransfer", os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			err = nil
		}
		return
	}
	if len(args) > 3 {
		fmt.Fprintln(os.Stderr, "usage: styletransfer [options] [input.ply target.ply [output.ply]]")
		os.Exit(1)
	}
	for i, dest := range []*string{&cfg.Input.Path, &cfg.Target.Path, &cfg.Output.Path}[:len(args)] {
		*dest = args[i]
	}
	if err = cfg.Validate(); err != nil {
		return
	}
	if err = logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return
	}
	defer logger.Sync()
	method, err := cfg.Method()
	if err != nil {
		return
	}

	input, si, err := load("input", cfg, &cfg.Input)
	if err != nil {
		return
	}
	_, st, err := load("target", cfg, &cfg.Target)
	if err != nil {
		return
	}
	engine := transfer.New(si, st, transfer.WithWorkers(cfg.Transfer.Workers))
	if method.NeedsTransport() {
		start := time.Now()
		if _, err = engine.Transport(method); err != nil {
			err = fmt.Errorf("cannot use %s: %w", method, err)
			return
		}
		logger.Debug("computed transport matrix", zap.Stringer("method", method), zap.Duration("took", time.Since(start)))
	}
	colors, err := engine.Apply(method, cfg.Transfer.Exposure, input)
	if err != nil {
		return
	}
	out, err := input.WithColors(colors)
	if err != nil {
		return
	}
	opts, err := cfg.EncodeOptions()
	if err != nil {
		return
	}
	output_file := cfg.OutputPath()
	if err = pcstyle.Save(out, output_file, append(opts, pcstyle.Comment("pcstyle "+pcstyle.Version.String()+" "+method.String()))...); err != nil {
		return
	}
	logger.Info("saved point cloud", zap.String("path", output_file), zap.Stringer("method", method),
		zap.Float64("exposure", cfg.Transfer.Exposure))
}
