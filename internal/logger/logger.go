// Package logger configures the structured logging used by the pcstyle
// binaries. The library packages never log.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var _ = fmt.Print

// Log is the process wide logger. It discards everything until Init is
// called.
var Log = zap.NewNop()

// FileConfig controls the rotating log file.
type FileConfig struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func DefaultFileConfig(path string) FileConfig {
	return FileConfig{Path: path, MaxSizeMB: 20, MaxBackups: 3, MaxAgeDays: 14, Compress: true}
}

// ParseLevel accepts debug, info, warn and error. The empty string means info.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level: %#v", level)
}

func encoder_config(color bool) zapcore.EncoderConfig {
	ans := zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "msg",
		CallerKey:        "caller",
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	}
	if color {
		ans.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		ans.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return ans
}

// New builds a logger writing to console (when not nil) and to the rotating
// file described by file (when file.Path is set). Console output goes
// through a colored encoder only when console is os.Stderr or os.Stdout.
func New(level string, console io.Writer, file FileConfig) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	var cores []zapcore.Core
	if console != nil {
		color := console == os.Stderr || console == os.Stdout
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encoder_config(color)), zapcore.AddSync(console), lvl))
	}
	if file.Path != "" {
		w := &lumberjack.Logger{
			Filename:   file.Path,
			MaxSize:    file.MaxSizeMB,
			MaxBackups: file.MaxBackups,
			MaxAge:     file.MaxAgeDays,
			Compress:   file.Compress,
			LocalTime:  true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoder_config(false)), zapcore.AddSync(w), lvl))
	}
	if len(cores) == 0 {
		return zap.NewNop(), nil
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}

// Init replaces Log with a logger that writes to stderr and,
// if logFile is not empty, to a rotating log file.
func Init(level, logFile string) error {
	file := FileConfig{}
	if logFile != "" {
		file = DefaultFileConfig(logFile)
	}
	l, err := New(level, os.Stderr, file)
	if err != nil {
		return err
	}
	Log = l
	return nil
}

// Sync flushes buffered entries. Errors from syncing a terminal are
// meaningless and are ignored.
func Sync() { _ = Log.Sync() }

func Debug(msg string, fields ...zap.Field) { Log.WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { Log.WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { Log.WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { Log.WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...) }
