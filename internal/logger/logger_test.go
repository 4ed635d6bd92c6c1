package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"":        zapcore.InfoLevel,
		" INFO ":  zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	} {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := ParseLevel("verbose")
	require.Error(t, err)
	_, err = New("verbose", &bytes.Buffer{}, FileConfig{})
	require.Error(t, err)
}

func TestLevelsAreFiltered(t *testing.T) {
	tests := []struct {
		level    string
		expected []string
		excluded []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG"}},
		{"warn", []string{"ERROR", "WARN"}, []string{"INFO", "DEBUG"}},
		{"info", []string{"ERROR", "WARN", "INFO"}, []string{"DEBUG"}},
		{"debug", []string{"ERROR", "WARN", "INFO", "DEBUG"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(tt.level, &buf, FileConfig{})
			require.NoError(t, err)
			l.Debug("debug message")
			l.Info("info message")
			l.Warn("warn message")
			l.Error("error message")
			out := buf.String()
			for _, x := range tt.expected {
				assert.Contains(t, out, x)
			}
			for _, x := range tt.excluded {
				assert.NotContains(t, out, x)
			}
		})
	}
}

func TestFileOutputIsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pcstyle.log")
	l, err := New("debug", nil, DefaultFileConfig(path))
	require.NoError(t, err)
	l.Info("cloud loaded", zap.String("path", "input.ply"), zap.Int("points", 42))
	require.NoError(t, l.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "cloud loaded", entry["msg"])
	assert.Equal(t, "input.ply", entry["path"])
	assert.Equal(t, float64(42), entry["points"])
}

func TestNoOutputsIsNop(t *testing.T) {
	l, err := New("info", nil, FileConfig{})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))
}

func TestDefaultFileConfig(t *testing.T) {
	cfg := DefaultFileConfig("/tmp/pcstyle.log")
	assert.Equal(t, FileConfig{Path: "/tmp/pcstyle.log", MaxSizeMB: 20, MaxBackups: 3, MaxAgeDays: 14, Compress: true}, cfg)
}

func TestInit(t *testing.T) {
	orig := Log
	defer func() { Log = orig }()
	require.Error(t, Init("loud", ""))
	assert.Same(t, orig, Log, "a failed Init must leave the logger alone")
	require.NoError(t, Init("warn", ""))
	assert.True(t, Log.Core().Enabled(zapcore.WarnLevel))
	assert.False(t, Log.Core().Enabled(zapcore.InfoLevel))
}
