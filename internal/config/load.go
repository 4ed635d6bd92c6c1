package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const config_name = "pcstyle.yaml"

// Load builds the config for the command named name from its command line
// arguments. Values are layered: defaults < config file < flags. The
// remaining positional arguments are returned. Use Validate before acting on
// the result.
func Load(name string, args []string) (cfg *Config, positional []string, err error) {
	f := NewFlags(name)
	if err = f.Parse(args); err != nil {
		return nil, nil, err
	}
	cfg = Default()
	path := f.ConfigPath()
	if path == "" {
		path = find_config_file()
	}
	if path != "" {
		if err = LoadFile(cfg, path); err != nil {
			return nil, nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}
	f.Apply(cfg)
	return cfg, f.Args(), nil
}

func find_config_file() string {
	candidates := []string{config_name}
	if d := ConfigDir(); d != "" {
		candidates = append(candidates, filepath.Join(d, config_name))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the per-user config directory, or the empty string if
// the platform has none.
func ConfigDir() string {
	d, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(d, "pcstyle")
}

// LoadFile merges the YAML file at path into cfg. Keys missing from the file
// keep their current values, unknown keys are an error.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

// SaveTo writes the config to path as YAML, creating parent directories as
// needed.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
