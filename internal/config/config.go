package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/allworlds/engine/internal/core/observability/log"
)

var ErrUnknownFormat = errors.New("config: unknown file format")

type Config struct {
	Log     LogConfig     `yaml:"log" toml:"log"`
	Loop    LoopConfig    `yaml:"loop" toml:"loop"`
	Profile ProfileConfig `yaml:"profile" toml:"profile"`
}

type LogConfig struct {
	Level    string `yaml:"level" toml:"level"`
	Encoding string `yaml:"encoding" toml:"encoding"` // "json" or "console"
}

type LoopConfig struct {
	Interval  time.Duration `yaml:"interval" toml:"interval"`
	MaxFrames uint64        `yaml:"max_frames" toml:"max_frames"` // 0 runs until cancelled
}

type ProfileConfig struct {
	Mode string `yaml:"mode" toml:"mode"` // "", "cpu", "mem", "trace"
	Path string `yaml:"path" toml:"path"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:    "info",
			Encoding: "console",
		},
		Loop: LoopConfig{
			Interval: 16 * time.Millisecond,
		},
		Profile: ProfileConfig{
			Path: ".",
		},
	}
}

// Load reads path on top of the defaults. The format follows the extension:
// .yaml/.yml or .toml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if _, ok := log.ParseLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	switch c.Log.Encoding {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.encoding: want json or console, got %q", c.Log.Encoding))
	}
	if c.Loop.Interval <= 0 {
		errs = append(errs, fmt.Errorf("loop.interval: must be positive, got %s", c.Loop.Interval))
	}
	switch c.Profile.Mode {
	case "", "cpu", "mem", "trace":
	default:
		errs = append(errs, fmt.Errorf("profile.mode: unknown mode %q", c.Profile.Mode))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LogLevel is the parsed Log.Level; call Validate first.
func (c *Config) LogLevel() log.Level {
	level, _ := log.ParseLevel(c.Log.Level)
	return level
}
