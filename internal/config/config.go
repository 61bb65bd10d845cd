// Package config loads sprout.toml project settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the project configuration file looked up from the working
// directory upward.
const FileName = "sprout.toml"

// Config holds project settings. Zero values mean "use the default".
type Config struct {
	Grammar GrammarConfig `toml:"grammar"`
	Output  OutputConfig  `toml:"output"`
	Log     LogConfig     `toml:"log"`
	Driver  DriverConfig  `toml:"driver"`

	// Path is the file the configuration was read from; empty for defaults.
	Path string `toml:"-"`
}

// GrammarConfig points at the symbol table.
type GrammarConfig struct {
	Path   string `toml:"path"`
	Strict bool   `toml:"strict"`
}

// OutputConfig controls printing.
type OutputConfig struct {
	Color  string `toml:"color"`  // auto|on|off
	Format string `toml:"format"` // sexp|pretty|describe
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// DriverConfig controls parallel loading.
type DriverConfig struct {
	Jobs int `toml:"jobs"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Output: OutputConfig{Color: "auto", Format: "sexp"},
		Log:    LogConfig{Level: "info"},
	}
}

// Find walks from startDir to the filesystem root looking for FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load reads the configuration at path on top of Default(). A relative
// grammar path is resolved against the configuration's directory.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	cfg.Path = path
	if p := strings.TrimSpace(cfg.Grammar.Path); p != "" && !filepath.IsAbs(p) {
		cfg.Grammar.Path = filepath.Join(filepath.Dir(path), filepath.FromSlash(p))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover finds and loads the nearest configuration, falling back to
// Default() when none exists.
func Discover(startDir string) (Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return Config{}, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch c.Output.Color {
	case "auto", "on", "off":
	default:
		return fmt.Errorf("[output].color must be auto, on or off, got %q", c.Output.Color)
	}
	switch c.Output.Format {
	case "sexp", "pretty", "describe":
	default:
		return fmt.Errorf("[output].format must be sexp, pretty or describe, got %q", c.Output.Format)
	}
	if c.Driver.Jobs < 0 {
		return fmt.Errorf("[driver].jobs must not be negative, got %d", c.Driver.Jobs)
	}
	return nil
}
