// Package config loads the equivocal CLI configuration.
//
// Configuration lives under os.UserConfigDir()/equivocal/ (~/.equivocal when
// no user config directory is known), or the directory named by
// $EQUIVOCAL_CONFIG_DIR:
//
//	equivocal/
//	├── config.yaml      # optional, see Config
//	└── library/         # default badger store
//
// A missing config.yaml is not an error; every field has a default.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/equivocal/pkg/audio/fbank"
	"github.com/haivivi/equivocal/pkg/cli"
	"github.com/haivivi/equivocal/pkg/kv"
	"github.com/haivivi/equivocal/pkg/storage"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "equivocal"

	// EnvDir overrides the configuration directory.
	EnvDir = "EQUIVOCAL_CONFIG_DIR"

	// File is the configuration file name inside the directory.
	File = "config.yaml"

	// libraryDir is the default badger directory inside the config dir.
	libraryDir = "library"

	// modelsDir is the default export directory inside the config dir.
	modelsDir = "models"
)

// Config is the CLI configuration.
type Config struct {
	// Dir is the configuration directory. Relative paths in the file are
	// resolved against it.
	Dir string `yaml:"-" json:"dir"`

	Analysis   Analysis `yaml:"analysis" json:"analysis"`
	Store      Store    `yaml:"store" json:"store"`
	Export     Export   `yaml:"export" json:"export"`
	Vocabulary string   `yaml:"vocabulary,omitempty" json:"vocabulary,omitempty"`
	Log        Log      `yaml:"log" json:"log"`
}

// Analysis holds the spectral analysis parameters. Zero fields take the
// defaults of fbank.DefaultConfig.
type Analysis struct {
	SampleRate int     `yaml:"sample_rate,omitempty" json:"sample_rate,omitempty"`
	FrameSize  int     `yaml:"frame_size,omitempty" json:"frame_size,omitempty"`
	HopSize    int     `yaml:"hop_size,omitempty" json:"hop_size,omitempty"`
	NumMels    int     `yaml:"num_mels,omitempty" json:"num_mels,omitempty"`
	NumMFCC    int     `yaml:"num_mfcc,omitempty" json:"num_mfcc,omitempty"`
	TopDB      float64 `yaml:"top_db,omitempty" json:"top_db,omitempty"`
}

// FBank returns the analysis config with defaults filled in.
func (a Analysis) FBank() fbank.Config {
	c := fbank.DefaultConfig()
	if a.SampleRate > 0 {
		c.SampleRate = a.SampleRate
	}
	if a.FrameSize > 0 {
		c.FrameSize = a.FrameSize
	}
	if a.HopSize > 0 {
		c.HopSize = a.HopSize
	}
	if a.NumMels > 0 {
		c.NumMels = a.NumMels
	}
	if a.NumMFCC > 0 {
		c.NumMFCC = a.NumMFCC
	}
	if a.TopDB > 0 {
		c.TopDB = a.TopDB
	}
	return c
}

// Store selects the prototype library backend.
type Store struct {
	// Backend is "badger" (default) or "memory". The memory backend does
	// not persist across invocations.
	Backend string `yaml:"backend,omitempty" json:"backend,omitempty"`

	// Dir is the badger directory, default <config dir>/library.
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`
}

// Export selects where models are exported to and imported from.
type Export struct {
	// Location is a local directory, a file:// URI or s3://bucket/prefix.
	// The default is <config dir>/models.
	Location string `yaml:"location,omitempty" json:"location,omitempty"`

	// S3 configures the client used for s3:// locations.
	S3 storage.S3Options `yaml:"s3,omitempty" json:"s3,omitzero"`
}

// Log configures the stderr logger.
type Log struct {
	// Level is debug, info, warn or error. The default is info.
	Level string `yaml:"level,omitempty" json:"level,omitempty"`
}

// SlogLevel parses Level.
func (l Log) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if l.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(l.Level))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", l.Level)
	}
	return lvl, nil
}

// Default returns the configuration used when dir has no config file.
func Default(dir string) *Config {
	return &Config{
		Dir:   dir,
		Store: Store{Backend: kv.BackendBadger},
		Log:   Log{Level: "info"},
	}
}

// Dir returns the configuration directory: $EQUIVOCAL_CONFIG_DIR, then
// equivocal under os.UserConfigDir(), then ~/.equivocal.
func Dir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir, nil
	}
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, appDir), nil
	}
	paths, err := cli.NewPaths(appDir)
	if err != nil {
		return "", fmt.Errorf("cannot determine config directory: %w", err)
	}
	return paths.AppDir(), nil
}

// Load loads the configuration from the default location.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	return LoadFrom(dir)
}

// LoadFrom loads dir/config.yaml over the defaults and validates the result.
func LoadFrom(dir string) (*Config, error) {
	cfg := Default(dir)
	data, err := os.ReadFile(filepath.Join(dir, File))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", File, err)
		}
		cfg.Dir = dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports configuration errors.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "", kv.BackendBadger, kv.BackendMemory:
	default:
		return fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if err := c.Analysis.FBank().Validate(); err != nil {
		return fmt.Errorf("analysis: %w", err)
	}
	return nil
}

// StoreDir returns the absolute badger directory.
func (c *Config) StoreDir() string {
	if c.Store.Dir == "" {
		return filepath.Join(c.Dir, libraryDir)
	}
	return c.resolve(c.Store.Dir)
}

// ExportLocation returns the export location with relative local paths
// resolved against Dir.
func (c *Config) ExportLocation() string {
	loc := c.Export.Location
	switch {
	case loc == "":
		return filepath.Join(c.Dir, modelsDir)
	case strings.Contains(loc, "://"):
		return loc
	default:
		return c.resolve(loc)
	}
}

// VocabularyPath returns the extra vocabulary file, or "" if none is set.
func (c *Config) VocabularyPath() string {
	if c.Vocabulary == "" {
		return ""
	}
	return c.resolve(c.Vocabulary)
}

func (c *Config) resolve(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}
