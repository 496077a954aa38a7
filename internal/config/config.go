package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/lectioapp/lectio/internal/transport"
)

type Config struct {
	CatalogPath string `koanf:"catalog_path"` // empty means the default data location
	Quality     string `koanf:"quality"`      // preferred audio quality, e.g. "high"

	Playback PlaybackConfig `koanf:"playback"`

	// Start position when no resume state exists.
	Start StartConfig `koanf:"start"`
}

// PlaybackConfig holds the initial transport settings.
type PlaybackConfig struct {
	Volume      float64 `koanf:"volume"`       // 0.0-1.0 (default: 1.0)
	Rate        float64 `koanf:"rate"`         // 0.5-2.0 (default: 1.0)
	SkipSeconds int     `koanf:"skip_seconds"` // skip distance (default: 10)
	Autoplay    bool    `koanf:"autoplay"`     // start playing on chapter load
}

// StartConfig names the chapter opened on a fresh start.
type StartConfig struct {
	Book    string `koanf:"book"`    // canonical book id, e.g. "genesis"
	Chapter int    `koanf:"chapter"` // 1-based
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.CatalogPath != "" {
		cfg.CatalogPath = expandPath(cfg.CatalogPath)
	}
	cfg.clamp()

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Quality: "high",
		Playback: PlaybackConfig{
			Volume:      1.0,
			Rate:        1.0,
			SkipSeconds: 10,
		},
		Start: StartConfig{
			Book:    "genesis",
			Chapter: 1,
		},
	}
}

// clamp pulls playback settings back into the ranges the transport
// accepts.
func (c *Config) clamp() {
	c.Playback.Volume = transport.ClampVolume(c.Playback.Volume)
	c.Playback.Rate = transport.ClampRate(c.Playback.Rate)
	if c.Playback.SkipSeconds <= 0 {
		c.Playback.SkipSeconds = 10
	}
	if c.Start.Chapter < 1 {
		c.Start.Chapter = 1
	}
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/lectio/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "lectio", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
