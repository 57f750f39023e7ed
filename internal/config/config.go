package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all vibe-diary configuration.
type Config struct {
	DiaryDir    string `toml:"diary_dir"`
	Verbose     bool   `toml:"verbose"`
	RecentLimit int    `toml:"recent_limit"`

	Archive ArchiveConfig `toml:"archive"`
	Follow  FollowConfig  `toml:"follow"`

	// Source is the config file that was loaded, empty for defaults.
	Source string `toml:"-"`
}

type ArchiveConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type FollowConfig struct {
	DebounceMS int `toml:"debounce_ms"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DiaryDir:    "~/.claude",
		RecentLimit: 5,
		Follow: FollowConfig{
			DebounceMS: 250,
		},
	}
}

// Load reads config from the standard path, falling back to defaults.
func Load() (Config, error) {
	cfg := DefaultConfig()

	for _, p := range configPaths() {
		if _, err := os.Stat(p); err == nil {
			if _, err := toml.DecodeFile(p, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", p, err)
			}
			cfg.Source = p
			break
		}
	}

	cfg.DiaryDir = expandHome(cfg.DiaryDir)
	cfg.Archive.Dir = expandHome(cfg.Archive.Dir)
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 5
	}
	if cfg.Follow.DebounceMS <= 0 {
		cfg.Follow.DebounceMS = 250
	}

	return cfg, nil
}

func configPaths() []string {
	var paths []string

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, "vibe-diary", "config.toml"))
	}

	home, _ := os.UserHomeDir()
	if home != "" {
		paths = append(paths, filepath.Join(home, ".config", "vibe-diary", "config.toml"))
	}

	return paths
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
}

// ExpandHome expands a leading ~ in a path supplied on the command line.
func ExpandHome(path string) string {
	return expandHome(path)
}

// ArchiveDir returns the journal directory, defaulting to diary_dir/archive.
func (c Config) ArchiveDir() string {
	if c.Archive.Dir != "" {
		return c.Archive.Dir
	}
	return filepath.Join(c.DiaryDir, "archive")
}
