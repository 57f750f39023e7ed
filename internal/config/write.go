package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConfigDir returns the vibe-diary config directory path.
// Uses $XDG_CONFIG_HOME/vibe-diary if set, otherwise ~/.config/vibe-diary.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vibe-diary")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "vibe-diary")
}

// WriteDefault writes a default config.toml with diary_dir set to diaryDir.
// Returns the config file path and whether it was written. Skips if
// config.toml already exists.
func WriteDefault(diaryDir string) (string, bool, error) {
	dir := ConfigDir()
	path := filepath.Join(dir, "config.toml")

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("create config dir: %w", err)
	}

	content := fmt.Sprintf(`# Directory holding diary.db
diary_dir = %q
verbose = false
recent_limit = 5

[archive]
# Keep a zstd journal of every invocation's raw input for vd replay
enabled = false
# dir = "~/.claude/archive"

[follow]
debounce_ms = 250
`, CompressHome(diaryDir))

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", false, fmt.Errorf("write config: %w", err)
	}

	return path, true, nil
}

// CompressHome replaces $HOME prefix with ~/ for portable config values.
func CompressHome(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home+"/") {
		return "~/" + path[len(home)+1:]
	}
	if path == home {
		return "~"
	}
	return path
}
