package hook

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/johns/vibe-diary/internal/config"
)

const hookCommand = "vd"

// hookEvents are the Claude Code events vd registers for. Each invocation
// receives one hook payload on stdin and records it as a diary session.
var hookEvents = []string{"UserPromptSubmit", "PostToolUse", "Stop", "SessionEnd"}

// SettingsPath returns the path to ~/.claude/settings.json.
func SettingsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, ".claude", "settings.json"), nil
}

// Install adds a vd entry for every hook event, leaving other hooks in
// place. Running it again reports the existing setup and returns nil.
func Install(w io.Writer) error {
	return editSettings(w, func(s settings) (bool, string) {
		if s.installed() {
			return false, "vd hook already configured in %s"
		}
		s.add()
		return true, "vd hook installed in %s"
	})
}

// Uninstall removes every vd entry, dropping event arrays and the hooks
// map once they are empty. Returns nil when nothing was installed.
func Uninstall(w io.Writer) error {
	return editSettings(w, func(s settings) (bool, string) {
		if !s.anyInstalled() {
			return false, "vd hook not found in %s"
		}
		s.remove()
		return true, "vd hook removed from %s"
	})
}

// Installed reports whether every hook event in the settings file has a vd
// entry.
func Installed() (bool, error) {
	path, err := SettingsPath()
	if err != nil {
		return false, err
	}
	s, err := readSettings(path)
	if err != nil {
		return false, err
	}
	return s.installed(), nil
}

// editSettings loads the settings file, applies change and, when change
// reports a modification, backs up the old file before writing the new one.
func editSettings(w io.Writer, change func(settings) (bool, string)) error {
	path, err := SettingsPath()
	if err != nil {
		return err
	}
	s, err := readSettings(path)
	if err != nil {
		return err
	}

	modified, msg := change(s)
	if modified {
		if err := backup(path); err != nil {
			return err
		}
		if err := writeSettings(path, s); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, msg+"\n", config.CompressHome(path))
	return nil
}

// settings is the decoded settings.json object. Unknown keys round-trip
// untouched.
type settings map[string]any

// readSettings returns an empty object when the file is missing or blank.
func readSettings(path string) (settings, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", config.CompressHome(path), err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return settings{}, nil
	}

	var s settings
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", config.CompressHome(path), err)
	}
	if s == nil {
		s = settings{}
	}
	return s, nil
}

func writeSettings(path string, s settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", config.CompressHome(path), err)
	}
	return nil
}

// backup copies the settings file to path.vd.bak. No-op if source doesn't exist.
func backup(path string) error {
	src, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("backup: open %s: %w", config.CompressHome(path), err)
	}
	defer src.Close()

	dst, err := os.Create(path + ".vd.bak")
	if err != nil {
		return fmt.Errorf("backup: create %s.vd.bak: %w", config.CompressHome(path), err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("backup: copy: %w", err)
	}
	return nil
}

// hooks returns the "hooks" object, or nil when absent or not an object.
func (s settings) hooks() map[string]any {
	m, _ := s["hooks"].(map[string]any)
	return m
}

func (s settings) installed() bool {
	for _, event := range hookEvents {
		if !s.hasEntry(event) {
			return false
		}
	}
	return true
}

func (s settings) anyInstalled() bool {
	for _, event := range hookEvents {
		if s.hasEntry(event) {
			return true
		}
	}
	return false
}

// hasEntry reports whether event has a matcher entry that runs vd.
func (s settings) hasEntry(event string) bool {
	entries, _ := s.hooks()[event].([]any)
	for _, entry := range entries {
		if runsVD(entry) {
			return true
		}
	}
	return false
}

// add appends a vd matcher entry to each event that lacks one.
func (s settings) add() {
	hooksMap := s.hooks()
	if hooksMap == nil {
		hooksMap = make(map[string]any)
		s["hooks"] = hooksMap
	}

	for _, event := range hookEvents {
		if s.hasEntry(event) {
			continue
		}
		entries, _ := hooksMap[event].([]any)
		hooksMap[event] = append(entries, map[string]any{
			"matcher": "",
			"hooks": []any{
				map[string]any{"type": "command", "command": hookCommand},
			},
		})
	}
}

// remove drops vd matcher entries from every event.
func (s settings) remove() {
	hooksMap := s.hooks()
	if hooksMap == nil {
		return
	}

	for _, event := range hookEvents {
		entries, ok := hooksMap[event].([]any)
		if !ok {
			continue
		}

		var kept []any
		for _, entry := range entries {
			if !runsVD(entry) {
				kept = append(kept, entry)
			}
		}

		if len(kept) == 0 {
			delete(hooksMap, event)
		} else {
			hooksMap[event] = kept
		}
	}

	if len(hooksMap) == 0 {
		delete(s, "hooks")
	}
}

// runsVD reports whether a matcher entry has a command hook invoking vd.
func runsVD(entry any) bool {
	entryMap, ok := entry.(map[string]any)
	if !ok {
		return false
	}
	inner, _ := entryMap["hooks"].([]any)
	for _, h := range inner {
		hMap, ok := h.(map[string]any)
		if !ok {
			continue
		}
		if cmd, _ := hMap["command"].(string); isVDCommand(cmd) {
			return true
		}
	}
	return false
}

// isVDCommand reports whether cmd invokes vd, by bare name or by path,
// with or without arguments.
func isVDCommand(cmd string) bool {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return false
	}
	return filepath.Base(fields[0]) == hookCommand
}
