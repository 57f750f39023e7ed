package hook

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// settingsFile points HOME at a temp dir and returns the settings path
// inside it.
func settingsFile(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return filepath.Join(home, ".claude", "settings.json")
}

func writeSettingsFile(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func loadSettings(t *testing.T, path string) settings {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var s settings
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

// matcher builds one settings.json matcher entry running command.
func matcher(command string) map[string]any {
	return map[string]any{
		"matcher": "",
		"hooks":   []any{map[string]any{"type": "command", "command": command}},
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestInstall_FreshHome(t *testing.T) {
	path := settingsFile(t)

	var out bytes.Buffer
	require.NoError(t, Install(&out))
	assert.Contains(t, out.String(), "vd hook installed in ~/.claude/settings.json")

	s := loadSettings(t, path)
	for _, event := range hookEvents {
		assert.True(t, s.hasEntry(event), "missing %s hook", event)
	}
	assert.NoFileExists(t, path+".vd.bak", "nothing to back up")
}

func TestInstall_BlankFile(t *testing.T) {
	path := settingsFile(t)
	writeSettingsFile(t, path, "  \n")

	require.NoError(t, Install(io.Discard))
	assert.True(t, loadSettings(t, path).installed())
}

func TestInstall_KeepsUnrelatedSettings(t *testing.T) {
	path := settingsFile(t)
	writeSettingsFile(t, path, mustJSON(t, map[string]any{
		"permissions": map[string]any{"allow": []any{"Bash(ls:*)"}},
		"hooks": map[string]any{
			"SessionEnd": []any{matcher("other-tool")},
			"PreToolUse": []any{matcher("guard.sh")},
		},
	}))

	require.NoError(t, Install(io.Discard))

	s := loadSettings(t, path)
	assert.Contains(t, s, "permissions")
	assert.Len(t, s.hooks()["SessionEnd"], 2, "vd appended after other-tool")
	assert.Len(t, s.hooks()["PreToolUse"], 1, "events vd does not use are untouched")
}

func TestInstall_Idempotent(t *testing.T) {
	path := settingsFile(t)

	require.NoError(t, Install(io.Discard))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, Install(&out))
	assert.Contains(t, out.String(), "already configured")

	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
	assert.NoFileExists(t, path+".vd.bak", "an unchanged file is not backed up")
}

func TestInstall_CompletesPartialSetup(t *testing.T) {
	path := settingsFile(t)
	writeSettingsFile(t, path, mustJSON(t, map[string]any{
		"hooks": map[string]any{
			"SessionEnd": []any{matcher("/usr/local/bin/vd --verbose")},
		},
	}))

	require.NoError(t, Install(io.Discard))

	s := loadSettings(t, path)
	assert.True(t, s.installed())
	assert.Len(t, s.hooks()["SessionEnd"], 1, "existing vd entry by path is recognized")
}

func TestInstall_BacksUpOriginal(t *testing.T) {
	path := settingsFile(t)
	original := `{"existing": "data"}`
	writeSettingsFile(t, path, original)

	require.NoError(t, Install(io.Discard))

	backup, err := os.ReadFile(path + ".vd.bak")
	require.NoError(t, err)
	assert.Equal(t, original, string(backup))
}

func TestInstall_MalformedJSON(t *testing.T) {
	path := settingsFile(t)
	writeSettingsFile(t, path, "{invalid json}")

	err := Install(io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")

	content, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "{invalid json}", string(content))
	assert.NoFileExists(t, path+".vd.bak")
}

func TestUninstall_RemovesEverything(t *testing.T) {
	path := settingsFile(t)

	require.NoError(t, Install(io.Discard))
	var out bytes.Buffer
	require.NoError(t, Uninstall(&out))
	assert.Contains(t, out.String(), "vd hook removed from")

	s := loadSettings(t, path)
	assert.False(t, s.anyInstalled())
	assert.NotContains(t, s, "hooks", "empty hooks map is dropped")
}

func TestUninstall_KeepsOtherTools(t *testing.T) {
	path := settingsFile(t)
	writeSettingsFile(t, path, mustJSON(t, map[string]any{
		"hooks": map[string]any{
			"SessionEnd": []any{matcher("other-tool"), matcher("vd")},
			"Stop":       []any{matcher("vd")},
		},
	}))

	require.NoError(t, Uninstall(io.Discard))

	hooks := loadSettings(t, path).hooks()
	require.Len(t, hooks["SessionEnd"], 1)
	assert.False(t, runsVD(hooks["SessionEnd"].([]any)[0]))
	assert.NotContains(t, hooks, "Stop", "event left empty is dropped")
}

func TestUninstall_NotInstalled(t *testing.T) {
	path := settingsFile(t)

	var out bytes.Buffer
	require.NoError(t, Uninstall(&out))
	assert.Contains(t, out.String(), "vd hook not found")
	assert.NoFileExists(t, path)
}

func TestRunsVD(t *testing.T) {
	assert.True(t, runsVD(matcher("vd")))
	assert.False(t, runsVD(matcher("vdiff")))
	assert.False(t, runsVD("not an entry"))
	assert.False(t, runsVD(map[string]any{"hooks": "not an array"}))
}

func TestIsVDCommand(t *testing.T) {
	tests := []struct {
		cmd  string
		want bool
	}{
		{"vd", true},
		{"vd --verbose", true},
		{"/usr/local/bin/vd", true},
		{"vdiff", false},
		{"other-tool vd", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isVDCommand(tt.cmd), "isVDCommand(%q)", tt.cmd)
	}
}

func TestInstalled(t *testing.T) {
	settingsFile(t)

	ok, err := Installed()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, Install(io.Discard))
	ok, err = Installed()
	require.NoError(t, err)
	assert.True(t, ok)
}
