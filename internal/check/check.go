package check

import (
	"fmt"
	"os"
	"strings"

	"github.com/johns/vibe-diary/internal/archive"
	"github.com/johns/vibe-diary/internal/config"
	"github.com/johns/vibe-diary/internal/hook"
	"github.com/johns/vibe-diary/internal/store"
)

// Status represents the outcome of a single check.
type Status int

const (
	Pass Status = iota
	Warn
	Fail
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "pass"
	case Warn:
		return "warn"
	case Fail:
		return "FAIL"
	default:
		return "unknown"
	}
}

// Result holds the outcome of a single check.
type Result struct {
	Name   string
	Status Status
	Detail string
}

// Report aggregates all check results.
type Report struct {
	Results []Result
}

// HasFailures returns true if any result has Fail status.
func (r Report) HasFailures() bool {
	for _, res := range r.Results {
		if res.Status == Fail {
			return true
		}
	}
	return false
}

// Format returns the human-readable report string.
func (r Report) Format() string {
	if len(r.Results) == 0 {
		return "vd check\n\n  no checks ran\n"
	}

	// Find max name length for alignment.
	maxName := 0
	for _, res := range r.Results {
		if len(res.Name) > maxName {
			maxName = len(res.Name)
		}
	}

	var b strings.Builder
	b.WriteString("vd check\n\n")

	var passed, warnings, failures int
	for _, res := range r.Results {
		switch res.Status {
		case Pass:
			passed++
		case Warn:
			warnings++
		case Fail:
			failures++
		}
		fmt.Fprintf(&b, "  %-4s  %-*s  %s\n", res.Status, maxName, res.Name, res.Detail)
	}

	fmt.Fprintf(&b, "\n%d passed, %d warning, %d failure\n", passed, warnings, failures)
	return b.String()
}

// CheckConfig reports the loaded config file, or that defaults are in use.
// Always passes: broken TOML fails config loading before we get here.
func CheckConfig(cfg config.Config) Result {
	if cfg.Source == "" {
		return Result{Name: "config", Status: Pass, Detail: "defaults (no config.toml)"}
	}
	return Result{Name: "config", Status: Pass, Detail: config.CompressHome(cfg.Source)}
}

// CheckDiaryDir checks whether the diary directory exists.
func CheckDiaryDir(dir string) Result {
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return Result{Name: "diary", Status: Pass, Detail: config.CompressHome(dir)}
	}
	return Result{Name: "diary", Status: Warn, Detail: dir + " not found (created on first run)"}
}

// CheckDatabase opens the diary database, if present, and reports the
// number of stored sessions.
func CheckDatabase(dir string) Result {
	path := store.PathIn(dir)
	if _, err := os.Stat(path); err != nil {
		return Result{Name: "database", Status: Warn, Detail: store.FileName + " not created yet"}
	}

	st, err := store.Open(path)
	if err != nil {
		return Result{Name: "database", Status: Fail, Detail: err.Error()}
	}
	defer st.Close()

	n, err := st.SessionCount()
	if err != nil {
		return Result{Name: "database", Status: Fail, Detail: err.Error()}
	}
	return Result{Name: "database", Status: Pass, Detail: fmt.Sprintf("%s (%d sessions)", store.FileName, n)}
}

// CheckLegacy warns when a database in the old location awaits migration.
func CheckLegacy(dir string) Result {
	if store.LegacyPending(dir) {
		return Result{Name: "legacy", Status: Warn, Detail: config.CompressHome(store.LegacyPathIn(dir)) + " will be migrated on next run"}
	}
	return Result{Name: "legacy", Status: Pass, Detail: "nothing to migrate"}
}

// CheckArchive reports the journal directory when archiving is enabled.
func CheckArchive(cfg config.Config) Result {
	if !cfg.Archive.Enabled {
		return Result{Name: "archive", Status: Pass, Detail: "disabled"}
	}
	dir := cfg.ArchiveDir()
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return Result{Name: "archive", Status: Warn, Detail: config.CompressHome(dir) + " not found (created on first run)"}
	}
	journals, err := archive.List(dir)
	if err != nil {
		return Result{Name: "archive", Status: Fail, Detail: err.Error()}
	}
	return Result{Name: "archive", Status: Pass, Detail: fmt.Sprintf("%s (%d journals)", config.CompressHome(dir), len(journals))}
}

// CheckHook checks whether vd is registered in ~/.claude/settings.json.
func CheckHook() Result {
	path, err := hook.SettingsPath()
	if err != nil {
		return Result{Name: "hook", Status: Warn, Detail: "cannot determine home directory"}
	}
	if _, err := os.Stat(path); err != nil {
		return Result{Name: "hook", Status: Warn, Detail: config.CompressHome(path) + " not found"}
	}

	ok, err := hook.Installed()
	if err != nil {
		return Result{Name: "hook", Status: Fail, Detail: err.Error()}
	}
	if ok {
		return Result{Name: "hook", Status: Pass, Detail: "vd found in " + config.CompressHome(path)}
	}
	return Result{Name: "hook", Status: Fail, Detail: "vd not registered for all events in " + config.CompressHome(path) + " (run vd install)"}
}

// Run executes all checks against the given config and returns a report.
func Run(cfg config.Config) Report {
	var results []Result

	results = append(results, CheckConfig(cfg))
	results = append(results, CheckDiaryDir(cfg.DiaryDir))
	results = append(results, CheckDatabase(cfg.DiaryDir))
	results = append(results, CheckLegacy(cfg.DiaryDir))
	results = append(results, CheckArchive(cfg))
	results = append(results, CheckHook())

	return Report{Results: results}
}
