// Package report renders diary sessions as markdown text for the console.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/johns/vibe-diary/internal/diary"
)

// Duration formats a cumulative duration in whole minutes, or "< 1 minute".
func Duration(ms uint64) string {
	if mins := ms / 60000; mins > 0 {
		return fmt.Sprintf("~%d minutes", mins)
	}
	return "< 1 minute"
}

// Render renders one session. Sections whose collection is empty are
// omitted; the output always ends with a rule line.
func Render(s *diary.Session) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("\n### ⏱ **Duration** _(%s)_\n\n", Duration(s.TotalDurationMS)))

	if groups := s.Grouped(); len(groups) > 0 {
		b.WriteString("### ✅ **Accomplishments**\n\n")
		for _, g := range groups {
			b.WriteString(fmt.Sprintf("#### **%s**\n", g.Category))
			for _, a := range g.Accomplishments {
				b.WriteString(fmt.Sprintf("- **%s**", a.Description))
				if a.Duration != nil {
					b.WriteString(fmt.Sprintf(" _(%dms)_", *a.Duration))
				}
				b.WriteString("\n")
				if len(a.Files) > 0 {
					b.WriteString(fmt.Sprintf("  - Files: %s\n", strings.Join(a.Files, ", ")))
				}
			}
			b.WriteString("\n")
		}
	}

	writeList(&b, "### 🎯 **Session Objectives**", s.Objectives)
	writeList(&b, "### ⚠️ **Issues Encountered**", s.Issues)

	if names := s.ToolNames(); len(names) > 0 {
		b.WriteString("### 🛠 **Tools Used**\n")
		for _, name := range names {
			b.WriteString(fmt.Sprintf("- %s: %d times\n", name, s.ToolUsage[name]))
		}
		b.WriteString("\n")
	}

	writeList(&b, "### 📁 **Files Modified**", s.UniqueFiles())

	b.WriteString("---\n")
	return b.String()
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(heading + "\n")
	for _, item := range items {
		b.WriteString(fmt.Sprintf("- %s\n", item))
	}
	b.WriteString("\n")
}

// DryRunHeader is the line printed before a dry-run report.
func DryRunHeader(now time.Time) string {
	return fmt.Sprintf("=== DIARY ENTRY FOR %s ===", now.Format("2006-01-02"))
}

// WriteDryRun prints the would-be finalization report.
func WriteDryRun(w io.Writer, s *diary.Session, now time.Time) error {
	_, err := fmt.Fprintf(w, "%s\n%s", DryRunHeader(now), Render(s))
	return err
}

// WriteRecent prints sessions most recent first, each under a heading with
// its local start time and duration.
func WriteRecent(w io.Writer, sessions []*diary.Session) error {
	var b strings.Builder
	b.WriteString("\n=== RECENT DIARY ENTRIES ===\n")
	if len(sessions) == 0 {
		b.WriteString("\nNo diary entries yet.\n")
	}
	for _, s := range sessions {
		b.WriteString(SessionHeading(s))
		b.WriteString(Render(s))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// SessionHeading returns the "## Session <start> - <duration>" line.
func SessionHeading(s *diary.Session) string {
	return fmt.Sprintf("\n## Session %s - %s\n",
		s.StartTime.Local().Format("2006-01-02 15:04:05"), Duration(s.TotalDurationMS))
}
