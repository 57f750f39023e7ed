package classify

import (
	"reflect"
	"strings"
	"testing"

	"github.com/johns/vibe-diary/internal/diary"
	"github.com/johns/vibe-diary/internal/event"
)

func TestPrompt_FixBug(t *testing.T) {
	acc, ok := Prompt("Fix the bug in parser.go", nil)
	if !ok {
		t.Fatal("expected an accomplishment")
	}
	if acc.Category != diary.CodeDevelopment {
		t.Errorf("Category = %q", acc.Category)
	}
	if acc.Description != "Fixed code issues: Fix the bug in parser.go" {
		t.Errorf("Description = %q", acc.Description)
	}
	if !reflect.DeepEqual(acc.Files, []string{"parser.go"}) {
		t.Errorf("Files = %v", acc.Files)
	}
}

func TestPrompt_PrecedenceFirstMatchWins(t *testing.T) {
	// Matches both the fix rule and the documentation rule.
	prompt := "Fix the typo in the document header"
	for i := 0; i < 3; i++ {
		acc, ok := Prompt(prompt, nil)
		if !ok {
			t.Fatal("expected an accomplishment")
		}
		if acc.Category != diary.CodeDevelopment {
			t.Errorf("Category = %q, want Code Development", acc.Category)
		}
		if !strings.HasPrefix(acc.Description, "Fixed code issues:") {
			t.Errorf("Description = %q", acc.Description)
		}
	}
}

func TestPrompt_Categories(t *testing.T) {
	cases := []struct {
		prompt   string
		category diary.Category
		prefix   string
	}{
		{"implement the login flow", diary.CodeDevelopment, "Implemented new functionality"},
		{"please refactor the scheduler", diary.CodeDevelopment, "Improved code quality"},
		{"run the tests again please", diary.CodeDevelopment, "Added tests"},
		{"explain how the cache works", diary.Documentation, "Created documentation"},
		{"investigate the slow startup", diary.Analysis, "Analyzed codebase"},
		{"where can I locate the handler", diary.CodeSearch, "Searched for information"},
		{"review the pull request now", diary.CodeReview, "Reviewed code"},
		{"install the toolchain here", diary.SystemOperations, "Configured system"},
		{"migrate to the new runtime", diary.SystemOperations, "Updated dependencies"},
		{"the sql is slow on prod", diary.DatabaseOperations, "Worked with database"},
		{"tweak the css for mobile", diary.FrontendDevelopment, "Worked on user interface"},
		{"a vue widget for the sidebar", diary.FrontendDevelopment, "Developed UI components"},
		{"plan the next release", diary.Planning, "Planned project structure"},
		{"what is the next milestone", diary.ProjectManagement, "Managed tasks"},
		{"hmm, what happens when we go there", diary.General, "Worked on project task"},
	}
	for _, c := range cases {
		acc, ok := Prompt(c.prompt, nil)
		if !ok {
			t.Errorf("%q: no accomplishment", c.prompt)
			continue
		}
		if acc.Category != c.category {
			t.Errorf("%q: Category = %q, want %q", c.prompt, acc.Category, c.category)
		}
		if !strings.HasPrefix(acc.Description, c.prefix+": ") {
			t.Errorf("%q: Description = %q, want prefix %q", c.prompt, acc.Description, c.prefix)
		}
	}
}

func TestPrompt_ShortUnmatchedDropped(t *testing.T) {
	if _, ok := Prompt("hello there", nil); ok {
		t.Error("short prompt without keywords should yield nothing")
	}
	// Exactly 20 characters is still below the threshold.
	if _, ok := Prompt("hmm hmm hmm hmm hmm.", nil); ok {
		t.Error("20-character prompt should yield nothing")
	}
	if _, ok := Prompt("hmm hmm hmm hmm hmm..", nil); !ok {
		t.Error("21-character prompt should yield a General accomplishment")
	}
}

func TestPrompt_CarriesDuration(t *testing.T) {
	d := uint64(250)
	acc, ok := Prompt("Fix the flaky build", &d)
	if !ok {
		t.Fatal("expected an accomplishment")
	}
	if acc.Duration == nil || *acc.Duration != 250 {
		t.Errorf("Duration = %v", acc.Duration)
	}
}

func TestDescription_Truncation81(t *testing.T) {
	line := strings.Repeat("a", 81)
	got := Description(line+"\nsecond line", "Fixed code issues")
	want := "Fixed code issues: " + strings.Repeat("a", 77)
	if got != want {
		t.Errorf("Description = %q, want %q", got, want)
	}
}

func TestDescription_Exactly80(t *testing.T) {
	line := strings.Repeat("b", 80)
	got := Description(line, "Reviewed code")
	if got != "Reviewed code: "+line {
		t.Errorf("Description = %q", got)
	}
}

func TestDescription_Short(t *testing.T) {
	if got := Description("fix it now", "Fixed code issues"); got != "Fixed code issues" {
		t.Errorf("10-char prompt: %q", got)
	}
	if got := Description("fix it now!", "Fixed code issues"); got != "Fixed code issues: fix it now!" {
		t.Errorf("11-char prompt: %q", got)
	}
	if got := Description("   fix\n this whole thing", "Fixed code issues"); got != "Fixed code issues" {
		t.Errorf("short first line: %q", got)
	}
}

func TestDescription_RuneSafe(t *testing.T) {
	line := strings.Repeat("é", 81)
	got := Description(line, "Analyzed codebase")
	want := "Analyzed codebase: " + strings.Repeat("é", 77)
	if got != want {
		t.Errorf("Description = %q, want %q", got, want)
	}
}

func TestObjective(t *testing.T) {
	if got := Objective("  Fix the bug in parser.go  "); got != "Fix the bug in parser.go" {
		t.Errorf("Objective = %q", got)
	}
	long := strings.Repeat("ü", 120)
	if got := Objective(long); got != strings.Repeat("ü", 100) {
		t.Errorf("Objective length = %d runes", len([]rune(got)))
	}
}

func TestIssue(t *testing.T) {
	if got := Issue("boom"); got != "Error encountered: boom" {
		t.Errorf("Issue = %q", got)
	}
	long := strings.Repeat("x", 151)
	got := Issue(long)
	want := "Error encountered: " + strings.Repeat("x", 150) + "..."
	if got != want {
		t.Errorf("Issue = %q", got)
	}
	exact := strings.Repeat("y", 150)
	if got := Issue(exact); got != "Error encountered: "+exact {
		t.Errorf("150-char issue should not be cut: %q", got)
	}
}

func TestResponse(t *testing.T) {
	if _, ok := Response(strings.Repeat("r", 50), nil); ok {
		t.Error("50-character response should be ignored")
	}
	acc, ok := Response(strings.Repeat("r", 51), nil)
	if !ok {
		t.Fatal("51-character response should count")
	}
	if acc.Category != diary.Analysis || acc.Description != "Analysis and response provided" {
		t.Errorf("got %+v", acc)
	}
}

func TestFiles_SortedDeduplicated(t *testing.T) {
	got := Files("edit src/main.rs and also src/main.rs again plus README.md")
	want := []string{"README.md", "src/main.rs"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Files = %v, want %v", got, want)
	}
}

func TestFiles_None(t *testing.T) {
	if got := Files("nothing to see here"); len(got) != 0 {
		t.Errorf("Files = %v", got)
	}
}

func TestFiles_Extensions(t *testing.T) {
	got := Files("touch cmd/vd/main.go config.toml and ci.yml")
	want := []string{"ci.yml", "cmd/vd/main.go", "config.toml"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Files = %v, want %v", got, want)
	}
}

func TestTool(t *testing.T) {
	cases := map[string]diary.Category{
		"Edit":      diary.CodeDevelopment,
		"Write":     diary.CodeDevelopment,
		"MultiEdit": diary.CodeDevelopment,
		"Read":      diary.CodeAnalysis,
		"Glob":      diary.CodeAnalysis,
		"LS":        diary.CodeAnalysis,
		"Bash":      diary.SystemOperations,
		"Grep":      diary.CodeSearch,
		"Task":      diary.AICollaboration,
		"TodoWrite": diary.ProjectManagement,
		"WebFetch":  diary.Research,
		"Unknown":   diary.Other,
		"":          diary.Other,
	}
	for name, want := range cases {
		if got := Tool(name); got != want {
			t.Errorf("Tool(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestToolCall_WithFilePath(t *testing.T) {
	d := uint64(30)
	acc, path := ToolCall(event.ToolCallRecord{
		ToolName:   "Edit",
		Parameters: map[string]any{"file_path": "internal/x.go"},
		DurationMS: &d,
	})
	if path != "internal/x.go" {
		t.Errorf("path = %q", path)
	}
	if acc.Description != "Modified internal/x.go" {
		t.Errorf("Description = %q", acc.Description)
	}
	if !reflect.DeepEqual(acc.Files, []string{"internal/x.go"}) {
		t.Errorf("Files = %v", acc.Files)
	}
	if acc.Duration == nil || *acc.Duration != 30 {
		t.Errorf("Duration = %v", acc.Duration)
	}
}

func TestToolCall_WithoutFilePath(t *testing.T) {
	acc, path := ToolCall(event.ToolCallRecord{
		ToolName:   "Bash",
		Parameters: map[string]any{"command": "go test ./...", "file_path": 12},
	})
	if path != "" {
		t.Errorf("path = %q, non-string file_path should be ignored", path)
	}
	if acc.Description != "Used Bash tool" {
		t.Errorf("Description = %q", acc.Description)
	}
	if acc.Category != diary.SystemOperations {
		t.Errorf("Category = %q", acc.Category)
	}
	if len(acc.Files) != 0 {
		t.Errorf("Files = %v", acc.Files)
	}
}
