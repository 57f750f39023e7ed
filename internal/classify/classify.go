// Package classify maps prompt text and tool calls onto diary categories
// with fixed keyword tables. Matching is substring-based on lower-cased text.
package classify

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/johns/vibe-diary/internal/diary"
	"github.com/johns/vibe-diary/internal/event"
)

// rule is one row of the precedence table: the first rule with any keyword
// contained in the prompt wins.
type rule struct {
	keywords    []string
	category    diary.Category
	description string
}

var promptRules = []rule{
	{[]string{"write", "create", "implement", "add", "build", "develop", "code", "program"}, diary.CodeDevelopment, "Implemented new functionality"},
	{[]string{"fix", "debug", "resolve", "solve", "repair", "correct"}, diary.CodeDevelopment, "Fixed code issues"},
	{[]string{"refactor", "optimize", "improve", "enhance", "update"}, diary.CodeDevelopment, "Improved code quality"},
	{[]string{"test", "unit test", "integration test"}, diary.CodeDevelopment, "Added tests"},

	{[]string{"document", "write docs", "readme", "comment", "explain"}, diary.Documentation, "Created documentation"},

	{[]string{"analyze", "investigate", "research", "study", "examine", "explore", "understand"}, diary.Analysis, "Analyzed codebase"},
	{[]string{"find", "search", "look for", "locate"}, diary.CodeSearch, "Searched for information"},
	{[]string{"review", "check", "verify", "validate"}, diary.CodeReview, "Reviewed code"},

	{[]string{"configure", "setup", "install", "deploy", "initialize"}, diary.SystemOperations, "Configured system"},
	{[]string{"migrate", "upgrade", "update dependencies"}, diary.SystemOperations, "Updated dependencies"},

	{[]string{"database", "sql", "query", "schema", "migration"}, diary.DatabaseOperations, "Worked with database"},

	{[]string{"ui", "user interface", "frontend", "styling", "css", "design"}, diary.FrontendDevelopment, "Worked on user interface"},
	{[]string{"component", "react", "angular", "vue"}, diary.FrontendDevelopment, "Developed UI components"},

	{[]string{"plan", "organize", "structure", "architect", "design"}, diary.Planning, "Planned project structure"},
	{[]string{"todo", "task", "milestone", "goal"}, diary.ProjectManagement, "Managed tasks"},
}

const (
	generalDescription  = "Worked on project task"
	generalMinLength    = 20
	descriptionMax      = 80
	descriptionCut      = 77
	descriptionMinExtra = 10
	objectiveMax        = 100
	issueMax            = 150
	responseMinLength   = 50
	responseDescription = "Analysis and response provided"
)

// filePatterns are anchored on the extensions the diary recognizes.
var filePatterns = compileFilePatterns(
	"rs", "js", "ts", "py", "go", "java", "cpp", "c", "h",
	"json", "yaml", "yml", "toml", "md",
)

func compileFilePatterns(exts ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exts))
	for _, ext := range exts {
		out = append(out, regexp.MustCompile(`[\w/.-]+\.`+regexp.QuoteMeta(ext)))
	}
	return out
}

// Prompt derives at most one accomplishment from a prompt. ok is false for
// prompts that match no rule and are too short to count as general work.
func Prompt(prompt string, duration *uint64) (diary.Accomplishment, bool) {
	lower := strings.ToLower(prompt)

	for _, r := range promptRules {
		if !containsAny(lower, r.keywords) {
			continue
		}
		return diary.Accomplishment{
			Category:    r.category,
			Description: Description(prompt, r.description),
			Duration:    duration,
			Files:       Files(prompt),
		}, true
	}

	if utf8.RuneCountInString(prompt) > generalMinLength {
		return diary.Accomplishment{
			Category:    diary.General,
			Description: Description(prompt, generalDescription),
			Duration:    duration,
			Files:       Files(prompt),
		}, true
	}
	return diary.Accomplishment{}, false
}

// Description builds "<default>: <first line>" from a prompt. Long first
// lines are cut to 77 characters; very short ones yield the bare default.
func Description(prompt, def string) string {
	first := prompt
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	first = strings.TrimSpace(first)

	n := utf8.RuneCountInString(first)
	switch {
	case n > descriptionMax:
		return fmt.Sprintf("%s: %s", def, strings.TrimSpace(truncateRunes(first, descriptionCut)))
	case n > descriptionMinExtra:
		return fmt.Sprintf("%s: %s", def, first)
	default:
		return def
	}
}

// Objective returns the first 100 characters of the prompt, trimmed.
func Objective(prompt string) string {
	return strings.TrimSpace(truncateRunes(prompt, objectiveMax))
}

// Issue formats an error message as an issue line, cutting it at 150
// characters with an ellipsis.
func Issue(msg string) string {
	if utf8.RuneCountInString(msg) > issueMax {
		msg = truncateRunes(msg, issueMax) + "..."
	}
	return "Error encountered: " + msg
}

// Response returns the generic analysis accomplishment for a long enough
// assistant response.
func Response(text string, duration *uint64) (diary.Accomplishment, bool) {
	if utf8.RuneCountInString(text) <= responseMinLength {
		return diary.Accomplishment{}, false
	}
	return diary.Accomplishment{
		Category:    diary.Analysis,
		Description: responseDescription,
		Duration:    duration,
	}, true
}

// Files extracts file-like tokens from text, sorted and deduplicated. It is
// a heuristic and does not resolve paths against any project.
func Files(text string) []string {
	var files []string
	for _, re := range filePatterns {
		files = append(files, re.FindAllString(text, -1)...)
	}
	return diary.SortedUnique(files)
}

// Tool returns the category for a tool name.
func Tool(name string) diary.Category {
	switch name {
	case "Edit", "Write", "MultiEdit":
		return diary.CodeDevelopment
	case "Read", "Glob", "LS":
		return diary.CodeAnalysis
	case "Bash":
		return diary.SystemOperations
	case "Grep":
		return diary.CodeSearch
	case "Task":
		return diary.AICollaboration
	case "TodoWrite":
		return diary.ProjectManagement
	case "WebFetch":
		return diary.Research
	default:
		return diary.Other
	}
}

// ToolCall maps one tool invocation to an accomplishment. The returned path
// is the file_path parameter when present.
func ToolCall(tc event.ToolCallRecord) (acc diary.Accomplishment, path string) {
	acc = diary.Accomplishment{
		Category:    Tool(tc.ToolName),
		Description: fmt.Sprintf("Used %s tool", tc.ToolName),
		Duration:    tc.DurationMS,
	}
	if p, ok := tc.FilePath(); ok {
		acc.Files = []string{p}
		acc.Description = fmt.Sprintf("Modified %s", p)
		path = p
	}
	return acc, path
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
