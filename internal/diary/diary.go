// Package diary holds the session record that a hook invocation accumulates:
// objectives, categorized accomplishments, issues, tool usage and files.
package diary

import (
	"sort"
	"time"
)

// Category classifies an accomplishment.
type Category string

// Prompt-derived categories, listed in classifier precedence order.
const (
	CodeDevelopment     Category = "Code Development"
	Documentation       Category = "Documentation"
	Analysis            Category = "Analysis"
	CodeSearch          Category = "Code Search"
	CodeReview          Category = "Code Review"
	SystemOperations    Category = "System Operations"
	DatabaseOperations  Category = "Database Operations"
	FrontendDevelopment Category = "Frontend Development"
	Planning            Category = "Planning"
	ProjectManagement   Category = "Project Management"
	General             Category = "General"
)

// Tool-derived categories not reachable from prompt text.
const (
	CodeAnalysis    Category = "Code Analysis"
	AICollaboration Category = "AI Collaboration"
	Research        Category = "Research"
	Other           Category = "Other"
)

// Accomplishment is one categorized unit of work inferred from an event.
type Accomplishment struct {
	Category    Category
	Description string
	Duration    *uint64 // milliseconds, nil when unknown
	Files       []string
}

// Session is the record of one invocation. A zero ID means the persistence
// layer has not assigned a handle yet.
type Session struct {
	ID              int64
	StartTime       time.Time
	EndTime         *time.Time
	Objectives      []string
	Accomplishments []Accomplishment
	Issues          []string
	FilesModified   []string
	ToolUsage       map[string]int
	TotalDurationMS uint64
}

// New returns an empty session started at now.
func New(now time.Time) *Session {
	return &Session{
		StartTime: now,
		ToolUsage: make(map[string]int),
	}
}

// CountTool increments the usage counter for a tool.
func (s *Session) CountTool(name string) {
	if s.ToolUsage == nil {
		s.ToolUsage = make(map[string]int)
	}
	s.ToolUsage[name]++
}

// AddDuration adds ms to the cumulative duration.
func (s *Session) AddDuration(ms uint64) {
	s.TotalDurationMS += ms
}

// End stamps the end time. Returns false if it was already set.
func (s *Session) End(now time.Time) bool {
	if s.EndTime != nil {
		return false
	}
	s.EndTime = &now
	return true
}

// Ended reports whether the end time has been stamped.
func (s *Session) Ended() bool {
	return s.EndTime != nil
}

// UniqueFiles returns the modified files deduplicated and sorted.
func (s *Session) UniqueFiles() []string {
	return SortedUnique(s.FilesModified)
}

// ToolNames returns the tool names in lexical order.
func (s *Session) ToolNames() []string {
	names := make([]string, 0, len(s.ToolUsage))
	for name := range s.ToolUsage {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CategoryGroup is the accomplishments of one category, in insertion order.
type CategoryGroup struct {
	Category        Category
	Accomplishments []Accomplishment
}

// Grouped groups accomplishments by category. Groups appear in the order
// their category was first seen.
func (s *Session) Grouped() []CategoryGroup {
	var groups []CategoryGroup
	pos := make(map[Category]int)
	for _, a := range s.Accomplishments {
		i, ok := pos[a.Category]
		if !ok {
			i = len(groups)
			pos[a.Category] = i
			groups = append(groups, CategoryGroup{Category: a.Category})
		}
		groups[i].Accomplishments = append(groups[i].Accomplishments, a)
	}
	return groups
}

// SortedUnique returns a sorted copy of in with exact duplicates removed.
func SortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	n := 1
	for i := 1; i < len(out); i++ {
		if out[i] != out[n-1] {
			out[n] = out[i]
			n++
		}
	}
	return out[:n]
}
