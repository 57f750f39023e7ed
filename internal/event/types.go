package event

import "encoding/json"

// Kind is the normalized discriminator of an input record.
type Kind string

const (
	SessionStart Kind = "session_start"
	UserPrompt   Kind = "user_prompt"
	Message      Kind = "message"
	ToolCall     Kind = "tool_call"
	ToolResult   Kind = "tool_result"
	Error        Kind = "error"
	SessionEnd   Kind = "session_end"
	Other        Kind = "other"
)

// Event is one record from the hook's input stream.
type Event struct {
	Type      string          `json:"event_type"`
	Timestamp string          `json:"timestamp,omitempty"`
	Context   json.RawMessage `json:"context,omitempty"`
	SessionID string          `json:"session_id,omitempty"`

	UserPrompt        *string `json:"user_prompt,omitempty"`
	AssistantResponse *string `json:"assistant_response,omitempty"`

	ToolCalls  []ToolCallRecord `json:"tool_calls,omitempty"`
	DurationMS *uint64          `json:"duration_ms,omitempty"`
	Error      *string          `json:"error,omitempty"`
}

// ToolCallRecord is a single tool invocation carried by an event.
type ToolCallRecord struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters,omitempty"`
	Result     *string        `json:"result,omitempty"`
	DurationMS *uint64        `json:"duration_ms,omitempty"`
	Success    *bool          `json:"success,omitempty"`
}

// Kind maps the raw event_type onto the closed set of kinds.
func (e Event) Kind() Kind {
	switch k := Kind(e.Type); k {
	case SessionStart, UserPrompt, Message, ToolCall, ToolResult, Error, SessionEnd:
		return k
	}
	return Other
}

// Prompt returns the user prompt, or "" with ok=false when absent.
func (e Event) Prompt() (string, bool) {
	if e.UserPrompt == nil {
		return "", false
	}
	return *e.UserPrompt, true
}

// FilePath returns the string file_path parameter, if any.
func (tc ToolCallRecord) FilePath() (string, bool) {
	v, ok := tc.Parameters["file_path"]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// hookInput is the JSON object Claude Code sends to command hooks via stdin.
type hookInput struct {
	SessionID     string          `json:"session_id"`
	HookEventName string          `json:"hook_event_name"`
	Prompt        *string         `json:"prompt,omitempty"`
	ToolName      string          `json:"tool_name,omitempty"`
	ToolInput     map[string]any  `json:"tool_input,omitempty"`
	ToolResponse  json.RawMessage `json:"tool_response,omitempty"`
	Message       *string         `json:"message,omitempty"`

	LastAssistantMessage *string `json:"last_assistant_message,omitempty"`
}
