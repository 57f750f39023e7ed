// Package event turns input lines into normalized Events. Lines that are
// not structured events are kept as raw-text prompts so no input is lost.
package event

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	errNotObject    = errors.New("not a JSON object")
	errNoEventType  = errors.New("missing event_type")
	errNoToolName   = errors.New("tool call missing tool_name")
	errEmptyPayload = errors.New("empty input")
)

// Decode parses one line as either a native event (with event_type) or a
// Claude Code hook payload (with hook_event_name).
func Decode(line string) (Event, error) {
	data := []byte(strings.TrimSpace(line))
	if len(data) == 0 {
		return Event{}, errEmptyPayload
	}
	if data[0] != '{' {
		return Event{}, errNotObject
	}

	var probe struct {
		EventType     *string `json:"event_type"`
		HookEventName *string `json:"hook_event_name"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Event{}, fmt.Errorf("parse event JSON: %w", err)
	}

	switch {
	case probe.EventType != nil:
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			return Event{}, fmt.Errorf("parse event JSON: %w", err)
		}
		return ev, nil
	case probe.HookEventName != nil:
		var in hookInput
		if err := json.Unmarshal(data, &in); err != nil {
			return Event{}, fmt.Errorf("parse hook input: %w", err)
		}
		return fromHook(in), nil
	}
	return Event{}, errNoEventType
}

// Normalize always yields exactly one Event. When the line cannot be
// decoded it is wrapped as a UserPrompt carrying the raw text, stamped with
// now, and the decode error is returned alongside for diagnostics.
func Normalize(line string, now time.Time) (Event, error) {
	ev, err := Decode(line)
	if err == nil {
		return ev, nil
	}
	raw := line
	return Event{
		Type:       string(UserPrompt),
		Timestamp:  now.Format(time.RFC3339),
		UserPrompt: &raw,
	}, err
}

// UnmarshalJSON rejects tool calls without a tool_name.
func (tc *ToolCallRecord) UnmarshalJSON(data []byte) error {
	type plain ToolCallRecord
	var raw struct {
		plain
		ToolName *string `json:"tool_name"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.ToolName == nil {
		return errNoToolName
	}
	*tc = ToolCallRecord(raw.plain)
	tc.ToolName = *raw.ToolName
	return nil
}

func fromHook(in hookInput) Event {
	ev := Event{SessionID: in.SessionID}

	switch in.HookEventName {
	case "SessionStart":
		ev.Type = string(SessionStart)
	case "UserPromptSubmit":
		ev.Type = string(UserPrompt)
		ev.UserPrompt = in.Prompt
	case "PreToolUse", "PostToolUse":
		ev.Type = string(ToolCall)
		if in.ToolName != "" {
			ev.ToolCalls = []ToolCallRecord{{
				ToolName:   in.ToolName,
				Parameters: in.ToolInput,
				Result:     responseText(in.ToolResponse),
			}}
		}
	case "Stop", "SubagentStop":
		ev.Type = string(Other)
		ev.AssistantResponse = in.LastAssistantMessage
	case "SessionEnd":
		ev.Type = string(SessionEnd)
	default:
		ev.Type = string(Other)
		ev.AssistantResponse = in.Message
	}
	return ev
}

// responseText flattens a tool_response: JSON strings are unquoted, anything
// else is kept as compact JSON.
func responseText(raw json.RawMessage) *string {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil
	}
	out := buf.String()
	return &out
}
