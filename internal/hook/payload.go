package hook

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/thoreinstein/plugkit/internal/errors"
)

// Event names sent by the host in hook_event_name.
const (
	EventPreToolUse       = "PreToolUse"
	EventPostToolUse      = "PostToolUse"
	EventUserPromptSubmit = "UserPromptSubmit"
)

// maxPayload bounds how much of stdin is read. Write payloads carry the whole
// file content, so this is generous.
const maxPayload = 16 << 20

// ToolInput holds the tool arguments hooks care about. Other arguments are ignored.
type ToolInput struct {
	FilePath     string `json:"file_path,omitempty"`
	NotebookPath string `json:"notebook_path,omitempty"`
	Path         string `json:"path,omitempty"`
	Content      string `json:"content,omitempty"`
	Command      string `json:"command,omitempty"`
}

// Input is the JSON object the host writes to a hook's stdin.
type Input struct {
	SessionID      string    `json:"session_id,omitempty"`
	TranscriptPath string    `json:"transcript_path,omitempty"`
	Cwd            string    `json:"cwd,omitempty"`
	HookEventName  string    `json:"hook_event_name,omitempty"`
	ToolName       string    `json:"tool_name,omitempty"`
	ToolInput      ToolInput `json:"tool_input"`
	Prompt         string    `json:"prompt,omitempty"`
}

// FilePath returns the path the tool call targets: the first non-empty of
// tool_input.file_path, tool_input.notebook_path and tool_input.path.
func (in *Input) FilePath() string {
	if in == nil {
		return ""
	}
	for _, p := range []string{in.ToolInput.FilePath, in.ToolInput.NotebookPath, in.ToolInput.Path} {
		if p != "" {
			return p
		}
	}
	return ""
}

// Decode reads a hook payload from r. Empty or whitespace-only input yields an
// empty Input. Malformed JSON is an error; hooks treat it like an absent field.
func Decode(r io.Reader) (*Input, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPayload))
	if err != nil {
		return nil, errors.Wrap(err, "reading hook payload")
	}

	in := &Input{}
	if len(bytes.TrimSpace(data)) == 0 {
		return in, nil
	}
	if err := json.Unmarshal(data, in); err != nil {
		return nil, errors.Wrap(err, "decoding hook payload")
	}
	return in, nil
}
