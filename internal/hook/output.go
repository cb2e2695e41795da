package hook

import (
	"encoding/json"
	"io"

	"github.com/thoreinstein/plugkit/internal/errors"
)

// Decision is a hook's verdict on a tool call.
type Decision int

const (
	// Allow lets the tool call proceed.
	Allow Decision = iota
	// Block refuses the tool call.
	Block
)

func (d Decision) String() string {
	if d == Block {
		return "block"
	}
	return "allow"
}

// SpecificOutput is the event-scoped part of an advisory response.
type SpecificOutput struct {
	HookEventName     string `json:"hookEventName"`
	AdditionalContext string `json:"additionalContext"`
}

// Output is the JSON object a hook writes to stdout.
type Output struct {
	Decision           string          `json:"decision,omitempty"`
	Reason             string          `json:"reason,omitempty"`
	HookSpecificOutput *SpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// WriteContext writes an advisory message that the host adds to the model's context.
func WriteContext(w io.Writer, event, text string) error {
	return write(w, Output{
		HookSpecificOutput: &SpecificOutput{
			HookEventName:     event,
			AdditionalContext: text,
		},
	})
}

// WriteBlock writes a blocking decision with reason.
func WriteBlock(w io.Writer, reason string) error {
	return write(w, Output{
		Decision: Block.String(),
		Reason:   reason,
	})
}

func write(w io.Writer, out Output) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return errors.Wrap(enc.Encode(out), "encoding hook output")
}
