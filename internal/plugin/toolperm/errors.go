package toolperm

import "fmt"

// Error reports an invalid permission token.
type Error struct {
	Token   string
	Message string
}

func (e *Error) Error() string {
	if e.Token == "" {
		return "tool permission error: " + e.Message
	}
	return fmt.Sprintf("invalid tool permission %q: %s", e.Token, e.Message)
}
