package hook

import "os"

// DisableEnv is the opt-out switch honoured by every hook.
const DisableEnv = "CLAUDE_HOOKS_DISABLED"

// Disabled reports whether hooks are switched off for this process.
func Disabled() bool {
	return os.Getenv(DisableEnv) != ""
}
