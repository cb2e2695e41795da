// Package hook implements the contract between Claude Code and a command hook.
//
// The host runs the hook once per event, writes a JSON payload to its stdin
// and reads its stdout and exit code:
//
//	stdin : {"hook_event_name":"PostToolUse","tool_name":"Edit","tool_input":{"file_path":"a.py"}}
//	stdout: {"hookSpecificOutput":{"hookEventName":"PostToolUse","additionalContext":"..."}}
//	    or: {"decision":"block","reason":"..."}
//	exit  : 0 allows, 2 blocks (stderr is shown to the model)
//
// Setting CLAUDE_HOOKS_DISABLED to any non-empty value turns every hook into a
// no-op that exits 0 without reading stdin.
package hook
