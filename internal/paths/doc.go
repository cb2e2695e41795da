// Package paths resolves the directories plugkit reads and writes.
//
// plugkit's own configuration lives under the XDG config home
// (github.com/adrg/xdg), overridable with PLUGKIT_CONFIG_DIR. Claude Code
// artifacts live in two scopes:
//
//	| Scope   | Directory            | Settings file                  |
//	|---------|----------------------|--------------------------------|
//	| user    | ~/.claude/           | ~/.claude/settings.json        |
//	| project | <root>/.claude/      | <root>/.claude/settings.json   |
//
// Functions taking a scope return an empty string for unknown scopes.
package paths
