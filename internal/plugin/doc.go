// Package plugin models the artifacts of a Claude plugin: skills
// (skills/<name>/SKILL.md), agents (agents/<name>.md) and the plugin
// manifest (.claude-plugin/plugin.json).
//
// It parses and validates each artifact, scans plugin roots concurrently
// into a [Catalog], and watches roots for changes.
//
//	cat, err := plugin.NewScanner(logger).Scan(ctx, roots...)
//	for _, s := range cat.Skills() {
//		result := plugin.ValidateSkill(s, plugin.WithStrict(true))
//	}
package plugin
