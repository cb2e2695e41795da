// Package validator holds the issue and result types shared by every plugkit
// validator (skills, agents, plugin manifests, map specs, documents) and the
// reporter that prints them.
//
// # Basic Usage
//
//	result := validator.NewResult("skills/demo/SKILL.md")
//	if name == "" {
//		result.AddError("name", "is required", nil)
//	}
//
//	if result.HasErrors() {
//		// exit non-zero
//	}
//
// Results for many files are printed together with [Reporter.Report].
package validator
