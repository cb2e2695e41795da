// Package config provides configuration management for the plugkit CLI.
//
// # Configuration File
//
// config.yaml is searched in the current directory, then in
// <xdg config home>/plugkit (or $PLUGKIT_CONFIG_DIR). Every key can be
// overridden from the environment: lint.timeout becomes PLUGKIT_LINT_TIMEOUT.
//
//	version: 1
//	plugin_dirs: [~/src/my-plugins]
//	guard:
//	  deny: ['\.tfstate$']
//	  allow: ['fixtures/.*\.pem$']
//	lint:
//	  timeout: 30s
//	  max_output: 4000
//	  disabled: [javascript]
//	suggest:
//	  limit: 2
//
// # Loading Configuration
//
//	config.Init()
//	cfg, err := config.Load("")
//
// Load validates the result; [Validate] can also be called directly and
// returns every problem rather than the first.
package config
