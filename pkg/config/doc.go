// Package config defines the application configuration for remold.
//
// Configuration is loaded from a YAML file, filled in with defaults, and
// optionally overridden by REMOLD_* environment variables. Environment
// variables always win over file values.
//
// # Basic Usage
//
//	cfg, err := config.LoadWithEnvOverrides("remold.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Environment Variables
//
// Variables follow the pattern REMOLD_SECTION_FIELD, for example:
//
//	REMOLD_RULES_PATH=/etc/remold/rules.yaml
//	REMOLD_AUDIT_ENABLED=true
//	REMOLD_TELEMETRY_LOGGING_LEVEL=debug
package config
