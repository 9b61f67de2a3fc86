// Package config loads the AgentBridge runtime configuration from a YAML
// file with environment variable overrides. Backend availability is driven
// from here: a disabled backend runs in degraded mode (registration
// bookkeeping and plan inspection keep working, execution is skipped).
package config
