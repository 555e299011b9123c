// Package config provides the presupuesto-server configuration.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (addresses, DSN, key, log settings)
//   - sanitize.go: Log sanitization (hide sensitive values)
//
// Configuration is loaded via internal/infra/confloader from defaults, an
// optional YAML file and PRESUPUESTO_* environment variables.
package config
