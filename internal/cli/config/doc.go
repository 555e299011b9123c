// Package config holds presupuesto-cli defaults read from an optional YAML
// file, by default ~/.presupuesto/cli.yaml. Flags and environment variables
// override the file.
package config
