package config

import "time"

// CLIConfig is the configuration for presupuesto-cli.
type CLIConfig struct {
	// Server is the base URL of presupuesto-server.
	Server string `yaml:"server"`
	// CAFile is an extra PEM bundle trusted for https servers.
	CAFile string `yaml:"ca_file,omitempty"`
	// Output is the default format: table, json or yaml.
	Output string `yaml:"output"`
	// Timeout bounds each request.
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:  "http://127.0.0.1:8000",
		Output:  "table",
		Timeout: 30 * time.Second,
	}
}
