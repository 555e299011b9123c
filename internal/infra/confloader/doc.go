// Package confloader loads configuration through koanf.
//
// Priority (highest to lowest):
//
//  1. Environment variables (PRESUPUESTO_*, plus DATABASE_URL and ALLOWED_ORIGINS)
//  2. Configuration file (YAML)
//  3. Values already present in the target struct
//
// Watcher reports changes to the configuration file so selected settings
// can be applied without a restart.
package confloader
