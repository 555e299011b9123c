package confloader

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the default environment variable prefix.
const DefaultEnvPrefix = "PRESUPUESTO_"

// DefaultAliases maps unprefixed environment variables onto config keys.
var DefaultAliases = map[string]string{
	"DATABASE_URL":    "storage.dsn",
	"ALLOWED_ORIGINS": "server.cors.allowed_origins",
}

// Loader loads configuration from multiple sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
	aliases   map[string]string
	loaded    bool
}

// Option is a function that configures the Loader.
type Option func(*Loader)

// WithEnvPrefix sets the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the configuration file path.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// WithAliases replaces the unprefixed environment aliases.
func WithAliases(aliases map[string]string) Option {
	return func(l *Loader) {
		l.aliases = aliases
	}
}

// NewLoader creates a new configuration loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: DefaultEnvPrefix,
		aliases:   DefaultAliases,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load loads configuration from all sources and unmarshals into target.
// Fields of target that no source sets keep their current value, so callers
// pass a struct pre-filled with defaults.
func (l *Loader) Load(target any) error {
	if l.filePath != "" {
		if err := l.LoadFile(l.filePath); err != nil {
			return fmt.Errorf("load config file: %w", err)
		}
	}

	schema := schemaOf(target)
	if err := l.loadAliases(schema); err != nil {
		return err
	}
	if err := l.loadEnv(schema); err != nil {
		return fmt.Errorf("load env: %w", err)
	}

	if err := l.Unmarshal(target); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	l.loaded = true
	return nil
}

// LoadFile loads configuration from a YAML file.
func (l *Loader) LoadFile(path string) error {
	if path == "" {
		return nil
	}

	provider := file.Provider(path)
	if err := l.k.Load(provider, yaml.Parser()); err != nil {
		return fmt.Errorf("load file %s: %w", path, err)
	}

	return nil
}

// LoadEnv loads prefixed environment variables without a target schema.
// Every underscore becomes a key separator:
// PRESUPUESTO_LOG_LEVEL -> log.level
func (l *Loader) LoadEnv() error {
	return l.loadEnv(nil)
}

// loadEnv resolves PRESUPUESTO_SERVER_HTTP_MAX_BODY_BYTES against the known
// keys so underscores inside a key name survive. Slice keys are split on
// commas.
func (l *Loader) loadEnv(schema map[string]fieldInfo) error {
	byEnvName := make(map[string]fieldInfo, len(schema))
	for _, f := range schema {
		byEnvName[strings.ReplaceAll(f.key, ".", "_")] = f
	}

	provider := env.ProviderWithValue(l.envPrefix, ".", func(name, value string) (string, any) {
		name = strings.ToLower(strings.TrimPrefix(name, l.envPrefix))
		f, ok := byEnvName[name]
		if !ok {
			return strings.ReplaceAll(name, "_", "."), value
		}
		if f.slice {
			return f.key, splitList(value)
		}
		return f.key, value
	})
	return l.k.Load(provider, nil)
}

// loadAliases applies the unprefixed alias variables that are set.
func (l *Loader) loadAliases(schema map[string]fieldInfo) error {
	data := make(map[string]any)
	for name, key := range l.aliases {
		value, ok := os.LookupEnv(name)
		if !ok || value == "" {
			continue
		}
		if f, known := schema[key]; known && f.slice {
			data[key] = splitList(value)
		} else {
			data[key] = value
		}
	}
	if len(data) == 0 {
		return nil
	}
	return l.LoadMap(data)
}

// LoadMap loads configuration from a map (useful for flags or testing).
func (l *Loader) LoadMap(data map[string]any) error {
	if err := l.k.Load(mapProvider(data), nil); err != nil {
		return fmt.Errorf("load map: %w", err)
	}
	return nil
}

// Unmarshal unmarshals the loaded configuration into the target struct.
// Uses koanf tags for struct field mapping.
func (l *Loader) Unmarshal(target any) error {
	return l.k.Unmarshal("", target)
}

// Get returns a value from the configuration by key.
func (l *Loader) Get(key string) any {
	return l.k.Get(key)
}

// GetString returns a string value from the configuration.
func (l *Loader) GetString(key string) string {
	return l.k.String(key)
}

// GetBool returns a bool value from the configuration.
func (l *Loader) GetBool(key string) bool {
	return l.k.Bool(key)
}

// IsLoaded returns true if configuration has been loaded.
func (l *Loader) IsLoaded() bool {
	return l.loaded
}

// Keys returns all configuration keys.
func (l *Loader) Keys() []string {
	return l.k.Keys()
}

type fieldInfo struct {
	key   string
	slice bool
}

// schemaOf lists the leaf koanf keys of a struct.
func schemaOf(target any) map[string]fieldInfo {
	out := make(map[string]fieldInfo)
	if target == nil {
		return out
	}
	walkFields(reflect.TypeOf(target), "", out)
	return out
}

func walkFields(t reflect.Type, prefix string, out map[string]fieldInfo) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("koanf")
		if tag == "" || tag == "-" || !f.IsExported() {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		ft := f.Type
		if ft.Kind() == reflect.Struct {
			walkFields(ft, key, out)
			continue
		}
		out[key] = fieldInfo{key: key, slice: ft.Kind() == reflect.Slice}
	}
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
