package config

import "time"

// ServerConfig is the root configuration for presupuesto-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server"`
	Storage StorageSection `koanf:"storage"`
	Log     LogSection     `koanf:"log"`
	Tracing TracingSection `koanf:"tracing"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP    HTTPConfig    `koanf:"http"`
	CORS    CORSConfig    `koanf:"cors"`
	Metrics MetricsConfig `koanf:"metrics"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// MaxBodyBytes caps request bodies; larger requests get 413.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RateLimit is the sustained requests per second allowed per client IP.
	// Zero disables rate limiting.
	RateLimit float64 `koanf:"rate_limit"`
	RateBurst int     `koanf:"rate_burst"`

	// TrustedProxies are IPs or CIDRs whose forwarding headers identify
	// the client. Empty keys every client by its peer address.
	TrustedProxies []string `koanf:"trusted_proxies"`
}

// CORSConfig configures cross-origin access. "*" allows any origin.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// StorageSection configures the durable record table.
type StorageSection struct {
	// DSN selects the backend: memory://, badger://<dir>, sqlite:///<file>.
	DSN string `koanf:"dsn"`

	// EncryptionKey is a hex-encoded 32-byte key sealing badger records.
	EncryptionKey string `koanf:"encryption_key"`

	Badger BadgerSection `koanf:"badger"`
}

// BadgerSection tunes the badger backend.
type BadgerSection struct {
	GCInterval  time.Duration `koanf:"gc_interval"`
	GCThreshold float64       `koanf:"gc_threshold"`
	SyncWrites  bool          `koanf:"sync_writes"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TracingSection configures OpenTelemetry export.
type TracingSection struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
}
