package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:8000"
	DefaultMaxBodyBytes    = 10 << 20 // 10 MiB
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultDSN              = "sqlite:///./data/app.db"
	DefaultBadgerGCInterval = 10 * time.Minute
	DefaultBadgerGCRatio    = 0.5

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultServiceName = "presupuesto"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				MaxBodyBytes:    DefaultMaxBodyBytes,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
			CORS: CORSConfig{
				AllowedOrigins: []string{"*"},
			},
			Metrics: MetricsConfig{
				Enabled: true,
			},
		},
		Storage: StorageSection{
			DSN: DefaultDSN,
			Badger: BadgerSection{
				GCInterval:  DefaultBadgerGCInterval,
				GCThreshold: DefaultBadgerGCRatio,
				SyncWrites:  true,
			},
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Tracing: TracingSection{
			ServiceName: DefaultServiceName,
		},
	}
}
