package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"os"
	"strings"

	"github.com/abustosp/app-presupuesto/internal/storage"
)

// Verify validates the configuration. All problems are reported together.
func Verify(cfg *ServerConfig) error {
	return errors.Join(
		verifyServer(&cfg.Server),
		verifyStorage(&cfg.Storage),
		verifyLog(&cfg.Log),
		verifyTracing(&cfg.Tracing),
	)
}

func verifyServer(cfg *ServerSection) error {
	var errs []error

	if cfg.HTTP.Addr == "" {
		errs = append(errs, errors.New("server.http.addr is required"))
	} else if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr %q: %w", cfg.HTTP.Addr, err))
	}

	if (cfg.HTTP.TLSCertFile == "") != (cfg.HTTP.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and tls_key_file must be set together"))
	}
	for _, f := range []string{cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			errs = append(errs, fmt.Errorf("tls file: %w", err))
		}
	}

	if cfg.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.http.max_body_bytes must be positive"))
	}
	if cfg.HTTP.ReadTimeout < 0 || cfg.HTTP.WriteTimeout < 0 || cfg.HTTP.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server.http timeouts must not be negative"))
	}
	if cfg.HTTP.RateLimit < 0 || cfg.HTTP.RateBurst < 0 {
		errs = append(errs, errors.New("server.http.rate_limit and rate_burst must not be negative"))
	}
	for _, proxy := range cfg.HTTP.TrustedProxies {
		if !validProxy(proxy) {
			errs = append(errs, fmt.Errorf("server.http.trusted_proxies: invalid address %q", proxy))
		}
	}

	for _, origin := range cfg.CORS.AllowedOrigins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("server.cors.allowed_origins: invalid origin %q", origin))
		}
	}

	return errors.Join(errs...)
}

func verifyStorage(cfg *StorageSection) error {
	var errs []error

	target, err := storage.ParseDSN(cfg.DSN)
	if err != nil {
		errs = append(errs, fmt.Errorf("storage.dsn: %w", err))
	}

	if cfg.EncryptionKey != "" {
		key, err := hex.DecodeString(cfg.EncryptionKey)
		switch {
		case err != nil:
			errs = append(errs, errors.New("storage.encryption_key must be hex encoded"))
		case len(key) != 32:
			errs = append(errs, fmt.Errorf("storage.encryption_key must be 32 bytes, got %d", len(key)))
		case target.Backend == storage.BackendSQLite:
			errs = append(errs, errors.New("storage.encryption_key is only supported by the badger backend"))
		}
	}

	if cfg.Badger.GCThreshold <= 0 || cfg.Badger.GCThreshold >= 1 {
		errs = append(errs, errors.New("storage.badger.gc_threshold must be between 0 and 1"))
	}

	return errors.Join(errs...)
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not json or text", cfg.Format))
	}
	return errors.Join(errs...)
}

func verifyTracing(cfg *TracingSection) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Endpoint == "" {
		return errors.New("tracing.endpoint is required when tracing is enabled")
	}
	if u, err := url.Parse(cfg.Endpoint); err != nil || u.Scheme == "" {
		return fmt.Errorf("tracing.endpoint %q must be a URL", cfg.Endpoint)
	}
	return nil
}

// EncryptionKeyBytes decodes storage.encryption_key. Call after Verify.
func (s StorageSection) EncryptionKeyBytes() []byte {
	if s.EncryptionKey == "" {
		return nil
	}
	key, err := hex.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil
	}
	return key
}

func validProxy(entry string) bool {
	entry = strings.TrimSpace(entry)
	if strings.Contains(entry, "/") {
		_, err := netip.ParsePrefix(entry)
		return err == nil
	}
	_, err := netip.ParseAddr(entry)
	return err == nil
}
