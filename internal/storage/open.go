package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Backend names.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Target is a parsed connection target.
type Target struct {
	Backend  string
	Path     string // file or directory; empty when InMemory
	InMemory bool
}

// ParseDSN parses a connection target.
//
// Accepted forms:
//
//	memory://                      badger, in memory
//	badger:///var/lib/presupuesto  badger, absolute directory
//	badger://data                  badger, relative directory
//	sqlite:///./data/app.db        sqlite, relative file
//	sqlite:////var/lib/app.db      sqlite, absolute file
//	sqlite://  sqlite://:memory:   sqlite, in memory
func ParseDSN(dsn string) (Target, error) {
	dsn = strings.TrimSpace(dsn)
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return Target{}, fmt.Errorf("storage: invalid dsn %q: missing scheme", dsn)
	}

	switch strings.ToLower(scheme) {
	case "memory":
		return Target{Backend: BackendBadger, InMemory: true}, nil

	case BackendBadger:
		if rest == "" {
			return Target{}, fmt.Errorf("storage: badger dsn needs a directory")
		}
		return Target{Backend: BackendBadger, Path: rest}, nil

	case BackendSQLite:
		// sqlite:///<path> is relative, sqlite:////<path> absolute.
		path := strings.TrimPrefix(rest, "/")
		if path == "" || path == ":memory:" {
			return Target{Backend: BackendSQLite, Path: ":memory:", InMemory: true}, nil
		}
		return Target{Backend: BackendSQLite, Path: path}, nil

	default:
		return Target{}, fmt.Errorf("storage: unsupported dsn scheme %q", scheme)
	}
}

// OpenConfig configures Open.
type OpenConfig struct {
	// DSN is the connection target, see ParseDSN.
	DSN string

	// EncryptionKey seals records at rest (badger only, 32 bytes).
	EncryptionKey []byte

	// Badger carries tuning for the badger backend; Dir and InMemory are
	// taken from the DSN.
	Badger BadgerConfig

	Logger *slog.Logger
}

// Open parses the DSN and opens the matching backend.
func Open(ctx context.Context, cfg OpenConfig) (Table, error) {
	target, err := ParseDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("backend", target.Backend)

	switch target.Backend {
	case BackendBadger:
		bcfg := cfg.Badger
		bcfg.Dir = target.Path
		bcfg.InMemory = target.InMemory
		bcfg.EncryptionKey = cfg.EncryptionKey
		return NewBadgerTable(bcfg, logger)

	case BackendSQLite:
		if len(cfg.EncryptionKey) > 0 {
			return nil, fmt.Errorf("storage: encryption_key is only supported by the badger backend")
		}
		return NewSQLiteTable(ctx, SQLiteConfig{Path: target.Path}, logger)

	default:
		return nil, fmt.Errorf("storage: unsupported backend %q", target.Backend)
	}
}
