package storage

import (
	"encoding/binary"
	"time"
)

// Key layout of the badger backend:
//
//	budget/<id>                              JSON record (optionally sealed)
//	budget-ts/<ts:8><created:8><id>          empty; list order index
//
// The index encodes timestamp and creation time inverted, so a forward scan
// yields larger timestamps first, then later creations, then ascending ids.
var (
	recordPrefix = []byte("budget/")
	indexPrefix  = []byte("budget-ts/")
)

func recordKey(id string) []byte {
	key := make([]byte, 0, len(recordPrefix)+len(id))
	key = append(key, recordPrefix...)
	return append(key, id...)
}

func indexKey(timestamp int64, createdAt time.Time, id string) []byte {
	key := make([]byte, 0, len(indexPrefix)+16+len(id))
	key = append(key, indexPrefix...)
	key = binary.BigEndian.AppendUint64(key, descending(timestamp))
	key = binary.BigEndian.AppendUint64(key, descending(createdAt.UnixNano()))
	return append(key, id...)
}

// indexKeyID extracts the record id from an index key.
func indexKeyID(key []byte) string {
	offset := len(indexPrefix) + 16
	if len(key) <= offset {
		return ""
	}
	return string(key[offset:])
}

// descending maps v to a uint64 whose big-endian order is the reverse of
// the signed order of v.
func descending(v int64) uint64 {
	return ^(uint64(v) ^ (1 << 63))
}

// BadgerConfig contains Badger-specific tuning parameters.
type BadgerConfig struct {
	// Dir is the storage directory. Ignored when InMemory is set.
	Dir string

	// InMemory keeps all data in memory; nothing survives Close.
	InMemory bool

	// GCInterval is the interval between automatic value log GC runs.
	// Default: 10m
	GCInterval time.Duration

	// GCThreshold is the GC discard ratio threshold (0.0-1.0).
	// Default: 0.5 (rewrite a value log file when 50% of it is stale)
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 64MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 256MB
	ValueLogFileSize int64

	// NumMemtables is the number of memtables.
	// Default: 2
	NumMemtables int

	// SyncWrites enables fsync after each write.
	// Default: true
	SyncWrites bool

	// EncryptionKey seals record values at rest when set (32 bytes).
	EncryptionKey []byte
}

// DefaultBadgerConfig returns the default Badger configuration.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:              dir,
		GCInterval:       10 * time.Minute,
		GCThreshold:      0.5,
		CacheSize:        64 << 20,  // 64MB
		ValueLogFileSize: 256 << 20, // 256MB
		NumMemtables:     2,
		SyncWrites:       true,
	}
}
