package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/abustosp/app-presupuesto/internal/core/domain"
)

// lockStripes is the number of per-id write locks. Read-modify-write
// transactions on one id run one at a time, so the last commit wins instead of
// surfacing badger.ErrConflict.
const lockStripes = 64

// BadgerTable implements Table on Badger v3.
type BadgerTable struct {
	db     *badger.DB
	cfg    BadgerConfig
	logger *slog.Logger
	sealer *sealer // nil when records are stored in the clear

	closed atomic.Bool
	locks  [lockStripes]sync.Mutex

	// Metrics (internal counters)
	lastGCTime atomic.Int64 // Unix milliseconds
	gcRuns     atomic.Uint64

	// Prometheus metrics
	metricsLSMSize      prometheus.Gauge
	metricsValueLogSize prometheus.Gauge
	metricsLastGCTime   prometheus.Gauge
	metricsGCRuns       prometheus.Counter

	// Shutdown
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBadgerTable opens (or creates) a badger-backed table.
func NewBadgerTable(cfg BadgerConfig, logger *slog.Logger) (*BadgerTable, error) {
	if cfg.Dir == "" && !cfg.InMemory {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	var seal *sealer
	if len(cfg.EncryptionKey) > 0 {
		s, err := newSealer(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		seal = s
	}

	opts := badger.DefaultOptions(cfg.Dir)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = &badgerLogger{logger: logger}
	if cfg.CacheSize > 0 {
		opts.BlockCacheSize = cfg.CacheSize
	}
	if cfg.ValueLogFileSize > 0 && !cfg.InMemory {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	if cfg.NumMemtables > 0 {
		opts.NumMemtables = cfg.NumMemtables
	}
	opts.SyncWrites = cfg.SyncWrites && !cfg.InMemory
	// Record and index entries of one snapshot must never diverge.
	opts.DetectConflicts = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	t := &BadgerTable{
		db:     db,
		cfg:    cfg,
		logger: logger,
		sealer: seal,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if cfg.InMemory {
		close(t.doneCh)
	} else {
		go t.gcLoop()
	}

	logger.Info("badger table opened",
		"dir", cfg.Dir,
		"in_memory", cfg.InMemory,
		"sealed", seal != nil,
		"gc_interval", cfg.GCInterval)

	return t, nil
}

// Insert stores a new record. An existing id yields ErrRecordConflict.
func (t *BadgerTable) Insert(ctx context.Context, b *domain.Budget) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	rec, err := NewRecord(b)
	if err != nil {
		return err
	}

	unlock := t.lock(rec.ID)
	defer unlock()

	return t.update(ctx, func(txn *badger.Txn) error {
		if _, err := txn.Get(recordKey(rec.ID)); err == nil {
			return ErrRecordConflict
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return t.put(txn, rec)
	})
}

// Get retrieves a record by id.
func (t *BadgerTable) Get(ctx context.Context, id string) (*domain.Budget, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}

	var rec Record
	err := t.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = t.load(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec.Budget()
}

// Update applies mutate to the stored record and writes it back, moving the
// index entry when timestamp changed. Load and write share one transaction.
func (t *BadgerTable) Update(ctx context.Context, id string, mutate func(*domain.Budget)) (*domain.Budget, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}

	unlock := t.lock(id)
	defer unlock()

	var result *domain.Budget
	err := t.update(ctx, func(txn *badger.Txn) error {
		prev, err := t.load(txn, id)
		if err != nil {
			return err
		}
		budget, err := prev.Budget()
		if err != nil {
			return err
		}

		mutate(budget)
		// Identity fields are owned by the table.
		budget.ID = prev.ID
		budget.CreatedAt = prev.CreatedAt

		next, err := NewRecord(budget)
		if err != nil {
			return err
		}
		if err := txn.Delete(indexKey(prev.Timestamp, prev.CreatedAt, prev.ID)); err != nil {
			return err
		}
		if err := t.put(txn, next); err != nil {
			return err
		}
		result = budget
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the record and its index entry.
func (t *BadgerTable) Delete(ctx context.Context, id string) error {
	if err := t.check(ctx); err != nil {
		return err
	}

	unlock := t.lock(id)
	defer unlock()

	return t.update(ctx, func(txn *badger.Txn) error {
		rec, err := t.load(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(indexKey(rec.Timestamp, rec.CreatedAt, rec.ID)); err != nil {
			return err
		}
		return txn.Delete(recordKey(rec.ID))
	})
}

// List walks the timestamp index and returns summaries in list order.
func (t *BadgerTable) List(ctx context.Context) ([]domain.Summary, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}

	items := []domain.Summary{}
	err := t.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = indexPrefix
		opts.PrefetchValues = false // Only need keys
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := indexKeyID(it.Item().Key())
			rec, err := t.load(txn, id)
			if err != nil {
				// A dangling index entry is a storage failure, not a missing budget.
				return fmt.Errorf("index entry without record %q: %v", id, err)
			}
			items = append(items, rec.Summary())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// Ping reports whether the database is open.
func (t *BadgerTable) Ping(ctx context.Context) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	return t.db.View(func(txn *badger.Txn) error { return nil })
}

// GC runs value log garbage collection until nothing more can be rewritten.
// Returns the number of value log files rewritten.
func (t *BadgerTable) GC(ctx context.Context) (int, error) {
	if t.cfg.InMemory {
		return 0, nil
	}
	startTime := time.Now()

	rewritten := 0
	for ctx.Err() == nil {
		err := t.db.RunValueLogGC(t.cfg.GCThreshold)
		if err != nil {
			if errors.Is(err, badger.ErrNoRewrite) {
				break
			}
			return rewritten, fmt.Errorf("gc: %w", err)
		}
		rewritten++
	}

	t.lastGCTime.Store(time.Now().UnixMilli())
	t.gcRuns.Add(1)
	if t.metricsGCRuns != nil {
		t.metricsGCRuns.Inc()
	}

	t.logger.Debug("gc completed",
		"files_rewritten", rewritten,
		"elapsed", time.Since(startTime))

	return rewritten, nil
}

// Close stops background loops and closes the database.
func (t *BadgerTable) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	t.logger.Info("shutting down badger table")

	close(t.stopCh)
	<-t.doneCh

	if err := t.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// RegisterMetrics registers Badger size and GC metrics with Prometheus.
//
// This should be called once during initialization.
// Returns the table for method chaining.
func (t *BadgerTable) RegisterMetrics(registry prometheus.Registerer) *BadgerTable {
	t.metricsLSMSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "presupuesto",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	})
	t.metricsValueLogSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "presupuesto",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	})
	t.metricsLastGCTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "presupuesto",
		Subsystem: "badger",
		Name:      "last_gc_timestamp_seconds",
		Help:      "Unix timestamp of the last Badger GC run",
	})
	t.metricsGCRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "presupuesto",
		Subsystem: "badger",
		Name:      "gc_runs_total",
		Help:      "Total Badger value log GC runs",
	})

	registry.MustRegister(
		t.metricsLSMSize,
		t.metricsValueLogSize,
		t.metricsLastGCTime,
		t.metricsGCRuns,
	)

	t.refreshMetrics()
	go t.metricsUpdateLoop()

	return t
}

func (t *BadgerTable) refreshMetrics() {
	lsm, vlog := t.db.Size()
	t.metricsLSMSize.Set(float64(lsm))
	t.metricsValueLogSize.Set(float64(vlog))
	if last := t.lastGCTime.Load(); last > 0 {
		t.metricsLastGCTime.Set(float64(last) / 1000.0) // ms to seconds
	}
}

// metricsUpdateLoop periodically updates Prometheus gauges.
func (t *BadgerTable) metricsUpdateLoop() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if t.closed.Load() {
				return
			}
			t.refreshMetrics()
		case <-t.stopCh:
			return
		}
	}
}

// gcLoop runs periodic garbage collection.
func (t *BadgerTable) gcLoop() {
	defer close(t.doneCh)

	interval := t.cfg.GCInterval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			if _, err := t.GC(ctx); err != nil {
				t.logger.Error("auto gc failed", "error", err)
			}
			cancel()

		case <-t.stopCh:
			return
		}
	}
}

func (t *BadgerTable) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.closed.Load() {
		return ErrClosed
	}
	return nil
}

// lock takes the write stripe for id and returns its release.
func (t *BadgerTable) lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	mu := &t.locks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}

// update runs fn in a read-write transaction. A conflict with a commit that
// bypassed the stripe lock is re-run until ctx is done.
func (t *BadgerTable) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	for {
		err := t.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return err
		}
	}
}

func (t *BadgerTable) load(txn *badger.Txn, id string) (Record, error) {
	item, err := txn.Get(recordKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return Record{}, domain.ErrBudgetNotFound
		}
		return Record{}, err
	}

	value, err := item.ValueCopy(nil)
	if err != nil {
		return Record{}, err
	}
	return t.decode(id, value)
}

func (t *BadgerTable) put(txn *badger.Txn, rec Record) error {
	value, err := t.encode(rec)
	if err != nil {
		return err
	}
	if err := txn.Set(recordKey(rec.ID), value); err != nil {
		return err
	}
	return txn.Set(indexKey(rec.Timestamp, rec.CreatedAt, rec.ID), nil)
}

func (t *BadgerTable) encode(rec Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	if t.sealer == nil {
		return data, nil
	}
	return t.sealer.seal(data, []byte(rec.ID))
}

func (t *BadgerTable) decode(id string, value []byte) (Record, error) {
	if isSealed(value) {
		if t.sealer == nil {
			return Record{}, ErrSealedNoKey
		}
		plain, err := t.sealer.open(value, []byte(id))
		if err != nil {
			return Record{}, err
		}
		value = plain
	}

	var rec Record
	if err := json.Unmarshal(value, &rec); err != nil {
		return Record{}, fmt.Errorf("decode record %q: %w", id, err)
	}
	return rec, nil
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
