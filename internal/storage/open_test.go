package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/abustosp/app-presupuesto/internal/core/domain"
)

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn     string
		want    Target
		wantErr bool
	}{
		{"memory://", Target{Backend: BackendBadger, InMemory: true}, false},
		{"badger:///var/lib/presupuesto", Target{Backend: BackendBadger, Path: "/var/lib/presupuesto"}, false},
		{"badger://data", Target{Backend: BackendBadger, Path: "data"}, false},
		{"sqlite:///./data/app.db", Target{Backend: BackendSQLite, Path: "./data/app.db"}, false},
		{"sqlite:////var/lib/app.db", Target{Backend: BackendSQLite, Path: "/var/lib/app.db"}, false},
		{"sqlite://", Target{Backend: BackendSQLite, Path: ":memory:", InMemory: true}, false},
		{"sqlite://:memory:", Target{Backend: BackendSQLite, Path: ":memory:", InMemory: true}, false},
		{"  SQLITE:///app.db ", Target{Backend: BackendSQLite, Path: "app.db"}, false},
		{"badger://", Target{}, true},
		{"postgres://localhost/db", Target{}, true},
		{"./data/app.db", Target{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			got, err := ParseDSN(tt.dsn)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDSN() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseDSN() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()

	bt := openTestTable(t, "memory://")
	if _, ok := bt.(*BadgerTable); !ok {
		t.Errorf("memory:// opened %T, want *BadgerTable", bt)
	}
	st := openTestTable(t, "sqlite://:memory:")
	if _, ok := st.(*SQLiteTable); !ok {
		t.Errorf("sqlite:// opened %T, want *SQLiteTable", st)
	}

	_, err := Open(ctx, OpenConfig{DSN: "sqlite://:memory:", EncryptionKey: testKey(1)})
	if err == nil {
		t.Error("Open() should reject an encryption key for sqlite")
	}
	if _, err := Open(ctx, OpenConfig{DSN: "mysql://x"}); err == nil {
		t.Error("Open() should reject unknown schemes")
	}
}

type recordingObserver struct {
	ops  []string
	errs []error
}

func (r *recordingObserver) ObserveStoreOp(op string, elapsed time.Duration, err error) {
	r.ops = append(r.ops, op)
	r.errs = append(r.errs, err)
}

func TestInstrument(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	table := Instrument(openTestTable(t, "memory://"), obs)

	b := newTestBudget(t, "a", 1, `{}`, baseTime)
	if err := table.Insert(ctx, b); err != nil {
		t.Fatal(err)
	}
	if _, err := table.Get(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := table.List(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := table.Update(ctx, b.ID, func(x *domain.Budget) {}); err != nil {
		t.Fatal(err)
	}
	if err := table.Delete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	err := table.Delete(ctx, b.ID)
	if !errors.Is(err, domain.ErrBudgetNotFound) {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := table.Ping(ctx); err != nil {
		t.Fatal(err)
	}

	want := []string{"insert", "get", "list", "update", "delete", "delete", "ping"}
	if len(obs.ops) != len(want) {
		t.Fatalf("observed %v, want %v", obs.ops, want)
	}
	for i := range want {
		if obs.ops[i] != want[i] {
			t.Errorf("ops[%d] = %s, want %s", i, obs.ops[i], want[i])
		}
	}
	if !errors.Is(obs.errs[5], domain.ErrBudgetNotFound) {
		t.Errorf("observed error = %v, want ErrBudgetNotFound", obs.errs[5])
	}
}

func TestBadgerTable_ClosedAndGC(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultBadgerConfig(t.TempDir())
	cfg.GCInterval = time.Hour

	table, err := NewBadgerTable(cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := table.GC(ctx); err != nil {
		t.Errorf("GC() error = %v", err)
	}
	if err := table.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := table.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if err := table.Ping(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Ping() after close error = %v, want ErrClosed", err)
	}
}

func TestIndexKey_Order(t *testing.T) {
	created := baseTime
	keys := [][]byte{
		indexKey(100, created, "a"),
		indexKey(5, created.Add(time.Second), "a"),
		indexKey(5, created, "a"),
		indexKey(5, created, "b"),
		indexKey(0, created, "a"),
		indexKey(-5, created, "a"),
	}
	for i := 1; i < len(keys); i++ {
		if string(keys[i-1]) >= string(keys[i]) {
			t.Errorf("key %d should sort before key %d", i-1, i)
		}
	}
	if id := indexKeyID(indexKey(5, created, "budget-id")); id != "budget-id" {
		t.Errorf("indexKeyID() = %q", id)
	}
}
