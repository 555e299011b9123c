package storage

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v3"
)

func testKey(fill byte) []byte {
	return bytes.Repeat([]byte{fill}, 32)
}

func TestSealer_RoundTrip(t *testing.T) {
	s, err := newSealer(testKey(7))
	if err != nil {
		t.Fatalf("newSealer() error = %v", err)
	}

	plain := []byte(`{"id":"x","state":"{}"}`)
	sealed, err := s.seal(plain, []byte("x"))
	if err != nil {
		t.Fatalf("seal() error = %v", err)
	}
	if !isSealed(sealed) {
		t.Error("sealed value should carry the marker")
	}
	if bytes.Contains(sealed, plain) {
		t.Error("sealed value leaks plaintext")
	}

	opened, err := s.open(sealed, []byte("x"))
	if err != nil {
		t.Fatalf("open() error = %v", err)
	}
	if !bytes.Equal(opened, plain) {
		t.Errorf("open() = %s, want %s", opened, plain)
	}

	// Same plaintext seals differently each time.
	again, _ := s.seal(plain, []byte("x"))
	if bytes.Equal(again, sealed) {
		t.Error("nonce reuse: identical ciphertexts")
	}
}

func TestSealer_Failures(t *testing.T) {
	if _, err := newSealer([]byte("short")); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("newSealer(short) error = %v, want ErrInvalidKey", err)
	}

	s, _ := newSealer(testKey(1))
	other, _ := newSealer(testKey(2))
	sealed, _ := s.seal([]byte("secret"), []byte("id-1"))

	if _, err := s.open(sealed, []byte("id-2")); !errors.Is(err, ErrUnsealFailed) {
		t.Errorf("open() with wrong id error = %v, want ErrUnsealFailed", err)
	}
	if _, err := other.open(sealed, []byte("id-1")); !errors.Is(err, ErrUnsealFailed) {
		t.Errorf("open() with wrong key error = %v, want ErrUnsealFailed", err)
	}
	if _, err := s.open(sealed[:5], []byte("id-1")); err == nil {
		t.Error("open() of truncated value should fail")
	}
}

func TestBadgerTable_Sealed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	cfg := DefaultBadgerConfig(dir)
	cfg.GCInterval = time.Hour
	cfg.EncryptionKey = testKey(9)

	table, err := NewBadgerTable(cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	b := newTestBudget(t, "Secreto", 1, `{"password":"hunter2"}`, baseTime)
	if err := table.Insert(ctx, b); err != nil {
		t.Fatal(err)
	}

	// Raw value must not reveal the document.
	err = table.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(b.ID))
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if !isSealed(raw) || bytes.Contains(raw, []byte("hunter2")) || bytes.Contains(raw, []byte("Secreto")) {
			t.Error("record stored in the clear")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := table.Get(ctx, b.ID)
	if err != nil || !got.State.Equal(b.State) {
		t.Fatalf("Get() = %v, %v", got, err)
	}
	items, err := table.List(ctx)
	if err != nil || len(items) != 1 || items[0].Name != "Secreto" {
		t.Fatalf("List() = %v, %v", items, err)
	}
	table.Close()

	// Reopening without the key cannot read sealed records.
	cfg.EncryptionKey = nil
	plain, err := NewBadgerTable(cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	defer plain.Close()
	if _, err := plain.Get(ctx, b.ID); !errors.Is(err, ErrSealedNoKey) {
		t.Errorf("Get() without key error = %v, want ErrSealedNoKey", err)
	}
}
