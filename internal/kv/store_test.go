package kv

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

// exerciseStore runs the Store contract shared by every backend.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) = %v, want ErrNotFound", err)
	}

	if err := store.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, err := store.Get(ctx, "k"); err != nil || got != "v1" {
		t.Fatalf("Get = %q, %v; want v1", got, err)
	}

	// Set on an existing key overwrites.
	if err := store.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("overwrite Set: %v", err)
	}
	if got, _ := store.Get(ctx, "k"); got != "v2" {
		t.Fatalf("Get after overwrite = %q, want v2", got)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after Delete = %v, want ErrNotFound", err)
	}

	// Delete is idempotent.
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("repeat Delete: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	exerciseStore(t, store)
	if store.Len() != 0 {
		t.Fatalf("store holds %d keys after contract run, want 0", store.Len())
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gateway.db")

	store, err := NewSQLiteStore(ctx, path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer store.Close()

	exerciseStore(t, store)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "gateway.db")

	first, err := NewSQLiteStore(ctx, path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Set(ctx, "student:u1:test:t1:deadline", "1700000000"); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := NewSQLiteStore(ctx, path, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	got, err := second.Get(ctx, "student:u1:test:t1:deadline")
	if err != nil || got != "1700000000" {
		t.Fatalf("Get after reopen = %q, %v; want persisted value", got, err)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "etcd", "", "", zerolog.Nop()); err == nil {
		t.Fatal("Open accepted an unknown driver")
	}
}

func TestOpenMemoryDriver(t *testing.T) {
	store, err := Open(context.Background(), DriverMemory, "", "", zerolog.Nop())
	if err != nil {
		t.Fatalf("Open(memory): %v", err)
	}
	defer store.Close()
	exerciseStore(t, store)
}
