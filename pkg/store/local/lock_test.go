package local

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mossrise/packmule/pkg/store"
)

func TestStoreLock_Exclusive(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := newStoreLock(dir)
	if err := first.Acquire(ctx, time.Second); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer first.Release()

	second := newStoreLock(dir)
	err := second.Acquire(ctx, 300*time.Millisecond)
	if !errors.Is(err, store.ErrStoreInUse) {
		t.Fatalf("expected ErrStoreInUse while the lock is held, got: %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if err := second.Acquire(ctx, time.Second); err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
	if err := second.Release(); err != nil {
		t.Fatalf("second Release failed: %v", err)
	}
}

func TestStoreLock_ReleaseIdempotent(t *testing.T) {
	l := newStoreLock(t.TempDir())

	// Never acquired: Release must be a no-op.
	if err := l.Release(); err != nil {
		t.Fatalf("Release on unheld lock failed: %v", err)
	}

	if err := l.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("repeated Release failed: %v", err)
	}
}

func TestStoreLock_AcquireCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not", "yet", "there")

	l := newStoreLock(dir)
	if err := l.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer l.Release()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("expected store directory to exist after Acquire: %v", err)
	}
}

func TestStoreLock_ReleaseRemovesMarker(t *testing.T) {
	dir := t.TempDir()

	l := newStoreLock(dir)
	if err := l.Acquire(context.Background(), time.Second); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, lockFileName)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected lock marker to be removed, stat returned: %v", err)
	}
}
