package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestInstanceLock(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "bot.db")

	first := NewInstanceLock(dbPath)
	if err := first.Acquire(); err != nil {
		t.Fatal(err)
	}
	if first.Path() != dbPath+".lock" {
		t.Errorf("unexpected lock path %s", first.Path())
	}

	second := NewInstanceLock(dbPath)
	if err := second.Acquire(); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}

	if err := first.Release(); err != nil {
		t.Fatal(err)
	}
	if err := first.Release(); err != nil {
		t.Errorf("second release: %v", err)
	}
	if err := second.Acquire(); err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	_ = second.Release()
}
