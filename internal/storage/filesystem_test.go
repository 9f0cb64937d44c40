package storage

import (
	"bytes"
	"context"
	"testing"
)

func TestWriteAndRead(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	data := []byte{0x89, 'P', 'N', 'G'}
	key, err := store.Write(context.Background(), "sessions/abc/result-1.png", data)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if key != "sessions/abc/result-1.png" {
		t.Fatalf("key = %q", key)
	}

	got, err := store.Read(context.Background(), key)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("read bytes mismatch")
	}
}

func TestSanitizeKeyRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	bad := []string{"", "   ", "../outside.png", "a/../../outside.png"}
	for _, key := range bad {
		if _, err := store.Write(context.Background(), key, []byte("x")); err == nil {
			t.Fatalf("key %q should be rejected", key)
		}
	}

	key, err := store.Write(context.Background(), "/leading/slash.png", []byte("x"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if key != "leading/slash.png" {
		t.Fatalf("key = %q, want cleaned relative key", key)
	}
}

func TestReadMissingKey(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if _, err := store.Read(context.Background(), "nope.png"); err == nil {
		t.Fatalf("expected an error for a missing key")
	}
}
