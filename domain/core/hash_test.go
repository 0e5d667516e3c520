package core

import (
	"os"
	"path/filepath"
	"testing"
)

// TestNewHashKnownValue checks the digest of a fixed input
func TestNewHashKnownValue(t *testing.T) {
	h := NewHash([]byte("abc"))
	expected := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if h.String() != expected {
		t.Errorf("Expected %s, got %s", expected, h)
	}
	if h.Short() != "ba7816bf8f01" {
		t.Errorf("Expected short hash 'ba7816bf8f01', got '%s'", h.Short())
	}
}

// TestHashFileMatchesNewHash tests that streaming and in-memory hashing agree
func TestHashFileMatchesNewHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.bin")
	content := []byte("Description,Code\nWidget,A1\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	h, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile returned error: %v", err)
	}
	if h != NewHash(content) {
		t.Errorf("Expected %s, got %s", NewHash(content), h)
	}
}

// TestHashFileMissing tests the error path
func TestHashFileMissing(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Expected error for missing file")
	}
}

// TestHashIsEmpty tests emptiness check
func TestHashIsEmpty(t *testing.T) {
	if !Hash("").IsEmpty() {
		t.Error("Expected empty hash to be empty")
	}
	if Hash("x").IsEmpty() {
		t.Error("Expected non-empty hash to not be empty")
	}
}
