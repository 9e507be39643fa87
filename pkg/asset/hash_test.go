package asset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHashValid(t *testing.T) {
	tests := []struct {
		name string
		hash Hash
		want bool
	}{
		{
			name: "valid digest",
			hash: HashBytes([]byte("hello")),
			want: true,
		},
		{
			name: "too short",
			hash: "abc123",
			want: false,
		},
		{
			name: "uppercase rejected",
			hash: Hash(strings.ToUpper(string(HashBytes([]byte("hello"))))),
			want: false,
		},
		{
			name: "non-hex characters",
			hash: Hash(strings.Repeat("g", 64)),
			want: false,
		},
		{
			name: "empty",
			hash: "",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.hash.Valid(); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.hash, got, tt.want)
			}
		})
	}
}

func TestHashEqual(t *testing.T) {
	h := HashBytes([]byte("payload"))

	if !h.Equal(h) {
		t.Error("hash should equal itself")
	}
	if !h.Equal(Hash(strings.ToUpper(string(h)))) {
		t.Error("comparison should be case-insensitive")
	}
	if h.Equal(HashBytes([]byte("other payload"))) {
		t.Error("different content should not compare equal")
	}
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob")
	content := []byte("some asset content")

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	got, err := HashFile(context.Background(), path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}
	if want := HashBytes(content); got != want {
		t.Errorf("HashFile = %s, want %s", got, want)
	}
	if !got.Valid() {
		t.Errorf("HashFile produced invalid hash %q", got)
	}
}

func TestHashFile_Missing(t *testing.T) {
	if _, err := HashFile(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestHashFile_Cancelled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blob")
	if err := os.WriteFile(path, []byte("content"), 0644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := HashFile(ctx, path); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
