package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskStoreUploadAndURL(t *testing.T) {
	s, err := NewDisk(t.TempDir(), "https://cdn.example.com/files/")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	url, err := s.Upload(context.Background(), "avatars/u1.png", []byte("png-bytes"), false)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if url != "https://cdn.example.com/files/avatars/u1.png" {
		t.Fatalf("unexpected public url %q", url)
	}

	got, err := os.ReadFile(filepath.Join(s.dir, "avatars", "u1.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(got) != "png-bytes" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestDiskStoreOverwriteFlag(t *testing.T) {
	s, err := NewDisk(t.TempDir(), "http://localhost/static")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Upload(context.Background(), "a.txt", []byte("one"), false); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	if _, err := s.Upload(context.Background(), "a.txt", []byte("two"), false); err == nil {
		t.Fatal("expected existing object to be protected")
	}
	if _, err := s.Upload(context.Background(), "a.txt", []byte("two"), true); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestDiskStoreContainsTraversal(t *testing.T) {
	root := t.TempDir()
	s, err := NewDisk(root, "http://localhost/static")
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	// Dot-dot segments normalize against the virtual root, never above it.
	for _, path := range []string{"../escape.txt", "a/../../..//escape.txt"} {
		if _, err := s.Upload(context.Background(), path, []byte("x"), true); err != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, "escape.txt")); err != nil {
			t.Fatalf("upload of %q landed outside the root", path)
		}
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "escape.txt")); err == nil {
		t.Fatal("upload escaped the storage root")
	}
}

func TestFallbackDataURL(t *testing.T) {
	url := FallbackDataURL([]byte("plain text payload"))
	if !strings.HasPrefix(url, "data:text/plain") {
		t.Fatalf("expected sniffed text content type, got %q", url)
	}
	if !strings.Contains(url, ";base64,") {
		t.Fatalf("expected base64 data url, got %q", url)
	}
}
