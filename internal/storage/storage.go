// internal/storage/storage.go
package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// Store is the blob storage collaborator.
type Store interface {
	Upload(ctx context.Context, path string, data []byte, overwrite bool) (string, error)
	PublicURL(path string) string
}

// DiskStore keeps blobs on the local filesystem and serves them from a
// public base URL.
type DiskStore struct {
	dir        string
	publicBase string
}

func NewDisk(dir, publicBase string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage dir: %w", err)
	}
	return &DiskStore{dir: dir, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

func (s *DiskStore) Upload(ctx context.Context, path string, data []byte, overwrite bool) (string, error) {
	clean := filepath.Clean("/" + path)
	full := filepath.Join(s.dir, clean)
	if !strings.HasPrefix(full, s.dir) {
		return "", fmt.Errorf("invalid path %q", path)
	}
	if !overwrite {
		if _, err := os.Stat(full); err == nil {
			return "", fmt.Errorf("object %q already exists", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", err
	}
	return s.PublicURL(path), nil
}

func (s *DiskStore) PublicURL(path string) string {
	return s.publicBase + "/" + strings.TrimLeft(path, "/")
}

// FallbackDataURL embeds the bytes as an inline data: URL. Upload callers use
// it when the store fails so the feature degrades instead of blocking.
func FallbackDataURL(data []byte) string {
	return "data:" + http.DetectContentType(data) + ";base64," +
		base64.StdEncoding.EncodeToString(data)
}
