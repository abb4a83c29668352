package filestorage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// LocalBackend writes uploads under a base directory and serves them back
// through a configured public URL prefix. It is the default backend; a
// production deployment registers an additional Backend (object storage)
// and repoints Registry's default at it without touching callers.
type LocalBackend struct {
	baseDir   string
	publicURL string
}

func NewLocalBackend(baseDir, publicURL string) *LocalBackend {
	return &LocalBackend{baseDir: baseDir, publicURL: publicURL}
}

func (b *LocalBackend) Name() string { return "local" }

func (b *LocalBackend) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	dest := filepath.Join(b.baseDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("filestorage: mkdir: %w", err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("filestorage: create: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("filestorage: write: %w", err)
	}
	return b.publicURL + "/" + key, nil
}

func (b *LocalBackend) Delete(ctx context.Context, key string) error {
	dest := filepath.Join(b.baseDir, filepath.FromSlash(key))
	if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filestorage: delete: %w", err)
	}
	return nil
}

func (b *LocalBackend) HealthCheck(ctx context.Context) HealthStatus {
	start := time.Now()
	info, err := os.Stat(b.baseDir)
	if err != nil {
		return HealthStatus{Healthy: false, Error: err.Error(), Checked: start}
	}
	if !info.IsDir() {
		return HealthStatus{Healthy: false, Error: "base dir is not a directory", Checked: start}
	}
	return HealthStatus{Healthy: true, Latency: time.Since(start), Checked: start}
}
