package filestorage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLocalBackendUploadDelete(t *testing.T) {
	dir := t.TempDir()
	b := NewLocalBackend(dir, "https://files.example.com")

	url, err := b.Upload(context.Background(), "posts/abc/photo.png", bytes.NewReader([]byte("data")), 4, "image/png")
	require.NoError(t, err)
	require.Equal(t, "https://files.example.com/posts/abc/photo.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "posts/abc/photo.png"))
	require.NoError(t, err)
	require.Equal(t, "data", string(data))

	require.NoError(t, b.Delete(context.Background(), "posts/abc/photo.png"))
	_, err = os.Stat(filepath.Join(dir, "posts/abc/photo.png"))
	require.True(t, os.IsNotExist(err))
}

func TestLocalBackendDeleteMissingIsNotAnError(t *testing.T) {
	b := NewLocalBackend(t.TempDir(), "https://files.example.com")
	require.NoError(t, b.Delete(context.Background(), "nothing/here.png"))
}

func TestRegistryRoutesToDefault(t *testing.T) {
	reg := NewRegistry("local")
	reg.Register(NewLocalBackend(t.TempDir(), "https://files.example.com"))

	_, err := reg.Upload(context.Background(), "/leading/slash.txt", bytes.NewReader([]byte("x")), 1, "text/plain")
	require.NoError(t, err)

	_, err = reg.Default()
	require.NoError(t, err)
}

func TestRegistryUnknownDefaultErrors(t *testing.T) {
	reg := NewRegistry("s3")
	_, err := reg.Default()
	require.Error(t, err)
}

type fakeBackend struct {
	name    string
	healthy bool
}

func (f *fakeBackend) Name() string { return f.name }
func (f *fakeBackend) Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	return "fake://" + key, nil
}
func (f *fakeBackend) Delete(ctx context.Context, key string) error { return nil }
func (f *fakeBackend) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{Healthy: f.healthy, Checked: time.Now()}
}

func TestHealthCheckAllAggregatesEveryBackend(t *testing.T) {
	reg := NewRegistry("a")
	reg.Register(&fakeBackend{name: "a", healthy: true})
	reg.Register(&fakeBackend{name: "b", healthy: false})

	results := reg.HealthCheckAll(context.Background())
	require.Len(t, results, 2)
	require.True(t, results["a"].Healthy)
	require.False(t, results["b"].Healthy)
}

func TestHealthPollerTracksTransitions(t *testing.T) {
	reg := NewRegistry("a")
	fb := &fakeBackend{name: "a", healthy: true}
	reg.Register(fb)

	poller := NewHealthPoller(reg, zerolog.New(io.Discard), 5*time.Second)
	transitions := make(chan bool, 1)
	poller.OnStatusChange(func(backend string, healthy bool, status HealthStatus) {
		transitions <- healthy
	})

	poller.poll(context.Background())
	require.True(t, poller.IsHealthy("a"))

	fb.healthy = false
	poller.poll(context.Background())
	require.False(t, poller.IsHealthy("a"))

	select {
	case healthy := <-transitions:
		require.False(t, healthy)
	case <-time.After(time.Second):
		t.Fatal("expected a status-change callback")
	}
}
