// Package filestorage is the pluggable object-storage capability spec.md
// names as an external concern ("object storage... stay external
// capabilities reached through thin interfaces") rather than a core domain
// component. It gives Post.MediaLinks and Task deliverables somewhere to
// land a file without this module owning a storage engine.
package filestorage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Backend is one storage implementation (local disk, S3-compatible, etc).
// Upload returns the durable URL callers should persist on MediaLinks /
// Result.Link; it never returns a presigned upload URL, only the final one.
type Backend interface {
	Name() string
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (url string, err error)
	Delete(ctx context.Context, key string) error
	HealthCheck(ctx context.Context) HealthStatus
}

// HealthStatus mirrors the teacher's provider.HealthStatus shape, reused
// as-is since a storage backend's liveness has the same healthy/latency/
// error fields as an LLM provider's.
type HealthStatus struct {
	Healthy bool
	Latency time.Duration
	Error   string
	Checked time.Time
}

// Registry manages all registered storage backends. Adapted from
// provider.Registry; the model/provider detection heuristic has no analogue
// here. Get looks a backend up by name, but Upload and Delete always go to
// the registry's configured default backend.
type Registry struct {
	mu         sync.RWMutex
	backends   map[string]Backend
	defaultKey string
	health     map[string]HealthStatus
}

func NewRegistry(defaultBackend string) *Registry {
	return &Registry{
		backends:   make(map[string]Backend),
		defaultKey: defaultBackend,
		health:     make(map[string]HealthStatus),
	}
}

func (r *Registry) Register(b Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[b.Name()] = b
}

func (r *Registry) Get(name string) (Backend, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.backends[name]
	return b, ok
}

// Default returns the configured default backend.
func (r *Registry) Default() (Backend, error) {
	r.mu.RLock()
	name := r.defaultKey
	r.mu.RUnlock()
	b, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("filestorage: default backend %q not registered", name)
	}
	return b, nil
}

// List returns all registered backend names.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	return names
}

// HealthCheckAll runs health checks on all registered backends concurrently,
// same fan-out/wait shape as provider.Registry.HealthCheckAll.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]HealthStatus {
	r.mu.RLock()
	backends := make(map[string]Backend, len(r.backends))
	for k, v := range r.backends {
		backends[k] = v
	}
	r.mu.RUnlock()

	results := make(map[string]HealthStatus)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for name, b := range backends {
		wg.Add(1)
		go func(n string, backend Backend) {
			defer wg.Done()
			status := backend.HealthCheck(ctx)
			mu.Lock()
			results[n] = status
			mu.Unlock()
		}(name, b)
	}
	wg.Wait()

	r.mu.Lock()
	r.health = results
	r.mu.Unlock()

	return results
}

// Upload stores a file via the default backend and returns its durable URL.
func (r *Registry) Upload(ctx context.Context, key string, data io.Reader, size int64, contentType string) (string, error) {
	b, err := r.Default()
	if err != nil {
		return "", err
	}
	return b.Upload(ctx, sanitizeKey(key), data, size, contentType)
}

// Delete removes a file via the default backend.
func (r *Registry) Delete(ctx context.Context, key string) error {
	b, err := r.Default()
	if err != nil {
		return err
	}
	return b.Delete(ctx, sanitizeKey(key))
}

func sanitizeKey(key string) string {
	return strings.TrimPrefix(key, "/")
}
