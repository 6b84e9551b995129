// path: storage/memory.go
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/Developrimbor/GreenWorld-sub000/ports"
)

// MemoryStore keeps blobs in memory. FailPaths makes Put fail for the listed
// paths' prefixes and FailURL makes URL fail, which tests use to simulate
// storage outages.
type MemoryStore struct {
	mu        sync.Mutex
	objects   map[string][]byte
	BaseURL   string
	FailPaths []string
	FailURL   bool
	puts      int
}

func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "mem://blobs"
	}
	return &MemoryStore{objects: map[string][]byte{}, BaseURL: baseURL}
}

func (s *MemoryStore) Put(ctx context.Context, path string, data []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	for _, p := range s.FailPaths {
		if len(path) >= len(p) && path[:len(p)] == p {
			return fmt.Errorf("put %s: %w", path, ports.ErrUnavailable)
		}
	}
	s.objects[path] = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) URL(_ context.Context, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailURL {
		return "", fmt.Errorf("url %s: %w", path, ports.ErrUnavailable)
	}
	return joinURL(s.BaseURL, path), nil
}

func (s *MemoryStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[path]; !ok {
		return fmt.Errorf("blob %s: %w", path, ports.ErrNotFound)
	}
	delete(s.objects, path)
	return nil
}

// Paths lists stored object paths.
func (s *MemoryStore) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for p := range s.objects {
		out = append(out, p)
	}
	return out
}

// Object returns a copy of the bytes stored at path.
func (s *MemoryStore) Object(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[path]
	return append([]byte(nil), data...), ok
}

// PutCalls counts Put attempts, including failed ones.
func (s *MemoryStore) PutCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

var (
	_ ports.BlobStore = (*MemoryStore)(nil)
	_ ports.BlobStore = (*LocalStore)(nil)
	_ ports.BlobStore = (*MinioStore)(nil)
)
