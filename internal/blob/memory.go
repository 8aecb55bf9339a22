package blob

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gravadigital/eventmaster-api/internal/domain/common"
)

// MemoryStore keeps objects in a map. Used when no object storage is
// configured and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
}

// NewMemoryStore returns an empty store serving URLs under baseURL.
func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://blobs"
	}
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string][]byte),
	}
}

func (s *MemoryStore) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	url := s.baseURL + "/" + ObjectKey(contentType, time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[url] = append([]byte(nil), data...)
	return url, nil
}

func (s *MemoryStore) Delete(ctx context.Context, url string) error {
	if !s.Owns(url) {
		return ErrForeignURL
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[url]; !ok {
		return common.NotFound("object")
	}
	delete(s.objects, url)
	return nil
}

func (s *MemoryStore) Owns(url string) bool {
	return strings.HasPrefix(url, s.baseURL+"/")
}

// Get returns the stored bytes for url.
func (s *MemoryStore) Get(url string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[url]
	return data, ok
}

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
