package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/clinagen/clinagen/clinagen"
	"github.com/clinagen/clinagen/llm"
)

// Store is a content-addressed response store. Implementations must
// tolerate concurrent readers and writers; a later write for the same key
// is harmless because identical content is expected by assumption.
type Store interface {
	// Get returns the stored response for key, with ok=false on a miss.
	Get(ctx context.Context, key string) (response string, ok bool, err error)

	// Put stores the response under key.
	Put(ctx context.Context, key, response string) error
}

// CacheMetrics tracks cache decorator hit rates.
type CacheMetrics struct {
	mu     sync.Mutex
	Hits   int64
	Misses int64
}

// RecordHit records a cache hit.
func (m *CacheMetrics) RecordHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Hits++
}

// RecordMiss records a cache miss.
func (m *CacheMetrics) RecordMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Misses++
}

// HitRate returns the fraction of requests served from the store.
func (m *CacheMetrics) HitRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := m.Hits + m.Misses
	if total == 0 {
		return 0
	}
	return float64(m.Hits) / float64(total)
}

// Cache wraps a backend client with a deterministic response cache keyed
// by (messages, model, max_tokens). Identical requests return
// byte-identical responses once stored.
type Cache struct {
	client  llm.Client
	store   Store
	metrics *CacheMetrics
}

var _ llm.Client = (*Cache)(nil)

// NewCache creates a caching decorator around client backed by store.
func NewCache(client llm.Client, store Store) *Cache {
	return &Cache{client: client, store: store, metrics: &CacheMetrics{}}
}

// Model returns the model identifier of the wrapped client.
func (c *Cache) Model() string {
	return c.client.Model()
}

// Metrics returns the cache hit/miss counters.
func (c *Cache) Metrics() *CacheMetrics {
	return c.metrics
}

// Complete serves the completion from the store when possible, otherwise
// delegates and stores the result. Store read errors fall through to the
// backend; store write errors are surfaced.
func (c *Cache) Complete(ctx context.Context, messages []clinagen.Message, opts ...llm.CallOption) (string, error) {
	key := CacheKey(messages, c.client.Model(), llm.BuildCallOptions(opts...).MaxTokens)

	if response, ok, err := c.store.Get(ctx, key); err == nil && ok {
		c.metrics.RecordHit()
		return response, nil
	}
	c.metrics.RecordMiss()

	response, err := c.client.Complete(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	if err := c.store.Put(ctx, key, response); err != nil {
		return "", fmt.Errorf("cache store: %w", err)
	}
	return response, nil
}

// CacheKey derives the content-addressed key for a completion request.
func CacheKey(messages []clinagen.Message, model string, maxTokens *int) string {
	keyData := struct {
		Messages  []clinagen.Message `json:"messages"`
		Model     string             `json:"model"`
		MaxTokens *int               `json:"max_tokens"`
	}{messages, model, maxTokens}

	data, err := json.Marshal(keyData)
	if err != nil {
		data = []byte(model)
	}
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// DiskStore is an on-disk response store: one file per key, written to a
// temp path and renamed so concurrent writers never expose partial
// content.
type DiskStore struct {
	dir string
}

var _ Store = (*DiskStore)(nil)

// NewDiskStore creates the cache directory if needed and returns a store
// over it.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (d *DiskStore) path(key string) string {
	return filepath.Join(d.dir, key+".txt")
}

// Get reads the stored response for key.
func (d *DiskStore) Get(ctx context.Context, key string) (string, bool, error) {
	data, err := os.ReadFile(d.path(key))
	if os.IsNotExist(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read cache entry: %w", err)
	}
	return string(data), true, nil
}

// Put writes the response under key atomically.
func (d *DiskStore) Put(ctx context.Context, key, response string) error {
	tmp, err := os.CreateTemp(d.dir, key+".tmp-*")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	if _, err := tmp.WriteString(response); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), d.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename cache entry: %w", err)
	}
	return nil
}
