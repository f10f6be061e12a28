package haml

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachedStorage wraps any TemplateStorage with an in-memory read-through
// cache of Get results, bounded by TTL and entry count. Concurrent misses
// for the same name share a single backend read.
type CachedStorage struct {
	storage TemplateStorage
	config  CacheConfig
	loads   singleflight.Group

	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List // front is most recently used
	hits    int64
	misses  int64
	closed  bool
}

// CacheConfig configures the caching behavior.
type CacheConfig struct {
	// TTL is how long cached entries remain valid.
	// Default: 5 minutes.
	TTL time.Duration

	// MaxEntries bounds the cache; the least recently used entry is
	// evicted first. Default: 1000.
	MaxEntries int

	// NegativeCacheTTL is how long a "not found" answer is remembered.
	// Zero disables negative caching.
	NegativeCacheTTL time.Duration
}

// DefaultCacheConfig returns the default caching configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:              DefaultCacheTTL,
		MaxEntries:       DefaultCacheMaxEntries,
		NegativeCacheTTL: DefaultNegativeCacheTTL,
	}
}

type cacheEntry struct {
	name     string
	template *StoredTemplate // nil for a negative entry
	expires  time.Time
}

// CacheStats is a snapshot of cache occupancy and hit counters.
type CacheStats struct {
	Entries         int
	ValidEntries    int
	NegativeEntries int
	Hits            int64
	Misses          int64
}

// NewCachedStorage wraps storage with a cache. Zero TTL and MaxEntries
// fall back to their defaults; a zero NegativeCacheTTL stays disabled.
func NewCachedStorage(storage TemplateStorage, config CacheConfig) *CachedStorage {
	if config.TTL == 0 {
		config.TTL = DefaultCacheTTL
	}
	if config.MaxEntries == 0 {
		config.MaxEntries = DefaultCacheMaxEntries
	}

	return &CachedStorage{
		storage: storage,
		config:  config,
		entries: make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Get returns the latest version of name, served from cache when a live
// entry exists.
func (s *CachedStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entry, err := s.lookup(name)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		if entry.template == nil {
			return nil, NewTemplateNotFoundError(name)
		}
		return copyStoredTemplate(entry.template), nil
	}

	v, err, _ := s.loads.Do(name, func() (any, error) {
		tmpl, err := s.storage.Get(ctx, name)
		switch {
		case err == nil:
			s.store(name, tmpl, s.config.TTL)
		case IsNotFound(err) && s.config.NegativeCacheTTL > 0:
			s.store(name, nil, s.config.NegativeCacheTTL)
		}
		return tmpl, err
	})
	if err != nil {
		return nil, err
	}
	return copyStoredTemplate(v.(*StoredTemplate)), nil
}

// lookup returns the live entry for name and counts the hit or miss.
// A nil entry with nil error is a miss.
func (s *CachedStorage) lookup(name string) (*cacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	if elem, ok := s.entries[name]; ok {
		entry := elem.Value.(*cacheEntry)
		if time.Now().Before(entry.expires) {
			s.lru.MoveToFront(elem)
			s.hits++
			return entry, nil
		}
		s.removeElement(elem)
	}
	s.misses++
	return nil, nil
}

// store records a backend answer, evicting from the back of the LRU list
// when the cache is full.
func (s *CachedStorage) store(name string, tmpl *StoredTemplate, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	entry := &cacheEntry{name: name, template: tmpl, expires: time.Now().Add(ttl)}
	if elem, ok := s.entries[name]; ok {
		elem.Value = entry
		s.lru.MoveToFront(elem)
		return
	}
	for s.lru.Len() >= s.config.MaxEntries {
		s.removeElement(s.lru.Back())
	}
	s.entries[name] = s.lru.PushFront(entry)
}

// removeElement unlinks elem. Caller must hold the lock.
func (s *CachedStorage) removeElement(elem *list.Element) {
	s.lru.Remove(elem)
	delete(s.entries, elem.Value.(*cacheEntry).name)
}

// GetVersion reads a specific version straight from the backend.
func (s *CachedStorage) GetVersion(ctx context.Context, name string, version int) (*StoredTemplate, error) {
	return s.storage.GetVersion(ctx, name, version)
}

// Save writes through to the backend and drops the cached entry.
func (s *CachedStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := s.storage.Save(ctx, tmpl); err != nil {
		return err
	}
	s.Invalidate(tmpl.Name)
	return nil
}

// Delete removes name from the backend and the cache.
func (s *CachedStorage) Delete(ctx context.Context, name string) error {
	if err := s.storage.Delete(ctx, name); err != nil {
		return err
	}
	s.Invalidate(name)
	return nil
}

// Exists answers from a live cache entry when there is one.
func (s *CachedStorage) Exists(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, NewStorageClosedError()
	}
	if elem, ok := s.entries[name]; ok {
		entry := elem.Value.(*cacheEntry)
		if time.Now().Before(entry.expires) {
			s.mu.Unlock()
			return entry.template != nil, nil
		}
	}
	s.mu.Unlock()

	return s.storage.Exists(ctx, name)
}

// List bypasses the cache.
func (s *CachedStorage) List(ctx context.Context) ([]string, error) {
	return s.storage.List(ctx)
}

// ListVersions bypasses the cache.
func (s *CachedStorage) ListVersions(ctx context.Context, name string) ([]int, error) {
	return s.storage.ListVersions(ctx, name)
}

// Close drops the cache and closes the backend.
func (s *CachedStorage) Close() error {
	s.mu.Lock()
	s.closed = true
	s.entries = make(map[string]*list.Element)
	s.lru.Init()
	s.mu.Unlock()
	return s.storage.Close()
}

// Invalidate removes name from the cache.
func (s *CachedStorage) Invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if elem, ok := s.entries[name]; ok {
		s.removeElement(elem)
	}
}

// InvalidateAll clears the cache.
func (s *CachedStorage) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*list.Element)
	s.lru.Init()
}

// Stats returns a snapshot of the cache.
func (s *CachedStorage) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	stats := CacheStats{Entries: s.lru.Len(), Hits: s.hits, Misses: s.misses}
	for elem := s.lru.Front(); elem != nil; elem = elem.Next() {
		entry := elem.Value.(*cacheEntry)
		if !now.Before(entry.expires) {
			continue
		}
		if entry.template == nil {
			stats.NegativeEntries++
		} else {
			stats.ValidEntries++
		}
	}
	return stats
}
