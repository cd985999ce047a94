package insertabove

import (
	"context"
	"sync"
	"time"
)

// CacheConfig configures CachedStorage.
type CacheConfig struct {
	// TTL is how long a fetched template is served from memory.
	TTL time.Duration

	// MaxEntries bounds the cache. The least recently read entry is evicted first.
	MaxEntries int

	// NegativeCacheTTL is how long a missing name is remembered.
	// Zero disables negative caching.
	NegativeCacheTTL time.Duration
}

// DefaultCacheConfig returns the default cache settings.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:              DefaultCacheTTL,
		MaxEntries:       DefaultCacheMaxEntries,
		NegativeCacheTTL: DefaultNegativeCacheTTL,
	}
}

// CachedStorage wraps a TemplateStorage with an in-memory read cache.
// It is meant for remote backends where every {% extends %} would
// otherwise cost a round trip.
type CachedStorage struct {
	storage TemplateStorage
	config  CacheConfig

	mu     sync.Mutex
	cache  map[string]*cacheEntry
	closed bool

	// generation is bumped by every invalidation. A fetch that started
	// before an invalidation does not populate the cache.
	generation uint64
}

type cacheEntry struct {
	template   *StoredTemplate
	notFound   bool
	cachedAt   time.Time
	accessedAt time.Time
}

// CacheStats contains cache statistics.
type CacheStats struct {
	Entries         int
	ValidEntries    int
	NegativeEntries int
}

// NewCachedStorage wraps storage. Non-positive config values fall back to the defaults,
// except NegativeCacheTTL where zero turns negative caching off.
func NewCachedStorage(storage TemplateStorage, config CacheConfig) *CachedStorage {
	defaults := DefaultCacheConfig()
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = defaults.MaxEntries
	}
	if config.NegativeCacheTTL < 0 {
		config.NegativeCacheTTL = defaults.NegativeCacheTTL
	}

	return &CachedStorage{
		storage: storage,
		config:  config,
		cache:   make(map[string]*cacheEntry),
	}
}

// Unwrap returns the wrapped storage.
func (s *CachedStorage) Unwrap() TemplateStorage {
	return s.storage
}

// Get returns a template, serving it from the cache while it is fresh.
func (s *CachedStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, NewStorageClosedError()
	}
	if entry, ok := s.cache[name]; ok && s.isValid(entry) {
		entry.accessedAt = time.Now()
		s.mu.Unlock()
		if entry.notFound {
			return nil, NewTemplateNotFoundError(name)
		}
		return copyStoredTemplate(entry.template), nil
	}
	generation := s.generation
	s.mu.Unlock()

	tmpl, err := s.storage.Get(ctx, name)
	switch {
	case err == nil:
		s.store(name, generation, copyStoredTemplate(tmpl), false)
	case IsTemplateNotFound(err) && s.config.NegativeCacheTTL > 0:
		s.store(name, generation, nil, true)
	}
	return tmpl, err
}

// Save writes through to the wrapped storage and drops the cached entry.
func (s *CachedStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := s.checkClosed(); err != nil {
		return err
	}
	err := s.storage.Save(ctx, tmpl)
	s.Invalidate(tmpl.Name)
	return err
}

// Delete removes the template from the wrapped storage and the cache.
func (s *CachedStorage) Delete(ctx context.Context, name string) error {
	if err := s.checkClosed(); err != nil {
		return err
	}
	err := s.storage.Delete(ctx, name)
	s.Invalidate(name)
	return err
}

// List always reads from the wrapped storage.
func (s *CachedStorage) List(ctx context.Context) ([]string, error) {
	if err := s.checkClosed(); err != nil {
		return nil, err
	}
	return s.storage.List(ctx)
}

// Exists answers from the cache when it can.
func (s *CachedStorage) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false, NewStorageClosedError()
	}
	if entry, ok := s.cache[name]; ok && s.isValid(entry) {
		s.mu.Unlock()
		return !entry.notFound, nil
	}
	s.mu.Unlock()

	return s.storage.Exists(ctx, name)
}

// Close drops the cache and closes the wrapped storage.
func (s *CachedStorage) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return NewStorageClosedError()
	}
	s.closed = true
	s.cache = nil
	s.mu.Unlock()

	return s.storage.Close()
}

// Invalidate removes a name from the cache.
func (s *CachedStorage) Invalidate(name string) {
	s.mu.Lock()
	delete(s.cache, name)
	s.generation++
	s.mu.Unlock()
}

// InvalidateAll clears the cache.
func (s *CachedStorage) InvalidateAll() {
	s.mu.Lock()
	if !s.closed {
		s.cache = make(map[string]*cacheEntry)
	}
	s.generation++
	s.mu.Unlock()
}

// Stats returns cache statistics.
func (s *CachedStorage) Stats() CacheStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := CacheStats{Entries: len(s.cache)}
	for _, entry := range s.cache {
		if !s.isValid(entry) {
			continue
		}
		if entry.notFound {
			stats.NegativeEntries++
		} else {
			stats.ValidEntries++
		}
	}
	return stats
}

func (s *CachedStorage) checkClosed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return NewStorageClosedError()
	}
	return nil
}

// isValid reports whether entry is still fresh. Caller must hold mu.
func (s *CachedStorage) isValid(entry *cacheEntry) bool {
	ttl := s.config.TTL
	if entry.notFound {
		ttl = s.config.NegativeCacheTTL
	}
	return time.Since(entry.cachedAt) < ttl
}

// store caches the result of a fetch that started at generation.
func (s *CachedStorage) store(name string, generation uint64, tmpl *StoredTemplate, notFound bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.generation != generation {
		return
	}
	if _, exists := s.cache[name]; !exists && len(s.cache) >= s.config.MaxEntries {
		s.evictOldest()
	}

	now := time.Now()
	s.cache[name] = &cacheEntry{
		template:   tmpl,
		notFound:   notFound,
		cachedAt:   now,
		accessedAt: now,
	}
}

// evictOldest removes the least recently read entry. Caller must hold mu.
func (s *CachedStorage) evictOldest() {
	var (
		oldestName string
		oldest     *cacheEntry
	)
	for name, entry := range s.cache {
		if oldest == nil || entry.accessedAt.Before(oldest.accessedAt) {
			oldestName, oldest = name, entry
		}
	}
	if oldest != nil {
		delete(s.cache, oldestName)
	}
}

var _ TemplateStorage = (*CachedStorage)(nil)
