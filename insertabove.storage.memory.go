package insertabove

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// MemoryStorage keeps templates in process memory.
// It is intended for tests, previews and embedded template sets.
type MemoryStorage struct {
	mu        sync.RWMutex
	templates map[string]*StoredTemplate
	closed    bool
}

func init() {
	RegisterStorageDriver(StorageDriverNameMemory, StorageDriverFunc(func(string) (TemplateStorage, error) {
		return NewMemoryStorage(), nil
	}))
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		templates: make(map[string]*StoredTemplate),
	}
}

// Get returns a copy of the template stored under name.
func (s *MemoryStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	tmpl, ok := s.templates[name]
	if !ok {
		return nil, NewTemplateNotFoundError(name)
	}
	return copyStoredTemplate(tmpl), nil
}

// Save stores a copy of tmpl and fills in its version and timestamps.
func (s *MemoryStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateTemplateName(tmpl.Name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	now := time.Now()
	tmpl.Version = 1
	tmpl.CreatedAt = now
	if prev, ok := s.templates[tmpl.Name]; ok {
		tmpl.Version = prev.Version + 1
		tmpl.CreatedAt = prev.CreatedAt
	}
	tmpl.UpdatedAt = now

	s.templates[tmpl.Name] = copyStoredTemplate(tmpl)
	return nil
}

// Delete removes the template stored under name.
func (s *MemoryStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}
	if _, ok := s.templates[name]; !ok {
		return NewTemplateNotFoundError(name)
	}
	delete(s.templates, name)
	return nil
}

// List returns the stored names in sorted order.
func (s *MemoryStorage) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}
	return slices.Sorted(maps.Keys(s.templates)), nil
}

// Exists reports whether name is stored.
func (s *MemoryStorage) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false, NewStorageClosedError()
	}
	_, ok := s.templates[name]
	return ok, nil
}

// Close drops all templates.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.templates = nil
	return nil
}

func copyStoredTemplate(tmpl *StoredTemplate) *StoredTemplate {
	cp := *tmpl
	return &cp
}
