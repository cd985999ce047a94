package insertabove

import (
	"context"
	"io"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/flosch/pongo2/v6"
)

// StoredTemplate is a page template held by a storage backend.
type StoredTemplate struct {
	// Name is the lookup key used by {% extends %} and {% include %}.
	Name string `json:"name" yaml:"name"`

	// Source is the raw template text.
	Source string `json:"source" yaml:"source"`

	// Version starts at 1 and is bumped on every save.
	Version int `json:"version" yaml:"version"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// TemplateStorage is the interface for pluggable template backends.
// Implementations must be safe for concurrent use.
type TemplateStorage interface {
	// Get returns the template stored under name.
	Get(ctx context.Context, name string) (*StoredTemplate, error)

	// Save stores tmpl, replacing any previous source under the same name.
	// Version, CreatedAt and UpdatedAt are set by the backend.
	Save(ctx context.Context, tmpl *StoredTemplate) error

	// Delete removes the template stored under name.
	Delete(ctx context.Context, name string) error

	// List returns all stored names in sorted order.
	List(ctx context.Context) ([]string, error)

	// Exists reports whether a template is stored under name.
	Exists(ctx context.Context, name string) (bool, error)

	// Close releases the backend. Later calls fail.
	Close() error
}

// StorageDriver opens a storage backend from a driver-specific connection string.
type StorageDriver interface {
	Open(connectionString string) (TemplateStorage, error)
}

// StorageDriverFunc adapts a function to StorageDriver.
type StorageDriverFunc func(connectionString string) (TemplateStorage, error)

// Open calls f.
func (f StorageDriverFunc) Open(connectionString string) (TemplateStorage, error) {
	return f(connectionString)
}

var (
	storageDriversMu sync.RWMutex
	storageDrivers   = make(map[string]StorageDriver)
)

// RegisterStorageDriver makes a driver available to OpenStorage.
// It panics if driver is nil or name is taken.
func RegisterStorageDriver(name string, driver StorageDriver) {
	storageDriversMu.Lock()
	defer storageDriversMu.Unlock()

	if driver == nil {
		panic("insertabove: storage driver is nil: " + name)
	}
	if _, exists := storageDrivers[name]; exists {
		panic("insertabove: storage driver already registered: " + name)
	}
	storageDrivers[name] = driver
}

// OpenStorage opens a backend with the named driver.
//
//	storage, err := insertabove.OpenStorage("memory", "")
//	storage, err := insertabove.OpenStorage("filesystem", "./templates")
//	storage, err := insertabove.OpenStorage("redis", "redis://localhost:6379/0")
func OpenStorage(driverName, connectionString string) (TemplateStorage, error) {
	storageDriversMu.RLock()
	driver, ok := storageDrivers[driverName]
	storageDriversMu.RUnlock()

	if !ok {
		return nil, NewStorageDriverNotFoundError(driverName)
	}
	return driver.Open(connectionString)
}

// ListStorageDrivers returns the registered driver names in sorted order.
func ListStorageDrivers() []string {
	storageDriversMu.RLock()
	defer storageDriversMu.RUnlock()

	names := make([]string, 0, len(storageDrivers))
	for name := range storageDrivers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// validateTemplateName rejects names that cannot be stored by every backend.
func validateTemplateName(name string) error {
	if name == "" {
		return NewEmptyTemplateNameError()
	}
	clean := path.Clean("/" + name)[1:]
	if clean != name || strings.Contains(name, "\\") {
		return NewInvalidTemplateNameError(name)
	}
	return nil
}

// StorageLoader serves templates from a TemplateStorage to pongo2.
// Names are resolved relative to nothing: "{% extends 'base.html' %}" loads
// the template stored as "base.html" regardless of the including template.
type StorageLoader struct {
	storage TemplateStorage
	timeout time.Duration
}

// NewStorageLoader creates a loader reading from storage. Each lookup is
// bounded by timeout; zero means no limit.
func NewStorageLoader(storage TemplateStorage, timeout time.Duration) *StorageLoader {
	return &StorageLoader{storage: storage, timeout: timeout}
}

// Abs implements pongo2.TemplateLoader.
func (l *StorageLoader) Abs(_, name string) string {
	return name
}

// Get implements pongo2.TemplateLoader.
func (l *StorageLoader) Get(name string) (io.Reader, error) {
	ctx := context.Background()
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	tmpl, err := l.storage.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return strings.NewReader(tmpl.Source), nil
}

var _ pongo2.TemplateLoader = (*StorageLoader)(nil)
