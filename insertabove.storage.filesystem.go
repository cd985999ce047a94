package insertabove

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// FilesystemStorage stores each template as a plain file below a root
// directory. The template name is the slash-separated path relative to root,
// so an existing template directory can be served as is.
//
//	<root>/
//	  base.html
//	  pages/
//	    home.html
//
// Files carry no version history: Version is always 1 and the timestamps
// come from the file's modification time.
type FilesystemStorage struct {
	mu     sync.RWMutex
	root   string
	closed bool
}

func init() {
	RegisterStorageDriver(StorageDriverNameFilesystem, StorageDriverFunc(func(conn string) (TemplateStorage, error) {
		return NewFilesystemStorage(conn)
	}))
}

// NewFilesystemStorage opens root, creating it when missing.
func NewFilesystemStorage(root string) (*FilesystemStorage, error) {
	if root == "" {
		return nil, NewEmptyConnStringError(StorageDriverNameFilesystem)
	}
	if err := os.MkdirAll(root, FilesystemDirPermissions); err != nil {
		return nil, NewStorageError(root, err)
	}
	return &FilesystemStorage{root: root}, nil
}

// Root returns the storage directory.
func (s *FilesystemStorage) Root() string {
	return s.root
}

func (s *FilesystemStorage) path(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Get reads the file stored under name.
func (s *FilesystemStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateTemplateName(name); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	p := s.path(name)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		if err == nil || errors.Is(err, fs.ErrNotExist) {
			return nil, NewTemplateNotFoundError(name)
		}
		return nil, NewStorageError(name, err)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, NewStorageError(name, err)
	}

	return &StoredTemplate{
		Name:      name,
		Source:    string(data),
		Version:   1,
		CreatedAt: info.ModTime(),
		UpdatedAt: info.ModTime(),
	}, nil
}

// Save writes tmpl.Source to its file. The file is replaced atomically.
func (s *FilesystemStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
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

	p := s.path(tmpl.Name)
	if err := os.MkdirAll(filepath.Dir(p), FilesystemDirPermissions); err != nil {
		return NewStorageError(tmpl.Name, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return NewStorageError(tmpl.Name, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(tmpl.Source); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return NewStorageError(tmpl.Name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return NewStorageError(tmpl.Name, err)
	}
	if err := os.Chmod(tmpName, FilesystemFilePermissions); err != nil {
		_ = os.Remove(tmpName)
		return NewStorageError(tmpl.Name, err)
	}
	if err := os.Rename(tmpName, p); err != nil {
		_ = os.Remove(tmpName)
		return NewStorageError(tmpl.Name, err)
	}

	info, err := os.Stat(p)
	if err != nil {
		return NewStorageError(tmpl.Name, err)
	}
	tmpl.Version = 1
	tmpl.CreatedAt = info.ModTime()
	tmpl.UpdatedAt = info.ModTime()
	return nil
}

// Delete removes the file stored under name.
func (s *FilesystemStorage) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateTemplateName(name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}

	if err := os.Remove(s.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NewTemplateNotFoundError(name)
		}
		return NewStorageError(name, err)
	}
	return nil
}

// List walks root and returns every regular file that is not hidden.
func (s *FilesystemStorage) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, NewStorageClosedError()
	}

	var names []string
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != s.root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, NewStorageError(s.root, err)
	}

	slices.Sort(names)
	return names, nil
}

// Exists reports whether a file is stored under name.
func (s *FilesystemStorage) Exists(ctx context.Context, name string) (bool, error) {
	if _, err := s.Get(ctx, name); err != nil {
		if IsTemplateNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Close marks the storage closed. Files are left in place.
func (s *FilesystemStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
