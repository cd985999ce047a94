package insertabove

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"time"

	backend "github.com/redis/go-redis/v9"
)

const (
	redisFieldSource    = "source"
	redisFieldVersion   = "version"
	redisFieldCreatedAt = "created_at"
	redisFieldUpdatedAt = "updated_at"
)

// RedisStorage keeps each template in a Redis hash and tracks names in a set.
//
//	<prefix><name>  hash: source, version, created_at, updated_at
//	<prefix>index   set of names
type RedisStorage struct {
	client *backend.Client
	prefix string
	owned  bool

	mu     sync.RWMutex
	closed bool
}

// RedisOption configures a RedisStorage.
type RedisOption func(*RedisStorage)

// WithRedisPrefix sets the key prefix. Default: RedisDefaultKeyPrefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStorage) {
		s.prefix = prefix
	}
}

func init() {
	RegisterStorageDriver(StorageDriverNameRedis, StorageDriverFunc(func(conn string) (TemplateStorage, error) {
		if conn == "" {
			return nil, NewEmptyConnStringError(StorageDriverNameRedis)
		}
		opts, err := backend.ParseURL(conn)
		if err != nil {
			return nil, NewStorageError(StorageDriverNameRedis, err)
		}
		s := NewRedisStorage(backend.NewClient(opts))
		s.owned = true
		return s, nil
	}))
}

// NewRedisStorage wraps an existing client. Close does not close a client
// passed in here.
func NewRedisStorage(client *backend.Client, opts ...RedisOption) *RedisStorage {
	s := &RedisStorage{
		client: client,
		prefix: RedisDefaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStorage) key(name string) string {
	return s.prefix + name
}

func (s *RedisStorage) indexKey() string {
	return s.prefix + RedisIndexKeySuffix
}

// Get reads the hash stored under name.
func (s *RedisStorage) Get(ctx context.Context, name string) (*StoredTemplate, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	fields, err := s.client.HGetAll(ctx, s.key(name)).Result()
	if err != nil {
		return nil, NewStorageError(name, err)
	}
	if len(fields) == 0 {
		return nil, NewTemplateNotFoundError(name)
	}

	tmpl := &StoredTemplate{Name: name, Source: fields[redisFieldSource]}
	if tmpl.Version, err = strconv.Atoi(fields[redisFieldVersion]); err != nil {
		return nil, NewStorageError(name, err)
	}
	if tmpl.CreatedAt, err = time.Parse(time.RFC3339Nano, fields[redisFieldCreatedAt]); err != nil {
		return nil, NewStorageError(name, err)
	}
	if tmpl.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields[redisFieldUpdatedAt]); err != nil {
		return nil, NewStorageError(name, err)
	}
	return tmpl, nil
}

// Save writes tmpl in one transaction and bumps its version.
func (s *RedisStorage) Save(ctx context.Context, tmpl *StoredTemplate) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := validateTemplateName(tmpl.Name); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	key := s.key(tmpl.Name)

	var (
		version *backend.IntCmd
		created *backend.StringCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.HSetNX(ctx, key, redisFieldCreatedAt, now)
		pipe.HSet(ctx, key, redisFieldSource, tmpl.Source, redisFieldUpdatedAt, now)
		version = pipe.HIncrBy(ctx, key, redisFieldVersion, 1)
		created = pipe.HGet(ctx, key, redisFieldCreatedAt)
		pipe.SAdd(ctx, s.indexKey(), tmpl.Name)
		return nil
	})
	if err != nil {
		return NewStorageError(tmpl.Name, err)
	}

	tmpl.Version = int(version.Val())
	tmpl.UpdatedAt, _ = time.Parse(time.RFC3339Nano, now)
	tmpl.CreatedAt, _ = time.Parse(time.RFC3339Nano, created.Val())
	return nil
}

// Delete removes the hash and its index entry.
func (s *RedisStorage) Delete(ctx context.Context, name string) error {
	if err := s.check(ctx); err != nil {
		return err
	}

	var deleted *backend.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		deleted = pipe.Del(ctx, s.key(name))
		pipe.SRem(ctx, s.indexKey(), name)
		return nil
	})
	if err != nil {
		return NewStorageError(name, err)
	}
	if deleted.Val() == 0 {
		return NewTemplateNotFoundError(name)
	}
	return nil
}

// List returns the indexed names in sorted order.
func (s *RedisStorage) List(ctx context.Context) ([]string, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}

	names, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil && !errors.Is(err, backend.Nil) {
		return nil, NewStorageError(s.indexKey(), err)
	}
	slices.Sort(names)
	return names, nil
}

// Exists reports whether a hash is stored under name.
func (s *RedisStorage) Exists(ctx context.Context, name string) (bool, error) {
	if err := s.check(ctx); err != nil {
		return false, err
	}

	n, err := s.client.Exists(ctx, s.key(name)).Result()
	if err != nil {
		return false, NewStorageError(name, err)
	}
	return n > 0, nil
}

// Close marks the storage closed and closes the client when it was opened
// through the driver registry.
func (s *RedisStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return NewStorageClosedError()
	}
	s.closed = true
	if s.owned {
		return s.client.Close()
	}
	return nil
}

func (s *RedisStorage) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return NewStorageClosedError()
	}
	return nil
}
