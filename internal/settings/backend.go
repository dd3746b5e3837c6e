package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// MemoryBackend keeps the record in process. Used by tests and demo mode.
type MemoryBackend struct {
	mu       sync.Mutex
	value    any
	saveErr  error
	loadErr  error
	saves    int
	lastOpts SaveOptions
}

// NewMemoryBackend starts with initial as the stored value (may be nil or malformed).
func NewMemoryBackend(initial any) *MemoryBackend {
	return &MemoryBackend{value: initial}
}

func (b *MemoryBackend) Load(ctx context.Context) (any, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loadErr != nil {
		return nil, b.loadErr
	}
	if m, ok := b.value.(map[string]any); ok {
		return maps.Clone(m), nil
	}
	return b.value, nil
}

func (b *MemoryBackend) Save(ctx context.Context, record map[string]any, opts SaveOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.saveErr != nil {
		return b.saveErr
	}
	b.value = maps.Clone(record)
	b.saves++
	b.lastOpts = opts
	return nil
}

// SetSaveError makes subsequent saves fail (nil clears it).
func (b *MemoryBackend) SetSaveError(err error) {
	b.mu.Lock()
	b.saveErr = err
	b.mu.Unlock()
}

// SetLoadError makes subsequent loads fail (nil clears it).
func (b *MemoryBackend) SetLoadError(err error) {
	b.mu.Lock()
	b.loadErr = err
	b.mu.Unlock()
}

// Saves returns the number of successful saves and the options of the last one.
func (b *MemoryBackend) Saves() (int, SaveOptions) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.saves, b.lastOpts
}

// FileBackend stores the record as its own YAML file, separate from the
// service configuration. Writes go to a temp file and are renamed into place.
type FileBackend struct {
	path string
}

// NewFileBackend stores the record as YAML at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the file location.
func (b *FileBackend) Path() string { return b.path }

func (b *FileBackend) Load(ctx context.Context) (any, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings file: %w", err)
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("parse settings file %s: %w", b.path, err)
	}
	return v, nil
}

func (b *FileBackend) Save(ctx context.Context, record map[string]any, opts SaveOptions) error {
	data, err := yaml.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(b.path), filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp settings file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, b.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}
	return nil
}

// RedisBackend stores the record as a JSON value under a dedicated key.
type RedisBackend struct {
	rdb *redis.Client
	key string
}

// NewRedisBackend stores the record under key.
func NewRedisBackend(rdb *redis.Client, key string) *RedisBackend {
	return &RedisBackend{rdb: rdb, key: key}
}

func (b *RedisBackend) Load(ctx context.Context) (any, error) {
	data, err := b.rdb.Get(ctx, b.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", b.key, err)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode settings record: %w", err)
	}
	return v, nil
}

func (b *RedisBackend) Save(ctx context.Context, record map[string]any, opts SaveOptions) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode settings record: %w", err)
	}
	if err := b.rdb.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", b.key, err)
	}
	return nil
}
