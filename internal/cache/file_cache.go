package cache

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type entry[T any] struct {
	Data      T         `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	Checksum  string    `json:"checksum"`
}

// FileCache keeps computed results as one JSON file per key. Entries that are
// corrupt, tampered with or older than maxAge read as misses.
type FileCache[T any] struct {
	dir    string
	maxAge time.Duration
	now    func() time.Time
}

// NewFileCache creates a cache under dir. A zero maxAge never expires.
func NewFileCache[T any](dir string, maxAge time.Duration) *FileCache[T] {
	return &FileCache[T]{dir: dir, maxAge: maxAge, now: time.Now}
}

// Key derives a file-safe key from the JSON form of parts.
func (fc *FileCache[T]) Key(parts ...any) (string, error) {
	raw, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("failed to build cache key: %w", err)
	}
	sum := sha1.Sum(raw)
	return hex.EncodeToString(sum[:]), nil
}

func (fc *FileCache[T]) Get(key string) (T, bool) {
	var zero T
	data, err := os.ReadFile(fc.path(key))
	if err != nil {
		return zero, false
	}

	var e entry[T]
	if err := json.Unmarshal(data, &e); err != nil {
		return zero, false
	}
	if e.Checksum != checksum(e.Data) {
		return zero, false
	}
	if fc.maxAge > 0 && fc.now().Sub(e.CreatedAt) > fc.maxAge {
		return zero, false
	}
	return e.Data, true
}

// Set writes through a temporary file so readers never see partial entries.
func (fc *FileCache[T]) Set(key string, data T) error {
	if err := os.MkdirAll(fc.dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %v", err)
	}

	raw, err := json.Marshal(entry[T]{
		Data:      data,
		CreatedAt: fc.now(),
		Checksum:  checksum(data),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %v", err)
	}

	target := fc.path(key)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return fmt.Errorf("failed to write temp cache file: %v", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temp cache file: %v", err)
	}
	return nil
}

func (fc *FileCache[T]) path(key string) string {
	return filepath.Join(fc.dir, key+".json")
}

func checksum(data any) string {
	raw, _ := json.Marshal(data)
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}
