package invoice

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// ErrSlotEmpty is returned by Storage.Get when nothing is stored under a key
var ErrSlotEmpty = errors.New("slot is empty")

// Storage defines a key-value storage area holding named slots
type Storage interface {
	// Get returns the value stored under key, or ErrSlotEmpty
	Get(key string) ([]byte, error)

	// Put overwrites the value stored under key
	Put(key string, data []byte) error

	// Delete clears key. Clearing an empty slot is not an error.
	Delete(key string) error

	// Close releases the underlying resources
	Close() error
}

var slotNameRe = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// LocalStorage implements the Storage interface with one file per slot
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

func (l *LocalStorage) path(key string) string {
	name := slotNameRe.ReplaceAllString(key, "_")
	if name == "" {
		name = "slot"
	}
	return filepath.Join(l.basePath, name+".json")
}

// Get reads a slot file
func (l *LocalStorage) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(l.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Put writes a slot file. The data goes to a temporary file first so a
// failed write never leaves a truncated slot behind.
func (l *LocalStorage) Put(key string, data []byte) error {
	path := l.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// Delete removes a slot file
func (l *LocalStorage) Delete(key string) error {
	if err := os.Remove(l.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// Close is a no-op for LocalStorage
func (l *LocalStorage) Close() error {
	return nil
}
