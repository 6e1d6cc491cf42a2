package credentials

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/PolarWolf314/pagelock/internal/utils"

	"github.com/BurntSushi/toml"
)

// Storage is a string key/value store with browser localStorage semantics.
type Storage interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// MemoryStorage keeps entries for the lifetime of the process.
type MemoryStorage struct {
	mu    sync.Mutex
	items map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

// Len returns the number of stored entries.
func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// FileStorage persists entries in a TOML file readable only by the owner.
// Every call reads the file fresh so separate processes see each other's writes.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

type fileContents struct {
	Entries map[string]string `toml:"entries"`
}

// NewFileStorage returns a FileStorage backed by path. The file is created on first write.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path returns the backing file path.
func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	contents, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := contents.Entries[key]
	return v, ok, nil
}

func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	contents, err := f.load()
	if err != nil {
		return err
	}
	contents.Entries[key] = value
	return f.save(contents)
}

func (f *FileStorage) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	contents, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := contents.Entries[key]; !ok {
		return nil
	}
	delete(contents.Entries, key)
	return f.save(contents)
}

func (f *FileStorage) load() (*fileContents, error) {
	contents := &fileContents{Entries: make(map[string]string)}

	if _, err := os.Stat(f.path); os.IsNotExist(err) {
		return contents, nil
	}

	if _, err := toml.DecodeFile(f.path, contents); err != nil {
		return nil, fmt.Errorf("failed to load credential store %s: %w", f.path, err)
	}
	if contents.Entries == nil {
		contents.Entries = make(map[string]string)
	}
	return contents, nil
}

func (f *FileStorage) save(contents *fileContents) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("failed to create credential store directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(contents); err != nil {
		return fmt.Errorf("failed to encode credential store %s: %w", f.path, err)
	}

	// Replaced atomically, so an interrupted write leaves the old entries intact.
	if err := utils.WriteFile(f.path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to save credential store: %w", err)
	}
	return nil
}
