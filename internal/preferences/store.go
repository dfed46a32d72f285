// Package preferences persists the user-chosen filter preferences.
package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/kitbuilder587/searx-proxy/internal/domain"
)

var ErrNotFound = errors.New("preferences not found")

type Store interface {
	Load(ctx context.Context) (domain.Preferences, error)
	Save(ctx context.Context, prefs domain.Preferences) error
}

// FileStore - JSON файл, пишется через временный файл + rename
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(ctx context.Context) (domain.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Preferences{}, ErrNotFound
		}
		return domain.Preferences{}, fmt.Errorf("read preferences: %w", err)
	}

	var prefs domain.Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return domain.Preferences{}, fmt.Errorf("%w: decode %s: %v", domain.ErrInvalidPreferences, s.path, err)
	}
	return prefs, nil
}

func (s *FileStore) Save(ctx context.Context, prefs domain.Preferences) error {
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".prefs-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename preferences: %w", err)
	}
	return nil
}

// Memory - хранилище в памяти, для тестов и запуска без файла
type Memory struct {
	mu      sync.Mutex
	prefs   *domain.Preferences
	SaveErr error
	Saves   int
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(ctx context.Context) (domain.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.prefs == nil {
		return domain.Preferences{}, ErrNotFound
	}
	return *m.prefs, nil
}

func (m *Memory) Save(ctx context.Context, prefs domain.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Saves++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.prefs = &prefs
	return nil
}

// LoadFilterConfig returns the stored filter config, or the default one when
// nothing has been saved yet.
func LoadFilterConfig(ctx context.Context, s Store) (domain.FilterConfig, error) {
	prefs, err := s.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		return domain.DefaultFilterConfig(), nil
	}
	if err != nil {
		return domain.FilterConfig{}, err
	}
	if err := prefs.Validate(); err != nil {
		return domain.FilterConfig{}, err
	}
	return prefs.ToFilterConfig(), nil
}
