package permissions

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/sperrystudios/screenrecorder/internal/logging"
)

type grantsFile struct {
	Microphone bool `toml:"microphone"`
	Storage    bool `toml:"storage"`
}

// FileStore remembers grants across runs in a small toml file.
type FileStore struct {
	path string

	mu     sync.Mutex
	grants grantsFile
}

// OpenFileStore loads the grants at path. A missing file means nothing was granted yet.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &s.grants); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return s, nil
}

func (s *FileStore) Granted(p Permission) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch p {
	case Microphone:
		return s.grants.Microphone
	case Storage:
		return s.grants.Storage
	}
	return false
}

// Record stores the answer for p and writes the file.
func (s *FileStore) Record(p Permission, granted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch p {
	case Microphone:
		s.grants.Microphone = granted
	case Storage:
		s.grants.Storage = granted
	default:
		return fmt.Errorf("unknown permission %v", p)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create grants directory: %w", err)
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to write grants: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(s.grants); err != nil {
		return fmt.Errorf("failed to encode grants: %w", err)
	}
	logging.Trace("Stored %s=%v in %s", p, granted, s.path)
	return nil
}

// CheckWritable creates dir if needed and proves a file can be written in it.
func CheckWritable(dir string) error {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".write-check-*")
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
