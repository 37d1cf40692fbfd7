package sandbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// IO performs file operations that are guaranteed to stay inside the sandbox.
// It gives no ordering guarantee between concurrent writers of the same file:
// the last rename wins.
type IO struct {
	guard *Guard
}

func NewIO(guard *Guard) *IO {
	return &IO{guard: guard}
}

func (s *IO) Guard() *Guard {
	return s.guard
}

// Ensure creates the sandbox root.
func (s *IO) Ensure() error {
	return s.guard.Ensure()
}

func (s *IO) Read(path string) (string, error) {
	data, err := s.ReadBytes(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *IO) ReadBytes(path string) ([]byte, error) {
	resolved, err := s.guard.Resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return nil, fmt.Errorf("read %s: %w", path, ErrNotFound)
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, ErrNotFound)
	}
	return data, nil
}

func (s *IO) Write(path, content string) error {
	return s.WriteBytes(path, []byte(content))
}

// WriteBytes replaces path with data. Parent directories are created as
// needed and the content lands via a rename, so readers never observe a
// half-written file.
func (s *IO) WriteBytes(path string, data []byte) error {
	resolved, err := s.guard.Resolve(path)
	if err != nil {
		return err
	}
	if err := s.guard.Ensure(); err != nil {
		return err
	}
	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".dataworks-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if tmpName != "" {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, resolved); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName = ""
	return nil
}

// Path returns the canonical absolute path for collaborators that must be
// handed a filesystem location (database files, repositories).
func (s *IO) Path(path string) (string, error) {
	return s.guard.Resolve(path)
}

func (s *IO) Exists(path string) bool {
	resolved, err := s.guard.Resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(resolved)
	return err == nil
}

// List returns the entries directly inside dir. A missing directory yields no
// entries.
func (s *IO) List(dir string) ([]fs.DirEntry, error) {
	resolved, err := s.guard.Resolve(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	return entries, nil
}
