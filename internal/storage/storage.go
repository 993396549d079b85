package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/econcal/econ-calendars/internal/source"
)

const IndexFile = "index.html"

// Storage handles persistence of generated files
type Storage struct {
	dir string
}

// New creates a new Storage instance rooted at dir
func New(dir string) (*Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is empty")
	}

	// Expand ~ to home directory
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	return &Storage{
		dir: dir,
	}, nil
}

// Dir returns the resolved output directory
func (s *Storage) Dir() string {
	return s.dir
}

// CalendarPath returns where the calendar for src is written
func (s *Storage) CalendarPath(src source.Source) string {
	return filepath.Join(s.dir, src.FileName())
}

// SaveCalendar writes the serialized calendar for src and returns its path
func (s *Storage) SaveCalendar(src source.Source, data []byte) (string, error) {
	if src.Key() == "" {
		return "", fmt.Errorf("source has neither id nor name")
	}
	path := s.CalendarPath(src)
	if err := writeFile(path, data); err != nil {
		return "", fmt.Errorf("writing calendar %s: %w", src.Key(), err)
	}
	return path, nil
}

// SaveIndex writes the index page and returns its path
func (s *Storage) SaveIndex(data []byte) (string, error) {
	path := filepath.Join(s.dir, IndexFile)
	if err := writeFile(path, data); err != nil {
		return "", fmt.Errorf("writing index: %w", err)
	}
	return path, nil
}

// writeFile replaces path atomically via a temp file in the same directory
func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".econ-calendars-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// calendars are published, so they must be world-readable
	if err := os.Chmod(tmpName, 0644); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
