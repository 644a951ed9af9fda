package fs

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// MediaLogName is the log file kept inside the media directory.
const MediaLogName = "log.txt"

// MediaStore implements ports.MediaStore on a local directory.
type MediaStore struct {
	dir string
	mu  sync.Mutex
}

// NewMediaStore creates a media store rooted at dir.
func NewMediaStore(dir string) *MediaStore {
	return &MediaStore{dir: dir}
}

// Dir returns the media directory.
func (m *MediaStore) Dir() string { return m.dir }

// LogPath returns the path of the sent log.
func (m *MediaStore) LogPath() string { return filepath.Join(m.dir, MediaLogName) }

// Files lists regular files in the media directory, sorted by name.
// A missing directory yields no files.
func (m *MediaStore) Files(ctx context.Context) ([]string, error) {
	if m.dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// Sent reads the log, creating it when missing.
func (m *MediaStore) Sent(ctx context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(m.LogPath(), os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sent := make(map[string]struct{})
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		name := strings.TrimSpace(sc.Text())
		if name == "" {
			continue
		}
		sent[name] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return sent, nil
}

// Append writes "filename\n" to the log.
func (m *MediaStore) Append(ctx context.Context, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := os.OpenFile(m.LogPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(filename + "\n"); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
