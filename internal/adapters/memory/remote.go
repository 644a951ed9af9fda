package memory

import (
	"path"
	"sort"
	"sync"
	"time"
)

type remoteFile struct {
	data    []byte
	modTime time.Time
}

// Remote is an in-memory remote file system keyed by slash-separated path.
type Remote struct {
	mu    sync.Mutex
	files map[string]remoteFile
	now   func() time.Time
}

// NewRemote returns an empty remote file system.
func NewRemote() *Remote {
	return &Remote{files: make(map[string]remoteFile), now: time.Now}
}

// Exists reports whether p holds a file.
func (r *Remote) Exists(p string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.files[path.Clean(p)]
	return ok
}

// ReadFile returns a copy of the content at p.
func (r *Remote) ReadFile(p string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[path.Clean(p)]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), f.data...), true
}

// ModTime returns the modification time of p.
func (r *Remote) ModTime(p string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[path.Clean(p)]
	return f.modTime, ok
}

// List returns the base names of the files directly inside dir, sorted.
func (r *Remote) List(dir string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	dir = path.Clean(dir)
	var names []string
	for p := range r.files {
		if path.Dir(p) == dir {
			names = append(names, path.Base(p))
		}
	}
	sort.Strings(names)
	return names
}

func (r *Remote) write(p string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[path.Clean(p)] = remoteFile{data: append([]byte(nil), data...), modTime: r.now()}
}

func (r *Remote) size(p string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[path.Clean(p)]
	return int64(len(f.data)), ok
}

func (r *Remote) rename(from, to string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	from, to = path.Clean(from), path.Clean(to)
	f, ok := r.files[from]
	if !ok {
		return false
	}
	delete(r.files, from)
	r.files[to] = f
	return true
}

func (r *Remote) touch(p string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p = path.Clean(p)
	if f, ok := r.files[p]; ok {
		f.modTime = r.now()
		r.files[p] = f
	}
}
