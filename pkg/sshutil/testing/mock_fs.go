// Package testing provides SSH mock utilities for testing.
// This package simulates a remote machine with an in-memory filesystem.
package testing

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sync"
	"time"

	"github.com/rileyhilliard/sshcopyid/internal/errors"
	"github.com/rileyhilliard/sshcopyid/pkg/sshutil"
)

// Operation names accepted by FailOn and Calls.
const (
	OpReadFile   = "read"
	OpStat       = "stat"
	OpMkdir      = "mkdir"
	OpChmod      = "chmod"
	OpAppendFile = "append"
)

const (
	defaultDirMode  os.FileMode = 0755
	defaultFileMode os.FileMode = 0644
)

type failure struct {
	kind errors.Kind
}

// MockFS simulates an in-memory remote filesystem.
// It implements sshutil.RemoteFS, remembers modes, counts calls and can be
// told to fail specific operations.
type MockFS struct {
	mu       sync.RWMutex
	files    map[string][]byte      // path -> content
	dirs     map[string]struct{}    // directories
	modes    map[string]os.FileMode // path -> permission bits
	failures map[string]failure     // op + "\x00" + path -> injected failure
	calls    map[string]int         // op -> count
	mutated  bool
}

var _ sshutil.RemoteFS = (*MockFS)(nil)

// NewMockFS creates a new empty mock filesystem.
func NewMockFS() *MockFS {
	return &MockFS{
		files:    make(map[string][]byte),
		dirs:     make(map[string]struct{}),
		modes:    make(map[string]os.FileMode),
		failures: make(map[string]failure),
		calls:    make(map[string]int),
	}
}

// FailOn makes op on p return a REMOTE_IO error of the given kind.
// An empty path matches every path.
func (m *MockFS) FailOn(op, p string, kind errors.Kind) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p != "" {
		p = path.Clean(p)
	}
	m.failures[op+"\x00"+p] = failure{kind: kind}
}

// Calls returns how many times op was invoked, failed calls included.
func (m *MockFS) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// Mutated reports whether any call changed the filesystem.
func (m *MockFS) Mutated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mutated
}

// record counts the call and returns the injected failure, if any.
// Caller must hold the write lock.
func (m *MockFS) record(op, p string) error {
	m.calls[op]++
	f, ok := m.failures[op+"\x00"+p]
	if !ok {
		f, ok = m.failures[op+"\x00"]
	}
	if !ok {
		return nil
	}
	return errors.NewRemoteIO(fmt.Errorf("injected %s failure", op), f.kind,
		fmt.Sprintf("Remote %s of %s failed (%s)", op, p, f.kind), "")
}

func notFound(op, p string) error {
	return errors.NewRemoteIO(fs.ErrNotExist, errors.KindNotFound,
		fmt.Sprintf("Remote %s of %s failed (%s)", op, p, errors.KindNotFound), "")
}

func other(op, p, msg string) error {
	return errors.NewRemoteIO(fmt.Errorf("%s", msg), errors.KindOther,
		fmt.Sprintf("Remote %s of %s failed (%s)", op, p, errors.KindOther), "")
}

// Mkdir creates a directory. It fails if the path exists or the parent is missing,
// like a single SFTP mkdir.
func (m *MockFS) Mkdir(p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	if err := m.record(OpMkdir, p); err != nil {
		return err
	}

	if m.exists(p) {
		return other(OpMkdir, p, "file exists")
	}
	if parent := path.Dir(p); parent != p && !m.isDir(parent) {
		return notFound(OpMkdir, p)
	}

	m.dirs[p] = struct{}{}
	m.modes[p] = defaultDirMode
	m.mutated = true
	return nil
}

// Chmod sets the permission bits of an existing path.
func (m *MockFS) Chmod(p string, mode os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	if err := m.record(OpChmod, p); err != nil {
		return err
	}
	if !m.exists(p) {
		return notFound(OpChmod, p)
	}

	m.modes[p] = mode.Perm()
	m.mutated = true
	return nil
}

// AppendFile appends data to p, creating it when missing. The parent must exist.
func (m *MockFS) AppendFile(p string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	if err := m.record(OpAppendFile, p); err != nil {
		return err
	}
	if m.isDir(p) {
		return other(OpAppendFile, p, "is a directory")
	}
	if !m.isDir(path.Dir(p)) {
		return notFound(OpAppendFile, p)
	}

	if _, ok := m.files[p]; !ok {
		m.modes[p] = defaultFileMode
	}
	m.files[p] = append(append([]byte{}, m.files[p]...), data...)
	m.mutated = true
	return nil
}

// ReadFile reads the content of a file.
func (m *MockFS) ReadFile(p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	if err := m.record(OpReadFile, p); err != nil {
		return nil, err
	}

	content, ok := m.files[p]
	if !ok {
		if m.isDir(p) {
			return nil, other(OpReadFile, p, "is a directory")
		}
		return nil, notFound(OpReadFile, p)
	}
	return append([]byte{}, content...), nil
}

// Stat returns file info for a file or directory.
func (m *MockFS) Stat(p string) (os.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	if err := m.record(OpStat, p); err != nil {
		return nil, err
	}

	if m.isDir(p) {
		return &fileInfo{name: path.Base(p), mode: fs.ModeDir | m.modes[p], dir: true}, nil
	}
	if content, ok := m.files[p]; ok {
		return &fileInfo{name: path.Base(p), mode: m.modes[p], size: int64(len(content))}, nil
	}
	return nil, notFound(OpStat, p)
}

// WriteFile seeds a file without touching counters or the mutation flag.
// Parent directories are created.
func (m *MockFS) WriteFile(p string, content []byte, mode os.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	m.mkdirAll(path.Dir(p))
	m.files[p] = append([]byte{}, content...)
	m.modes[p] = mode.Perm()
}

// MkdirAll seeds a directory tree without touching counters or the mutation flag.
func (m *MockFS) MkdirAll(p string, mode os.FileMode) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = path.Clean(p)
	m.mkdirAll(p)
	m.modes[p] = mode.Perm()
}

func (m *MockFS) mkdirAll(p string) {
	for cur := p; ; cur = path.Dir(cur) {
		if _, ok := m.dirs[cur]; !ok {
			m.dirs[cur] = struct{}{}
			m.modes[cur] = defaultDirMode
		}
		if cur == "/" || cur == "." {
			return
		}
	}
}

// Content returns a file's content and whether it exists.
func (m *MockFS) Content(p string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	content, ok := m.files[path.Clean(p)]
	return string(content), ok
}

// Mode returns the permission bits recorded for p.
func (m *MockFS) Mode(p string) os.FileMode {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.modes[path.Clean(p)]
}

// Exists returns true if the path exists (file or directory).
func (m *MockFS) Exists(p string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.exists(path.Clean(p))
}

// IsDir returns true if the path exists and is a directory.
func (m *MockFS) IsDir(p string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isDir(path.Clean(p))
}

// IsFile returns true if the path exists and is a file.
func (m *MockFS) IsFile(p string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[path.Clean(p)]
	return ok
}

func (m *MockFS) exists(p string) bool {
	if _, ok := m.dirs[p]; ok {
		return true
	}
	_, ok := m.files[p]
	return ok
}

func (m *MockFS) isDir(p string) bool {
	_, ok := m.dirs[p]
	return ok
}

type fileInfo struct {
	name string
	size int64
	mode os.FileMode
	dir  bool
}

func (fi *fileInfo) Name() string       { return fi.name }
func (fi *fileInfo) Size() int64        { return fi.size }
func (fi *fileInfo) Mode() os.FileMode  { return fi.mode }
func (fi *fileInfo) ModTime() time.Time { return time.Time{} }
func (fi *fileInfo) IsDir() bool        { return fi.dir }
func (fi *fileInfo) Sys() interface{}   { return nil }
