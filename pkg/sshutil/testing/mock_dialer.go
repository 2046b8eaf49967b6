package testing

import (
	"context"
	"fmt"
	"sync"

	"github.com/rileyhilliard/sshcopyid/internal/errors"
	"github.com/rileyhilliard/sshcopyid/pkg/sshutil"
)

// MockDialer hands out sessions backed by a shared MockFS.
type MockDialer struct {
	mu       sync.Mutex
	fs       *MockFS
	err      error
	dials    int
	targets  []sshutil.Target
	sessions []*MockSession
}

var _ sshutil.Dialer = (*MockDialer)(nil)

// NewMockDialer creates a dialer whose sessions all see fs.
// A nil fs gets a fresh empty MockFS.
func NewMockDialer(fs *MockFS) *MockDialer {
	if fs == nil {
		fs = NewMockFS()
	}
	return &MockDialer{fs: fs}
}

// Dial records the target and returns a new session, or the configured failure.
func (d *MockDialer) Dial(ctx context.Context, target sshutil.Target) (sshutil.Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials++
	d.targets = append(d.targets, target)

	if err := ctx.Err(); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConnection,
			fmt.Sprintf("Can't reach '%s'", target.Host), "")
	}
	if d.err != nil {
		return nil, d.err
	}

	s := &MockSession{fs: d.fs}
	d.sessions = append(d.sessions, s)
	return s, nil
}

// FailWith makes every subsequent Dial return err.
func (d *MockDialer) FailWith(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
}

// FailConnection makes every subsequent Dial return a CONNECTION error.
func (d *MockDialer) FailConnection(message string) {
	d.FailWith(errors.New(errors.ErrConnection, message, "Check the host and credentials"))
}

// FS returns the filesystem shared by all sessions.
func (d *MockDialer) FS() *MockFS {
	return d.fs
}

// Dials returns how many times Dial was called.
func (d *MockDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// LastTarget returns the target of the most recent Dial.
func (d *MockDialer) LastTarget() (sshutil.Target, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.targets) == 0 {
		return sshutil.Target{}, false
	}
	return d.targets[len(d.targets)-1], true
}

// Sessions returns every session handed out so far.
func (d *MockDialer) Sessions() []*MockSession {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*MockSession(nil), d.sessions...)
}

// AllClosed reports whether every session handed out has been closed.
func (d *MockDialer) AllClosed() bool {
	for _, s := range d.Sessions() {
		if !s.Closed() {
			return false
		}
	}
	return true
}

// MockSession is a session over a MockFS that tracks Close.
type MockSession struct {
	mu     sync.Mutex
	fs     *MockFS
	closes int
}

var _ sshutil.Session = (*MockSession)(nil)

// FS returns the backing filesystem.
func (s *MockSession) FS() sshutil.RemoteFS {
	return s.fs
}

// Close marks the session closed.
func (s *MockSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

// Closed reports whether Close was called at least once.
func (s *MockSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes > 0
}

// CloseCount returns how many times Close was called.
func (s *MockSession) CloseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}
