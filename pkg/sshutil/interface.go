package sshutil

import (
	"context"
	"os"
)

// Target identifies a remote account to log in to with a password.
type Target struct {
	Host     string
	Port     int // 0 means "not specified": ~/.ssh/config or 22 decides
	User     string
	Password string
}

// Dialer opens an authenticated connection with a file-transfer session on top.
// The real implementation is PasswordDialer; tests use the mock in
// pkg/sshutil/testing.
type Dialer interface {
	Dial(ctx context.Context, target Target) (Session, error)
}

// Session is an open SSH connection plus its SFTP session.
// Close releases both and must be called on every path once Dial succeeded.
type Session interface {
	// FS returns the remote filesystem reachable through the session.
	FS() RemoteFS

	// Close closes the SFTP session and then the SSH connection.
	Close() error
}

// RemoteFS is the small slice of SFTP that key injection needs.
//
// Every error returned is a REMOTE_IO *errors.Error whose Kind tells
// "file not found" apart from permission and other failures.
type RemoteFS interface {
	// ReadFile returns the full content of the file at path.
	ReadFile(path string) ([]byte, error)

	// Stat returns file info for path.
	Stat(path string) (os.FileInfo, error)

	// Mkdir creates a single directory.
	Mkdir(path string) error

	// Chmod sets the permission bits of path.
	Chmod(path string, mode os.FileMode) error

	// AppendFile writes data to the end of path, creating the file if needed.
	AppendFile(path string, data []byte) error
}
