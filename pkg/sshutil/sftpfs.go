package sshutil

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/pkg/sftp"
	"github.com/rileyhilliard/sshcopyid/internal/errors"
)

// SFTP status codes (draft-ietf-secsh-filexfer-02, section 7).
const (
	fxNoSuchFile       = 2
	fxPermissionDenied = 3
)

// sftpFS implements RemoteFS on top of an SFTP client.
type sftpFS struct {
	client *sftp.Client
}

// NewSFTPFS wraps an SFTP client as a RemoteFS.
func NewSFTPFS(client *sftp.Client) RemoteFS {
	return &sftpFS{client: client}
}

func (fs *sftpFS) ReadFile(path string) ([]byte, error) {
	f, err := fs.client.Open(path)
	if err != nil {
		return nil, ClassifyRemoteError(err, "open", path)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, ClassifyRemoteError(err, "read", path)
	}
	return content, nil
}

func (fs *sftpFS) Stat(path string) (os.FileInfo, error) {
	info, err := fs.client.Stat(path)
	if err != nil {
		return nil, ClassifyRemoteError(err, "stat", path)
	}
	return info, nil
}

func (fs *sftpFS) Mkdir(path string) error {
	if err := fs.client.Mkdir(path); err != nil {
		return ClassifyRemoteError(err, "mkdir", path)
	}
	return nil
}

func (fs *sftpFS) Chmod(path string, mode os.FileMode) error {
	if err := fs.client.Chmod(path, mode); err != nil {
		return ClassifyRemoteError(err, "chmod", path)
	}
	return nil
}

// AppendFile opens path in append mode and writes data after the current end.
// Some servers ignore the SFTP append flag, so the write offset is moved to
// the end explicitly before writing.
func (fs *sftpFS) AppendFile(path string, data []byte) error {
	f, err := fs.client.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND)
	if err != nil {
		return ClassifyRemoteError(err, "open", path)
	}

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		f.Close()
		return ClassifyRemoteError(err, "seek", path)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return ClassifyRemoteError(err, "write", path)
	}

	if err := f.Close(); err != nil {
		return ClassifyRemoteError(err, "close", path)
	}
	return nil
}

// ClassifyRemoteError turns a remote filesystem error into a REMOTE_IO error
// tagged NotFound, PermissionDenied or Other. Errors that already carry the
// REMOTE_IO code are returned unchanged. op names the failed operation.
func ClassifyRemoteError(err error, op, path string) error {
	if err == nil {
		return nil
	}

	var scErr *errors.Error
	if stderrors.As(err, &scErr) && scErr.Code == errors.ErrRemoteIO {
		return err
	}

	kind := errors.KindOther
	var statusErr *sftp.StatusError
	switch {
	case stderrors.Is(err, os.ErrNotExist):
		kind = errors.KindNotFound
	case stderrors.Is(err, os.ErrPermission):
		kind = errors.KindPermissionDenied
	case stderrors.As(err, &statusErr):
		switch statusErr.Code {
		case fxNoSuchFile:
			kind = errors.KindNotFound
		case fxPermissionDenied:
			kind = errors.KindPermissionDenied
		}
	}

	return errors.NewRemoteIO(err, kind,
		fmt.Sprintf("Remote %s of %s failed (%s)", op, path, kind),
		suggestionForRemoteError(kind))
}

func suggestionForRemoteError(kind errors.Kind) string {
	switch kind {
	case errors.KindNotFound:
		return "The path doesn't exist on the remote host."
	case errors.KindPermissionDenied:
		return "The login user can't access this path. Check ownership and modes of the home and .ssh directories."
	default:
		return "The remote filesystem rejected the operation. Check free disk space and the SFTP server logs."
	}
}
