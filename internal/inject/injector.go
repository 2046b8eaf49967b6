package inject

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rileyhilliard/sshcopyid/internal/config"
	"github.com/rileyhilliard/sshcopyid/internal/errors"
	"github.com/rileyhilliard/sshcopyid/internal/logger"
	"github.com/rileyhilliard/sshcopyid/pkg/sshutil"
)

const (
	sshDirMode         = 0700
	authorizedKeysMode = 0600
)

// Injector appends a local public key to a remote authorized_keys file
// unless the key is already there.
type Injector struct {
	dialer    sshutil.Dialer
	log       logger.Logger
	checkMode bool
}

// Option configures an Injector.
type Option func(*Injector)

// WithLogger sets the logger. The password of each run is redacted from
// everything written through it.
func WithLogger(l logger.Logger) Option {
	return func(i *Injector) {
		if l != nil {
			i.log = l
		}
	}
}

// WithCheckMode makes Run report what it would do without writing anything.
func WithCheckMode(enabled bool) Option {
	return func(i *Injector) {
		i.checkMode = enabled
	}
}

// New creates an Injector that connects through dialer.
func New(dialer sshutil.Dialer, opts ...Option) *Injector {
	i := &Injector{
		dialer: dialer,
		log:    logger.Noop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run makes sure the remote authorized_keys of p.Username contains the key
// at p.PublicKeyPath.
//
// The local key is checked before any connection is made. Exactly one
// connection attempt follows; once it succeeds the session is closed on
// every return path. Presence is a plain substring test on the raw bytes,
// so a key embedded in a longer line counts as present.
func (i *Injector) Run(ctx context.Context, p config.Params) (*Result, error) {
	log := logger.WithRedaction(i.log, p.Password.Reveal())

	if err := checkLocalKey(p.PublicKeyPath); err != nil {
		return nil, err
	}

	keysPath := AuthorizedKeysPath(p.Username)
	sshDir := SSHDir(p.Username)
	result := &Result{Path: keysPath, CheckMode: i.checkMode}

	log.Debug("connecting to %s as %s", p.Hostname, p.Username)
	session, err := i.dialer.Dial(ctx, sshutil.Target{
		Host:     p.Hostname,
		Port:     p.Port,
		User:     p.Username,
		Password: p.Password.Reveal(),
	})
	if err != nil {
		if errors.IsCode(err, errors.ErrConnection) {
			return nil, err
		}
		return nil, errors.WrapWithCode(err, errors.ErrConnection,
			fmt.Sprintf("Can't connect to '%s'", p.Hostname),
			"Check the hostname, port and credentials")
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			log.Debug("closing session to %s: %v", p.Hostname, cerr)
		}
	}()
	log.Info("connected to %s", p.Hostname)

	key, err := ReadPublicKey(p.PublicKeyPath)
	if err != nil {
		return nil, err
	}
	if desc := describeKey(key); desc != "" {
		log.Debug("local key %s", desc)
	} else {
		log.Warn("%s doesn't look like an authorized_keys line, injecting it as-is", p.PublicKeyPath)
	}

	fs := session.FS()

	existing, err := fs.ReadFile(keysPath)
	switch {
	case err == nil:
		if bytes.Contains(existing, key) {
			log.Info("key already present in %s on %s", keysPath, p.Hostname)
			result.Message = MessageAlreadyInjected
			return result, nil
		}
		log.Debug("%s exists (%d bytes) without the key", keysPath, len(existing))

	case errors.KindOf(err) == errors.KindNotFound:
		log.Debug("%s not found, checking %s", keysPath, sshDir)
		created, err := i.ensureSSHDir(fs, sshDir, log)
		if err != nil {
			return nil, err
		}
		result.CreatedDir = created

	default:
		return nil, classify(err, "read", keysPath)
	}

	result.Changed = true
	if i.checkMode {
		log.Info("check mode: would append key to %s on %s", keysPath, p.Hostname)
		result.Message = MessageWouldInject
		return result, nil
	}

	if err := fs.AppendFile(keysPath, appendPayload(existing, key)); err != nil {
		return nil, classify(err, "append", keysPath)
	}
	if err := fs.Chmod(keysPath, authorizedKeysMode); err != nil {
		return nil, classify(err, "chmod", keysPath)
	}

	log.Info("key injected into %s on %s", keysPath, p.Hostname)
	result.Message = MessageInjected
	return result, nil
}

// ensureSSHDir creates dir with mode 0700 when it doesn't exist.
// It reports whether the directory was (or in check mode would be) created.
func (i *Injector) ensureSSHDir(fs sshutil.RemoteFS, dir string, log logger.Logger) (bool, error) {
	_, err := fs.Stat(dir)
	if err == nil {
		return false, nil
	}
	if errors.KindOf(err) != errors.KindNotFound {
		return false, classify(err, "stat", dir)
	}

	if i.checkMode {
		log.Debug("check mode: would create %s", dir)
		return true, nil
	}

	log.Debug("creating %s", dir)
	if err := fs.Mkdir(dir); err != nil {
		return false, classify(err, "mkdir", dir)
	}
	if err := fs.Chmod(dir, sshDirMode); err != nil {
		return false, classify(err, "chmod", dir)
	}
	return true, nil
}

// appendPayload returns the bytes to append. A newline is added in front of
// the key when the existing content doesn't end with one, so the key starts
// on its own line.
func appendPayload(existing, key []byte) []byte {
	if len(existing) == 0 || existing[len(existing)-1] == '\n' {
		return key
	}
	payload := make([]byte, 0, len(key)+1)
	payload = append(payload, '\n')
	return append(payload, key...)
}

// classify keeps REMOTE_IO errors from the filesystem as they are and tags
// anything else.
func classify(err error, op, path string) error {
	return sshutil.ClassifyRemoteError(err, op, path)
}
