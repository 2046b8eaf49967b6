package sshutil

import (
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// HostKeyPolicy decides whether to trust the key a server presents.
type HostKeyPolicy interface {
	// Name returns the policy name as used in config (reject, pinned, warn, insecure).
	Name() string

	// HostKeyCallback builds the callback handed to the SSH handshake.
	HostKeyCallback() (ssh.HostKeyCallback, error)
}

// RejectUnknown verifies host keys against a known_hosts file and fails on
// unknown or mismatched keys. With a dedicated file it acts as a pinned policy.
type RejectUnknown struct {
	KnownHosts string
	Pinned     bool
}

func (p *RejectUnknown) Name() string {
	if p.Pinned {
		return "pinned"
	}
	return "reject"
}

func (p *RejectUnknown) HostKeyCallback() (ssh.HostKeyCallback, error) {
	if p.Pinned {
		// A pinned file must already exist; an empty stand-in would reject
		// every host with a confusing "unknown key" error.
		if _, err := os.Stat(p.KnownHosts); err != nil {
			return nil, fmt.Errorf("pinned known_hosts %s: %w", p.KnownHosts, err)
		}
	}

	base, err := createHostKeyCallback(p.KnownHosts)
	if err != nil {
		return nil, err
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := base(hostname, remote, key)
		var keyErr *knownhosts.KeyError
		if stderrors.As(err, &keyErr) && len(keyErr.Want) == 0 {
			return &UnknownHostKeyError{
				Hostname:    hostname,
				KeyType:     key.Type(),
				Fingerprint: ssh.FingerprintSHA256(key),
				KnownHosts:  p.KnownHosts,
			}
		}
		return err
	}, nil
}

// WarnAndAccept trusts a host on first contact: an unknown key produces a
// warning, is accepted and recorded in known_hosts. A key that contradicts
// an existing known_hosts entry still fails.
type WarnAndAccept struct {
	KnownHosts string

	// Warn receives warnings. Nil falls back to the package warning handler.
	Warn func(message string)
}

func (p *WarnAndAccept) Name() string { return "warn" }

func (p *WarnAndAccept) HostKeyCallback() (ssh.HostKeyCallback, error) {
	base, err := createHostKeyCallback(p.KnownHosts)
	if err != nil {
		p.warn(fmt.Sprintf("Can't use known_hosts at %s (%v); host keys will be accepted without verification", p.KnownHosts, err))
		return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			p.warn(fmt.Sprintf("Accepting %s host key for %s (%s)", key.Type(), hostname, ssh.FingerprintSHA256(key)))
			return nil
		}, nil
	}

	var mu sync.Mutex
	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := base(hostname, remote, key)
		if err == nil {
			return nil
		}

		var keyErr *knownhosts.KeyError
		if !stderrors.As(err, &keyErr) || len(keyErr.Want) > 0 {
			return err
		}

		p.warn(fmt.Sprintf("Permanently adding %s host key for %s (%s) to %s",
			key.Type(), hostname, ssh.FingerprintSHA256(key), p.KnownHosts))

		mu.Lock()
		defer mu.Unlock()
		if addErr := appendKnownHost(p.KnownHosts, hostname, remote, key); addErr != nil {
			p.warn(fmt.Sprintf("Couldn't record host key in %s: %v", p.KnownHosts, addErr))
		}
		return nil
	}, nil
}

func (p *WarnAndAccept) warn(message string) {
	if p.Warn != nil {
		p.Warn(message)
		return
	}
	emitWarning(message)
}

// InsecureAcceptAny skips host key verification entirely.
type InsecureAcceptAny struct{}

func (InsecureAcceptAny) Name() string { return "insecure" }

func (InsecureAcceptAny) HostKeyCallback() (ssh.HostKeyCallback, error) {
	return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // Explicitly requested by the user
}

// ParseHostKeyPolicy maps a config policy name to a HostKeyPolicy.
func ParseHostKeyPolicy(name, knownHostsPath string, warn func(string)) (HostKeyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "reject":
		return &RejectUnknown{KnownHosts: knownHostsPath}, nil
	case "pinned":
		return &RejectUnknown{KnownHosts: knownHostsPath, Pinned: true}, nil
	case "", "warn":
		return &WarnAndAccept{KnownHosts: knownHostsPath, Warn: warn}, nil
	case "insecure":
		return InsecureAcceptAny{}, nil
	default:
		return nil, fmt.Errorf("unknown host key policy %q", name)
	}
}

// UnknownHostKeyError is returned by the reject policies for first-contact hosts.
type UnknownHostKeyError struct {
	Hostname    string
	KeyType     string
	Fingerprint string
	KnownHosts  string
}

func (e *UnknownHostKeyError) Error() string {
	return fmt.Sprintf("unknown %s host key for %s (%s)", e.KeyType, e.Hostname, e.Fingerprint)
}

// Suggestion returns actionable steps to trust the host.
func (e *UnknownHostKeyError) Suggestion() string {
	host := e.Hostname
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return fmt.Sprintf(
		"The host isn't in %s yet.\n"+
			"  Verify the fingerprint out of band, then add it:\n"+
			"    ssh-keyscan -t %s %s >> %s\n\n"+
			"  Or allow first-contact hosts with --host-key-policy warn",
		e.KnownHosts, strings.TrimPrefix(e.KeyType, "ssh-"), host, e.KnownHosts)
}

// HostKeyMismatchError provides helpful context when known_hosts verification fails.
type HostKeyMismatchError struct {
	Hostname     string
	ReceivedType string
	KnownHosts   string
	Want         []knownhosts.KnownKey
}

func (e *HostKeyMismatchError) Error() string {
	return fmt.Sprintf("host key mismatch for %s: server sent %s key", e.Hostname, e.ReceivedType)
}

// Suggestion returns actionable steps to fix the host key mismatch.
func (e *HostKeyMismatchError) Suggestion() string {
	host := e.Hostname
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	var wantTypes []string
	for _, k := range e.Want {
		wantTypes = append(wantTypes, k.Key.Type())
	}
	wantStr := "unknown"
	if len(wantTypes) > 0 {
		wantStr = strings.Join(wantTypes, ", ")
	}

	return fmt.Sprintf(
		"The server's host key doesn't match what's in known_hosts.\n"+
			"  Known types: %s\n"+
			"  Server sent: %s\n\n"+
			"  If the host was reinstalled, remove the old entry:\n"+
			"    ssh-keygen -f %s -R %s",
		wantStr, e.ReceivedType, e.KnownHosts, host)
}

// createHostKeyCallback wraps the knownhosts callback to provide better error messages.
// A missing known_hosts file is created empty.
func createHostKeyCallback(knownHostsPath string) (ssh.HostKeyCallback, error) {
	if knownHostsPath == "" {
		return nil, stderrors.New("no known_hosts path configured")
	}

	if _, err := os.Stat(knownHostsPath); os.IsNotExist(err) {
		dir := filepath.Dir(knownHostsPath)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
		if err := os.WriteFile(knownHostsPath, []byte{}, 0600); err != nil {
			return nil, fmt.Errorf("failed to create known_hosts: %w", err)
		}
	}

	callback, err := knownhosts.New(knownHostsPath)
	if err != nil {
		return nil, err
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := callback(hostname, remote, key)
		if err != nil {
			var keyErr *knownhosts.KeyError
			if stderrors.As(err, &keyErr) && len(keyErr.Want) > 0 {
				return &HostKeyMismatchError{
					Hostname:     hostname,
					ReceivedType: key.Type(),
					KnownHosts:   knownHostsPath,
					Want:         keyErr.Want,
				}
			}
		}
		return err
	}, nil
}

// appendKnownHost records key for hostname (and its address when it differs).
func appendKnownHost(knownHostsPath, hostname string, remote net.Addr, key ssh.PublicKey) error {
	addresses := []string{knownhosts.Normalize(hostname)}
	if remote != nil {
		if addr := knownhosts.Normalize(remote.String()); addr != addresses[0] {
			addresses = append(addresses, addr)
		}
	}

	f, err := os.OpenFile(knownHostsPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString(knownhosts.Line(addresses, key) + "\n")
	return err
}
