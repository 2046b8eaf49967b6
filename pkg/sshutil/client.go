package sshutil

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/pkg/sftp"
	"github.com/rileyhilliard/sshcopyid/internal/errors"
	"golang.org/x/crypto/ssh"
)

// DefaultTimeout bounds the TCP connect and the SSH handshake when a dialer has none.
const DefaultTimeout = 10 * time.Second

// Client is an authenticated SSH connection with its SFTP session.
type Client struct {
	ssh  *ssh.Client
	sftp *sftp.Client
	fs   RemoteFS

	Host    string // The hostname as given by the caller
	Address string // The resolved address (host:port)
}

// FS returns the SFTP-backed remote filesystem.
func (c *Client) FS() RemoteFS {
	return c.fs
}

// Close closes the SFTP session, then the SSH connection.
func (c *Client) Close() error {
	var errs []error
	if c.sftp != nil {
		if err := c.sftp.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.ssh != nil {
		if err := c.ssh.Close(); err != nil && !stderrors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// matchWarningOnce ensures the SSH config Match directive warning is only shown once per process.
var matchWarningOnce sync.Once

// WarningHandler is a function that handles warning messages.
// If nil, warnings are printed to stderr via log.Printf.
var WarningHandler func(message string)

// emitWarning sends a warning through the configured handler or falls back to log.Printf.
func emitWarning(message string) {
	if WarningHandler != nil {
		WarningHandler(message)
	} else {
		log.Printf("Warning: %s", message)
	}
}

// PasswordDialer logs in with a password only: no agent, no key files.
type PasswordDialer struct {
	Policy  HostKeyPolicy
	Timeout time.Duration

	// SSHConfigPath overrides ~/.ssh/config for HostName/Port resolution.
	SSHConfigPath string
}

// NewPasswordDialer creates a dialer with the given host key policy and timeout.
func NewPasswordDialer(policy HostKeyPolicy, timeout time.Duration) *PasswordDialer {
	return &PasswordDialer{Policy: policy, Timeout: timeout}
}

// Dial connects to target, authenticates with the password and opens an
// SFTP session. Exactly one connection attempt is made.
//
// The host can be a hostname, an IP, a hostname:port, or an alias from
// ~/.ssh/config (only HostName and Port are taken from the config).
func (d *PasswordDialer) Dial(ctx context.Context, target Target) (Session, error) {
	settings := resolveSSHSettings(target, d.sshConfigPath())
	address := settings.address()

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	policy := d.Policy
	if policy == nil {
		policy = &WarnAndAccept{KnownHosts: filepath.Join(homeDir(), ".ssh", "known_hosts")}
	}

	hostKeyCallback, err := policy.HostKeyCallback()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConnection,
			fmt.Sprintf("Couldn't set up host key checking for '%s'", target.Host),
			"Check the known_hosts path, or pick another --host-key-policy")
	}

	config := &ssh.ClientConfig{
		User:            target.User,
		Auth:            passwordAuth(target.Password),
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConnection,
			fmt.Sprintf("Can't reach '%s' at %s", target.Host, address),
			suggestionForDialError(err))
	}

	// The handshake must not outlive the timeout either.
	_ = conn.SetDeadline(time.Now().Add(timeout))

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()

		var mismatchErr *HostKeyMismatchError
		if stderrors.As(err, &mismatchErr) {
			return nil, errors.WrapWithCode(err, errors.ErrConnection,
				mismatchErr.Error(),
				mismatchErr.Suggestion())
		}
		var unknownErr *UnknownHostKeyError
		if stderrors.As(err, &unknownErr) {
			return nil, errors.WrapWithCode(err, errors.ErrConnection,
				unknownErr.Error(),
				unknownErr.Suggestion())
		}

		return nil, errors.WrapWithCode(err, errors.ErrConnection,
			fmt.Sprintf("SSH handshake with '%s' didn't go through", target.Host),
			suggestionForHandshakeError(err))
	}
	_ = conn.SetDeadline(time.Time{})

	client := ssh.NewClient(sshConn, chans, reqs)

	sftpClient, err := sftp.NewClient(client)
	if err != nil {
		client.Close()
		return nil, errors.WrapWithCode(err, errors.ErrConnection,
			fmt.Sprintf("Couldn't start SFTP on '%s'", target.Host),
			"Make sure the SFTP subsystem is enabled in the server's sshd_config.")
	}

	return &Client{
		ssh:     client,
		sftp:    sftpClient,
		fs:      NewSFTPFS(sftpClient),
		Host:    target.Host,
		Address: address,
	}, nil
}

func (d *PasswordDialer) sshConfigPath() string {
	if d.SSHConfigPath != "" {
		return d.SSHConfigPath
	}
	return filepath.Join(homeDir(), ".ssh", "config")
}

// passwordAuth offers the password both as plain password auth and as the
// answer to keyboard-interactive prompts, which some servers use instead.
func passwordAuth(password string) []ssh.AuthMethod {
	return []ssh.AuthMethod{
		ssh.Password(password),
		ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
			answers := make([]string, len(questions))
			for i := range questions {
				answers[i] = password
			}
			return answers, nil
		}),
	}
}

// sshSettings holds resolved SSH connection parameters.
type sshSettings struct {
	hostname string
	port     string
}

// address returns the host:port string for dialing.
func (s *sshSettings) address() string {
	return net.JoinHostPort(s.hostname, s.port)
}

// resolveSSHSettings works out the address to dial. An explicit target port
// wins over a host:port suffix, which wins over the ssh config Port.
func resolveSSHSettings(target Target, sshConfigPath string) *sshSettings {
	host := target.Host
	settings := &sshSettings{port: "22"}

	explicitPort := target.Port != 0
	if explicitPort {
		settings.port = strconv.Itoa(target.Port)
	}

	if h, p, err := net.SplitHostPort(host); err == nil {
		host = h
		if !explicitPort {
			settings.port = p
			explicitPort = true
		}
	}
	settings.hostname = host

	content, matchLine, err := preprocessSSHConfig(sshConfigPath)
	if err != nil {
		// Config doesn't exist or can't be read, that's fine
		return settings
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return settings
	}

	hostFound := false
	if hostname, _ := cfg.Get(host, "HostName"); hostname != "" {
		settings.hostname = hostname
		hostFound = true
	}
	if port, _ := cfg.Get(host, "Port"); port != "" {
		if !explicitPort {
			settings.port = port
		}
		hostFound = true
	}

	if matchLine > 0 && !hostFound {
		matchWarningOnce.Do(func() {
			emitWarning(fmt.Sprintf(
				"Host '%s' not found in SSH config (config has a Match block at line %d that may hide later entries).",
				host, matchLine))
		})
	}

	return settings
}

// preprocessSSHConfig reads the SSH config and returns content up to the first Match directive,
// which kevinburke/ssh_config can't parse. Also returns the 1-based line of that Match (0 if none).
func preprocessSSHConfig(configPath string) ([]byte, int, error) {
	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, 0, err
	}

	lines := strings.Split(string(content), "\n")
	var result []string
	matchLine := 0

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(trimmed), "match ") {
			matchLine = i + 1
			break
		}
		result = append(result, line)
	}

	return []byte(strings.Join(result, "\n")), matchLine, nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

func suggestionForDialError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "connection refused") {
		return "Is SSH running on that box? Check the host and ssh_port."
	}
	if strings.Contains(errStr, "no such host") {
		return "Can't resolve the hostname. Check spelling and DNS."
	}
	if strings.Contains(errStr, "no route to host") || strings.Contains(errStr, "network is unreachable") {
		return "Can't route to the host. Check your network connection."
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "i/o timeout") {
		return "Connection timed out. Host might be offline or blocked by a firewall."
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return "The connection attempt was cancelled before it finished."
	}
	return "Make sure the host is reachable: ping <host>"
}

func suggestionForHandshakeError(err error) string {
	errStr := err.Error()
	if strings.Contains(errStr, "unable to authenticate") || strings.Contains(errStr, "no supported methods") {
		return "Auth failed. Double-check the username and password, and that the server allows PasswordAuthentication."
	}
	if strings.Contains(errStr, "host key") {
		return "Host key issue. Check known_hosts or the --host-key-policy setting."
	}
	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "EOF") {
		return "The server closed the connection during the handshake. Check sshd logs and MaxStartups."
	}
	return "Something went wrong during SSH setup. Try: ssh <user>@<host>"
}
