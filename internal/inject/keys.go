package inject

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/sshcopyid/internal/errors"
	"golang.org/x/crypto/ssh"
)

// KeyInfo describes a public key found on the local machine.
type KeyInfo struct {
	Path string // Full path to the .pub file
	Type string // Key type (ed25519, rsa, ecdsa)
}

// DefaultPublicKeyPaths returns the standard public key locations under home,
// in order of preference.
func DefaultPublicKeyPaths(home string) []string {
	if home == "" {
		return nil
	}
	return []string{
		filepath.Join(home, ".ssh", "id_ed25519.pub"),
		filepath.Join(home, ".ssh", "id_ecdsa.pub"),
		filepath.Join(home, ".ssh", "id_rsa.pub"),
	}
}

// FindLocalKeys returns the standard public keys that exist under home.
func FindLocalKeys(home string) []KeyInfo {
	var keys []KeyInfo
	for _, path := range DefaultPublicKeyPaths(home) {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			keys = append(keys, KeyInfo{Path: path, Type: inferKeyType(path)})
		}
	}
	return keys
}

// PreferredPublicKey returns the best available public key under home
// (ed25519 over ecdsa over rsa), or nil when there is none.
func PreferredPublicKey(home string) *KeyInfo {
	keys := FindLocalKeys(home)
	if len(keys) == 0 {
		return nil
	}
	return &keys[0]
}

// inferKeyType determines key type from filename.
func inferKeyType(path string) string {
	base := filepath.Base(path)
	switch {
	case strings.Contains(base, "ed25519"):
		return "ed25519"
	case strings.Contains(base, "ecdsa"):
		return "ecdsa"
	case strings.Contains(base, "rsa"):
		return "rsa"
	default:
		return "unknown"
	}
}

// checkLocalKey makes sure path names a readable regular file.
func checkLocalKey(path string) error {
	if path == "" {
		return errors.New(errors.ErrInput,
			"No SSH public key path given",
			"Set ssh_public_key to the .pub file to inject")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.WrapWithCode(err, errors.ErrInput,
				fmt.Sprintf("SSH public key not found: %s", path),
				"Check the ssh_public_key path, or generate a key: ssh-keygen -t ed25519")
		}
		return errors.WrapWithCode(err, errors.ErrInput,
			fmt.Sprintf("Can't access SSH public key: %s", path),
			"Check that the file is readable by the current user")
	}
	if info.IsDir() {
		return errors.New(errors.ErrInput,
			fmt.Sprintf("SSH public key path is a directory: %s", path),
			"Point ssh_public_key at the .pub file itself")
	}
	return nil
}

// ReadPublicKey reads the full, unmodified contents of a public key file.
func ReadPublicKey(path string) ([]byte, error) {
	if err := checkLocalKey(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrInput,
			fmt.Sprintf("Failed to read SSH public key: %s", path),
			"Check that the file exists and is readable")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New(errors.ErrInput,
			fmt.Sprintf("SSH public key is empty: %s", path),
			"Point ssh_public_key at a non-empty .pub file")
	}
	return data, nil
}

// describeKey returns "type fingerprint" for an authorized_keys line,
// or "" if data doesn't parse as one.
func describeKey(data []byte) string {
	key, comment, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return ""
	}
	desc := key.Type() + " " + ssh.FingerprintSHA256(key)
	if comment != "" {
		desc += " (" + comment + ")"
	}
	return desc
}
