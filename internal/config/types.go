package config

import (
	"encoding/json"
	"time"
)

// DefaultPort is the SSH port used when ssh_port is omitted.
const DefaultPort = 22

// Host key policy names accepted in config files, env and flags.
const (
	PolicyReject   = "reject"
	PolicyPinned   = "pinned"
	PolicyWarn     = "warn"
	PolicyInsecure = "insecure"
)

// Secret holds a sensitive string such as a login password.
// It never renders its value through fmt, JSON or YAML; call Reveal to get it.
type Secret string

// Redacted is the placeholder printed in place of a non-empty secret.
const Redacted = "********"

// Reveal returns the underlying secret value.
func (s Secret) Reveal() string {
	return string(s)
}

// IsEmpty reports whether no secret was provided.
func (s Secret) IsEmpty() bool {
	return s == ""
}

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return Redacted
}

// GoString keeps %#v from leaking the value.
func (s Secret) GoString() string {
	return `config.Secret("` + s.String() + `")`
}

// MarshalJSON renders the redacted form.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// MarshalYAML renders the redacted form.
func (s Secret) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// Params are the connection parameters for one injection run.
// They are built once at the boundary (Ansible args or CLI flags) and
// validated before anything touches the network.
type Params struct {
	Hostname      string `json:"hostname" yaml:"hostname"`
	Username      string `json:"username" yaml:"username"`
	Password      Secret `json:"password" yaml:"password"`
	PublicKeyPath string `json:"ssh_public_key" yaml:"ssh_public_key"`

	// Port is 0 when the caller did not specify one.
	Port int `json:"ssh_port,omitempty" yaml:"ssh_port,omitempty"`
}

// Settings are the tunables that apply to every run. They come from the
// defaults file, SSH_COPY_ID_* environment variables and command-line flags.
type Settings struct {
	// Port overrides the SSH port when a run doesn't set one.
	Port int `mapstructure:"port"`

	// Timeout bounds the TCP connect and the SSH handshake.
	Timeout time.Duration `mapstructure:"timeout"`

	// HostKeyPolicy is one of reject, pinned, warn or insecure.
	HostKeyPolicy string `mapstructure:"host_key_policy"`

	// KnownHosts is the known_hosts file used by the reject, pinned and warn policies.
	KnownHosts string `mapstructure:"known_hosts"`

	// PublicKey is the default local public key path.
	PublicKey string `mapstructure:"ssh_public_key"`
}

// DefaultSettings returns settings with all defaults applied.
func DefaultSettings() *Settings {
	return &Settings{
		Port:          DefaultPort,
		Timeout:       10 * time.Second,
		HostKeyPolicy: PolicyWarn,
		KnownHosts:    "~/.ssh/known_hosts",
	}
}
