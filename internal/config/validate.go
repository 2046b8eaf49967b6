package config

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rileyhilliard/sshcopyid/internal/errors"
)

// ValidPolicies lists the accepted host key policy names.
var ValidPolicies = []string{PolicyReject, PolicyPinned, PolicyWarn, PolicyInsecure}

// Validate checks that all required parameters are present and the port is in range.
// Missing options are reported together, in the order Ansible documents them.
func (p Params) Validate() error {
	var missing []string
	if strings.TrimSpace(p.Hostname) == "" {
		missing = append(missing, "hostname")
	}
	if strings.TrimSpace(p.Username) == "" {
		missing = append(missing, "username")
	}
	if p.Password.IsEmpty() {
		missing = append(missing, "password")
	}
	if strings.TrimSpace(p.PublicKeyPath) == "" {
		missing = append(missing, "ssh_public_key")
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrConfig,
			"missing required arguments: "+strings.Join(missing, ", "),
			"Pass hostname, username, password and ssh_public_key")
	}

	if err := validatePort(p.Port, true); err != nil {
		return err
	}

	if strings.ContainsAny(p.Username, "/\x00") || p.Username == "." || p.Username == ".." {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' isn't a valid username", p.Username),
			"Usernames can't contain '/' and can't be '.' or '..'")
	}
	return nil
}

// ValidateSettings checks settings loaded from file, env and flags.
func ValidateSettings(s *Settings) error {
	if err := validatePort(s.Port, false); err != nil {
		return err
	}

	if s.Timeout <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Timeout must be positive, got %s", s.Timeout),
			"Try something like 5s, 30s, or 1m.")
	}

	valid := false
	for _, p := range ValidPolicies {
		if s.HostKeyPolicy == p {
			valid = true
			break
		}
	}
	if !valid {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown host key policy '%s'", s.HostKeyPolicy),
			"Use one of: "+strings.Join(ValidPolicies, ", "))
	}

	if (s.HostKeyPolicy == PolicyPinned || s.HostKeyPolicy == PolicyReject) && s.KnownHosts == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("The '%s' host key policy needs a known_hosts file", s.HostKeyPolicy),
			"Set known_hosts in your config or pass --known-hosts")
	}
	return nil
}

func validatePort(port int, allowZero bool) error {
	if port == 0 && allowZero {
		return nil
	}
	if port < 1 || port > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Port %d is out of range", port),
			"Use a port between 1 and 65535")
	}
	return nil
}

// ParsePort converts an ssh_port value as it arrives from Ansible (string,
// integer, or JSON number) into a port number. Empty and nil mean "not set"
// and return 0.
func ParsePort(v interface{}) (int, error) {
	var n int
	switch val := v.(type) {
	case nil:
		return 0, nil
	case int:
		n = val
	case int64:
		n = int(val)
	case float64:
		if val != math.Trunc(val) {
			return 0, portError(fmt.Sprint(val))
		}
		n = int(val)
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			return 0, portError(val.String())
		}
		n = int(i)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return 0, portError(s)
		}
		n = i
	default:
		return 0, portError(fmt.Sprint(val))
	}

	if err := validatePort(n, false); err != nil {
		return 0, err
	}
	return n, nil
}

func portError(raw string) error {
	return errors.New(errors.ErrConfig,
		fmt.Sprintf("'%s' doesn't look like a port number", raw),
		"ssh_port must be a number between 1 and 65535")
}
