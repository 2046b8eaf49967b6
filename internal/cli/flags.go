package cli

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/sshcopyid/internal/errors"
	"github.com/spf13/cobra"
)

// SettingsFlags are the flags that override values from the defaults file.
// config.Load picks them up by name.
type SettingsFlags struct {
	Port          int
	Timeout       string
	HostKeyPolicy string
	KnownHosts    string
	Key           string
}

// AddSettingsFlags registers --port, --timeout, --host-key-policy,
// --known-hosts and --key on a command.
func AddSettingsFlags(cmd *cobra.Command, flags *SettingsFlags) {
	cmd.Flags().IntVarP(&flags.Port, "port", "p", 0, "SSH port (default: ~/.ssh/config or 22)")
	cmd.Flags().StringVar(&flags.Timeout, "timeout", "", "connect and handshake timeout (e.g., 5s, 1m)")
	cmd.Flags().StringVar(&flags.HostKeyPolicy, "host-key-policy", "", "reject, pinned, warn or insecure")
	cmd.Flags().StringVar(&flags.KnownHosts, "known-hosts", "", "known_hosts file for host key checks")
	cmd.Flags().StringVarP(&flags.Key, "key", "i", "", "public key to inject (default: first of ~/.ssh/id_{ed25519,ecdsa,rsa}.pub)")
}

// ParseTimeout parses a timeout string into a duration.
// Returns zero duration if the flag is empty.
func ParseTimeout(flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	duration, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid timeout", flag),
			"Try something like 5s, 2m, or 500ms.")
	}
	if duration <= 0 {
		return 0, errors.New(errors.ErrConfig,
			fmt.Sprintf("Timeout must be positive, got %s", flag),
			"Try something like 5s, 2m, or 500ms.")
	}
	return duration, nil
}

// validateSettingsFlags catches flag values viper would otherwise reject
// with a less helpful message.
func validateSettingsFlags(flags *SettingsFlags) error {
	_, err := ParseTimeout(flags.Timeout)
	return err
}
