package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/sshcopyid/internal/errors"
	"gopkg.in/yaml.v3"
)

// fileSettings is the on-disk shape of Settings. Durations are written as
// strings so the file stays readable and round-trips through viper.
type fileSettings struct {
	Port          int    `yaml:"port"`
	Timeout       string `yaml:"timeout"`
	HostKeyPolicy string `yaml:"host_key_policy"`
	KnownHosts    string `yaml:"known_hosts"`
	PublicKey     string `yaml:"ssh_public_key,omitempty"`
}

// Marshal renders settings as YAML with a short header.
func Marshal(s *Settings) ([]byte, error) {
	fs := fileSettings{
		Port:          s.Port,
		Timeout:       s.Timeout.String(),
		HostKeyPolicy: s.HostKeyPolicy,
		KnownHosts:    s.KnownHosts,
		PublicKey:     s.PublicKey,
	}

	body, err := yaml.Marshal(&fs)
	if err != nil {
		return nil, err
	}

	header := "# ssh_copy_id defaults\n" +
		"# host_key_policy: reject | pinned | warn | insecure\n"
	return append([]byte(header), body...), nil
}

// Write saves settings to path. An existing file is only replaced when force is set.
func Write(path string, s *Settings, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s already exists", path),
			"Use --force to overwrite it")
	}

	data, err := Marshal(s)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't render config",
			"")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Couldn't create %s", dir),
				"Check directory permissions")
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Couldn't write %s", path),
			"Check directory permissions")
	}
	return nil
}
