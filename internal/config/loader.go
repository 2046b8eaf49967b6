package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/sshcopyid/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".ssh-copy-id.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/ssh-copy-id"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix is the prefix for environment overrides (SSH_COPY_ID_TIMEOUT etc.).
	EnvPrefix = "SSH_COPY_ID"
)

// flagKeys maps command-line flag names to settings keys.
var flagKeys = map[string]string{
	"port":            "port",
	"timeout":         "timeout",
	"host-key-policy": "host_key_policy",
	"known-hosts":     "known_hosts",
	"key":             "ssh_public_key",
}

// Find locates the defaults file using the search order:
// 1. Explicit path (from --config flag)
// 2. .ssh-copy-id.yaml in current directory
// 3. ~/.config/ssh-copy-id/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		localConfig := filepath.Join(cwd, ConfigFileName)
		if _, err := os.Stat(localConfig); err == nil {
			return localConfig, nil
		}
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		globalConfig := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		if _, err := os.Stat(globalConfig); err == nil {
			return globalConfig, nil
		}
	}

	return "", nil
}

// Load builds Settings from defaults, the config file at path (if any),
// SSH_COPY_ID_* environment variables and the given flags, in increasing
// order of precedence. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found",
					"Run 'ssh_copy_id init' to create one, or point --config at an existing file")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for flagName, key := range flagKeys {
			if f := flags.Lookup(flagName); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.WrapWithCode(err, errors.ErrConfig,
						"Failed to bind --"+flagName,
						"")
				}
			}
		}
	}

	settings := DefaultSettings()
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+displayPath(path))
	}

	settings.KnownHosts = ExpandHome(settings.KnownHosts)
	settings.PublicKey = ExpandHome(settings.PublicKey)
	settings.HostKeyPolicy = strings.ToLower(strings.TrimSpace(settings.HostKeyPolicy))

	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// setDefaults registers defaults with viper so env-only overrides still
// resolve for keys missing from the config file.
func setDefaults(v *viper.Viper) {
	d := DefaultSettings()
	v.SetDefault("port", d.Port)
	v.SetDefault("timeout", d.Timeout.String())
	v.SetDefault("host_key_policy", d.HostKeyPolicy)
	v.SetDefault("known_hosts", d.KnownHosts)
	v.SetDefault("ssh_public_key", d.PublicKey)
}

// ExpandHome replaces a leading ~ with the current user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.Getenv("HOME")
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func displayPath(path string) string {
	if path == "" {
		return "your config"
	}
	return path
}
