package ansible

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/rileyhilliard/sshcopyid/internal/config"
	"github.com/rileyhilliard/sshcopyid/internal/errors"
)

// Option names accepted by the module.
const (
	OptHostname     = "hostname"
	OptUsername     = "username"
	OptPassword     = "password"
	OptSSHPublicKey = "ssh_public_key"
	OptSSHPort      = "ssh_port"
)

// Internal options Ansible adds to every invocation.
const (
	internalCheckMode = "_ansible_check_mode"
	internalNoLog     = "_ansible_no_log"
	internalDebug     = "_ansible_debug"
	internalPrefix    = "_ansible_"
)

// aliases maps alternate option names to their canonical name.
var aliases = map[string]string{
	"host": OptHostname,
}

// noLogOptions are never echoed back or logged.
var noLogOptions = map[string]bool{
	OptPassword: true,
}

var knownOptions = map[string]bool{
	OptHostname:     true,
	OptUsername:     true,
	OptPassword:     true,
	OptSSHPublicKey: true,
	OptSSHPort:      true,
}

// Args is the parsed module argument set.
type Args struct {
	// Options holds the module options under their canonical names.
	Options map[string]interface{}

	CheckMode bool
	NoLog     bool
	Debug     bool
}

// LoadArgs reads and parses the arguments file Ansible passes as argv[1].
func LoadArgs(path string) (*Args, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Can't read module arguments from %s", path),
			"Run this binary through Ansible, or pass a JSON file of module options")
	}
	return ParseArgs(data)
}

// ParseArgs parses a module argument document. JSON (WANT_JSON style) is
// preferred; old-style key=value pairs with shell quoting are accepted too.
func ParseArgs(data []byte) (*Args, error) {
	raw, err := decode(data)
	if err != nil {
		return nil, err
	}

	args := &Args{Options: make(map[string]interface{})}
	var unsupported []string

	for key, value := range raw {
		if strings.HasPrefix(key, internalPrefix) {
			switch key {
			case internalCheckMode:
				args.CheckMode = truthy(value)
			case internalNoLog:
				args.NoLog = truthy(value)
			case internalDebug:
				args.Debug = truthy(value)
			}
			continue
		}

		name := key
		if canonical, ok := aliases[key]; ok {
			name = canonical
		}
		if !knownOptions[name] {
			unsupported = append(unsupported, key)
			continue
		}
		if _, dup := args.Options[name]; dup && name != key {
			// The canonical name wins over its alias.
			continue
		}
		args.Options[name] = value
	}

	if len(unsupported) > 0 {
		sort.Strings(unsupported)
		return nil, errors.New(errors.ErrConfig,
			fmt.Sprintf("Unsupported parameters for (ssh_copy_id) module: %s", strings.Join(unsupported, ", ")),
			"Supported parameters include: hostname (host), password, ssh_port, ssh_public_key, username")
	}

	return args, nil
}

func decode(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return map[string]interface{}{}, nil
	}

	if trimmed[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var raw map[string]interface{}
		if err := dec.Decode(&raw); err != nil {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Module arguments aren't valid JSON",
				"Check the arguments file Ansible generated")
		}
		// Some module styles wrap the options in ANSIBLE_MODULE_ARGS.
		if inner, ok := raw["ANSIBLE_MODULE_ARGS"]; ok {
			wrapped, ok := inner.(map[string]interface{})
			if !ok {
				return nil, errors.New(errors.ErrConfig,
					fmt.Sprintf("ANSIBLE_MODULE_ARGS must be an object, got %T", inner), "")
			}
			return wrapped, nil
		}
		return raw, nil
	}

	words, err := shellquote.Split(string(trimmed))
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Can't parse key=value module arguments",
			"Check quoting in the task's arguments")
	}

	raw := make(map[string]interface{}, len(words))
	for _, word := range words {
		key, value, ok := strings.Cut(word, "=")
		if !ok || key == "" {
			return nil, errors.New(errors.ErrConfig,
				fmt.Sprintf("Module argument %q is not in key=value form", word), "")
		}
		raw[key] = value
	}
	return raw, nil
}

// truthy follows Ansible's boolean conversion.
func truthy(v interface{}) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "1", "true", "yes", "on", "y", "t":
			return true
		}
	case json.Number:
		n, err := b.Int64()
		return err == nil && n != 0
	}
	return false
}

func (a *Args) str(name string) string {
	switch v := a.Options[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Params converts the options into typed connection parameters and
// validates them. Missing required options are reported together.
func (a *Args) Params() (config.Params, error) {
	port, err := config.ParsePort(a.Options[OptSSHPort])
	if err != nil {
		return config.Params{}, err
	}

	p := config.Params{
		Hostname:      a.str(OptHostname),
		Username:      a.str(OptUsername),
		Password:      config.Secret(a.str(OptPassword)),
		PublicKeyPath: config.ExpandHome(a.str(OptSSHPublicKey)),
		Port:          port,
	}
	if err := p.Validate(); err != nil {
		return config.Params{}, err
	}
	return p, nil
}

// Secrets returns the values of no_log options, for redaction.
func (a *Args) Secrets() []string {
	var secrets []string
	for name := range noLogOptions {
		if s := a.str(name); s != "" {
			secrets = append(secrets, s)
		}
	}
	return secrets
}

// ModuleArgs returns the options as Ansible echoes them in
// invocation.module_args, with no_log values masked.
func (a *Args) ModuleArgs() map[string]interface{} {
	out := make(map[string]interface{}, len(knownOptions))
	for name := range knownOptions {
		value, ok := a.Options[name]
		if !ok {
			out[name] = nil
			continue
		}
		if noLogOptions[name] {
			out[name] = NoLogValue
			continue
		}
		out[name] = value
	}
	return out
}
