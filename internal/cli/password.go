package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/sshcopyid/internal/config"
	"github.com/rileyhilliard/sshcopyid/internal/errors"
)

// PasswordEnv is read when neither --password nor --password-file is given.
const PasswordEnv = "SSH_COPY_ID_PASSWORD"

// passwordSources lists where a password may come from, in order of precedence.
type passwordSources struct {
	Flag        string
	File        string
	Getenv      func(string) string
	Interactive bool
	Prompt      func() (string, error)
}

// resolvePassword picks the password from the first source that has one:
// --password, --password-file, $SSH_COPY_ID_PASSWORD, then a prompt when
// stdin is a terminal.
func resolvePassword(src passwordSources) (config.Secret, error) {
	if src.Flag != "" && src.File != "" {
		return "", errors.New(errors.ErrInput,
			"--password and --password-file can't be used together",
			"Pick one. --password-file keeps the password out of your shell history.")
	}

	if src.Flag != "" {
		return config.Secret(src.Flag), nil
	}

	if src.File != "" {
		data, err := os.ReadFile(config.ExpandHome(src.File))
		if err != nil {
			return "", errors.WrapWithCode(err, errors.ErrInput,
				fmt.Sprintf("Can't read password file %s", src.File),
				"Check the path and its permissions")
		}
		pw := strings.TrimRight(string(data), "\r\n")
		if pw == "" {
			return "", errors.New(errors.ErrInput,
				fmt.Sprintf("Password file %s is empty", src.File),
				"")
		}
		return config.Secret(pw), nil
	}

	if src.Getenv != nil {
		if pw := src.Getenv(PasswordEnv); pw != "" {
			return config.Secret(pw), nil
		}
	}

	if src.Interactive && src.Prompt != nil {
		pw, err := src.Prompt()
		if err != nil {
			return "", errors.WrapWithCode(err, errors.ErrInput,
				"Failed to read the password",
				"Pass --password-file or set "+PasswordEnv+" instead")
		}
		if pw == "" {
			return "", errors.New(errors.ErrInput, "No password entered", "")
		}
		return config.Secret(pw), nil
	}

	return "", errors.New(errors.ErrInput,
		"No password given",
		"Pass --password-file, set "+PasswordEnv+", or run from a terminal to be prompted")
}

// promptPassword asks for the password with echo turned off.
func promptPassword(user, host string) func() (string, error) {
	return func() (string, error) {
		var pw string
		err := huh.NewInput().
			Title(fmt.Sprintf("Password for %s@%s", user, host)).
			EchoMode(huh.EchoModePassword).
			Value(&pw).
			Run()
		return pw, err
	}
}
