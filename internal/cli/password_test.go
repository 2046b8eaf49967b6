package cli

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rileyhilliard/sshcopyid/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envWith(values map[string]string) func(string) string {
	return func(k string) string { return values[k] }
}

func TestResolvePassword_Precedence(t *testing.T) {
	file := writeFile(t, "pw", "from-file\n")
	env := envWith(map[string]string{PasswordEnv: "from-env"})
	prompt := func() (string, error) { return "from-prompt", nil }

	tests := []struct {
		name string
		src  passwordSources
		want string
	}{
		{"flag", passwordSources{Flag: "from-flag", Getenv: env, Interactive: true, Prompt: prompt}, "from-flag"},
		{"file", passwordSources{File: file, Getenv: env, Interactive: true, Prompt: prompt}, "from-file"},
		{"env", passwordSources{Getenv: env, Interactive: true, Prompt: prompt}, "from-env"},
		{"prompt", passwordSources{Getenv: envWith(nil), Interactive: true, Prompt: prompt}, "from-prompt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolvePassword(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Reveal())
		})
	}
}

func TestResolvePassword_FileKeepsInnerWhitespace(t *testing.T) {
	file := writeFile(t, "pw", " pass word \r\n")
	got, err := resolvePassword(passwordSources{File: file})
	require.NoError(t, err)
	assert.Equal(t, " pass word ", got.Reveal())
}

func TestResolvePassword_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  passwordSources
		want string
	}{
		{"flag and file", passwordSources{Flag: "a", File: "b"}, "can't be used together"},
		{"missing file", passwordSources{File: filepath.Join(t.TempDir(), "nope")}, "Can't read password file"},
		{"empty file", passwordSources{File: writeFile(t, "pw", "\n")}, "is empty"},
		{"nothing and no terminal", passwordSources{Getenv: envWith(nil), Prompt: func() (string, error) { return "x", nil }}, "No password given"},
		{"prompt fails", passwordSources{Interactive: true, Prompt: func() (string, error) { return "", fmt.Errorf("interrupted") }}, "Failed to read the password"},
		{"prompt empty", passwordSources{Interactive: true, Prompt: func() (string, error) { return "", nil }}, "No password entered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolvePassword(tt.src)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrInput))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
