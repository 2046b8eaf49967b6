package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rileyhilliard/sshcopyid/internal/errors"
	sshtest "github.com/rileyhilliard/sshcopyid/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runInject runs the inject command and returns what it wrote to stdout
// and stderr separately.
func runInject(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	origMode, origTTY := machineMode, stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	t.Cleanup(func() {
		machineMode = origMode
		stdinIsTerminal = origTTY
	})

	cmd := newInjectCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestInject_JSON(t *testing.T) {
	useConfig(t, "host_key_policy: insecure\n")
	fs := sshtest.NewMockFS()
	sshtest.WithDirs(fs, []string{"/home/deploy"})
	dialer := useMockDialer(t, fs)

	out, errOut, err := runInject(t, "--host", "deploy@host123", "--password", "secret", "--key", writeTestKey(t), "--json")
	require.NoError(t, err)
	assert.Empty(t, errOut, "a well-formed key produces no warnings")

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	assert.True(t, env.Success)
	data := env.Data.(map[string]interface{})
	assert.Equal(t, true, data["changed"])
	assert.Equal(t, true, data["created_dir"])
	assert.Equal(t, "/home/deploy/.ssh/authorized_keys", data["path"])
	assert.NotContains(t, out, "secret")

	target, ok := dialer.LastTarget()
	require.True(t, ok)
	assert.Equal(t, "host123", target.Host)
	assert.Equal(t, "deploy", target.User)
	assert.Equal(t, "secret", target.Password)
	assert.Equal(t, 0, target.Port)
}

func TestInject_ExplicitDefaultPort(t *testing.T) {
	useConfig(t, "host_key_policy: insecure\n")
	fs := sshtest.NewMockFS()
	sshtest.WithDirs(fs, []string{"/root/.ssh"})
	dialer := useMockDialer(t, fs)

	_, _, err := runInject(t, "--host", "h", "--user", "root", "--password", "p", "--key", writeTestKey(t), "--port", "22", "--json")
	require.NoError(t, err)

	target, _ := dialer.LastTarget()
	assert.Equal(t, 22, target.Port)
}

func TestInject_AlreadyPresent(t *testing.T) {
	useConfig(t, "host_key_policy: insecure\n")
	fs := sshtest.NewMockFS()
	sshtest.WithFiles(fs, map[string]string{"/home/deploy/.ssh/authorized_keys": testKey})
	useMockDialer(t, fs)
	t.Setenv(PasswordEnv, "from-env")

	out, _, err := runInject(t, "--host", "h", "--user", "deploy", "--key", writeTestKey(t))
	require.NoError(t, err)
	assert.Contains(t, out, "SSH public key already injected!")
	assert.False(t, fs.Mutated())
}

func TestInject_CheckMode(t *testing.T) {
	useConfig(t, "host_key_policy: insecure\n")
	fs := sshtest.NewMockFS()
	sshtest.WithDirs(fs, []string{"/home/deploy"})
	useMockDialer(t, fs)

	out, _, err := runInject(t, "--host", "h", "--user", "deploy", "--password", "p", "--key", writeTestKey(t), "--check")
	require.NoError(t, err)
	assert.Contains(t, out, "SSH public key would be injected!")
	assert.Contains(t, out, "would create /home/deploy/.ssh")
	assert.False(t, fs.Mutated())
}

func TestInject_ConnectionFailureJSON(t *testing.T) {
	useConfig(t, "host_key_policy: insecure\n")
	dialer := useMockDialer(t, nil)
	dialer.FailConnection("connection refused")

	out, errOut, err := runInject(t, "--host", "h", "--user", "u", "--password", "hunter2", "--key", writeTestKey(t), "--json")
	assert.NotContains(t, errOut, "Usage:")
	assert.NotContains(t, out+errOut, "Error: exit code")
	code, ok := errors.GetExitCode(err)
	require.True(t, ok)
	assert.Equal(t, 1, code)

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	assert.False(t, env.Success)
	assert.Equal(t, ErrCodeConnection, env.Error.Code)
	assert.NotContains(t, out, "hunter2")
}

func TestInject_InputErrors(t *testing.T) {
	useConfig(t, "host_key_policy: insecure\n")
	key := writeTestKey(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no host", []string{"--user", "u", "--password", "p", "--key", key}, "--host and --user are required"},
		{"no user", []string{"--host", "h", "--password", "p", "--key", key}, "--host and --user are required"},
		{"no password", []string{"--host", "h", "--user", "u", "--key", key}, "No password given"},
		{"two passwords", []string{"--host", "h", "--user", "u", "--password", "p", "--password-file", key, "--key", key}, "can't be used together"},
		{"missing key", []string{"--host", "h", "--user", "u", "--password", "p", "--key", filepath.Join(t.TempDir(), "none.pub")}, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dialer := useMockDialer(t, nil)
			t.Setenv(PasswordEnv, "")

			_, _, err := runInject(t, tt.args...)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrInput), "%v", err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, 0, dialer.Dials())
		})
	}
}

func TestInject_BadTimeout(t *testing.T) {
	useConfig(t, "host_key_policy: insecure\n")
	useMockDialer(t, nil)

	_, _, err := runInject(t, "--host", "h", "--user", "u", "--password", "p", "--timeout", "soon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid timeout")
}

func TestSplitUserHost(t *testing.T) {
	tests := []struct {
		host, user         string
		wantHost, wantUser string
	}{
		{"web1", "deploy", "web1", "deploy"},
		{"deploy@web1", "", "web1", "deploy"},
		{"deploy@web1", "root", "web1", "root"},
		{"a@b@web1", "", "web1", "a@b"},
		{"", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			host, user := splitUserHost(tt.host, tt.user)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantUser, user)
		})
	}
}

func TestResolveKeyPath(t *testing.T) {
	home := t.TempDir()
	sshDir := filepath.Join(home, ".ssh")
	require.NoError(t, os.MkdirAll(sshDir, 0700))

	_, err := resolveKeyPath("", home)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrInput))

	require.NoError(t, os.WriteFile(filepath.Join(sshDir, "id_rsa.pub"), []byte("ssh-rsa AAAA x\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sshDir, "id_ed25519.pub"), []byte(testKey), 0644))

	got, err := resolveKeyPath("", home)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sshDir, "id_ed25519.pub"), got)

	got, err = resolveKeyPath("/explicit.pub", home)
	require.NoError(t, err)
	assert.Equal(t, "/explicit.pub", got)
}
