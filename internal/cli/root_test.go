package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rileyhilliard/sshcopyid/internal/config"
	cerrors "github.com/rileyhilliard/sshcopyid/internal/errors"
	sshtest "github.com/rileyhilliard/sshcopyid/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsUnknownCommandError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unknown command error",
			err:  errors.New(`unknown command "foo" for "ssh_copy_id"`),
			want: true,
		},
		{
			name: "unknown flag error",
			err:  errors.New(`unknown flag: --foo`),
			want: true,
		},
		{
			name: "other error",
			err:  errors.New("connection failed"),
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				// Can't call isUnknownCommandError with nil
				return
			}
			got := isUnknownCommandError(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractUnknownCommand(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "standard cobra format",
			err:  errors.New(`unknown command "foo" for "ssh_copy_id"`),
			want: "foo",
		},
		{
			name: "task name",
			err:  errors.New(`unknown command "test" for "ssh_copy_id"`),
			want: "test",
		},
		{
			name: "command with hyphen",
			err:  errors.New(`unknown command "my-task" for "ssh_copy_id"`),
			want: "my-task",
		},
		{
			name: "no quotes returns empty",
			err:  errors.New("unknown command foo"),
			want: "",
		},
		{
			name: "single quote returns empty",
			err:  errors.New(`unknown command "foo`),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractUnknownCommand(tt.err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func decodeResult(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out), buf.String())
	return out
}

func TestRunModule_Injects(t *testing.T) {
	useConfig(t, "host_key_policy: insecure\n")
	fs := sshtest.NewMockFS()
	sshtest.WithDirs(fs, []string{"/home/deploy"})
	dialer := useMockDialer(t, fs)

	argsPath := writeFile(t, "args", `{"hostname":"host123","username":"deploy","password":"secret","ssh_public_key":"`+writeTestKey(t)+`"}`)

	var buf bytes.Buffer
	require.NoError(t, runModule(context.Background(), argsPath, &buf))

	out := decodeResult(t, &buf)
	assert.Equal(t, true, out["changed"])
	assert.Equal(t, "SSH public key injected!", out["message"])
	assert.Equal(t, "host123", out["original_message"])
	assert.NotContains(t, buf.String(), "secret")

	content, ok := fs.Content("/home/deploy/.ssh/authorized_keys")
	require.True(t, ok)
	assert.Equal(t, testKey, content)

	target, _ := dialer.LastTarget()
	assert.Equal(t, 0, target.Port, "default port leaves the choice to ssh config")
	assert.True(t, dialer.AllClosed())
}

func TestRunModule_PortFromConfig(t *testing.T) {
	useConfig(t, "host_key_policy: insecure\nport: 2200\n")
	fs := sshtest.NewMockFS()
	sshtest.WithDirs(fs, []string{"/root/.ssh"})
	dialer := useMockDialer(t, fs)

	argsPath := writeFile(t, "args", `{"hostname":"h","username":"root","password":"p","ssh_public_key":"`+writeTestKey(t)+`"}`)

	var buf bytes.Buffer
	require.NoError(t, runModule(context.Background(), argsPath, &buf))

	target, _ := dialer.LastTarget()
	assert.Equal(t, 2200, target.Port)
}

func TestRunModule_FailureExitsNonZero(t *testing.T) {
	useConfig(t, "host_key_policy: insecure\n")
	dialer := useMockDialer(t, nil)
	dialer.FailConnection("connection refused")

	argsPath := writeFile(t, "args", `{"hostname":"h","username":"u","password":"topsecret","ssh_public_key":"`+writeTestKey(t)+`"}`)

	var buf bytes.Buffer
	err := runModule(context.Background(), argsPath, &buf)
	code, ok := cerrors.GetExitCode(err)
	require.True(t, ok)
	assert.Equal(t, 1, code)

	out := decodeResult(t, &buf)
	assert.Equal(t, true, out["failed"])
	assert.Equal(t, "CONNECTION", out["error_code"])
	assert.NotContains(t, buf.String(), "topsecret")
}

func TestRunModule_BadArgsFile(t *testing.T) {
	useConfig(t, "host_key_policy: insecure\n")
	dialer := useMockDialer(t, nil)

	argsPath := writeFile(t, "args", `{"hostname":"h","bogus":1}`)

	var buf bytes.Buffer
	err := runModule(context.Background(), argsPath, &buf)
	_, ok := cerrors.GetExitCode(err)
	assert.True(t, ok)

	out := decodeResult(t, &buf)
	assert.Equal(t, true, out["failed"])
	assert.Contains(t, out["msg"], "Unsupported parameters")
	assert.Equal(t, 0, dialer.Dials())
}

func TestRunModule_BadConfig(t *testing.T) {
	useConfig(t, "host_key_policy: sometimes\n")
	dialer := useMockDialer(t, nil)

	argsPath := writeFile(t, "args", `{"hostname":"h","username":"u","password":"p","ssh_public_key":"/k"}`)

	var buf bytes.Buffer
	err := runModule(context.Background(), argsPath, &buf)
	require.Error(t, err)

	out := decodeResult(t, &buf)
	assert.Equal(t, true, out["failed"])
	assert.Equal(t, "CONFIG", out["error_code"])
	assert.Equal(t, 0, dialer.Dials())
}

func TestRunModule_CheckMode(t *testing.T) {
	useConfig(t, "host_key_policy: insecure\n")
	fs := sshtest.NewMockFS()
	sshtest.WithDirs(fs, []string{"/home/deploy"})
	useMockDialer(t, fs)

	argsPath := writeFile(t, "args", `{"hostname":"h","username":"deploy","password":"p","ssh_public_key":"`+writeTestKey(t)+`","_ansible_check_mode":true}`)

	var buf bytes.Buffer
	require.NoError(t, runModule(context.Background(), argsPath, &buf))

	out := decodeResult(t, &buf)
	assert.Equal(t, true, out["changed"])
	assert.Equal(t, "SSH public key would be injected!", out["message"])
	assert.False(t, fs.Mutated())
}

func TestPortOverride(t *testing.T) {
	s := &config.Settings{Port: 22}
	assert.Equal(t, 0, portOverride(s, false))
	assert.Equal(t, 22, portOverride(s, true))

	s.Port = 2222
	assert.Equal(t, 2222, portOverride(s, false))
}
