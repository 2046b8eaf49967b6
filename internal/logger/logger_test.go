package logger

import (
	"bytes"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvLogger_Debug(t *testing.T) {
	tests := []struct {
		name      string
		envValue  string
		expectLog bool
	}{
		{
			name:      "logs when SSH_COPY_ID_DEBUG is set",
			envValue:  "1",
			expectLog: true,
		},
		{
			name:      "logs when SSH_COPY_ID_DEBUG is any value",
			envValue:  "true",
			expectLog: true,
		},
		{
			name:      "does not log when SSH_COPY_ID_DEBUG is empty",
			envValue:  "",
			expectLog: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Capture log output
			var buf bytes.Buffer
			log.SetOutput(&buf)
			defer log.SetOutput(os.Stderr)

			// Set environment
			if tt.envValue != "" {
				t.Setenv("SSH_COPY_ID_DEBUG", tt.envValue)
			} else {
				os.Unsetenv("SSH_COPY_ID_DEBUG")
			}

			l := NewEnvLogger("[test]")
			l.Debug("test message %s", "arg")

			if tt.expectLog {
				assert.Contains(t, buf.String(), "[test] test message arg")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestEnvLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := NewEnvLogger("[info-test]")
	l.Info("info message %d", 42)

	assert.Contains(t, buf.String(), "[info-test] info message 42")
}

func TestEnvLogger_Warn(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := NewEnvLogger("[warn-test]")
	l.Warn("warning message")

	assert.Contains(t, buf.String(), "[warn-test] WARN: warning message")
}

func TestEnvLogger_Error(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := NewEnvLogger("[error-test]")
	l.Error("error message")

	assert.Contains(t, buf.String(), "[error-test] ERROR: error message")
}

func TestNoopLogger(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := Noop()
	l.Debug("debug")
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	assert.Empty(t, buf.String(), "noop logger should not produce any output")
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("debug %s", "msg")
	l.Info("info %s", "msg")
	l.Warn("warn %s", "msg")
	l.Error("error %s", "msg")

	require.Len(t, l.Messages, 4)

	assert.Equal(t, "debug", l.Messages[0].Level)
	assert.Equal(t, "debug msg", l.Messages[0].Message)

	assert.Equal(t, "info", l.Messages[1].Level)
	assert.Equal(t, "info msg", l.Messages[1].Message)

	assert.Equal(t, "warn", l.Messages[2].Level)
	assert.Equal(t, "warn msg", l.Messages[2].Message)

	assert.Equal(t, "error", l.Messages[3].Level)
	assert.Equal(t, "error msg", l.Messages[3].Message)
}

func TestBufferLogger_HasLevel(t *testing.T) {
	l := NewBufferLogger()

	assert.False(t, l.HasLevel("debug"))
	assert.False(t, l.HasLevel("error"))

	l.Debug("test")
	assert.True(t, l.HasLevel("debug"))
	assert.False(t, l.HasLevel("error"))

	l.Error("test")
	assert.True(t, l.HasLevel("error"))
}

func TestBufferLogger_Clear(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("test1")
	l.Info("test2")
	require.Len(t, l.Messages, 2)

	l.Clear()
	assert.Empty(t, l.Messages)
}

func TestNewDebugLogger_AlwaysLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)
	os.Unsetenv(DebugEnv)

	l := NewDebugLogger("[ansible]")
	l.Debug("reading args from %s", "/tmp/args")

	assert.Contains(t, buf.String(), "[ansible] reading args from /tmp/args")
}

func TestWithRedaction(t *testing.T) {
	buf := NewBufferLogger()
	l := WithRedaction(buf, "hunter2", "")

	l.Info("connecting with password %s", "hunter2")
	l.Debug("password=%q", "hunter2")
	l.Warn("nothing secret here")
	l.Error("hunter2hunter2")

	require.Len(t, buf.Messages, 4)
	assert.Equal(t, "connecting with password ********", buf.Messages[0].Message)
	assert.Equal(t, `password="********"`, buf.Messages[1].Message)
	assert.Equal(t, "nothing secret here", buf.Messages[2].Message)
	assert.Equal(t, "****************", buf.Messages[3].Message)
	assert.False(t, buf.Contains("hunter2"))
}

func TestWithRedaction_NoSecretsReturnsSameLogger(t *testing.T) {
	buf := NewBufferLogger()
	assert.Same(t, buf, WithRedaction(buf, "", "").(*BufferLogger))
}

func TestRedact_ShortSecretMasksEveryOccurrence(t *testing.T) {
	got := Redact("reading /tmp/key as p", "p")
	assert.Equal(t, "reading /tm********/key as ********", got)
	assert.NotContains(t, got, "p")
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "user:********@host", Redact("user:secret@host", "secret"))
	assert.Equal(t, "unchanged", Redact("unchanged"))
	assert.Equal(t, "unchanged", Redact("unchanged", ""))
}

func TestBufferLogger_Contains(t *testing.T) {
	l := NewBufferLogger()
	l.Info("SSH public key injected into %s", "/root/.ssh/authorized_keys")

	assert.True(t, l.Contains("injected"))
	assert.False(t, l.Contains("already"))
}

func TestLoggerInterface(t *testing.T) {
	var _ Logger = NewBufferLogger()
	_ = NewDebugLogger("")
	_ = NewEnvLogger("")
	_ = Noop()
	_ = NewBufferLogger()
}

func TestEnvLogger_FormatStrings(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := NewEnvLogger("[fmt]")

	// Test various format specifiers
	l.Info("int: %d, string: %s, float: %.2f", 42, "hello", 3.14159)

	output := buf.String()
	assert.True(t, strings.Contains(output, "int: 42"))
	assert.True(t, strings.Contains(output, "string: hello"))
	assert.True(t, strings.Contains(output, "float: 3.14"))
}
