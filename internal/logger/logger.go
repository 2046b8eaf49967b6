// Package logger provides a simple logging interface for ssh_copy_id components.
// It allows packages to log debug, info, warn, and error messages without
// being coupled to a specific logging implementation.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// DebugEnv turns on debug output for the env logger when set to any value.
const DebugEnv = "SSH_COPY_ID_DEBUG"

// Logger defines the interface for logging operations.
// All methods accept a format string and arguments, similar to fmt.Printf.
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// envLogger implements Logger and logs through the standard log package.
// Debug messages are only printed when SSH_COPY_ID_DEBUG is set or debug
// was forced on.
type envLogger struct {
	prefix string
	debug  bool
}

// NewEnvLogger creates a logger that respects the SSH_COPY_ID_DEBUG environment variable.
// The prefix is prepended to all log messages (e.g., "[inject]" or "[ansible]").
func NewEnvLogger(prefix string) Logger {
	return &envLogger{prefix: prefix}
}

// NewDebugLogger creates an env logger with debug output always on.
func NewDebugLogger(prefix string) Logger {
	return &envLogger{prefix: prefix, debug: true}
}

func (l *envLogger) Debug(format string, args ...interface{}) {
	if l.debug || os.Getenv(DebugEnv) != "" {
		log.Printf(l.prefix+" "+format, args...)
	}
}

func (l *envLogger) Info(format string, args ...interface{}) {
	log.Printf(l.prefix+" "+format, args...)
}

func (l *envLogger) Warn(format string, args ...interface{}) {
	log.Printf(l.prefix+" WARN: "+format, args...)
}

func (l *envLogger) Error(format string, args ...interface{}) {
	log.Printf(l.prefix+" ERROR: "+format, args...)
}

// noopLogger implements Logger but discards all messages.
type noopLogger struct{}

// Noop returns a logger that discards all messages.
func Noop() Logger {
	return &noopLogger{}
}

func (l *noopLogger) Debug(format string, args ...interface{}) {}
func (l *noopLogger) Info(format string, args ...interface{})  {}
func (l *noopLogger) Warn(format string, args ...interface{})  {}
func (l *noopLogger) Error(format string, args ...interface{}) {}

// Redacted is what secrets are replaced with in log output.
const Redacted = "********"

// redactingLogger scrubs known secret values from every formatted message
// before handing it to the wrapped logger.
type redactingLogger struct {
	next    Logger
	secrets []string
}

// WithRedaction wraps l so that any occurrence of the given secrets is
// replaced with Redacted. Empty secrets are ignored.
//
// Matching is plain substring replacement, the same as Ansible's no_log
// masking: a very short secret also masks unrelated text that happens to
// contain it, e.g. a one-letter password turns "/tmp" into "/tm********".
// Messages lose detail in that case but the secret never leaks.
func WithRedaction(l Logger, secrets ...string) Logger {
	var kept []string
	for _, s := range secrets {
		if s != "" {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return l
	}
	return &redactingLogger{next: l, secrets: kept}
}

// Redact replaces every occurrence of the given secrets in s.
func Redact(s string, secrets ...string) string {
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		s = strings.ReplaceAll(s, secret, Redacted)
	}
	return s
}

func (l *redactingLogger) scrub(format string, args []interface{}) string {
	return Redact(fmt.Sprintf(format, args...), l.secrets...)
}

func (l *redactingLogger) Debug(format string, args ...interface{}) {
	l.next.Debug("%s", l.scrub(format, args))
}

func (l *redactingLogger) Info(format string, args ...interface{}) {
	l.next.Info("%s", l.scrub(format, args))
}

func (l *redactingLogger) Warn(format string, args ...interface{}) {
	l.next.Warn("%s", l.scrub(format, args))
}

func (l *redactingLogger) Error(format string, args ...interface{}) {
	l.next.Error("%s", l.scrub(format, args))
}

// LogMessage represents a captured log message.
type LogMessage struct {
	Level   string
	Message string
}

// BufferLogger captures log messages for testing.
type BufferLogger struct {
	Messages []LogMessage
}

// NewBufferLogger creates a logger that captures messages for inspection.
func NewBufferLogger() *BufferLogger {
	return &BufferLogger{
		Messages: make([]LogMessage, 0),
	}
}

func (l *BufferLogger) Debug(format string, args ...interface{}) {
	l.Messages = append(l.Messages, LogMessage{Level: "debug", Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Info(format string, args ...interface{}) {
	l.Messages = append(l.Messages, LogMessage{Level: "info", Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Warn(format string, args ...interface{}) {
	l.Messages = append(l.Messages, LogMessage{Level: "warn", Message: fmt.Sprintf(format, args...)})
}

func (l *BufferLogger) Error(format string, args ...interface{}) {
	l.Messages = append(l.Messages, LogMessage{Level: "error", Message: fmt.Sprintf(format, args...)})
}

// HasLevel returns true if any message was logged at the given level.
func (l *BufferLogger) HasLevel(level string) bool {
	for _, m := range l.Messages {
		if m.Level == level {
			return true
		}
	}
	return false
}

// Contains returns true if any captured message contains substr.
func (l *BufferLogger) Contains(substr string) bool {
	for _, m := range l.Messages {
		if strings.Contains(m.Message, substr) {
			return true
		}
	}
	return false
}

// Clear removes all captured messages.
func (l *BufferLogger) Clear() {
	l.Messages = l.Messages[:0]
}
