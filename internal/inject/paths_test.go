package inject

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorizedKeysPath(t *testing.T) {
	tests := []struct {
		username string
		want     string
	}{
		{"root", "/root/.ssh/authorized_keys"},
		{"alice", "/home/alice/.ssh/authorized_keys"},
		{"deploy", "/home/deploy/.ssh/authorized_keys"},
		{"rootless", "/home/rootless/.ssh/authorized_keys"},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.want, AuthorizedKeysPath(tt.username))
		})
	}
}

func TestSSHDir(t *testing.T) {
	assert.Equal(t, "/root/.ssh", SSHDir("root"))
	assert.Equal(t, "/home/alice/.ssh", SSHDir("alice"))
}

func TestHomeDir(t *testing.T) {
	assert.Equal(t, "/root", HomeDir("root"))
	assert.Equal(t, "/home/bob", HomeDir("bob"))
}
