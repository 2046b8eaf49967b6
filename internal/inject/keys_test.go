package inject

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rileyhilliard/sshcopyid/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferKeyType(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/home/user/.ssh/id_ed25519.pub", "ed25519"},
		{"/home/user/.ssh/id_rsa.pub", "rsa"},
		{"/home/user/.ssh/id_ecdsa.pub", "ecdsa"},
		{"/home/user/.ssh/id_dsa.pub", "unknown"},
		{"/home/user/.ssh/backup_rsa_key.pub", "rsa"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inferKeyType(tt.path), tt.path)
	}
}

func TestPreferredPublicKey(t *testing.T) {
	home := t.TempDir()
	sshDir := filepath.Join(home, ".ssh")
	require.NoError(t, os.MkdirAll(sshDir, 0700))

	assert.Nil(t, PreferredPublicKey(home))

	require.NoError(t, os.WriteFile(filepath.Join(sshDir, "id_rsa.pub"), []byte("ssh-rsa AAAA r\n"), 0644))
	key := PreferredPublicKey(home)
	require.NotNil(t, key)
	assert.Equal(t, "rsa", key.Type)

	require.NoError(t, os.WriteFile(filepath.Join(sshDir, "id_ed25519.pub"), []byte("ssh-ed25519 AAAA e\n"), 0644))
	key = PreferredPublicKey(home)
	require.NotNil(t, key)
	assert.Equal(t, "ed25519", key.Type)
	assert.Equal(t, filepath.Join(sshDir, "id_ed25519.pub"), key.Path)

	assert.Len(t, FindLocalKeys(home), 2)
}

func TestDefaultPublicKeyPaths_NoHome(t *testing.T) {
	assert.Nil(t, DefaultPublicKeyPaths(""))
}

func TestReadPublicKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "id.pub")
	require.NoError(t, os.WriteFile(path, []byte("ssh-ed25519 AAAA me@host\n"), 0644))

	data, err := ReadPublicKey(path)
	require.NoError(t, err)
	assert.Equal(t, "ssh-ed25519 AAAA me@host\n", string(data), "content is not trimmed")
}

func TestReadPublicKey_Errors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.pub")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0644))

	tests := []struct {
		name string
		path string
		want string
	}{
		{"no path", "", "No SSH public key path"},
		{"missing", filepath.Join(dir, "missing.pub"), "not found"},
		{"directory", dir, "is a directory"},
		{"empty", empty, "is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPublicKey(tt.path)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrInput))
			assert.Contains(t, err.Error(), tt.want)
			if tt.path != "" {
				assert.Contains(t, err.Error(), tt.path)
			}
		})
	}
}

func TestDescribeKey(t *testing.T) {
	assert.Empty(t, describeKey([]byte("not a key")))
}
