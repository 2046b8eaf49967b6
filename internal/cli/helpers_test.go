package cli

import (
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rileyhilliard/sshcopyid/pkg/sshutil"
	sshtest "github.com/rileyhilliard/sshcopyid/pkg/sshutil/testing"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

// testKey is a well-formed authorized_keys line, so runs stay free of
// "doesn't look like an authorized_keys line" warnings.
var testKey = newTestKey()

func newTestKey() string {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		panic(err)
	}
	line := ssh.MarshalAuthorizedKey(sshPub)
	return strings.TrimSuffix(string(line), "\n") + " user@laptop\n"
}

// useMockDialer routes both entry points to a mock dialer over fs.
func useMockDialer(t *testing.T, fs *sshtest.MockFS) *sshtest.MockDialer {
	t.Helper()
	dialer := sshtest.NewMockDialer(fs)

	origDialer, origWarn := newDialer, sshutil.WarningHandler
	newDialer = func(sshutil.HostKeyPolicy, time.Duration) sshutil.Dialer { return dialer }
	t.Cleanup(func() {
		newDialer = origDialer
		sshutil.WarningHandler = origWarn
	})
	return dialer
}

// useConfig points --config at a file with the given content.
func useConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	orig := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = orig })
	return path
}

func writeTestKey(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "id_ed25519.pub")
	require.NoError(t, os.WriteFile(path, []byte(testKey), 0644))
	return path
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
