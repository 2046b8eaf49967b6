package inject

import "path"

// AuthorizedKeysFile is the file name sshd reads by default.
const AuthorizedKeysFile = "authorized_keys"

// HomeDir returns the remote home directory assumed for username:
// /root for root, /home/<username> for everyone else.
func HomeDir(username string) string {
	if username == "root" {
		return "/root"
	}
	return path.Join("/home", username)
}

// SSHDir returns the remote .ssh directory for username.
func SSHDir(username string) string {
	return path.Join(HomeDir(username), ".ssh")
}

// AuthorizedKeysPath returns the remote authorized_keys path for username.
func AuthorizedKeysPath(username string) string {
	return path.Join(SSHDir(username), AuthorizedKeysFile)
}
