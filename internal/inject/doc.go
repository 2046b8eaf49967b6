// Package inject adds a local SSH public key to a remote user's
// authorized_keys over SFTP.
//
// The flow is a single pass:
//
//	check local key -> dial (password auth) -> read authorized_keys
//	  -> already contains key? done
//	  -> missing? create ~/.ssh (0700) if needed
//	  -> append key, chmod 0600
//
// The remote home is /root for root and /home/<user> for everyone else.
// Running it again with the same inputs changes nothing.
//
// The presence test is bytes.Contains on the raw file, not a line match.
// A key that appears inside a longer line is reported as already injected.
package inject
