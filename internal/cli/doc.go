// Package cli implements the ssh_copy_id command line.
//
// The binary has two faces. Called the way Ansible calls a module, with a
// single positional argument naming the args file, it reads the task
// arguments, injects the key and prints one JSON result on stdout:
//
//	ssh_copy_id /tmp/ansible-tmp/args
//
// Called with a subcommand it is a regular CLI for humans:
//
//	ssh_copy_id inject --host web1 --user deploy --password-file pw.txt
//	ssh_copy_id init                 - Write a defaults file
//	ssh_copy_id version              - Print build information
//
// # Flag Handling
//
// Global flags (--config, --verbose, --no-color) are defined on the root
// command. Tunables shared by both faces (port, timeout, host key policy,
// known_hosts, default key) come from config.Load, so a defaults file and
// SSH_COPY_ID_* variables apply to Ansible runs too.
package cli
