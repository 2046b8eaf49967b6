// Package ansible implements the Ansible binary module contract for
// ssh_copy_id.
//
// Ansible copies the module binary to the controller's target, writes the
// task options to a file and runs the binary with that file as its only
// argument. The module prints exactly one JSON object on stdout:
//
//	{"changed": true, "message": "SSH public key injected!",
//	 "original_message": "host123", "invocation": {"module_args": {...}}}
//
// Failures set "failed": true and a one-line "msg". The password is a
// no_log option: it is echoed as VALUE_SPECIFIED_IN_NO_LOG_PARAMETER and
// scrubbed from messages.
//
// Check mode (_ansible_check_mode) reads and compares but writes nothing.
package ansible
