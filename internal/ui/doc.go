// Package ui provides terminal output for the interactive ssh_copy_id commands.
//
// Ansible mode never uses this package: its stdout carries exactly one
// JSON document.
//
//	Spinner  - Animated status for the connect/inject step (stderr, TTY only)
//	Report   - Final result line, detail lines, and formatted errors
//
// Colors follow termenv's detection of the output: ConfigureColors turns
// them off for pipes, NO_COLOR and --no-color.
package ui
