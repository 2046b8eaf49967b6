package inject

// Result messages reported to the caller.
const (
	MessageInjected        = "SSH public key injected!"
	MessageAlreadyInjected = "SSH public key already injected!"
	MessageWouldInject     = "SSH public key would be injected!"
)

// Result is the outcome of one injection run.
type Result struct {
	Changed bool   `json:"changed"`
	Message string `json:"message"`

	// Path is the remote authorized_keys file that was checked.
	Path string `json:"path"`

	// CreatedDir is true when the remote .ssh directory had to be created
	// (or would have been, in check mode).
	CreatedDir bool `json:"created_dir,omitempty"`

	// CheckMode is true when nothing was written on purpose.
	CheckMode bool `json:"check_mode,omitempty"`
}
