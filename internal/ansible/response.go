package ansible

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/rileyhilliard/sshcopyid/internal/errors"
	"github.com/rileyhilliard/sshcopyid/internal/inject"
	"github.com/rileyhilliard/sshcopyid/internal/logger"
)

// NoLogValue replaces no_log option values in echoed arguments.
const NoLogValue = "VALUE_SPECIFIED_IN_NO_LOG_PARAMETER"

// Response is the JSON document a module prints on stdout.
type Response struct {
	Changed         bool   `json:"changed"`
	Message         string `json:"message"`
	OriginalMessage string `json:"original_message"`

	Failed bool   `json:"failed,omitempty"`
	Msg    string `json:"msg,omitempty"`

	// Extra fields, useful when debugging a play.
	Path      string `json:"path,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`

	Invocation *Invocation `json:"invocation,omitempty"`
}

// Invocation echoes the module arguments.
type Invocation struct {
	ModuleArgs map[string]interface{} `json:"module_args"`
}

// Success builds the response for a finished injection.
func Success(args *Args, result *inject.Result) *Response {
	resp := &Response{
		Changed: result.Changed,
		Message: result.Message,
		Path:    result.Path,
	}
	if args != nil {
		resp.OriginalMessage = args.str(OptHostname)
		resp.Invocation = &Invocation{ModuleArgs: args.ModuleArgs()}
	}
	return resp
}

// Failure builds a failed response from err. args may be nil when the
// arguments themselves couldn't be read. Secrets never reach the message.
func Failure(args *Args, err error) *Response {
	resp := &Response{
		Failed: true,
		Msg:    failureMessage(err),
	}

	var scErr *errors.Error
	if stderrors.As(err, &scErr) {
		resp.ErrorCode = scErr.Code
		if scErr.Kind != errors.KindNone {
			resp.ErrorKind = scErr.Kind.String()
		}
	}

	if args != nil {
		resp.Msg = logger.Redact(resp.Msg, args.Secrets()...)
		resp.OriginalMessage = args.str(OptHostname)
		resp.Invocation = &Invocation{ModuleArgs: args.ModuleArgs()}
	}
	resp.Message = resp.Msg
	return resp
}

// failureMessage flattens a structured error into the single line Ansible shows.
func failureMessage(err error) string {
	var scErr *errors.Error
	if !stderrors.As(err, &scErr) {
		return err.Error()
	}

	parts := []string{scErr.Message}
	if scErr.Cause != nil {
		parts = append(parts, scErr.Cause.Error())
	}
	if scErr.Suggestion != "" {
		parts = append(parts, scErr.Suggestion)
	}
	return strings.Join(parts, ": ")
}

// Exit writes resp as a single JSON document and returns the process exit
// code: 1 for failures, 0 otherwise.
func Exit(w io.Writer, resp *Response) int {
	enc := json.NewEncoder(w)
	if err := enc.Encode(resp); err != nil {
		return 1
	}
	if resp.Failed {
		return 1
	}
	return 0
}
