package ansible

import (
	"context"

	"github.com/rileyhilliard/sshcopyid/internal/inject"
	"github.com/rileyhilliard/sshcopyid/internal/logger"
	"github.com/rileyhilliard/sshcopyid/pkg/sshutil"
)

// Module runs ssh_copy_id for one set of arguments.
type Module struct {
	Dialer sshutil.Dialer
	Log    logger.Logger

	// DefaultPort applies when the task sets no ssh_port. Zero leaves the
	// choice to ~/.ssh/config or 22.
	DefaultPort int
}

// Run validates args, injects the key and returns the response to print.
// It never returns an error: failures become failed responses.
func (m *Module) Run(ctx context.Context, args *Args) *Response {
	log := m.Log
	if log == nil {
		log = logger.Noop()
	}
	log = logger.WithRedaction(log, args.Secrets()...)

	params, err := args.Params()
	if err != nil {
		return Failure(args, err)
	}
	if params.Port == 0 {
		params.Port = m.DefaultPort
	}

	if args.CheckMode {
		log.Debug("running in check mode")
	}

	injector := inject.New(m.Dialer,
		inject.WithLogger(log),
		inject.WithCheckMode(args.CheckMode))

	result, err := injector.Run(ctx, params)
	if err != nil {
		log.Error("%s", failureMessage(err))
		return Failure(args, err)
	}
	return Success(args, result)
}
