package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rileyhilliard/sshcopyid/internal/ansible"
	"github.com/rileyhilliard/sshcopyid/internal/config"
	"github.com/rileyhilliard/sshcopyid/internal/errors"
	"github.com/rileyhilliard/sshcopyid/internal/logger"
	"github.com/rileyhilliard/sshcopyid/internal/ui"
	"github.com/rileyhilliard/sshcopyid/pkg/sshutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Global flags
var (
	cfgFile string
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "ssh_copy_id [args-file]",
	Short: "Put your SSH public key on a remote host using its password",
	Long: `ssh_copy_id logs in to a remote host with a username and password,
and appends a local SSH public key to that user's ~/.ssh/authorized_keys
over SFTP. Nothing is written when the key is already there.

Run as an Ansible module, it takes the path of the args file Ansible
writes and prints a single JSON result:

  ssh_copy_id /path/to/args

Run by hand, use the inject command:

  ssh_copy_id inject --host web1 --user deploy --password-file pw.txt`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.ConfigureColors(cmd.OutOrStdout(), noColor)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runModule(commandContext(cmd), args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "defaults file (default: ./.ssh-copy-id.yaml or ~/.config/ssh-copy-id/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output to stderr")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command and exits with the right status.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}

	if code, ok := errors.GetExitCode(err); ok {
		os.Exit(code)
	}

	if isUnknownCommandError(err) {
		if name := extractUnknownCommand(err); name != "" {
			fmt.Fprintf(os.Stderr, "Unknown command '%s'. Run 'ssh_copy_id --help' for usage.\n", name)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	ui.NewReport(os.Stderr).Error(err)
	os.Exit(1)
}

// runModule is the Ansible entry point. Every failure, including a broken
// args file, is reported as a JSON result on stdout.
func runModule(ctx context.Context, argsPath string, stdout io.Writer) error {
	args, err := ansible.LoadArgs(argsPath)
	if err != nil {
		return exitWith(ansible.Exit(stdout, ansible.Failure(nil, err)))
	}

	settings, err := loadSettings(nil)
	if err != nil {
		return exitWith(ansible.Exit(stdout, ansible.Failure(args, err)))
	}

	log := newModuleLogger(args.Debug || verbose)
	warn := func(message string) { log.Warn("%s", message) }
	sshutil.WarningHandler = warn

	policy, err := sshutil.ParseHostKeyPolicy(settings.HostKeyPolicy, settings.KnownHosts, warn)
	if err != nil {
		return exitWith(ansible.Exit(stdout, ansible.Failure(args, err)))
	}

	module := &ansible.Module{
		Dialer:      newDialer(policy, settings.Timeout),
		Log:         log,
		DefaultPort: portOverride(settings, false),
	}
	return exitWith(ansible.Exit(stdout, module.Run(ctx, args)))
}

// loadSettings finds the defaults file and merges it with env and flags.
func loadSettings(flags *pflag.FlagSet) (*config.Settings, error) {
	path, err := config.Find(cfgFile)
	if err != nil {
		return nil, err
	}
	return config.Load(path, flags)
}

// portOverride returns the port to force on a run that sets none. The
// default port is not forced so a Port line in ~/.ssh/config still applies,
// unless the user asked for it explicitly.
func portOverride(s *config.Settings, explicit bool) int {
	if s.Port == config.DefaultPort && !explicit {
		return 0
	}
	return s.Port
}

func newModuleLogger(debug bool) logger.Logger {
	if debug {
		return logger.NewDebugLogger("[ssh_copy_id]")
	}
	return logger.NewEnvLogger("[ssh_copy_id]")
}

func exitWith(code int) error {
	if code == 0 {
		return nil
	}
	return errors.NewExitError(code)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// isUnknownCommandError checks if the error is from an unknown command or flag.
func isUnknownCommandError(err error) bool {
	errStr := err.Error()
	return strings.Contains(errStr, "unknown command") || strings.Contains(errStr, "unknown flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "ssh_copy_id"` message.
func extractUnknownCommand(err error) string {
	errStr := err.Error()
	start := strings.Index(errStr, `"`)
	if start == -1 {
		return ""
	}
	end := strings.Index(errStr[start+1:], `"`)
	if end == -1 {
		return ""
	}
	return errStr[start+1 : start+1+end]
}
