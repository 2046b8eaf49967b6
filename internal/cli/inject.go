package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rileyhilliard/sshcopyid/internal/config"
	"github.com/rileyhilliard/sshcopyid/internal/errors"
	"github.com/rileyhilliard/sshcopyid/internal/inject"
	"github.com/rileyhilliard/sshcopyid/internal/logger"
	"github.com/rileyhilliard/sshcopyid/internal/ui"
	"github.com/rileyhilliard/sshcopyid/pkg/sshutil"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// injectOptions holds the flags of the inject command.
type injectOptions struct {
	Settings     SettingsFlags
	Host         string
	User         string
	Password     string
	PasswordFile string
	Check        bool
	JSON         bool
}

// newDialer builds the dialer used by both entry points. Tests swap it for a mock.
var newDialer = func(policy sshutil.HostKeyPolicy, timeout time.Duration) sshutil.Dialer {
	return sshutil.NewPasswordDialer(policy, timeout)
}

// stdinIsTerminal reports whether a password prompt can be shown.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newInjectCmd builds the inject command with its own flag storage.
func newInjectCmd() *cobra.Command {
	var opts injectOptions
	cmd := &cobra.Command{
		Use:   "inject",
		Short: "Inject your public key into a remote authorized_keys",
		Long: `Log in with a password and append a local public key to the remote
user's ~/.ssh/authorized_keys over SFTP. ~/.ssh is created with mode 0700
when missing and authorized_keys ends up with mode 0600. Nothing is written
when the key is already present.

The password is taken from --password, --password-file, or the
SSH_COPY_ID_PASSWORD environment variable. Without any of them you are
prompted when running in a terminal.

Examples:
  ssh_copy_id inject --host web1 --user deploy --password-file ~/.pw
  ssh_copy_id inject --host deploy@10.0.0.5 --port 2222
  ssh_copy_id inject --host web1 --user root --check --json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return injectCommand(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Host, "host", "H", "", "remote host, optionally as user@host")
	cmd.Flags().StringVarP(&opts.User, "user", "u", "", "remote user")
	cmd.Flags().StringVar(&opts.Password, "password", "", "login password (visible in process listings)")
	cmd.Flags().StringVar(&opts.PasswordFile, "password-file", "", "read the login password from a file")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "report what would change without writing")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output results as JSON")
	AddSettingsFlags(cmd, &opts.Settings)
	return cmd
}

func init() {
	rootCmd.AddCommand(newInjectCmd())
}

func injectCommand(cmd *cobra.Command, opts injectOptions) error {
	machineMode = opts.JSON
	out := cmd.OutOrStdout()

	if err := validateSettingsFlags(&opts.Settings); err != nil {
		return reportFailure(out, err)
	}
	settings, err := loadSettings(cmd.Flags())
	if err != nil {
		return reportFailure(out, err)
	}

	host, user := splitUserHost(opts.Host, opts.User)
	if host == "" || user == "" {
		return reportFailure(out, errors.New(errors.ErrInput,
			"--host and --user are required",
			"Example: ssh_copy_id inject --host web1 --user deploy"))
	}
	keyPath, err := resolveKeyPath(settings.PublicKey, homeDir())
	if err != nil {
		return reportFailure(out, err)
	}

	password, err := resolvePassword(passwordSources{
		Flag:        opts.Password,
		File:        opts.PasswordFile,
		Getenv:      os.Getenv,
		Interactive: !opts.JSON && stdinIsTerminal(),
		Prompt:      promptPassword(user, host),
	})
	if err != nil {
		return reportFailure(out, err)
	}

	params := config.Params{
		Hostname:      host,
		Username:      user,
		Password:      password,
		PublicKeyPath: keyPath,
		Port:          portOverride(settings, cmd.Flags().Changed("port")),
	}
	if err := params.Validate(); err != nil {
		return reportFailure(out, err)
	}

	log := newConsoleLogger(cmd.ErrOrStderr(), verbose)
	warn := func(message string) { log.Warn("%s", message) }
	sshutil.WarningHandler = warn

	policy, err := sshutil.ParseHostKeyPolicy(settings.HostKeyPolicy, settings.KnownHosts, warn)
	if err != nil {
		return reportFailure(out, err)
	}

	injector := inject.New(newDialer(policy, settings.Timeout),
		inject.WithLogger(log),
		inject.WithCheckMode(opts.Check))

	if opts.JSON {
		result, err := injector.Run(commandContext(cmd), params)
		if err != nil {
			return reportFailure(out, err)
		}
		return WriteJSONSuccess(out, result)
	}

	spinner := ui.NewSpinnerTo(out, fmt.Sprintf("Injecting key into %s@%s", user, host), ui.IsTerminal(out))
	spinner.Start()
	result, err := injector.Run(commandContext(cmd), params)
	if err != nil {
		spinner.Fail()
		return err
	}
	if result.Changed {
		spinner.Success()
	} else {
		spinner.Unchanged()
	}

	report := ui.NewReport(out)
	report.Result(result.Changed, result.Message, result.Path)
	if result.CreatedDir {
		verb := "created"
		if result.CheckMode {
			verb = "would create"
		}
		report.SubStatus(ui.SymbolPending, verb+" "+inject.SSHDir(user))
	}
	return nil
}

// reportFailure writes err as a JSON envelope in machine mode and hands it
// back for the usual rendering otherwise.
func reportFailure(w io.Writer, err error) error {
	if !machineMode {
		return err
	}
	if werr := WriteJSONFromError(w, err); werr != nil {
		return werr
	}
	return errors.NewExitError(1)
}

// splitUserHost accepts --host user@host. An explicit --user wins.
func splitUserHost(host, user string) (string, string) {
	if i := strings.LastIndex(host, "@"); i >= 0 {
		if user == "" {
			user = host[:i]
		}
		host = host[i+1:]
	}
	return host, user
}

// resolveKeyPath returns the configured key (from --key or the defaults
// file), falling back to the first standard key in ~/.ssh.
func resolveKeyPath(configured, home string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	if key := inject.PreferredPublicKey(home); key != nil {
		return key.Path, nil
	}
	return "", errors.New(errors.ErrInput,
		"No SSH public key found in ~/.ssh",
		"Generate one with: ssh-keygen -t ed25519\nOr point --key at an existing .pub file")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return os.Getenv("HOME")
	}
	return home
}

// consoleLogger shows warnings to the user and keeps the rest quiet.
type consoleLogger struct {
	w io.Writer
}

func newConsoleLogger(w io.Writer, debug bool) logger.Logger {
	if debug {
		return logger.NewDebugLogger("[ssh_copy_id]")
	}
	return &consoleLogger{w: w}
}

func (l *consoleLogger) Debug(format string, args ...interface{}) {}
func (l *consoleLogger) Info(format string, args ...interface{})  {}
func (l *consoleLogger) Error(format string, args ...interface{}) {}

func (l *consoleLogger) Warn(format string, args ...interface{}) {
	ui.FprintWarning(l.w, fmt.Sprintf(format, args...))
}
