package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/sshcopyid/internal/config"
	"github.com/rileyhilliard/sshcopyid/internal/errors"
	"github.com/rileyhilliard/sshcopyid/internal/ui"
	"github.com/spf13/cobra"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Path           string // Where to write; empty means ./.ssh-copy-id.yaml
	Global         bool   // Write ~/.config/ssh-copy-id/config.yaml instead
	Overwrite      bool   // Overwrite existing config without asking
	NonInteractive bool   // Skip prompts, use flags and defaults
}

// newInitCmd builds the init command with its own flag storage.
func newInitCmd() *cobra.Command {
	var (
		opts  InitOptions
		flags SettingsFlags
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a defaults file",
		Long: `Create a defaults file holding the port, timeout, host key policy,
known_hosts path and public key used when a run doesn't say otherwise.

Both the inject command and Ansible runs read it.

Examples:
  ssh_copy_id init
  ssh_copy_id init --global --host-key-policy reject
  ssh_copy_id init --non-interactive --key ~/.ssh/id_ed25519.pub`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			o := opts
			if !stdinIsTerminal() {
				o.NonInteractive = true
			}
			return initCommand(cmd, o, &flags)
		},
	}

	cmd.Flags().StringVar(&opts.Path, "path", "", "file to write (default: ./"+config.ConfigFileName+")")
	cmd.Flags().BoolVar(&opts.Global, "global", false, "write ~/"+config.GlobalConfigDir+"/"+config.GlobalConfigFile)
	cmd.Flags().BoolVarP(&opts.Overwrite, "force", "f", false, "overwrite an existing file")
	cmd.Flags().BoolVar(&opts.NonInteractive, "non-interactive", false, "don't prompt, use flags and defaults")
	AddSettingsFlags(cmd, &flags)
	return cmd
}

func init() {
	rootCmd.AddCommand(newInitCmd())
}

func initCommand(cmd *cobra.Command, opts InitOptions, flags *SettingsFlags) error {
	if err := validateSettingsFlags(flags); err != nil {
		return err
	}
	// Start from defaults, env and flags, ignoring any existing file.
	settings, err := config.Load("", cmd.Flags())
	if err != nil {
		return err
	}
	return Init(cmd.OutOrStdout(), settings, opts)
}

// Init writes settings to the defaults file chosen by opts, prompting for
// the main choices unless opts.NonInteractive is set.
func Init(w io.Writer, settings *config.Settings, opts InitOptions) error {
	path := initPath(opts)

	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("'%s' already exists. Overwrite?", path)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
	}

	if !opts.NonInteractive {
		if err := promptSettings(settings); err != nil {
			return err
		}
	}

	if err := config.ValidateSettings(settings); err != nil {
		return err
	}
	if err := config.Write(path, settings, true); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s Created %s\n\n", ui.SuccessStyle().Render(ui.SymbolSuccess), path)
	fmt.Fprintln(w, "Next steps:")
	fmt.Fprintln(w, "  ssh_copy_id inject --host <host> --user <user>")
	return nil
}

func initPath(opts InitOptions) string {
	switch {
	case opts.Path != "":
		return config.ExpandHome(opts.Path)
	case opts.Global:
		return filepath.Join(homeDir(), config.GlobalConfigDir, config.GlobalConfigFile)
	default:
		return filepath.Join(".", config.ConfigFileName)
	}
}

// promptSettings lets the user adjust the host key policy, default key and timeout.
func promptSettings(s *config.Settings) error {
	policy := s.HostKeyPolicy
	key := s.PublicKey
	timeout := s.Timeout.String()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Host key policy").
				Description("What to do with hosts missing from known_hosts").
				Options(
					huh.NewOption("warn - accept and record new hosts", config.PolicyWarn),
					huh.NewOption("reject - only hosts already in known_hosts", config.PolicyReject),
					huh.NewOption("pinned - known_hosts must exist and list the host", config.PolicyPinned),
					huh.NewOption("insecure - accept any host key", config.PolicyInsecure),
				).
				Value(&policy),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Default public key (optional)").
				Description("Leave empty to pick the first of ~/.ssh/id_{ed25519,ecdsa,rsa}.pub").
				Placeholder("~/.ssh/id_ed25519.pub").
				Value(&key),
			huh.NewInput().
				Title("Connect timeout").
				Value(&timeout).
				Validate(func(v string) error {
					_, err := ParseTimeout(strings.TrimSpace(v))
					return err
				}),
		),
	)

	if err := form.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or use --non-interactive flag")
	}

	s.HostKeyPolicy = policy
	s.PublicKey = strings.TrimSpace(key)
	if d, err := time.ParseDuration(strings.TrimSpace(timeout)); err == nil {
		s.Timeout = d
	}
	return nil
}
