package cmd

import (
	"fmt"
	"os"

	"github.com/grovetools/moonsync/cli"
	"github.com/grovetools/moonsync/command"
	"github.com/grovetools/moonsync/config"
	"github.com/grovetools/moonsync/errors"
	"github.com/grovetools/moonsync/logging"
	"github.com/grovetools/moonsync/moonlight"
	"github.com/grovetools/moonsync/steam"
	"github.com/grovetools/moonsync/syncer"
	"github.com/grovetools/moonsync/tui/picker"
	"github.com/grovetools/moonsync/tui/theme"
	"github.com/grovetools/moonsync/util/pathutil"
	"github.com/grovetools/moonsync/version"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type syncFlags struct {
	moonlight     string
	steamUserdata string
	flatpak       bool
	noSync        bool
	dryRun        bool
	timeout       string
}

func (f *syncFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.moonlight, "moonlight", "m", "", "Path to the Moonlight executable (default: moonlight in PATH)")
	fs.StringVarP(&f.steamUserdata, "steam-userdata", "s", "", "Steam userdata directory or a user directory inside it")
	fs.BoolVarP(&f.flatpak, "flatpak", "f", false, "Run Moonlight through flatpak")
	fs.BoolVar(&f.noSync, "no-sync", false, "Keep shortcuts created by earlier runs")
	fs.BoolVar(&f.dryRun, "dry-run", false, "Show the shortcuts that would be written without writing")
	fs.StringVar(&f.timeout, "timeout", "", "Time limit for asking Moonlight for the app list, e.g. 30s (0 = none)")
}

// NewRootCmd builds the moonsync command tree.
func NewRootCmd() *cobra.Command {
	var flags syncFlags

	rootCmd := cli.NewStandardCommand(
		"moonsync [host]",
		"Add the apps a Moonlight host can stream to Steam as shortcuts",
	)
	rootCmd.Long = `Add the apps a Moonlight host can stream to Steam as shortcuts.

moonsync asks Moonlight which apps the host offers and writes one
non-Steam shortcut per app into the Steam user's shortcuts.vdf. Shortcuts
it created on an earlier run are replaced; every other shortcut is kept
exactly as it was.

Examples:
  # Sync the apps of a host into the only Steam account
  moonsync 192.168.1.5

  # Use the Flatpak build of Moonlight and keep earlier shortcuts
  moonsync gaming-pc --flatpak --no-sync

  # Show what would change
  moonsync gaming-pc --dry-run --json`
	rootCmd.Args = cobra.MaximumNArgs(1)

	flags.register(rootCmd.Flags())

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runSync(cmd, args, flags)
	}

	cli.SetVersionTemplate(rootCmd, version.GetInfo())
	rootCmd.AddCommand(cli.NewVersionCommand("moonsync"))
	rootCmd.AddCommand(NewPathsCmd())
	rootCmd.AddCommand(NewConfigCmd())

	cli.ApplyStyledHelpRecursive(rootCmd)
	return rootCmd
}

// applyFlags overlays explicitly set flags onto the loaded configuration.
func applyFlags(cmd *cobra.Command, args []string, flags syncFlags, cfg *config.Config) error {
	if len(args) == 1 {
		cfg.Host = args[0]
	}
	changed := cmd.Flags().Changed
	if changed("moonlight") {
		cfg.Moonlight = flags.moonlight
	}
	if changed("steam-userdata") {
		cfg.SteamUserdata = flags.steamUserdata
	}
	if changed("flatpak") {
		cfg.Flatpak = flags.flatpak
	}
	if changed("no-sync") {
		enabled := !flags.noSync
		cfg.Sync = &enabled
	}
	if changed("timeout") {
		cfg.Timeout = flags.timeout
	}
	cfg.SetDefaults()

	for _, p := range []*string{&cfg.Moonlight, &cfg.SteamUserdata} {
		expanded, err := pathutil.Expand(*p)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to expand path").
				WithDetail("path", *p).
				WithStep(errors.StepConfig)
		}
		*p = expanded
	}

	if cfg.Host == "" {
		return errors.New(errors.ErrCodeInvalidInput, "no host given; pass it as an argument or set host in the config").
			WithStep(errors.StepConfig)
	}
	return cfg.Validate()
}

func runSync(cmd *cobra.Command, args []string, flags syncFlags) error {
	opts := cli.GetOptions(cmd)

	cfg, err := cli.LoadConfig(cmd)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, args, flags, cfg); err != nil {
		return err
	}

	var tuiCfg config.TUIConfig
	if err := cfg.UnmarshalExtension("tui", &tuiCfg); err == nil {
		theme.SetTheme(tuiCfg.Theme)
	}

	logger := cli.GetLogger(cmd, "moonsync")
	pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return err
	}

	executor := &command.RealExecutor{}
	builder := command.NewSafeBuilderWithExecutor(executor).WithDefaultTimeout(timeout)

	appID := ""
	if cfg.Flatpak {
		appID = cfg.FlatpakAppID
	}
	install, err := moonlight.Locate(afero.NewOsFs(), executor, cfg.Moonlight, appID)
	if err != nil {
		return err
	}
	if !opts.JSONOutput {
		pretty.FoundMoonlight(install.Executable)
	}

	resolver := steam.NewResolver(newChooser(), logger)
	userDir, err := resolver.ResolveUserDir(cfg.SteamUserdata)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"dir":     userDir,
		"persona": steam.PersonaName(resolver.FS, userDir),
	}).Debug("Resolved Steam user directory")

	client := moonlight.NewClient(builder, install, logger)
	runner := syncer.NewRunner(client, logger)
	report, err := runner.Run(cmd.Context(), syncer.RunOptions{
		Options: syncer.Options{
			SyncEnabled: cfg.SyncEnabled(),
			Executable:  install.Executable,
			Launch:      install.Launch(cfg.Host),
		},
		StorePath: steam.ShortcutsPath(userDir),
		Host:      cfg.Host,
		DryRun:    flags.dryRun,
	})
	if err != nil {
		return err
	}

	switch {
	case opts.JSONOutput:
		return cli.PrintReportJSON(cmd.OutOrStdout(), report)
	case flags.dryRun:
		cli.PrintDryRun(cmd.OutOrStdout(), report)
	default:
		if !report.Existed {
			pretty.CreatingStore(report.StorePath)
		}
		if len(report.Added) == 0 {
			pretty.Warning(fmt.Sprintf("Moonlight listed no apps for %s", cfg.Host))
		}
		for _, c := range report.Added {
			pretty.Shortcut(c.Title, report.Executable, c.LaunchOptions, c.Icon)
		}
		pretty.StoreLocation(report.StorePath)
	}
	return nil
}

// newChooser returns the interactive account picker when both ends of the
// session are terminals, and nil otherwise.
func newChooser() steam.Chooser {
	if isTerminal(os.Stdin) && isTerminal(os.Stdout) {
		return &picker.Picker{}
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
