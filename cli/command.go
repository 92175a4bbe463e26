package cli

import (
	"github.com/grovetools/moonsync/config"
	"github.com/grovetools/moonsync/logging"
	"github.com/grovetools/moonsync/pkg/paths"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommandOptions holds common options for moonsync commands
type CommandOptions struct {
	ConfigFile string
	Verbose    bool
	JSONOutput bool
}

// NewStandardCommand creates a new command with the standard flags
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to config file")

	SetStyledHelp(cmd)

	return cmd
}

// GetLogger returns the component logger, raised to debug with --verbose.
func GetLogger(cmd *cobra.Command, component string) *logrus.Entry {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logging.SetLevel("debug")
	}
	return logging.NewLogger(component)
}

// GetOptions extracts common options from a command
func GetOptions(cmd *cobra.Command) CommandOptions {
	configFile, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return CommandOptions{
		ConfigFile: configFile,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
	}
}

// InitConfig returns the config file a command will read: the --config
// value, or the first config file in the config directory. An empty
// result means defaults apply.
func InitConfig(configFile string) string {
	if configFile != "" {
		return configFile
	}
	return config.FindConfigFile(paths.ConfigDir())
}

// LoadConfig loads the effective configuration for a command and hands its
// logging section to the logging package.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	opts := GetOptions(cmd)
	if opts.Verbose {
		logging.SetLevel("debug")
	}
	cfg, err := config.LoadDefaultWithLogger(opts.ConfigFile, logging.NewLogger("config").Logger)
	if err != nil {
		return nil, err
	}
	if err := logging.Configure(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
