package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/moonsync/cli"
	"github.com/grovetools/moonsync/config"
	"github.com/grovetools/moonsync/logging"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewConfigCmd groups the configuration subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate the moonsync configuration",
	}
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSchemaCmd())
	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging the config file, moonsync.env
and MOONSYNC_* environment variables over the defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cli.LoadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if cli.GetOptions(cmd).JSONOutput {
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal config to JSON: %w", err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			if cfg.Source != "" {
				fmt.Fprintf(out, "# Source: %s\n", cfg.Source)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config to YAML: %w", err)
			}
			fmt.Fprint(out, string(data))
			return nil
		},
	}
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [file]",
		Short: "Check a configuration file against the schema",
		Long: `Check a configuration file against the schema and the value rules.

Without an argument the --config file, or the file found in the config
directory, is checked.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cli.InitConfig(cli.GetOptions(cmd).ConfigFile)
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no configuration file found; pass one as an argument")
			}
			if _, err := config.Load(path); err != nil {
				return err
			}
			logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).Success(fmt.Sprintf("%s is valid", path))
			return nil
		},
	}
}
