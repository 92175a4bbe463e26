package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/grovetools/moonsync/pkg/paths"
	"github.com/spf13/cobra"
)

// PathsOutput represents the directories moonsync reads and writes.
type PathsOutput struct {
	ConfigDir     string `json:"config_dir"`
	StateDir      string `json:"state_dir"`
	LogDir        string `json:"log_dir"`
	SteamUserdata string `json:"steam_userdata"`
}

func NewPathsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print the directories used by moonsync",
		Long: `Print the directories used by moonsync.

This command outputs the paths in JSON format, making it easy
to parse from scripts and other tools.

- config_dir: config.yml and moonsync.env
- state_dir: runtime state
- log_dir: log files, when file logging is enabled
- steam_userdata: the default Steam userdata directory`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := PathsOutput{
				ConfigDir:     paths.ConfigDir(),
				StateDir:      paths.StateDir(),
				LogDir:        paths.LogDir(),
				SteamUserdata: paths.SteamUserdataDir(),
			}

			jsonData, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal paths to JSON: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
			return nil
		},
	}

	return cmd
}
