package main

import (
	"fmt"
	"path/filepath"

	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/command"
	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// VersionScenario tests the 'version' command.
func VersionScenario() *harness.Scenario {
	return &harness.Scenario{
		Name: "moonsync-basic-version",
		Tags: []string{"basic"},
		Steps: []harness.Step{
			harness.NewStep("Run 'moonsync version'", func(ctx *harness.Context) error {
				binary, err := findMoonsyncBinary()
				if err != nil {
					return err
				}

				cmd := command.New(binary, "version")
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

				if err := assert.Equal(0, result.ExitCode, "moonsync version should exit successfully"); err != nil {
					return err
				}
				if err := assert.Contains(result.Stdout, "moonsync", "Output should name the tool"); err != nil {
					return err
				}
				if err := assert.Contains(result.Stdout, "Commit:", "Output should contain Commit"); err != nil {
					return err
				}
				return assert.Contains(result.Stdout, "Platform:", "Output should contain Platform")
			}),
		},
	}
}

// PathsScenario tests that 'paths' prints JSON.
func PathsScenario() *harness.Scenario {
	return &harness.Scenario{
		Name: "moonsync-basic-paths",
		Tags: []string{"basic"},
		Steps: []harness.Step{
			harness.NewStep("Run 'moonsync paths'", func(ctx *harness.Context) error {
				binary, err := findMoonsyncBinary()
				if err != nil {
					return err
				}

				cmd := ctx.Command(binary, "paths")
				result := cmd.Run()
				ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

				if err := assert.Equal(0, result.ExitCode, "moonsync paths should exit successfully"); err != nil {
					return err
				}
				if err := assert.Contains(result.Stdout, `"config_dir"`, "Output should contain config_dir"); err != nil {
					return err
				}
				return assert.Contains(result.Stdout, `"steam_userdata"`, "Output should contain steam_userdata")
			}),
		},
	}
}

// ConfigShowScenario verifies the effective configuration is printed.
func ConfigShowScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "moonsync-config-show",
		Description: "Verifies that 'config show' prints file values with defaults filled in.",
		Tags:        []string{"config"},
		Steps: []harness.Step{
			{
				Name: "Write a config file and show it",
				Func: func(ctx *harness.Context) error {
					dir := ctx.NewDir("config-show")
					if err := fs.CreateDir(dir); err != nil {
						return err
					}
					configPath := filepath.Join(dir, "config.yml")
					if err := fs.WriteString(configPath, "host: gaming-pc\nflatpak: true\nlogging:\n  level: warn\n"); err != nil {
						return err
					}

					binary, err := findMoonsyncBinary()
					if err != nil {
						return err
					}
					cmd := ctx.Command(binary, "config", "show", "--config", configPath)
					result := cmd.Run()
					ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
					if result.Error != nil {
						return fmt.Errorf("`moonsync config show` failed: %w", result.Error)
					}

					output := result.Stdout
					if err := assert.Contains(output, "host: gaming-pc", "file value should be shown"); err != nil {
						return err
					}
					if err := assert.Contains(output, "flatpak_app_id: com.moonlight_stream.Moonlight", "flatpak app id should default"); err != nil {
						return err
					}
					return assert.Contains(output, "level: warn", "extensions should be kept")
				},
			},
		},
	}
}

// ConfigValidateScenario verifies unknown keys are rejected.
func ConfigValidateScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "moonsync-config-validate",
		Description: "Verifies that 'config validate' accepts good files and rejects unknown keys.",
		Tags:        []string{"config"},
		Steps: []harness.Step{
			{
				Name: "Validate a good and a bad file",
				Func: func(ctx *harness.Context) error {
					dir := ctx.NewDir("config-validate")
					if err := fs.CreateDir(dir); err != nil {
						return err
					}
					good := filepath.Join(dir, "good.yml")
					bad := filepath.Join(dir, "bad.yml")
					if err := fs.WriteString(good, "host: gaming-pc\ntimeout: 30s\n"); err != nil {
						return err
					}
					if err := fs.WriteString(bad, "hots: gaming-pc\n"); err != nil {
						return err
					}

					binary, err := findMoonsyncBinary()
					if err != nil {
						return err
					}

					goodResult := ctx.Command(binary, "config", "validate", good).Run()
					ctx.ShowCommandOutput("moonsync config validate good.yml", goodResult.Stdout, goodResult.Stderr)
					if err := assert.Equal(0, goodResult.ExitCode, "good config should validate"); err != nil {
						return err
					}

					badResult := ctx.Command(binary, "config", "validate", bad).Run()
					ctx.ShowCommandOutput("moonsync config validate bad.yml", badResult.Stdout, badResult.Stderr)
					if err := assert.Equal(1, badResult.ExitCode, "bad config should fail"); err != nil {
						return err
					}
					return assert.Contains(badResult.Stderr, "Error: [config]", "diagnostic should name the config step")
				},
			},
		},
	}
}
