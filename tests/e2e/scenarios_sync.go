package main

import (
	"fmt"
	"strings"

	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// runSync runs moonsync against the sandbox and fails on a non-zero exit.
func runSync(ctx *harness.Context, extra ...string) (string, error) {
	binary, err := findMoonsyncBinary()
	if err != nil {
		return "", err
	}
	cmd := ctx.Command(binary, syncArgs(ctx, extra...)...)
	result := cmd.Run()
	ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)
	if result.ExitCode != 0 {
		return "", fmt.Errorf("moonsync exited with %d: %s", result.ExitCode, result.Stderr)
	}
	return result.Stdout, nil
}

// SyncCreatesStoreScenario syncs into a user directory without shortcuts.vdf.
func SyncCreatesStoreScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "moonsync-sync-creates-store",
		Description: "Verifies that a first sync creates shortcuts.vdf with one shortcut per app.",
		Tags:        []string{"sync"},
		Steps: []harness.Step{
			harness.NewStep("Setup sandbox", func(ctx *harness.Context) error {
				return setupSandbox(ctx, "")
			}),
			harness.NewStep("Run sync", func(ctx *harness.Context) error {
				output, err := runSync(ctx)
				if err != nil {
					return err
				}
				if err := assert.Contains(output, "Found Moonlight at", "should report the executable"); err != nil {
					return err
				}
				if err := assert.Contains(output, "Creating shortcuts file at", "should report the new store"); err != nil {
					return err
				}
				if err := assert.Contains(output, `stream 192.168.1.5 "Halo"`, "should list the Halo shortcut"); err != nil {
					return err
				}
				if err := assert.Contains(output, "(icon: '/tmp/boxart/halo.png')", "file:// prefix should be stripped"); err != nil {
					return err
				}
				return assert.Contains(output, "Shortcuts file:", "should name the store")
			}),
			harness.NewStep("Verify store contents", func(ctx *harness.Context) error {
				content, err := fs.ReadString(ctx.GetString("store"))
				if err != nil {
					return fmt.Errorf("failed to read shortcuts file: %w", err)
				}
				for _, title := range []string{"Desktop", "Steam Big Picture", "Halo"} {
					if err := assert.Contains(content, fmt.Sprintf(`stream 192.168.1.5 "%s"`, title), "store should contain "+title); err != nil {
						return err
					}
				}
				if err := assert.Contains(content, "moonlight", "shortcuts should carry the moonlight tag"); err != nil {
					return err
				}
				return assert.NotContains(content, "file://", "icon references should be normalized")
			}),
		},
	}
}

// SyncIdempotentScenario verifies a second sync rewrites identical bytes.
func SyncIdempotentScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "moonsync-sync-idempotent",
		Description: "Verifies that syncing twice leaves the same shortcuts file.",
		Tags:        []string{"sync"},
		Steps: []harness.Step{
			harness.NewStep("Setup sandbox", func(ctx *harness.Context) error {
				return setupSandbox(ctx, "")
			}),
			harness.NewStep("Sync twice and compare", func(ctx *harness.Context) error {
				if _, err := runSync(ctx); err != nil {
					return err
				}
				first, err := fs.ReadString(ctx.GetString("store"))
				if err != nil {
					return err
				}

				output, err := runSync(ctx)
				if err != nil {
					return err
				}
				if err := assert.NotContains(output, "Creating shortcuts file", "second run should find the store"); err != nil {
					return err
				}
				second, err := fs.ReadString(ctx.GetString("store"))
				if err != nil {
					return err
				}
				if first != second {
					return fmt.Errorf("shortcuts file changed between identical syncs (%d -> %d bytes)", len(first), len(second))
				}
				return nil
			}),
		},
	}
}

// SyncDisabledAccumulatesScenario verifies --no-sync keeps earlier shortcuts.
func SyncDisabledAccumulatesScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "moonsync-sync-disabled-accumulates",
		Description: "Verifies that --no-sync appends without removing earlier shortcuts.",
		Tags:        []string{"sync"},
		Steps: []harness.Step{
			harness.NewStep("Setup sandbox", func(ctx *harness.Context) error {
				return setupSandbox(ctx, "")
			}),
			harness.NewStep("Sync twice without removal", func(ctx *harness.Context) error {
				for i := 0; i < 2; i++ {
					if _, err := runSync(ctx, "--no-sync"); err != nil {
						return fmt.Errorf("run %d: %w", i+1, err)
					}
				}
				content, err := fs.ReadString(ctx.GetString("store"))
				if err != nil {
					return err
				}
				return assert.Equal(2, strings.Count(content, `stream 192.168.1.5 "Halo"`), "Halo should appear once per run")
			}),
		},
	}
}

// DryRunScenario verifies --dry-run reports candidates and writes nothing.
func DryRunScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "moonsync-dry-run",
		Description: "Verifies that --dry-run --json reports the candidates without creating the store.",
		Tags:        []string{"sync"},
		Steps: []harness.Step{
			harness.NewStep("Setup sandbox", func(ctx *harness.Context) error {
				return setupSandbox(ctx, "")
			}),
			harness.NewStep("Run dry run", func(ctx *harness.Context) error {
				output, err := runSync(ctx, "--dry-run", "--json")
				if err != nil {
					return err
				}
				if err := assert.Contains(output, `"written": false`, "report should say nothing was written"); err != nil {
					return err
				}
				if err := assert.Contains(output, `"title": "Halo"`, "report should list candidates"); err != nil {
					return err
				}
				if fileExists(ctx.GetString("store")) {
					return fmt.Errorf("dry run created %s", ctx.GetString("store"))
				}
				return nil
			}),
		},
	}
}

// FlatpakLaunchOptionsScenario verifies the flatpak invocation and verb.
func FlatpakLaunchOptionsScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "moonsync-flatpak",
		Description: "Verifies that --flatpak enumerates through 'flatpak run' and launches through it.",
		Tags:        []string{"sync", "flatpak"},
		Steps: []harness.Step{
			harness.NewStep("Setup sandbox with fake flatpak", func(ctx *harness.Context) error {
				return setupSandbox(ctx, `if [ "$1" = "run" ] && [ "$2" = "com.moonlight_stream.Moonlight" ] && [ "$3" = "list" ]; then
echo "Name, ID, HDR Support, App Collection Game, Hidden, Direct Launch, Boxart URL"
echo "Halo,2071862125,true,false,false,false,file:///tmp/boxart/halo.png"
exit 0
fi
echo "unexpected arguments: $*" >&2
exit 2
`)
			}),
			harness.NewStep("Run flatpak sync", func(ctx *harness.Context) error {
				output, err := runSync(ctx, "--flatpak")
				if err != nil {
					return err
				}
				return assert.Contains(output, `run com.moonlight_stream.Moonlight stream 192.168.1.5 "Halo"`, "launch options should go through flatpak")
			}),
		},
	}
}
