package main

import (
	"fmt"

	"github.com/grovetools/tend/pkg/assert"
	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// expectFailure runs moonsync, expecting exit 1 and a diagnostic for step.
func expectFailure(ctx *harness.Context, step string, args ...string) (string, error) {
	binary, err := findMoonsyncBinary()
	if err != nil {
		return "", err
	}
	cmd := ctx.Command(binary, args...)
	result := cmd.Run()
	ctx.ShowCommandOutput(cmd.String(), result.Stdout, result.Stderr)

	if err := assert.Equal(1, result.ExitCode, "moonsync should fail"); err != nil {
		return "", err
	}
	if err := assert.Contains(result.Stderr, fmt.Sprintf("Error: [%s]", step), "diagnostic should name the step"); err != nil {
		return "", err
	}
	return result.Stderr, nil
}

// EnumerationFailureScenario verifies Moonlight's stderr is reported.
func EnumerationFailureScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "moonsync-enumeration-failure",
		Description: "Verifies that a failing 'moonlight list' aborts before writing.",
		Tags:        []string{"failure"},
		Steps: []harness.Step{
			harness.NewStep("Setup sandbox with failing moonlight", func(ctx *harness.Context) error {
				return setupSandbox(ctx, "echo \"Failed to connect to 192.168.1.5\" >&2\nexit 1\n")
			}),
			harness.NewStep("Run sync", func(ctx *harness.Context) error {
				stderr, err := expectFailure(ctx, "enumerate", syncArgs(ctx)...)
				if err != nil {
					return err
				}
				if err := assert.Contains(stderr, "Failed to connect to 192.168.1.5", "moonlight's stderr should be included"); err != nil {
					return err
				}
				if fileExists(ctx.GetString("store")) {
					return fmt.Errorf("failed run created %s", ctx.GetString("store"))
				}
				return nil
			}),
		},
	}
}

// MalformedRowScenario verifies a short row aborts the whole sync.
func MalformedRowScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "moonsync-malformed-row",
		Description: "Verifies that a row without seven columns fails in materialize and writes nothing.",
		Tags:        []string{"failure"},
		Steps: []harness.Step{
			harness.NewStep("Setup sandbox with a short row", func(ctx *harness.Context) error {
				return setupSandbox(ctx, `echo "Name, ID, HDR Support, App Collection Game, Hidden, Direct Launch, Boxart URL"
echo "Desktop,881448767,false,false,false,false,qrc:/res/no_app_image.png"
echo "Halo,2071862125,true,false,false,file:///tmp/boxart/halo.png"
`)
			}),
			harness.NewStep("Run sync", func(ctx *harness.Context) error {
				if _, err := expectFailure(ctx, "materialize", syncArgs(ctx)...); err != nil {
					return err
				}
				if fileExists(ctx.GetString("store")) {
					return fmt.Errorf("failed run created %s", ctx.GetString("store"))
				}
				return nil
			}),
		},
	}
}

// CorruptStoreScenario verifies an unreadable store is left untouched.
func CorruptStoreScenario() *harness.Scenario {
	const garbage = "this is not a shortcuts file"
	return &harness.Scenario{
		Name:        "moonsync-corrupt-store",
		Description: "Verifies that a malformed shortcuts.vdf fails in load and is not overwritten.",
		Tags:        []string{"failure"},
		Steps: []harness.Step{
			harness.NewStep("Setup sandbox with corrupt store", func(ctx *harness.Context) error {
				if err := setupSandbox(ctx, ""); err != nil {
					return err
				}
				return fs.WriteString(ctx.GetString("store"), garbage)
			}),
			harness.NewStep("Run sync", func(ctx *harness.Context) error {
				if _, err := expectFailure(ctx, "load", syncArgs(ctx)...); err != nil {
					return err
				}
				content, err := fs.ReadString(ctx.GetString("store"))
				if err != nil {
					return err
				}
				return assert.Equal(garbage, content, "store should be unchanged")
			}),
		},
	}
}

// MissingMoonlightScenario verifies a bad --moonlight path fails in resolve.
func MissingMoonlightScenario() *harness.Scenario {
	return &harness.Scenario{
		Name:        "moonsync-missing-moonlight",
		Description: "Verifies that a nonexistent --moonlight path is reported before anything else runs.",
		Tags:        []string{"failure"},
		Steps: []harness.Step{
			harness.NewStep("Setup sandbox", func(ctx *harness.Context) error {
				return setupSandbox(ctx, "")
			}),
			harness.NewStep("Run sync with a bad path", func(ctx *harness.Context) error {
				args := append(syncArgs(ctx), "-m", "/nonexistent/moonlight")
				_, err := expectFailure(ctx, "resolve", args...)
				return err
			}),
		},
	}
}
