package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/grovetools/tend/pkg/fs"
	"github.com/grovetools/tend/pkg/harness"
)

// hostAddress is the host every scenario syncs from.
const hostAddress = "192.168.1.5"

// listCSV is what the fake Moonlight prints for `list <host> --csv`.
const listCSV = `Name, ID, HDR Support, App Collection Game, Hidden, Direct Launch, Boxart URL
Desktop,881448767,false,false,false,false,qrc:/res/no_app_image.png
Steam Big Picture,1093255277,false,false,false,false,file:///tmp/boxart/steam.png
Halo,2071862125,true,false,false,false,file:///tmp/boxart/halo.png
`

// findMoonsyncBinary finds the moonsync binary under test.
// It relies on the caller putting the freshly built binary in PATH.
func findMoonsyncBinary() (string, error) {
	path, err := exec.LookPath("moonsync")
	if err != nil {
		return "", fmt.Errorf("could not find 'moonsync' binary in PATH. Build it into ./bin and add that to PATH")
	}
	return path, nil
}

// writeFakeMoonlight writes an executable shell script standing in for
// Moonlight and returns its path.
func writeFakeMoonlight(dir, body string) (string, error) {
	if err := fs.CreateDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "moonlight")
	script := "#!/bin/sh\n" + body
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		return "", fmt.Errorf("failed to write fake moonlight: %w", err)
	}
	return path, nil
}

// listingMoonlight answers `list <host> --csv` with listCSV.
func listingMoonlight(dir string) (string, error) {
	return writeFakeMoonlight(dir, `if [ "$1" = "list" ] && [ "$3" = "--csv" ]; then
cat <<'CSV'
`+listCSV+`CSV
exit 0
fi
echo "unexpected arguments: $*" >&2
exit 2
`)
}

// setupSandbox creates a fake Moonlight, an empty config file and a Steam
// user directory, storing their paths in the context.
func setupSandbox(ctx *harness.Context, moonlightBody string) error {
	root := ctx.NewDir("moonsync")

	var moonlight string
	var err error
	if moonlightBody == "" {
		moonlight, err = listingMoonlight(filepath.Join(root, "bin"))
	} else {
		moonlight, err = writeFakeMoonlight(filepath.Join(root, "bin"), moonlightBody)
	}
	if err != nil {
		return err
	}

	userDir := filepath.Join(root, "Steam", "userdata", "12345678")
	if err := fs.CreateDir(filepath.Join(userDir, "config")); err != nil {
		return fmt.Errorf("failed to create steam user dir: %w", err)
	}
	if err := fs.WriteString(filepath.Join(userDir, "config", "localconfig.vdf"),
		"\"UserLocalConfigStore\"\n{\n\t\"friends\"\n\t{\n\t\t\"PersonaName\"\t\t\"e2e-player\"\n\t}\n}\n"); err != nil {
		return err
	}

	configPath := filepath.Join(root, "config.yml")
	if err := fs.WriteString(configPath, "sync: true\n"); err != nil {
		return err
	}

	ctx.Set("moonlight", moonlight)
	ctx.Set("user_dir", userDir)
	ctx.Set("store", filepath.Join(userDir, "config", "shortcuts.vdf"))
	ctx.Set("config", configPath)
	return nil
}

// syncArgs builds the argument list for a sync run against the sandbox.
func syncArgs(ctx *harness.Context, extra ...string) []string {
	args := []string{
		hostAddress,
		"--config", ctx.GetString("config"),
		"-m", ctx.GetString("moonlight"),
		"-s", ctx.GetString("user_dir"),
	}
	return append(args, extra...)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
