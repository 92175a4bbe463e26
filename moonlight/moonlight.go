// Package moonlight talks to the Moonlight game streaming client: it finds the
// executable and asks it which apps a host offers.
package moonlight

import (
	"bytes"
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/grovetools/moonsync/command"
	"github.com/grovetools/moonsync/errors"
	"github.com/grovetools/moonsync/syncer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

const (
	// ExecutableName is looked up in PATH when no explicit path is given.
	ExecutableName = "moonlight"
	// FlatpakExecutableName runs sandboxed installs.
	FlatpakExecutableName = "flatpak"
	// DefaultFlatpakAppID is Moonlight's Flathub identifier.
	DefaultFlatpakAppID = "com.moonlight_stream.Moonlight"
)

// Installation describes how Moonlight is invoked.
type Installation struct {
	// Executable is the absolute path of moonlight, or of flatpak in
	// flatpak mode.
	Executable string
	// FlatpakAppID is set when Moonlight runs through flatpak.
	FlatpakAppID string
}

// Flatpak reports whether the installation runs through flatpak.
func (i Installation) Flatpak() bool {
	return i.FlatpakAppID != ""
}

func (i Installation) args(moonlightArgs ...string) []string {
	if !i.Flatpak() {
		return moonlightArgs
	}
	return append([]string{"run", i.FlatpakAppID}, moonlightArgs...)
}

// Launch returns the launch options prefix shortcuts use to stream from host.
func (i Installation) Launch(host string) syncer.LaunchSpec {
	verb := syncer.DefaultVerb
	if i.Flatpak() {
		verb = strings.Join(i.args(syncer.DefaultVerb), " ")
	}
	return syncer.LaunchSpec{Verb: verb, Address: host}
}

// Locate resolves the installation. An explicit path is made absolute and
// must name a regular file; otherwise the executable is looked up in PATH.
func Locate(fs afero.Fs, executor command.Executor, explicit string, flatpakAppID string) (Installation, error) {
	name := ExecutableName
	if flatpakAppID != "" {
		name = FlatpakExecutableName
	}

	inst := Installation{FlatpakAppID: flatpakAppID}

	if explicit == "" {
		path, err := executor.LookPath(name)
		if err != nil {
			return Installation{}, errors.CommandNotFound(name, err).
				WithStep(errors.StepResolve)
		}
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		inst.Executable = path
		return inst, nil
	}

	path, err := filepath.Abs(explicit)
	if err != nil {
		return Installation{}, errors.CommandNotFound(explicit, fmt.Errorf("failed to find absolute path of %s: %w", name, err)).
			WithStep(errors.StepResolve)
	}
	info, err := fs.Stat(path)
	if err != nil {
		return Installation{}, errors.CommandNotFound(path, err).
			WithStep(errors.StepResolve)
	}
	if !info.Mode().IsRegular() {
		return Installation{}, errors.CommandNotFound(path, fmt.Errorf("%s is not a file", path)).
			WithStep(errors.StepResolve)
	}
	inst.Executable = path
	return inst, nil
}

// Client enumerates host apps by running `moonlight list <host> --csv`.
type Client struct {
	builder *command.SafeBuilder
	install Installation
	logger  *logrus.Entry
}

// NewClient creates a client for an installation.
func NewClient(builder *command.SafeBuilder, install Installation, logger *logrus.Entry) *Client {
	return &Client{
		builder: builder,
		install: install,
		logger:  logger,
	}
}

// Installation returns the installation the client runs.
func (c *Client) Installation() Installation {
	return c.install
}

// List returns one row per app, without the header row.
func (c *Client) List(ctx context.Context, host string) ([][]string, error) {
	if err := c.builder.Validate("host", host); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid host").
			WithStep(errors.StepEnumerate)
	}

	cmd, err := c.builder.Build(ctx, c.install.Executable, c.install.args("list", host, "--csv")...)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to build moonlight command").
			WithStep(errors.StepEnumerate)
	}

	c.logger.WithField("command", cmd.String()).Debug("Retrieving apps from Moonlight")
	stdout, stderr, err := cmd.Output()
	if err != nil {
		syncErr := errors.CommandFailed(cmd.String(), err).WithStep(errors.StepEnumerate)
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			syncErr.Message = fmt.Sprintf("%s: %s", syncErr.Message, strings.Join(strings.Fields(msg), " "))
			syncErr.WithDetail("stderr", msg)
		}
		return nil, syncErr
	}
	c.logger.WithField("bytes", len(stdout)).Debug("Finished retrieving apps from Moonlight")

	return ParseList(stdout)
}

// ParseList parses Moonlight's CSV app list. The first record is the header
// and is dropped. Quotes inside unquoted fields are literal. Records keep
// whatever number of fields they have; arity is checked when rows become
// shortcuts.
func ParseList(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	// Titles such as `Halo "MCC"` arrive with bare quotes.
	r.LazyQuotes = true

	var rows [][]string
	header := true
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			line := 0
			if stderrors.As(err, &parseErr) {
				line = parseErr.Line
			}
			return nil, errors.MalformedCandidate(len(rows), fmt.Sprintf("failed to parse CSV from Moonlight: %v", err)).
				WithDetail("line", line)
		}
		if header {
			header = false
			continue
		}
		for _, field := range record {
			if !utf8.ValidString(field) {
				line, _ := r.FieldPos(0)
				return nil, errors.MalformedCandidate(len(rows), "CSV from Moonlight is not valid UTF-8").
					WithDetail("line", line)
			}
		}
		rows = append(rows, record)
	}
	return rows, nil
}
