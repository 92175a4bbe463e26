package errors

import (
	"fmt"
	"os/exec"
)

// FormatError reports a shortcut store that does not match the binary grammar.
func FormatError(offset int, reason string) *SyncError {
	return New(ErrCodeFormat, fmt.Sprintf("malformed shortcut store at byte %d: %s", offset, reason)).
		WithDetail("offset", offset).
		WithStep(StepLoad)
}

// MalformedCandidate reports an enumerated row that cannot become a shortcut.
func MalformedCandidate(row int, reason string) *SyncError {
	return New(ErrCodeMalformedCandidate, fmt.Sprintf("malformed candidate in row %d: %s", row, reason)).
		WithDetail("row", row).
		WithStep(StepMaterialize)
}

// IOError wraps a filesystem failure.
func IOError(op, path string, err error) *SyncError {
	return Wrap(err, ErrCodeIO, fmt.Sprintf("failed to %s %s", op, path)).
		WithDetail("op", op).
		WithDetail("path", path)
}

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *SyncError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path).
		WithStep(StepConfig)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *SyncError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason)).
		WithStep(StepConfig)
}

// CommandNotFound creates an error for a missing executable.
func CommandNotFound(name string, err error) *SyncError {
	return Wrap(err, ErrCodeCommandNotFound, fmt.Sprintf("could not find executable '%s'", name)).
		WithDetail("command", name)
}

// CommandFailed creates a command execution failure error
func CommandFailed(cmd string, err error) *SyncError {
	syncErr := Wrap(err, ErrCodeCommandFailed, fmt.Sprintf("command failed: %s", cmd)).
		WithDetail("command", cmd)

	// Extract exit code if available
	if exitErr, ok := err.(*exec.ExitError); ok {
		syncErr = syncErr.WithDetail("exitCode", exitErr.ExitCode())
	}

	return syncErr
}

// UserDirNotFound reports that no Steam user directory could be selected.
func UserDirNotFound(dir string, reason string) *SyncError {
	return New(ErrCodeUserDirNotFound, fmt.Sprintf("no Steam user directory in %s: %s", dir, reason)).
		WithDetail("path", dir).
		WithStep(StepResolve)
}
