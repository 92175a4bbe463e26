package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/grovetools/moonsync/errors"
)

// stepless is printed for failures that happen before any pipeline step,
// such as bad arguments.
const stepless = "cli"

// ErrorHandler provides user-friendly error messages
type ErrorHandler struct {
	Verbose bool
	Out     io.Writer
}

// NewErrorHandler creates a new error handler writing to stderr
func NewErrorHandler(verbose bool) *ErrorHandler {
	return &ErrorHandler{
		Verbose: verbose,
		Out:     os.Stderr,
	}
}

// Handle prints one diagnostic line naming the failing step, followed by
// the JSON error details in verbose mode. It returns err unchanged.
func (h *ErrorHandler) Handle(err error) error {
	if err == nil {
		return nil
	}

	syncErr, ok := errors.As(err)
	if !ok {
		fmt.Fprintf(h.Out, "Error: [%s] %s\n", stepless, singleLine(err.Error()))
		return err
	}

	step := string(errors.GetStep(err))
	if step == "" {
		step = stepless
	}

	message := syncErr.Message
	if syncErr.Cause != nil {
		message += ": " + syncErr.Cause.Error()
	}
	if hint := hintFor(syncErr); hint != "" {
		message += " (" + hint + ")"
	}
	fmt.Fprintf(h.Out, "Error: [%s] %s\n", step, singleLine(message))

	if h.Verbose {
		fmt.Fprintf(h.Out, "\nError details:\n%s\n", syncErr.ToJSON())
	}
	return err
}

// singleLine folds line breaks so a diagnostic never spans lines.
func singleLine(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	lines := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' })
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, " ")
}

func hintFor(err *errors.SyncError) string {
	switch err.Code {
	case errors.ErrCodeCommandNotFound:
		return "install Moonlight, pass --moonlight PATH, or use --flatpak"
	case errors.ErrCodeUserDirNotFound:
		return "pass --steam-userdata DIR"
	case errors.ErrCodeConfigNotFound:
		return "check the --config path"
	case errors.ErrCodeFormat:
		return "the shortcuts file was left untouched"
	}
	return ""
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
