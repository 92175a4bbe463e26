package command

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"
)

const (
	// MaxTimeout is the maximum allowed timeout
	MaxTimeout = 10 * time.Minute
)

var (
	hostPattern      = regexp.MustCompile(`^[A-Za-z0-9\[][A-Za-z0-9._:%\[\]-]*$`)
	flatpakIDPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*(\.[A-Za-z_][A-Za-z0-9_-]*){2,}$`)
)

// SafeBuilder validates arguments and builds commands bound to a timeout.
type SafeBuilder struct {
	defaultTimeout time.Duration
	validators     map[string]func(string) error
	executor       Executor
}

// NewSafeBuilder creates a new SafeBuilder instance with a RealExecutor
func NewSafeBuilder() *SafeBuilder {
	return NewSafeBuilderWithExecutor(&RealExecutor{})
}

// NewSafeBuilderWithExecutor creates a new SafeBuilder with a custom Executor
func NewSafeBuilderWithExecutor(exec Executor) *SafeBuilder {
	return &SafeBuilder{
		validators: makeDefaultValidators(),
		executor:   exec,
	}
}

// Executor returns the executor commands are created with.
func (sb *SafeBuilder) Executor() Executor {
	return sb.executor
}

// WithDefaultTimeout bounds every command built afterwards. Zero disables the
// bound; values above MaxTimeout are capped.
func (sb *SafeBuilder) WithDefaultTimeout(timeout time.Duration) *SafeBuilder {
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	sb.defaultTimeout = timeout
	return sb
}

func makeDefaultValidators() map[string]func(string) error {
	return map[string]func(string) error{
		"host":       validateHost,
		"executable": validateExecutable,
		"flatpakID":  validateFlatpakID,
	}
}

// validateHost accepts hostnames, IPv4 and bracketed IPv6 addresses with an
// optional port. The host ends up inside Steam launch options, so whitespace
// and quotes are rejected.
func validateHost(host string) error {
	if host == "" {
		return fmt.Errorf("host cannot be empty")
	}
	if !hostPattern.MatchString(host) {
		return fmt.Errorf("invalid host: %q (must be a hostname or address without spaces or quotes)", host)
	}
	return nil
}

// validateExecutable rejects paths that cannot be written into a shortcut.
func validateExecutable(path string) error {
	if path == "" {
		return fmt.Errorf("executable path cannot be empty")
	}
	if strings.ContainsAny(path, "\x00\n\"") {
		return fmt.Errorf("executable path contains invalid characters")
	}
	return nil
}

// validateFlatpakID checks reverse-DNS application identifiers.
func validateFlatpakID(id string) error {
	if id == "" {
		return fmt.Errorf("flatpak app id cannot be empty")
	}
	if !flatpakIDPattern.MatchString(id) {
		return fmt.Errorf("invalid flatpak app id: %s", id)
	}
	return nil
}

// Command represents a safe command configuration
type Command struct {
	parent   context.Context
	ctx      context.Context
	cancel   context.CancelFunc
	name     string
	args     []string
	timeout  time.Duration
	executor Executor
}

// Build creates a new command with validation
func (sb *SafeBuilder) Build(ctx context.Context, name string, args ...string) (*Command, error) {
	if name == "" {
		return nil, fmt.Errorf("command name cannot be empty")
	}

	cmd := &Command{
		parent:   ctx,
		name:     name,
		args:     args,
		executor: sb.executor,
	}
	cmd.bind(sb.defaultTimeout)
	return cmd, nil
}

func (c *Command) bind(timeout time.Duration) {
	if c.cancel != nil {
		c.cancel()
	}
	if timeout > 0 {
		c.ctx, c.cancel = context.WithTimeout(c.parent, timeout)
	} else {
		c.ctx, c.cancel = context.WithCancel(c.parent)
	}
	c.timeout = timeout
}

// WithTimeout sets a custom timeout for the command, keeping the parent
// context it was built with.
func (c *Command) WithTimeout(timeout time.Duration) *Command {
	if timeout > MaxTimeout {
		timeout = MaxTimeout
	}
	c.bind(timeout)
	return c
}

// String renders the command line for logs and error messages.
func (c *Command) String() string {
	return strings.Join(append([]string{c.name}, c.args...), " ")
}

// Validate validates specific arguments
func (sb *SafeBuilder) Validate(argType string, value string) error {
	validator, exists := sb.validators[argType]
	if !exists {
		return fmt.Errorf("no validator for argument type: %s", argType)
	}

	return validator(value)
}

// Exec creates and returns an exec.Cmd
func (c *Command) Exec() *exec.Cmd {
	return c.executor.CommandContext(c.ctx, c.name, c.args...) //nolint:gosec // SafeBuilder provides validation
}

// Output runs the command and returns its stdout. Stderr is captured
// separately and returned alongside any error.
func (c *Command) Output() (stdout, stderr []byte, err error) {
	defer c.cancel()

	var out, errOut bytes.Buffer
	cmd := c.Exec()
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err = cmd.Run()
	if err != nil && c.ctx.Err() == context.DeadlineExceeded {
		err = fmt.Errorf("timed out after %s: %w", c.timeout, err)
	}
	return out.Bytes(), errOut.Bytes(), err
}
