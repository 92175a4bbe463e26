package config

import (
	"fmt"

	"github.com/grovetools/moonsync/command"
	"github.com/grovetools/moonsync/errors"
)

// Validate checks field values the schema cannot express.
func (c *Config) Validate() error {
	sb := command.NewSafeBuilder()

	if c.Host != "" {
		if err := sb.Validate("host", c.Host); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid host").
				WithDetail("host", c.Host).
				WithStep(errors.StepConfig)
		}
	}

	if c.Moonlight != "" {
		if err := sb.Validate("executable", c.Moonlight); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid moonlight path").
				WithDetail("moonlight", c.Moonlight).
				WithStep(errors.StepConfig)
		}
	}

	if c.Flatpak {
		if err := sb.Validate("flatpakID", c.FlatpakAppID); err != nil {
			return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid flatpak_app_id").
				WithDetail("flatpak_app_id", c.FlatpakAppID).
				WithStep(errors.StepConfig)
		}
	}

	timeout, err := c.TimeoutDuration()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigValidation, "invalid timeout").
			WithStep(errors.StepConfig)
	}
	if timeout < 0 {
		return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("timeout cannot be negative: %s", c.Timeout)).
			WithStep(errors.StepConfig)
	}
	if timeout > command.MaxTimeout {
		return errors.New(errors.ErrCodeConfigValidation, fmt.Sprintf("timeout cannot exceed %s", command.MaxTimeout)).
			WithStep(errors.StepConfig)
	}

	return nil
}
