package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Config is the moonsync configuration file. Every field mirrors a command
// line flag; flags win over environment variables, which win over the file.
type Config struct {
	Host          string `yaml:"host,omitempty" toml:"host,omitempty" json:"host,omitempty" jsonschema:"description=Moonlight host to retrieve apps from"`
	Moonlight     string `yaml:"moonlight,omitempty" toml:"moonlight,omitempty" json:"moonlight,omitempty" jsonschema:"description=Path to the Moonlight executable (default: looked up in PATH)"`
	Flatpak       bool   `yaml:"flatpak,omitempty" toml:"flatpak,omitempty" json:"flatpak,omitempty" jsonschema:"description=Moonlight is installed through Flatpak"`
	FlatpakAppID  string `yaml:"flatpak_app_id,omitempty" toml:"flatpak_app_id,omitempty" json:"flatpak_app_id,omitempty" jsonschema:"description=Flatpak application id of Moonlight (default: com.moonlight_stream.Moonlight)"`
	SteamUserdata string `yaml:"steam_userdata,omitempty" toml:"steam_userdata,omitempty" json:"steam_userdata,omitempty" jsonschema:"description=Steam userdata directory or a single user directory inside it"`
	Sync          *bool  `yaml:"sync,omitempty" toml:"sync,omitempty" json:"sync,omitempty" jsonschema:"description=Remove shortcuts tagged moonlight before adding the current apps (default: true)"`
	Timeout       string `yaml:"timeout,omitempty" toml:"timeout,omitempty" json:"timeout,omitempty" jsonschema:"description=Maximum time to wait for Moonlight to list apps (e.g. 30s). Empty or 0 waits forever"`

	// Extensions holds sections owned by other packages, such as logging and tui.
	Extensions map[string]interface{} `yaml:",inline" toml:"-" json:"-" jsonschema:"-"`

	// Source is the file the configuration was read from, if any.
	Source string `yaml:"-" toml:"-" json:"-" jsonschema:"-"`
}

// TUIConfig is the "tui" extension.
type TUIConfig struct {
	Theme string `yaml:"theme,omitempty" jsonschema:"description=Color theme for terminal output,enum=kanagawa,enum=terminal"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Sync == nil {
		enabled := true
		c.Sync = &enabled
	}
	if c.Flatpak && c.FlatpakAppID == "" {
		c.FlatpakAppID = DefaultFlatpakAppID
	}
}

// DefaultFlatpakAppID is Moonlight's Flathub identifier.
const DefaultFlatpakAppID = "com.moonlight_stream.Moonlight"

// SyncEnabled reports whether previously synced shortcuts are replaced.
func (c *Config) SyncEnabled() bool {
	return c.Sync == nil || *c.Sync
}

// TimeoutDuration parses Timeout. Zero means no timeout.
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}

// UnmarshalExtension decodes an extension section into target. A missing
// section leaves target untouched.
func (c *Config) UnmarshalExtension(key string, target interface{}) error {
	extensionConfig, ok := c.Extensions[key]
	if !ok {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create mapstructure decoder: %w", err)
	}

	if err := decoder.Decode(extensionConfig); err != nil {
		return fmt.Errorf("failed to decode extension config for '%s': %w", key, err)
	}

	return nil
}
