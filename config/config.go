package config

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/grovetools/moonsync/errors"
	"github.com/grovetools/moonsync/pkg/paths"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// EnvFileName is loaded from the config directory before anything else.
const EnvFileName = "moonsync.env"

// Environment variables that override the configuration file.
const (
	EnvHost          = "MOONSYNC_HOST"
	EnvMoonlight     = "MOONSYNC_MOONLIGHT"
	EnvSteamUserdata = "MOONSYNC_STEAM_USERDATA"
	EnvFlatpak       = "MOONSYNC_FLATPAK"
)

var configNames = []string{
	"config.yml",
	"config.yaml",
	"config.toml",
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads and parses a configuration file. The format follows the file
// extension; anything but .toml is YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.ConfigNotFound(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path).
			WithStep(errors.StepConfig)
	}

	cfg, err := LoadFromBytes(data, formatOf(path))
	if err != nil {
		if syncErr, ok := errors.As(err); ok {
			syncErr.WithDetail("path", path)
		}
		return nil, err
	}
	cfg.Source = path
	return cfg, nil
}

// LoadDefault loads the environment file, then the configuration file, then
// applies environment overrides. explicitPath must exist when given; the
// default locations are optional.
func LoadDefault(explicitPath string) (*Config, error) {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	return LoadDefaultWithLogger(explicitPath, quiet)
}

// LoadDefaultWithLogger is LoadDefault reporting the file it picked and,
// at debug level, the effective configuration.
func LoadDefaultWithLogger(explicitPath string, logger *logrus.Logger) (*Config, error) {
	configDir := paths.ConfigDir()
	if err := LoadEnvFile(filepath.Join(configDir, EnvFileName)); err != nil {
		return nil, err
	}

	path := explicitPath
	if path == "" {
		path = FindConfigFile(configDir)
	}

	var cfg *Config
	if path == "" {
		logger.WithField("dir", configDir).Debug("No configuration file found, using defaults")
		cfg = &Config{}
		cfg.SetDefaults()
	} else {
		logger.WithField("path", path).Debug("Loading configuration")
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger.IsLevelEnabled(logrus.DebugLevel) {
		if data, err := yaml.Marshal(cfg); err == nil {
			logger.Debugf("Effective configuration:\n%s", string(data))
		}
	}
	return cfg, nil
}

// LoadFromBytes parses configuration in the given format ("yaml" or "toml"),
// validates it against the schema and fills defaults.
func LoadFromBytes(data []byte, format string) (*Config, error) {
	expanded := []byte(expandEnvVars(string(data)))

	var cfg Config
	switch format {
	case "toml":
		if err := unmarshalTOML(expanded, &cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse TOML configuration").
				WithStep(errors.StepConfig)
		}
	default:
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration").
				WithStep(errors.StepConfig)
		}
	}

	validator, err := NewSchemaValidator()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to create validator")
	}
	if err := validator.Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "schema validation failed").
			WithStep(errors.StepConfig)
	}

	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// unmarshalTOML decodes known keys into cfg and keeps the rest as extensions.
func unmarshalTOML(data []byte, cfg *Config) error {
	if err := toml.Unmarshal(data, cfg); err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, value := range raw {
		if knownKeys[key] {
			continue
		}
		if cfg.Extensions == nil {
			cfg.Extensions = make(map[string]interface{})
		}
		cfg.Extensions[key] = value
	}
	return nil
}

var knownKeys = map[string]bool{
	"host":           true,
	"moonlight":      true,
	"flatpak":        true,
	"flatpak_app_id": true,
	"steam_userdata": true,
	"sync":           true,
	"timeout":        true,
}

// LoadEnvFile loads KEY=VALUE pairs into the process environment. Variables
// that are already set keep their value. A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to load environment file").
			WithDetail("path", path).
			WithStep(errors.StepConfig)
	}
	return nil
}

// ApplyEnv overrides fields from MOONSYNC_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvHost); v != "" {
		c.Host = v
	}
	if v := os.Getenv(EnvMoonlight); v != "" {
		c.Moonlight = v
	}
	if v := os.Getenv(EnvSteamUserdata); v != "" {
		c.SteamUserdata = v
	}
	if v := os.Getenv(EnvFlatpak); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return errors.ConfigInvalid(EnvFlatpak+" must be a boolean").
				WithDetail("value", v)
		}
		c.Flatpak = enabled
	}
	return nil
}

// FindConfigFile returns the first config file in dir, or "" when there is none.
func FindConfigFile(dir string) string {
	if dir == "" {
		return ""
	}
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func formatOf(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return "toml"
	}
	return "yaml"
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		varName := envVarRegex.FindStringSubmatch(match)[1]

		// Handle default values: ${VAR:-default}
		parts := strings.SplitN(varName, ":-", 2)
		varName = parts[0]
		defaultValue := ""
		if len(parts) > 1 {
			defaultValue = parts[1]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}
