package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grovetools/moonsync/errors"
	"github.com/grovetools/moonsync/pkg/paths"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every config lookup at a fresh directory and clears the
// MOONSYNC_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv(paths.HomeEnv, home)
	for _, key := range []string{EnvHost, EnvMoonlight, EnvSteamUserdata, EnvFlatpak} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	require.NoError(t, os.MkdirAll(paths.ConfigDir(), 0755))
	return paths.ConfigDir()
}

func TestLoadFromBytesYAML(t *testing.T) {
	yamlContent := `
host: 192.168.1.5
moonlight: /usr/bin/moonlight
steam_userdata: /home/u/.local/share/Steam/userdata
sync: false
timeout: 45s
logging:
  level: debug
  format:
    preset: simple
tui:
  theme: terminal
`
	cfg, err := LoadFromBytes([]byte(yamlContent), "yaml")
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.5", cfg.Host)
	assert.Equal(t, "/usr/bin/moonlight", cfg.Moonlight)
	assert.False(t, cfg.SyncEnabled())
	timeout, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, timeout)

	var logCfg struct {
		Level  string `yaml:"level"`
		Format struct {
			Preset string `yaml:"preset"`
		} `yaml:"format"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "debug", logCfg.Level)
	assert.Equal(t, "simple", logCfg.Format.Preset)

	var tuiCfg TUIConfig
	require.NoError(t, cfg.UnmarshalExtension("tui", &tuiCfg))
	assert.Equal(t, "terminal", tuiCfg.Theme)

	var missing TUIConfig
	require.NoError(t, cfg.UnmarshalExtension("unknown", &missing))
	assert.Empty(t, missing.Theme)
}

func TestLoadFromBytesTOML(t *testing.T) {
	tomlContent := `
host = "gaming-pc"
flatpak = true
sync = true

[logging]
level = "warn"
`
	cfg, err := LoadFromBytes([]byte(tomlContent), "toml")
	require.NoError(t, err)

	assert.Equal(t, "gaming-pc", cfg.Host)
	assert.True(t, cfg.Flatpak)
	assert.Equal(t, DefaultFlatpakAppID, cfg.FlatpakAppID)
	assert.True(t, cfg.SyncEnabled())

	var logCfg struct {
		Level string `yaml:"level"`
	}
	require.NoError(t, cfg.UnmarshalExtension("logging", &logCfg))
	assert.Equal(t, "warn", logCfg.Level)
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadFromBytes([]byte("{}"), "yaml")
	require.NoError(t, err)
	assert.True(t, cfg.SyncEnabled())
	require.NotNil(t, cfg.Sync)
	assert.Empty(t, cfg.FlatpakAppID, "app id only defaults in flatpak mode")

	timeout, err := cfg.TimeoutDuration()
	require.NoError(t, err)
	assert.Zero(t, timeout)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("GAMING_PC", "10.0.0.7")
	cfg, err := LoadFromBytes([]byte("host: ${GAMING_PC}\nsteam_userdata: ${UNSET_VAR:-/steam/userdata}\n"), "yaml")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.7", cfg.Host)
	assert.Equal(t, "/steam/userdata", cfg.SteamUserdata)
}

func TestLoadFromBytesRejects(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantCode errors.ErrorCode
	}{
		{"bad yaml", "host: [unclosed", errors.ErrCodeConfigInvalid},
		{"wrong type", "sync: maybe", errors.ErrCodeConfigInvalid},
		{"bad host", "host: two words", errors.ErrCodeConfigValidation},
		{"bad timeout", "timeout: soon", errors.ErrCodeConfigValidation},
		{"negative timeout", "timeout: -5s", errors.ErrCodeConfigValidation},
		{"bad flatpak id", "flatpak: true\nflatpak_app_id: moonlight", errors.ErrCodeConfigValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.content), "yaml")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.GetCode(err), "got %v", err)
			assert.Equal(t, errors.StepConfig, errors.GetStep(err))
		})
	}
}

func TestLoadDefaultWithoutFile(t *testing.T) {
	isolate(t)

	cfg, err := LoadDefault("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Source)
	assert.True(t, cfg.SyncEnabled())
}

func TestLoadDefaultFindsConfigDir(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("host: from-file\nsync: false\n"), 0644))

	cfg, err := LoadDefault("")
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, "from-file", cfg.Host)
	assert.False(t, cfg.SyncEnabled())
}

func TestLoadDefaultExplicitMissing(t *testing.T) {
	isolate(t)

	_, err := LoadDefault(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigNotFound, errors.GetCode(err))
	assert.Equal(t, errors.StepConfig, errors.GetStep(err))
}

func TestLoadDefaultWithLoggerDumpsEffectiveConfig(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("host: from-file\n"), 0644))

	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	_, err := LoadDefaultWithLogger("", logger)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Effective configuration")
	assert.Contains(t, buf.String(), "host: from-file")

	buf.Reset()
	logger.SetLevel(logrus.InfoLevel)
	_, err = LoadDefaultWithLogger("", logger)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "Effective configuration")
}

func TestEnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte("host: from-file\nmoonlight: /opt/a\n"), 0644))
	t.Setenv(EnvHost, "from-env")
	t.Setenv(EnvFlatpak, "true")

	cfg, err := LoadDefault("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Host)
	assert.Equal(t, "/opt/a", cfg.Moonlight)
	assert.True(t, cfg.Flatpak)
	assert.Equal(t, DefaultFlatpakAppID, cfg.FlatpakAppID)
}

func TestEnvFile(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, EnvFileName),
		[]byte("MOONSYNC_HOST=from-dotenv\nMOONSYNC_STEAM_USERDATA=/steam/userdata\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv(EnvHost)
		os.Unsetenv(EnvSteamUserdata)
	})

	cfg, err := LoadDefault("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Host)
	assert.Equal(t, "/steam/userdata", cfg.SteamUserdata)
}

func TestEnvFileDoesNotOverrideEnvironment(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, EnvFileName), []byte("MOONSYNC_HOST=from-dotenv\n"), 0644))
	t.Setenv(EnvHost, "from-env")

	cfg, err := LoadDefault("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Host)
}

func TestInvalidFlatpakEnv(t *testing.T) {
	isolate(t)
	t.Setenv(EnvFlatpak, "sometimes")

	_, err := LoadDefault("")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
}

func TestGenerateSchemaMatchesEmbedded(t *testing.T) {
	generated, err := GenerateSchema()
	require.NoError(t, err)
	assert.Contains(t, string(generated), `"steam_userdata"`)
	assert.Contains(t, string(generated), `"additionalProperties": false`)
	assert.NotContains(t, string(generated), "Extensions")
	assert.NotContains(t, string(generated), "Source")
}
