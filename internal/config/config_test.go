package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/mutker/vcmclient/internal/config"
	"codeberg.org/mutker/vcmclient/internal/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vcmclient.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
broker = "10.0.0.5"
port = 1884
module = 3
log = true
log_dir = "/tmp/vcm"
show = "changed"
group = "LAB"
log_level = "debug"
history_db = "/tmp/vcm/history.db"
timeout = "3s"
`)
	t.Setenv("VCMCLIENT_CONFIG", path)

	cfg, err := config.Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.5", cfg.Broker, "Expected broker from file")
	assert.Equal(t, 1884, cfg.Port)
	assert.Equal(t, 3, cfg.Module)
	assert.True(t, cfg.Log)
	assert.Equal(t, "/tmp/vcm", cfg.LogDir)
	assert.Equal(t, config.ShowChanged, cfg.Show)
	assert.Equal(t, "LAB", cfg.Group)
	assert.Equal(t, config.LogLevelDebug, cfg.LogLevel)
	assert.Equal(t, "/tmp/vcm/history.db", cfg.HistoryDB)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VCMCLIENT_CONFIG", "")
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load(newFlags(t))
	require.NoError(t, err, "Failed to load config")

	assert.Equal(t, "192.168.1.91", cfg.Broker)
	assert.Equal(t, 1883, cfg.Port)
	assert.Equal(t, 0, cfg.Module)
	assert.False(t, cfg.Log)
	assert.Equal(t, config.ShowErrors, cfg.Show)
	assert.Equal(t, "VI", cfg.Group)
	assert.Equal(t, "vcmclient", cfg.HostID)
	assert.Equal(t, config.DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, config.DefaultTimeout, cfg.Timeout)
}

func TestFlagsOverrideFile(t *testing.T) {
	path := writeConfig(t, `
module = 2
show = "all"
`)

	cfg, err := config.Load(newFlags(t, "--config", path, "--module", "5", "--log"))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Module, "flag should win over file")
	assert.True(t, cfg.Log)
	assert.Equal(t, config.ShowAll, cfg.Show, "file value kept when flag not set")
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `broker = "file-broker"`)
	t.Setenv("VCMCLIENT_BROKER", "env-broker")

	cfg, err := config.Load(nil, config.WithConfigFile(path))
	require.NoError(t, err)

	assert.Equal(t, "env-broker", cfg.Broker)
}

func TestLoadConfigFileInvalidFormat(t *testing.T) {
	path := writeConfig(t, `
This is not a valid TOML file
`)

	_, err := config.Load(nil, config.WithConfigFile(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to read config file")
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestMissingExplicitConfigFile(t *testing.T) {
	_, err := config.Load(nil, config.WithConfigFile(filepath.Join(t.TempDir(), "missing.toml")))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrReadConfig))
}

func TestInvalidLogLevel(t *testing.T) {
	path := writeConfig(t, `log_level = "invalid"`)

	_, err := config.Load(nil, config.WithConfigFile(path))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidLogLevel))
}

func TestInvalidShowLevelFlag(t *testing.T) {
	t.Setenv("VCMCLIENT_CONFIG", "")
	t.Chdir(t.TempDir())

	_, err := config.Load(newFlags(t, "--show", "verbose"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrInvalidShowLevel))
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			Broker:   "localhost",
			Port:     1883,
			Show:     config.ShowErrors,
			Group:    "VI",
			HostID:   "host",
			LogLevel: config.LogLevelInfo,
			Timeout:  time.Second,
		}
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"empty broker", func(c *config.Config) { c.Broker = "" }},
		{"port zero", func(c *config.Config) { c.Port = 0 }},
		{"port too high", func(c *config.Config) { c.Port = 70000 }},
		{"negative module", func(c *config.Config) { c.Module = -1 }},
		{"empty group", func(c *config.Config) { c.Group = "" }},
		{"empty host id", func(c *config.Config) { c.HostID = "" }},
		{"zero timeout", func(c *config.Config) { c.Timeout = 0 }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrInvalidConfig))
		})
	}
}

func TestShowLevelShows(t *testing.T) {
	assert.True(t, config.ShowAll.Shows(config.ShowChanged))
	assert.True(t, config.ShowTopic.Shows(config.ShowErrors))
	assert.False(t, config.ShowErrors.Shows(config.ShowTopic))
	assert.False(t, config.ShowNone.Shows(config.ShowErrors))
	assert.False(t, config.ShowAll.Shows(config.ShowNone))
	assert.False(t, config.ShowLevel("loud").IsValid())
}
