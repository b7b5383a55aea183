package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/existflow/ohm/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"OHM_DATA_DIR", "OHM_LOG_LEVEL", "OHM_LOG_FILE", "OHM_LOG_CONSOLE",
		"OHM_GOOGLE_CLIENT_ID", "OHM_GOOGLE_CLIENT_SECRET", "OHM_DRIVE_ENDPOINT", "OHM_HOST", "PORT",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 500*time.Millisecond, cfg.Sync.LocalDebounce)
	assert.Equal(t, 2*time.Second, cfg.Sync.RemoteDebounce)
	assert.Equal(t, 10, cfg.Sync.AuthPollAttempts)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Address())
	assert.Empty(t, cfg.Server.AllowOrigins)
	assert.False(t, cfg.Drive.Enabled())
}

func TestLoadFrom_MissingFile(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadFrom_YAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /tmp/ohm-data
log_level: debug
drive:
  client_id: abc.apps.googleusercontent.com
sync:
  local_debounce: 250ms
  remote_debounce: 5s
server:
  port: 9000
`), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/ohm-data", cfg.DataDir)
	assert.Equal(t, "/tmp/ohm-data/ohm.db", cfg.DBPath())
	assert.Equal(t, 250*time.Millisecond, cfg.Sync.LocalDebounce)
	assert.Equal(t, 5*time.Second, cfg.Sync.RemoteDebounce)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.AuthPollInterval, "unset keys keep defaults")
	assert.True(t, cfg.Drive.Enabled())
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Address(), "host keeps the loopback default")

	lc := cfg.LoggerConfig()
	assert.Equal(t, logger.DEBUG, lc.Level)
	assert.Equal(t, "/tmp/ohm-data/logs/ohm.log", lc.FilePath)
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0644))

	t.Setenv("PORT", "7070")
	t.Setenv("OHM_HOST", "::1")
	t.Setenv("OHM_GOOGLE_CLIENT_ID", "from-env")
	t.Setenv("OHM_LOG_CONSOLE", "true")
	t.Setenv("OHM_DRIVE_ENDPOINT", "http://localhost:1234/drive/v3/")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "[::1]:7070", cfg.Server.Address())
	assert.Equal(t, "from-env", cfg.Drive.ClientID)
	assert.True(t, cfg.LogConsole)
	assert.Equal(t, "http://localhost:1234/drive/v3/", cfg.Drive.Endpoint)
}

func TestLoadFrom_Invalid(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cases := map[string]string{
		"remote shorter than local": "sync:\n  local_debounce: 2s\n  remote_debounce: 1s\n",
		"zero attempts":             "sync:\n  auth_poll_attempts: -1\n",
		"bad port":                  "server:\n  port: 70000\n",
		"blank host":                "server:\n  host: \"\"\n",
		"wildcard origin":           "server:\n  allow_origins: [\"*\"]\n",
		"bad level":                 "log_level: LOUD\n",
		"not yaml":                  "sync: [",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
			_, err := LoadFrom(path)
			assert.Error(t, err)
		})
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Drive.ClientID = "client"
	cfg.Sync.RemoteDebounce = 3 * time.Second
	require.NoError(t, cfg.SaveTo(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPath(t *testing.T) {
	t.Setenv("OHM_CONFIG", "/etc/ohm.yaml")
	p, err := Path()
	require.NoError(t, err)
	assert.Equal(t, "/etc/ohm.yaml", p)
}
