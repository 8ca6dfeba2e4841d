package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://api.themoviedb.org/3", c.BaseURL)
	assert.Equal(t, "TMDB_API_KEY_AUTH", c.SecretEnv)
	assert.Equal(t, time.Duration(0), c.Timeout)
	assert.Equal(t, "info", c.LogLevel)
	assert.True(t, c.LogPretty)
	assert.False(t, c.LogHTTP)
	assert.Zero(t, c.BreakerThreshold)
	assert.Equal(t, 30*time.Second, c.BreakerCooldown)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url = "https://file.test"
retry_max = 2
log_level = "debug"
`), 0o600))
	t.Setenv("APISERVICE_BASE_URL", "https://env.test")
	t.Setenv("APISERVICE_TIMEOUT", "5s")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://env.test", c.BaseURL)
	assert.Equal(t, 5*time.Second, c.Timeout)
	assert.Equal(t, 2, c.RetryMax)
	assert.Equal(t, "debug", c.LogLevel)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.NoError(t, err)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`base_url = `), 0o600))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	assert.Error(t, Config{}.Validate())
	assert.Error(t, Config{SecretEnv: "X", Timeout: -1}.Validate())
	assert.Error(t, Config{SecretEnv: "X", RetryMax: -1}.Validate())
	assert.Error(t, Config{SecretEnv: "X", BreakerThreshold: 3}.Validate())
	assert.NoError(t, Config{SecretEnv: "X"}.Validate())
	assert.NoError(t, Config{SecretEnv: "X", BreakerThreshold: 3, BreakerCooldown: time.Second}.Validate())
}

func TestLoad_HTTPLoggingAndBreaker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_http = true
breaker_threshold = 5
`), 0o600))
	t.Setenv("APISERVICE_BREAKER_COOLDOWN", "10s")

	c, err := Load(path)
	require.NoError(t, err)
	assert.True(t, c.LogHTTP)
	assert.Equal(t, uint32(5), c.BreakerThreshold)
	assert.Equal(t, 10*time.Second, c.BreakerCooldown)
}
