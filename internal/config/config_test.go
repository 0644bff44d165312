package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "environment: test\n"))
	require.NoError(t, err)

	assert.Equal(t, BackendLocal, cfg.Backend)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 15*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8, cfg.Storage.MaxPhotoMB)
	assert.Equal(t, 720*time.Hour, cfg.Geocode.CacheTTL)
	assert.Equal(t, "reports:enrich", cfg.Queue.Stream)
}

func TestFileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
backend: remote
remote:
  baseurl: http://api.test
  timeout: 3s
allowcorsorigins: http://a.test,http://b.test
`)
	t.Setenv("BACHES_HTTP_PORT", "9090")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, BackendRemote, cfg.Backend)
	assert.Equal(t, "http://api.test", cfg.Remote.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowCORSOrigins)
}

func TestValidate(t *testing.T) {
	_, err := LoadFrom(writeConfig(t, "backend: carrier-pigeon\n"))
	assert.ErrorContains(t, err, "unknown backend")

	_, err = LoadFrom(writeConfig(t, "backend: remote\nremote:\n  baseurl: \"\"\n"))
	assert.ErrorContains(t, err, "remote.baseurl")

	_, err = LoadFrom(writeConfig(t, "security:\n  sessionsecret: \"\"\n"))
	assert.ErrorContains(t, err, "sessionsecret")
}
