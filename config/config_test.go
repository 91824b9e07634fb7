package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "", cfg.Password)
	assert.Equal(t, 2*time.Second, cfg.DialTimeout())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{"host": "10.0.0.7", "port": 9090, "password": "hunter2", "dial_timeout_ms": 500}`
	assert.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "10.0.0.7", cfg.Host)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.Equal(t, 500*time.Millisecond, cfg.DialTimeout())

	// Unset fields keep their defaults.
	assert.Equal(t, 4, cfg.BenchClients)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CACHEW_HOST", "192.168.1.5")
	t.Setenv("CACHEW_PORT", "7070")
	t.Setenv("CACHEW_PASSWORD", "s3cret")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, "192.168.1.5", cfg.Host)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "s3cret", cfg.Password)
}

func TestApplyEnvIgnoresBadPort(t *testing.T) {
	t.Setenv("CACHEW_PORT", "not-a-port")

	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, 8080, cfg.Port)
}
