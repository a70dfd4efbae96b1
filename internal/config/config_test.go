package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves the test into an empty directory so no stray scantrack.yaml
// is picked up.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "scantrack.sqlite3", cfg.DB)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 2*time.Second, cfg.ScanDebounce)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Empty(t, cfg.NATS.URL)
	assert.Equal(t, "scantrack.changes", cfg.NATS.Subject)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 5, cfg.Unlock.Burst)
}

func TestLoadEnvOverride(t *testing.T) {
	chdir(t)
	t.Setenv("SCANTRACK_ADDR", "127.0.0.1:9000")
	t.Setenv("SCANTRACK_SCAN_DEBOUNCE", "500ms")
	t.Setenv("SCANTRACK_NATS_URL", "nats://localhost:4222")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.ScanDebounce)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
}

func TestLoadConfigFile(t *testing.T) {
	dir := chdir(t)
	yaml := `
db: /var/lib/scantrack/boxes.db
jwt_ttl: 5m
metrics:
  enabled: false
unlock:
  rate: 1
  burst: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scantrack.yaml"), []byte(yaml), 0o644))

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/scantrack/boxes.db", cfg.DB)
	assert.Equal(t, 5*time.Minute, cfg.JWTTTL)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 1.0, cfg.Unlock.Rate)
	assert.Equal(t, 3, cfg.Unlock.Burst)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":7070\"\n"), 0o644))

	v := New()
	v.Set(KeyConfigFile, path)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)

	v = New()
	v.Set(KeyConfigFile, filepath.Join(dir, "missing.yaml"))
	_, err = Load(v)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		DB: "x.db", Addr: ":8080", JWTTTL: time.Minute,
		Unlock: UnlockConfig{Rate: 1, Burst: 1},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"empty db", func(c *Config) { c.DB = " " }},
		{"empty addr", func(c *Config) { c.Addr = "" }},
		{"zero ttl", func(c *Config) { c.JWTTTL = 0 }},
		{"negative debounce", func(c *Config) { c.ScanDebounce = -time.Second }},
		{"negative refresh", func(c *Config) { c.RefreshInterval = -time.Second }},
		{"nats without subject", func(c *Config) { c.NATS.URL = "nats://x" }},
		{"zero rate", func(c *Config) { c.Unlock.Rate = 0 }},
		{"zero burst", func(c *Config) { c.Unlock.Burst = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdir(t)

	// Missing file is fine.
	require.NoError(t, LoadDotEnv(""))

	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SCANTRACK_DOTENV_PROBE=hello\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("SCANTRACK_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "hello", os.Getenv("SCANTRACK_DOTENV_PROBE"))
}
