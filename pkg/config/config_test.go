package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "Mangasaver", cfg.App.Name)
	assert.Equal(t, ScopedStorageAPILevel, cfg.Platform.APILevel)
	assert.Empty(t, cfg.Storage.CacheDir)
	assert.Empty(t, cfg.Storage.VolumeRoot)
	assert.Empty(t, cfg.Storage.IndexFile)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MANGASAVER_APP_NAME", "TestApp")
	t.Setenv("MANGASAVER_API_LEVEL", "28")
	t.Setenv("MANGASAVER_CACHE_DIR", "/tmp/cache")
	t.Setenv("MANGASAVER_VOLUME_ROOT", "/tmp/volume")
	t.Setenv("MANGASAVER_INDEX_FILE", "/tmp/index.json")
	t.Setenv("MANGASAVER_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "TestApp", cfg.App.Name)
	assert.Equal(t, 28, cfg.Platform.APILevel)
	assert.Equal(t, "/tmp/cache", cfg.Storage.CacheDir)
	assert.Equal(t, "/tmp/volume", cfg.Storage.VolumeRoot)
	assert.Equal(t, "/tmp/index.json", cfg.Storage.IndexFile)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidAPILevel(t *testing.T) {
	t.Setenv("MANGASAVER_API_LEVEL", "q")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "MANGASAVER_API_LEVEL")
}

func TestLoadFromFile(t *testing.T) {
	t.Run("valid yaml file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.yaml")
		testConfig := `
app:
  name: FileApp
platform:
  api_level: 26
storage:
  cache_dir: /file/cache
  volume_root: /file/volume
logging:
  level: warn
`
		require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0644))

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromFile(configPath))

		assert.Equal(t, "FileApp", cfg.App.Name)
		assert.Equal(t, 26, cfg.Platform.APILevel)
		assert.Equal(t, "/file/cache", cfg.Storage.CacheDir)
		assert.Equal(t, "/file/volume", cfg.Storage.VolumeRoot)
		assert.Empty(t, cfg.Storage.IndexFile)
		assert.Equal(t, "warn", cfg.Logging.Level)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("app: [unclosed"), 0644))

		cfg := DefaultConfig()
		err := cfg.LoadFromFile(configPath)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty app name", func(c *Config) { c.App.Name = "  " }, true},
		{"app name with separator", func(c *Config) { c.App.Name = "a/b" }, true},
		{"zero api level", func(c *Config) { c.Platform.APILevel = 0 }, true},
		{"invalid log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"legacy api level", func(c *Config) { c.Platform.APILevel = 21 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"app-name":    "FlagApp",
		"api-level":   23,
		"cache-dir":   "/flag/cache",
		"volume-root": "/flag/volume",
		"log-level":   "error",
	})

	assert.Equal(t, "FlagApp", cfg.App.Name)
	assert.Equal(t, 23, cfg.Platform.APILevel)
	assert.Equal(t, "/flag/cache", cfg.Storage.CacheDir)
	assert.Equal(t, "/flag/volume", cfg.Storage.VolumeRoot)
	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestSaveAndLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.App.Name = "Saved"
	cfg.Platform.APILevel = 27
	require.NoError(t, cfg.Save(configPath))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(configPath))

	assert.Equal(t, "Saved", loaded.App.Name)
	assert.Equal(t, 27, loaded.Platform.APILevel)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("app:\n  name: FromFile\nplatform:\n  api_level: 26\n"), 0644))

	t.Setenv("HOME", dir)
	t.Setenv("MANGASAVER_API_LEVEL", "30")

	cfg, err := Load(configPath, map[string]interface{}{"log-level": "debug"})
	require.NoError(t, err)

	assert.Equal(t, "FromFile", cfg.App.Name)
	assert.Equal(t, 30, cfg.Platform.APILevel)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load("", map[string]interface{}{"log-level": "shout"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}
