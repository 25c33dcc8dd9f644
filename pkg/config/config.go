package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ScopedStorageAPILevel is the first platform API level with scoped shared storage
const ScopedStorageAPILevel = 29

// Config holds all configuration options for the image saver
type Config struct {
	// Application identity, used for folder names
	App AppConfig `yaml:"app" json:"app"`

	// Host platform capabilities
	Platform PlatformConfig `yaml:"platform" json:"platform"`

	// Storage locations
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// AppConfig holds the application identity
type AppConfig struct {
	Name string `yaml:"name" json:"name"`
}

// PlatformConfig describes what the host platform supports
type PlatformConfig struct {
	APILevel int `yaml:"api_level" json:"api_level"`
}

// StorageConfig holds directory configuration. Empty values resolve to
// platform defaults at runtime.
type StorageConfig struct {
	CacheDir   string `yaml:"cache_dir" json:"cache_dir"`
	VolumeRoot string `yaml:"volume_root" json:"volume_root"`
	IndexFile  string `yaml:"index_file" json:"index_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name: "Mangasaver",
		},
		Platform: PlatformConfig{
			APILevel: ScopedStorageAPILevel,
		},
		Storage: StorageConfig{},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if name := os.Getenv("MANGASAVER_APP_NAME"); name != "" {
		c.App.Name = name
	}

	if level := os.Getenv("MANGASAVER_API_LEVEL"); level != "" {
		val, err := strconv.Atoi(level)
		if err != nil {
			return fmt.Errorf("invalid MANGASAVER_API_LEVEL %q: %w", level, err)
		}
		c.Platform.APILevel = val
	}

	if cacheDir := os.Getenv("MANGASAVER_CACHE_DIR"); cacheDir != "" {
		c.Storage.CacheDir = cacheDir
	}
	if volumeRoot := os.Getenv("MANGASAVER_VOLUME_ROOT"); volumeRoot != "" {
		c.Storage.VolumeRoot = volumeRoot
	}
	if indexFile := os.Getenv("MANGASAVER_INDEX_FILE"); indexFile != "" {
		c.Storage.IndexFile = indexFile
	}

	if logLevel := os.Getenv("MANGASAVER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("MANGASAVER_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".mangasaver.yaml",
		".mangasaver.yml",
		filepath.Join(home, ".config", "mangasaver", "config.yaml"),
		filepath.Join(home, ".config", "mangasaver", "config.yml"),
		filepath.Join(home, ".mangasaver.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.App.Name) == "" {
		errs = append(errs, errors.New("app name is required"))
	}
	if strings.ContainsAny(c.App.Name, `/\`) {
		errs = append(errs, errors.New("app name must not contain path separators"))
	}

	if c.Platform.APILevel <= 0 {
		errs = append(errs, errors.New("api level must be positive"))
	}

	if c.Storage.IndexFile != "" && strings.HasSuffix(c.Storage.IndexFile, string(os.PathSeparator)) {
		errs = append(errs, errors.New("index file must be a file path, not a directory"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if name, ok := flags["app-name"].(string); ok && name != "" {
		c.App.Name = name
	}
	if level, ok := flags["api-level"].(int); ok && level > 0 {
		c.Platform.APILevel = level
	}
	if cacheDir, ok := flags["cache-dir"].(string); ok && cacheDir != "" {
		c.Storage.CacheDir = cacheDir
	}
	if volumeRoot, ok := flags["volume-root"].(string); ok && volumeRoot != "" {
		c.Storage.VolumeRoot = volumeRoot
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".mangasaver.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
