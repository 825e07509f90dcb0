package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the Flickr exporter
type Config struct {
	// Flickr API credentials
	Flickr FlickrConfig `yaml:"flickr" json:"flickr"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Export settings
	Export ExportConfig `yaml:"export" json:"export"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// FlickrConfig holds Flickr-specific configuration
type FlickrConfig struct {
	APIKey    string `yaml:"api_key" json:"api_key"`
	APISecret string `yaml:"api_secret" json:"api_secret"`
	UserID    string `yaml:"user_id" json:"user_id"`
	OAuthToken string `yaml:"oauth_token" json:"oauth_token"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// BaseDelay is the steady-state pause between downloads
	BaseDelay time.Duration `yaml:"base_delay" json:"base_delay"`
	// RateLimitDelay is the base backoff applied after a 429
	RateLimitDelay time.Duration `yaml:"rate_limit_delay" json:"rate_limit_delay"`
	// MaxRetries caps rate-limit and transient retries per size
	MaxRetries int `yaml:"max_retries" json:"max_retries"`
	// Adaptive converges the steady delay toward server tolerance
	Adaptive bool `yaml:"adaptive" json:"adaptive"`
	// MinDelay floors the adaptive steady-state delay
	MinDelay time.Duration `yaml:"min_delay" json:"min_delay"`
	// MaxDelay caps the adaptive steady-state delay
	MaxDelay time.Duration `yaml:"max_delay" json:"max_delay"`
}

// ExportConfig holds export-run configuration
type ExportConfig struct {
	// Album restricts the run to a single album title when non-empty
	Album           string        `yaml:"album" json:"album"`
	PageSize        int           `yaml:"page_size" json:"page_size"`
	DownloadTimeout time.Duration `yaml:"download_timeout" json:"download_timeout"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
	ProgressFile  string `yaml:"progress_file" json:"progress_file"`
	ErrorsFile    string `yaml:"errors_file" json:"errors_file"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		RateLimit: RateLimitConfig{
			BaseDelay:      800 * time.Millisecond,
			RateLimitDelay: 60 * time.Second,
			MaxRetries:     5,
			Adaptive:       true,
			MinDelay:       500 * time.Millisecond,
			MaxDelay:       10 * time.Second,
		},
		Export: ExportConfig{
			PageSize:        500,
			DownloadTimeout: 60 * time.Second,
		},
		Output: OutputConfig{
			BaseDirectory: "./flickr-export",
			ProgressFile:  "download_progress.json",
			ErrorsFile:    "download_errors.json",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if apiKey := os.Getenv("FLICKR_API_KEY"); apiKey != "" {
		c.Flickr.APIKey = apiKey
	}
	if apiSecret := os.Getenv("FLICKR_API_SECRET"); apiSecret != "" {
		c.Flickr.APISecret = apiSecret
	}
	if userID := os.Getenv("FLICKR_USER_ID"); userID != "" {
		c.Flickr.UserID = userID
	}
	if token := os.Getenv("FLICKR_OAUTH_TOKEN"); token != "" {
		c.Flickr.OAuthToken = token
	}

	if baseDir := os.Getenv("FLICKRVAULT_BASE_DIR"); baseDir != "" {
		c.Output.BaseDirectory = baseDir
	}
	if album := os.Getenv("FLICKRVAULT_ALBUM"); album != "" {
		c.Export.Album = album
	}

	if delay := os.Getenv("FLICKRVAULT_BASE_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil && d > 0 {
			c.RateLimit.BaseDelay = d
		}
	}
	if retries := os.Getenv("FLICKRVAULT_MAX_RETRIES"); retries != "" {
		var val int
		fmt.Sscanf(retries, "%d", &val)
		if val > 0 {
			c.RateLimit.MaxRetries = val
		}
	}
	if adaptive := os.Getenv("FLICKRVAULT_ADAPTIVE"); adaptive != "" {
		c.RateLimit.Adaptive = strings.ToLower(adaptive) == "true"
	}

	if logLevel := os.Getenv("FLICKRVAULT_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
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
	locations := []string{
		".flickrvault.yaml",
		".flickrvault.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "flickrvault", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "flickrvault", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".flickrvault.yaml"),
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

	if c.Flickr.APIKey == "" {
		errs = append(errs, errors.New("Flickr API key is required"))
	}
	if c.Flickr.APISecret == "" {
		errs = append(errs, errors.New("Flickr API secret is required"))
	}
	if c.Flickr.UserID == "" {
		errs = append(errs, errors.New("Flickr user ID is required"))
	}

	if c.RateLimit.BaseDelay <= 0 {
		errs = append(errs, errors.New("base delay must be positive"))
	}
	if c.RateLimit.RateLimitDelay <= 0 {
		errs = append(errs, errors.New("rate limit delay must be positive"))
	}
	if c.RateLimit.MaxRetries <= 0 {
		errs = append(errs, errors.New("max retries must be positive"))
	}
	if c.RateLimit.MinDelay > c.RateLimit.MaxDelay {
		errs = append(errs, errors.New("min delay cannot exceed max delay"))
	}

	if c.Export.PageSize <= 0 || c.Export.PageSize > 500 {
		errs = append(errs, errors.New("page size must be between 1 and 500"))
	}
	if c.Export.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if c.Output.ProgressFile == "" {
		errs = append(errs, errors.New("progress file is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
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

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if apiKey, ok := flags["api-key"].(string); ok && apiKey != "" {
		c.Flickr.APIKey = apiKey
	}
	if apiSecret, ok := flags["api-secret"].(string); ok && apiSecret != "" {
		c.Flickr.APISecret = apiSecret
	}
	if userID, ok := flags["user-id"].(string); ok && userID != "" {
		c.Flickr.UserID = userID
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if album, ok := flags["album"].(string); ok && album != "" {
		c.Export.Album = album
	}
	if maxRetries, ok := flags["max-retries"].(int); ok && maxRetries > 0 {
		c.RateLimit.MaxRetries = maxRetries
	}
	if adaptive, ok := flags["adaptive"].(bool); ok {
		c.RateLimit.Adaptive = adaptive
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
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".flickrvault.env"))

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
