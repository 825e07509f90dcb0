package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"flickrvault/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage FlickrVault configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.flickrvault.yaml'
unless a different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration merged from all sources.

Sensitive values like the API secret are masked.`,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
}

const exampleConfig = `# FlickrVault Configuration File
#
# You can also use environment variables: FLICKR_API_KEY,
# FLICKR_API_SECRET, FLICKR_USER_ID, and FLICKRVAULT_* overrides.

# Flickr API credentials
flickr:
  api_key: "YOUR_API_KEY"
  api_secret: "YOUR_API_SECRET"
  # Your NSID, e.g. 12345678@N00
  user_id: ""

# Rate limiting
rate_limit:
  # Steady-state pause between downloads
  base_delay: 800ms
  # First backoff after the server asks to slow down
  rate_limit_delay: 60s
  # Retry budget per download size
  max_retries: 5
  # Converge the pause toward what the server tolerates
  adaptive: true
  min_delay: 500ms
  max_delay: 10s

# Export settings
export:
  # Restrict the run to one album title (empty means all albums)
  album: ""
  page_size: 500
  download_timeout: 60s

# Output locations
output:
  base_directory: "./flickr-export"
  progress_file: "download_progress.json"
  errors_file: "download_errors.json"

# Logging
logging:
  level: "info"
  # Optional log file path
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".flickrvault.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Printf("Created %s\n", configPath)
	fmt.Println("Edit it to add your API credentials, or run 'flickrvault auth login'.")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		return fmt.Errorf("failed to load config file: %w", err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}

	display := *cfg
	if display.Flickr.APISecret != "" {
		display.Flickr.APISecret = redact(display.Flickr.APISecret)
	}
	if display.Flickr.OAuthToken != "" {
		display.Flickr.OAuthToken = redact(display.Flickr.OAuthToken)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}
	fmt.Print(string(data))
	return nil
}
