package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"flickrvault/pkg/auth"
	"flickrvault/pkg/config"
	"flickrvault/pkg/export"
	"flickrvault/pkg/flickr"
	"flickrvault/pkg/ledger"
	"flickrvault/pkg/logger"
	"flickrvault/pkg/ratelimit"
	"flickrvault/pkg/report"
	"flickrvault/pkg/storage"
)

var (
	// Export command flags
	outputDir   string
	albumTitle  string
	apiKey      string
	userID      string
	profileName string
	maxRetries  int
	adaptive    bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download every album in the Flickr library",
	Long: `Download all photos and videos from the configured Flickr account.

Each album becomes a directory under the output directory. Photos are
fetched at the best available quality, falling back through smaller
sizes when a download keeps failing. Progress is recorded per album,
so an interrupted run picks up where it left off.

Credentials are resolved in order from:
  - Stored credentials (use 'flickrvault auth login' to store)
  - Environment variables (FLICKR_API_KEY, FLICKR_API_SECRET)
  - Configuration file`,
	Example: `  # Export the whole library with default settings
  flickrvault export

  # Export into a specific directory
  flickrvault export --output ~/Pictures/flickr

  # Export a single album regardless of its completion mark
  flickrvault export --album "Summer 2019"

  # Use a specific stored credential profile
  flickrvault export --profile work`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for downloads")
	exportCmd.Flags().StringVarP(&albumTitle, "album", "a", "", "export only the album with this exact title")
	exportCmd.Flags().StringVar(&apiKey, "api-key", "", "Flickr API key (overrides stored credentials)")
	exportCmd.Flags().StringVar(&userID, "user-id", "", "Flickr user ID (NSID)")
	exportCmd.Flags().StringVar(&profileName, "profile", "default", "stored credential profile to use")
	exportCmd.Flags().IntVar(&maxRetries, "max-retries", 0, "maximum retry attempts per download size")
	exportCmd.Flags().BoolVar(&adaptive, "adaptive", true, "adapt the inter-request delay to server responses")
}

func runExport(cmd *cobra.Command, args []string) error {
	flags := make(map[string]interface{})
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if albumTitle != "" {
		flags["album"] = albumTitle
	}
	if apiKey != "" {
		flags["api-key"] = apiKey
	}
	if userID != "" {
		flags["user-id"] = userID
	}
	if maxRetries > 0 {
		flags["max-retries"] = maxRetries
	}
	if cmd.Flags().Changed("adaptive") {
		flags["adaptive"] = adaptive
	}
	if cmd.Flags().Changed("log-level") {
		flags["log-level"] = logLevel
	}

	// Stored credentials fill in whatever flags and environment left
	// blank, before validation runs.
	if apiKey == "" && os.Getenv("FLICKR_API_KEY") == "" {
		addStoredCredentials(flags)
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	store, err := storage.NewManager(cfg.Output.BaseDirectory)
	if err != nil {
		return fmt.Errorf("failed to prepare output directory: %w", err)
	}

	// Bare filenames for the ledger and error report live under the
	// output directory; absolute paths are honored as given.
	progressPath := resolveOutputPath(cfg.Output.BaseDirectory, cfg.Output.ProgressFile)
	cfg.Output.ErrorsFile = resolveOutputPath(cfg.Output.BaseDirectory, cfg.Output.ErrorsFile)

	client := flickr.NewClient(cfg.Flickr.APIKey, cfg.Flickr.UserID, cfg.Export.DownloadTimeout, log)

	rateCfg := ratelimit.DefaultConfig()
	rateCfg.BaseDelay = cfg.RateLimit.BaseDelay
	rateCfg.BackoffBase = cfg.RateLimit.RateLimitDelay
	rateCfg.MaxAttempts = cfg.RateLimit.MaxRetries
	rateCfg.Adaptive = cfg.RateLimit.Adaptive
	rateCfg.MinDelay = cfg.RateLimit.MinDelay
	rateCfg.MaxDelay = cfg.RateLimit.MaxDelay
	rate := ratelimit.New(rateCfg, log)

	cascade := export.NewCascade(client, store, rate, log)
	items := export.NewItemDownloader(client, store, cascade, log)
	led := ledger.New(progressPath, log)
	collector := report.NewCollector(log)

	coordinator := export.NewCoordinator(cfg, client, store, items, led, collector, log)

	log.InfoWithFields("starting library export", map[string]interface{}{
		"output":  cfg.Output.BaseDirectory,
		"user_id": cfg.Flickr.UserID,
	})

	if err := coordinator.Run(); err != nil {
		log.WithError(err).Error("export failed")
		return err
	}

	if collector.HasErrors() {
		fmt.Fprintf(os.Stderr, "Export finished with %d failed items; see %s\n",
			collector.Report().Total(), cfg.Output.ErrorsFile)
	} else {
		fmt.Println("Export completed successfully")
	}
	return nil
}

// addStoredCredentials loads the selected credential profile and merges
// it into the flags map without overriding explicit flag values
func addStoredCredentials(flags map[string]interface{}) {
	manager, err := auth.NewManager()
	if err != nil {
		return
	}
	creds, err := manager.Retrieve(profileName)
	if err != nil {
		return
	}
	flags["api-key"] = creds.APIKey
	flags["api-secret"] = creds.APISecret
	if _, ok := flags["user-id"]; !ok && creds.UserID != "" {
		flags["user-id"] = creds.UserID
	}
}

func resolveOutputPath(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
