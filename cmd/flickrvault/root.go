package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "flickrvault",
	Short: "A resumable bulk exporter for Flickr photo and video libraries",
	Long: `FlickrVault downloads an entire Flickr library, album by album, into
a local directory tree.

Features:
  - Secure credential storage using system keychain
  - Adaptive rate limiting that converges on the server's tolerance
  - Best-available-quality selection with per-size fallback
  - Resumable runs via an on-disk progress ledger
  - End-of-run error report instead of mid-run aborts

Interrupted runs can be restarted at any time; completed albums are
skipped and partially downloaded albums are filled in without
re-fetching files already on disk.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.flickrvault.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`FlickrVault {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
