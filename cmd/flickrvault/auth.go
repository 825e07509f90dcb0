package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"flickrvault/pkg/auth"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Flickr API credentials",
	Long: `Manage stored Flickr API credentials securely.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your API secret or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store Flickr API credentials securely",
	Long: `Store Flickr API credentials in the system keychain or an encrypted file.

You will be prompted for:
  - API key
  - API secret (hidden as you type)
  - User ID (your NSID, e.g. 12345678@N00)
  - OAuth token (optional, press Enter to skip)

Get an API key at https://www.flickr.com/services/apps/create/ and
find your NSID with any idGettr-style lookup or from your profile URL.`,
	Example: `  # Store credentials under the default profile
  flickrvault auth login

  # Store a second set of credentials
  flickrvault auth login work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// statusCmd represents the auth status command
var statusCmd = &cobra.Command{
	Use:   "status [profile]",
	Short: "Show stored credential status",
	Long:  `Show whether credentials are stored for a profile, with secrets redacted.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove stored credentials",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLogout,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(statusCmd)
	authCmd.AddCommand(logoutCmd)
}

func profileArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "default"
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	profile := profileArg(args)
	reader := bufio.NewReader(os.Stdin)

	if manager.Exists(profile) {
		fmt.Printf("Profile %q already exists. Update credentials? (y/N): ", profile)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Print("API key: ")
	apiKey, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return fmt.Errorf("API key is required")
	}

	fmt.Print("API secret (hidden): ")
	apiSecret, err := readSecret()
	if err != nil {
		return fmt.Errorf("failed to read API secret: %w", err)
	}
	if apiSecret == "" {
		return fmt.Errorf("API secret is required")
	}

	fmt.Print("User ID (NSID): ")
	nsid, _ := reader.ReadString('\n')
	nsid = strings.TrimSpace(nsid)

	fmt.Print("OAuth token (optional): ")
	token, err := readSecret()
	if err != nil {
		return fmt.Errorf("failed to read OAuth token: %w", err)
	}

	creds := &auth.Credentials{
		Profile:    profile,
		APIKey:     apiKey,
		APISecret:  apiSecret,
		UserID:     nsid,
		OAuthToken: token,
	}
	if err := manager.Store(creds); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	fmt.Printf("Credentials stored for profile %q\n", profile)
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	profile := profileArg(args)
	creds, err := manager.Retrieve(profile)
	if err != nil {
		fmt.Printf("No credentials stored for profile %q\n", profile)
		return nil
	}

	fmt.Printf("Profile:  %s\n", creds.Profile)
	fmt.Printf("API key:  %s\n", redact(creds.APIKey))
	fmt.Printf("User ID:  %s\n", creds.UserID)
	if creds.OAuthToken != "" {
		fmt.Printf("OAuth:    %s\n", redact(creds.OAuthToken))
	}
	if !creds.LastModified.IsZero() {
		fmt.Printf("Modified: %s\n", creds.LastModified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	profile := profileArg(args)
	if err := manager.Delete(profile); err != nil {
		return fmt.Errorf("failed to remove credentials: %w", err)
	}
	fmt.Printf("Removed credentials for profile %q\n", profile)
	return nil
}

// readSecret reads a line from stdin without echoing it
func readSecret() (string, error) {
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func redact(s string) string {
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "..." + s[len(s)-4:]
}
