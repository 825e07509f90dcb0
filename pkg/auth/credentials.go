package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrCredentialsNotFound is returned when no stored credentials match
	ErrCredentialsNotFound = errors.New("credentials not found")
	// ErrInvalidCredentials is returned for incomplete credential data
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Credentials holds one Flickr API identity
type Credentials struct {
	Profile      string    `json:"profile"`
	APIKey       string    `json:"api_key"`
	APISecret    string    `json:"api_secret"`
	UserID       string    `json:"user_id"`
	OAuthToken   string    `json:"oauth_token,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// CredentialStore is the interface for storing and retrieving credentials
type CredentialStore interface {
	Store(creds *Credentials) error
	Retrieve(profile string) (*Credentials, error)
	Delete(profile string) error
	Exists(profile string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager trying the system keychain
// first, then an encrypted file, then environment variables
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager with explicit stores, used by tests
func NewManagerWithStores(stores ...CredentialStore) *Manager {
	return &Manager{stores: stores}
}

// Store saves credentials using the first store that accepts them
func (m *Manager) Store(creds *Credentials) error {
	if creds.Profile == "" {
		return fmt.Errorf("%w: profile is required", ErrInvalidCredentials)
	}
	if creds.APIKey == "" || creds.APISecret == "" {
		return fmt.Errorf("%w: API key and secret are required", ErrInvalidCredentials)
	}

	creds.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		lastErr = store.Store(creds)
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("all credential stores failed: %w", lastErr)
}

// Retrieve returns credentials from the first store that has them
func (m *Manager) Retrieve(profile string) (*Credentials, error) {
	for _, store := range m.stores {
		creds, err := store.Retrieve(profile)
		if err == nil {
			return creds, nil
		}
	}
	return nil, ErrCredentialsNotFound
}

// Delete removes credentials from every store that has them
func (m *Manager) Delete(profile string) error {
	deleted := false
	for _, store := range m.stores {
		if store.Exists(profile) {
			if err := store.Delete(profile); err != nil {
				return err
			}
			deleted = true
		}
	}
	if !deleted {
		return ErrCredentialsNotFound
	}
	return nil
}

// Exists reports whether any store has credentials for the profile
func (m *Manager) Exists(profile string) bool {
	for _, store := range m.stores {
		if store.Exists(profile) {
			return true
		}
	}
	return false
}

// getConfigDir returns the per-user configuration directory
func getConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "flickrvault")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}
