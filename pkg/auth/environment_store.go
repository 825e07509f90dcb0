package auth

import "os"

// EnvironmentStore reads credentials from environment variables. It is
// read-only and always the last fallback in the manager chain.
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is a no-op since environment variables cannot be written back
func (s *EnvironmentStore) Store(creds *Credentials) error {
	return ErrInvalidCredentials
}

func (s *EnvironmentStore) Retrieve(profile string) (*Credentials, error) {
	apiKey := os.Getenv("FLICKR_API_KEY")
	apiSecret := os.Getenv("FLICKR_API_SECRET")
	if apiKey == "" || apiSecret == "" {
		return nil, ErrCredentialsNotFound
	}
	return &Credentials{
		Profile:    profile,
		APIKey:     apiKey,
		APISecret:  apiSecret,
		UserID:     os.Getenv("FLICKR_USER_ID"),
		OAuthToken: os.Getenv("FLICKR_OAUTH_TOKEN"),
	}, nil
}

func (s *EnvironmentStore) Delete(profile string) error {
	return ErrCredentialsNotFound
}

func (s *EnvironmentStore) Exists(profile string) bool {
	return os.Getenv("FLICKR_API_KEY") != "" && os.Getenv("FLICKR_API_SECRET") != ""
}
