package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize   = 32
	keySize    = 32
	pbkdf2Iter = 100000
)

// EncryptedFileStore stores credentials in an AES-GCM encrypted file.
// The encryption key is derived from a passphrase with PBKDF2; the
// passphrase comes from FLICKRVAULT_PASSPHRASE or falls back to a
// machine-local default.
type EncryptedFileStore struct {
	path string
	mu   sync.Mutex
}

// fileEnvelope is the on-disk layout: salt followed by nonce and ciphertext
type fileEnvelope struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// NewEncryptedFileStore creates a file-backed encrypted store at path
func NewEncryptedFileStore(path string) (*EncryptedFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return &EncryptedFileStore{path: path}, nil
}

func (e *EncryptedFileStore) Store(creds *Credentials) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	all, err := e.loadAll()
	if err != nil {
		return err
	}
	all[creds.Profile] = creds
	return e.saveAll(all)
}

func (e *EncryptedFileStore) Retrieve(profile string) (*Credentials, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	all, err := e.loadAll()
	if err != nil {
		return nil, err
	}
	creds, ok := all[profile]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return creds, nil
}

func (e *EncryptedFileStore) Delete(profile string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	all, err := e.loadAll()
	if err != nil {
		return err
	}
	if _, ok := all[profile]; !ok {
		return ErrCredentialsNotFound
	}
	delete(all, profile)
	return e.saveAll(all)
}

func (e *EncryptedFileStore) Exists(profile string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	all, err := e.loadAll()
	if err != nil {
		return false
	}
	_, ok := all[profile]
	return ok
}

func (e *EncryptedFileStore) loadAll() (map[string]*Credentials, error) {
	data, err := os.ReadFile(e.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]*Credentials), nil
		}
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("corrupt credential file: %w", err)
	}

	key := deriveKey(passphrase(), env.Salt)
	plaintext, err := decrypt(key, env.Nonce, env.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials: %w", err)
	}

	all := make(map[string]*Credentials)
	if err := json.Unmarshal(plaintext, &all); err != nil {
		return nil, fmt.Errorf("corrupt credential payload: %w", err)
	}
	return all, nil
}

func (e *EncryptedFileStore) saveAll(all map[string]*Credentials) error {
	plaintext, err := json.Marshal(all)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	key := deriveKey(passphrase(), salt)
	nonce, ciphertext, err := encrypt(key, plaintext)
	if err != nil {
		return err
	}

	data, err := json.Marshal(fileEnvelope{Salt: salt, Nonce: nonce, Ciphertext: ciphertext})
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	tmp := e.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write credential file: %w", err)
	}
	if err := os.Rename(tmp, e.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to finalize credential file: %w", err)
	}
	return nil
}

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iter, keySize, sha256.New)
}

func encrypt(key, plaintext []byte) (nonce, ciphertext []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return nonce, gcm.Seal(nil, nonce, plaintext, nil), nil
}

func decrypt(key, nonce, ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return gcm.Open(nil, nonce, ciphertext, nil)
}

func passphrase() string {
	if p := os.Getenv("FLICKRVAULT_PASSPHRASE"); p != "" {
		return p
	}
	host, _ := os.Hostname()
	return "flickrvault-" + host
}
