package infra

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eliteGoblin/focusd/actor/internal/domain"
)

const (
	keyFileName = ".store.key"
	keySize     = 32 // 256-bit SQLCipher key

	// KeyEnvVar overrides the key file with a hex-encoded key.
	KeyEnvVar = "ACTOR_STORE_KEY"
)

// FileKeyProvider implements domain.KeyProvider with a hex-encoded key in
// a 0600 file next to the tracker database.
type FileKeyProvider struct {
	keyPath string
	getenv  func(string) string
}

// NewFileKeyProvider creates a FileKeyProvider for the given data directory.
func NewFileKeyProvider(dataDir string) *FileKeyProvider {
	return &FileKeyProvider{
		keyPath: filepath.Join(dataDir, keyFileName),
		getenv:  os.Getenv,
	}
}

// GetKey returns the key from the environment, or from the key file.
func (p *FileKeyProvider) GetKey() ([]byte, error) {
	if env := p.getenv(KeyEnvVar); env != "" {
		return decodeKey(env, KeyEnvVar)
	}
	encoded, err := os.ReadFile(p.keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file: %w", err)
	}
	return decodeKey(string(encoded), p.keyPath)
}

// StoreKey writes the key file with restricted permissions.
func (p *FileKeyProvider) StoreKey(key []byte) error {
	if len(key) != keySize {
		return fmt.Errorf("invalid key size: got %d, want %d", len(key), keySize)
	}
	if err := os.MkdirAll(filepath.Dir(p.keyPath), 0700); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}
	if err := os.WriteFile(p.keyPath, []byte(hex.EncodeToString(key)), 0600); err != nil {
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}

// KeyExists reports whether a key is available.
func (p *FileKeyProvider) KeyExists() bool {
	if p.getenv(KeyEnvVar) != "" {
		return true
	}
	_, err := os.Stat(p.keyPath)
	return err == nil
}

func decodeKey(encoded, source string) ([]byte, error) {
	key, err := hex.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to decode key from %s: %w", source, err)
	}
	if len(key) != keySize {
		return nil, fmt.Errorf("invalid key size in %s: got %d, want %d", source, len(key), keySize)
	}
	return key, nil
}

// GenerateKey creates a new random 256-bit key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, keySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate random key: %w", err)
	}
	return key, nil
}

// EnsureKey returns the existing key, generating and storing one first if
// none exists.
func EnsureKey(provider domain.KeyProvider) ([]byte, error) {
	if provider.KeyExists() {
		return provider.GetKey()
	}
	key, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := provider.StoreKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

// Ensure FileKeyProvider implements domain.KeyProvider.
var _ domain.KeyProvider = (*FileKeyProvider)(nil)
