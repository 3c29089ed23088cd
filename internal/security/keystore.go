package security

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/zalando/go-keyring"

	"brainvoice/internal/config"
)

const (
	keyringService = "brainvoice"
	vaultFile      = "vault.json"
)

// KeyStore manages secure storage of API keys.
// Primary: OS Keychain. Fallback: encrypted file.
type KeyStore struct {
	mu        sync.Mutex
	password  string
	vaultPath string
}

// NewKeyStore creates a key store whose vault lives in dir.
// password may be empty when only the OS keychain is used.
func NewKeyStore(dir, password string) (*KeyStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, ".brainvoice")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &KeyStore{
		password:  password,
		vaultPath: filepath.Join(dir, vaultFile),
	}, nil
}

// Set stores a secret (tries keyring first, falls back to encrypted file).
func (ks *KeyStore) Set(name, value string) error {
	if err := keyring.Set(keyringService, name, value); err == nil {
		return nil
	}
	return ks.setInVault(name, value)
}

// Get retrieves a secret.
func (ks *KeyStore) Get(name string) (string, error) {
	if val, err := keyring.Get(keyringService, name); err == nil {
		return val, nil
	}
	return ks.getFromVault(name)
}

// Delete removes a secret from both backends.
func (ks *KeyStore) Delete(name string) error {
	_ = keyring.Delete(keyringService, name)
	return ks.deleteFromVault(name)
}

// Resolve returns value unless it is the keyring placeholder, in which
// case the secret stored under name is returned.
func (ks *KeyStore) Resolve(name, value string) (string, error) {
	if value != config.KeyringPlaceholder {
		return value, nil
	}
	secret, err := ks.Get(name)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", name, err)
	}
	return secret, nil
}

// MaskKey returns a masked version of an API key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "..." + key[len(key)-4:]
}

func (ks *KeyStore) loadVault() (map[string]string, error) {
	data, err := os.ReadFile(ks.vaultPath)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	return openSecrets(data, ks.password)
}

func (ks *KeyStore) saveVault(vault map[string]string) error {
	data, err := sealSecrets(vault, ks.password)
	if err != nil {
		return err
	}
	return renameio.WriteFile(ks.vaultPath, data, 0600)
}

func (ks *KeyStore) setInVault(name, value string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	vault, err := ks.loadVault()
	if err != nil {
		return err
	}
	vault[name] = value
	return ks.saveVault(vault)
}

func (ks *KeyStore) getFromVault(name string) (string, error) {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	vault, err := ks.loadVault()
	if err != nil {
		return "", err
	}
	val, ok := vault[name]
	if !ok {
		return "", fmt.Errorf("key not found: %s", name)
	}
	return val, nil
}

func (ks *KeyStore) deleteFromVault(name string) error {
	ks.mu.Lock()
	defer ks.mu.Unlock()
	vault, err := ks.loadVault()
	if err != nil {
		return nil // nothing to delete
	}
	if _, ok := vault[name]; !ok {
		return nil
	}
	delete(vault, name)
	return ks.saveVault(vault)
}
