package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64MB
	argonThreads = 4
	argonKeyLen  = 32 // AES-256
	saltLen      = 16
)

// ErrNoMasterPassword is returned when the vault is needed but no password is configured.
var ErrNoMasterPassword = errors.New("no master password set")

// sealedVault is the on-disk vault document. The salt travels with the
// ciphertext so only the password has to be supplied.
type sealedVault struct {
	Salt []byte `json:"salt"`
	Data []byte `json:"data"` // nonce || ciphertext
}

// deriveKey derives an AES-256 key from a password using Argon2id.
func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return gcm, nil
}

// sealSecrets encrypts the secret map with a fresh salt and nonce.
func sealSecrets(secrets map[string]string, password string) ([]byte, error) {
	if password == "" {
		return nil, ErrNoMasterPassword
	}
	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return nil, err
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	gcm, err := newGCM(deriveKey(password, salt))
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	return json.Marshal(sealedVault{
		Salt: salt,
		Data: gcm.Seal(nonce, nonce, plaintext, nil),
	})
}

// openSecrets reverses sealSecrets.
func openSecrets(raw []byte, password string) (map[string]string, error) {
	if password == "" {
		return nil, ErrNoMasterPassword
	}
	var sealed sealedVault
	if err := json.Unmarshal(raw, &sealed); err != nil {
		return nil, fmt.Errorf("parse vault: %w", err)
	}
	gcm, err := newGCM(deriveKey(password, sealed.Salt))
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(sealed.Data) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := sealed.Data[:nonceSize], sealed.Data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt vault: %w", err)
	}

	secrets := make(map[string]string)
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("parse vault: %w", err)
	}
	return secrets, nil
}
