package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/chatter/pkg/domain"
	"github.com/aretw0/chatter/pkg/ports"
)

// sealedPrefix marks a field value produced by the encryption middleware.
const sealedPrefix = "enc:v1:"

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.SubmissionStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals the name, email, phone and message
// of every submission with AES-GCM. Ids, tenants and timestamps stay readable so stores can
// still order and count leads.
// Values written before encryption was enabled are returned unchanged.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != KeySize {
		return nil, fmt.Errorf("active key must be %d bytes (AES-256), got %d", KeySize, len(config.ActiveKey))
	}
	for i, k := range config.FallbackKeys {
		if len(k) != KeySize {
			return nil, fmt.Errorf("fallback key %d must be %d bytes, got %d", i, KeySize, len(k))
		}
	}
	return func(next ports.SubmissionStore) ports.SubmissionStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, sub *domain.Submission) error {
	sealed := *sub
	for _, field := range []*string{&sealed.Name, &sealed.Email, &sealed.Phone, &sealed.Message} {
		if *field == "" {
			continue
		}
		ciphertext, err := encrypt([]byte(*field), m.config.ActiveKey)
		if err != nil {
			return fmt.Errorf("failed to encrypt submission %s: %w", sub.ID, err)
		}
		*field = sealedPrefix + base64.StdEncoding.EncodeToString(ciphertext)
	}
	return m.next.Save(ctx, &sealed)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]*domain.Submission, error) {
	subs, err := m.next.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Submission, len(subs))
	for i, s := range subs {
		opened := *s
		for _, field := range []*string{&opened.Name, &opened.Email, &opened.Phone, &opened.Message} {
			if err := m.open(field); err != nil {
				return nil, fmt.Errorf("failed to decrypt submission %s: %w", s.ID, err)
			}
		}
		out[i] = &opened
	}
	return out, nil
}

func (m *encryptionMiddleware) open(field *string) error {
	encoded, ok := strings.CutPrefix(*field, sealedPrefix)
	if !ok {
		return nil
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}
	plain, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return err
	}
	*field = string(plain)
	return nil
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
