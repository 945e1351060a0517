// Package cryptox implements the optional at-rest sealing of credential
// secrets. Sealed values are self-describing, so a store may hold a mix of
// sealed and legacy plaintext secrets.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/passvault/internal/common"
	"golang.org/x/crypto/argon2"
)

// SealedPrefix marks a secret written by SecretSealer.Seal.
const SealedPrefix = "enc:v1:"

// keySalt is fixed: the passphrase is a server secret, not a user password,
// and the same passphrase must always yield the same key.
var keySalt = []byte("passvault/secrets/v1")

var ErrSealedValue = errors.New("cannot open sealed secret")

// DeriveMasterKey stretches a passphrase into a 32-byte AES-256 key with argon2id.
func DeriveMasterKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// Codec converts secrets between their API form and their stored form.
type Codec interface {
	Seal(plain string) (string, error)
	Open(stored string) (string, error)
}

// Plaintext stores secrets exactly as received.
type Plaintext struct{}

func (Plaintext) Seal(plain string) (string, error)  { return plain, nil }
func (Plaintext) Open(stored string) (string, error) { return stored, nil }

// SecretSealer seals secrets with AES-256-GCM.
type SecretSealer struct {
	aead cipher.AEAD
}

// NewSecretSealer derives the sealing key from passphrase.
func NewSecretSealer(passphrase string) (*SecretSealer, error) {
	if passphrase == "" {
		return nil, errors.New("empty passphrase")
	}
	key := DeriveMasterKey([]byte(passphrase), keySalt)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &SecretSealer{aead: aead}, nil
}

// Seal returns SealedPrefix + base64(nonce || ciphertext).
func (s *SecretSealer) Seal(plain string) (string, error) {
	nonce := common.GenerateRandByteArray(s.aead.NonceSize())
	sealed := s.aead.Seal(nonce, nonce, []byte(plain), nil)
	return SealedPrefix + base64.StdEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal. Values without SealedPrefix are returned unchanged.
func (s *SecretSealer) Open(stored string) (string, error) {
	encoded, ok := strings.CutPrefix(stored, SealedPrefix)
	if !ok {
		return stored, nil
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSealedValue, err)
	}
	ns := s.aead.NonceSize()
	if len(raw) < ns {
		return "", fmt.Errorf("%w: truncated value", ErrSealedValue)
	}
	plain, err := s.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSealedValue, err)
	}
	return string(plain), nil
}
