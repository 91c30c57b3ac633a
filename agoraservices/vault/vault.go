package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

var ErrCipherTextTooShort = errors.New("cipher text too short")

// Vault seals small payloads (signed links, tokens) with AES-CTR under a
// fixed key. Output is URL safe.
type Vault struct {
	key []byte
}

// New needs a 16, 24 or 32 byte key.
func New(key []byte) (Vault, error) {
	if _, err := aes.NewCipher(key); err != nil {
		return Vault{}, fmt.Errorf("vault key: %w", err)
	}

	return Vault{
		key: key,
	}, nil
}

func (v Vault) Encrypt(plain []byte) ([]byte, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, aes.BlockSize+len(plain))
	iv := sealed[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}

	cipher.NewCTR(block, iv).XORKeyStream(sealed[aes.BlockSize:], plain)

	return []byte(base64.RawURLEncoding.EncodeToString(sealed)), nil
}

func (v Vault) Decrypt(raw []byte) ([]byte, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, err
	}

	if len(sealed) < aes.BlockSize {
		return nil, ErrCipherTextTooShort
	}

	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, err
	}

	plain := make([]byte, len(sealed)-aes.BlockSize)
	cipher.NewCTR(block, sealed[:aes.BlockSize]).XORKeyStream(plain, sealed[aes.BlockSize:])

	return plain, nil
}
