package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/scrypt"
)

const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	scryptKeyLen = 32
	saltLen      = 16
)

var ErrMalformedHash = errors.New("malformed password hash")

// HashPassword derives an scrypt key under a fresh random salt and returns
// base64(salt || key).
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(append(salt, key...)), nil
}

// ComparePassword reports whether password produced hash.
func ComparePassword(password string, hash string) (bool, error) {
	raw, err := base64.StdEncoding.DecodeString(hash)
	if err != nil || len(raw) != saltLen+scryptKeyLen {
		return false, ErrMalformedHash
	}

	key, err := scrypt.Key([]byte(password), raw[:saltLen], scryptN, scryptR, scryptP, scryptKeyLen)
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare(key, raw[saltLen:]) == 1, nil
}
