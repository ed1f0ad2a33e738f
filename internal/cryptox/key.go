package cryptox

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// ParseKey decodes a 64-character hex string into a 32-byte key.
func ParseKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// DeriveKey stretches an operator passphrase into a 32-byte key with
// argon2id. It is meant for startup configuration only; request data must
// never reach it.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)
}
