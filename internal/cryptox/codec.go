// Package cryptox implements the envelope codec that protects counseling
// journal content at rest.
//
// Content is sealed with AES-256-GCM under a single process-wide key. Every
// call to Encrypt draws a fresh random 16-byte IV, so encrypting the same text
// twice never yields the same envelope. The GCM tag is stored separately from
// the ciphertext and is verified as part of Open; a failed verification is
// always a hard error and never yields partial plaintext.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/bkjournal/internal/common"
)

const (
	// KeySize is the required key length in bytes (AES-256).
	KeySize = 32
	// IVSize is the GCM nonce length used for journal envelopes.
	IVSize = 16
	// TagSize is the GCM authentication tag length.
	TagSize = 16
)

var (
	ErrInvalidKey       = errors.New("encryption key must be 32 bytes")
	ErrInvalidPlaintext = errors.New("plaintext must not be empty")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// randReader is a test seam for the IV source.
var randReader io.Reader = rand.Reader

// Envelope is the stored form of an encrypted journal body. All three fields
// are lowercase hex strings.
type Envelope struct {
	Ciphertext string
	IV         string
	Tag        string
}

// IsZero reports whether no envelope field is set.
func (e Envelope) IsZero() bool {
	return e.Ciphertext == "" && e.IV == "" && e.Tag == ""
}

// Codec seals and opens envelopes with one immutable key. It holds no mutable
// state and is safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a Codec for the given 32-byte key. The caller keeps
// ownership of key and may wipe it after this returns.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}

	aead, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encrypt seals plaintext under a freshly generated IV.
func (c *Codec) Encrypt(plaintext string) (Envelope, error) {
	if plaintext == "" {
		return Envelope{}, ErrInvalidPlaintext
	}

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(randReader, iv); err != nil {
		return Envelope{}, fmt.Errorf("generate iv: %w", err)
	}

	buf := []byte(plaintext)
	sealed := c.aead.Seal(nil, iv, buf, nil)
	common.WipeByteArray(buf)

	split := len(sealed) - TagSize

	return Envelope{
		Ciphertext: hex.EncodeToString(sealed[:split]),
		IV:         hex.EncodeToString(iv),
		Tag:        hex.EncodeToString(sealed[split:]),
	}, nil
}

// Decrypt verifies and opens env. Malformed envelopes fail with
// common.ErrInvalidEnvelope before any cryptographic work is done; envelopes
// that do not authenticate fail with ErrDecryptionFailed.
func (c *Codec) Decrypt(env Envelope) (string, error) {
	ciphertext, iv, tag, err := decodeEnvelope(env)
	if err != nil {
		return "", err
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := c.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	s := string(plaintext)
	common.WipeByteArray(plaintext)

	return s, nil
}

func decodeEnvelope(env Envelope) (ciphertext, iv, tag []byte, err error) {
	// partial envelopes are corrupt, not empty
	if env.Ciphertext == "" || env.IV == "" || env.Tag == "" {
		return nil, nil, nil, fmt.Errorf("%w: missing envelope field", common.ErrInvalidEnvelope)
	}

	if len(env.IV) != IVSize*2 {
		return nil, nil, nil, fmt.Errorf("%w: iv must be %d hex chars", common.ErrInvalidEnvelope, IVSize*2)
	}
	if len(env.Tag) != TagSize*2 {
		return nil, nil, nil, fmt.Errorf("%w: tag must be %d hex chars", common.ErrInvalidEnvelope, TagSize*2)
	}

	if iv, err = hex.DecodeString(env.IV); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: iv is not hex", common.ErrInvalidEnvelope)
	}
	if tag, err = hex.DecodeString(env.Tag); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: tag is not hex", common.ErrInvalidEnvelope)
	}
	if ciphertext, err = hex.DecodeString(env.Ciphertext); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: ciphertext is not hex", common.ErrInvalidEnvelope)
	}

	return ciphertext, iv, tag, nil
}
