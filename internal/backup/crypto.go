package backup

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
	argonTime = 3
	argonMem  = 64 * 1024
	argonPar  = 4
)

// sealedMagic prefixes every encrypted snapshot.
var sealedMagic = []byte("CBK1")

// ErrBadPassphrase is returned when a sealed snapshot cannot be opened with
// the given passphrase, or has been tampered with.
var ErrBadPassphrase = errors.New("backup: wrong passphrase or corrupted snapshot")

func deriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey([]byte(passphrase), salt, argonTime, argonMem, argonPar, keySize)
}

func newGCM(passphrase string, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(deriveKey(passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// Seal encrypts plaintext under a key derived from passphrase with Argon2id.
// Layout: magic | salt(16) | nonce(12) | AES-256-GCM ciphertext.
func Seal(plaintext []byte, passphrase string) ([]byte, error) {
	if passphrase == "" {
		return nil, errors.New("backup: empty passphrase")
	}

	header := make([]byte, saltSize+nonceSize)
	if _, err := io.ReadFull(rand.Reader, header); err != nil {
		return nil, fmt.Errorf("generate salt and nonce: %w", err)
	}
	salt, nonce := header[:saltSize], header[saltSize:]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(sealedMagic)+len(header)+len(plaintext)+gcm.Overhead())
	out = append(out, sealedMagic...)
	out = append(out, header...)
	// The magic is authenticated along with the ciphertext.
	return gcm.Seal(out, nonce, plaintext, sealedMagic), nil
}

// Open reverses Seal.
func Open(sealed []byte, passphrase string) ([]byte, error) {
	if !IsSealed(sealed) {
		return nil, errors.New("backup: not a sealed snapshot")
	}
	body := sealed[len(sealedMagic):]
	if len(body) < saltSize+nonceSize {
		return nil, errors.New("backup: sealed snapshot too small")
	}
	salt := body[:saltSize]
	nonce := body[saltSize : saltSize+nonceSize]

	gcm, err := newGCM(passphrase, salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, body[saltSize+nonceSize:], sealedMagic)
	if err != nil {
		return nil, ErrBadPassphrase
	}
	return plaintext, nil
}

// IsSealed reports whether data starts with the sealed snapshot header.
func IsSealed(data []byte) bool {
	return bytes.HasPrefix(data, sealedMagic)
}
