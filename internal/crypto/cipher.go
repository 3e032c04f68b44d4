// Package crypto implements the reversible credential cipher.
//
// Passwords are never stored in plaintext: they are encrypted with
// AES-256-CBC under a key derived from the configured secret, and the
// ciphertext is persisted together with the random IV used for it.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	keyLen        = 32
	pbkdf2Rounds  = 4096
	pbkdf2SaltTag = "davra-credential-v1"
)

// Cipher encrypts and decrypts user credentials.
type Cipher struct {
	key []byte
}

// NewCipher derives the AES key from the configured secret.
func NewCipher(secret string) (*Cipher, error) {
	if secret == "" {
		return nil, errors.New("credential key is required")
	}
	key := pbkdf2.Key([]byte(secret), []byte(pbkdf2SaltTag), pbkdf2Rounds, keyLen, sha256.New)
	return &Cipher{key: key}, nil
}

// Encrypt returns the hex-encoded ciphertext and IV for the given plaintext.
func (c *Cipher) Encrypt(plaintext string) (ciphertext, iv string, err error) {
	if plaintext == "" {
		return "", "", errors.New("text to encrypt is required")
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", "", fmt.Errorf("creating cipher: %w", err)
	}

	rawIV := make([]byte, aes.BlockSize)
	if _, err := rand.Read(rawIV); err != nil {
		return "", "", fmt.Errorf("generating IV: %w", err)
	}

	padded := pad([]byte(plaintext))
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, rawIV).CryptBlocks(out, padded)

	return hex.EncodeToString(out), hex.EncodeToString(rawIV), nil
}

// Decrypt reverses Encrypt given the hex-encoded ciphertext and IV.
func (c *Cipher) Decrypt(ciphertext, iv string) (string, error) {
	rawCipher, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}
	rawIV, err := hex.DecodeString(iv)
	if err != nil {
		return "", fmt.Errorf("decoding IV: %w", err)
	}
	if len(rawIV) != aes.BlockSize {
		return "", errors.New("IV must be one AES block")
	}
	if len(rawCipher) == 0 || len(rawCipher)%aes.BlockSize != 0 {
		return "", errors.New("ciphertext is not a whole number of blocks")
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("creating cipher: %w", err)
	}

	out := make([]byte, len(rawCipher))
	cipher.NewCBCDecrypter(block, rawIV).CryptBlocks(out, rawCipher)

	return unpad(out)
}

// Verify decrypts the stored credential and compares it to the candidate in
// constant time.
func (c *Cipher) Verify(ciphertext, iv, candidate string) bool {
	plaintext, err := c.Decrypt(ciphertext, iv)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(plaintext), []byte(candidate)) == 1
}

// pad applies PKCS#7 padding up to the AES block size.
func pad(b []byte) []byte {
	n := aes.BlockSize - len(b)%aes.BlockSize
	return append(b, bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(b []byte) (string, error) {
	if len(b) == 0 {
		return "", errors.New("empty plaintext")
	}
	n := int(b[len(b)-1])
	if n == 0 || n > aes.BlockSize || n > len(b) {
		return "", errors.New("invalid padding")
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return "", errors.New("invalid padding")
		}
	}
	return string(b[:len(b)-n]), nil
}
