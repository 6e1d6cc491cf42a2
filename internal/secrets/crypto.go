package secrets

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
)

const (
	// IVSize is the CBC initialization vector length in bytes.
	IVSize = aes.BlockSize

	// ivHexLen is the fixed width of the IV segment at the head of an envelope.
	ivHexLen = IVSize * 2
)

// Encrypt encrypts plaintext with AES-256-CBC under the hex encoded key.
//
// A fresh random IV is generated for every call. The returned envelope is
// hex(IV) followed by hex(ciphertext) with no separator; the IV segment is
// always 32 characters wide.
func Encrypt(plaintext, keyHex string) (string, error) {
	key, err := decodeKey(keyHex)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	padded := pkcs7Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return EncodeHex(iv) + EncodeHex(ciphertext), nil
}

// Decrypt reverses Encrypt.
//
// Every failure (malformed hex, bad key, ragged ciphertext, bad padding or
// invalid UTF-8) is reported as ErrDecryption so that callers cannot tell a
// wrong password from a corrupted payload.
func Decrypt(envelope, keyHex string) (string, error) {
	plaintext, ok := open(envelope, keyHex)
	if !ok {
		return "", kerrors.ErrDecryption
	}
	return plaintext, nil
}

func open(envelope, keyHex string) (string, bool) {
	key, err := decodeKey(keyHex)
	if err != nil {
		return "", false
	}
	if len(envelope) < ivHexLen {
		return "", false
	}

	iv, err := DecodeHex(envelope[:ivHexLen])
	if err != nil {
		return "", false
	}
	ciphertext, err := DecodeHex(envelope[ivHexLen:])
	if err != nil {
		return "", false
	}
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", false
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", false
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(padded, ciphertext)

	raw, ok := pkcs7Unpad(padded, aes.BlockSize)
	if !ok {
		return "", false
	}

	plaintext, err := DecodeUTF8(raw)
	if err != nil {
		return "", false
	}
	return plaintext, true
}

// ValidateKey reports whether keyHex is a well-formed derived key.
func ValidateKey(keyHex string) error {
	_, err := decodeKey(keyHex)
	return err
}

func decodeKey(keyHex string) ([]byte, error) {
	key, err := DecodeHex(keyHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidKeyLength, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d bytes", kerrors.ErrInvalidKeyLength, KeySize, len(key))
	}
	return key, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(append([]byte{}, data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

// pkcs7Unpad checks every padding byte; the loop always inspects the full
// trailing block so timing does not depend on where the padding breaks.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, bool) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, false
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, false
	}

	valid := true
	tail := data[len(data)-blockSize:]
	for i := 0; i < blockSize; i++ {
		if i >= blockSize-n && int(tail[i]) != n {
			valid = false
		}
	}
	if !valid {
		return nil, false
	}
	return data[:len(data)-n], true
}
