package secrets

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// KeyDerivationIterations is the PBKDF2 work factor shared with the page runtime.
	KeyDerivationIterations = 600000

	// KeySize is the derived key length in bytes (AES-256).
	KeySize = 32

	// SaltSize is the number of random bytes in a generated salt.
	SaltSize = 16
)

// iterations is only lowered by tests; pages always use KeyDerivationIterations.
var iterations = KeyDerivationIterations

// DeriveKey derives the hex encoded page key from a password and the shared salt
// with PBKDF2-SHA256. Both inputs are used as their UTF-8 bytes.
func DeriveKey(password, salt string) string {
	return deriveKey(password, salt, iterations)
}

func deriveKey(password, salt string, n int) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), n, KeySize, sha256.New)
	return EncodeHex(key)
}

// DeriveKeyContext runs DeriveKey on its own goroutine and waits for either the
// result or ctx. Cancelling ctx stops the wait, not the derivation itself.
func DeriveKeyContext(ctx context.Context, password, salt string) (string, error) {
	n := iterations
	result := make(chan string, 1)
	go func() {
		result <- deriveKey(password, salt, n)
	}()

	select {
	case key := <-result:
		return key, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// GenerateSalt returns a new random salt as 32 hex characters.
func GenerateSalt() (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return EncodeHex(salt), nil
}

// SetIterations overrides the PBKDF2 iteration count and returns a function
// restoring the previous value. Only meant for tests in dependent packages.
func SetIterations(n int) (restore func()) {
	previous := iterations
	iterations = n
	return func() {
		iterations = previous
	}
}
