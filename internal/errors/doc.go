// Package errors provides typed error values for pagelock.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
//   - Format errors: malformed hex, JSON or markers (ErrFormat)
//   - Crypto errors: wrong password or corrupted content (ErrDecryption)
//   - Runtime errors: controller and credential store (ErrNotFound,
//     ErrExpiredCredential, ErrAttemptInFlight)
//   - Project errors: configuration state (ErrProjectNotInitialized)
//   - File errors: file discovery (ErrNoFilesFound, ErrFileNotFound)
//
// ErrDecryption covers both a wrong password and a corrupted ciphertext.
// Callers must never surface a more specific reason to the page reader.
//
// # Usage
//
//	plaintext, err := secrets.Decrypt(envelope, key)
//	if errors.Is(err, kerrors.ErrDecryption) {
//	    // Show the generic incorrect-password message
//	}
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("decoding %s: %w", path, errors.ErrFormat)
package errors
