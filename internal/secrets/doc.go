// Package secrets provides the cryptographic codec for pagelock.
//
// Pages are protected with a key derived from a shared passphrase, so the
// same derivation must run at build time (this package) and in the reader's
// browser. Every parameter here is therefore part of the wire format.
//
// # Key Derivation
//
// Keys are derived with PBKDF2-SHA256, 600000 iterations, 32 bytes of output,
// from the UTF-8 bytes of the password and of the project salt. Keys travel
// as lowercase hex strings:
//
//	key := secrets.DeriveKey("hunter2", salt)
//
// # Envelope Format
//
// Encrypt produces an envelope:
//
//	hex(IV) ‖ hex(ciphertext)
//
// The IV is 16 random bytes generated per call, so its hex segment is always
// 32 characters wide and the decoder can split without a separator. The
// ciphertext is AES-256-CBC with PKCS#7 padding over the UTF-8 plaintext.
//
// # Security Considerations
//
// CBC carries no authentication. Decrypt reports every failure as
// errors.ErrDecryption so that a wrong password, a broken padding and a
// malformed envelope look the same to the caller. Do not add finer-grained
// errors to the decrypt path.
//
// # File Discovery
//
// ResolveFiles expands paths, directories and doublestar globs into the list
// of HTML files a build should process.
package secrets
