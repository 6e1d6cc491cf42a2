package errors

import "errors"

// Wire and data errors indicate a corrupted or tampered page payload.
var (
	// ErrFormat indicates malformed hex, JSON, markers or a missing config block.
	ErrFormat = errors.New("malformed encrypted content")

	// ErrInvalidKeyLength indicates a derived key that is not 32 bytes of hex.
	ErrInvalidKeyLength = errors.New("invalid derived key length")
)

// Cryptographic errors indicate failures during decryption.
var (
	// ErrDecryption indicates a wrong password or corrupted ciphertext.
	// The two cases are deliberately indistinguishable.
	ErrDecryption = errors.New("incorrect password or corrupted content")
)

// Runtime errors are raised by the unlock controller and credential store.
var (
	// ErrNotFound indicates a placeholder or section id that does not exist.
	// It signals a mismatch between the encoded page and the runtime.
	ErrNotFound = errors.New("section not found")

	// ErrCredentialNotFound indicates no remembered credential for a scope.
	ErrCredentialNotFound = errors.New("no remembered credential")

	// ErrExpiredCredential indicates a remembered credential that has expired
	// and was evicted on read.
	ErrExpiredCredential = errors.New("remembered credential expired")

	// ErrAttemptInFlight indicates a submit while another attempt for the same
	// scope has not resolved yet.
	ErrAttemptInFlight = errors.New("decryption attempt already in progress")

	// ErrInvalidState indicates an operation the scope's current state does not allow.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrAttemptDiscarded indicates an attempt whose result was dropped because
	// the prompt was closed before it resolved.
	ErrAttemptDiscarded = errors.New("decryption attempt discarded")
)

// Project state errors indicate issues with project configuration or initialization.
var (
	// ErrProjectNotInitialized indicates the project has not been set up with pagelock.
	ErrProjectNotInitialized = errors.New("project has not been initialized")

	// ErrProjectAlreadyInitialized indicates the project has already been set up.
	ErrProjectAlreadyInitialized = errors.New("project has already been initialized")

	// ErrInvalidProjectConfig indicates the project configuration is malformed.
	ErrInvalidProjectConfig = errors.New("project configuration is invalid")

	// ErrNoPassword indicates no password was supplied by flag, env or prompt.
	ErrNoPassword = errors.New("no password provided")

	// ErrNoSalt indicates no salt was configured or supplied.
	ErrNoSalt = errors.New("no salt configured")
)

// File errors indicate issues with file discovery or access.
var (
	// ErrNoFilesFound indicates no files matched the provided patterns.
	ErrNoFilesFound = errors.New("no matching files found")

	// ErrFileNotFound indicates a specific file could not be located.
	ErrFileNotFound = errors.New("file not found")

	// ErrInvalidFileType indicates the file is not an HTML file.
	ErrInvalidFileType = errors.New("invalid file type")
)

// ErrInvalidDateFormat indicates a --since or --until date that is not YYYY-MM-DD.
var ErrInvalidDateFormat = errors.New("invalid date format")
