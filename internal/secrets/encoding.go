package secrets

import (
	"encoding/hex"
	"fmt"
	"unicode/utf8"

	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
)

// EncodeHex returns the lowercase hex encoding of b.
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

// DecodeHex decodes s strictly: odd length or any non-hex digit fails with ErrFormat.
func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrFormat, err)
	}
	return b, nil
}

// DecodeUTF8 converts b to a string, failing with ErrFormat on invalid UTF-8.
func DecodeUTF8(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: invalid UTF-8", kerrors.ErrFormat)
	}
	return string(b), nil
}
