package page

import (
	"fmt"

	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
	"github.com/PolarWolf314/pagelock/internal/secrets"
	"github.com/PolarWolf314/pagelock/internal/sections"
)

// EncodeOptions configures EncodeDocument.
type EncodeOptions struct {
	// Salt is the shared salt the key was derived with. Required.
	Salt string

	// RememberEnabled lets readers keep the derived key between visits.
	RememberEnabled bool

	// RememberDays is how long a remembered key stays valid; 0 means no expiry.
	RememberDays int

	// Mode selects whole-document or per-section unlocking.
	Mode Mode

	// Segmenter extracts the marked regions. Nil uses the default markers.
	Segmenter *sections.Segmenter
}

// EncodeResult is the outcome of EncodeDocument.
type EncodeResult struct {
	// HTML is the page to publish. It equals the input when Encrypted is false.
	HTML string

	// Encrypted is false when the page had no marked regions.
	Encrypted bool

	// SectionIDs lists the placeholder ids in document order.
	SectionIDs []string
}

// EncodeDocument protects the marked regions of src with keyHex.
//
// The sections are serialized as one JSON array and encrypted as a single
// envelope. A page without markers is returned unchanged with Encrypted false,
// and callers should copy it as is.
func EncodeDocument(src, keyHex string, opts EncodeOptions) (*EncodeResult, error) {
	if opts.Salt == "" {
		return nil, kerrors.ErrNoSalt
	}

	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}

	seg := opts.Segmenter
	if seg == nil {
		if seg, err = sections.New(); err != nil {
			return nil, err
		}
	}

	placeholderHTML, secs, err := seg.Extract(src)
	if err != nil {
		return nil, err
	}
	if len(secs) == 0 {
		return &EncodeResult{HTML: src}, nil
	}

	if HasConfig(src) {
		return nil, fmt.Errorf("%w: page already contains a pagelock config block", kerrors.ErrFormat)
	}

	plaintext, err := sections.Serialize(secs)
	if err != nil {
		return nil, err
	}

	envelope, err := secrets.Encrypt(plaintext, keyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt sections: %w", err)
	}

	rememberDays := opts.RememberDays
	if rememberDays < 0 {
		rememberDays = 0
	}

	block, err := renderConfigBlock(Config{
		EncryptedContent:       envelope,
		Salt:                   opts.Salt,
		IsRememberEnabled:      opts.RememberEnabled,
		RememberDurationInDays: rememberDays,
		Mode:                   mode,
	})
	if err != nil {
		return nil, err
	}

	return &EncodeResult{
		HTML:       embedConfigBlock(placeholderHTML, block),
		Encrypted:  true,
		SectionIDs: sections.IDs(secs),
	}, nil
}

// DecodeDocument recovers the sections of an encoded page with keyHex.
// It fails with ErrFormat for a missing or broken config block and with
// ErrDecryption for a wrong key; it never returns a partial result.
func DecodeDocument(src, keyHex string) ([]sections.Section, *Config, error) {
	cfg, err := ExtractConfig(src)
	if err != nil {
		return nil, nil, err
	}

	secs, err := DecryptSections(cfg, keyHex)
	if err != nil {
		return nil, nil, err
	}
	return secs, cfg, nil
}

// DecryptSections decrypts and parses the envelope of cfg.
func DecryptSections(cfg *Config, keyHex string) ([]sections.Section, error) {
	plaintext, err := secrets.Decrypt(cfg.EncryptedContent, keyHex)
	if err != nil {
		return nil, err
	}

	secs, err := sections.Deserialize(plaintext)
	if err != nil {
		// A key that decrypts to valid padding but not to our JSON is
		// still a wrong key as far as the reader is concerned.
		return nil, fmt.Errorf("%w: %v", kerrors.ErrDecryption, err)
	}
	return secs, nil
}
