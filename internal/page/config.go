package page

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
)

// Mode selects how a page is unlocked.
type Mode string

const (
	// ModeDocument unlocks every section at once with one credential.
	ModeDocument Mode = "document"

	// ModeSection unlocks and remembers each section independently.
	ModeSection Mode = "section"
)

// ParseMode validates a mode name. An empty name means ModeDocument.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeDocument:
		return ModeDocument, nil
	case ModeSection:
		return ModeSection, nil
	}
	return "", fmt.Errorf("unknown mode %q, expected %q or %q", s, ModeDocument, ModeSection)
}

// Config is the per-page configuration embedded next to the placeholders.
type Config struct {
	EncryptedContent       string `json:"encryptedContent"`
	Salt                   string `json:"salt"`
	IsRememberEnabled      bool   `json:"isRememberEnabled"`
	RememberDurationInDays int    `json:"rememberDurationInDays"`
	Mode                   Mode   `json:"mode,omitempty"`
}

const configBlockID = "pagelock-config"

var configBlockRe = regexp.MustCompile(`(?s)<script id="` + configBlockID + `" type="application/json">(.*?)</script>`)

var bodyCloseRe = regexp.MustCompile(`(?i)</body\s*>`)

// renderConfigBlock returns the script element holding cfg. encoding/json
// escapes <, > and &, so the payload can never close the script early.
func renderConfigBlock(cfg Config) (string, error) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to encode page config: %w", err)
	}
	return `<script id="` + configBlockID + `" type="application/json">` + string(payload) + `</script>`, nil
}

// embedConfigBlock inserts block before the last </body>, or appends it.
func embedConfigBlock(src, block string) string {
	locs := bodyCloseRe.FindAllStringIndex(src, -1)
	if len(locs) == 0 {
		return src + "\n" + block + "\n"
	}
	at := locs[len(locs)-1][0]
	return src[:at] + block + "\n" + src[at:]
}

// HasConfig reports whether src already carries a config block.
func HasConfig(src string) bool {
	return configBlockRe.MatchString(src)
}

// ExtractConfig reads the config block written by EncodeDocument.
// A missing block, invalid JSON or an empty envelope or salt fails with ErrFormat.
func ExtractConfig(src string) (*Config, error) {
	m := configBlockRe.FindStringSubmatch(src)
	if m == nil {
		return nil, fmt.Errorf("%w: no pagelock config block found", kerrors.ErrFormat)
	}

	var cfg Config
	if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &cfg); err != nil {
		return nil, fmt.Errorf("%w: invalid config block: %v", kerrors.ErrFormat, err)
	}
	if cfg.EncryptedContent == "" || cfg.Salt == "" {
		return nil, fmt.Errorf("%w: config block is missing encryptedContent or salt", kerrors.ErrFormat)
	}

	mode, err := ParseMode(string(cfg.Mode))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrFormat, err)
	}
	cfg.Mode = mode

	return &cfg, nil
}

// StripConfig removes the config block from src.
func StripConfig(src string) string {
	return configBlockRe.ReplaceAllString(src, "")
}
