package page

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PolarWolf314/pagelock/internal/secrets"
)

const (
	shareKeyParam      = "pagelock_key"
	shareRememberParam = "remember_me"
)

// ShareLink returns baseURL with a fragment carrying keyHex, so that the
// recipient's browser can unlock the page without typing the password.
// Fragments are never sent to the server hosting the page.
func ShareLink(baseURL, keyHex string, remember bool) (string, error) {
	if err := secrets.ValidateKey(keyHex); err != nil {
		return "", err
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid page URL %q: %w", baseURL, err)
	}

	fragment := shareKeyParam + "=" + keyHex
	if remember {
		fragment += "&" + shareRememberParam
	}
	u.Fragment = fragment
	u.RawFragment = ""

	return u.String(), nil
}

// ParseShareFragment reads a fragment produced by ShareLink. The leading "#"
// is optional. ok is false when the fragment carries no valid key.
func ParseShareFragment(fragment string) (keyHex string, remember bool, ok bool) {
	values, err := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	if err != nil {
		return "", false, false
	}

	keyHex = values.Get(shareKeyParam)
	if secrets.ValidateKey(keyHex) != nil {
		return "", false, false
	}
	return keyHex, values.Has(shareRememberParam), true
}

// ParseShareLink extracts the share fragment from a full URL.
func ParseShareLink(link string) (keyHex string, remember bool, ok bool) {
	u, err := url.Parse(link)
	if err != nil {
		return "", false, false
	}
	return ParseShareFragment(u.Fragment)
}
