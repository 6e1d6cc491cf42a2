package workflows

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/PolarWolf314/pagelock/internal/audit"
	"github.com/PolarWolf314/pagelock/internal/configs"
	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
	"github.com/PolarWolf314/pagelock/internal/page"
	"github.com/PolarWolf314/pagelock/internal/secrets"
)

// ShareOptions configures the share workflow.
type ShareOptions struct {
	// URL is the published address of the encoded page.
	URL string

	// Page optionally names a local copy of the encoded page. Its salt is
	// used and the password is checked against it before a link is made.
	Page string

	// BaseDir locates the project. Defaults to the working directory.
	BaseDir string

	// Password and Salt override the environment and project config.
	Password string
	Salt     string

	// Remember asks the recipient's browser to remember the key.
	Remember bool

	// Prompt is asked for the password when none is configured.
	Prompt PasswordPrompt
}

// ShareResult contains the outcome of a share operation.
type ShareResult struct {
	// Link is the page URL with the key in its fragment.
	Link string

	// Salt is the salt the key was derived with.
	Salt string

	// Verified is set when the key was checked against a local page.
	Verified bool
}

// Share builds a link that unlocks a page without typing the password.
//
// The derived key travels in the URL fragment, which browsers do not send to
// the server. Anyone holding the link can read the page.
//
// Returns ErrNoSalt when no salt is configured and no page was given.
// Returns ErrDecryption when the password does not open the given page.
func Share(ctx context.Context, opts ShareOptions) (*ShareResult, error) {
	if _, err := url.Parse(opts.URL); err != nil || opts.URL == "" {
		return nil, fmt.Errorf("invalid page URL %q", opts.URL)
	}

	env, err := loadEnvironment(opts.BaseDir, &configs.Settings{Password: opts.Password, Salt: opts.Salt})
	if err != nil {
		return nil, err
	}

	var cfg *page.Config
	salt := env.settings.Salt
	if opts.Page != "" {
		data, err := os.ReadFile(opts.Page)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", opts.Page, err)
		}
		if cfg, err = page.ExtractConfig(string(data)); err != nil {
			return nil, err
		}
		salt = cfg.Salt
	}
	if salt == "" {
		return nil, kerrors.ErrNoSalt
	}

	password, err := env.password(opts.Prompt)
	if err != nil {
		return nil, err
	}
	key, err := secrets.DeriveKeyContext(ctx, password, salt)
	if err != nil {
		return nil, err
	}

	result := &ShareResult{Salt: salt}
	if cfg != nil {
		if _, err := page.DecryptSections(cfg, key); err != nil {
			return nil, err
		}
		result.Verified = true
	}

	if result.Link, err = page.ShareLink(opts.URL, key, opts.Remember); err != nil {
		return nil, err
	}

	entry := audit.LogWithUser(audit.OpShare)
	entry.PageURL = withoutFragment(opts.URL)
	audit.Log(entry)

	return result, nil
}

func withoutFragment(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}
