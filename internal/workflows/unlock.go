package workflows

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/PolarWolf314/pagelock/internal/configs"
	"github.com/PolarWolf314/pagelock/internal/credentials"
	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
	"github.com/PolarWolf314/pagelock/internal/page"
	"github.com/PolarWolf314/pagelock/internal/unlock"
	"github.com/PolarWolf314/pagelock/internal/utils"
)

// DefaultMaxAttempts is how many passwords are asked per scope before the
// prompt is closed.
const DefaultMaxAttempts = 3

// ScopePrompt asks for the password of one scope. attempt starts at 1.
type ScopePrompt func(scope string, attempt int) (string, error)

// UnlockOptions configures the unlock workflow.
type UnlockOptions struct {
	// File is the encoded page.
	File string

	// Password is tried once per scope instead of prompting.
	Password string

	// Remember keeps the derived key in the credential store when the page
	// allows it.
	Remember bool

	// Forget removes the remembered keys of the page and stops.
	Forget bool

	// ShareLink is a link made by pagelock share. Its fragment carries the key.
	ShareLink string

	// Output receives the restored page. Empty means no file is written and
	// the HTML is only returned.
	Output string

	// Storage holds remembered keys. Defaults to a file in the user config
	// directory.
	Storage credentials.Storage

	// Prompt asks for passwords. Without it only remembered keys, the share
	// link and Password are used.
	Prompt ScopePrompt

	// Messages receives what a browser would show in the prompt, such as the
	// incorrect password notice. May be nil.
	Messages io.Writer

	// MaxAttempts per scope. Defaults to DefaultMaxAttempts.
	MaxAttempts int
}

// UnlockResult contains the outcome of an unlock operation.
type UnlockResult struct {
	// HTML is the page after unlocking. Fully unlocked pages have their
	// config block removed.
	HTML string

	// Output is the written file, if any.
	Output string

	// Mode is the page's unlock mode.
	Mode page.Mode

	// Unlocked and Locked list scopes by their final state.
	Unlocked []string
	Locked   []string

	// Forgotten is set when Forget removed the remembered keys.
	Forgotten bool
}

// Unlock runs the page runtime in the terminal.
//
// Each scope is activated in document order, so remembered keys and share
// links unlock without a prompt. Remaining scopes are asked for a password
// until they open or MaxAttempts is reached.
func Unlock(ctx context.Context, opts UnlockOptions) (*UnlockResult, error) {
	data, err := os.ReadFile(opts.File)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", kerrors.ErrFileNotFound, opts.File)
		}
		return nil, fmt.Errorf("reading %s: %w", opts.File, err)
	}
	src := string(data)

	cfg, err := page.ExtractConfig(src)
	if err != nil {
		return nil, err
	}
	doc, err := unlock.ParseHTMLDocument(src)
	if err != nil {
		return nil, err
	}

	storage := opts.Storage
	if storage == nil {
		storage = credentials.NewFileStorage(configs.UserPagelockSettings.CredentialsPath)
	}
	// Pages encoded with different salts never share credentials.
	store := credentials.NewStore(storage, credentials.WithNamespace(cfg.Salt))

	prompt := &messagePrompt{w: opts.Messages}
	ctrl, err := unlock.New(*cfg, doc, prompt, store)
	if err != nil {
		return nil, err
	}

	result := &UnlockResult{Mode: ctrl.Mode()}

	if opts.Forget {
		if err := store.ForgetAll(ctrl.Scopes()); err != nil {
			return nil, fmt.Errorf("forgetting remembered keys: %w", err)
		}
		result.Forgotten = true
		result.Locked = ctrl.Scopes()
		return result, nil
	}

	if opts.ShareLink != "" {
		u, err := url.Parse(opts.ShareLink)
		if err != nil {
			return nil, fmt.Errorf("invalid share link: %w", err)
		}
		ok, err := ctrl.ApplyShareFragment(ctx, u.Fragment)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: share link carries no key", kerrors.ErrFormat)
		}
	}

	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	for _, id := range ctrl.Pending() {
		if err := unlockScope(ctx, ctrl, id, opts, maxAttempts); err != nil {
			return nil, err
		}
	}

	for _, id := range ctrl.Scopes() {
		state, _ := ctrl.State(id)
		if state == unlock.Unlocked {
			result.Unlocked = append(result.Unlocked, id)
		} else {
			result.Locked = append(result.Locked, id)
		}
	}

	html, err := doc.Render()
	if err != nil {
		return nil, err
	}
	if len(result.Locked) == 0 {
		html = page.StripConfig(html)
	}
	result.HTML = html

	if opts.Output != "" {
		if err := utils.WriteFile(opts.Output, []byte(html), 0644); err != nil {
			return nil, err
		}
		result.Output = opts.Output
	}

	return result, nil
}

// unlockScope drives one scope to Unlocked or gives up on it. Only
// cancellation and unexpected controller errors are returned.
func unlockScope(ctx context.Context, ctrl *unlock.Controller, id string, opts UnlockOptions, maxAttempts int) error {
	state, err := ctrl.Activate(ctx, id)
	if err != nil {
		return err
	}
	if state == unlock.Unlocked {
		return nil
	}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		var password string
		switch {
		case opts.Password != "" && attempt == 1:
			password = opts.Password
		case opts.Prompt != nil:
			if password, err = opts.Prompt(id, attempt); err != nil {
				return fmt.Errorf("%w: %v", kerrors.ErrNoPassword, err)
			}
		default:
			return ctrl.Close(id)
		}

		state, err = ctrl.Submit(ctx, id, password, opts.Remember)
		switch {
		case state == unlock.Unlocked:
			if err != nil && opts.Messages != nil {
				fmt.Fprintln(opts.Messages, err)
			}
			return nil
		case errors.Is(err, kerrors.ErrDecryption):
			continue
		case err != nil:
			return err
		}
	}

	return ctrl.Close(id)
}

// messagePrompt shows the controller's prompt events as text lines.
type messagePrompt struct {
	w io.Writer
}

func (p *messagePrompt) Open(id string) {
	if p.w == nil {
		return
	}
	if id == credentials.DocumentScope {
		fmt.Fprintln(p.w, "This page is password protected.")
		return
	}
	fmt.Fprintf(p.w, "Section %s is password protected.\n", id)
}

func (p *messagePrompt) Close(string) {}

func (p *messagePrompt) ShowError(_ string, msg string) {
	if p.w != nil {
		fmt.Fprintln(p.w, msg)
	}
}

func (p *messagePrompt) ClearPassword(string) {}
