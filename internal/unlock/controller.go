package unlock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/PolarWolf314/pagelock/internal/credentials"
	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
	"github.com/PolarWolf314/pagelock/internal/page"
	"github.com/PolarWolf314/pagelock/internal/secrets"
	"github.com/PolarWolf314/pagelock/internal/sections"
)

// KeyDeriver turns a typed password into a hex key. It is a suspension point:
// implementations should return early when ctx is done.
type KeyDeriver func(ctx context.Context, password, salt string) (string, error)

// Option configures a Controller.
type Option func(*Controller)

// WithKeyDeriver replaces PBKDF2 key derivation.
func WithKeyDeriver(d KeyDeriver) Option {
	return func(c *Controller) {
		c.derive = d
	}
}

// Controller restores one encoded page. Build one per page load.
//
// Prompt and Document methods are called with the controller's lock held and
// must not call back into the controller.
type Controller struct {
	mu     sync.Mutex
	cfg    page.Config
	doc    Document
	prompt Prompt
	store  *credentials.Store
	derive KeyDeriver

	scopes map[string]*scope
	order  []string
}

// New returns a Controller for the page described by cfg. In section mode the
// scopes are the placeholders present in doc at construction time.
func New(cfg page.Config, doc Document, prompt Prompt, store *credentials.Store, opts ...Option) (*Controller, error) {
	if doc == nil {
		return nil, errors.New("unlock: document is required")
	}
	if store == nil {
		return nil, errors.New("unlock: credential store is required")
	}

	mode, err := page.ParseMode(string(cfg.Mode))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrFormat, err)
	}
	cfg.Mode = mode

	if prompt == nil {
		prompt = NopPrompt{}
	}

	c := &Controller{
		cfg:    cfg,
		doc:    doc,
		prompt: prompt,
		store:  store,
		derive: secrets.DeriveKeyContext,
		scopes: make(map[string]*scope),
	}
	for _, opt := range opts {
		opt(c)
	}

	if mode == page.ModeDocument {
		c.addScope(credentials.DocumentScope)
	} else {
		for _, id := range doc.PlaceholderIDs() {
			c.addScope(id)
		}
	}

	return c, nil
}

func (c *Controller) addScope(id string) {
	if _, ok := c.scopes[id]; ok {
		return
	}
	c.scopes[id] = &scope{state: Locked}
	c.order = append(c.order, id)
}

// Mode returns the page's unlock mode.
func (c *Controller) Mode() page.Mode {
	return c.cfg.Mode
}

// Scopes returns the scope ids in document order.
func (c *Controller) Scopes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

// State returns the current state of a scope.
func (c *Controller) State(id string) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, err := c.lookup(c.normalize(id))
	if err != nil {
		return Locked, err
	}
	return sc.state, nil
}

// Pending returns the scopes that are not unlocked yet, in document order.
func (c *Controller) Pending() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	var pending []string
	for _, id := range c.order {
		if c.scopes[id].state != Unlocked {
			pending = append(pending, id)
		}
	}
	return pending
}

// Activate handles a reader asking to see a scope.
//
// With a remembered credential the scope is decrypted straight away and no
// prompt is shown. If the credential no longer works it is forgotten and the
// prompt opens instead. Activating an unlocked or already prompting scope
// changes nothing.
func (c *Controller) Activate(ctx context.Context, id string) (State, error) {
	id = c.normalize(id)

	c.mu.Lock()
	sc, err := c.lookup(id)
	if err != nil {
		c.mu.Unlock()
		return Locked, err
	}
	if sc.state != Locked {
		state := sc.state
		c.mu.Unlock()
		return state, nil
	}

	key, err := c.store.Recall(id)
	if err != nil {
		// Absent, expired and unreadable credentials all end at the prompt.
		c.openPrompt(id, sc)
		c.mu.Unlock()
		return PromptingUser, nil
	}

	sc.state = AttemptingRemembered
	gen := sc.generation
	c.mu.Unlock()

	secs, err := c.decrypt(ctx, key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if sc.generation != gen || sc.state != AttemptingRemembered {
		return sc.state, kerrors.ErrAttemptDiscarded
	}

	if canceled(err) {
		// The key was never tried, so it stays remembered.
		sc.state = Locked
		return Locked, err
	}
	if err == nil {
		err = c.apply(id, secs)
	}
	if err != nil {
		_ = c.store.Forget(id)
		c.openPrompt(id, sc)
		return PromptingUser, nil
	}

	sc.state = Unlocked
	return Unlocked, nil
}

// Submit tries a typed password for a prompting scope.
//
// On success the content is injected, the prompt closes and, when remember
// is set and the page allows it, the derived key is remembered. On failure
// the reader sees IncorrectPasswordMessage, the password field is cleared,
// the scope keeps prompting, and the returned state is Failed with
// ErrDecryption.
//
// Only one attempt per scope runs at a time; a submit while another is
// running returns ErrAttemptInFlight and does nothing. If the prompt is
// closed before the attempt resolves, its result is dropped and
// ErrAttemptDiscarded is returned.
func (c *Controller) Submit(ctx context.Context, id, password string, remember bool) (State, error) {
	id = c.normalize(id)

	c.mu.Lock()
	sc, err := c.lookup(id)
	if err != nil {
		c.mu.Unlock()
		return Locked, err
	}

	state := sc.state
	switch {
	case state == Unlocked:
		c.mu.Unlock()
		return Unlocked, nil
	case sc.inFlight:
		c.mu.Unlock()
		return state, kerrors.ErrAttemptInFlight
	case state != PromptingUser && state != Failed:
		c.mu.Unlock()
		return state, fmt.Errorf("%w: cannot submit a password while %s", kerrors.ErrInvalidState, state)
	}

	sc.inFlight = true
	gen := sc.generation
	c.mu.Unlock()

	key, err := c.derive(ctx, password, c.cfg.Salt)
	var secs []sections.Section
	if err == nil {
		secs, err = c.decrypt(ctx, key)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	sc.inFlight = false

	if sc.generation != gen || !sc.state.waiting() {
		return sc.state, kerrors.ErrAttemptDiscarded
	}

	if err != nil {
		if canceled(err) {
			return sc.state, err
		}
		c.fail(id, sc)
		return Failed, kerrors.ErrDecryption
	}

	if err := c.apply(id, secs); err != nil {
		return sc.state, err
	}

	sc.state = Unlocked
	c.prompt.ClearPassword(id)
	c.prompt.Close(id)

	if remember && c.cfg.IsRememberEnabled {
		if err := c.store.Remember(id, key, c.cfg.RememberDurationInDays); err != nil {
			return Unlocked, fmt.Errorf("content unlocked but the password could not be remembered: %w", err)
		}
	}

	return Unlocked, nil
}

// Close handles the reader dismissing the prompt. The scope goes back to
// Locked and any attempt still running for it will be discarded.
func (c *Controller) Close(id string) error {
	id = c.normalize(id)

	c.mu.Lock()
	defer c.mu.Unlock()

	sc, err := c.lookup(id)
	if err != nil {
		return err
	}
	if !sc.state.waiting() {
		return nil
	}

	sc.state = Locked
	sc.generation++
	c.prompt.ClearPassword(id)
	c.prompt.Close(id)
	return nil
}

// ApplyShareFragment unlocks the page with a key from a share link fragment.
//
// The key is tried on every scope that is locked or prompting. Unlocked
// scopes and scopes with an attempt running are left alone, and credentials
// remembered earlier are never overwritten unless the key works. A prompting
// scope the key opens has its prompt closed. A locked scope the key does not
// open is activated as usual. The key is remembered only when the link asked
// for it and the page allows it. ok is false when fragment carries no key.
func (c *Controller) ApplyShareFragment(ctx context.Context, fragment string) (ok bool, err error) {
	key, remember, ok := page.ParseShareFragment(fragment)
	if !ok {
		return false, nil
	}
	remember = remember && c.cfg.IsRememberEnabled

	var firstErr error
	for _, id := range c.Scopes() {
		if _, err := c.applySharedKey(ctx, id, key, remember); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return true, firstErr
}

func (c *Controller) applySharedKey(ctx context.Context, id, key string, remember bool) (State, error) {
	c.mu.Lock()
	sc := c.scopes[id]
	prompting := sc.state.waiting() && sc.state != AttemptingRemembered
	if sc.inFlight || (sc.state != Locked && !prompting) {
		state := sc.state
		c.mu.Unlock()
		return state, nil
	}
	if prompting {
		sc.inFlight = true
	} else {
		sc.state = AttemptingRemembered
	}
	gen := sc.generation
	c.mu.Unlock()

	secs, err := c.decrypt(ctx, key)

	c.mu.Lock()
	if prompting {
		sc.inFlight = false
	}
	if sc.generation != gen || (prompting && !sc.state.waiting()) || (!prompting && sc.state != AttemptingRemembered) {
		state := sc.state
		c.mu.Unlock()
		return state, kerrors.ErrAttemptDiscarded
	}
	if err == nil {
		err = c.apply(id, secs)
	}
	if err != nil {
		if prompting {
			state := sc.state
			c.mu.Unlock()
			if canceled(err) {
				return state, err
			}
			return state, nil
		}
		sc.state = Locked
		c.mu.Unlock()
		if canceled(err) {
			return Locked, err
		}
		return c.Activate(ctx, id)
	}

	sc.state = Unlocked
	if prompting {
		c.prompt.ClearPassword(id)
		c.prompt.Close(id)
	}
	c.mu.Unlock()

	if remember {
		if err := c.store.Remember(id, key, c.cfg.RememberDurationInDays); err != nil {
			return Unlocked, fmt.Errorf("content unlocked but the shared key could not be remembered: %w", err)
		}
	}
	return Unlocked, nil
}

func (c *Controller) normalize(id string) string {
	if id == "" && c.cfg.Mode == page.ModeDocument {
		return credentials.DocumentScope
	}
	return id
}

func (c *Controller) lookup(id string) (*scope, error) {
	sc, ok := c.scopes[id]
	if !ok {
		return nil, fmt.Errorf("%w: no scope %q on this page", kerrors.ErrNotFound, id)
	}
	return sc, nil
}

// decrypt runs without the lock. cfg never changes after New.
func (c *Controller) decrypt(ctx context.Context, key string) ([]sections.Section, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return page.DecryptSections(&c.cfg, key)
}

// apply injects the sections belonging to scope id. It must run with the lock held.
func (c *Controller) apply(id string, secs []sections.Section) error {
	if c.cfg.Mode == page.ModeDocument {
		for _, s := range secs {
			if err := c.doc.Inject(s); err != nil {
				return err
			}
		}
		return nil
	}

	s, err := sections.Find(secs, id)
	if err != nil {
		return err
	}
	return c.doc.Inject(s)
}

func (c *Controller) openPrompt(id string, sc *scope) {
	sc.state = PromptingUser
	c.prompt.Open(id)
}

// fail reports a rejected password. Any remembered credential for the scope
// is dropped as well.
func (c *Controller) fail(id string, sc *scope) {
	sc.state = Failed
	_ = c.store.Forget(id)
	c.prompt.ShowError(id, IncorrectPasswordMessage)
	c.prompt.ClearPassword(id)
	sc.state = PromptingUser
}

func canceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
