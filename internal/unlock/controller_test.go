package unlock

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/PolarWolf314/pagelock/internal/credentials"
	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
	"github.com/PolarWolf314/pagelock/internal/page"
	"github.com/PolarWolf314/pagelock/internal/secrets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	restore := secrets.SetIterations(1000)
	code := m.Run()
	restore()
	os.Exit(code)
}

const (
	testPassword = "correct horse"
	testSalt     = "0123456789abcdef0123456789abcdef"
	testSource   = `<html><body><p>intro</p><!--start--><p>first secret</p><!--end--><p>middle</p><!--start--><p>second secret</p><!--end--></body></html>`
)

// recordingPrompt records every call made by the controller.
type recordingPrompt struct {
	mu      sync.Mutex
	opened  []string
	closed  []string
	errors  []string
	cleared []string
}

func (p *recordingPrompt) Open(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.opened = append(p.opened, id)
}

func (p *recordingPrompt) Close(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, id)
}

func (p *recordingPrompt) ShowError(id, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errors = append(p.errors, msg)
}

func (p *recordingPrompt) ClearPassword(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cleared = append(p.cleared, id)
}

type fixture struct {
	ctrl   *Controller
	doc    *HTMLDocument
	prompt *recordingPrompt
	store  *credentials.Store
	key    string
}

func newFixture(t *testing.T, opts page.EncodeOptions, ctrlOpts ...Option) *fixture {
	t.Helper()

	key := secrets.DeriveKey(testPassword, testSalt)
	opts.Salt = testSalt
	res, err := page.EncodeDocument(testSource, key, opts)
	require.NoError(t, err)
	require.True(t, res.Encrypted)

	cfg, err := page.ExtractConfig(res.HTML)
	require.NoError(t, err)

	doc, err := ParseHTMLDocument(res.HTML)
	require.NoError(t, err)

	prompt := &recordingPrompt{}
	store := credentials.NewStore(credentials.NewMemoryStorage())

	ctrl, err := New(*cfg, doc, prompt, store, ctrlOpts...)
	require.NoError(t, err)

	return &fixture{ctrl: ctrl, doc: doc, prompt: prompt, store: store, key: key}
}

func (f *fixture) render(t *testing.T) string {
	t.Helper()
	out, err := f.doc.Render()
	require.NoError(t, err)
	return out
}

// blockingDeriver holds every derivation until release is closed.
type blockingDeriver struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingDeriver() *blockingDeriver {
	return &blockingDeriver{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *blockingDeriver) derive(ctx context.Context, password, salt string) (string, error) {
	b.started <- struct{}{}
	<-b.release
	return secrets.DeriveKey(password, salt), nil
}

func waitStarted(t *testing.T, b *blockingDeriver) {
	t.Helper()
	select {
	case <-b.started:
	case <-time.After(5 * time.Second):
		t.Fatal("derivation never started")
	}
}

func TestController_DocumentModeScopes(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{})

	assert.Equal(t, page.ModeDocument, f.ctrl.Mode())
	assert.Equal(t, []string{credentials.DocumentScope}, f.ctrl.Scopes())

	state, err := f.ctrl.State("")
	require.NoError(t, err)
	assert.Equal(t, Locked, state)
}

func TestController_TypedPasswordUnlocksDocument(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{RememberEnabled: true, RememberDays: 7})
	ctx := context.Background()

	state, err := f.ctrl.Activate(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, PromptingUser, state)
	assert.Equal(t, []string{credentials.DocumentScope}, f.prompt.opened)

	state, err = f.ctrl.Submit(ctx, "", testPassword, true)
	require.NoError(t, err)
	assert.Equal(t, Unlocked, state)

	out := f.render(t)
	assert.Contains(t, out, "first secret")
	assert.Contains(t, out, "second secret")
	assert.Empty(t, f.doc.PlaceholderIDs())
	assert.Equal(t, []string{credentials.DocumentScope}, f.prompt.closed)
	assert.Empty(t, f.ctrl.Pending())

	remembered, err := f.store.Recall(credentials.DocumentScope)
	require.NoError(t, err)
	assert.Equal(t, f.key, remembered)
}

func TestController_WrongPasswordLeavesDocumentUntouched(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{})
	ctx := context.Background()

	_, err := f.ctrl.Activate(ctx, "")
	require.NoError(t, err)
	before := f.render(t)

	state, err := f.ctrl.Submit(ctx, "", "wrong", false)
	require.ErrorIs(t, err, kerrors.ErrDecryption)
	assert.Equal(t, Failed, state)

	assert.Equal(t, before, f.render(t))
	assert.Equal(t, []string{IncorrectPasswordMessage}, f.prompt.errors)
	assert.Contains(t, f.prompt.cleared, credentials.DocumentScope)
	assert.Empty(t, f.prompt.closed)

	// The prompt stays open for another try.
	state, err = f.ctrl.State("")
	require.NoError(t, err)
	assert.Equal(t, PromptingUser, state)

	state, err = f.ctrl.Submit(ctx, "", testPassword, false)
	require.NoError(t, err)
	assert.Equal(t, Unlocked, state)
}

func TestController_RememberedCredentialSkipsPrompt(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{RememberEnabled: true, RememberDays: 1})
	require.NoError(t, f.store.Remember(credentials.DocumentScope, f.key, 1))

	state, err := f.ctrl.Activate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, Unlocked, state)
	assert.Empty(t, f.prompt.opened)
	assert.Contains(t, f.render(t), "second secret")
}

func TestController_StaleRememberedCredentialIsForgotten(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{RememberEnabled: true})
	stale := secrets.DeriveKey("old password", testSalt)
	require.NoError(t, f.store.Remember(credentials.DocumentScope, stale, 0))

	state, err := f.ctrl.Activate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, PromptingUser, state)
	assert.Equal(t, []string{credentials.DocumentScope}, f.prompt.opened)

	_, err = f.store.Recall(credentials.DocumentScope)
	assert.ErrorIs(t, err, kerrors.ErrCredentialNotFound)
}

func TestController_CancelledActivateKeepsRememberedCredential(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{RememberEnabled: true, RememberDays: 1})
	require.NoError(t, f.store.Remember(credentials.DocumentScope, f.key, 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state, err := f.ctrl.Activate(ctx, "")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Locked, state)
	assert.Empty(t, f.prompt.opened)

	remembered, err := f.store.Recall(credentials.DocumentScope)
	require.NoError(t, err)
	assert.Equal(t, f.key, remembered)

	// A later activation still uses the credential.
	state, err = f.ctrl.Activate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, Unlocked, state)
}

func TestController_ExpiredCredentialPrompts(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	key := secrets.DeriveKey(testPassword, testSalt)
	res, err := page.EncodeDocument(testSource, key, page.EncodeOptions{Salt: testSalt, RememberEnabled: true, RememberDays: 1})
	require.NoError(t, err)
	cfg, err := page.ExtractConfig(res.HTML)
	require.NoError(t, err)
	doc, err := ParseHTMLDocument(res.HTML)
	require.NoError(t, err)

	store := credentials.NewStore(credentials.NewMemoryStorage(), credentials.WithClock(func() time.Time { return clock() }))
	require.NoError(t, store.Remember(credentials.DocumentScope, key, 1))

	now = now.Add(25 * time.Hour)

	prompt := &recordingPrompt{}
	ctrl, err := New(*cfg, doc, prompt, store)
	require.NoError(t, err)

	state, err := ctrl.Activate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, PromptingUser, state)
	assert.Len(t, prompt.opened, 1)
}

func TestController_RememberRequiresPageOptIn(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{RememberEnabled: false})
	ctx := context.Background()

	_, err := f.ctrl.Activate(ctx, "")
	require.NoError(t, err)
	_, err = f.ctrl.Submit(ctx, "", testPassword, true)
	require.NoError(t, err)

	_, err = f.store.Recall(credentials.DocumentScope)
	assert.ErrorIs(t, err, kerrors.ErrCredentialNotFound)
}

func TestController_SubmitWhileLocked(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{})

	state, err := f.ctrl.Submit(context.Background(), "", testPassword, false)
	require.ErrorIs(t, err, kerrors.ErrInvalidState)
	assert.Equal(t, Locked, state)
}

func TestController_UnknownScope(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{})

	_, err := f.ctrl.Activate(context.Background(), "section-9")
	assert.ErrorIs(t, err, kerrors.ErrNotFound)

	_, err = f.ctrl.State("section-9")
	assert.ErrorIs(t, err, kerrors.ErrNotFound)
}

func TestController_SecondSubmitWhileInFlight(t *testing.T) {
	b := newBlockingDeriver()
	f := newFixture(t, page.EncodeOptions{}, WithKeyDeriver(b.derive))
	ctx := context.Background()

	_, err := f.ctrl.Activate(ctx, "")
	require.NoError(t, err)

	type result struct {
		state State
		err   error
	}
	done := make(chan result, 1)
	go func() {
		state, err := f.ctrl.Submit(ctx, "", testPassword, false)
		done <- result{state, err}
	}()
	waitStarted(t, b)

	state, err := f.ctrl.Submit(ctx, "", testPassword, false)
	require.ErrorIs(t, err, kerrors.ErrAttemptInFlight)
	assert.Equal(t, PromptingUser, state)

	close(b.release)
	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, Unlocked, first.state)
}

func TestController_CloseDiscardsPendingAttempt(t *testing.T) {
	b := newBlockingDeriver()
	f := newFixture(t, page.EncodeOptions{}, WithKeyDeriver(b.derive))
	ctx := context.Background()

	_, err := f.ctrl.Activate(ctx, "")
	require.NoError(t, err)
	before := f.render(t)

	done := make(chan error, 1)
	go func() {
		_, err := f.ctrl.Submit(ctx, "", testPassword, false)
		done <- err
	}()
	waitStarted(t, b)

	require.NoError(t, f.ctrl.Close(""))
	close(b.release)

	require.ErrorIs(t, <-done, kerrors.ErrAttemptDiscarded)
	assert.Equal(t, before, f.render(t))

	state, err := f.ctrl.State("")
	require.NoError(t, err)
	assert.Equal(t, Locked, state)
}

func TestController_CancelledSubmitKeepsPrompting(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{})

	_, err := f.ctrl.Activate(context.Background(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state, err := f.ctrl.Submit(ctx, "", testPassword, false)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, PromptingUser, state)
	assert.Empty(t, f.prompt.errors)
}

func TestController_SectionModeUnlocksIndependently(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{Mode: page.ModeSection, RememberEnabled: true, RememberDays: 30})
	ctx := context.Background()

	assert.Equal(t, page.ModeSection, f.ctrl.Mode())
	assert.Equal(t, []string{"section-0", "section-1"}, f.ctrl.Scopes())

	_, err := f.ctrl.Activate(ctx, "section-1")
	require.NoError(t, err)
	state, err := f.ctrl.Submit(ctx, "section-1", testPassword, true)
	require.NoError(t, err)
	assert.Equal(t, Unlocked, state)

	out := f.render(t)
	assert.Contains(t, out, "second secret")
	assert.NotContains(t, out, "first secret")
	assert.Equal(t, []string{"section-0"}, f.doc.PlaceholderIDs())
	assert.Equal(t, []string{"section-0"}, f.ctrl.Pending())

	_, err = f.store.Recall("section-1")
	require.NoError(t, err)
	_, err = f.store.Recall("section-0")
	assert.ErrorIs(t, err, kerrors.ErrCredentialNotFound)

	state, err = f.ctrl.State("section-0")
	require.NoError(t, err)
	assert.Equal(t, Locked, state)
}

func TestController_ShareFragmentUnlocksWithoutRemembering(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{Mode: page.ModeSection, RememberEnabled: true})

	ok, err := f.ctrl.ApplyShareFragment(context.Background(), "#pagelock_key="+f.key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, f.ctrl.Pending())
	assert.Empty(t, f.prompt.opened)

	for _, id := range f.ctrl.Scopes() {
		_, err := f.store.Recall(id)
		assert.ErrorIs(t, err, kerrors.ErrCredentialNotFound)
	}
}

func TestController_ShareFragmentRemembered(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{RememberEnabled: true, RememberDays: 7})

	ok, err := f.ctrl.ApplyShareFragment(context.Background(), "pagelock_key="+f.key+"&remember_me")
	require.NoError(t, err)
	assert.True(t, ok)

	remembered, err := f.store.Recall(credentials.DocumentScope)
	require.NoError(t, err)
	assert.Equal(t, f.key, remembered)
}

func TestController_ShareFragmentWithWrongKeyPrompts(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{})
	wrong := secrets.DeriveKey("nope", testSalt)

	ok, err := f.ctrl.ApplyShareFragment(context.Background(), "pagelock_key="+wrong)
	require.NoError(t, err)
	assert.True(t, ok)

	state, err := f.ctrl.State("")
	require.NoError(t, err)
	assert.Equal(t, PromptingUser, state)
}

func TestController_ShareFragmentWithoutKey(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{})

	ok, err := f.ctrl.ApplyShareFragment(context.Background(), "#top")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []string{credentials.DocumentScope}, f.ctrl.Pending())
}

func TestController_ShareFragmentKeepsEarlierCredential(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{RememberEnabled: true, RememberDays: 7})
	require.NoError(t, f.store.Remember(credentials.DocumentScope, f.key, 7))

	ok, err := f.ctrl.ApplyShareFragment(context.Background(), "#pagelock_key="+f.key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, f.ctrl.Pending())

	remembered, err := f.store.Recall(credentials.DocumentScope)
	require.NoError(t, err)
	assert.Equal(t, f.key, remembered)
}

func TestController_ShareFragmentWithWrongKeyKeepsEarlierCredential(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{RememberEnabled: true, RememberDays: 7})
	require.NoError(t, f.store.Remember(credentials.DocumentScope, f.key, 7))
	wrong := secrets.DeriveKey("nope", testSalt)

	ok, err := f.ctrl.ApplyShareFragment(context.Background(), "pagelock_key="+wrong)
	require.NoError(t, err)
	assert.True(t, ok)

	// The bad link falls back to the credential that was already there.
	state, err := f.ctrl.State("")
	require.NoError(t, err)
	assert.Equal(t, Unlocked, state)

	remembered, err := f.store.Recall(credentials.DocumentScope)
	require.NoError(t, err)
	assert.Equal(t, f.key, remembered)
}

func TestController_ShareFragmentSkipsUnlockedScopes(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{Mode: page.ModeSection, RememberEnabled: true, RememberDays: 7})
	ctx := context.Background()
	require.NoError(t, f.store.Remember("section-0", f.key, 7))

	state, err := f.ctrl.Activate(ctx, "section-0")
	require.NoError(t, err)
	require.Equal(t, Unlocked, state)

	ok, err := f.ctrl.ApplyShareFragment(ctx, "pagelock_key="+f.key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, f.ctrl.Pending())

	remembered, err := f.store.Recall("section-0")
	require.NoError(t, err)
	assert.Equal(t, f.key, remembered)

	_, err = f.store.Recall("section-1")
	assert.ErrorIs(t, err, kerrors.ErrCredentialNotFound)
}

func TestController_ShareFragmentOpensPromptingScope(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{})
	ctx := context.Background()

	state, err := f.ctrl.Activate(ctx, "")
	require.NoError(t, err)
	require.Equal(t, PromptingUser, state)

	ok, err := f.ctrl.ApplyShareFragment(ctx, "pagelock_key="+f.key)
	require.NoError(t, err)
	assert.True(t, ok)

	state, err = f.ctrl.State("")
	require.NoError(t, err)
	assert.Equal(t, Unlocked, state)
	assert.Equal(t, []string{credentials.DocumentScope}, f.prompt.closed)
	assert.Contains(t, f.render(t), "first secret")
}

func TestController_ShareFragmentWithWrongKeyLeavesPromptOpen(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{})
	ctx := context.Background()

	_, err := f.ctrl.Activate(ctx, "")
	require.NoError(t, err)
	wrong := secrets.DeriveKey("nope", testSalt)

	ok, err := f.ctrl.ApplyShareFragment(ctx, "pagelock_key="+wrong)
	require.NoError(t, err)
	assert.True(t, ok)

	state, err := f.ctrl.State("")
	require.NoError(t, err)
	assert.Equal(t, PromptingUser, state)
	assert.Empty(t, f.prompt.closed)
	assert.Empty(t, f.prompt.errors)
}

func TestController_ShareFragmentRememberNeedsPageOptIn(t *testing.T) {
	f := newFixture(t, page.EncodeOptions{RememberEnabled: false})

	ok, err := f.ctrl.ApplyShareFragment(context.Background(), "pagelock_key="+f.key+"&remember_me")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, f.ctrl.Pending())

	_, err = f.store.Recall(credentials.DocumentScope)
	assert.ErrorIs(t, err, kerrors.ErrCredentialNotFound)
}
