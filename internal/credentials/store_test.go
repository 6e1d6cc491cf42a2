package credentials

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	kerrors "github.com/PolarWolf314/pagelock/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0f1e2d3c4b5a69788796a5b4c3d2e1f00f1e2d3c4b5a69788796a5b4c3d2e1f0"

// fakeClock is a settable clock safe for concurrent use.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestStore_RememberRecall(t *testing.T) {
	store := NewStore(NewMemoryStorage())

	require.NoError(t, store.Remember(DocumentScope, testKey, 0))

	got, err := store.Recall(DocumentScope)
	require.NoError(t, err)
	assert.Equal(t, testKey, got)
}

func TestStore_RecallAbsent(t *testing.T) {
	store := NewStore(NewMemoryStorage())

	_, err := store.Recall(DocumentScope)
	require.ErrorIs(t, err, kerrors.ErrCredentialNotFound)
}

func TestStore_ExpiryEvictsOnRead(t *testing.T) {
	clock := newFakeClock()
	storage := NewMemoryStorage()
	store := NewStore(storage, WithClock(clock.Now))

	require.NoError(t, store.Remember(DocumentScope, testKey, 1))

	clock.Advance(23 * time.Hour)
	got, err := store.Recall(DocumentScope)
	require.NoError(t, err)
	assert.Equal(t, testKey, got)

	clock.Advance(2 * 24 * time.Hour)
	_, err = store.Recall(DocumentScope)
	require.ErrorIs(t, err, kerrors.ErrExpiredCredential)
	assert.Zero(t, storage.Len(), "expired entry must be evicted")

	_, err = store.Recall(DocumentScope)
	require.ErrorIs(t, err, kerrors.ErrCredentialNotFound)
}

func TestStore_ExpiresExactlyAtDeadline(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(NewMemoryStorage(), WithClock(clock.Now))

	require.NoError(t, store.Remember(DocumentScope, testKey, 1))
	clock.Advance(24 * time.Hour)

	_, err := store.Recall(DocumentScope)
	require.ErrorIs(t, err, kerrors.ErrExpiredCredential)
}

func TestStore_NoExpiryWhenDurationNotPositive(t *testing.T) {
	for _, days := range []int{0, -3} {
		clock := newFakeClock()
		storage := NewMemoryStorage()
		store := NewStore(storage, WithClock(clock.Now))

		require.NoError(t, store.Remember(DocumentScope, testKey, days))
		_, hasExpiry, _ := storage.Get(expirationKey)
		assert.False(t, hasExpiry)

		clock.Advance(10 * 365 * 24 * time.Hour)
		got, err := store.Recall(DocumentScope)
		require.NoError(t, err)
		assert.Equal(t, testKey, got)
	}
}

func TestStore_RememberReplacesExpiry(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(NewMemoryStorage(), WithClock(clock.Now))

	require.NoError(t, store.Remember(DocumentScope, testKey, 1))
	require.NoError(t, store.Remember(DocumentScope, testKey, 0))

	clock.Advance(5 * 24 * time.Hour)
	_, err := store.Recall(DocumentScope)
	require.NoError(t, err)
}

func TestStore_CorruptExpiryIsTreatedAsExpired(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewStore(storage)

	require.NoError(t, storage.Set(passphraseKey, testKey))
	require.NoError(t, storage.Set(expirationKey, "tomorrow"))

	_, err := store.Recall(DocumentScope)
	require.ErrorIs(t, err, kerrors.ErrExpiredCredential)
	assert.Zero(t, storage.Len())
}

func TestStore_ScopesAreIndependent(t *testing.T) {
	clock := newFakeClock()
	store := NewStore(NewMemoryStorage(), WithClock(clock.Now))

	require.NoError(t, store.Remember("section-0", "aa", 1))
	require.NoError(t, store.Remember("section-1", "bb", 0))

	require.NoError(t, store.Forget("section-1"))
	got, err := store.Recall("section-0")
	require.NoError(t, err)
	assert.Equal(t, "aa", got)

	_, err = store.Recall("section-1")
	require.ErrorIs(t, err, kerrors.ErrCredentialNotFound)

	_, err = store.Recall(DocumentScope)
	require.ErrorIs(t, err, kerrors.ErrCredentialNotFound)
}

func TestStore_ForgetAll(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewStore(storage)

	require.NoError(t, store.Remember("section-0", "aa", 2))
	require.NoError(t, store.Remember("section-1", "bb", 0))
	require.NoError(t, store.ForgetAll([]string{"section-0", "section-1", "section-9"}))
	assert.Zero(t, storage.Len())
}

func TestStorageKeys(t *testing.T) {
	k, e := StorageKeys(DocumentScope)
	assert.Equal(t, "pagelock_passphrase", k)
	assert.Equal(t, "pagelock_expiration", e)

	k, e = StorageKeys("section-3")
	assert.Equal(t, "pagelock_passphrase_section-3", k)
	assert.Equal(t, "pagelock_expiration_section-3", e)
}

func TestStore_ConcurrentRememberIsLastWriterWins(t *testing.T) {
	store := NewStore(NewMemoryStorage())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Remember(DocumentScope, testKey, 1)
			_, _ = store.Recall(DocumentScope)
		}()
	}
	wg.Wait()

	got, err := store.Recall(DocumentScope)
	require.NoError(t, err)
	assert.Equal(t, testKey, got)
}

func TestFileStorage_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.toml")

	first := NewStore(NewFileStorage(path))
	require.NoError(t, first.Remember("section-0", testKey, 3))

	second := NewStore(NewFileStorage(path))
	got, err := second.Recall("section-0")
	require.NoError(t, err)
	assert.Equal(t, testKey, got)

	require.NoError(t, second.Forget("section-0"))
	_, err = first.Recall("section-0")
	require.ErrorIs(t, err, kerrors.ErrCredentialNotFound)
}

func TestFileStorage_MissingFileIsEmpty(t *testing.T) {
	fs := NewFileStorage(filepath.Join(t.TempDir(), "none.toml"))

	_, ok, err := fs.Get("anything")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, fs.Remove("anything"))
}

func TestStore_NamespacesShareStorage(t *testing.T) {
	storage := NewMemoryStorage()
	pageA := NewStore(storage, WithNamespace("salt-a"))
	pageB := NewStore(storage, WithNamespace("salt-b"))

	require.NoError(t, pageA.Remember(DocumentScope, testKey, 1))

	_, err := pageB.Recall(DocumentScope)
	require.ErrorIs(t, err, kerrors.ErrCredentialNotFound)

	// Forgetting on one page leaves the other page's credential alone.
	require.NoError(t, pageB.Forget(DocumentScope))
	got, err := pageA.Recall(DocumentScope)
	require.NoError(t, err)
	assert.Equal(t, testKey, got)

	keyEntry, expEntry := StorageKeys(DocumentScope)
	v, ok, err := storage.Get("salt-a." + keyEntry)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testKey, v)
	_, ok, err = storage.Get("salt-a." + expEntry)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestStore_NamespaceInFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.toml")

	store := NewStore(NewFileStorage(path), WithNamespace("0123abcd"))
	require.NoError(t, store.Remember("section-2", testKey, 0))

	reopened := NewStore(NewFileStorage(path), WithNamespace("0123abcd"))
	got, err := reopened.Recall("section-2")
	require.NoError(t, err)
	assert.Equal(t, testKey, got)

	_, err = NewStore(NewFileStorage(path)).Recall("section-2")
	require.ErrorIs(t, err, kerrors.ErrCredentialNotFound)
}
