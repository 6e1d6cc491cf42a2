package workflows

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/PolarWolf314/pagelock/internal/audit"
	"github.com/PolarWolf314/pagelock/internal/configs"
	kerrors "github.com/PolarWolf314/pagelock/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initProject turns dir into a pagelock project with a fixed salt.
func initProject(t *testing.T, dir string) {
	t.Helper()
	_, err := Init(context.Background(), InitOptions{BaseDir: dir, ProjectName: "docs", Salt: "00112233445566778899aabbccddeeff"})
	require.NoError(t, err)
}

// useCredentialsPath points the user settings at a fresh credentials file.
func useCredentialsPath(t *testing.T) string {
	t.Helper()
	original := configs.UserPagelockSettings
	t.Cleanup(func() { configs.UserPagelockSettings = original })

	path := filepath.Join(t.TempDir(), configs.CredentialsFileName)
	configs.UserPagelockSettings = &configs.UserSettings{
		UserConfigsPath: filepath.Dir(path),
		CredentialsPath: path,
		Username:        "alice",
	}
	return path
}

func findPage(t *testing.T, pages []PageStatusInfo, path string) PageStatusInfo {
	t.Helper()
	for _, p := range pages {
		if p.Path == path {
			return p
		}
	}
	t.Fatalf("no status for %s", path)
	return PageStatusInfo{}
}

func TestStatus_ClassifiesPages(t *testing.T) {
	clearEnv(t)
	dir := writeSite(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site", "broken.html"), []byte(`<!--start-->oops`), 0644))

	res, err := Status(context.Background(), StatusOptions{BaseDir: dir})
	require.NoError(t, err)

	assert.Equal(t, StatusUnencrypted, findPage(t, res.Pages, filepath.Join("site", "index.html")).Status)
	assert.Equal(t, 2, findPage(t, res.Pages, filepath.Join("site", "index.html")).Sections)
	assert.Equal(t, StatusPlain, findPage(t, res.Pages, filepath.Join("site", "posts", "plain.html")).Status)

	broken := findPage(t, res.Pages, filepath.Join("site", "broken.html"))
	assert.Equal(t, StatusInvalid, broken.Status)
	assert.ErrorIs(t, broken.Err, kerrors.ErrFormat)

	assert.Equal(t, StatusSummary{Unencrypted: 1, Plain: 1, Invalid: 1}, res.Summary)
}

func TestStatus_CurrentStaleAndEncoded(t *testing.T) {
	clearEnv(t)
	dir := writeSite(t)
	encryptSite(t, dir, &configs.Settings{Password: "pw", Salt: "s"})

	res, err := Status(context.Background(), StatusOptions{BaseDir: dir})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.Current)
	for _, p := range res.Pages {
		assert.NotContains(t, p.Path, "encrypted", "output directory must not be scanned")
	}

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "site", "index.html"), future, future))
	res, err = Status(context.Background(), StatusOptions{Paths: []string{"site"}, BaseDir: dir})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.Stale)

	// Scanning the output directory itself against another one shows encoded pages.
	res, err = Status(context.Background(), StatusOptions{Paths: []string{"encrypted"}, BaseDir: dir, OutputDir: "elsewhere"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.Encoded)
}

func TestStatus_NoFiles(t *testing.T) {
	clearEnv(t)

	_, err := Status(context.Background(), StatusOptions{BaseDir: t.TempDir()})
	assert.ErrorIs(t, err, kerrors.ErrNoFilesFound)
}

func TestLog_RecordsAndFilters(t *testing.T) {
	clearEnv(t)
	useCredentialsPath(t)
	dir := writeSite(t)

	_, err := Log(context.Background(), LogOptions{BaseDir: dir})
	require.ErrorIs(t, err, kerrors.ErrProjectNotInitialized)

	initProject(t, dir)
	encryptSite(t, dir, &configs.Settings{Password: "pw"})
	_, err = Share(context.Background(), ShareOptions{BaseDir: dir, URL: "https://example.com/docs/#x", Password: "pw"})
	require.NoError(t, err)

	res, err := Log(context.Background(), LogOptions{BaseDir: dir})
	require.NoError(t, err)
	require.Len(t, res.Entries, 3)
	assert.Equal(t, 3, res.TotalEntriesBeforeFilter)
	assert.Equal(t, audit.OpInit, res.Entries[0].Operation)
	assert.Equal(t, "docs", res.Entries[0].ProjectName)
	assert.Equal(t, audit.OpEncrypt, res.Entries[1].Operation)
	assert.Equal(t, audit.OpShare, res.Entries[2].Operation)
	assert.Equal(t, "https://example.com/docs/", res.Entries[2].PageURL)
	for _, e := range res.Entries {
		assert.Equal(t, "alice", e.User)
	}

	res, err = Log(context.Background(), LogOptions{BaseDir: dir, Operations: "encrypt, share"})
	require.NoError(t, err)
	assert.Len(t, res.Entries, 2)

	res, err = Log(context.Background(), LogOptions{BaseDir: dir, Limit: 1})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, audit.OpShare, res.Entries[0].Operation)

	res, err = Log(context.Background(), LogOptions{BaseDir: dir, Reverse: true, Limit: 2})
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	assert.Equal(t, audit.OpShare, res.Entries[0].Operation)
	assert.Equal(t, audit.OpEncrypt, res.Entries[1].Operation)

	res, err = Log(context.Background(), LogOptions{BaseDir: dir, User: "bob"})
	require.NoError(t, err)
	assert.Empty(t, res.Entries)

	res, err = Log(context.Background(), LogOptions{BaseDir: dir, Until: "2000-01-01"})
	require.NoError(t, err)
	assert.Empty(t, res.Entries)

	_, err = Log(context.Background(), LogOptions{BaseDir: dir, Since: "01/02/2024"})
	assert.ErrorIs(t, err, kerrors.ErrInvalidDateFormat)
}

func TestFormatDetails(t *testing.T) {
	assert.Equal(t, "removed 2", FormatDetailsOneline(audit.Entry{Operation: audit.OpClean, RemovedCount: 2}))
	assert.Equal(t, "2024-01-15", FormatDate("2024-01-15T10:30:00.000000Z"))
	assert.Equal(t, "2024-01-15 10:30:00", FormatDateTime("2024-01-15T10:30:00.000000Z"))
}

func TestClean_RemovesOrphans(t *testing.T) {
	clearEnv(t)
	dir := writeSite(t)
	encryptSite(t, dir, &configs.Settings{Password: "pw", Salt: "s"})

	res, err := Clean(context.Background(), CleanOptions{BaseDir: dir})
	require.NoError(t, err)
	assert.Empty(t, res.Orphans)

	require.NoError(t, os.Remove(filepath.Join(dir, "site", "posts", "plain.html")))
	orphan := filepath.Join(dir, "encrypted", "site", "posts", "plain.html")

	res, err = Clean(context.Background(), CleanOptions{BaseDir: dir, DryRun: true})
	require.NoError(t, err)
	require.Len(t, res.Orphans, 1)
	assert.Equal(t, orphan, res.Orphans[0].FilePath)
	assert.Equal(t, filepath.Join("site", "posts", "plain.html"), res.Orphans[0].Source)
	assert.Zero(t, res.RemovedCount)
	assert.FileExists(t, orphan)

	res, err = Clean(context.Background(), CleanOptions{BaseDir: dir})
	require.NoError(t, err)
	assert.Equal(t, 1, res.RemovedCount)
	assert.NoFileExists(t, orphan)
	assert.FileExists(t, filepath.Join(dir, "encrypted", "site", "index.html"))
}

func TestClean_MissingOutputDir(t *testing.T) {
	clearEnv(t)

	res, err := Clean(context.Background(), CleanOptions{BaseDir: t.TempDir()})
	require.NoError(t, err)
	assert.Empty(t, res.Orphans)
}

func checkByName(t *testing.T, res *DoctorResult, name string) CheckResult {
	t.Helper()
	for _, c := range res.Checks {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("no check named %s", name)
	return CheckResult{}
}

func TestDoctor_OutsideProject(t *testing.T) {
	clearEnv(t)
	useCredentialsPath(t)

	res, err := Doctor(context.Background(), DoctorOptions{BaseDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, CheckWarning, checkByName(t, res, "Project configuration").Status)
	assert.Equal(t, CheckWarning, checkByName(t, res, "Salt").Status)
	assert.Equal(t, CheckPass, checkByName(t, res, "Pages").Status)
	assert.Equal(t, 2, res.Summary.Warnings)
	assert.Zero(t, res.Summary.Errors)
	assert.NotEmpty(t, res.Suggestions)
}

func TestDoctor_HealthyProject(t *testing.T) {
	clearEnv(t)
	useCredentialsPath(t)
	dir := writeSite(t)
	initProject(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("node_modules\n/decrypted/\n"), 0644))
	encryptSite(t, dir, &configs.Settings{Password: "pw"})

	res, err := Doctor(context.Background(), DoctorOptions{BaseDir: dir})
	require.NoError(t, err)

	for _, c := range res.Checks {
		assert.Equal(t, CheckPass, c.Status, "%s: %s", c.Name, c.Message)
	}
	assert.Empty(t, res.Suggestions)
}

func TestDoctor_FindsProblems(t *testing.T) {
	clearEnv(t)
	credPath := useCredentialsPath(t)
	dir := writeSite(t)
	_, err := Init(context.Background(), InitOptions{BaseDir: dir, Salt: "abcd"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site", "broken.html"), []byte(`<!--end-->`), 0644))
	require.NoError(t, os.WriteFile(credPath, []byte("{}"), 0644))

	res, err := Doctor(context.Background(), DoctorOptions{BaseDir: dir})
	require.NoError(t, err)

	assert.Equal(t, CheckWarning, checkByName(t, res, "Salt").Status)
	assert.Equal(t, CheckWarning, checkByName(t, res, "Credentials permissions").Status)
	assert.Equal(t, CheckWarning, checkByName(t, res, "Gitignore configuration").Status)
	assert.Equal(t, CheckError, checkByName(t, res, "Pages").Status)
	assert.Equal(t, 1, res.Summary.Errors)
}
