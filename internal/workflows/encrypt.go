package workflows

import (
	"context"
	"fmt"
	"os"

	"github.com/PolarWolf314/pagelock/internal/audit"
	"github.com/PolarWolf314/pagelock/internal/configs"
	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
	"github.com/PolarWolf314/pagelock/internal/page"
	"github.com/PolarWolf314/pagelock/internal/secrets"
	"github.com/PolarWolf314/pagelock/internal/utils"
)

// EncryptOptions configures the encrypt workflow.
type EncryptOptions struct {
	// Paths lists HTML files, directories or doublestar globs.
	Paths []string

	// BaseDir resolves relative paths and locates the project. Defaults to
	// the working directory.
	BaseDir string

	// Flags holds values given on the command line. They override the
	// environment and the project config.
	Flags *configs.Settings

	// Prompt is asked for the password when none is configured.
	Prompt PasswordPrompt
}

// EncryptResult contains the outcome of an encrypt operation.
type EncryptResult struct {
	// Files holds one result per input file, in input order.
	Files []FileResult

	// OutputDir is the absolute directory the pages were written to.
	OutputDir string

	// Salt is the salt the key was derived with.
	Salt string

	// SaltGenerated is set when no salt was configured and a fresh one was
	// made for this run. The user must keep it to encrypt more pages that
	// share remembered passwords.
	SaltGenerated bool

	// Mode is the unlock mode written into the pages.
	Mode page.Mode

	// Failed counts the files that could not be encrypted.
	Failed int
}

// Encrypt protects the marked regions of HTML pages.
//
// Every page is encoded with the same derived key. Pages without markers
// are copied to the output directory unchanged. A failing page does not stop
// the batch; its error is reported in the result.
//
// Returns ErrNoFilesFound if the paths match no HTML files.
// Returns ErrNoPassword if no password is configured and the prompt gives none.
func Encrypt(ctx context.Context, opts EncryptOptions) (*EncryptResult, error) {
	env, err := loadEnvironment(opts.BaseDir, opts.Flags)
	if err != nil {
		return nil, err
	}
	settings := env.settings

	mode, err := settings.PageMode()
	if err != nil {
		return nil, err
	}
	seg, err := settings.Segmenter()
	if err != nil {
		return nil, err
	}
	rememberEnabled, rememberDays := settings.Remember()

	outputDir := env.outputDir(settings.OutputDir)

	files, err := secrets.ResolveFiles(opts.Paths, env.baseDir)
	if err != nil {
		return nil, err
	}
	files = excludeDir(files, outputDir)
	if len(files) == 0 {
		return nil, kerrors.ErrNoFilesFound
	}

	result := &EncryptResult{
		OutputDir: outputDir,
		Salt:      settings.Salt,
		Mode:      mode,
	}
	if result.Salt == "" {
		if result.Salt, err = secrets.GenerateSalt(); err != nil {
			return nil, err
		}
		result.SaltGenerated = true
	}

	password, err := env.password(opts.Prompt)
	if err != nil {
		return nil, err
	}
	key, err := secrets.DeriveKeyContext(ctx, password, result.Salt)
	if err != nil {
		return nil, err
	}

	encodeOpts := page.EncodeOptions{
		Salt:            result.Salt,
		RememberEnabled: rememberEnabled,
		RememberDays:    rememberDays,
		Mode:            mode,
		Segmenter:       seg,
	}

	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Files = append(result.Files, encryptFile(src, env.baseDir, outputDir, key, encodeOpts))
	}
	result.Failed = countFailed(result.Files)

	entry := audit.LogWithUser(audit.OpEncrypt)
	entry.Files = succeeded(result.Files)
	entry.FailedCount = result.Failed
	entry.Mode = string(mode)
	entry.OutputDir = outputDir
	audit.Log(entry)

	return result, nil
}

func encryptFile(src, baseDir, outputDir, key string, opts page.EncodeOptions) FileResult {
	res := FileResult{Source: src}

	data, err := os.ReadFile(src)
	if err != nil {
		res.Err = fmt.Errorf("reading %s: %w", src, err)
		return res
	}

	encoded, err := page.EncodeDocument(string(data), key, opts)
	if err != nil {
		res.Err = err
		return res
	}

	out := secrets.RelativeOutputPath(src, baseDir, outputDir)
	if err := utils.WriteFile(out, []byte(encoded.HTML), 0644); err != nil {
		res.Err = err
		return res
	}

	res.Output = out
	res.SectionIDs = encoded.SectionIDs
	res.Skipped = !encoded.Encrypted
	return res
}

// excludeDir drops files inside dir, so that encrypting "." twice does not
// pick up the previous output.
func excludeDir(files []string, dir string) []string {
	var kept []string
	for _, f := range files {
		if !isWithin(f, dir) {
			kept = append(kept, f)
		}
	}
	return kept
}
