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
	"github.com/PolarWolf314/pagelock/internal/sections"
	"github.com/PolarWolf314/pagelock/internal/utils"
)

// DecryptOptions configures the decrypt workflow.
type DecryptOptions struct {
	// Paths lists encoded HTML files, directories or doublestar globs.
	Paths []string

	// BaseDir resolves relative paths. Defaults to the working directory.
	BaseDir string

	// Password overrides PAGELOCK_PASSWORD.
	Password string

	// OutputDir receives the restored pages. Defaults to "decrypted".
	OutputDir string

	// Prompt is asked for the password when none is configured.
	Prompt PasswordPrompt
}

// DecryptResult contains the outcome of a decrypt operation.
type DecryptResult struct {
	// Files holds one result per input file, in input order.
	Files []FileResult

	// OutputDir is the absolute directory the pages were written to.
	OutputDir string

	// Failed counts the files that could not be decrypted.
	Failed int
}

// Decrypt restores encoded pages to their original content.
//
// The salt is read from each page, so pages encoded with different salts can
// be restored in one run as long as they share the password. Pages without
// a config block are copied unchanged. A wrong password fails only the pages
// it does not open.
func Decrypt(ctx context.Context, opts DecryptOptions) (*DecryptResult, error) {
	outputDir := opts.OutputDir
	if outputDir == "" {
		outputDir = configs.DefaultDecryptOutputDir
	}

	env, err := loadEnvironment(opts.BaseDir, &configs.Settings{Password: opts.Password})
	if err != nil {
		return nil, err
	}
	outputDir = env.outputDir(outputDir)

	files, err := secrets.ResolveFiles(opts.Paths, env.baseDir)
	if err != nil {
		return nil, err
	}
	files = excludeDir(files, outputDir)
	if len(files) == 0 {
		return nil, kerrors.ErrNoFilesFound
	}

	password, err := env.password(opts.Prompt)
	if err != nil {
		return nil, err
	}
	keys := newKeyCache(password)

	result := &DecryptResult{OutputDir: outputDir}
	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.Files = append(result.Files, decryptFile(ctx, src, env.baseDir, outputDir, keys))
	}
	result.Failed = countFailed(result.Files)

	entry := audit.LogWithUser(audit.OpDecrypt)
	entry.Files = succeeded(result.Files)
	entry.FailedCount = result.Failed
	entry.OutputDir = outputDir
	audit.Log(entry)

	return result, nil
}

func decryptFile(ctx context.Context, src, baseDir, outputDir string, keys *keyCache) FileResult {
	res := FileResult{Source: src}

	data, err := os.ReadFile(src)
	if err != nil {
		res.Err = fmt.Errorf("reading %s: %w", src, err)
		return res
	}

	restored := string(data)
	if page.HasConfig(restored) {
		cfg, err := page.ExtractConfig(restored)
		if err != nil {
			res.Err = err
			return res
		}

		key, err := keys.key(ctx, cfg.Salt)
		if err != nil {
			res.Err = err
			return res
		}

		restored, res.SectionIDs, err = RestorePage(restored, cfg, key)
		if err != nil {
			res.Err = err
			return res
		}
	} else {
		res.Skipped = true
	}

	out := secrets.RelativeOutputPath(src, baseDir, outputDir)
	if err := utils.WriteFile(out, []byte(restored), 0644); err != nil {
		res.Err = err
		return res
	}
	res.Output = out
	return res
}

// RestorePage decrypts the sections of an encoded page, puts them back in
// place of their placeholders and removes the config block.
func RestorePage(src string, cfg *page.Config, keyHex string) (string, []string, error) {
	secs, err := page.DecryptSections(cfg, keyHex)
	if err != nil {
		return "", nil, err
	}

	doc, err := sections.ParseDocument(src)
	if err != nil {
		return "", nil, err
	}
	if err := sections.Restore(doc, secs); err != nil {
		return "", nil, err
	}

	out, err := sections.RenderDocument(doc)
	if err != nil {
		return "", nil, err
	}
	return page.StripConfig(out), sections.IDs(secs), nil
}
