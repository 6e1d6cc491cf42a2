package workflows

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/PolarWolf314/pagelock/internal/audit"
	"github.com/PolarWolf314/pagelock/internal/secrets"
)

// OrphanEntry is an encrypted page whose source page no longer exists.
type OrphanEntry struct {
	// FilePath is the absolute path to the encrypted page.
	FilePath string

	// RelativePath is FilePath relative to the base directory.
	RelativePath string

	// Source is the missing source page, relative to the base directory.
	Source string
}

// CleanOptions configures the clean workflow.
type CleanOptions struct {
	// BaseDir locates the project. Defaults to the working directory.
	BaseDir string

	// OutputDir is the directory encrypt writes to. Defaults to the
	// configured output directory.
	OutputDir string

	// DryRun previews what would be removed without making changes.
	DryRun bool
}

// CleanResult contains the outcome of a clean operation.
type CleanResult struct {
	// OutputDir is the absolute directory that was scanned.
	OutputDir string

	// Orphans is the list of orphaned pages found.
	Orphans []OrphanEntry

	// RemovedCount is the number of files removed (0 if dry-run).
	RemovedCount int

	// DryRun indicates whether this was a dry-run.
	DryRun bool
}

// Clean removes encrypted pages left behind after their source was deleted
// or renamed. Only HTML files under the output directory are considered.
func Clean(ctx context.Context, opts CleanOptions) (*CleanResult, error) {
	env, err := loadEnvironment(opts.BaseDir, nil)
	if err != nil {
		return nil, err
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = env.settings.OutputDir
	}
	outputDir := env.outputDir(dir)

	orphans, err := findOrphanedPages(env.baseDir, outputDir)
	if err != nil {
		return nil, fmt.Errorf("finding orphaned pages: %w", err)
	}

	result := &CleanResult{
		OutputDir: outputDir,
		Orphans:   orphans,
		DryRun:    opts.DryRun,
	}

	if len(orphans) == 0 || opts.DryRun {
		return result, nil
	}

	for _, orphan := range orphans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := os.Remove(orphan.FilePath); err != nil {
			return nil, fmt.Errorf("removing %s: %w", orphan.FilePath, err)
		}
		result.RemovedCount++
	}

	entry := audit.LogWithUser(audit.OpClean)
	entry.RemovedCount = result.RemovedCount
	entry.OutputDir = outputDir
	audit.Log(entry)

	return result, nil
}

// findOrphanedPages walks outputDir and maps every page back to the source
// it was written from.
func findOrphanedPages(baseDir, outputDir string) ([]OrphanEntry, error) {
	var orphans []OrphanEntry

	err := filepath.WalkDir(outputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !secrets.IsHTMLFile(path) {
			return nil
		}

		rel, err := filepath.Rel(outputDir, path)
		if err != nil {
			return err
		}
		source := filepath.Join(baseDir, rel)
		if _, err := os.Stat(source); err == nil {
			return nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		orphans = append(orphans, OrphanEntry{
			FilePath:     path,
			RelativePath: relativeTo(baseDir, path),
			Source:       rel,
		})
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	return orphans, err
}
