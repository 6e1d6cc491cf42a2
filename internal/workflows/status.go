package workflows

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/PolarWolf314/pagelock/internal/page"
	"github.com/PolarWolf314/pagelock/internal/secrets"
)

// PageStatus represents the encryption status of a source page.
type PageStatus string

const (
	// StatusCurrent means the encrypted page is newer than the source.
	StatusCurrent PageStatus = "current"
	// StatusStale means the source was modified after encryption.
	StatusStale PageStatus = "stale"
	// StatusUnencrypted means the source has marked regions but no encrypted page.
	StatusUnencrypted PageStatus = "unencrypted"
	// StatusPlain means the source has no marked regions.
	StatusPlain PageStatus = "plain"
	// StatusEncoded means the source is itself an encrypted page.
	StatusEncoded PageStatus = "encoded"
	// StatusInvalid means the markers of the source do not pair up.
	StatusInvalid PageStatus = "invalid"
)

// PageStatusInfo holds the status of one source page.
type PageStatusInfo struct {
	// Path is the page relative to the base directory.
	Path string

	// Output is where encrypt writes the page, relative to the base directory.
	Output string

	Status PageStatus

	// Sections counts the marked regions of the source.
	Sections int

	// Err explains StatusInvalid.
	Err error
}

// StatusSummary holds counts of pages by status.
type StatusSummary struct {
	Current     int
	Stale       int
	Unencrypted int
	Plain       int
	Encoded     int
	Invalid     int
}

// StatusOptions configures the status workflow.
type StatusOptions struct {
	// Paths lists HTML files, directories or globs. Defaults to the base
	// directory.
	Paths []string

	// BaseDir locates the project. Defaults to the working directory.
	BaseDir string

	// OutputDir is the directory encrypt writes to. Defaults to the
	// configured output directory.
	OutputDir string
}

// StatusResult contains the outcome of a status operation.
type StatusResult struct {
	// ProjectName is empty outside a project.
	ProjectName string

	// OutputDir is the absolute directory compared against.
	OutputDir string

	// Pages is sorted by path.
	Pages []PageStatusInfo

	Summary StatusSummary
}

// Status compares source pages against their encrypted copies.
//
// A page is current when its encrypted copy is newer, stale when the source
// changed afterwards, and unencrypted when there is no copy yet. Pages
// without markers are reported as plain. Pages that already carry a config
// block are reported as encoded, since encrypting them again would fail.
//
// Returns ErrNoFilesFound if the paths match no HTML files.
func Status(ctx context.Context, opts StatusOptions) (*StatusResult, error) {
	env, err := loadEnvironment(opts.BaseDir, nil)
	if err != nil {
		return nil, err
	}
	seg, err := env.settings.Segmenter()
	if err != nil {
		return nil, err
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = env.settings.OutputDir
	}
	outputDir := env.outputDir(dir)

	paths := opts.Paths
	if len(paths) == 0 {
		paths = []string{"."}
	}
	files, err := secrets.ResolveFiles(paths, env.baseDir)
	if err != nil {
		return nil, err
	}
	files = excludeDir(files, outputDir)

	result := &StatusResult{OutputDir: outputDir}
	if env.project != nil {
		result.ProjectName = env.project.Project.Name
	}

	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, err
		}
		out := secrets.RelativeOutputPath(src, env.baseDir, outputDir)
		info := PageStatusInfo{
			Path:   relativeTo(env.baseDir, src),
			Output: relativeTo(env.baseDir, out),
		}

		switch _, found, err := seg.Extract(string(data)); {
		case page.HasConfig(string(data)):
			info.Status = StatusEncoded
		case err != nil:
			info.Status = StatusInvalid
			info.Err = err
		case len(found) == 0:
			info.Status = StatusPlain
		default:
			info.Sections = len(found)
			info.Status = compareModTimes(src, out)
		}
		result.Pages = append(result.Pages, info)
	}

	sort.Slice(result.Pages, func(i, j int) bool {
		return result.Pages[i].Path < result.Pages[j].Path
	})
	result.Summary = summarizeStatus(result.Pages)
	return result, nil
}

func compareModTimes(src, out string) PageStatus {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return StatusUnencrypted
	}
	outInfo, err := os.Stat(out)
	if err != nil {
		return StatusUnencrypted
	}
	if outInfo.ModTime().Before(srcInfo.ModTime()) {
		return StatusStale
	}
	return StatusCurrent
}

func summarizeStatus(pages []PageStatusInfo) StatusSummary {
	var summary StatusSummary
	for _, p := range pages {
		switch p.Status {
		case StatusCurrent:
			summary.Current++
		case StatusStale:
			summary.Stale++
		case StatusUnencrypted:
			summary.Unencrypted++
		case StatusPlain:
			summary.Plain++
		case StatusEncoded:
			summary.Encoded++
		case StatusInvalid:
			summary.Invalid++
		}
	}
	return summary
}

func relativeTo(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return rel
}
