package workflows

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PolarWolf314/pagelock/internal/audit"
	"github.com/PolarWolf314/pagelock/internal/configs"
	kerrors "github.com/PolarWolf314/pagelock/internal/errors"
	"github.com/PolarWolf314/pagelock/internal/utils"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.000000Z"
)

// LogOptions configures the log workflow.
type LogOptions struct {
	// BaseDir locates the project. Defaults to the working directory.
	BaseDir string

	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest when true.
	Reverse bool

	// User filters entries by OS user name.
	User string

	// Operations filters entries by operation (comma-separated).
	Operations string

	// Since and Until bound entries by date (YYYY-MM-DD), both inclusive.
	Since string
	Until string
}

// LogResult contains the outcome of a log operation.
type LogResult struct {
	// Entries are the filtered audit log entries.
	Entries []audit.Entry

	// TotalEntriesBeforeFilter is the count of entries before filtering.
	TotalEntriesBeforeFilter int
}

// Log reads and filters the project's audit log.
//
// Returns ErrProjectNotInitialized outside a project.
// Returns ErrNoFilesFound if no audit log exists yet.
// Returns ErrInvalidDateFormat if Since or Until is not YYYY-MM-DD.
func Log(ctx context.Context, opts LogOptions) (*LogResult, error) {
	baseDir := opts.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		baseDir = wd
	}
	baseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving base directory: %w", err)
	}

	projectPath, err := utils.FindProjectRootFrom(baseDir)
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}
	if projectPath == "" {
		return nil, kerrors.ErrProjectNotInitialized
	}
	configs.SetProjectPath(projectPath)

	var since, until time.Time
	if opts.Since != "" {
		if since, err = time.Parse(dateLayout, opts.Since); err != nil {
			return nil, fmt.Errorf("%w: --since must be YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
	}
	if opts.Until != "" {
		if until, err = time.Parse(dateLayout, opts.Until); err != nil {
			return nil, fmt.Errorf("%w: --until must be YYYY-MM-DD", kerrors.ErrInvalidDateFormat)
		}
		until = until.Add(24*time.Hour - time.Nanosecond)
	}

	data, err := os.ReadFile(audit.LogPath())
	if os.IsNotExist(err) {
		return nil, kerrors.ErrNoFilesFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	entries, err := audit.ParseEntries(data)
	if err != nil {
		return nil, fmt.Errorf("parsing audit log: %w", err)
	}

	result := &LogResult{TotalEntriesBeforeFilter: len(entries)}

	filtered := entries[:0:0]
	ops := splitOperations(opts.Operations)
	for _, e := range entries {
		if opts.User != "" && !strings.EqualFold(e.User, opts.User) {
			continue
		}
		if len(ops) > 0 && !ops[strings.ToLower(e.Operation)] {
			continue
		}
		if !since.IsZero() || !until.IsZero() {
			t, ok := parseTimestamp(e.Timestamp)
			if !ok {
				continue
			}
			if !since.IsZero() && t.Before(since) {
				continue
			}
			if !until.IsZero() && t.After(until) {
				continue
			}
		}
		filtered = append(filtered, e)
	}

	if opts.Reverse {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	// The limit always keeps the most recent entries.
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			filtered = filtered[:opts.Limit]
		} else {
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	result.Entries = filtered
	return result, nil
}

func splitOperations(s string) map[string]bool {
	if s == "" {
		return nil
	}
	ops := make(map[string]bool)
	for _, op := range strings.Split(s, ",") {
		if op = strings.TrimSpace(op); op != "" {
			ops[strings.ToLower(op)] = true
		}
	}
	return ops
}

func parseTimestamp(ts string) (time.Time, bool) {
	t, err := time.Parse(timestampLayout, ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	return t, err == nil
}

// FormatDate formats a timestamp string to YYYY-MM-DD format.
func FormatDate(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		if len(ts) >= 10 {
			return ts[:10]
		}
		return ts
	}
	return t.Format(dateLayout)
}

// FormatDateTime formats a timestamp string to YYYY-MM-DD HH:MM:SS format.
func FormatDateTime(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		if len(ts) >= 19 {
			return ts[:19]
		}
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatDetails describes what an entry touched.
func FormatDetails(e audit.Entry) string {
	switch e.Operation {
	case audit.OpEncrypt, audit.OpDecrypt:
		details := ""
		if len(e.Files) > 3 {
			details = fmt.Sprintf("%d pages", len(e.Files))
		} else {
			details = strings.Join(e.Files, ", ")
		}
		if e.Mode != "" {
			details += " [" + e.Mode + "]"
		}
		if e.FailedCount > 0 {
			details += fmt.Sprintf(", %d failed", e.FailedCount)
		}
		return strings.TrimSpace(details)
	case audit.OpShare:
		return e.PageURL
	case audit.OpInit:
		return e.ProjectName
	case audit.OpClean:
		return fmt.Sprintf("removed %d", e.RemovedCount)
	default:
		return ""
	}
}

// FormatDetailsOneline is FormatDetails for the compact listing.
func FormatDetailsOneline(e audit.Entry) string {
	switch e.Operation {
	case audit.OpEncrypt, audit.OpDecrypt:
		if e.FailedCount > 0 {
			return fmt.Sprintf("%d pages, %d failed", len(e.Files), e.FailedCount)
		}
		return fmt.Sprintf("%d pages", len(e.Files))
	case audit.OpShare:
		return e.PageURL
	case audit.OpInit:
		return e.ProjectName
	case audit.OpClean:
		return fmt.Sprintf("removed %d", e.RemovedCount)
	default:
		return ""
	}
}
