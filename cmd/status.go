package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/PolarWolf314/pagelock/internal/ui"
	"github.com/PolarWolf314/pagelock/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	statusOutput     string
	statusJSONOutput bool
)

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "", "directory encrypted pages are written to")
	statusCmd.Flags().BoolVar(&statusJSONOutput, "json", false, "output in JSON format")
}

func resetStatusCommandState() {
	statusOutput = ""
	statusJSONOutput = false
}

type statusPageJSON struct {
	Path     string `json:"path"`
	Output   string `json:"output"`
	Status   string `json:"status"`
	Sections int    `json:"sections"`
	Error    string `json:"error,omitempty"`
}

type statusJSON struct {
	ProjectName string                  `json:"project,omitempty"`
	OutputDir   string                  `json:"output_dir"`
	Pages       []statusPageJSON        `json:"pages"`
	Summary     workflows.StatusSummary `json:"summary"`
}

var statusCmd = &cobra.Command{
	Use:   "status [paths]...",
	Short: "Show which pages need encrypting",
	Long: `Compares source pages with their encrypted copies.

Each page has one of these statuses:
  - current:     encrypted copy is newer than the source
  - stale:       source modified after encryption (needs re-encryption)
  - unencrypted: source has marked regions but no encrypted copy
  - plain:       source has no marked regions
  - encoded:     source is itself an encrypted page
  - invalid:     markers do not pair up, encryption would fail

Use --json for machine-readable output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")

		result, err := workflows.Status(context.Background(), workflows.StatusOptions{
			Paths:     args,
			OutputDir: statusOutput,
		})
		if err != nil {
			Logger.Errorf("Status failed: %v", err)
			fmt.Println(formatError(err))
			if isUnexpectedError(err) {
				return err
			}
			return nil
		}

		if statusJSONOutput {
			return outputStatusJSON(result)
		}
		printStatusTable(result)
		return nil
	},
}

func outputStatusJSON(result *workflows.StatusResult) error {
	out := statusJSON{
		ProjectName: result.ProjectName,
		OutputDir:   result.OutputDir,
		Pages:       make([]statusPageJSON, 0, len(result.Pages)),
		Summary:     result.Summary,
	}
	for _, p := range result.Pages {
		entry := statusPageJSON{
			Path:     p.Path,
			Output:   p.Output,
			Status:   string(p.Status),
			Sections: p.Sections,
		}
		if p.Err != nil {
			entry.Error = p.Err.Error()
		}
		out.Pages = append(out.Pages, entry)
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func printStatusTable(result *workflows.StatusResult) {
	if result.ProjectName != "" {
		fmt.Printf("Project: %s\n", ui.Highlight.Sprint(result.ProjectName))
	}
	fmt.Printf("Encrypted pages: %s\n\n", ui.Path.Sprint(displayPath(result.OutputDir, workingDir())))

	width := len("PAGE")
	for _, p := range result.Pages {
		if len(p.Path) > width {
			width = len(p.Path)
		}
	}

	fmt.Printf("  %-*s  %-9s  %s\n", width, "PAGE", "SECTIONS", "STATUS")
	for _, p := range result.Pages {
		fmt.Printf("  %-*s  %-9d  %s\n", width, p.Path, p.Sections, formatPageStatus(p))
	}

	s := result.Summary
	fmt.Println()
	fmt.Printf("Summary: %d current, %d stale, %d unencrypted, %d plain", s.Current, s.Stale, s.Unencrypted, s.Plain)
	if s.Encoded > 0 {
		fmt.Printf(", %d encoded", s.Encoded)
	}
	if s.Invalid > 0 {
		fmt.Printf(", %s", ui.Error.Sprint(fmt.Sprintf("%d invalid", s.Invalid)))
	}
	fmt.Println()

	if s.Stale > 0 || s.Unencrypted > 0 {
		fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("pagelock encrypt .") + " to update encrypted pages")
	}
}

func formatPageStatus(p workflows.PageStatusInfo) string {
	switch p.Status {
	case workflows.StatusCurrent:
		return ui.Success.Sprint(string(p.Status))
	case workflows.StatusStale, workflows.StatusUnencrypted:
		return ui.Warning.Sprint(string(p.Status))
	case workflows.StatusInvalid:
		return ui.Error.Sprint(string(p.Status)) + " " + ui.Muted.Sprint(p.Err.Error())
	case workflows.StatusEncoded:
		return ui.Info.Sprint(string(p.Status))
	default:
		return ui.Muted.Sprint(string(p.Status))
	}
}
