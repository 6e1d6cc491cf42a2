package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/PolarWolf314/pagelock/internal/ui"
	"github.com/PolarWolf314/pagelock/internal/workflows"

	"github.com/spf13/cobra"
)

var (
	cleanForce  bool
	cleanDryRun bool
	cleanOutput string
)

// confirmClean asks before removing files. Tests replace it.
var confirmClean = confirmCleanAction

func init() {
	cleanCmd.Flags().BoolVar(&cleanForce, "force", false, "skip confirmation prompt")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "show what would be removed without making changes")
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "directory encrypted pages are written to")
}

func resetCleanCommandState() {
	cleanForce = false
	cleanDryRun = false
	cleanOutput = ""
	confirmClean = confirmCleanAction
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove encrypted pages whose source is gone",
	Long: `Removes pages from the output directory whose source page no longer
exists, for example after a page was renamed or deleted.

Use --dry-run to preview what would be removed.
Use --force to skip the confirmation prompt.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting clean command")

		preview, err := workflows.Clean(context.Background(), workflows.CleanOptions{
			OutputDir: cleanOutput,
			DryRun:    true,
		})
		if err != nil {
			fmt.Println(formatError(err))
			return err
		}

		wd := workingDir()
		if len(preview.Orphans) == 0 {
			fmt.Println(ui.Success.Sprint("✓") + " No orphaned pages in " + ui.Path.Sprint(displayPath(preview.OutputDir, wd)) + ". Nothing to clean.")
			return nil
		}

		if cleanDryRun {
			fmt.Printf("[dry-run] Would remove %s:\n", ui.Plural(len(preview.Orphans), "orphaned page"))
		} else {
			fmt.Printf("Found %s:\n\n", ui.Plural(len(preview.Orphans), "orphaned page"))
		}
		printOrphanTable(preview.Orphans)

		if cleanDryRun {
			fmt.Println("\nNo changes made.")
			return nil
		}

		if !cleanForce {
			fmt.Println("\nThis will permanently delete the pages listed above.")
			fmt.Println()
			if !confirmClean() {
				fmt.Println("Aborted.")
				return nil
			}
		}

		result, err := workflows.Clean(context.Background(), workflows.CleanOptions{OutputDir: cleanOutput})
		if err != nil {
			return Logger.ErrorfAndReturn("failed to remove orphaned pages: %v", err)
		}

		fmt.Printf("%s Removed %s\n", ui.Success.Sprint("✓"), ui.Plural(result.RemovedCount, "orphaned page"))
		return nil
	},
}

// printOrphanTable prints a formatted table of orphaned pages.
func printOrphanTable(orphans []workflows.OrphanEntry) {
	width := len("ENCRYPTED PAGE")
	for _, o := range orphans {
		if len(o.RelativePath) > width {
			width = len(o.RelativePath)
		}
	}

	fmt.Printf("  %-*s  %s\n", width, "ENCRYPTED PAGE", "MISSING SOURCE")
	for _, o := range orphans {
		fmt.Printf("  %-*s  %s\n", width, o.RelativePath, o.Source)
	}
}

// confirmCleanAction prompts the user to confirm the clean operation.
func confirmCleanAction() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Do you want to continue? [y/N]: ")
	response, err := reader.ReadString('\n')
	if err != nil {
		Logger.Errorf("Failed to read response: %v", err)
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
