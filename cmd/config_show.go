package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/PolarWolf314/pagelock/internal/ui"
	"github.com/PolarWolf314/pagelock/internal/workflows"

	"github.com/spf13/cobra"
)

var configShowJSON bool

func init() {
	configShowCmd.Flags().BoolVar(&configShowJSON, "json", false, "output in JSON format")
	ConfigCmd.AddCommand(configShowCmd)
}

// resetConfigShowState resets the config show command's global state for testing.
func resetConfigShowState() {
	configShowJSON = false
}

// configShowOutput is the JSON shape of config show. The password is never
// included, only whether one is set.
type configShowOutput struct {
	ProjectPath     string `json:"project_path,omitempty"`
	ProjectName     string `json:"project_name,omitempty"`
	ProjectUUID     string `json:"project_uuid,omitempty"`
	PasswordSet     bool   `json:"password_set"`
	Salt            string `json:"salt,omitempty"`
	RememberEnabled bool   `json:"remember_enabled"`
	RememberDays    int    `json:"remember_days"`
	Mode            string `json:"mode"`
	StartMarker     string `json:"start_marker"`
	EndMarker       string `json:"end_marker"`
	OutputDir       string `json:"output_dir"`
	CTALabel        string `json:"cta_label"`
	CredentialsPath string `json:"credentials_path"`
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Displays the settings encrypt and share would use in the current directory,
after merging environment variables, the project config and the defaults.

Examples:
  pagelock config show
  pagelock config show --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting config show command")

		result, err := workflows.ConfigShow(context.Background(), workflows.ConfigShowOptions{})
		if err != nil {
			fmt.Println(formatError(err))
			return err
		}

		out := newConfigShowOutput(result)
		if configShowJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(out)
		}

		printConfig(out)
		return nil
	},
}

func newConfigShowOutput(result *workflows.ConfigShowResult) configShowOutput {
	s := result.Settings
	enabled, days := s.Remember()
	out := configShowOutput{
		ProjectPath:     result.ProjectPath,
		PasswordSet:     s.Password != "",
		Salt:            s.Salt,
		RememberEnabled: enabled,
		RememberDays:    days,
		Mode:            s.Mode,
		StartMarker:     s.StartMarker,
		EndMarker:       s.EndMarker,
		OutputDir:       s.OutputDir,
		CTALabel:        s.CTALabel,
		CredentialsPath: result.CredentialsPath,
	}
	if result.Project != nil {
		out.ProjectName = result.Project.Project.Name
		out.ProjectUUID = result.Project.Project.UUID
	}
	return out
}

func printConfig(out configShowOutput) {
	if out.ProjectPath == "" {
		fmt.Println(ui.Warning.Sprint("⚠") + " Not inside a pagelock project, showing environment and defaults")
	} else {
		fmt.Println(ui.Info.Sprint("Project"))
		fmt.Printf("  %-16s %s\n", "name:", ui.Highlight.Sprint(out.ProjectName))
		fmt.Printf("  %-16s %s\n", "uuid:", out.ProjectUUID)
		fmt.Printf("  %-16s %s\n", "path:", ui.Path.Sprint(out.ProjectPath))
	}
	fmt.Println()

	password := ui.Muted.Sprint("not set")
	if out.PasswordSet {
		password = "set " + ui.Muted.Sprint("PAGELOCK_PASSWORD")
	}
	salt := ui.Muted.Sprint("not set")
	if out.Salt != "" {
		salt = ui.Secret.Sprint(out.Salt)
	}
	remember := ui.Muted.Sprint("disabled")
	switch {
	case out.RememberEnabled && out.RememberDays == 0:
		remember = "until forgotten"
	case out.RememberEnabled:
		remember = ui.Plural(out.RememberDays, "day")
	}

	fmt.Println(ui.Info.Sprint("Encryption"))
	fmt.Printf("  %-16s %s\n", "password:", password)
	fmt.Printf("  %-16s %s\n", "salt:", salt)
	fmt.Printf("  %-16s %s\n", "remember:", remember)
	fmt.Printf("  %-16s %s\n", "mode:", out.Mode)
	fmt.Printf("  %-16s %s\n", "markers:", ui.Code.Sprint("<!-- "+out.StartMarker+" -->")+" "+ui.Code.Sprint("<!-- "+out.EndMarker+" -->"))
	fmt.Printf("  %-16s %s\n", "output dir:", ui.Path.Sprint(out.OutputDir))
	fmt.Printf("  %-16s %s\n", "button label:", strconv.Quote(out.CTALabel))
	fmt.Println()

	fmt.Println(ui.Info.Sprint("Reader"))
	fmt.Printf("  %-16s %s\n", "credentials:", ui.Path.Sprint(out.CredentialsPath))
}
