package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"tailbreeze/internal/config"
	"tailbreeze/internal/paths"
	"tailbreeze/internal/tools"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check platform, config, cached CLI and compiled output",
		RunE:  runDoctor,
	}
}

type healthCheck struct {
	Name    string `json:"name"`
	Status  string `json:"status"` // "ok", "warning", "error"
	Summary string `json:"summary"`
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	pp, opts, cfgErr := resolveOptions()
	exists, err := paths.DirExists(pp.Root)
	if err != nil {
		return fmt.Errorf("stat project dir: %w", err)
	}
	if !exists {
		return fmt.Errorf("project directory does not exist: %s", pp.Root)
	}

	env := config.EnvironmentFromOS(pp.Root)
	if envName != "" {
		env.Name = envName
	}

	checks := []healthCheck{checkPlatform()}
	checks = append(checks, checkConfig(pp, opts, cfgErr))
	if cfgErr != nil {
		return writeDoctorResult(cmd, pp.Root, checks)
	}

	checks = append(checks, checkCache(opts))
	checks = append(checks, checkTool(cmd.Context(), opts))
	checks = append(checks, checkOutput(pp, opts, env))

	return writeDoctorResult(cmd, pp.Root, checks)
}

func checkPlatform() healthCheck {
	osID, archID, err := tools.CurrentPlatform()
	if err != nil {
		return healthCheck{Name: "Platform", Status: "error", Summary: err.Error()}
	}
	return healthCheck{Name: "Platform", Status: "ok", Summary: tools.AssetName(osID, archID)}
}

func checkConfig(pp paths.ProjectPaths, opts config.Options, cfgErr error) healthCheck {
	if cfgErr != nil {
		return healthCheck{Name: "Config", Status: "error", Summary: cfgErr.Error()}
	}

	var warnings, errs int
	var first string
	for _, v := range opts.Check(pp.Root) {
		switch v.Level {
		case "warning":
			warnings++
		case "error":
			errs++
			if first == "" {
				first = v.Message
			}
		}
	}

	summary := fmt.Sprintf("tool %s, input %s", opts.ToolVersion, opts.InputPath)
	if errs > 0 {
		return healthCheck{Name: "Config", Status: "error", Summary: fmt.Sprintf("%d errors; %s", errs, first)}
	}
	if warnings > 0 {
		return healthCheck{Name: "Config", Status: "warning", Summary: fmt.Sprintf("%s; %d warnings", summary, warnings)}
	}
	return healthCheck{Name: "Config", Status: "ok", Summary: summary}
}

func checkCache(opts config.Options) healthCheck {
	prov, err := tools.NewProvisioner(opts.CacheDir)
	if err != nil {
		return healthCheck{Name: "Cache", Status: "error", Summary: err.Error()}
	}
	if err := os.MkdirAll(prov.Root(), 0o755); err != nil {
		return healthCheck{Name: "Cache", Status: "error", Summary: err.Error()}
	}
	probe, err := os.CreateTemp(prov.Root(), ".doctor-*")
	if err != nil {
		return healthCheck{Name: "Cache", Status: "error", Summary: fmt.Sprintf("%s is not writable", prov.Root())}
	}
	probe.Close()
	_ = os.Remove(probe.Name())
	return healthCheck{Name: "Cache", Status: "ok", Summary: prov.Root()}
}

func checkTool(ctx context.Context, opts config.Options) healthCheck {
	spec, err := tools.ParseVersion(opts.ToolVersion)
	if err != nil {
		return healthCheck{Name: "Tailwind", Status: "error", Summary: err.Error()}
	}
	prov, err := tools.NewProvisioner(opts.CacheDir)
	if err != nil {
		return healthCheck{Name: "Tailwind", Status: "error", Summary: err.Error()}
	}
	if prov.IsInstalled(ctx, spec) {
		path, _ := prov.LocalPath(spec)
		return healthCheck{Name: "Tailwind", Status: "ok", Summary: fmt.Sprintf("%s at %s", spec, path)}
	}
	if opts.AutoInstallEnabled() {
		return healthCheck{Name: "Tailwind", Status: "warning", Summary: fmt.Sprintf("%s not cached; it will be downloaded on first use", spec)}
	}
	return healthCheck{Name: "Tailwind", Status: "error", Summary: fmt.Sprintf("%s not cached and auto_install is off; run `tailbreeze install`", spec)}
}

func checkOutput(pp paths.ProjectPaths, opts config.Options, env config.Environment) healthCheck {
	exists, err := paths.FileExists(pp.Output)
	if err != nil {
		return healthCheck{Name: "Stylesheet", Status: "error", Summary: err.Error()}
	}
	if exists {
		return healthCheck{Name: "Stylesheet", Status: "ok", Summary: pp.Output}
	}
	fallback := "no CDN fallback"
	if opts.CDNFallback.Resolve(env.IsDevelopment()) {
		fallback = "requests fall back to the CDN"
	}
	return healthCheck{Name: "Stylesheet", Status: "warning", Summary: fmt.Sprintf("%s not compiled yet; %s", pp.Output, fallback)}
}

func writeDoctorResult(cmd *cobra.Command, projectRoot string, checks []healthCheck) error {
	if outputJSON {
		data, err := json.MarshalIndent(checks, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	bold := lipgloss.NewStyle().Bold(true).Inline(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Inline(true)
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Inline(true)
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Inline(true)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, bold.Render("PROJECT HEALTH:")+" "+projectRoot)

	for _, c := range checks {
		var statusStr string
		switch c.Status {
		case "ok":
			statusStr = green.Render("OK")
		case "warning":
			statusStr = yellow.Render("WARN")
		case "error":
			statusStr = red.Render("ERROR")
		}
		fmt.Fprintf(out, "  %-12s %s    %s\n", c.Name+":", statusStr, strings.TrimSpace(c.Summary))
	}

	return nil
}
